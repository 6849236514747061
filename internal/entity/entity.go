package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company is the top-level owner of one or more EMS services. Companies and
// users are shared across services; everything else belongs to exactly one
// service.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// Service is a single EMS organization (tenant).
type Service struct {
	ID        string    `json:"id"`
	CompanyID string    `json:"company_id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

// ServiceMembership links a user to a service with a role. A user may hold
// memberships in several services.
type ServiceMembership struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ServiceID string    `json:"service_id"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

type Vendor struct {
	ID          string `json:"id"`
	ServiceID   string `json:"service_id"`
	Name        string `json:"name"`
	ContactInfo string `json:"contact_info"`
	IsActive    bool   `json:"is_active"`
}

// ItemCatalog describes a kind of supply. IsControlled gates the controlled
// substance workflows (administer, witnessed waste).
type ItemCatalog struct {
	ID              string `json:"id"`
	ServiceID       string `json:"service_id"`
	Name            string `json:"name"`
	Category        string `json:"category"`
	IsControlled    bool   `json:"is_controlled"`
	Unit            string `json:"unit"`
	DefaultParLevel int    `json:"default_par_level"`
	IsActive        bool   `json:"is_active"`
}

// MedicationLot is the batch identity of a controlled item. Immutable once
// created; each physical unit owns its own lot record.
type MedicationLot struct {
	ID             string    `json:"id"`
	ServiceID      string    `json:"service_id"`
	CatalogID      string    `json:"catalog_id"`
	LotNumber      string    `json:"lot_number"`
	SerialNumber   string    `json:"serial_number"`
	ExpirationDate time.Time `json:"expiration_date"`
	Code           string    `json:"code"`
	CreatedAt      time.Time `json:"created_at"`
}

// InventoryItem is one physical unit (or counted quantity) of a catalog entry.
// Quantity is the amount in the unit (e.g. mg in a vial) and is never negative.
// LastCheckedAt is only advanced by a completed check or seal verification.
type InventoryItem struct {
	ID            string          `json:"id"`
	ServiceID     string          `json:"service_id"`
	CatalogID     string          `json:"catalog_id"`
	LotID         string          `json:"lot_id,omitempty"`
	LocationID    string          `json:"location_id"`
	Status        ItemStatus      `json:"status"`
	Quantity      decimal.Decimal `json:"quantity"`
	Code          string          `json:"code"`
	Notes         string          `json:"notes"`
	IsActive      bool            `json:"is_active"`
	LastCheckedAt time.Time       `json:"last_checked_at"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Location is a node in a strict tree of storage places. A sealed location is
// verified as a unit by its tamper seal instead of item by item.
type Location struct {
	ID                  string    `json:"id"`
	ServiceID           string    `json:"service_id"`
	ParentID            string    `json:"parent_id,omitempty"`
	Name                string    `json:"name"`
	Type                string    `json:"type"`
	Sealed              bool      `json:"sealed"`
	SealID              string    `json:"seal_id"`
	CheckFrequencyHours int       `json:"check_frequency_hours"`
	IsActive            bool      `json:"is_active"`
	CreatedAt           time.Time `json:"created_at"`
}

// LocationExpectedContent declares a location should hold at least
// ExpectedQuantity units of a catalog entry. Reconciliation only, never a hard
// constraint.
type LocationExpectedContent struct {
	ID               string `json:"id"`
	LocationID       string `json:"location_id"`
	CatalogID        string `json:"catalog_id"`
	ExpectedQuantity int    `json:"expected_quantity"`
}

type Order struct {
	ID        string      `json:"id"`
	ServiceID string      `json:"service_id"`
	VendorID  string      `json:"vendor_id"`
	Status    OrderStatus `json:"status"`
	OrderDate time.Time   `json:"order_date"`
	Notes     string      `json:"notes"`
	CreatedBy string      `json:"created_by"`
	CreatedAt time.Time   `json:"created_at"`
}

type OrderLine struct {
	ID               string `json:"id"`
	OrderID          string `json:"order_id"`
	CatalogID        string `json:"catalog_id"`
	QuantityOrdered  int    `json:"quantity_ordered"`
	QuantityReceived int    `json:"quantity_received"`
}

// Transfer records an item moving between locations. Immutable; the item's
// status is unaffected.
type Transfer struct {
	ID             string    `json:"id"`
	ServiceID      string    `json:"service_id"`
	ItemID         string    `json:"item_id"`
	FromLocationID string    `json:"from_location_id"`
	ToLocationID   string    `json:"to_location_id"`
	TransferredBy  string    `json:"transferred_by"`
	TransferredAt  time.Time `json:"transferred_at"`
	Notes          string    `json:"notes"`
}

// CheckSession is one compliance check event at a location. A sealed-location
// session has SealVerified=true and no lines; an unsealed session carries one
// CheckLine per verified item.
type CheckSession struct {
	ID           string    `json:"id"`
	ServiceID    string    `json:"service_id"`
	LocationID   string    `json:"location_id"`
	CheckedBy    string    `json:"checked_by"`
	SealVerified bool      `json:"seal_verified"`
	StartedAt    time.Time `json:"started_at"`
	CompletedAt  time.Time `json:"completed_at"`
	Notes        string    `json:"notes"`
}

type CheckLine struct {
	ID        string `json:"id"`
	SessionID string `json:"session_id"`
	ItemID    string `json:"item_id"`
	Verified  bool   `json:"verified"`
	Notes     string `json:"notes"`
}

// AdministrationRecord is one controlled-substance dose event. Immutable.
// DoseWasted is derived: item quantity at administration time minus DoseGiven,
// floored at zero.
type AdministrationRecord struct {
	ID             string          `json:"id"`
	ServiceID      string          `json:"service_id"`
	ItemID         string          `json:"item_id"`
	AdministeredBy string          `json:"administered_by"`
	PatientID      string          `json:"patient_id"`
	DoseGiven      decimal.Decimal `json:"dose_given"`
	DoseUnit       string          `json:"dose_unit"`
	DoseWasted     decimal.Decimal `json:"dose_wasted"`
	Route          string          `json:"route"`
	AdministeredAt time.Time       `json:"administered_at"`
	Notes          string          `json:"notes"`
}

// WasteRecord documents destruction of a controlled amount. AdministrationID
// is empty when the waste is not tied to an administration. Immutable.
type WasteRecord struct {
	ID               string          `json:"id"`
	AdministrationID string          `json:"administration_id,omitempty"`
	AmountWasted     decimal.Decimal `json:"amount_wasted"`
	WastedBy         string          `json:"wasted_by"`
	WastedAt         time.Time       `json:"wasted_at"`
	Method           string          `json:"method"`
	Notes            string          `json:"notes"`
}

// WitnessSignature attests that a second user observed an irreversible action.
// Created only after successful witness verification, and only once the
// referenced record durably exists.
type WitnessSignature struct {
	ID            string     `json:"id"`
	Ref           WitnessRef `json:"ref"`
	WitnessUserID string     `json:"witness_user_id"`
	WitnessedAt   time.Time  `json:"witnessed_at"`
	WitnessEmail  string     `json:"witness_email"`
}

type DiscrepancyCase struct {
	ID          string            `json:"id"`
	ServiceID   string            `json:"service_id"`
	ItemID      string            `json:"item_id"`
	Status      DiscrepancyStatus `json:"status"`
	Description string            `json:"description"`
	Resolution  string            `json:"resolution"`
	OpenedBy    string            `json:"opened_by"`
	OpenedAt    time.Time         `json:"opened_at"`
	ResolvedBy  string            `json:"resolved_by,omitempty"`
	ResolvedAt  time.Time         `json:"resolved_at,omitempty"`
}

type Incident struct {
	ID           string         `json:"id"`
	ServiceID    string         `json:"service_id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	IncidentDate time.Time      `json:"incident_date"`
	Status       IncidentStatus `json:"status"`
	CreatedBy    string         `json:"created_by"`
	CreatedAt    time.Time      `json:"created_at"`
	ClosedAt     time.Time      `json:"closed_at,omitempty"`
}

type IncidentItem struct {
	ID           string          `json:"id"`
	IncidentID   string          `json:"incident_id"`
	ItemID       string          `json:"item_id"`
	QuantityUsed decimal.Decimal `json:"quantity_used"`
	Notes        string          `json:"notes"`
	AddedBy      string          `json:"added_by"`
	AddedAt      time.Time       `json:"added_at"`
}

type Setting struct {
	ID        string `json:"id"`
	ServiceID string `json:"service_id"`
	Key       string `json:"key"`
	Value     string `json:"value"`
}

// Package export moves the whole entity store in and out as JSON. Import is
// destructive: the incoming snapshot replaces everything.
package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

const snapshotVersion = 1

// Snapshot is the export document: every collection, keyed by entity id.
type Snapshot struct {
	Version    int                                   `json:"version"`
	ExportedAt time.Time                             `json:"exported_at"`
	Data       map[string]map[string]json.RawMessage `json:"data"`
}

// entityFactories maps each collection to its concrete type so imports decode
// losslessly instead of landing in map[string]any.
var entityFactories = map[string]func() any{
	store.CollCompanies:          func() any { return &entity.Company{} },
	store.CollServices:           func() any { return &entity.Service{} },
	store.CollUsers:              func() any { return &entity.User{} },
	store.CollServiceMemberships: func() any { return &entity.ServiceMembership{} },
	store.CollVendors:            func() any { return &entity.Vendor{} },
	store.CollItemCatalogs:       func() any { return &entity.ItemCatalog{} },
	store.CollMedicationLots:     func() any { return &entity.MedicationLot{} },
	store.CollInventoryItems:     func() any { return &entity.InventoryItem{} },
	store.CollLocations:          func() any { return &entity.Location{} },
	store.CollExpectedContents:   func() any { return &entity.LocationExpectedContent{} },
	store.CollOrders:             func() any { return &entity.Order{} },
	store.CollOrderLines:         func() any { return &entity.OrderLine{} },
	store.CollTransfers:          func() any { return &entity.Transfer{} },
	store.CollCheckSessions:      func() any { return &entity.CheckSession{} },
	store.CollCheckLines:         func() any { return &entity.CheckLine{} },
	store.CollAdministrations:    func() any { return &entity.AdministrationRecord{} },
	store.CollWasteRecords:       func() any { return &entity.WasteRecord{} },
	store.CollWitnessSignatures:  func() any { return &entity.WitnessSignature{} },
	store.CollDiscrepancyCases:   func() any { return &entity.DiscrepancyCase{} },
	store.CollIncidents:          func() any { return &entity.Incident{} },
	store.CollIncidentItems:      func() any { return &entity.IncidentItem{} },
	store.CollSettings:           func() any { return &entity.Setting{} },
}

// idOf extracts the entity id from a decoded value via its JSON form; every
// entity carries an "id" field.
type identified struct {
	ID string `json:"id"`
}

// Service performs export, destructive import, and reset, and audits each.
type Service struct {
	entities store.EntityStore
	ledger   *audit.Ledger
	log      *logrus.Logger
}

func NewService(entities store.EntityStore, ledger *audit.Ledger, log *logrus.Logger) *Service {
	return &Service{entities: entities, ledger: ledger, log: log}
}

// Export serializes every collection into one snapshot document.
func (s *Service) Export(ctx context.Context, userID string) ([]byte, error) {
	snapshot := Snapshot{
		Version:    snapshotVersion,
		ExportedAt: time.Now(),
		Data:       make(map[string]map[string]json.RawMessage),
	}

	for _, collection := range store.AllCollections {
		rows := make(map[string]json.RawMessage)
		for _, raw := range s.entities.GetAll(collection) {
			encoded, err := json.Marshal(raw)
			if err != nil {
				return nil, fmt.Errorf("encoding %s: %w", collection, err)
			}
			var id identified
			if err := json.Unmarshal(encoded, &id); err != nil || id.ID == "" {
				return nil, fmt.Errorf("entity in %s has no id", collection)
			}
			rows[id.ID] = encoded
		}
		if len(rows) > 0 {
			snapshot.Data[collection] = rows
		}
	}

	document, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, err
	}

	if _, err := s.ledger.Record(ctx, audit.SystemServiceID, userID, audit.EventDataExported, audit.EntityDatabase, "",
		fmt.Sprintf("exported %d collections", len(snapshot.Data))); err != nil {
		return nil, fmt.Errorf("recording export: %w", err)
	}
	return document, nil
}

// Import replaces the whole store with the snapshot. Unknown collections are
// rejected rather than silently dropped.
func (s *Service) Import(ctx context.Context, userID string, document []byte) error {
	var snapshot Snapshot
	if err := json.Unmarshal(document, &snapshot); err != nil {
		return fmt.Errorf("parsing snapshot: %w", err)
	}
	if snapshot.Version != snapshotVersion {
		return fmt.Errorf("unsupported snapshot version %d", snapshot.Version)
	}

	replacement := make(map[string]map[string]any, len(snapshot.Data))
	total := 0
	for collection, rows := range snapshot.Data {
		factory, ok := entityFactories[collection]
		if !ok {
			return fmt.Errorf("unknown collection %q in snapshot", collection)
		}
		decoded := make(map[string]any, len(rows))
		for id, raw := range rows {
			value := factory()
			if err := json.Unmarshal(raw, value); err != nil {
				return fmt.Errorf("decoding %s/%s: %w", collection, id, err)
			}
			decoded[id] = value
		}
		replacement[collection] = decoded
		total += len(decoded)
	}

	s.entities.ReplaceAll(replacement)
	s.log.WithField("entities", total).Info("store replaced from snapshot")

	if _, err := s.ledger.Record(ctx, audit.SystemServiceID, userID, audit.EventDataImported, audit.EntityDatabase, "",
		fmt.Sprintf("imported %d entities across %d collections", total, len(replacement))); err != nil {
		return fmt.Errorf("recording import: %w", err)
	}
	return nil
}

// Reset drops every entity.
func (s *Service) Reset(ctx context.Context, userID string) error {
	s.entities.Reset()
	if _, err := s.ledger.Record(ctx, audit.SystemServiceID, userID, audit.EventDataReset, audit.EntityDatabase, "",
		"all entity collections dropped"); err != nil {
		return fmt.Errorf("recording reset: %w", err)
	}
	return nil
}

// Package seed loads a small demo dataset into an empty entity store so a
// development instance is usable immediately after startup.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/auth"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

// DefaultPassword is the login password for every seeded account.
const DefaultPassword = "changeme123"

// Run populates demo data when the store has no users yet. It is a no-op on
// a store that already has accounts, so restarting a dev instance is safe.
func Run(ctx context.Context, entities store.EntityStore, ledger *audit.Ledger, log *logrus.Logger) error {
	if len(entities.GetAll(store.CollUsers)) > 0 {
		log.Debug("store already populated, skipping seed")
		return nil
	}

	now := time.Now()
	hash, err := auth.HashPassword(DefaultPassword)
	if err != nil {
		return err
	}

	company := &entity.Company{ID: uuid.New().String(), Name: "Valley Ambulance Co.", IsActive: true, CreatedAt: now}
	service := &entity.Service{ID: uuid.New().String(), CompanyID: company.ID, Name: "Valley EMS Station 1", IsActive: true, CreatedAt: now}
	entities.Put(store.CollCompanies, company.ID, company)
	entities.Put(store.CollServices, service.ID, service)

	admin := &entity.User{
		ID: uuid.New().String(), Email: "admin@valley-ems.example", PasswordHash: hash,
		FirstName: "Ada", LastName: "Reyes", IsActive: true, CreatedAt: now,
	}
	medic := &entity.User{
		ID: uuid.New().String(), Email: "medic@valley-ems.example", PasswordHash: hash,
		FirstName: "Sam", LastName: "Okafor", IsActive: true, CreatedAt: now,
	}
	partner := &entity.User{
		ID: uuid.New().String(), Email: "partner@valley-ems.example", PasswordHash: hash,
		FirstName: "Lee", LastName: "Tran", IsActive: true, CreatedAt: now,
	}
	for _, u := range []*entity.User{admin, medic, partner} {
		entities.Put(store.CollUsers, u.ID, u)
	}
	for user, role := range map[*entity.User]entity.Role{
		admin:   entity.RoleCompanyAdmin,
		medic:   entity.RoleParamedic,
		partner: entity.RoleEMT,
	} {
		m := &entity.ServiceMembership{
			ID: uuid.New().String(), UserID: user.ID, ServiceID: service.ID,
			Role: role, IsActive: true, CreatedAt: now,
		}
		entities.Put(store.CollServiceMemberships, m.ID, m)
	}

	station := &entity.Location{
		ID: uuid.New().String(), ServiceID: service.ID, Name: "Station 1",
		Type: "station", CheckFrequencyHours: 168, IsActive: true, CreatedAt: now,
	}
	safe := &entity.Location{
		ID: uuid.New().String(), ServiceID: service.ID, ParentID: station.ID,
		Name: "Narcotics Safe", Type: "safe", Sealed: true, SealID: "SEAL-0001",
		CheckFrequencyHours: 24, IsActive: true, CreatedAt: now,
	}
	cabinet := &entity.Location{
		ID: uuid.New().String(), ServiceID: service.ID, ParentID: station.ID,
		Name: "Supply Cabinet", Type: "cabinet", CheckFrequencyHours: 168,
		IsActive: true, CreatedAt: now,
	}
	for _, l := range []*entity.Location{station, safe, cabinet} {
		entities.Put(store.CollLocations, l.ID, l)
	}

	morphine := &entity.ItemCatalog{
		ID: uuid.New().String(), ServiceID: service.ID, Name: "Morphine 10mg/mL",
		Category: "controlled", IsControlled: true, Unit: "mg", DefaultParLevel: 2, IsActive: true,
	}
	fentanyl := &entity.ItemCatalog{
		ID: uuid.New().String(), ServiceID: service.ID, Name: "Fentanyl 100mcg/2mL",
		Category: "controlled", IsControlled: true, Unit: "mcg", DefaultParLevel: 2, IsActive: true,
	}
	saline := &entity.ItemCatalog{
		ID: uuid.New().String(), ServiceID: service.ID, Name: "Saline 500mL",
		Category: "fluid", Unit: "mL", DefaultParLevel: 4, IsActive: true,
	}
	for _, c := range []*entity.ItemCatalog{morphine, fentanyl, saline} {
		entities.Put(store.CollItemCatalogs, c.ID, c)
	}

	for i, cat := range []*entity.ItemCatalog{morphine, morphine, fentanyl} {
		lot := &entity.MedicationLot{
			ID: uuid.New().String(), ServiceID: service.ID, CatalogID: cat.ID,
			LotNumber: fmt.Sprintf("LOT-2026-%03d", i+1), ExpirationDate: now.AddDate(0, 10, 0),
			CreatedAt: now,
		}
		entities.Put(store.CollMedicationLots, lot.ID, lot)

		item := &entity.InventoryItem{
			ID: uuid.New().String(), ServiceID: service.ID, CatalogID: cat.ID,
			LotID: lot.ID, LocationID: safe.ID, Status: entity.ItemInStock,
			Quantity: decimal.NewFromInt(10), Code: newSeedCode(i),
			IsActive: true, LastCheckedAt: now, CreatedAt: now,
		}
		entities.Put(store.CollInventoryItems, item.ID, item)
	}

	expected := &entity.LocationExpectedContent{
		ID: uuid.New().String(), LocationID: safe.ID, CatalogID: morphine.ID, ExpectedQuantity: 2,
	}
	entities.Put(store.CollExpectedContents, expected.ID, expected)

	_, err = ledger.Record(ctx, service.ID, admin.ID, audit.EventDataSeeded,
		audit.EntityDatabase, "", "demo dataset loaded")
	if err != nil {
		return err
	}

	log.WithField("service_id", service.ID).Info("demo dataset seeded")
	return nil
}

func newSeedCode(i int) string {
	codes := []string{"DEMO2A", "DEMO2B", "DEMO2C"}
	return codes[i%len(codes)]
}

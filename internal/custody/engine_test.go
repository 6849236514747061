package custody

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/auth"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
	"github.com/example/ems-custody/internal/infrastructure/store/mocks"
	"github.com/example/ems-custody/internal/witness"
)

type fixture struct {
	engine   *Engine
	entities *mocks.MockEntityStore
	audits   *mocks.MockAuditStore
	actor    Actor
	now      time.Time
}

const (
	actorPassword   = "actorpass1"
	witnessPassword = "witnesspass"
)

func witnessCreds() *witness.Credentials {
	return &witness.Credentials{Email: "partner@station.example", Password: witnessPassword}
}

func selfCreds() *witness.Credentials {
	return &witness.Credentials{Email: "medic@station.example", Password: actorPassword}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	entities := mocks.NewMockEntityStore()
	audits := mocks.NewMockAuditStore()

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	engine := NewEngine(entities, audit.NewLedger(audits, log), witness.NewVerifier(entities), log).
		WithClock(func() time.Time { return now })

	seedFixtureUser(t, entities, "user-actor", "medic@station.example", actorPassword)
	seedFixtureUser(t, entities, "user-witness", "partner@station.example", witnessPassword)
	entities.Put(store.CollServiceMemberships, "m-actor", &entity.ServiceMembership{
		ID: "m-actor", UserID: "user-actor", ServiceID: "svc-1", Role: entity.RoleParamedic, IsActive: true,
	})
	entities.Put(store.CollServiceMemberships, "m-witness", &entity.ServiceMembership{
		ID: "m-witness", UserID: "user-witness", ServiceID: "svc-1", Role: entity.RoleParamedic, IsActive: true,
	})

	entities.Put(store.CollLocations, "loc-safe", &entity.Location{
		ID: "loc-safe", ServiceID: "svc-1", Name: "Narc Safe",
		Sealed: true, SealID: "SEAL-123", CheckFrequencyHours: 24, IsActive: true,
	})
	entities.Put(store.CollLocations, "loc-cabinet", &entity.Location{
		ID: "loc-cabinet", ServiceID: "svc-1", Name: "Supply Cabinet",
		CheckFrequencyHours: 168, IsActive: true,
	})

	entities.Put(store.CollItemCatalogs, "cat-morphine", &entity.ItemCatalog{
		ID: "cat-morphine", ServiceID: "svc-1", Name: "Morphine 10mg/mL",
		IsControlled: true, Unit: "mg", IsActive: true,
	})
	entities.Put(store.CollItemCatalogs, "cat-saline", &entity.ItemCatalog{
		ID: "cat-saline", ServiceID: "svc-1", Name: "Saline 0.9%", Unit: "mL", IsActive: true,
	})

	entities.Put(store.CollMedicationLots, "lot-morphine", &entity.MedicationLot{
		ID: "lot-morphine", ServiceID: "svc-1", CatalogID: "cat-morphine",
		LotNumber: "MOR-2024-11", ExpirationDate: now.Add(180 * 24 * time.Hour), CreatedAt: now,
	})

	seedFixtureItem(entities, "item-morphine", "cat-morphine", "lot-morphine", "loc-safe", "MORPH1", 10, now)
	seedFixtureItem(entities, "item-saline", "cat-saline", "", "loc-cabinet", "SALIN1", 500, now)

	return &fixture{
		engine:   engine,
		entities: entities,
		audits:   audits,
		actor:    Actor{UserID: "user-actor", ServiceID: "svc-1", Role: entity.RoleParamedic},
		now:      now,
	}
}

func seedFixtureUser(t *testing.T, s store.EntityStore, id, email, password string) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	require.NoError(t, err)
	s.Put(store.CollUsers, id, &entity.User{
		ID: id, Email: email, PasswordHash: hash, IsActive: true,
	})
}

func seedFixtureItem(s store.EntityStore, id, catalogID, lotID, locationID, code string, qty int64, now time.Time) {
	s.Put(store.CollInventoryItems, id, &entity.InventoryItem{
		ID: id, ServiceID: "svc-1", CatalogID: catalogID, LotID: lotID,
		LocationID: locationID, Status: entity.ItemInStock,
		Quantity: decimal.NewFromInt(qty), Code: code, IsActive: true,
		LastCheckedAt: now, CreatedAt: now,
	})
}

func (f *fixture) item(t *testing.T, id string) *entity.InventoryItem {
	t.Helper()
	raw, ok := f.entities.Get(store.CollInventoryItems, id)
	require.True(t, ok)
	item, ok := raw.(*entity.InventoryItem)
	require.True(t, ok)
	return item
}

func TestNewCode(t *testing.T) {
	f := newFixture(t)
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		code := f.engine.NewCode()
		require.Len(t, code, 6)
		for _, r := range code {
			assert.Contains(t, codeAlphabet, string(r))
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 90, "codes should rarely collide")
}

func TestFindActiveItemByCode(t *testing.T) {
	f := newFixture(t)

	t.Run("finds by exact code", func(t *testing.T) {
		item, err := f.engine.FindActiveItemByCode("svc-1", "MORPH1")
		require.NoError(t, err)
		assert.Equal(t, "item-morphine", item.ID)
	})

	t.Run("lookup is case-insensitive and trims", func(t *testing.T) {
		item, err := f.engine.FindActiveItemByCode("svc-1", "  morph1 ")
		require.NoError(t, err)
		assert.Equal(t, "item-morphine", item.ID)
	})

	t.Run("rejects codes that are not six characters", func(t *testing.T) {
		_, err := f.engine.FindActiveItemByCode("svc-1", "MORPH")
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("does not resolve items from another service", func(t *testing.T) {
		_, err := f.engine.FindActiveItemByCode("svc-other", "MORPH1")
		assert.ErrorIs(t, err, ErrItemNotFound)
	})

	t.Run("does not resolve deactivated items", func(t *testing.T) {
		f := newFixture(t)
		item := f.item(t, "item-morphine")
		retired := *item
		retired.IsActive = false
		f.entities.Put(store.CollInventoryItems, item.ID, &retired)

		_, err := f.engine.FindActiveItemByCode("svc-1", "MORPH1")
		assert.ErrorIs(t, err, ErrItemNotFound)
	})
}

func TestAuditAppendFailureSurfaces(t *testing.T) {
	f := newFixture(t)
	f.audits.AppendErr = errors.New("ledger backend down")

	_, err := f.engine.Administer(context.Background(), f.actor, AdministerCommand{
		Code:      "MORPH1",
		PatientID: "patient-77",
		DoseGiven: decimal.NewFromInt(10),
		DoseUnit:  "mg",
		Route:     "IV",
	})
	require.Error(t, err, "a committed change without its audit row is not a success")
	assert.ErrorIs(t, err, ErrPersistence)

	item := f.item(t, "item-morphine")
	assert.Equal(t, entity.ItemAdministered, item.Status, "the entity commit itself is durable")
	assert.Empty(t, f.audits.EventTypes())
}

func TestItemStatusGuard(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("passes while the status holds", func(t *testing.T) {
		err := f.entities.Commit(ctx, []store.Check{itemStatusGuard("item-morphine", entity.ItemInStock)}, nil)
		assert.NoError(t, err)
	})

	t.Run("reports a conflict when the status moved", func(t *testing.T) {
		item := f.item(t, "item-morphine")
		moved := *item
		moved.Status = entity.ItemWasted
		f.entities.Put(store.CollInventoryItems, item.ID, &moved)

		err := f.entities.Commit(ctx, []store.Check{itemStatusGuard("item-morphine", entity.ItemInStock)}, []store.Mutation{
			{Collection: store.CollInventoryItems, ID: item.ID, Value: item},
		})
		assert.ErrorIs(t, err, ErrConflict)
		assert.NotErrorIs(t, err, ErrPrecondition)

		current := f.item(t, "item-morphine")
		assert.Equal(t, entity.ItemWasted, current.Status, "failed commit must not mutate")
	})

	t.Run("reports a conflict when the item vanished", func(t *testing.T) {
		err := f.entities.Commit(ctx, []store.Check{itemStatusGuard("item-missing", entity.ItemInStock)}, nil)
		assert.ErrorIs(t, err, ErrConflict)
	})
}

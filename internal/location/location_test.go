package location

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ems-custody/internal/compliance"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

func seedLocation(s store.EntityStore, id, parentID, name string, active bool) {
	s.Put(store.CollLocations, id, &entity.Location{
		ID:                  id,
		ServiceID:           "svc-1",
		ParentID:            parentID,
		Name:                name,
		CheckFrequencyHours: 24,
		IsActive:            active,
	})
}

func seedItem(s store.EntityStore, id, catalogID, locationID string, status entity.ItemStatus, qty int64, active bool) {
	s.Put(store.CollInventoryItems, id, &entity.InventoryItem{
		ID:            id,
		ServiceID:     "svc-1",
		CatalogID:     catalogID,
		LocationID:    locationID,
		Status:        status,
		Quantity:      decimal.NewFromInt(qty),
		IsActive:      active,
		LastCheckedAt: time.Now(),
	})
}

func TestBuildTree(t *testing.T) {
	s := store.NewMemoryEntityStore()
	seedLocation(s, "station", "", "Station 4", true)
	seedLocation(s, "rig", "station", "Medic 41", true)
	seedLocation(s, "safe", "rig", "Narc Safe", true)
	seedLocation(s, "cabinet", "station", "Supply Cabinet", true)

	roots := BuildTree(s, "svc-1")
	require.Len(t, roots, 1)
	assert.Equal(t, "station", roots[0].Location.ID)
	require.Len(t, roots[0].Children, 2)
	assert.Equal(t, "Medic 41", roots[0].Children[0].Location.Name)
	assert.Equal(t, "Supply Cabinet", roots[0].Children[1].Location.Name)
	require.Len(t, roots[0].Children[0].Children, 1)
	assert.Equal(t, "safe", roots[0].Children[0].Children[0].Location.ID)
}

func TestBuildTreeOrphanBecomesRoot(t *testing.T) {
	s := store.NewMemoryEntityStore()
	seedLocation(s, "station", "", "Station 4", false)
	seedLocation(s, "rig", "station", "Medic 41", true)

	roots := BuildTree(s, "svc-1")
	require.Len(t, roots, 1)
	assert.Equal(t, "rig", roots[0].Location.ID)
	assert.Empty(t, roots[0].Children)
}

func TestDescendants(t *testing.T) {
	s := store.NewMemoryEntityStore()
	seedLocation(s, "station", "", "Station 4", true)
	seedLocation(s, "rig", "station", "Medic 41", true)
	seedLocation(s, "safe", "rig", "Narc Safe", true)
	seedLocation(s, "other", "", "Station 7", true)

	ids := Descendants(s, "svc-1", "station")
	assert.ElementsMatch(t, []string{"station", "rig", "safe"}, ids)
}

func TestReconcile(t *testing.T) {
	newFixture := func() store.EntityStore {
		s := store.NewMemoryEntityStore()
		seedLocation(s, "safe", "", "Narc Safe", true)
		s.Put(store.CollItemCatalogs, "cat-morphine", &entity.ItemCatalog{
			ID: "cat-morphine", ServiceID: "svc-1", Name: "Morphine 10mg", IsControlled: true, IsActive: true,
		})
		s.Put(store.CollExpectedContents, "exp-1", &entity.LocationExpectedContent{
			ID: "exp-1", LocationID: "safe", CatalogID: "cat-morphine", ExpectedQuantity: 2,
		})
		return s
	}

	t.Run("short when actual below expected", func(t *testing.T) {
		s := newFixture()
		seedItem(s, "i-1", "cat-morphine", "safe", entity.ItemInStock, 1, true)

		lines := Reconcile(s, "svc-1", "safe")
		require.Len(t, lines, 1)
		assert.Equal(t, ReconShort, lines[0].Status)
		assert.Equal(t, "Morphine 10mg", lines[0].CatalogName)
		assert.True(t, lines[0].ActualQuantity.Equal(decimal.NewFromInt(1)))
	})

	t.Run("ok at exactly expected", func(t *testing.T) {
		s := newFixture()
		seedItem(s, "i-1", "cat-morphine", "safe", entity.ItemInStock, 1, true)
		seedItem(s, "i-2", "cat-morphine", "safe", entity.ItemInStock, 1, true)

		lines := Reconcile(s, "svc-1", "safe")
		require.Len(t, lines, 1)
		assert.Equal(t, ReconOK, lines[0].Status)
	})

	t.Run("ok above expected", func(t *testing.T) {
		s := newFixture()
		seedItem(s, "i-1", "cat-morphine", "safe", entity.ItemInStock, 3, true)

		lines := Reconcile(s, "svc-1", "safe")
		require.Len(t, lines, 1)
		assert.Equal(t, ReconOK, lines[0].Status)
	})

	t.Run("ignores wasted, inactive and misplaced items", func(t *testing.T) {
		s := newFixture()
		seedItem(s, "i-1", "cat-morphine", "safe", entity.ItemWasted, 2, true)
		seedItem(s, "i-2", "cat-morphine", "safe", entity.ItemInStock, 2, false)
		seedItem(s, "i-3", "cat-morphine", "elsewhere", entity.ItemInStock, 2, true)

		lines := Reconcile(s, "svc-1", "safe")
		require.Len(t, lines, 1)
		assert.Equal(t, ReconShort, lines[0].Status)
		assert.True(t, lines[0].ActualQuantity.IsZero())
	})

	t.Run("dangling catalog reference reports short", func(t *testing.T) {
		s := newFixture()
		s.Put(store.CollExpectedContents, "exp-2", &entity.LocationExpectedContent{
			ID: "exp-2", LocationID: "safe", CatalogID: "cat-missing", ExpectedQuantity: 1,
		})

		lines := Reconcile(s, "svc-1", "safe")
		require.Len(t, lines, 2)
		var dangling *ReconLine
		for i := range lines {
			if lines[i].CatalogID == "cat-missing" {
				dangling = &lines[i]
			}
		}
		require.NotNil(t, dangling)
		assert.Equal(t, ReconShort, dangling.Status)
		assert.Equal(t, "(unknown)", dangling.CatalogName)
	})
}

func TestLocationCompliance(t *testing.T) {
	now := time.Now()
	s := store.NewMemoryEntityStore()
	seedLocation(s, "safe", "", "Narc Safe", true)

	t.Run("empty location is ok", func(t *testing.T) {
		assert.Equal(t, compliance.StatusOK, LocationCompliance(s, "svc-1", "safe", now))
	})

	t.Run("worst item status wins", func(t *testing.T) {
		s.Put(store.CollInventoryItems, "i-ok", &entity.InventoryItem{
			ID: "i-ok", ServiceID: "svc-1", LocationID: "safe",
			Status: entity.ItemInStock, IsActive: true,
			LastCheckedAt: now.Add(-1 * time.Hour),
		})
		s.Put(store.CollInventoryItems, "i-late", &entity.InventoryItem{
			ID: "i-late", ServiceID: "svc-1", LocationID: "safe",
			Status: entity.ItemInStock, IsActive: true,
			LastCheckedAt: now.Add(-25 * time.Hour),
		})
		assert.Equal(t, compliance.StatusOverdue, LocationCompliance(s, "svc-1", "safe", now))
	})

	t.Run("an administered item still counts toward the check obligation", func(t *testing.T) {
		s := store.NewMemoryEntityStore()
		seedLocation(s, "safe", "", "Narc Safe", true)
		s.Put(store.CollInventoryItems, "i-current", &entity.InventoryItem{
			ID: "i-current", ServiceID: "svc-1", LocationID: "safe",
			Status: entity.ItemInStock, IsActive: true,
			LastCheckedAt: now.Add(-1 * time.Hour),
		})
		s.Put(store.CollInventoryItems, "i-given", &entity.InventoryItem{
			ID: "i-given", ServiceID: "svc-1", LocationID: "safe",
			Status: entity.ItemAdministered, IsActive: true,
			LastCheckedAt: now.Add(-48 * time.Hour),
		})
		assert.Equal(t, compliance.StatusOverdue, LocationCompliance(s, "svc-1", "safe", now))
	})

	t.Run("expiring lot never degrades the location aggregate", func(t *testing.T) {
		s := store.NewMemoryEntityStore()
		seedLocation(s, "safe", "", "Narc Safe", true)
		s.Put(store.CollMedicationLots, "lot-1", &entity.MedicationLot{
			ID: "lot-1", ServiceID: "svc-1", ExpirationDate: now.Add(10 * 24 * time.Hour),
		})
		s.Put(store.CollInventoryItems, "i-1", &entity.InventoryItem{
			ID: "i-1", ServiceID: "svc-1", LocationID: "safe", LotID: "lot-1",
			Status: entity.ItemInStock, IsActive: true,
			LastCheckedAt: now.Add(-1 * time.Hour),
		})
		assert.Equal(t, compliance.StatusOK, LocationCompliance(s, "svc-1", "safe", now),
			"the lot shows DueSoon on the item view only")
	})

	t.Run("deactivated items are ignored", func(t *testing.T) {
		s := store.NewMemoryEntityStore()
		seedLocation(s, "safe", "", "Narc Safe", true)
		s.Put(store.CollInventoryItems, "i-retired", &entity.InventoryItem{
			ID: "i-retired", ServiceID: "svc-1", LocationID: "safe",
			Status: entity.ItemInStock, IsActive: false,
			LastCheckedAt: now.Add(-48 * time.Hour),
		})
		assert.Equal(t, compliance.StatusOK, LocationCompliance(s, "svc-1", "safe", now))
	})
}

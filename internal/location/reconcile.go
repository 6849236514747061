package location

import (
	"github.com/shopspring/decimal"

	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

// ReconStatus is the outcome of one expected-content comparison.
type ReconStatus string

const (
	ReconOK    ReconStatus = "OK"
	ReconShort ReconStatus = "Short"
)

// ReconLine compares one expected catalog entry at a location against the sum
// of active in-stock item quantities found there.
type ReconLine struct {
	CatalogID        string          `json:"catalog_id"`
	CatalogName      string          `json:"catalog_name"`
	ExpectedQuantity int             `json:"expected_quantity"`
	ActualQuantity   decimal.Decimal `json:"actual_quantity"`
	Status           ReconStatus     `json:"status"`
}

// Reconcile is read-only: it never mutates the store and a dangling catalog
// reference is reported as Short with an unknown name rather than failing.
func Reconcile(entityStore store.EntityStore, serviceID, locationID string) []ReconLine {
	actual := make(map[string]decimal.Decimal)
	for _, raw := range entityStore.GetAll(store.CollInventoryItems) {
		item, ok := raw.(*entity.InventoryItem)
		if !ok || item.ServiceID != serviceID || item.LocationID != locationID {
			continue
		}
		if !item.IsActive || item.Status != entity.ItemInStock {
			continue
		}
		actual[item.CatalogID] = actual[item.CatalogID].Add(item.Quantity)
	}

	var lines []ReconLine
	for _, raw := range entityStore.GetAll(store.CollExpectedContents) {
		expected, ok := raw.(*entity.LocationExpectedContent)
		if !ok || expected.LocationID != locationID {
			continue
		}

		line := ReconLine{
			CatalogID:        expected.CatalogID,
			CatalogName:      catalogName(entityStore, expected.CatalogID),
			ExpectedQuantity: expected.ExpectedQuantity,
			ActualQuantity:   actual[expected.CatalogID],
			Status:           ReconShort,
		}
		if line.ActualQuantity.GreaterThanOrEqual(decimal.NewFromInt(int64(expected.ExpectedQuantity))) {
			line.Status = ReconOK
		}
		lines = append(lines, line)
	}
	return lines
}

func catalogName(entityStore store.EntityStore, catalogID string) string {
	raw, ok := entityStore.Get(store.CollItemCatalogs, catalogID)
	if !ok {
		return "(unknown)"
	}
	catalog, ok := raw.(*entity.ItemCatalog)
	if !ok {
		return "(unknown)"
	}
	return catalog.Name
}

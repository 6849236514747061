package location

import (
	"time"

	"github.com/example/ems-custody/internal/compliance"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

// ItemCompliance evaluates one item against its location's check frequency
// and, when a lot is attached, its expiration date. Worst wins.
func ItemCompliance(entityStore store.EntityStore, item *entity.InventoryItem, now time.Time) compliance.Status {
	status := compliance.StatusOK

	if raw, ok := entityStore.Get(store.CollLocations, item.LocationID); ok {
		if loc, ok := raw.(*entity.Location); ok && loc.CheckFrequencyHours > 0 {
			status = compliance.Worst(status, compliance.CheckStatus(item.LastCheckedAt, loc.CheckFrequencyHours, now))
		}
	}

	if item.LotID != "" {
		if raw, ok := entityStore.Get(store.CollMedicationLots, item.LotID); ok {
			if lot, ok := raw.(*entity.MedicationLot); ok {
				status = compliance.Worst(status, compliance.ExpirationStatus(lot.ExpirationDate, now))
			}
		}
	}

	return status
}

// LocationCompliance aggregates the check compliance of every active item at
// a location, whatever its custody status: an administered or wasted item is
// still part of the location's check obligation until it is deactivated.
// Expiration is a per-item concern and stays out of the aggregate. A location
// with no active items, or with no check frequency, is OK.
func LocationCompliance(entityStore store.EntityStore, serviceID, locationID string, now time.Time) compliance.Status {
	freq := 0
	if raw, ok := entityStore.Get(store.CollLocations, locationID); ok {
		if loc, ok := raw.(*entity.Location); ok {
			freq = loc.CheckFrequencyHours
		}
	}
	if freq <= 0 {
		return compliance.StatusOK
	}

	var statuses []compliance.Status
	for _, raw := range entityStore.GetAll(store.CollInventoryItems) {
		item, ok := raw.(*entity.InventoryItem)
		if !ok || item.ServiceID != serviceID || item.LocationID != locationID || !item.IsActive {
			continue
		}
		statuses = append(statuses, compliance.CheckStatus(item.LastCheckedAt, freq, now))
	}
	return compliance.Aggregate(statuses)
}

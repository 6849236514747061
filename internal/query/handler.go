// Package query serves the read side: code lookups, compliance evaluation,
// reconciliation views, audit reporting, and the projected feeds.
package query

import (
	"context"
	"strings"
	"time"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/compliance"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
	"github.com/example/ems-custody/internal/location"
	"github.com/example/ems-custody/internal/readmodel"
)

type Handler struct {
	entities  store.EntityStore
	ledger    *audit.Ledger
	readStore store.ReadStoreInterface
}

// NewHandler wires the read side. Compliance queries take the evaluation time
// as a parameter so callers and tests control the clock.
func NewHandler(entities store.EntityStore, ledger *audit.Ledger, readStore store.ReadStoreInterface) *Handler {
	return &Handler{
		entities:  entities,
		ledger:    ledger,
		readStore: readStore,
	}
}

// FindActiveItemByCode resolves a six-character item code, ignoring case.
func (h *Handler) FindActiveItemByCode(serviceID, code string) (*entity.InventoryItem, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != 6 {
		return nil, false
	}
	for _, raw := range h.entities.GetAll(store.CollInventoryItems) {
		item, ok := raw.(*entity.InventoryItem)
		if !ok || item.ServiceID != serviceID || !item.IsActive {
			continue
		}
		if strings.EqualFold(item.Code, code) {
			return item, true
		}
	}
	return nil, false
}

// ItemCompliance evaluates one item's tri-state compliance at an explicit
// point in time.
func (h *Handler) ItemCompliance(itemID string, at time.Time) (compliance.Status, bool) {
	raw, ok := h.entities.Get(store.CollInventoryItems, itemID)
	if !ok {
		return compliance.StatusOK, false
	}
	item, ok := raw.(*entity.InventoryItem)
	if !ok {
		return compliance.StatusOK, false
	}
	return location.ItemCompliance(h.entities, item, at), true
}

// LocationCompliance aggregates the worst check compliance of a location's
// active items at an explicit point in time.
func (h *Handler) LocationCompliance(serviceID, locationID string, at time.Time) compliance.Status {
	return location.LocationCompliance(h.entities, serviceID, locationID, at)
}

// LocationTree returns the active location forest of a service.
func (h *Handler) LocationTree(serviceID string) []*location.Node {
	return location.BuildTree(h.entities, serviceID)
}

// ReconcileLocation compares expected against actual contents.
func (h *Handler) ReconcileLocation(serviceID, locationID string) []location.ReconLine {
	return location.Reconcile(h.entities, serviceID, locationID)
}

// AuditEvents returns matching audit rows newest-first.
func (h *Handler) AuditEvents(ctx context.Context, filter store.AuditFilter) ([]store.AuditEvent, error) {
	return h.ledger.Query(ctx, filter)
}

// ActivityFeed returns the projected audit tail for a service, newest-first.
func (h *Handler) ActivityFeed(serviceID string) (*readmodel.ActivityFeed, bool) {
	if h.readStore == nil {
		return nil, false
	}
	raw, ok := h.readStore.Get(readmodel.CollActivityFeeds, serviceID)
	if !ok {
		return nil, false
	}
	feed, ok := raw.(*readmodel.ActivityFeed)
	return feed, ok
}

// ComplianceSummary returns the projected running tallies for a service.
func (h *Handler) ComplianceSummary(serviceID string) (*readmodel.ComplianceSummary, bool) {
	if h.readStore == nil {
		return nil, false
	}
	raw, ok := h.readStore.Get(readmodel.CollComplianceSummaries, serviceID)
	if !ok {
		return nil, false
	}
	summary, ok := raw.(*readmodel.ComplianceSummary)
	return summary, ok
}

// OverdueLocations lists the active locations of a service whose aggregate
// compliance is not OK, worst first.
func (h *Handler) OverdueLocations(serviceID string, at time.Time) []LocationStatus {
	var overdue, dueSoon []LocationStatus
	for _, raw := range h.entities.GetAll(store.CollLocations) {
		loc, ok := raw.(*entity.Location)
		if !ok || loc.ServiceID != serviceID || !loc.IsActive {
			continue
		}
		status := location.LocationCompliance(h.entities, serviceID, loc.ID, at)
		entry := LocationStatus{Location: loc, Status: status}
		switch status {
		case compliance.StatusOverdue:
			overdue = append(overdue, entry)
		case compliance.StatusDueSoon:
			dueSoon = append(dueSoon, entry)
		}
	}
	return append(overdue, dueSoon...)
}

// LocationStatus pairs a location with its aggregate compliance.
type LocationStatus struct {
	Location *entity.Location  `json:"location"`
	Status   compliance.Status `json:"status"`
}

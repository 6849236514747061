package custody

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

// CreateIncidentCommand opens an incident (a call or event that consumed
// supplies) so item usage can be attached to it.
type CreateIncidentCommand struct {
	Title        string    `json:"title" validate:"required"`
	Description  string    `json:"description"`
	IncidentDate time.Time `json:"incident_date"`
}

func (e *Engine) CreateIncident(ctx context.Context, actor Actor, cmd CreateIncidentCommand) (*entity.Incident, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := e.now()
	incidentDate := cmd.IncidentDate
	if incidentDate.IsZero() {
		incidentDate = now
	}
	incident := &entity.Incident{
		ID:           e.newID(),
		ServiceID:    actor.ServiceID,
		Title:        cmd.Title,
		Description:  cmd.Description,
		IncidentDate: incidentDate,
		Status:       entity.IncidentOpen,
		CreatedBy:    actor.UserID,
		CreatedAt:    now,
	}

	mutations := []store.Mutation{
		{Collection: store.CollIncidents, ID: incident.ID, Value: incident},
	}
	if err := e.entities.Commit(ctx, nil, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventIncidentCreated, audit.EntityIncident, incident.ID, cmd.Title); err != nil {
		return nil, err
	}
	return incident, nil
}

// AddIncidentItemCommand attaches item usage to an open incident.
type AddIncidentItemCommand struct {
	IncidentID   string          `json:"incident_id" validate:"required"`
	ItemID       string          `json:"item_id" validate:"required"`
	QuantityUsed decimal.Decimal `json:"quantity_used"`
	Notes        string          `json:"notes"`
}

func (e *Engine) AddIncidentItem(ctx context.Context, actor Actor, cmd AddIncidentItemCommand) (*entity.IncidentItem, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	incident, err := e.getIncident(actor.ServiceID, cmd.IncidentID)
	if err != nil {
		return nil, err
	}
	if incident.Status == entity.IncidentClosed {
		return nil, ErrIncidentClosed
	}
	if _, err := e.getItem(cmd.ItemID); err != nil {
		return nil, err
	}

	record := &entity.IncidentItem{
		ID:           e.newID(),
		IncidentID:   incident.ID,
		ItemID:       cmd.ItemID,
		QuantityUsed: cmd.QuantityUsed,
		Notes:        cmd.Notes,
		AddedBy:      actor.UserID,
		AddedAt:      e.now(),
	}

	checks := []store.Check{incidentOpenGuard(incident.ID)}
	mutations := []store.Mutation{
		{Collection: store.CollIncidentItems, ID: record.ID, Value: record},
	}
	if err := e.entities.Commit(ctx, checks, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventIncidentItemAdded, audit.EntityIncidentItem, record.ID,
		fmt.Sprintf("item %s attached to incident %s", cmd.ItemID, incident.Title)); err != nil {
		return nil, err
	}
	return record, nil
}

// CloseIncident marks an incident closed. Closed incidents accept no further
// item attachments.
func (e *Engine) CloseIncident(ctx context.Context, actor Actor, incidentID string) (*entity.Incident, error) {
	incident, err := e.getIncident(actor.ServiceID, incidentID)
	if err != nil {
		return nil, err
	}
	if incident.Status == entity.IncidentClosed {
		return nil, ErrIncidentClosed
	}

	updated := *incident
	updated.Status = entity.IncidentClosed
	updated.ClosedAt = e.now()

	checks := []store.Check{incidentOpenGuard(incidentID)}
	mutations := []store.Mutation{
		{Collection: store.CollIncidents, ID: incidentID, Value: &updated},
	}
	if err := e.entities.Commit(ctx, checks, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventIncidentClosed, audit.EntityIncident, incidentID, incident.Title); err != nil {
		return nil, err
	}
	return &updated, nil
}

func (e *Engine) getIncident(serviceID, incidentID string) (*entity.Incident, error) {
	raw, ok := e.entities.Get(store.CollIncidents, incidentID)
	if !ok {
		return nil, ErrIncidentNotFound
	}
	incident, ok := raw.(*entity.Incident)
	if !ok || incident.ServiceID != serviceID {
		return nil, ErrIncidentNotFound
	}
	return incident, nil
}

func incidentOpenGuard(incidentID string) store.Check {
	return store.Check{
		Collection: store.CollIncidents,
		ID:         incidentID,
		Verify: func(current any) error {
			incident, ok := current.(*entity.Incident)
			if !ok || incident == nil {
				return fmt.Errorf("%w: incident disappeared", ErrConflict)
			}
			if incident.Status == entity.IncidentClosed {
				return fmt.Errorf("%w: incident was closed", ErrConflict)
			}
			return nil
		},
	}
}

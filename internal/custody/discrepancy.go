package custody

import (
	"context"
	"fmt"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

// OpenDiscrepancyCommand opens a case against an item whose physical state
// disagrees with the records.
type OpenDiscrepancyCommand struct {
	ItemID      string `json:"item_id" validate:"required"`
	Description string `json:"description" validate:"required"`
}

// OpenDiscrepancy creates a new case in Open status.
func (e *Engine) OpenDiscrepancy(ctx context.Context, actor Actor, cmd OpenDiscrepancyCommand) (*entity.DiscrepancyCase, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if _, err := e.getItem(cmd.ItemID); err != nil {
		return nil, err
	}

	dcase := &entity.DiscrepancyCase{
		ID:          e.newID(),
		ServiceID:   actor.ServiceID,
		ItemID:      cmd.ItemID,
		Status:      entity.DiscrepancyOpen,
		Description: cmd.Description,
		OpenedBy:    actor.UserID,
		OpenedAt:    e.now(),
	}

	mutations := []store.Mutation{
		{Collection: store.CollDiscrepancyCases, ID: dcase.ID, Value: dcase},
	}
	if err := e.entities.Commit(ctx, nil, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventDiscrepancyOpened, audit.EntityDiscrepancyCase, dcase.ID, cmd.Description); err != nil {
		return nil, err
	}
	return dcase, nil
}

// StartInvestigation moves an open case to Investigating.
func (e *Engine) StartInvestigation(ctx context.Context, actor Actor, caseID string) (*entity.DiscrepancyCase, error) {
	return e.transitionCase(ctx, actor, caseID, entity.DiscrepancyInvestigating, func(updated *entity.DiscrepancyCase) {})
}

// ResolveDiscrepancyCommand closes a case. Resolution is monotonic: a
// resolved case never reopens.
type ResolveDiscrepancyCommand struct {
	CaseID     string `json:"case_id" validate:"required"`
	Resolution string `json:"resolution" validate:"required"`
}

func (e *Engine) ResolveDiscrepancy(ctx context.Context, actor Actor, cmd ResolveDiscrepancyCommand) (*entity.DiscrepancyCase, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return e.transitionCase(ctx, actor, cmd.CaseID, entity.DiscrepancyResolved, func(updated *entity.DiscrepancyCase) {
		updated.Resolution = cmd.Resolution
		updated.ResolvedBy = actor.UserID
		updated.ResolvedAt = e.now()
	})
}

func (e *Engine) transitionCase(ctx context.Context, actor Actor, caseID string, target entity.DiscrepancyStatus, apply func(*entity.DiscrepancyCase)) (*entity.DiscrepancyCase, error) {
	raw, ok := e.entities.Get(store.CollDiscrepancyCases, caseID)
	if !ok {
		return nil, ErrCaseNotFound
	}
	dcase, ok := raw.(*entity.DiscrepancyCase)
	if !ok || dcase.ServiceID != actor.ServiceID {
		return nil, ErrCaseNotFound
	}
	if dcase.Status == entity.DiscrepancyResolved {
		return nil, ErrCaseResolved
	}
	if !dcase.Status.CanTransitionTo(target) {
		return nil, fmt.Errorf("%w: cannot move case from %s to %s", ErrPrecondition, dcase.Status, target)
	}

	priorStatus := dcase.Status
	updated := *dcase
	updated.Status = target
	apply(&updated)

	checks := []store.Check{{
		Collection: store.CollDiscrepancyCases,
		ID:         caseID,
		Verify: func(current any) error {
			cur, ok := current.(*entity.DiscrepancyCase)
			if !ok || cur == nil {
				return fmt.Errorf("%w: case disappeared", ErrConflict)
			}
			if cur.Status != priorStatus {
				return fmt.Errorf("%w: case is now %s", ErrConflict, cur.Status)
			}
			return nil
		},
	}}
	mutations := []store.Mutation{
		{Collection: store.CollDiscrepancyCases, ID: caseID, Value: &updated},
	}
	if err := e.entities.Commit(ctx, checks, mutations); err != nil {
		return nil, err
	}

	if target == entity.DiscrepancyResolved {
		if err := e.record(ctx, actor, audit.EventDiscrepancyResolved, audit.EntityDiscrepancyCase, caseID, updated.Resolution); err != nil {
			return nil, err
		}
	}
	return &updated, nil
}

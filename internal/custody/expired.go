package custody

import (
	"context"
	"fmt"
	"time"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

// expiringWindow bounds the expired-exchange workflow: eligible lots expire
// within this many days or have expired already.
const expiringWindow = 30 * 24 * time.Hour

// ExpiredExchangeCommand retires an expiring or expired lot-bearing item.
// The replacement is recorded as free text only; receiving replacement stock
// goes through order receipt.
type ExpiredExchangeCommand struct {
	Code             string `json:"code" validate:"required"`
	ReplacementNotes string `json:"replacement_notes"`
}

// ExpiredExchange marks an expiring item Expired. Items without a lot are
// excluded since eligibility is defined by the lot's expiration date.
func (e *Engine) ExpiredExchange(ctx context.Context, actor Actor, cmd ExpiredExchangeCommand) (*entity.InventoryItem, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	item, err := e.FindActiveItemByCode(actor.ServiceID, cmd.Code)
	if err != nil {
		return nil, err
	}
	if item.Status != entity.ItemInStock {
		return nil, ErrNotInStock
	}
	if item.LotID == "" {
		return nil, ErrNoLot
	}
	raw, ok := e.entities.Get(store.CollMedicationLots, item.LotID)
	if !ok {
		return nil, ErrNoLot
	}
	lot, ok := raw.(*entity.MedicationLot)
	if !ok {
		return nil, ErrNoLot
	}

	now := e.now()
	if lot.ExpirationDate.After(now.Add(expiringWindow)) {
		return nil, ErrNotExpiring
	}

	updated := *item
	updated.Status = entity.ItemExpired
	if cmd.ReplacementNotes != "" {
		updated.Notes = appendNote(item.Notes, "replacement: "+cmd.ReplacementNotes)
	}

	checks := []store.Check{itemStatusGuard(item.ID, entity.ItemInStock)}
	mutations := []store.Mutation{
		{Collection: store.CollInventoryItems, ID: item.ID, Value: &updated},
	}
	if err := e.entities.Commit(ctx, checks, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventItemExpiredExchange, audit.EntityInventoryItem, item.ID,
		fmt.Sprintf("exchanged expired lot %s", lot.LotNumber)); err != nil {
		return nil, err
	}

	return &updated, nil
}

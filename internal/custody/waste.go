package custody

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
	"github.com/example/ems-custody/internal/witness"
)

// WasteCommand destroys an amount of an item. Unlike administration, the
// witness is unconditional here: dual control applies to every standalone
// waste regardless of the amount.
type WasteCommand struct {
	Code    string               `json:"code" validate:"required"`
	Amount  decimal.Decimal      `json:"amount"`
	Method  string               `json:"method" validate:"required"`
	Notes   string               `json:"notes"`
	Witness *witness.Credentials `json:"witness"`
}

// WasteResult is everything a standalone waste commit persisted.
type WasteResult struct {
	Waste     *entity.WasteRecord      `json:"waste"`
	Signature *entity.WitnessSignature `json:"signature"`
}

// Waste runs the standalone waste workflow. Any active in-stock item
// qualifies, controlled or not.
func (e *Engine) Waste(ctx context.Context, actor Actor, cmd WasteCommand) (*WasteResult, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !cmd.Amount.IsPositive() {
		return nil, invalidf("waste amount must be positive")
	}

	item, err := e.FindActiveItemByCode(actor.ServiceID, cmd.Code)
	if err != nil {
		return nil, err
	}
	if item.Status != entity.ItemInStock {
		return nil, ErrNotInStock
	}

	if cmd.Witness == nil {
		return nil, ErrWitnessRequired
	}
	witnessUser, err := e.witnesses.Verify(*cmd.Witness, actor.UserID, actor.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}

	now := e.now()
	waste := &entity.WasteRecord{
		ID:           e.newID(),
		AmountWasted: cmd.Amount,
		WastedBy:     actor.UserID,
		WastedAt:     now,
		Method:       cmd.Method,
		Notes:        cmd.Notes,
	}
	signature := &entity.WitnessSignature{
		ID:            e.newID(),
		Ref:           entity.WasteRecordRef(waste.ID),
		WitnessUserID: witnessUser.ID,
		WitnessedAt:   now,
		WitnessEmail:  witnessUser.Email,
	}

	updated := *item
	updated.Status = entity.ItemWasted

	checks := []store.Check{itemStatusGuard(item.ID, entity.ItemInStock)}
	mutations := []store.Mutation{
		{Collection: store.CollWasteRecords, ID: waste.ID, Value: waste},
		{Collection: store.CollWitnessSignatures, ID: signature.ID, Value: signature},
		{Collection: store.CollInventoryItems, ID: item.ID, Value: &updated},
	}
	if err := e.entities.Commit(ctx, checks, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventItemWasted, audit.EntityInventoryItem, item.ID,
		fmt.Sprintf("wasted %s via %s", cmd.Amount, cmd.Method)); err != nil {
		return nil, err
	}
	if err := e.record(ctx, actor, audit.EventWasteWitnessed, audit.EntityWasteRecord, waste.ID,
		fmt.Sprintf("waste witnessed by %s", witnessUser.Email)); err != nil {
		return nil, err
	}

	return &WasteResult{Waste: waste, Signature: signature}, nil
}

// CorrectCommand reverts a mistaken disposition. Correction is the only
// backward edge in the item state machine, and it still takes dual control.
type CorrectCommand struct {
	Code    string               `json:"code" validate:"required"`
	Reason  string               `json:"reason" validate:"required"`
	Witness *witness.Credentials `json:"witness"`
}

// Correct reverts an Administered or Wasted item back to InStock with a note.
func (e *Engine) Correct(ctx context.Context, actor Actor, cmd CorrectCommand) (*entity.InventoryItem, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	item, err := e.FindActiveItemByCode(actor.ServiceID, cmd.Code)
	if err != nil {
		return nil, err
	}
	if !item.Status.Correctable() {
		return nil, ErrNotCorrectable
	}

	if cmd.Witness == nil {
		return nil, ErrWitnessRequired
	}
	witnessUser, err := e.witnesses.Verify(*cmd.Witness, actor.UserID, actor.ServiceID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPrecondition, err)
	}

	priorStatus := item.Status
	now := e.now()
	updated := *item
	updated.Status = entity.ItemInStock
	updated.Notes = appendNote(item.Notes, fmt.Sprintf("correction from %s: %s", priorStatus, cmd.Reason))

	signature := &entity.WitnessSignature{
		ID:            e.newID(),
		Ref:           entity.InventoryItemRef(item.ID),
		WitnessUserID: witnessUser.ID,
		WitnessedAt:   now,
		WitnessEmail:  witnessUser.Email,
	}

	checks := []store.Check{{
		Collection: store.CollInventoryItems,
		ID:         item.ID,
		Verify: func(current any) error {
			cur, ok := current.(*entity.InventoryItem)
			if !ok || cur == nil {
				return fmt.Errorf("%w: item disappeared", ErrConflict)
			}
			if !cur.IsActive {
				return fmt.Errorf("%w: item was deactivated", ErrConflict)
			}
			if cur.Status != priorStatus {
				return fmt.Errorf("%w: item is now %s", ErrConflict, cur.Status)
			}
			return nil
		},
	}}
	mutations := []store.Mutation{
		{Collection: store.CollInventoryItems, ID: item.ID, Value: &updated},
		{Collection: store.CollWitnessSignatures, ID: signature.ID, Value: signature},
	}
	if err := e.entities.Commit(ctx, checks, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventCorrectionMade, audit.EntityInventoryItem, item.ID,
		fmt.Sprintf("corrected from %s to %s: %s", priorStatus, entity.ItemInStock, cmd.Reason)); err != nil {
		return nil, err
	}

	return &updated, nil
}

func appendNote(existing, note string) string {
	if existing == "" {
		return note
	}
	return existing + "\n" + note
}

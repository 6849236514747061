package custody

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

// CreateItemCommand books a single item in outside of order receipt, e.g.
// opening stock during onboarding.
type CreateItemCommand struct {
	CatalogID  string          `json:"catalog_id" validate:"required"`
	LocationID string          `json:"location_id" validate:"required"`
	LotID      string          `json:"lot_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Notes      string          `json:"notes"`
}

func (e *Engine) CreateItem(ctx context.Context, actor Actor, cmd CreateItemCommand) (*entity.InventoryItem, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if cmd.Quantity.IsNegative() {
		return nil, invalidf("quantity must not be negative")
	}
	if _, ok := e.getCatalog(cmd.CatalogID); !ok {
		return nil, invalidf("catalog entry %s does not exist", cmd.CatalogID)
	}
	loc, ok := e.getLocation(cmd.LocationID)
	if !ok || !loc.IsActive || loc.ServiceID != actor.ServiceID {
		return nil, ErrLocationNotFound
	}

	now := e.now()
	quantity := cmd.Quantity
	if quantity.IsZero() {
		quantity = decimal.NewFromInt(1)
	}
	item := &entity.InventoryItem{
		ID:            e.newID(),
		ServiceID:     actor.ServiceID,
		CatalogID:     cmd.CatalogID,
		LotID:         cmd.LotID,
		LocationID:    cmd.LocationID,
		Status:        entity.ItemInStock,
		Quantity:      quantity,
		Code:          e.NewCode(),
		Notes:         cmd.Notes,
		IsActive:      true,
		LastCheckedAt: now,
		CreatedAt:     now,
	}

	mutations := []store.Mutation{
		{Collection: store.CollInventoryItems, ID: item.ID, Value: item},
	}
	if err := e.entities.Commit(ctx, nil, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventItemCreated, audit.EntityInventoryItem, item.ID,
		fmt.Sprintf("item created at %s with code %s", loc.Name, item.Code)); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateItemNotesCommand edits the free-text notes on an item. Custody state
// never changes through this path.
type UpdateItemNotesCommand struct {
	ItemID string `json:"item_id" validate:"required"`
	Notes  string `json:"notes"`
}

func (e *Engine) UpdateItemNotes(ctx context.Context, actor Actor, cmd UpdateItemNotesCommand) (*entity.InventoryItem, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	item, err := e.getItem(cmd.ItemID)
	if err != nil {
		return nil, err
	}
	if item.ServiceID != actor.ServiceID {
		return nil, ErrItemNotFound
	}

	updated := *item
	updated.Notes = cmd.Notes

	checks := []store.Check{itemActiveGuard(item.ID)}
	mutations := []store.Mutation{
		{Collection: store.CollInventoryItems, ID: item.ID, Value: &updated},
	}
	if err := e.entities.Commit(ctx, checks, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventItemUpdated, audit.EntityInventoryItem, item.ID, "item notes updated"); err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeactivateItem retires an item from active inventory. Deactivated items no
// longer resolve by code and are invisible to checks and reconciliation.
func (e *Engine) DeactivateItem(ctx context.Context, actor Actor, itemID, reason string) (*entity.InventoryItem, error) {
	item, err := e.getItem(itemID)
	if err != nil {
		return nil, err
	}
	if item.ServiceID != actor.ServiceID {
		return nil, ErrItemNotFound
	}
	if !item.IsActive {
		return nil, ErrItemInactive
	}

	updated := *item
	updated.IsActive = false
	if reason != "" {
		updated.Notes = appendNote(item.Notes, "deactivated: "+reason)
	}

	checks := []store.Check{itemActiveGuard(item.ID)}
	mutations := []store.Mutation{
		{Collection: store.CollInventoryItems, ID: item.ID, Value: &updated},
	}
	if err := e.entities.Commit(ctx, checks, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventItemDeactivated, audit.EntityInventoryItem, item.ID, reason); err != nil {
		return nil, err
	}
	return &updated, nil
}

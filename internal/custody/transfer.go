package custody

import (
	"context"
	"fmt"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

// TransferCommand moves one item to another location. Status is untouched.
type TransferCommand struct {
	Code         string `json:"code" validate:"required"`
	ToLocationID string `json:"to_location_id" validate:"required"`
	Notes        string `json:"notes"`
}

// Transfer relocates an item and records the move.
func (e *Engine) Transfer(ctx context.Context, actor Actor, cmd TransferCommand) (*entity.Transfer, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	item, err := e.FindActiveItemByCode(actor.ServiceID, cmd.Code)
	if err != nil {
		return nil, err
	}
	if item.LocationID == cmd.ToLocationID {
		return nil, ErrSameLocation
	}
	dest, ok := e.getLocation(cmd.ToLocationID)
	if !ok || !dest.IsActive || dest.ServiceID != actor.ServiceID {
		return nil, ErrLocationNotFound
	}

	fromLocationID := item.LocationID
	transfer := &entity.Transfer{
		ID:             e.newID(),
		ServiceID:      actor.ServiceID,
		ItemID:         item.ID,
		FromLocationID: fromLocationID,
		ToLocationID:   cmd.ToLocationID,
		TransferredBy:  actor.UserID,
		TransferredAt:  e.now(),
		Notes:          cmd.Notes,
	}

	updated := *item
	updated.LocationID = cmd.ToLocationID

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
			if cur.LocationID != fromLocationID {
				return fmt.Errorf("%w: item already moved", ErrConflict)
			}
			return nil
		},
	}}
	mutations := []store.Mutation{
		{Collection: store.CollTransfers, ID: transfer.ID, Value: transfer},
		{Collection: store.CollInventoryItems, ID: item.ID, Value: &updated},
	}
	if err := e.entities.Commit(ctx, checks, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventItemTransferred, audit.EntityInventoryItem, item.ID,
		fmt.Sprintf("transferred to %s", dest.Name)); err != nil {
		return nil, err
	}

	return transfer, nil
}

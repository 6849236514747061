package custody

import (
	"context"
	"fmt"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

// SealedCheckCommand verifies a sealed location as one unit: if the tamper
// seal matches, every active item inside is considered checked.
type SealedCheckCommand struct {
	LocationID  string `json:"location_id" validate:"required"`
	SealEntered string `json:"seal_entered" validate:"required"`
	Notes       string `json:"notes"`
}

// UnsealedCheckCommand completes an item-by-item check. Every in-stock item
// at the location must appear in Lines with Verified set; the session cannot
// complete otherwise.
type UnsealedCheckCommand struct {
	LocationID string           `json:"location_id" validate:"required"`
	Lines      []CheckLineInput `json:"lines"`
	Notes      string           `json:"notes"`
}

type CheckLineInput struct {
	ItemID   string `json:"item_id" validate:"required"`
	Verified bool   `json:"verified"`
	Notes    string `json:"notes"`
}

// CheckResult is the persisted outcome of a completed check session.
type CheckResult struct {
	Session *entity.CheckSession    `json:"session"`
	Lines   []*entity.CheckLine     `json:"lines,omitempty"`
	Items   []*entity.InventoryItem `json:"items"`
}

// CheckSealedLocation verifies the seal and stamps every active item at the
// location in one batch.
func (e *Engine) CheckSealedLocation(ctx context.Context, actor Actor, cmd SealedCheckCommand) (*CheckResult, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	loc, ok := e.getLocation(cmd.LocationID)
	if !ok || !loc.IsActive || loc.ServiceID != actor.ServiceID {
		return nil, ErrLocationNotFound
	}
	if !loc.Sealed {
		return nil, invalidf("location %s is not sealed", loc.Name)
	}
	if cmd.SealEntered != loc.SealID {
		return nil, ErrSealMismatch
	}

	now := e.now()
	session := &entity.CheckSession{
		ID:           e.newID(),
		ServiceID:    actor.ServiceID,
		LocationID:   loc.ID,
		CheckedBy:    actor.UserID,
		SealVerified: true,
		StartedAt:    now,
		CompletedAt:  now,
		Notes:        cmd.Notes,
	}

	items := e.activeItemsAt(actor.ServiceID, loc.ID, false)
	checks := []store.Check{locationSealGuard(loc.ID, loc.SealID)}
	mutations := []store.Mutation{
		{Collection: store.CollCheckSessions, ID: session.ID, Value: session},
	}
	var stamped []*entity.InventoryItem
	for _, item := range items {
		updated := *item
		updated.LastCheckedAt = now
		stamped = append(stamped, &updated)
		checks = append(checks, itemActiveGuard(item.ID))
		mutations = append(mutations, store.Mutation{
			Collection: store.CollInventoryItems, ID: item.ID, Value: &updated,
		})
	}

	if err := e.entities.Commit(ctx, checks, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventCheckSessionStarted, audit.EntityCheckSession, session.ID,
		fmt.Sprintf("sealed check started at %s", loc.Name)); err != nil {
		return nil, err
	}
	if err := e.record(ctx, actor, audit.EventCheckSealVerified, audit.EntityCheckSession, session.ID,
		fmt.Sprintf("seal %s verified intact", loc.SealID)); err != nil {
		return nil, err
	}
	if err := e.record(ctx, actor, audit.EventCheckSessionCompleted, audit.EntityCheckSession, session.ID,
		fmt.Sprintf("sealed check completed, %d items stamped", len(stamped))); err != nil {
		return nil, err
	}

	return &CheckResult{Session: session, Items: stamped}, nil
}

// CheckUnsealedLocation completes an item-by-item check session. Zero
// in-stock items is not a completable check.
func (e *Engine) CheckUnsealedLocation(ctx context.Context, actor Actor, cmd UnsealedCheckCommand) (*CheckResult, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	loc, ok := e.getLocation(cmd.LocationID)
	if !ok || !loc.IsActive || loc.ServiceID != actor.ServiceID {
		return nil, ErrLocationNotFound
	}
	if loc.Sealed {
		return nil, invalidf("location %s is sealed; verify the seal instead", loc.Name)
	}

	items := e.activeItemsAt(actor.ServiceID, loc.ID, true)
	if len(items) == 0 {
		return nil, ErrNothingToCheck
	}

	verified := make(map[string]CheckLineInput, len(cmd.Lines))
	for _, line := range cmd.Lines {
		verified[line.ItemID] = line
	}
	for _, item := range items {
		line, ok := verified[item.ID]
		if !ok || !line.Verified {
			return nil, ErrUnverifiedLines
		}
	}

	now := e.now()
	session := &entity.CheckSession{
		ID:          e.newID(),
		ServiceID:   actor.ServiceID,
		LocationID:  loc.ID,
		CheckedBy:   actor.UserID,
		StartedAt:   now,
		CompletedAt: now,
		Notes:       cmd.Notes,
	}

	checks := []store.Check{}
	mutations := []store.Mutation{
		{Collection: store.CollCheckSessions, ID: session.ID, Value: session},
	}
	var lines []*entity.CheckLine
	var stamped []*entity.InventoryItem
	for _, item := range items {
		input := verified[item.ID]
		line := &entity.CheckLine{
			ID:        e.newID(),
			SessionID: session.ID,
			ItemID:    item.ID,
			Verified:  true,
			Notes:     input.Notes,
		}
		updated := *item
		updated.LastCheckedAt = now
		lines = append(lines, line)
		stamped = append(stamped, &updated)
		checks = append(checks, itemStatusGuard(item.ID, entity.ItemInStock))
		mutations = append(mutations,
			store.Mutation{Collection: store.CollCheckLines, ID: line.ID, Value: line},
			store.Mutation{Collection: store.CollInventoryItems, ID: item.ID, Value: &updated},
		)
	}

	if err := e.entities.Commit(ctx, checks, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventCheckSessionStarted, audit.EntityCheckSession, session.ID,
		fmt.Sprintf("check started at %s", loc.Name)); err != nil {
		return nil, err
	}
	for _, item := range stamped {
		if err := e.record(ctx, actor, audit.EventCheckItemVerified, audit.EntityInventoryItem, item.ID,
			fmt.Sprintf("verified during check %s", session.ID)); err != nil {
			return nil, err
		}
	}
	if err := e.record(ctx, actor, audit.EventCheckSessionCompleted, audit.EntityCheckSession, session.ID,
		fmt.Sprintf("check completed, %d items verified", len(stamped))); err != nil {
		return nil, err
	}

	return &CheckResult{Session: session, Lines: lines, Items: stamped}, nil
}

// activeItemsAt lists active items at a location, optionally restricted to
// in-stock status.
func (e *Engine) activeItemsAt(serviceID, locationID string, inStockOnly bool) []*entity.InventoryItem {
	var items []*entity.InventoryItem
	for _, raw := range e.entities.GetAll(store.CollInventoryItems) {
		item, ok := raw.(*entity.InventoryItem)
		if !ok || item.ServiceID != serviceID || item.LocationID != locationID || !item.IsActive {
			continue
		}
		if inStockOnly && item.Status != entity.ItemInStock {
			continue
		}
		items = append(items, item)
	}
	return items
}

func itemActiveGuard(itemID string) store.Check {
	return store.Check{
		Collection: store.CollInventoryItems,
		ID:         itemID,
		Verify: func(current any) error {
			item, ok := current.(*entity.InventoryItem)
			if !ok || item == nil || !item.IsActive {
				return fmt.Errorf("%w: item no longer active", ErrConflict)
			}
			return nil
		},
	}
}

func locationSealGuard(locationID, sealID string) store.Check {
	return store.Check{
		Collection: store.CollLocations,
		ID:         locationID,
		Verify: func(current any) error {
			loc, ok := current.(*entity.Location)
			if !ok || loc == nil || !loc.IsActive {
				return fmt.Errorf("%w: location no longer active", ErrConflict)
			}
			if !loc.Sealed || loc.SealID != sealID {
				return fmt.Errorf("%w: seal changed", ErrConflict)
			}
			return nil
		},
	}
}

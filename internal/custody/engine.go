// Package custody implements the controlled-substance workflows: administer,
// waste and correction, transfer, expired exchange, location checks, order
// receipt, discrepancy cases, and incidents. Every workflow follows the same
// shape: look the entity up, validate, re-check preconditions inside a single
// atomic commit, then write the paired audit events.
package custody

import (
	"context"
	"crypto/rand"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
	"github.com/example/ems-custody/internal/witness"
)

// Item codes avoid the glyphs people misread off a vial label.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const codeLength = 6

// Engine executes custody workflows against the entity store and pairs each
// accepted mutation with its audit events. The clock is injected so tests can
// pin it.
type Engine struct {
	entities  store.EntityStore
	ledger    *audit.Ledger
	witnesses *witness.Verifier
	validate  *validator.Validate
	log       *logrus.Logger
	now       func() time.Time
	newID     func() string
}

func NewEngine(entities store.EntityStore, ledger *audit.Ledger, witnesses *witness.Verifier, log *logrus.Logger) *Engine {
	return &Engine{
		entities:  entities,
		ledger:    ledger,
		witnesses: witnesses,
		validate:  validator.New(),
		log:       log,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// WithClock replaces the engine clock. Tests only.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// NewCode generates a 6-character item code. Uniqueness is probabilistic, not
// enforced; lookups resolve only active items so retired codes may recur.
func (e *Engine) NewCode() string {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; fall back to
		// uuid-derived bytes rather than returning an empty code.
		copy(buf, uuid.NewString())
	}
	code := make([]byte, codeLength)
	for i, b := range buf {
		code[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(code)
}

// FindActiveItemByCode resolves a scanned or typed code to the active item
// carrying it. Codes are exactly six characters and case-insensitive.
func (e *Engine) FindActiveItemByCode(serviceID, code string) (*entity.InventoryItem, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != codeLength {
		return nil, invalidf("code must be exactly %d characters", codeLength)
	}
	for _, raw := range e.entities.GetAll(store.CollInventoryItems) {
		item, ok := raw.(*entity.InventoryItem)
		if !ok || item.ServiceID != serviceID || !item.IsActive {
			continue
		}
		if strings.EqualFold(item.Code, code) {
			return item, nil
		}
	}
	return nil, ErrItemNotFound
}

func (e *Engine) getItem(itemID string) (*entity.InventoryItem, error) {
	raw, ok := e.entities.Get(store.CollInventoryItems, itemID)
	if !ok {
		return nil, ErrItemNotFound
	}
	item, ok := raw.(*entity.InventoryItem)
	if !ok {
		return nil, ErrItemNotFound
	}
	return item, nil
}

func (e *Engine) getCatalog(catalogID string) (*entity.ItemCatalog, bool) {
	raw, ok := e.entities.Get(store.CollItemCatalogs, catalogID)
	if !ok {
		return nil, false
	}
	catalog, ok := raw.(*entity.ItemCatalog)
	return catalog, ok
}

func (e *Engine) getLocation(locationID string) (*entity.Location, bool) {
	raw, ok := e.entities.Get(store.CollLocations, locationID)
	if !ok {
		return nil, false
	}
	loc, ok := raw.(*entity.Location)
	return loc, ok
}

// itemStatusGuard re-checks an item's state immediately before the mutations
// apply. A failure here is a concurrency conflict, not a precondition error:
// the caller saw the precondition hold at lookup time.
func itemStatusGuard(itemID string, want entity.ItemStatus) store.Check {
	return store.Check{
		Collection: store.CollInventoryItems,
		ID:         itemID,
		Verify: func(current any) error {
			item, ok := current.(*entity.InventoryItem)
			if !ok || item == nil {
				return fmt.Errorf("%w: item disappeared", ErrConflict)
			}
			if !item.IsActive {
				return fmt.Errorf("%w: item was deactivated", ErrConflict)
			}
			if item.Status != want {
				return fmt.Errorf("%w: item is now %s", ErrConflict, item.Status)
			}
			return nil
		},
	}
}

// record appends one audit row. Called only after a successful commit; a
// failure here means the entity change is durable but its audit trail is not,
// which callers must surface rather than swallow.
func (e *Engine) record(ctx context.Context, actor Actor, eventType, entityType, entityID, details string) error {
	if _, err := e.ledger.Record(ctx, actor.ServiceID, actor.UserID, eventType, entityType, entityID, details); err != nil {
		return fmt.Errorf("%w: audit append for %s: %v", ErrPersistence, eventType, err)
	}
	return nil
}

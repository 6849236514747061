package store

import (
	"context"
	"errors"
)

// ErrConflict is returned by Commit when a guard fails because the stored
// state changed after it was looked up.
var ErrConflict = errors.New("store: commit precondition no longer holds")

// Mutation is one write in an atomic commit. A nil Value deletes the row.
type Mutation struct {
	Collection string
	ID         string
	Value      any
}

// Check is a guard evaluated under the commit lock, immediately before the
// mutations apply. current is nil when the row does not exist. Returning an
// error aborts the whole commit with no mutation applied.
type Check struct {
	Collection string
	ID         string
	Verify     func(current any) error
}

// EntityStore is a transactional keyed document store, one collection per
// entity kind. Commit is the only multi-row write path: guards and mutations
// run as a single unit so lookup-time state is never trusted at commit time.
type EntityStore interface {
	Get(collection, id string) (any, bool)
	GetAll(collection string) []any
	Put(collection, id string, value any)
	Delete(collection, id string)

	// Commit evaluates every check, then applies every mutation, atomically.
	// The first failing check's error is returned and nothing is written.
	Commit(ctx context.Context, checks []Check, mutations []Mutation) error

	// Collections lists every non-empty collection name.
	Collections() []string

	// ReplaceAll destructively replaces the entire store contents.
	ReplaceAll(data map[string]map[string]any)

	// Reset drops everything.
	Reset()
}

// AuditStoreInterface is the append-only backing for the audit ledger. Rows
// are immutable; there is no update or delete path.
type AuditStoreInterface interface {
	Append(ctx context.Context, serviceID, userID, eventType, entityType, entityID, details string) (*AuditEvent, error)
	Query(ctx context.Context, filter AuditFilter) ([]AuditEvent, error)
	GetAll(ctx context.Context) ([]AuditEvent, error)
}

package mocks

import (
	"context"

	"github.com/example/ems-custody/internal/infrastructure/store"
)

// MockEntityStore wraps the in-memory entity store and lets tests force the
// next Commit to fail, to exercise persistence-failure paths.
type MockEntityStore struct {
	*store.MemoryEntityStore

	CommitErr   error
	CommitCalls int
}

func NewMockEntityStore() *MockEntityStore {
	return &MockEntityStore{MemoryEntityStore: store.NewMemoryEntityStore()}
}

func (m *MockEntityStore) Commit(ctx context.Context, checks []store.Check, mutations []store.Mutation) error {
	m.CommitCalls++
	if m.CommitErr != nil {
		return m.CommitErr
	}
	return m.MemoryEntityStore.Commit(ctx, checks, mutations)
}

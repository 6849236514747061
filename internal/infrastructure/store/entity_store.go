package store

import (
	"context"
	"sync"
)

// MemoryEntityStore is an in-memory EntityStore: collection -> id -> value.
// A single RWMutex covers reads, writes, and guarded commits.
type MemoryEntityStore struct {
	mu   sync.RWMutex
	data map[string]map[string]any
}

func NewMemoryEntityStore() *MemoryEntityStore {
	return &MemoryEntityStore{
		data: make(map[string]map[string]any),
	}
}

func (s *MemoryEntityStore) Get(collection, id string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data[collection] == nil {
		return nil, false
	}
	v, ok := s.data[collection][id]
	return v, ok
}

func (s *MemoryEntityStore) GetAll(collection string) []any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data[collection] == nil {
		return nil
	}

	items := make([]any, 0, len(s.data[collection]))
	for _, v := range s.data[collection] {
		items = append(items, v)
	}
	return items
}

func (s *MemoryEntityStore) Put(collection, id string, value any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(collection, id, value)
}

func (s *MemoryEntityStore) Delete(collection, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.data[collection] != nil {
		delete(s.data[collection], id)
	}
}

// Commit runs every check and then applies every mutation under one write
// lock. If any check fails, its error is returned and no mutation applies.
func (s *MemoryEntityStore) Commit(ctx context.Context, checks []Check, mutations []Mutation) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range checks {
		var current any
		if s.data[c.Collection] != nil {
			current = s.data[c.Collection][c.ID]
		}
		if err := c.Verify(current); err != nil {
			return err
		}
	}

	for _, m := range mutations {
		if m.Value == nil {
			if s.data[m.Collection] != nil {
				delete(s.data[m.Collection], m.ID)
			}
			continue
		}
		s.put(m.Collection, m.ID, m.Value)
	}
	return nil
}

func (s *MemoryEntityStore) Collections() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.data))
	for name, rows := range s.data {
		if len(rows) > 0 {
			names = append(names, name)
		}
	}
	return names
}

func (s *MemoryEntityStore) ReplaceAll(data map[string]map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = make(map[string]map[string]any, len(data))
	for collection, rows := range data {
		s.data[collection] = make(map[string]any, len(rows))
		for id, v := range rows {
			s.data[collection][id] = v
		}
	}
}

func (s *MemoryEntityStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]map[string]any)
}

// put assumes the write lock is held.
func (s *MemoryEntityStore) put(collection, id string, value any) {
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]any)
	}
	s.data[collection][id] = value
}

package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/example/ems-custody/internal/infrastructure/store"
	"github.com/google/uuid"
)

// MockAuditStore is an in-memory AuditStoreInterface that records every
// Append for assertions and can be forced to fail.
type MockAuditStore struct {
	mu     sync.RWMutex
	events []store.AuditEvent

	// For tracking calls in tests
	AppendCalls []AppendCall
	AppendErr   error
}

// AppendCall records parameters passed to Append
type AppendCall struct {
	ServiceID  string
	UserID     string
	EventType  string
	EntityType string
	EntityID   string
	Details    string
}

func NewMockAuditStore() *MockAuditStore {
	return &MockAuditStore{
		AppendCalls: make([]AppendCall, 0),
	}
}

func (m *MockAuditStore) Append(ctx context.Context, serviceID, userID, eventType, entityType, entityID, details string) (*store.AuditEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.AppendCalls = append(m.AppendCalls, AppendCall{
		ServiceID:  serviceID,
		UserID:     userID,
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	})

	if m.AppendErr != nil {
		return nil, m.AppendErr
	}

	event := store.AuditEvent{
		ID:         uuid.New().String(),
		ServiceID:  serviceID,
		UserID:     userID,
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		Timestamp:  time.Now(),
	}
	m.events = append(m.events, event)
	return &event, nil
}

func (m *MockAuditStore) Query(ctx context.Context, filter store.AuditFilter) ([]store.AuditEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matched []store.AuditEvent
	for i := len(m.events) - 1; i >= 0; i-- {
		e := m.events[i]
		if filter.ServiceID != "" && e.ServiceID != filter.ServiceID {
			continue
		}
		if filter.EventType != "" && e.EventType != filter.EventType {
			continue
		}
		if filter.EntityType != "" && e.EntityType != filter.EntityType {
			continue
		}
		matched = append(matched, e)
		if filter.Limit > 0 && len(matched) >= filter.Limit {
			break
		}
	}
	return matched, nil
}

func (m *MockAuditStore) GetAll(ctx context.Context) ([]store.AuditEvent, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := make([]store.AuditEvent, len(m.events))
	copy(all, m.events)
	return all, nil
}

// EventTypes returns the event types of all appended events, in order.
func (m *MockAuditStore) EventTypes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	types := make([]string, 0, len(m.events))
	for _, e := range m.events {
		types = append(types, e.EventType)
	}
	return types
}

// Reset clears all events and recorded calls
func (m *MockAuditStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = nil
	m.AppendCalls = make([]AppendCall, 0)
	m.AppendErr = nil
}

package store

import (
	"context"
	"sync"
	"time"

	"github.com/example/ems-custody/internal/infrastructure/kafka"
	"github.com/google/uuid"
)

// AuditEvent is one immutable row in the compliance audit trail. The core
// never updates or deletes an event once appended.
type AuditEvent struct {
	ID         string    `json:"id"`
	ServiceID  string    `json:"service_id"`
	UserID     string    `json:"user_id"`
	EventType  string    `json:"event_type"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Details    string    `json:"details"`
	Timestamp  time.Time `json:"timestamp"`
}

// AuditFilter narrows an audit query. Zero values match everything; From/To
// bound the timestamp inclusively; Limit 0 means no limit.
type AuditFilter struct {
	ServiceID  string
	EventType  string
	EntityType string
	From       time.Time
	To         time.Time
	Limit      int
}

func (f AuditFilter) matches(e AuditEvent) bool {
	if f.ServiceID != "" && e.ServiceID != f.ServiceID {
		return false
	}
	if f.EventType != "" && e.EventType != f.EventType {
		return false
	}
	if f.EntityType != "" && e.EntityType != f.EntityType {
		return false
	}
	if !f.From.IsZero() && e.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && e.Timestamp.After(f.To) {
		return false
	}
	return true
}

// EventPublisher fans committed audit events out to downstream consumers.
// *kafka.Producer satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, key string, event any) error
}

// MemoryAuditStore keeps the audit trail in memory, appended in arrival
// order, and fans each event out to the audit topic when a producer is set.
type MemoryAuditStore struct {
	mu       sync.RWMutex
	events   []AuditEvent
	producer EventPublisher
}

func NewMemoryAuditStore(producer *kafka.Producer) *MemoryAuditStore {
	s := &MemoryAuditStore{}
	if producer != nil {
		s.producer = producer
	}
	return s
}

// NewMemoryAuditStoreWithPublisher wires an arbitrary publisher instead of a
// Kafka producer.
func NewMemoryAuditStoreWithPublisher(producer EventPublisher) *MemoryAuditStore {
	return &MemoryAuditStore{producer: producer}
}

// Append stores an event with a server-observed timestamp and publishes it.
// Publish comes first: an event that cannot reach the topic is not stored, so
// an Append error always means no row was written.
func (s *MemoryAuditStore) Append(ctx context.Context, serviceID, userID, eventType, entityType, entityID, details string) (*AuditEvent, error) {
	event := AuditEvent{
		ID:         uuid.New().String(),
		ServiceID:  serviceID,
		UserID:     userID,
		EventType:  eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
		Timestamp:  time.Now(),
	}

	if s.producer != nil {
		if err := s.producer.Publish(ctx, serviceID, event); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	s.events = append(s.events, event)
	s.mu.Unlock()

	return &event, nil
}

// Query returns matching events newest-first.
func (s *MemoryAuditStore) Query(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []AuditEvent
	for i := len(s.events) - 1; i >= 0; i-- {
		if !filter.matches(s.events[i]) {
			continue
		}
		matched = append(matched, s.events[i])
		if filter.Limit > 0 && len(matched) >= filter.Limit {
			break
		}
	}
	return matched, nil
}

// GetAll returns every event in append order.
func (s *MemoryAuditStore) GetAll(ctx context.Context) ([]AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]AuditEvent, len(s.events))
	copy(all, s.events)
	return all, nil
}

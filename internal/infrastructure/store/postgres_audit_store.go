package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/example/ems-custody/internal/infrastructure/kafka"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
)

// PostgresAuditStore persists the audit trail in an append-only
// audit_events table and publishes each row to the audit topic.
type PostgresAuditStore struct {
	db       *sql.DB
	producer *kafka.Producer
}

func NewPostgresAuditStore(db *sql.DB, producer *kafka.Producer) *PostgresAuditStore {
	return &PostgresAuditStore{
		db:       db,
		producer: producer,
	}
}

// Append inserts one immutable row and publishes it.
func (s *PostgresAuditStore) Append(ctx context.Context, serviceID, userID, eventType, entityType, entityID, details string) (*AuditEvent, error) {
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

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_events (id, service_id, user_id, event_type, entity_type, entity_id, details, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID,
		event.ServiceID,
		event.UserID,
		event.EventType,
		event.EntityType,
		event.EntityID,
		event.Details,
		event.Timestamp,
	)
	if err != nil {
		return nil, err
	}

	if s.producer != nil {
		if err := s.producer.Publish(ctx, serviceID, event); err != nil {
			return nil, err
		}
	}

	return &event, nil
}

// Query returns matching events newest-first.
func (s *PostgresAuditStore) Query(ctx context.Context, filter AuditFilter) ([]AuditEvent, error) {
	var conds []string
	var args []any

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ServiceID != "" {
		conds = append(conds, "service_id = "+arg(filter.ServiceID))
	}
	if filter.EventType != "" {
		conds = append(conds, "event_type = "+arg(filter.EventType))
	}
	if filter.EntityType != "" {
		conds = append(conds, "entity_type = "+arg(filter.EntityType))
	}
	if !filter.From.IsZero() {
		conds = append(conds, "created_at >= "+arg(filter.From))
	}
	if !filter.To.IsZero() {
		conds = append(conds, "created_at <= "+arg(filter.To))
	}

	query := `SELECT id, service_id, user_id, event_type, entity_type, entity_id, details, created_at
		 FROM audit_events`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += " LIMIT " + arg(filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditEvents(rows)
}

// GetAll returns every event in append order.
func (s *PostgresAuditStore) GetAll(ctx context.Context) ([]AuditEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, service_id, user_id, event_type, entity_type, entity_id, details, created_at
		 FROM audit_events
		 ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAuditEvents(rows)
}

func scanAuditEvents(rows *sql.Rows) ([]AuditEvent, error) {
	var events []AuditEvent
	for rows.Next() {
		var e AuditEvent
		if err := rows.Scan(&e.ID, &e.ServiceID, &e.UserID, &e.EventType, &e.EntityType, &e.EntityID, &e.Details, &e.Timestamp); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// ConnectPostgres establishes a pooled connection to PostgreSQL.
func ConnectPostgres(connStr string) (*sql.DB, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

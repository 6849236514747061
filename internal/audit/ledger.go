// Package audit is the append-only compliance trail. Every custody mutation
// is paired with at least one ledger record written in the same logical
// operation, strictly after the entity mutation is accepted.
package audit

import (
	"context"

	"github.com/example/ems-custody/internal/infrastructure/store"
	"github.com/sirupsen/logrus"
)

// Ledger writes and queries immutable audit events.
type Ledger struct {
	store store.AuditStoreInterface
	log   *logrus.Logger
}

func NewLedger(auditStore store.AuditStoreInterface, log *logrus.Logger) *Ledger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Ledger{store: auditStore, log: log}
}

// Record appends exactly one immutable event with a server-observed
// timestamp. It fails only if the underlying store write fails.
func (l *Ledger) Record(ctx context.Context, serviceID, userID, eventType, entityType, entityID, details string) (*store.AuditEvent, error) {
	event, err := l.store.Append(ctx, serviceID, userID, eventType, entityType, entityID, details)
	if err != nil {
		l.log.WithError(err).WithFields(logrus.Fields{
			"service_id": serviceID,
			"event_type": eventType,
			"entity_id":  entityID,
		}).Error("audit append failed")
		return nil, err
	}
	return event, nil
}

// Query returns events newest-first, narrowed by the filter.
func (l *Ledger) Query(ctx context.Context, filter store.AuditFilter) ([]store.AuditEvent, error) {
	return l.store.Query(ctx, filter)
}

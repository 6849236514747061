// Package notification turns selected audit events into email alerts for the
// on-duty supervisor.
package notification

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/email"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

// Handler processes audit events for sending notifications.
type Handler struct {
	emailService *email.Service
	recipient    string
	log          *logrus.Logger
}

// NewHandler creates a notification handler. Recipient is the supervisor
// mailbox that receives every alert.
func NewHandler(emailSvc *email.Service, recipient string, log *logrus.Logger) *Handler {
	return &Handler{
		emailService: emailSvc,
		recipient:    recipient,
		log:          log,
	}
}

// HandleEvent is the Kafka consumer handler. Only discrepancy openings and
// witnessed wastes produce mail; everything else is ignored.
func (h *Handler) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.AuditEvent
	if err := json.Unmarshal(value, &event); err != nil {
		h.log.WithError(err).Warn("failed to unmarshal audit event")
		return err
	}

	switch event.EventType {
	case audit.EventDiscrepancyOpened:
		return h.handleDiscrepancyOpened(event)
	case audit.EventWasteWitnessed:
		return h.handleWasteWitnessed(event)
	}
	return nil
}

func (h *Handler) handleDiscrepancyOpened(event store.AuditEvent) error {
	h.log.WithFields(logrus.Fields{
		"case_id":    event.EntityID,
		"service_id": event.ServiceID,
	}).Info("sending discrepancy alert")

	if err := h.emailService.SendDiscrepancyAlert(h.recipient, event.EntityID, event.Details); err != nil {
		h.log.WithError(err).Error("failed to send discrepancy alert")
		return err
	}
	return nil
}

func (h *Handler) handleWasteWitnessed(event store.AuditEvent) error {
	h.log.WithFields(logrus.Fields{
		"waste_id":   event.EntityID,
		"service_id": event.ServiceID,
	}).Info("sending waste witnessed notice")

	if err := h.emailService.SendWasteWitnessedNotice(h.recipient, event.EntityID, event.Details); err != nil {
		h.log.WithError(err).Error("failed to send waste witnessed notice")
		return err
	}
	return nil
}

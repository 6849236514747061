// Package projection consumes the audit topic and maintains the read models
// the reporting side serves. The projector is idempotent per event replay at
// the feed level only; counters assume at-least-once delivery is rare enough
// to tolerate.
package projection

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/infrastructure/store"
	"github.com/example/ems-custody/internal/readmodel"
)

type Projector struct {
	readStore store.ReadStoreInterface
	log       *logrus.Logger
}

func NewProjector(readStore store.ReadStoreInterface, log *logrus.Logger) *Projector {
	return &Projector{readStore: readStore, log: log}
}

// HandleEvent is the Kafka consumer handler. The message value is one
// serialized audit event.
func (p *Projector) HandleEvent(ctx context.Context, key, value []byte) error {
	var event store.AuditEvent
	if err := json.Unmarshal(value, &event); err != nil {
		return err
	}

	p.log.WithFields(logrus.Fields{
		"event_type": event.EventType,
		"service_id": event.ServiceID,
	}).Debug("projecting audit event")

	p.projectFeed(event)
	p.projectCounters(event)
	p.projectSummary(event)
	return nil
}

func (p *Projector) projectFeed(event store.AuditEvent) {
	entry := readmodel.ActivityEntry{
		EventID:    event.ID,
		UserID:     event.UserID,
		EventType:  event.EventType,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		Details:    event.Details,
		Timestamp:  event.Timestamp,
	}

	updated := p.readStore.Update(readmodel.CollActivityFeeds, event.ServiceID, func(current any) any {
		feed, ok := current.(*readmodel.ActivityFeed)
		if !ok {
			feed = &readmodel.ActivityFeed{ServiceID: event.ServiceID}
		}
		for _, existing := range feed.Entries {
			if existing.EventID == entry.EventID {
				return feed
			}
		}
		feed.Prepend(entry)
		return feed
	})
	if !updated {
		feed := &readmodel.ActivityFeed{ServiceID: event.ServiceID}
		feed.Prepend(entry)
		p.readStore.Set(readmodel.CollActivityFeeds, event.ServiceID, feed)
	}
}

func (p *Projector) projectCounters(event store.AuditEvent) {
	updated := p.readStore.Update(readmodel.CollEventCounters, event.ServiceID, func(current any) any {
		counters, ok := current.(*readmodel.EventCounters)
		if !ok {
			counters = &readmodel.EventCounters{ServiceID: event.ServiceID, Counts: map[string]int{}}
		}
		if counters.Counts == nil {
			counters.Counts = map[string]int{}
		}
		counters.Counts[event.EventType]++
		return counters
	})
	if !updated {
		p.readStore.Set(readmodel.CollEventCounters, event.ServiceID, &readmodel.EventCounters{
			ServiceID: event.ServiceID,
			Counts:    map[string]int{event.EventType: 1},
		})
	}
}

func (p *Projector) projectSummary(event store.AuditEvent) {
	apply := func(summary *readmodel.ComplianceSummary) {
		switch event.EventType {
		case audit.EventCheckSessionCompleted:
			summary.ChecksCompleted++
		case audit.EventCheckSealVerified:
			summary.SealsVerified++
		case audit.EventCheckItemVerified:
			summary.ItemsVerified++
		case audit.EventItemAdministered:
			summary.Administrations++
		case audit.EventItemWasted:
			summary.Wastes++
		case audit.EventWasteWitnessed:
			summary.WastesWitnessed++
		case audit.EventCorrectionMade:
			summary.Corrections++
		case audit.EventDiscrepancyOpened:
			summary.DiscrepanciesOpen++
			summary.DiscrepanciesTotal++
		case audit.EventDiscrepancyResolved:
			if summary.DiscrepanciesOpen > 0 {
				summary.DiscrepanciesOpen--
			}
		}
		if event.Timestamp.After(summary.LastActivityAt) {
			summary.LastActivityAt = event.Timestamp
		}
	}

	updated := p.readStore.Update(readmodel.CollComplianceSummaries, event.ServiceID, func(current any) any {
		summary, ok := current.(*readmodel.ComplianceSummary)
		if !ok {
			summary = &readmodel.ComplianceSummary{ServiceID: event.ServiceID}
		}
		apply(summary)
		return summary
	})
	if !updated {
		summary := &readmodel.ComplianceSummary{ServiceID: event.ServiceID}
		apply(summary)
		p.readStore.Set(readmodel.CollComplianceSummaries, event.ServiceID, summary)
	}
}

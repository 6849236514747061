package projection

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/infrastructure/store"
	"github.com/example/ems-custody/internal/readmodel"
)

func newTestProjector() (*Projector, *store.ReadStore) {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)
	readStore := store.NewReadStore()
	return NewProjector(readStore, log), readStore
}

func deliver(t *testing.T, p *Projector, event store.AuditEvent) {
	t.Helper()
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	value, err := json.Marshal(event)
	require.NoError(t, err)
	require.NoError(t, p.HandleEvent(context.Background(), []byte(event.ServiceID), value))
}

func TestProjectorActivityFeed(t *testing.T) {
	p, readStore := newTestProjector()
	now := time.Now()

	deliver(t, p, store.AuditEvent{
		ServiceID: "svc-1", UserID: "user-1",
		EventType: audit.EventItemAdministered, EntityType: audit.EntityInventoryItem,
		EntityID: "item-1", Details: "administered 10 mg", Timestamp: now,
	})
	deliver(t, p, store.AuditEvent{
		ServiceID: "svc-1", UserID: "user-1",
		EventType: audit.EventItemWasted, EntityType: audit.EntityInventoryItem,
		EntityID: "item-1", Timestamp: now.Add(time.Second),
	})

	raw, ok := readStore.Get(readmodel.CollActivityFeeds, "svc-1")
	require.True(t, ok)
	feed := raw.(*readmodel.ActivityFeed)
	require.Len(t, feed.Entries, 2)
	assert.Equal(t, audit.EventItemWasted, feed.Entries[0].EventType, "feed is newest-first")
	assert.Equal(t, audit.EventItemAdministered, feed.Entries[1].EventType)
}

func TestProjectorFeedDeduplicatesRedelivery(t *testing.T) {
	p, readStore := newTestProjector()

	event := store.AuditEvent{
		ID: "event-1", ServiceID: "svc-1",
		EventType: audit.EventItemAdministered, EntityID: "item-1", Timestamp: time.Now(),
	}
	deliver(t, p, event)
	deliver(t, p, event)

	raw, ok := readStore.Get(readmodel.CollActivityFeeds, "svc-1")
	require.True(t, ok)
	assert.Len(t, raw.(*readmodel.ActivityFeed).Entries, 1)
}

func TestProjectorFeedsAreScopedPerService(t *testing.T) {
	p, readStore := newTestProjector()

	deliver(t, p, store.AuditEvent{ServiceID: "svc-1", EventType: audit.EventItemAdministered, Timestamp: time.Now()})
	deliver(t, p, store.AuditEvent{ServiceID: "svc-2", EventType: audit.EventItemWasted, Timestamp: time.Now()})

	raw, ok := readStore.Get(readmodel.CollActivityFeeds, "svc-1")
	require.True(t, ok)
	assert.Len(t, raw.(*readmodel.ActivityFeed).Entries, 1)
	raw, ok = readStore.Get(readmodel.CollActivityFeeds, "svc-2")
	require.True(t, ok)
	assert.Len(t, raw.(*readmodel.ActivityFeed).Entries, 1)
}

func TestProjectorComplianceSummary(t *testing.T) {
	p, readStore := newTestProjector()
	now := time.Now()

	for _, eventType := range []string{
		audit.EventCheckSessionStarted,
		audit.EventCheckItemVerified,
		audit.EventCheckItemVerified,
		audit.EventCheckSessionCompleted,
		audit.EventItemAdministered,
		audit.EventItemWasted,
		audit.EventWasteWitnessed,
		audit.EventDiscrepancyOpened,
		audit.EventDiscrepancyOpened,
		audit.EventDiscrepancyResolved,
	} {
		deliver(t, p, store.AuditEvent{ServiceID: "svc-1", EventType: eventType, Timestamp: now})
	}

	raw, ok := readStore.Get(readmodel.CollComplianceSummaries, "svc-1")
	require.True(t, ok)
	summary := raw.(*readmodel.ComplianceSummary)
	assert.Equal(t, 1, summary.ChecksCompleted)
	assert.Equal(t, 2, summary.ItemsVerified)
	assert.Equal(t, 1, summary.Administrations)
	assert.Equal(t, 1, summary.Wastes)
	assert.Equal(t, 1, summary.WastesWitnessed)
	assert.Equal(t, 1, summary.DiscrepanciesOpen, "one of two cases resolved")
	assert.Equal(t, 2, summary.DiscrepanciesTotal)
}

func TestProjectorEventCounters(t *testing.T) {
	p, readStore := newTestProjector()

	deliver(t, p, store.AuditEvent{ServiceID: "svc-1", EventType: audit.EventItemWasted, Timestamp: time.Now()})
	deliver(t, p, store.AuditEvent{ServiceID: "svc-1", EventType: audit.EventItemWasted, Timestamp: time.Now()})
	deliver(t, p, store.AuditEvent{ServiceID: "svc-1", EventType: audit.EventUserLogin, Timestamp: time.Now()})

	raw, ok := readStore.Get(readmodel.CollEventCounters, "svc-1")
	require.True(t, ok)
	counters := raw.(*readmodel.EventCounters)
	assert.Equal(t, 2, counters.Counts[audit.EventItemWasted])
	assert.Equal(t, 1, counters.Counts[audit.EventUserLogin])
}

func TestProjectorRejectsMalformedPayload(t *testing.T) {
	p, _ := newTestProjector()
	err := p.HandleEvent(context.Background(), []byte("svc-1"), []byte("not json"))
	assert.Error(t, err)
}

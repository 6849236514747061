package audit

import (
	"context"
	"testing"

	"github.com/example/ems-custody/internal/infrastructure/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedger_RecordAppendsOneEvent(t *testing.T) {
	memory := store.NewMemoryAuditStore(nil)
	ledger := NewLedger(memory, nil)
	ctx := context.Background()

	event, err := ledger.Record(ctx, "svc-1", "user-1", EventItemAdministered, EntityInventoryItem, "item-1", "administered 2 mg")
	require.NoError(t, err)
	assert.NotEmpty(t, event.ID)
	assert.False(t, event.Timestamp.IsZero())

	all, err := memory.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, EventItemAdministered, all[0].EventType)
	assert.Equal(t, "item-1", all[0].EntityID)
}

func TestLedger_QueryNewestFirstWithFilters(t *testing.T) {
	memory := store.NewMemoryAuditStore(nil)
	ledger := NewLedger(memory, nil)
	ctx := context.Background()

	_, err := ledger.Record(ctx, "svc-1", "user-1", EventItemCreated, EntityInventoryItem, "item-1", "")
	require.NoError(t, err)
	_, err = ledger.Record(ctx, "svc-1", "user-1", EventItemWasted, EntityWasteRecord, "wr-1", "")
	require.NoError(t, err)
	_, err = ledger.Record(ctx, "svc-2", "user-2", EventItemWasted, EntityWasteRecord, "wr-2", "")
	require.NoError(t, err)

	events, err := ledger.Query(ctx, store.AuditFilter{ServiceID: "svc-1"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, EventItemWasted, events[0].EventType, "newest first")
	assert.Equal(t, EventItemCreated, events[1].EventType)

	events, err = ledger.Query(ctx, store.AuditFilter{EventType: EventItemWasted})
	require.NoError(t, err)
	assert.Len(t, events, 2)

	events, err = ledger.Query(ctx, store.AuditFilter{ServiceID: "svc-1", EntityType: EntityWasteRecord})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "wr-1", events[0].EntityID)

	events, err = ledger.Query(ctx, store.AuditFilter{Limit: 1})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "wr-2", events[0].EntityID)
}

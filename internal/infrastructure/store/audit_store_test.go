package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	err       error
	published []AuditEvent
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event any) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, event.(AuditEvent))
	return nil
}

func TestMemoryAuditStore_Append(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and publishes", func(t *testing.T) {
		pub := &recordingPublisher{}
		s := NewMemoryAuditStoreWithPublisher(pub)

		event, err := s.Append(ctx, "svc-1", "user-1", "ITEM_CREATED", "INVENTORY_ITEM", "item-1", "")
		require.NoError(t, err)
		require.NotNil(t, event)

		all, err := s.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 1)
		require.Len(t, pub.published, 1)
		assert.Equal(t, event.ID, pub.published[0].ID)
	})

	t.Run("publish failure stores nothing", func(t *testing.T) {
		pub := &recordingPublisher{err: errors.New("broker unreachable")}
		s := NewMemoryAuditStoreWithPublisher(pub)

		_, err := s.Append(ctx, "svc-1", "user-1", "ITEM_CREATED", "INVENTORY_ITEM", "item-1", "")
		require.Error(t, err)

		all, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.Empty(t, all, "an Append error must not leave a row behind")
	})

	t.Run("works without a publisher", func(t *testing.T) {
		s := NewMemoryAuditStore(nil)

		_, err := s.Append(ctx, "svc-1", "user-1", "ITEM_CREATED", "INVENTORY_ITEM", "item-1", "")
		require.NoError(t, err)

		all, err := s.GetAll(ctx)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})
}

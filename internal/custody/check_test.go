package custody

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

func TestCheckSealedLocation(t *testing.T) {
	t.Run("stamps every active item behind the seal", func(t *testing.T) {
		f := newFixture(t)
		// An administered item is still active and still gets stamped.
		item := f.item(t, "item-morphine")
		administered := *item
		administered.Status = entity.ItemAdministered
		administered.LastCheckedAt = f.now.Add(-48 * time.Hour)
		f.entities.Put(store.CollInventoryItems, item.ID, &administered)
		seedFixtureItem(f.entities, "item-fentanyl", "cat-morphine", "lot-morphine", "loc-safe", "FENTA1", 2, f.now.Add(-48*time.Hour))

		result, err := f.engine.CheckSealedLocation(context.Background(), f.actor, SealedCheckCommand{
			LocationID:  "loc-safe",
			SealEntered: "SEAL-123",
		})
		require.NoError(t, err)

		assert.True(t, result.Session.SealVerified)
		assert.Len(t, result.Items, 2)
		for _, id := range []string{"item-morphine", "item-fentanyl"} {
			assert.True(t, f.item(t, id).LastCheckedAt.Equal(f.now), "item %s should be stamped", id)
		}
		assert.Equal(t, []string{
			audit.EventCheckSessionStarted,
			audit.EventCheckSealVerified,
			audit.EventCheckSessionCompleted,
		}, f.audits.EventTypes())
	})

	t.Run("rejects a wrong seal", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.CheckSealedLocation(context.Background(), f.actor, SealedCheckCommand{
			LocationID:  "loc-safe",
			SealEntered: "SEAL-999",
		})
		assert.ErrorIs(t, err, ErrSealMismatch)
		assert.Empty(t, f.audits.AppendCalls)
		assert.Empty(t, f.entities.GetAll(store.CollCheckSessions))
	})

	t.Run("rejects an unsealed location", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.CheckSealedLocation(context.Background(), f.actor, SealedCheckCommand{
			LocationID:  "loc-cabinet",
			SealEntered: "anything",
		})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})
}

func TestCheckUnsealedLocation(t *testing.T) {
	t.Run("completes when every in-stock item is verified", func(t *testing.T) {
		f := newFixture(t)
		seedFixtureItem(f.entities, "item-gauze", "cat-saline", "", "loc-cabinet", "GAUZE1", 20, f.now.Add(-200*time.Hour))

		result, err := f.engine.CheckUnsealedLocation(context.Background(), f.actor, UnsealedCheckCommand{
			LocationID: "loc-cabinet",
			Lines: []CheckLineInput{
				{ItemID: "item-saline", Verified: true},
				{ItemID: "item-gauze", Verified: true, Notes: "two packs torn"},
			},
		})
		require.NoError(t, err)

		assert.False(t, result.Session.SealVerified)
		assert.Len(t, result.Lines, 2)
		assert.True(t, f.item(t, "item-saline").LastCheckedAt.Equal(f.now))
		assert.True(t, f.item(t, "item-gauze").LastCheckedAt.Equal(f.now))

		types := f.audits.EventTypes()
		require.Len(t, types, 4)
		assert.Equal(t, audit.EventCheckSessionStarted, types[0])
		assert.Equal(t, audit.EventCheckItemVerified, types[1])
		assert.Equal(t, audit.EventCheckItemVerified, types[2])
		assert.Equal(t, audit.EventCheckSessionCompleted, types[3])
	})

	t.Run("refuses to complete with an unverified item", func(t *testing.T) {
		f := newFixture(t)
		seedFixtureItem(f.entities, "item-gauze", "cat-saline", "", "loc-cabinet", "GAUZE1", 20, f.now)

		_, err := f.engine.CheckUnsealedLocation(context.Background(), f.actor, UnsealedCheckCommand{
			LocationID: "loc-cabinet",
			Lines:      []CheckLineInput{{ItemID: "item-saline", Verified: true}},
		})
		assert.ErrorIs(t, err, ErrUnverifiedLines)
		assert.Empty(t, f.entities.GetAll(store.CollCheckSessions), "abandoned check leaves nothing behind")
		assert.Empty(t, f.entities.GetAll(store.CollCheckLines))
		assert.Empty(t, f.audits.AppendCalls)
	})

	t.Run("a line marked unverified blocks completion", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.engine.CheckUnsealedLocation(context.Background(), f.actor, UnsealedCheckCommand{
			LocationID: "loc-cabinet",
			Lines:      []CheckLineInput{{ItemID: "item-saline", Verified: false}},
		})
		assert.ErrorIs(t, err, ErrUnverifiedLines)
	})

	t.Run("zero in-stock items is not a completable check", func(t *testing.T) {
		f := newFixture(t)
		item := f.item(t, "item-saline")
		gone := *item
		gone.Status = entity.ItemWasted
		f.entities.Put(store.CollInventoryItems, item.ID, &gone)

		_, err := f.engine.CheckUnsealedLocation(context.Background(), f.actor, UnsealedCheckCommand{
			LocationID: "loc-cabinet",
		})
		assert.ErrorIs(t, err, ErrNothingToCheck)
	})

	t.Run("non-in-stock items are outside the check", func(t *testing.T) {
		f := newFixture(t)
		seedFixtureItem(f.entities, "item-used", "cat-saline", "", "loc-cabinet", "USEDX1", 1, f.now.Add(-200*time.Hour))
		used := f.item(t, "item-used")
		administered := *used
		administered.Status = entity.ItemAdministered
		f.entities.Put(store.CollInventoryItems, used.ID, &administered)

		_, err := f.engine.CheckUnsealedLocation(context.Background(), f.actor, UnsealedCheckCommand{
			LocationID: "loc-cabinet",
			Lines:      []CheckLineInput{{ItemID: "item-saline", Verified: true}},
		})
		require.NoError(t, err)
		assert.False(t, f.item(t, "item-used").LastCheckedAt.Equal(f.now),
			"only verified in-stock items get stamped")
	})
}

package custody

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/entity"
)

func TestDiscrepancyLifecycle(t *testing.T) {
	f := newFixture(t)

	dcase, err := f.engine.OpenDiscrepancy(context.Background(), f.actor, OpenDiscrepancyCommand{
		ItemID:      "item-morphine",
		Description: "count shows 9, records show 10",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DiscrepancyOpen, dcase.Status)
	assert.Equal(t, []string{audit.EventDiscrepancyOpened}, f.audits.EventTypes())

	investigating, err := f.engine.StartInvestigation(context.Background(), f.actor, dcase.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.DiscrepancyInvestigating, investigating.Status)

	resolved, err := f.engine.ResolveDiscrepancy(context.Background(), f.actor, ResolveDiscrepancyCommand{
		CaseID:     dcase.ID,
		Resolution: "documentation error, corrected",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.DiscrepancyResolved, resolved.Status)
	assert.Equal(t, f.actor.UserID, resolved.ResolvedBy)
	assert.Contains(t, f.audits.EventTypes(), audit.EventDiscrepancyResolved)
}

func TestDiscrepancyResolutionIsMonotonic(t *testing.T) {
	f := newFixture(t)
	dcase, err := f.engine.OpenDiscrepancy(context.Background(), f.actor, OpenDiscrepancyCommand{
		ItemID: "item-morphine", Description: "seal broken",
	})
	require.NoError(t, err)

	_, err = f.engine.ResolveDiscrepancy(context.Background(), f.actor, ResolveDiscrepancyCommand{
		CaseID: dcase.ID, Resolution: "restocked and resealed",
	})
	require.NoError(t, err)

	_, err = f.engine.StartInvestigation(context.Background(), f.actor, dcase.ID)
	assert.ErrorIs(t, err, ErrCaseResolved)

	_, err = f.engine.ResolveDiscrepancy(context.Background(), f.actor, ResolveDiscrepancyCommand{
		CaseID: dcase.ID, Resolution: "again",
	})
	assert.ErrorIs(t, err, ErrCaseResolved)
}

func TestOpenDiscrepancyRequiresItem(t *testing.T) {
	f := newFixture(t)
	_, err := f.engine.OpenDiscrepancy(context.Background(), f.actor, OpenDiscrepancyCommand{
		ItemID: "item-missing", Description: "anything",
	})
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.Empty(t, f.audits.AppendCalls)
}

func TestIncidentLifecycle(t *testing.T) {
	f := newFixture(t)

	incident, err := f.engine.CreateIncident(context.Background(), f.actor, CreateIncidentCommand{
		Title:       "MVC on Route 9",
		Description: "two patients transported",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.IncidentOpen, incident.Status)

	item, err := f.engine.AddIncidentItem(context.Background(), f.actor, AddIncidentItemCommand{
		IncidentID:   incident.ID,
		ItemID:       "item-morphine",
		QuantityUsed: decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, incident.ID, item.IncidentID)

	closed, err := f.engine.CloseIncident(context.Background(), f.actor, incident.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.IncidentClosed, closed.Status)
	assert.False(t, closed.ClosedAt.IsZero())

	assert.Equal(t, []string{
		audit.EventIncidentCreated,
		audit.EventIncidentItemAdded,
		audit.EventIncidentClosed,
	}, f.audits.EventTypes())

	t.Run("closed incidents accept no more items", func(t *testing.T) {
		_, err := f.engine.AddIncidentItem(context.Background(), f.actor, AddIncidentItemCommand{
			IncidentID: incident.ID, ItemID: "item-saline",
		})
		assert.ErrorIs(t, err, ErrIncidentClosed)
	})

	t.Run("closing twice fails", func(t *testing.T) {
		_, err := f.engine.CloseIncident(context.Background(), f.actor, incident.ID)
		assert.ErrorIs(t, err, ErrIncidentClosed)
	})
}

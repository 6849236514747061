package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItemStatus_ForwardTransitions(t *testing.T) {
	assert.True(t, ItemInStock.CanTransitionTo(ItemAdministered))
	assert.True(t, ItemInStock.CanTransitionTo(ItemWasted))
	assert.True(t, ItemInStock.CanTransitionTo(ItemExpired))
	assert.True(t, ItemInStock.CanTransitionTo(ItemLost))
	assert.True(t, ItemInStock.CanTransitionTo(ItemDamaged))
}

func TestItemStatus_DispositionsAreTerminal(t *testing.T) {
	for _, s := range []ItemStatus{ItemAdministered, ItemWasted, ItemExpired, ItemLost, ItemTransferred, ItemDamaged} {
		assert.False(t, s.CanTransitionTo(ItemInStock), "status %s must not transition forward to InStock", s)
		assert.False(t, s.CanTransitionTo(ItemAdministered), "status %s must be terminal", s)
	}
}

func TestItemStatus_Correctable(t *testing.T) {
	assert.True(t, ItemAdministered.Correctable())
	assert.True(t, ItemWasted.Correctable())
	assert.False(t, ItemInStock.Correctable())
	assert.False(t, ItemExpired.Correctable())
	assert.False(t, ItemLost.Correctable())
}

func TestOrderStatus_Transitions(t *testing.T) {
	assert.True(t, OrderDraft.CanTransitionTo(OrderSubmitted))
	assert.True(t, OrderSubmitted.CanTransitionTo(OrderReceived))
	assert.True(t, OrderSubmitted.CanTransitionTo(OrderPartiallyReceived))
	assert.True(t, OrderPartiallyReceived.CanTransitionTo(OrderReceived))
	assert.False(t, OrderReceived.CanTransitionTo(OrderSubmitted))
	assert.False(t, OrderCancelled.CanTransitionTo(OrderSubmitted))
}

func TestDiscrepancyStatus_ResolutionIsTerminal(t *testing.T) {
	assert.True(t, DiscrepancyOpen.CanTransitionTo(DiscrepancyInvestigating))
	assert.True(t, DiscrepancyOpen.CanTransitionTo(DiscrepancyResolved))
	assert.True(t, DiscrepancyInvestigating.CanTransitionTo(DiscrepancyResolved))
	assert.False(t, DiscrepancyResolved.CanTransitionTo(DiscrepancyOpen))
	assert.False(t, DiscrepancyResolved.CanTransitionTo(DiscrepancyInvestigating))
}

func TestRole_RankOrdering(t *testing.T) {
	ordered := []Role{RoleDriver, RoleEMT, RoleAdvancedEMT, RoleParamedic, RoleSupervisor, RoleCompanyAdmin, RoleSystemAdmin}
	for i := 1; i < len(ordered); i++ {
		assert.Greater(t, ordered[i].Rank(), ordered[i-1].Rank())
	}
	assert.True(t, RoleSupervisor.AtLeast(RoleEMT))
	assert.False(t, RoleEMT.AtLeast(RoleSupervisor))
	assert.False(t, Role("Janitor").Valid())
	assert.Equal(t, 0, Role("Janitor").Rank())
}

func TestWitnessRef_Constructors(t *testing.T) {
	ref := WasteRecordRef("wr-1")
	assert.Equal(t, WitnessRefWasteRecord, ref.Kind)
	assert.Equal(t, "wr-1", ref.ID)

	ref = InventoryItemRef("item-1")
	assert.Equal(t, WitnessRefInventoryItem, ref.Kind)
}

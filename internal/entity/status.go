package entity

type ItemStatus string

const (
	ItemInStock      ItemStatus = "InStock"
	ItemAdministered ItemStatus = "Administered"
	ItemWasted       ItemStatus = "Wasted"
	ItemExpired      ItemStatus = "Expired"
	ItemLost         ItemStatus = "Lost"
	ItemTransferred  ItemStatus = "Transferred"
	ItemDamaged      ItemStatus = "Damaged"
)

// validItemTransitions defines the forward state machine for inventory items.
// Every disposition is terminal; the only backward edge (Administered/Wasted
// back to InStock) is a correction, which bypasses this table on purpose.
var validItemTransitions = map[ItemStatus][]ItemStatus{
	ItemInStock:      {ItemAdministered, ItemWasted, ItemExpired, ItemLost, ItemTransferred, ItemDamaged},
	ItemAdministered: {},
	ItemWasted:       {},
	ItemExpired:      {},
	ItemLost:         {},
	ItemTransferred:  {},
	ItemDamaged:      {},
}

// CanTransitionTo reports whether the item may move forward to target.
func (s ItemStatus) CanTransitionTo(target ItemStatus) bool {
	allowed, exists := validItemTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

// Correctable reports whether a correction may revert this status to InStock.
func (s ItemStatus) Correctable() bool {
	return s == ItemAdministered || s == ItemWasted
}

type OrderStatus string

const (
	OrderDraft             OrderStatus = "Draft"
	OrderSubmitted         OrderStatus = "Submitted"
	OrderPartiallyReceived OrderStatus = "PartiallyReceived"
	OrderReceived          OrderStatus = "Received"
	OrderCancelled         OrderStatus = "Cancelled"
)

// Draft is defined but the create flow emits Submitted directly; the edge is
// kept so a draft entry point can be added without touching the machine.
var validOrderTransitions = map[OrderStatus][]OrderStatus{
	OrderDraft:             {OrderSubmitted, OrderCancelled},
	OrderSubmitted:         {OrderPartiallyReceived, OrderReceived, OrderCancelled},
	OrderPartiallyReceived: {OrderReceived},
	OrderReceived:          {},
	OrderCancelled:         {},
}

func (s OrderStatus) CanTransitionTo(target OrderStatus) bool {
	allowed, exists := validOrderTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

type DiscrepancyStatus string

const (
	DiscrepancyOpen          DiscrepancyStatus = "Open"
	DiscrepancyInvestigating DiscrepancyStatus = "Investigating"
	DiscrepancyResolved      DiscrepancyStatus = "Resolved"
)

// Resolution is monotonic: a resolved case is never reopened.
var validDiscrepancyTransitions = map[DiscrepancyStatus][]DiscrepancyStatus{
	DiscrepancyOpen:          {DiscrepancyInvestigating, DiscrepancyResolved},
	DiscrepancyInvestigating: {DiscrepancyResolved},
	DiscrepancyResolved:      {},
}

func (s DiscrepancyStatus) CanTransitionTo(target DiscrepancyStatus) bool {
	allowed, exists := validDiscrepancyTransitions[s]
	if !exists {
		return false
	}
	for _, t := range allowed {
		if t == target {
			return true
		}
	}
	return false
}

type IncidentStatus string

const (
	IncidentOpen   IncidentStatus = "Open"
	IncidentClosed IncidentStatus = "Closed"
)

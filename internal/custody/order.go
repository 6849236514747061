package custody

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

// CreateOrderCommand opens a vendor order. Orders are submitted on creation;
// the Draft status only exists as the implicit starting point of the machine.
type CreateOrderCommand struct {
	VendorID string           `json:"vendor_id" validate:"required"`
	Notes    string           `json:"notes"`
	Lines    []OrderLineInput `json:"lines" validate:"required,min=1,dive"`
}

type OrderLineInput struct {
	CatalogID string `json:"catalog_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
}

// OrderResult bundles an order with its lines.
type OrderResult struct {
	Order *entity.Order       `json:"order"`
	Lines []*entity.OrderLine `json:"lines"`
}

// CreateOrder persists a submitted order with its lines.
func (e *Engine) CreateOrder(ctx context.Context, actor Actor, cmd CreateOrderCommand) (*OrderResult, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	now := e.now()
	order := &entity.Order{
		ID:        e.newID(),
		ServiceID: actor.ServiceID,
		VendorID:  cmd.VendorID,
		Status:    entity.OrderSubmitted,
		OrderDate: now,
		Notes:     cmd.Notes,
		CreatedBy: actor.UserID,
		CreatedAt: now,
	}

	mutations := []store.Mutation{
		{Collection: store.CollOrders, ID: order.ID, Value: order},
	}
	var lines []*entity.OrderLine
	for _, input := range cmd.Lines {
		line := &entity.OrderLine{
			ID:              e.newID(),
			OrderID:         order.ID,
			CatalogID:       input.CatalogID,
			QuantityOrdered: input.Quantity,
		}
		lines = append(lines, line)
		mutations = append(mutations, store.Mutation{
			Collection: store.CollOrderLines, ID: line.ID, Value: line,
		})
	}

	if err := e.entities.Commit(ctx, nil, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventOrderCreated, audit.EntityOrder, order.ID,
		fmt.Sprintf("order created with %d lines", len(lines))); err != nil {
		return nil, err
	}
	if err := e.record(ctx, actor, audit.EventOrderSubmitted, audit.EntityOrder, order.ID, "order submitted to vendor"); err != nil {
		return nil, err
	}

	return &OrderResult{Order: order, Lines: lines}, nil
}

// ReceiveOrderCommand finalizes delivery of an order. Each received unit
// becomes its own inventory item with a fresh code; a controlled line with a
// lot number gets one medication lot shared by the line's units.
type ReceiveOrderCommand struct {
	OrderID    string             `json:"order_id" validate:"required"`
	LocationID string             `json:"location_id" validate:"required"`
	Lines      []ReceiveLineInput `json:"lines" validate:"required,min=1,dive"`
}

type ReceiveLineInput struct {
	LineID           string `json:"line_id" validate:"required"`
	QuantityReceived int    `json:"quantity_received" validate:"min=0"`
	// UnitQuantity is the amount inside each received unit (e.g. mg per
	// vial). Zero means one.
	UnitQuantity   decimal.Decimal `json:"unit_quantity"`
	LotNumber      string          `json:"lot_number"`
	SerialNumber   string          `json:"serial_number"`
	ExpirationDate time.Time       `json:"expiration_date"`
}

// ReceiveResult is everything a receipt commit persisted.
type ReceiveResult struct {
	Order *entity.Order           `json:"order"`
	Items []*entity.InventoryItem `json:"items"`
	Lots  []*entity.MedicationLot `json:"lots"`
}

// ReceiveOrder books delivered stock in. Deliveries accumulate per line; the
// order stays PartiallyReceived until every line has its full ordered
// quantity, including lines a delivery never mentions.
func (e *Engine) ReceiveOrder(ctx context.Context, actor Actor, cmd ReceiveOrderCommand) (*ReceiveResult, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	raw, ok := e.entities.Get(store.CollOrders, cmd.OrderID)
	if !ok {
		return nil, ErrOrderNotFound
	}
	order, ok := raw.(*entity.Order)
	if !ok || order.ServiceID != actor.ServiceID {
		return nil, ErrOrderNotFound
	}
	if order.Status != entity.OrderSubmitted && order.Status != entity.OrderPartiallyReceived {
		return nil, ErrOrderNotReceivable
	}
	dest, ok := e.getLocation(cmd.LocationID)
	if !ok || !dest.IsActive || dest.ServiceID != actor.ServiceID {
		return nil, ErrLocationNotFound
	}

	orderLines := e.orderLines(cmd.OrderID)
	byID := make(map[string]*entity.OrderLine, len(orderLines))
	for _, line := range orderLines {
		byID[line.ID] = line
	}

	now := e.now()
	priorStatus := order.Status
	received := make(map[string]int, len(orderLines))
	for _, line := range orderLines {
		received[line.ID] = line.QuantityReceived
	}
	var mutations []store.Mutation
	var items []*entity.InventoryItem
	var lots []*entity.MedicationLot

	for _, input := range cmd.Lines {
		line, ok := byID[input.LineID]
		if !ok {
			return nil, invalidf("line %s does not belong to order %s", input.LineID, cmd.OrderID)
		}
		received[line.ID] += input.QuantityReceived

		catalog, haveCatalog := e.getCatalog(line.CatalogID)

		var lot *entity.MedicationLot
		if haveCatalog && catalog.IsControlled && input.LotNumber != "" {
			lot = &entity.MedicationLot{
				ID:             e.newID(),
				ServiceID:      actor.ServiceID,
				CatalogID:      line.CatalogID,
				LotNumber:      input.LotNumber,
				SerialNumber:   input.SerialNumber,
				ExpirationDate: input.ExpirationDate,
				Code:           e.NewCode(),
				CreatedAt:      now,
			}
			lots = append(lots, lot)
			mutations = append(mutations, store.Mutation{
				Collection: store.CollMedicationLots, ID: lot.ID, Value: lot,
			})
		}

		unitQuantity := input.UnitQuantity
		if unitQuantity.IsZero() {
			unitQuantity = decimal.NewFromInt(1)
		}
		for i := 0; i < input.QuantityReceived; i++ {
			item := &entity.InventoryItem{
				ID:            e.newID(),
				ServiceID:     actor.ServiceID,
				CatalogID:     line.CatalogID,
				LocationID:    cmd.LocationID,
				Status:        entity.ItemInStock,
				Quantity:      unitQuantity,
				Code:          e.NewCode(),
				IsActive:      true,
				LastCheckedAt: now,
				CreatedAt:     now,
			}
			if lot != nil {
				item.LotID = lot.ID
			}
			items = append(items, item)
			mutations = append(mutations, store.Mutation{
				Collection: store.CollInventoryItems, ID: item.ID, Value: item,
			})
		}

		updatedLine := *line
		updatedLine.QuantityReceived = received[line.ID]
		mutations = append(mutations, store.Mutation{
			Collection: store.CollOrderLines, ID: line.ID, Value: &updatedLine,
		})
	}

	// Status reflects the whole order, not just this delivery: a line the
	// delivery omits still counts as outstanding.
	complete := true
	for _, line := range orderLines {
		if received[line.ID] < line.QuantityOrdered {
			complete = false
			break
		}
	}

	updatedOrder := *order
	if complete {
		updatedOrder.Status = entity.OrderReceived
	} else {
		updatedOrder.Status = entity.OrderPartiallyReceived
	}
	mutations = append(mutations, store.Mutation{
		Collection: store.CollOrders, ID: order.ID, Value: &updatedOrder,
	})

	checks := []store.Check{{
		Collection: store.CollOrders,
		ID:         order.ID,
		Verify: func(current any) error {
			cur, ok := current.(*entity.Order)
			if !ok || cur == nil {
				return fmt.Errorf("%w: order disappeared", ErrConflict)
			}
			if cur.Status != priorStatus {
				return fmt.Errorf("%w: order is now %s", ErrConflict, cur.Status)
			}
			return nil
		},
	}}
	if err := e.entities.Commit(ctx, checks, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventOrderReceived, audit.EntityOrder, order.ID,
		fmt.Sprintf("order received as %s, %d items booked in at %s", updatedOrder.Status, len(items), dest.Name)); err != nil {
		return nil, err
	}

	return &ReceiveResult{Order: &updatedOrder, Items: items, Lots: lots}, nil
}

func (e *Engine) orderLines(orderID string) []*entity.OrderLine {
	var lines []*entity.OrderLine
	for _, raw := range e.entities.GetAll(store.CollOrderLines) {
		line, ok := raw.(*entity.OrderLine)
		if !ok || line.OrderID != orderID {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

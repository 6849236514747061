package custody

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
	"github.com/example/ems-custody/internal/witness"
)

// AdministerCommand gives a dose from a controlled item. Witness credentials
// are required only when part of the dose is left over and must be wasted.
type AdministerCommand struct {
	Code      string               `json:"code" validate:"required"`
	PatientID string               `json:"patient_id" validate:"required"`
	DoseGiven decimal.Decimal      `json:"dose_given"`
	DoseUnit  string               `json:"dose_unit" validate:"required"`
	Route     string               `json:"route" validate:"required"`
	Notes     string               `json:"notes"`
	Witness   *witness.Credentials `json:"witness"`
}

// AdministerResult is everything a single administer commit persisted.
type AdministerResult struct {
	Record    *entity.AdministrationRecord `json:"record"`
	Waste     *entity.WasteRecord          `json:"waste,omitempty"`
	Signature *entity.WitnessSignature     `json:"signature,omitempty"`
}

// Administer runs the controlled-substance dose workflow end to end. Only
// active, in-stock items of controlled catalog entries are eligible; anything
// else belongs in a simpler flow.
func (e *Engine) Administer(ctx context.Context, actor Actor, cmd AdministerCommand) (*AdministerResult, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if !cmd.DoseGiven.IsPositive() {
		return nil, invalidf("dose given must be positive")
	}

	item, err := e.FindActiveItemByCode(actor.ServiceID, cmd.Code)
	if err != nil {
		return nil, err
	}
	if item.Status != entity.ItemInStock {
		return nil, ErrNotInStock
	}
	catalog, ok := e.getCatalog(item.CatalogID)
	if !ok || !catalog.IsControlled {
		return nil, ErrNotControlled
	}

	doseWasted := item.Quantity.Sub(cmd.DoseGiven)
	if doseWasted.IsNegative() {
		doseWasted = decimal.Zero
	}

	var witnessUser *entity.User
	if doseWasted.IsPositive() {
		if cmd.Witness == nil {
			return nil, ErrWitnessRequired
		}
		witnessUser, err = e.witnesses.Verify(*cmd.Witness, actor.UserID, actor.ServiceID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrPrecondition, err)
		}
	}

	now := e.now()
	record := &entity.AdministrationRecord{
		ID:             e.newID(),
		ServiceID:      actor.ServiceID,
		ItemID:         item.ID,
		AdministeredBy: actor.UserID,
		PatientID:      cmd.PatientID,
		DoseGiven:      cmd.DoseGiven,
		DoseUnit:       cmd.DoseUnit,
		DoseWasted:     doseWasted,
		Route:          cmd.Route,
		AdministeredAt: now,
		Notes:          cmd.Notes,
	}

	updated := *item
	updated.Status = entity.ItemAdministered

	mutations := []store.Mutation{
		{Collection: store.CollAdministrations, ID: record.ID, Value: record},
		{Collection: store.CollInventoryItems, ID: item.ID, Value: &updated},
	}

	result := &AdministerResult{Record: record}
	if doseWasted.IsPositive() {
		waste := &entity.WasteRecord{
			ID:               e.newID(),
			AdministrationID: record.ID,
			AmountWasted:     doseWasted,
			WastedBy:         actor.UserID,
			WastedAt:         now,
			Method:           "administration remainder",
			Notes:            cmd.Notes,
		}
		signature := &entity.WitnessSignature{
			ID:            e.newID(),
			Ref:           entity.WasteRecordRef(waste.ID),
			WitnessUserID: witnessUser.ID,
			WitnessedAt:   now,
			WitnessEmail:  witnessUser.Email,
		}
		mutations = append(mutations,
			store.Mutation{Collection: store.CollWasteRecords, ID: waste.ID, Value: waste},
			store.Mutation{Collection: store.CollWitnessSignatures, ID: signature.ID, Value: signature},
		)
		result.Waste = waste
		result.Signature = signature
	}

	checks := []store.Check{itemStatusGuard(item.ID, entity.ItemInStock)}
	if err := e.entities.Commit(ctx, checks, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventItemAdministered, audit.EntityInventoryItem, item.ID,
		fmt.Sprintf("administered %s %s of %s to patient %s", cmd.DoseGiven, cmd.DoseUnit, catalog.Name, cmd.PatientID)); err != nil {
		return nil, err
	}
	if result.Waste != nil {
		if err := e.record(ctx, actor, audit.EventItemWasted, audit.EntityInventoryItem, item.ID,
			fmt.Sprintf("wasted remainder %s %s of %s", doseWasted, cmd.DoseUnit, catalog.Name)); err != nil {
			return nil, err
		}
		if err := e.record(ctx, actor, audit.EventWasteWitnessed, audit.EntityWasteRecord, result.Waste.ID,
			fmt.Sprintf("waste witnessed by %s", witnessUser.Email)); err != nil {
			return nil, err
		}
	}
	return result, nil
}

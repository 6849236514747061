package custody

import (
	"context"
	"fmt"

	"github.com/example/ems-custody/internal/audit"
	"github.com/example/ems-custody/internal/entity"
	"github.com/example/ems-custody/internal/infrastructure/store"
)

// CreateLocationCommand adds a storage place. ParentID empty means root.
type CreateLocationCommand struct {
	ParentID            string `json:"parent_id"`
	Name                string `json:"name" validate:"required"`
	Type                string `json:"type"`
	Sealed              bool   `json:"sealed"`
	SealID              string `json:"seal_id"`
	CheckFrequencyHours int    `json:"check_frequency_hours" validate:"min=0"`
}

func (e *Engine) CreateLocation(ctx context.Context, actor Actor, cmd CreateLocationCommand) (*entity.Location, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if cmd.Sealed && cmd.SealID == "" {
		return nil, invalidf("a sealed location needs a seal id")
	}
	if cmd.ParentID != "" {
		parent, ok := e.getLocation(cmd.ParentID)
		if !ok || !parent.IsActive || parent.ServiceID != actor.ServiceID {
			return nil, ErrLocationNotFound
		}
	}

	loc := &entity.Location{
		ID:                  e.newID(),
		ServiceID:           actor.ServiceID,
		ParentID:            cmd.ParentID,
		Name:                cmd.Name,
		Type:                cmd.Type,
		Sealed:              cmd.Sealed,
		SealID:              cmd.SealID,
		CheckFrequencyHours: cmd.CheckFrequencyHours,
		IsActive:            true,
		CreatedAt:           e.now(),
	}

	mutations := []store.Mutation{
		{Collection: store.CollLocations, ID: loc.ID, Value: loc},
	}
	if err := e.entities.Commit(ctx, nil, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventLocationCreated, audit.EntityLocation, loc.ID, loc.Name); err != nil {
		return nil, err
	}
	return loc, nil
}

// UpdateLocationCommand edits a location. Reparenting to the location's own
// descendant would break the tree and is rejected.
type UpdateLocationCommand struct {
	LocationID          string `json:"location_id" validate:"required"`
	ParentID            string `json:"parent_id"`
	Name                string `json:"name" validate:"required"`
	Type                string `json:"type"`
	Sealed              bool   `json:"sealed"`
	SealID              string `json:"seal_id"`
	CheckFrequencyHours int    `json:"check_frequency_hours" validate:"min=0"`
}

func (e *Engine) UpdateLocation(ctx context.Context, actor Actor, cmd UpdateLocationCommand) (*entity.Location, error) {
	if err := e.validate.Struct(cmd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	loc, ok := e.getLocation(cmd.LocationID)
	if !ok || loc.ServiceID != actor.ServiceID {
		return nil, ErrLocationNotFound
	}
	if cmd.Sealed && cmd.SealID == "" {
		return nil, invalidf("a sealed location needs a seal id")
	}
	if cmd.ParentID != "" {
		if cmd.ParentID == loc.ID || e.isDescendant(actor.ServiceID, loc.ID, cmd.ParentID) {
			return nil, invalidf("cannot move a location beneath its own descendant")
		}
		parent, ok := e.getLocation(cmd.ParentID)
		if !ok || !parent.IsActive || parent.ServiceID != actor.ServiceID {
			return nil, ErrLocationNotFound
		}
	}

	updated := *loc
	updated.ParentID = cmd.ParentID
	updated.Name = cmd.Name
	updated.Type = cmd.Type
	updated.Sealed = cmd.Sealed
	updated.SealID = cmd.SealID
	updated.CheckFrequencyHours = cmd.CheckFrequencyHours

	mutations := []store.Mutation{
		{Collection: store.CollLocations, ID: loc.ID, Value: &updated},
	}
	if err := e.entities.Commit(ctx, nil, mutations); err != nil {
		return nil, err
	}

	if err := e.record(ctx, actor, audit.EventLocationUpdated, audit.EntityLocation, loc.ID, updated.Name); err != nil {
		return nil, err
	}
	return &updated, nil
}

// isDescendant reports whether candidate sits somewhere beneath ancestorID.
func (e *Engine) isDescendant(serviceID, ancestorID, candidateID string) bool {
	seen := map[string]bool{}
	current := candidateID
	for current != "" && !seen[current] {
		seen[current] = true
		loc, ok := e.getLocation(current)
		if !ok || loc.ServiceID != serviceID {
			return false
		}
		if loc.ParentID == ancestorID {
			return true
		}
		current = loc.ParentID
	}
	return false
}

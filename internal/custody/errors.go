package custody

import (
	"errors"
	"fmt"
)

// Error categories. Callers branch on these with errors.Is: validation means
// fix the input, precondition means the entity is in the wrong state, conflict
// means the state moved between lookup and commit (refresh and retry), and
// persistence means a store write failed after the command was accepted.
var (
	ErrInvalidInput = errors.New("invalid input")
	ErrPrecondition = errors.New("precondition not met")
	ErrConflict     = errors.New("conflicting concurrent update")
	ErrPersistence  = errors.New("persistence failure")
)

// Specific reasons, each wrapping its category.
var (
	ErrItemNotFound       = fmt.Errorf("%w: no active item with that code", ErrPrecondition)
	ErrNotInStock         = fmt.Errorf("%w: item is not in stock", ErrPrecondition)
	ErrNotControlled      = fmt.Errorf("%w: catalog entry is not a controlled substance", ErrPrecondition)
	ErrItemInactive       = fmt.Errorf("%w: item is deactivated", ErrPrecondition)
	ErrNotCorrectable     = fmt.Errorf("%w: only administered or wasted items can be corrected", ErrPrecondition)
	ErrWitnessRequired    = fmt.Errorf("%w: a verified witness is required", ErrPrecondition)
	ErrSameLocation       = fmt.Errorf("%w: destination equals current location", ErrPrecondition)
	ErrLocationNotFound   = fmt.Errorf("%w: location does not exist", ErrPrecondition)
	ErrNotExpiring        = fmt.Errorf("%w: item lot is not expiring or expired", ErrPrecondition)
	ErrNoLot              = fmt.Errorf("%w: item has no medication lot", ErrPrecondition)
	ErrNothingToCheck     = fmt.Errorf("%w: location has no in-stock items to check", ErrPrecondition)
	ErrUnverifiedLines    = fmt.Errorf("%w: every item must be verified before completing the check", ErrPrecondition)
	ErrSealMismatch       = fmt.Errorf("%w: entered seal does not match the location seal", ErrPrecondition)
	ErrOrderNotFound      = fmt.Errorf("%w: order does not exist", ErrPrecondition)
	ErrOrderNotReceivable = fmt.Errorf("%w: order cannot be received in its current status", ErrPrecondition)
	ErrCaseNotFound       = fmt.Errorf("%w: discrepancy case does not exist", ErrPrecondition)
	ErrCaseResolved       = fmt.Errorf("%w: a resolved case cannot change", ErrPrecondition)
	ErrIncidentNotFound   = fmt.Errorf("%w: incident does not exist", ErrPrecondition)
	ErrIncidentClosed     = fmt.Errorf("%w: incident is closed", ErrPrecondition)
)

// invalidf builds a validation error with a specific reason.
func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// Package compliance derives tri-state freshness indicators from elapsed time
// against a threshold. Every function takes the current time as a parameter so
// results are deterministic under test.
package compliance

import "time"

type Status string

const (
	StatusOK      Status = "OK"
	StatusDueSoon Status = "DueSoon"
	StatusOverdue Status = "Overdue"
)

// dueSoonFraction of the check frequency marks the warning band.
const dueSoonFraction = 0.75

// expirationWarningDays before expiry an item counts as due soon.
const expirationWarningDays = 30

// rank orders statuses by severity for aggregation.
func (s Status) rank() int {
	switch s {
	case StatusOverdue:
		return 2
	case StatusDueSoon:
		return 1
	default:
		return 0
	}
}

// Worst returns the more severe of two statuses.
func Worst(a, b Status) Status {
	if b.rank() > a.rank() {
		return b
	}
	return a
}

// CheckStatus evaluates how overdue a location check is. Overdue once the
// elapsed time reaches the full frequency, DueSoon at three quarters of it.
func CheckStatus(lastCheckedAt time.Time, checkFrequencyHours int, now time.Time) Status {
	elapsed := now.Sub(lastCheckedAt).Hours()
	threshold := float64(checkFrequencyHours)

	if elapsed >= threshold {
		return StatusOverdue
	}
	if elapsed >= threshold*dueSoonFraction {
		return StatusDueSoon
	}
	return StatusOK
}

// ExpirationStatus evaluates lot expiry. Overdue at or past the expiration
// date, DueSoon within 30 days of it.
func ExpirationStatus(expirationDate, now time.Time) Status {
	daysUntil := expirationDate.Sub(now).Hours() / 24

	if daysUntil <= 0 {
		return StatusOverdue
	}
	if daysUntil <= expirationWarningDays {
		return StatusDueSoon
	}
	return StatusOK
}

// Aggregate returns the worst status in the set, or OK for an empty set.
func Aggregate(statuses []Status) Status {
	agg := StatusOK
	for _, s := range statuses {
		agg = Worst(agg, s)
	}
	return agg
}

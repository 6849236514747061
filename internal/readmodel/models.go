// Package readmodel holds the projections the reporting side serves. They are
// rebuilt from the audit topic and are always safe to throw away.
package readmodel

import "time"

// Read model collection names.
const (
	CollActivityFeeds       = "activity_feeds"
	CollComplianceSummaries = "compliance_summaries"
	CollEventCounters       = "event_counters"
)

// activityFeedCap bounds the per-service feed.
const activityFeedCap = 100

// ActivityEntry is one audit event as shown in the activity feed.
type ActivityEntry struct {
	EventID    string    `json:"event_id"`
	UserID     string    `json:"user_id"`
	EventType  string    `json:"event_type"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	Details    string    `json:"details"`
	Timestamp  time.Time `json:"timestamp"`
}

// ActivityFeed is the newest-first audit tail for one service.
type ActivityFeed struct {
	ServiceID string          `json:"service_id"`
	Entries   []ActivityEntry `json:"entries"`
}

// Prepend inserts the newest entry and trims the feed to its cap.
func (f *ActivityFeed) Prepend(entry ActivityEntry) {
	f.Entries = append([]ActivityEntry{entry}, f.Entries...)
	if len(f.Entries) > activityFeedCap {
		f.Entries = f.Entries[:activityFeedCap]
	}
}

// ComplianceSummary is a running tally of a service's compliance-relevant
// activity, derived entirely from audit events.
type ComplianceSummary struct {
	ServiceID          string    `json:"service_id"`
	ChecksCompleted    int       `json:"checks_completed"`
	SealsVerified      int       `json:"seals_verified"`
	ItemsVerified      int       `json:"items_verified"`
	Administrations    int       `json:"administrations"`
	Wastes             int       `json:"wastes"`
	WastesWitnessed    int       `json:"wastes_witnessed"`
	Corrections        int       `json:"corrections"`
	DiscrepanciesOpen  int       `json:"discrepancies_open"`
	DiscrepanciesTotal int       `json:"discrepancies_total"`
	LastActivityAt     time.Time `json:"last_activity_at"`
}

// EventCounters tallies raw event types for one service.
type EventCounters struct {
	ServiceID string         `json:"service_id"`
	Counts    map[string]int `json:"counts"`
}

package entities

import "time"

// SearchRecord is one entry in a user's search history. Records expire via
// TTL after the retention window.
type SearchRecord struct {
	ID          string
	UserID      string
	Query       string
	Platform    string
	ProblemID   string
	ResultCount int
	CreatedAt   time.Time
}

// UsageRecord is one logged billable action, used to enforce per-plan daily
// limits. Records expire via TTL a day after creation.
type UsageRecord struct {
	UserID    string
	Action    string
	CreatedAt time.Time
}

// Usage actions tracked against plan limits.
const (
	UsageActionExecution  = "execution"
	UsageActionExtraction = "extraction"
)

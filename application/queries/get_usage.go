package queries

import "errors"

// GetUsageQuery reports the caller's usage against their plan limits over
// the last 24 hours.
type GetUsageQuery struct {
	UserID string
}

// Validate validates the query.
func (q GetUsageQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user id is required")
	}
	return nil
}

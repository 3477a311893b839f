package queries

import "errors"

// ListSearchHistoryQuery lists the caller's recorded searches.
type ListSearchHistoryQuery struct {
	UserID string
	Limit  int
	Cursor string
}

// Validate validates the query.
func (q ListSearchHistoryQuery) Validate() error {
	if q.UserID == "" {
		return errors.New("user id is required")
	}
	return nil
}

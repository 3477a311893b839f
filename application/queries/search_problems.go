package queries

// SearchProblemsQuery lists problems with optional platform, title, and
// review-state filters. Searches by a signed-in user are recorded in their
// history.
type SearchProblemsQuery struct {
	Platform    string
	Query       string
	NeedsReview *bool
	Limit       int
	Cursor      string

	// UserID, when set, attributes the search to a user's history.
	UserID string
}

// Validate validates the query. All fields are optional.
func (q SearchProblemsQuery) Validate() error {
	return nil
}

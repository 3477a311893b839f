// Package queries defines the read-side operations of the application.
package queries

import "errors"

// GetProblemQuery fetches one problem, optionally with its test cases.
type GetProblemQuery struct {
	Platform         string
	ProblemID        string
	IncludeTestCases bool
}

// Validate validates the query.
func (q GetProblemQuery) Validate() error {
	if q.Platform == "" {
		return errors.New("platform is required")
	}
	if q.ProblemID == "" {
		return errors.New("problem id is required")
	}
	return nil
}

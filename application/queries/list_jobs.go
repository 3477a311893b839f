package queries

import (
	"errors"

	"algoitny-backend/domain/entities"
)

// ListJobsQuery lists jobs by owner or by status.
type ListJobsQuery struct {
	UserID string
	Status entities.JobStatus
	Kind   entities.JobKind
	Limit  int
	Cursor string
}

// Validate validates the query.
func (q ListJobsQuery) Validate() error {
	if q.UserID == "" && q.Status == "" {
		return errors.New("a user or status filter is required")
	}
	if q.Status != "" && !q.Status.IsValid() {
		return errors.New("unknown job status")
	}
	if q.Kind != "" && q.Kind != entities.JobKindScriptGeneration && q.Kind != entities.JobKindProblemExtraction {
		return errors.New("unknown job kind")
	}
	return nil
}

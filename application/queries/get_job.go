package queries

import (
	"errors"

	"algoitny-backend/domain/entities"
)

// GetJobQuery fetches one job.
type GetJobQuery struct {
	Kind  entities.JobKind
	JobID string
}

// Validate validates the query.
func (q GetJobQuery) Validate() error {
	if q.JobID == "" {
		return errors.New("job id is required")
	}
	if q.Kind != entities.JobKindScriptGeneration && q.Kind != entities.JobKindProblemExtraction {
		return errors.New("unknown job kind")
	}
	return nil
}

// GetJobProgressQuery fetches a job's progress trail.
type GetJobProgressQuery struct {
	Kind  entities.JobKind
	JobID string
}

// Validate validates the query.
func (q GetJobProgressQuery) Validate() error {
	if q.JobID == "" {
		return errors.New("job id is required")
	}
	if q.Kind != entities.JobKindScriptGeneration && q.Kind != entities.JobKindProblemExtraction {
		return errors.New("unknown job kind")
	}
	return nil
}

package commands

import (
	"errors"

	"algoitny-backend/domain/entities"
)

// RetryJobCommand requeues a failed job.
type RetryJobCommand struct {
	Kind    entities.JobKind `json:"-"`
	JobID   string           `json:"-"`
	UserID  string           `json:"-"`
	IsAdmin bool             `json:"-"`
}

// Validate validates the command.
func (cmd RetryJobCommand) Validate() error {
	if cmd.JobID == "" {
		return errors.New("job id is required")
	}
	if cmd.Kind != entities.JobKindScriptGeneration && cmd.Kind != entities.JobKindProblemExtraction {
		return errors.New("unknown job kind")
	}
	if cmd.UserID == "" {
		return errors.New("user id is required")
	}
	return nil
}

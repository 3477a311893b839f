package commands

import (
	"errors"

	"algoitny-backend/domain/entities"
)

// CancelJobCommand cancels a pending or processing job. Only the job's
// owner or an admin may cancel; the handler checks ownership.
type CancelJobCommand struct {
	Kind    entities.JobKind `json:"-"`
	JobID   string           `json:"-"`
	UserID  string           `json:"-"`
	IsAdmin bool             `json:"-"`
}

// Validate validates the command.
func (cmd CancelJobCommand) Validate() error {
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

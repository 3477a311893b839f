package commands

import "errors"

// DeleteProblemCommand removes a problem and its test cases. Admin only;
// the HTTP layer enforces the role before the command is sent.
type DeleteProblemCommand struct {
	Platform  string `json:"platform"`
	ProblemID string `json:"problem_id"`
}

// Validate validates the command.
func (cmd DeleteProblemCommand) Validate() error {
	if cmd.Platform == "" {
		return errors.New("platform is required")
	}
	if cmd.ProblemID == "" {
		return errors.New("problem id is required")
	}
	return nil
}

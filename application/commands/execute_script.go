package commands

import "errors"

// ExecuteScriptCommand enqueues a script-generation job for a problem. The
// handler enforces the caller's daily execution allowance.
type ExecuteScriptCommand struct {
	UserID      string   `json:"-"`
	Platform    string   `json:"platform"`
	ProblemID   string   `json:"problem_id"`
	Title       string   `json:"title"`
	Language    string   `json:"language"`
	Constraints string   `json:"constraints"`
	Tags        []string `json:"tags"`
}

// Validate validates the command.
func (cmd ExecuteScriptCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user id is required")
	}
	if cmd.Platform == "" {
		return errors.New("platform is required")
	}
	if cmd.ProblemID == "" {
		return errors.New("problem id is required")
	}
	if cmd.Language == "" {
		return errors.New("language is required")
	}
	return nil
}

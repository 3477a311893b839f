// Package commands defines the write-side operations of the application.
// Each command carries its own validation; handlers live in the handlers
// subpackage.
package commands

import "errors"

// RegisterProblemCommand registers a problem so test cases and generator
// scripts can be attached to it.
type RegisterProblemCommand struct {
	Platform     string   `json:"platform"`
	ProblemID    string   `json:"problem_id"`
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	Tags         []string `json:"tags"`
	Language     string   `json:"language"`
	Constraints  string   `json:"constraints"`
	SolutionCode string   `json:"solution_code"`
}

const maxTitleLength = 500

// Validate validates the command.
func (cmd RegisterProblemCommand) Validate() error {
	if cmd.Platform == "" {
		return errors.New("platform is required")
	}
	if cmd.ProblemID == "" {
		return errors.New("problem id is required")
	}
	if cmd.Title == "" {
		return errors.New("title is required")
	}
	if len(cmd.Title) > maxTitleLength {
		return errors.New("title exceeds maximum length")
	}
	return nil
}

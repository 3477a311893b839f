package commands

import "errors"

// TestCaseInput is one input/output pair submitted with SaveTestCases.
type TestCaseInput struct {
	Input  string `json:"input"`
	Output string `json:"output"`
}

// SaveTestCasesCommand replaces a problem's test-case suite. Marking the
// command complete moves the problem out of review.
type SaveTestCasesCommand struct {
	Platform  string          `json:"platform"`
	ProblemID string          `json:"problem_id"`
	TestCases []TestCaseInput `json:"test_cases"`
	Complete  bool            `json:"complete"`
}

// Validate validates the command. Per-case size limits are enforced by the
// domain validator inside the handler.
func (cmd SaveTestCasesCommand) Validate() error {
	if cmd.Platform == "" {
		return errors.New("platform is required")
	}
	if cmd.ProblemID == "" {
		return errors.New("problem id is required")
	}
	if len(cmd.TestCases) == 0 {
		return errors.New("at least one test case is required")
	}
	return nil
}

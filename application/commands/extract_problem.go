package commands

import (
	"errors"
	"net/url"
	"strings"
)

// ExtractProblemCommand enqueues a problem-extraction job for a judge URL.
// Concurrent requests for the same URL are deduplicated with a lock.
type ExtractProblemCommand struct {
	UserID     string `json:"-"`
	ProblemURL string `json:"problem_url"`
}

// Validate validates the command.
func (cmd ExtractProblemCommand) Validate() error {
	if cmd.UserID == "" {
		return errors.New("user id is required")
	}
	if strings.TrimSpace(cmd.ProblemURL) == "" {
		return errors.New("problem url is required")
	}
	u, err := url.Parse(cmd.ProblemURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("problem url must be a valid http(s) URL")
	}
	return nil
}

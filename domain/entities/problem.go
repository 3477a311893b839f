package entities

import (
	"fmt"
	"strings"
	"time"

	"algoitny-backend/domain/valueobjects"
)

// TestCase is a single input/output pair attached to a problem. Test cases
// are stored one item each so a large suite never pushes the problem item
// past the storage engine's item-size limit.
type TestCase struct {
	Index  int
	Input  string
	Output string
}

// Problem is a registered competitive-programming problem together with the
// metadata needed to generate and run test cases against it.
type Problem struct {
	Key           valueobjects.ProblemKey
	Title         string
	URL           string
	Tags          []string
	Language      string
	Constraints   string
	SolutionCode  string
	NeedsReview   bool
	TestCaseCount int
	CompletedAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewProblem creates a problem in the needs-review state. A problem leaves
// review once it has a solution and at least one verified test case.
func NewProblem(key valueobjects.ProblemKey, title, url string) (*Problem, error) {
	if key.IsZero() {
		return nil, fmt.Errorf("problem key is required")
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required")
	}

	now := time.Now().UTC()
	return &Problem{
		Key:         key,
		Title:       title,
		URL:         url,
		NeedsReview: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Complete marks the problem reviewed and records the completion time.
func (p *Problem) Complete() {
	now := time.Now().UTC()
	p.NeedsReview = false
	p.CompletedAt = &now
	p.UpdatedAt = now
}

// IsCompleted reports whether the problem has passed review.
func (p *Problem) IsCompleted() bool {
	return !p.NeedsReview && p.CompletedAt != nil
}

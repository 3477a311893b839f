package validators

import (
	"fmt"

	"algoitny-backend/domain/entities"
)

// DynamoDB rejects items larger than 400 KB. A test-case item carries the
// input and output strings plus key and bookkeeping attributes, so the
// payload budget leaves headroom for attribute names and metadata.
const (
	maxItemSizeBytes     = 400 * 1024
	itemOverheadBytes    = 2 * 1024
	MaxTestCasePayload   = maxItemSizeBytes - itemOverheadBytes
	MaxTestCasesPerSuite = 100
)

// TestCaseValidator enforces the storage-level constraints on test cases
// before anything is written.
type TestCaseValidator struct {
	maxPayload int
	maxCount   int
}

// NewTestCaseValidator creates a validator with the default limits.
func NewTestCaseValidator() *TestCaseValidator {
	return &TestCaseValidator{
		maxPayload: MaxTestCasePayload,
		maxCount:   MaxTestCasesPerSuite,
	}
}

// ValidateOne checks a single test case against the item-size budget.
func (v *TestCaseValidator) ValidateOne(tc entities.TestCase) error {
	if tc.Input == "" {
		return fmt.Errorf("test case %d: input is required", tc.Index)
	}
	size := len(tc.Input) + len(tc.Output)
	if size > v.maxPayload {
		return fmt.Errorf("test case %d: payload %d bytes exceeds the %d byte item limit", tc.Index, size, v.maxPayload)
	}
	return nil
}

// ValidateSuite checks a full replacement suite: per-item size, suite
// cardinality, and index uniqueness.
func (v *TestCaseValidator) ValidateSuite(cases []entities.TestCase) error {
	if len(cases) == 0 {
		return fmt.Errorf("at least one test case is required")
	}
	if len(cases) > v.maxCount {
		return fmt.Errorf("suite has %d test cases, maximum is %d", len(cases), v.maxCount)
	}

	seen := make(map[int]struct{}, len(cases))
	for _, tc := range cases {
		if err := v.ValidateOne(tc); err != nil {
			return err
		}
		if _, dup := seen[tc.Index]; dup {
			return fmt.Errorf("duplicate test case index %d", tc.Index)
		}
		seen[tc.Index] = struct{}{}
	}
	return nil
}

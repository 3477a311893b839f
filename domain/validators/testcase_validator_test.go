package validators

import (
	"strings"
	"testing"

	"algoitny-backend/domain/entities"

	"github.com/stretchr/testify/assert"
)

func TestTestCaseValidator_ValidateOne(t *testing.T) {
	v := NewTestCaseValidator()

	assert.NoError(t, v.ValidateOne(entities.TestCase{Index: 0, Input: "1 2", Output: "3"}))
	assert.Error(t, v.ValidateOne(entities.TestCase{Index: 0, Input: "", Output: "3"}))

	oversized := strings.Repeat("x", MaxTestCasePayload+1)
	assert.Error(t, v.ValidateOne(entities.TestCase{Index: 0, Input: oversized}))

	// Input and output share one budget.
	half := strings.Repeat("x", MaxTestCasePayload/2+1)
	assert.Error(t, v.ValidateOne(entities.TestCase{Index: 0, Input: half, Output: half}))
}

func TestTestCaseValidator_ValidateSuite(t *testing.T) {
	v := NewTestCaseValidator()

	assert.Error(t, v.ValidateSuite(nil))

	suite := make([]entities.TestCase, MaxTestCasesPerSuite+1)
	for i := range suite {
		suite[i] = entities.TestCase{Index: i, Input: "1"}
	}
	assert.Error(t, v.ValidateSuite(suite))

	assert.NoError(t, v.ValidateSuite([]entities.TestCase{
		{Index: 0, Input: "1 2", Output: "3"},
		{Index: 1, Input: "4 5", Output: "9"},
	}))

	assert.Error(t, v.ValidateSuite([]entities.TestCase{
		{Index: 0, Input: "1 2"},
		{Index: 0, Input: "4 5"},
	}))
}

package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProblemKey(t *testing.T) {
	tests := []struct {
		name      string
		platform  string
		problemID string
		wantErr   bool
	}{
		{"valid baekjoon", "baekjoon", "1000", false},
		{"valid codeforces", "codeforces", "1842B", false},
		{"normalizes case and whitespace", "  Baekjoon ", " 1000 ", false},
		{"empty platform", "", "1000", true},
		{"unknown platform", "topcoder", "1000", true},
		{"empty problem id", "baekjoon", "", true},
		{"problem id with separator", "baekjoon", "10#00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, err := NewProblemKey(tt.platform, tt.problemID)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, key.IsZero())
				return
			}
			require.NoError(t, err)
			assert.False(t, key.IsZero())
		})
	}
}

func TestProblemKey_Accessors(t *testing.T) {
	key, err := NewProblemKey("Codeforces", "1842B")
	require.NoError(t, err)

	assert.Equal(t, "codeforces", key.Platform())
	assert.Equal(t, "1842B", key.ProblemID())
	assert.Equal(t, "codeforces/1842B", key.String())
}

func TestProblemKey_Zero(t *testing.T) {
	var key ProblemKey
	assert.True(t, key.IsZero())
}

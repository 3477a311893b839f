package valueobjects

import (
	"fmt"
	"strings"
)

// Platforms the service knows how to ingest problems from.
const (
	PlatformBaekjoon    = "baekjoon"
	PlatformCodeforces  = "codeforces"
	PlatformLeetcode    = "leetcode"
	PlatformAtcoder     = "atcoder"
	PlatformProgrammers = "programmers"
)

var knownPlatforms = map[string]struct{}{
	PlatformBaekjoon:    {},
	PlatformCodeforces:  {},
	PlatformLeetcode:    {},
	PlatformAtcoder:     {},
	PlatformProgrammers: {},
}

// ProblemKey identifies a problem by judge platform and the platform's own
// problem identifier. It is the natural key of every problem item.
type ProblemKey struct {
	platform  string
	problemID string
}

// NewProblemKey validates and constructs a ProblemKey.
func NewProblemKey(platform, problemID string) (ProblemKey, error) {
	platform = strings.ToLower(strings.TrimSpace(platform))
	problemID = strings.TrimSpace(problemID)

	if platform == "" {
		return ProblemKey{}, fmt.Errorf("platform is required")
	}
	if _, ok := knownPlatforms[platform]; !ok {
		return ProblemKey{}, fmt.Errorf("unknown platform: %s", platform)
	}
	if problemID == "" {
		return ProblemKey{}, fmt.Errorf("problem id is required")
	}
	if strings.Contains(problemID, "#") {
		return ProblemKey{}, fmt.Errorf("problem id must not contain '#'")
	}

	return ProblemKey{platform: platform, problemID: problemID}, nil
}

// Platform returns the judge platform component.
func (k ProblemKey) Platform() string { return k.platform }

// ProblemID returns the platform-local problem identifier.
func (k ProblemKey) ProblemID() string { return k.problemID }

// String renders the key as "platform/problemID".
func (k ProblemKey) String() string {
	return k.platform + "/" + k.problemID
}

// IsZero reports whether the key is unset.
func (k ProblemKey) IsZero() bool {
	return k.platform == "" && k.problemID == ""
}

// Package handlers implements the REST endpoints. Handlers translate HTTP
// into commands and queries; all business logic lives behind the buses.
package handlers

import (
	"time"

	"algoitny-backend/domain/entities"
)

// problemResponse is the wire shape of a problem.
type problemResponse struct {
	Platform      string     `json:"platform"`
	ProblemID     string     `json:"problem_id"`
	Title         string     `json:"title"`
	URL           string     `json:"url,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Language      string     `json:"language,omitempty"`
	Constraints   string     `json:"constraints,omitempty"`
	NeedsReview   bool       `json:"needs_review"`
	TestCaseCount int        `json:"test_case_count"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

func toProblemResponse(p *entities.Problem) problemResponse {
	return problemResponse{
		Platform:      p.Key.Platform(),
		ProblemID:     p.Key.ProblemID(),
		Title:         p.Title,
		URL:           p.URL,
		Tags:          p.Tags,
		Language:      p.Language,
		Constraints:   p.Constraints,
		NeedsReview:   p.NeedsReview,
		TestCaseCount: p.TestCaseCount,
		CompletedAt:   p.CompletedAt,
		CreatedAt:     p.CreatedAt,
	}
}

func toProblemResponses(problems []*entities.Problem) []problemResponse {
	out := make([]problemResponse, len(problems))
	for i, p := range problems {
		out[i] = toProblemResponse(p)
	}
	return out
}

// testCaseResponse is the wire shape of a test case.
type testCaseResponse struct {
	Index  int    `json:"index"`
	Input  string `json:"input"`
	Output string `json:"output"`
}

func toTestCaseResponses(cases []entities.TestCase) []testCaseResponse {
	out := make([]testCaseResponse, len(cases))
	for i, tc := range cases {
		out[i] = testCaseResponse{Index: tc.Index, Input: tc.Input, Output: tc.Output}
	}
	return out
}

// jobResponse is the wire shape of a job.
type jobResponse struct {
	ID            string    `json:"id"`
	Kind          string    `json:"kind"`
	Platform      string    `json:"platform,omitempty"`
	ProblemID     string    `json:"problem_id,omitempty"`
	Title         string    `json:"title,omitempty"`
	Language      string    `json:"language,omitempty"`
	ProblemURL    string    `json:"problem_url,omitempty"`
	Status        string    `json:"status"`
	GeneratorCode string    `json:"generator_code,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	Attempts      int       `json:"attempts"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toJobResponse(j *entities.Job) jobResponse {
	resp := jobResponse{
		ID:            j.ID,
		Kind:          string(j.Kind),
		Title:         j.Title,
		Language:      j.Language,
		ProblemURL:    j.ProblemURL,
		Status:        string(j.Status),
		GeneratorCode: j.GeneratorCode,
		ErrorMessage:  j.ErrorMessage,
		Attempts:      j.Attempts,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
	}
	if !j.ProblemKey.IsZero() {
		resp.Platform = j.ProblemKey.Platform()
		resp.ProblemID = j.ProblemKey.ProblemID()
	}
	return resp
}

func toJobResponses(jobs []*entities.Job) []jobResponse {
	out := make([]jobResponse, len(jobs))
	for i, j := range jobs {
		out[i] = toJobResponse(j)
	}
	return out
}

// progressResponse is the wire shape of one progress entry.
type progressResponse struct {
	Seq       int       `json:"seq"`
	Step      string    `json:"step"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

func toProgressResponses(entries []entities.ProgressEntry) []progressResponse {
	out := make([]progressResponse, len(entries))
	for i, e := range entries {
		out[i] = progressResponse{Seq: e.Seq, Step: e.Step, Message: e.Message, CreatedAt: e.CreatedAt}
	}
	return out
}

// historyResponse is the wire shape of one search record.
type historyResponse struct {
	ID          string    `json:"id"`
	Query       string    `json:"query"`
	Platform    string    `json:"platform,omitempty"`
	ProblemID   string    `json:"problem_id,omitempty"`
	ResultCount int       `json:"result_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func toHistoryResponses(records []entities.SearchRecord) []historyResponse {
	out := make([]historyResponse, len(records))
	for i, r := range records {
		out[i] = historyResponse{
			ID:          r.ID,
			Query:       r.Query,
			Platform:    r.Platform,
			ProblemID:   r.ProblemID,
			ResultCount: r.ResultCount,
			CreatedAt:   r.CreatedAt,
		}
	}
	return out
}

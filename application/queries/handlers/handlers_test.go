package handlers

import (
	"context"
	"testing"
	"time"

	"algoitny-backend/application/ports"
	"algoitny-backend/application/queries"
	"algoitny-backend/domain/entities"
	"algoitny-backend/domain/valueobjects"
	apperrors "algoitny-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubProblemRepo struct {
	problem *entities.Problem
	cases   []entities.TestCase
	listed  []*entities.Problem
}

func (s *stubProblemRepo) Save(context.Context, *entities.Problem) error { return nil }

func (s *stubProblemRepo) GetByKey(_ context.Context, key valueobjects.ProblemKey) (*entities.Problem, error) {
	if s.problem == nil || s.problem.Key.String() != key.String() {
		return nil, apperrors.NewNotFoundError("problem")
	}
	return s.problem, nil
}

func (s *stubProblemRepo) List(context.Context, ports.ProblemFilter) ([]*entities.Problem, string, error) {
	return s.listed, "next-token", nil
}

func (s *stubProblemRepo) Delete(context.Context, valueobjects.ProblemKey) error { return nil }

func (s *stubProblemRepo) ReplaceTestCases(context.Context, valueobjects.ProblemKey, []entities.TestCase) error {
	return nil
}

func (s *stubProblemRepo) GetTestCases(context.Context, valueobjects.ProblemKey) ([]entities.TestCase, error) {
	return s.cases, nil
}

type stubHistoryRepo struct {
	appended []entities.SearchRecord
	records  []entities.SearchRecord
}

func (s *stubHistoryRepo) Append(_ context.Context, record entities.SearchRecord) error {
	s.appended = append(s.appended, record)
	return nil
}

func (s *stubHistoryRepo) ListByUser(context.Context, string, int, string) ([]entities.SearchRecord, string, error) {
	return s.records, "", nil
}

type stubJobRepo struct {
	job *entities.Job
}

func (s *stubJobRepo) Create(context.Context, *entities.Job) error { return nil }

func (s *stubJobRepo) Get(_ context.Context, _ entities.JobKind, jobID string) (*entities.Job, error) {
	if s.job == nil || s.job.ID != jobID {
		return nil, apperrors.NewNotFoundError("job")
	}
	return s.job, nil
}

func (s *stubJobRepo) List(context.Context, ports.JobFilter) ([]*entities.Job, string, error) {
	if s.job == nil {
		return nil, "", nil
	}
	return []*entities.Job{s.job}, "", nil
}

func (s *stubJobRepo) Claim(context.Context, entities.JobKind, string, string) (*entities.Job, error) {
	return nil, apperrors.NewConflictError("not used")
}

func (s *stubJobRepo) UpdateStatus(context.Context, *entities.Job) error { return nil }

func (s *stubJobRepo) RequeueStale(context.Context, time.Time) (int, error) { return 0, nil }

type stubProgressRepo struct {
	entries []entities.ProgressEntry
}

func (s *stubProgressRepo) Append(context.Context, entities.JobKind, entities.ProgressEntry) error {
	return nil
}

func (s *stubProgressRepo) List(context.Context, entities.JobKind, string) ([]entities.ProgressEntry, error) {
	return s.entries, nil
}

type stubUserRepo struct {
	user *entities.User
}

func (s *stubUserRepo) Save(context.Context, *entities.User) error { return nil }

func (s *stubUserRepo) GetByID(_ context.Context, userID string) (*entities.User, error) {
	if s.user == nil || s.user.ID != userID {
		return nil, apperrors.NewNotFoundError("user")
	}
	return s.user, nil
}

func (s *stubUserRepo) GetByEmail(context.Context, string) (*entities.User, error) {
	return nil, apperrors.NewNotFoundError("user")
}

type stubUsageRepo struct {
	counts map[string]int
}

func (s *stubUsageRepo) Record(context.Context, string, string) error { return nil }

func (s *stubUsageRepo) CountSince(_ context.Context, _, action string, _ time.Time) (int, error) {
	return s.counts[action], nil
}

func storedProblem(t *testing.T) *entities.Problem {
	t.Helper()
	key, err := valueobjects.NewProblemKey("baekjoon", "1000")
	require.NoError(t, err)
	problem, err := entities.NewProblem(key, "A+B", "")
	require.NoError(t, err)
	return problem
}

func TestGetProblemHandler(t *testing.T) {
	problem := storedProblem(t)
	repo := &stubProblemRepo{
		problem: problem,
		cases:   []entities.TestCase{{Index: 0, Input: "1 2", Output: "3"}},
	}
	handler := NewGetProblemHandler(repo)

	result, err := handler.Handle(context.Background(), queries.GetProblemQuery{
		Platform:  "baekjoon",
		ProblemID: "1000",
	})
	require.NoError(t, err)

	pt := result.(*ProblemWithTestCases)
	assert.Equal(t, problem, pt.Problem)
	assert.Nil(t, pt.TestCases)

	result, err = handler.Handle(context.Background(), queries.GetProblemQuery{
		Platform:         "baekjoon",
		ProblemID:        "1000",
		IncludeTestCases: true,
	})
	require.NoError(t, err)
	assert.Len(t, result.(*ProblemWithTestCases).TestCases, 1)
}

func TestGetProblemHandler_NotFound(t *testing.T) {
	handler := NewGetProblemHandler(&stubProblemRepo{})

	_, err := handler.Handle(context.Background(), queries.GetProblemQuery{
		Platform:  "baekjoon",
		ProblemID: "9999",
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSearchProblemsHandler_RecordsHistory(t *testing.T) {
	problem := storedProblem(t)
	history := &stubHistoryRepo{}
	handler := NewSearchProblemsHandler(&stubProblemRepo{listed: []*entities.Problem{problem}}, history, zap.NewNop())

	result, err := handler.Handle(context.Background(), queries.SearchProblemsQuery{
		Query:  "A+B",
		UserID: "user-1",
	})
	require.NoError(t, err)

	page := result.(*ProblemPage)
	assert.Len(t, page.Problems, 1)
	assert.Equal(t, "next-token", page.NextCursor)

	require.Len(t, history.appended, 1)
	assert.Equal(t, "A+B", history.appended[0].Query)
	assert.Equal(t, 1, history.appended[0].ResultCount)
}

func TestSearchProblemsHandler_AnonymousOrBrowseSkipsHistory(t *testing.T) {
	history := &stubHistoryRepo{}
	handler := NewSearchProblemsHandler(&stubProblemRepo{}, history, zap.NewNop())

	// No user: nothing to attribute the search to.
	_, err := handler.Handle(context.Background(), queries.SearchProblemsQuery{Query: "A+B"})
	require.NoError(t, err)

	// No query string: plain browsing, not a search.
	_, err = handler.Handle(context.Background(), queries.SearchProblemsQuery{UserID: "user-1"})
	require.NoError(t, err)

	assert.Empty(t, history.appended)
}

func TestListJobsHandler(t *testing.T) {
	job, err := entities.NewProblemExtractionJob("user-1", "https://x")
	require.NoError(t, err)
	handler := NewListJobsHandler(&stubJobRepo{job: job})

	result, err := handler.Handle(context.Background(), queries.ListJobsQuery{UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, result.(*JobPage).Jobs, 1)
}

func TestGetJobProgressHandler(t *testing.T) {
	job, err := entities.NewProblemExtractionJob("user-1", "https://x")
	require.NoError(t, err)
	progress := &stubProgressRepo{entries: []entities.ProgressEntry{
		{JobID: job.ID, Seq: 1, Step: "fetch", Message: "fetching page"},
	}}
	handler := NewGetJobProgressHandler(&stubJobRepo{job: job}, progress)

	result, err := handler.Handle(context.Background(), queries.GetJobProgressQuery{
		Kind:  job.Kind,
		JobID: job.ID,
	})
	require.NoError(t, err)
	assert.Len(t, result.([]entities.ProgressEntry), 1)
}

func TestGetJobProgressHandler_MissingJob(t *testing.T) {
	handler := NewGetJobProgressHandler(&stubJobRepo{}, &stubProgressRepo{})

	_, err := handler.Handle(context.Background(), queries.GetJobProgressQuery{
		Kind:  entities.JobKindProblemExtraction,
		JobID: "ghost",
	})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestListSearchHistoryHandler(t *testing.T) {
	history := &stubHistoryRepo{records: []entities.SearchRecord{
		{ID: "r1", UserID: "user-1", Query: "graph"},
	}}
	handler := NewListSearchHistoryHandler(history)

	result, err := handler.Handle(context.Background(), queries.ListSearchHistoryQuery{UserID: "user-1"})
	require.NoError(t, err)
	assert.Len(t, result.(*HistoryPage).Records, 1)
}

func TestGetUsageHandler(t *testing.T) {
	user, err := entities.NewUser("alice@example.com", "Alice")
	require.NoError(t, err)
	usage := &stubUsageRepo{counts: map[string]int{
		entities.UsageActionExecution:  5,
		entities.UsageActionExtraction: 2,
	}}
	handler := NewGetUsageHandler(&stubUserRepo{user: user}, usage)

	result, err := handler.Handle(context.Background(), queries.GetUsageQuery{UserID: user.ID})
	require.NoError(t, err)

	report := result.(*UsageReport)
	assert.Equal(t, entities.PlanFree, report.Plan)
	assert.Equal(t, 20, report.Limit)
	assert.Equal(t, 5, report.Executions)
	assert.Equal(t, 2, report.Extractions)
	assert.Equal(t, 15, report.Remaining)
}

func TestGetUsageHandler_AdminUnlimited(t *testing.T) {
	user, err := entities.NewUser("root@example.com", "Root")
	require.NoError(t, err)
	user.IsAdmin = true
	usage := &stubUsageRepo{counts: map[string]int{entities.UsageActionExecution: 9999}}
	handler := NewGetUsageHandler(&stubUserRepo{user: user}, usage)

	result, err := handler.Handle(context.Background(), queries.GetUsageQuery{UserID: user.ID})
	require.NoError(t, err)

	report := result.(*UsageReport)
	assert.Equal(t, -1, report.Limit)
	assert.Equal(t, -1, report.Remaining)
}

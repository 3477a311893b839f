package worker

import (
	"context"
	"testing"
	"time"

	"algoitny-backend/application/ports"
	"algoitny-backend/domain/entities"
	"algoitny-backend/domain/events"
	"algoitny-backend/domain/valueobjects"
	apperrors "algoitny-backend/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeJobs struct {
	jobs map[string]*entities.Job

	claimConflicts map[string]bool
	updated        []string
	requeueCutoff  time.Time
	requeued       int
}

func newFakeJobs(jobs ...*entities.Job) *fakeJobs {
	f := &fakeJobs{
		jobs:           make(map[string]*entities.Job),
		claimConflicts: make(map[string]bool),
	}
	for _, j := range jobs {
		f.jobs[j.ID] = j
	}
	return f
}

func (f *fakeJobs) Create(_ context.Context, job *entities.Job) error {
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobs) Get(_ context.Context, _ entities.JobKind, jobID string) (*entities.Job, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, apperrors.NewNotFoundError("job")
	}
	return job, nil
}

func (f *fakeJobs) List(_ context.Context, filter ports.JobFilter) ([]*entities.Job, string, error) {
	var out []*entities.Job
	for _, job := range f.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		out = append(out, job)
	}
	return out, "", nil
}

func (f *fakeJobs) Claim(_ context.Context, _ entities.JobKind, jobID, workerID string) (*entities.Job, error) {
	if f.claimConflicts[jobID] {
		return nil, apperrors.NewConflictError("job already claimed")
	}
	job := f.jobs[jobID]
	if err := job.MarkProcessing(workerID); err != nil {
		return nil, apperrors.NewConflictError(err.Error())
	}
	return job, nil
}

func (f *fakeJobs) UpdateStatus(_ context.Context, job *entities.Job) error {
	f.updated = append(f.updated, job.ID)
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobs) RequeueStale(_ context.Context, cutoff time.Time) (int, error) {
	f.requeueCutoff = cutoff
	return f.requeued, nil
}

type fakeProgress struct {
	entries []entities.ProgressEntry
}

func (f *fakeProgress) Append(_ context.Context, _ entities.JobKind, entry entities.ProgressEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeProgress) List(_ context.Context, _ entities.JobKind, jobID string) ([]entities.ProgressEntry, error) {
	return f.entries, nil
}

func (f *fakeProgress) steps() []string {
	var out []string
	for _, e := range f.entries {
		out = append(out, e.Step)
	}
	return out
}

type fakeProblems struct {
	saved []*entities.Problem
}

func (f *fakeProblems) Save(_ context.Context, p *entities.Problem) error {
	f.saved = append(f.saved, p)
	return nil
}

func (f *fakeProblems) GetByKey(context.Context, valueobjects.ProblemKey) (*entities.Problem, error) {
	return nil, apperrors.NewNotFoundError("problem")
}

func (f *fakeProblems) List(context.Context, ports.ProblemFilter) ([]*entities.Problem, string, error) {
	return nil, "", nil
}

func (f *fakeProblems) Delete(context.Context, valueobjects.ProblemKey) error { return nil }

func (f *fakeProblems) ReplaceTestCases(context.Context, valueobjects.ProblemKey, []entities.TestCase) error {
	return nil
}

func (f *fakeProblems) GetTestCases(context.Context, valueobjects.ProblemKey) ([]entities.TestCase, error) {
	return nil, nil
}

type fakeLocker struct {
	released []string
}

func (f *fakeLocker) Acquire(context.Context, string, string, time.Duration) error { return nil }

func (f *fakeLocker) Release(_ context.Context, resource, _ string) error {
	f.released = append(f.released, resource)
	return nil
}

type fakeGenerator struct {
	code string
	err  error
}

func (f *fakeGenerator) Generate(_ context.Context, _ *entities.Job, progress func(step, message string)) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	progress("generate", "requesting generator script from model")
	return f.code, nil
}

type fakeExtractor struct {
	problem *entities.Problem
	err     error
}

func (f *fakeExtractor) Extract(_ context.Context, _ *entities.Job, progress func(step, message string)) (*entities.Problem, error) {
	if f.err != nil {
		return nil, f.err
	}
	progress("analyze", "extracting problem metadata")
	return f.problem, nil
}

type fakeEvents struct {
	published []string
}

func (f *fakeEvents) PublishJobEvent(_ context.Context, eventType string, _ *entities.Job) error {
	f.published = append(f.published, eventType)
	return nil
}

type processorDeps struct {
	jobs      *fakeJobs
	progress  *fakeProgress
	problems  *fakeProblems
	locker    *fakeLocker
	generator *fakeGenerator
	extractor *fakeExtractor
	publisher *fakeEvents
}

func newProcessor(deps processorDeps) *Processor {
	return NewProcessor(
		Config{
			WorkerID:      "worker-test",
			PollInterval:  time.Second,
			BatchSize:     10,
			StaleDeadline: 10 * time.Minute,
		},
		deps.jobs,
		deps.progress,
		deps.problems,
		deps.locker,
		deps.generator,
		deps.extractor,
		deps.publisher,
		nil,
		zap.NewNop(),
	)
}

func generationJob(t *testing.T) *entities.Job {
	t.Helper()
	key, err := valueobjects.NewProblemKey("baekjoon", "1000")
	require.NoError(t, err)
	job, err := entities.NewScriptGenerationJob("user-1", key, "A+B", "python", "", nil)
	require.NoError(t, err)
	return job
}

func TestProcessJob_GenerationCompletes(t *testing.T) {
	job := generationJob(t)
	require.NoError(t, job.MarkProcessing("worker-test"))

	deps := processorDeps{
		jobs:      newFakeJobs(job),
		progress:  &fakeProgress{},
		problems:  &fakeProblems{},
		locker:    &fakeLocker{},
		generator: &fakeGenerator{code: "print(1)"},
		extractor: &fakeExtractor{},
		publisher: &fakeEvents{},
	}
	p := newProcessor(deps)

	p.processJob(context.Background(), job)

	assert.Equal(t, entities.JobStatusCompleted, job.Status)
	assert.Equal(t, "print(1)", job.GeneratorCode)
	assert.Equal(t, []string{job.ID}, deps.jobs.updated)
	assert.Equal(t, []string{events.JobCompleted}, deps.publisher.published)
	assert.Equal(t, []string{"claim", "generate", "complete"}, deps.progress.steps())
}

func TestProcessJob_GenerationFailure(t *testing.T) {
	job := generationJob(t)
	require.NoError(t, job.MarkProcessing("worker-test"))

	deps := processorDeps{
		jobs:      newFakeJobs(job),
		progress:  &fakeProgress{},
		problems:  &fakeProblems{},
		locker:    &fakeLocker{},
		generator: &fakeGenerator{err: apperrors.NewExternalError("llm", assert.AnError)},
		extractor: &fakeExtractor{},
		publisher: &fakeEvents{},
	}
	p := newProcessor(deps)

	p.processJob(context.Background(), job)

	assert.Equal(t, entities.JobStatusFailed, job.Status)
	assert.NotEmpty(t, job.ErrorMessage)
	assert.Equal(t, []string{events.JobFailed}, deps.publisher.published)
	assert.Contains(t, deps.progress.steps(), "failed")
}

func TestProcessJob_ExtractionSavesProblemAndReleasesLock(t *testing.T) {
	job, err := entities.NewProblemExtractionJob("user-1", "https://www.acmicpc.net/problem/1000")
	require.NoError(t, err)
	require.NoError(t, job.MarkProcessing("worker-test"))

	key, err := valueobjects.NewProblemKey("baekjoon", "1000")
	require.NoError(t, err)
	problem, err := entities.NewProblem(key, "A+B", job.ProblemURL)
	require.NoError(t, err)

	deps := processorDeps{
		jobs:      newFakeJobs(job),
		progress:  &fakeProgress{},
		problems:  &fakeProblems{},
		locker:    &fakeLocker{},
		generator: &fakeGenerator{},
		extractor: &fakeExtractor{problem: problem},
		publisher: &fakeEvents{},
	}
	p := newProcessor(deps)

	p.processJob(context.Background(), job)

	assert.Equal(t, entities.JobStatusCompleted, job.Status)
	assert.Equal(t, key.String(), job.ProblemKey.String())
	require.Len(t, deps.problems.saved, 1)
	assert.Equal(t, []string{"extract:" + job.ProblemURL}, deps.locker.released)
	assert.Equal(t, []string{events.JobCompleted}, deps.publisher.published)
}

func TestProcessJob_ExtractionFailureStillReleasesLock(t *testing.T) {
	job, err := entities.NewProblemExtractionJob("user-1", "https://www.acmicpc.net/problem/1000")
	require.NoError(t, err)
	require.NoError(t, job.MarkProcessing("worker-test"))

	deps := processorDeps{
		jobs:      newFakeJobs(job),
		progress:  &fakeProgress{},
		problems:  &fakeProblems{},
		locker:    &fakeLocker{},
		generator: &fakeGenerator{},
		extractor: &fakeExtractor{err: apperrors.NewExternalError("judge", assert.AnError)},
		publisher: &fakeEvents{},
	}
	p := newProcessor(deps)

	p.processJob(context.Background(), job)

	assert.Equal(t, entities.JobStatusFailed, job.Status)
	assert.Equal(t, []string{"extract:" + job.ProblemURL}, deps.locker.released)
	assert.Empty(t, deps.problems.saved)
}

func TestPollOnce_SkipsLostClaims(t *testing.T) {
	first := generationJob(t)
	second := generationJob(t)

	jobs := newFakeJobs(first, second)
	jobs.claimConflicts[second.ID] = true

	deps := processorDeps{
		jobs:      jobs,
		progress:  &fakeProgress{},
		problems:  &fakeProblems{},
		locker:    &fakeLocker{},
		generator: &fakeGenerator{code: "print(1)"},
		extractor: &fakeExtractor{},
		publisher: &fakeEvents{},
	}
	p := newProcessor(deps)

	p.pollOnce(context.Background())

	assert.Equal(t, entities.JobStatusCompleted, first.Status)
	assert.Equal(t, entities.JobStatusPending, second.Status)
	assert.Equal(t, []string{first.ID}, jobs.updated)
}

func TestSweepStale(t *testing.T) {
	jobs := newFakeJobs()
	jobs.requeued = 2

	deps := processorDeps{
		jobs:      jobs,
		progress:  &fakeProgress{},
		problems:  &fakeProblems{},
		locker:    &fakeLocker{},
		generator: &fakeGenerator{},
		extractor: &fakeExtractor{},
		publisher: &fakeEvents{},
	}
	p := newProcessor(deps)

	before := time.Now().UTC().Add(-p.cfg.StaleDeadline)
	p.sweepStale(context.Background())

	assert.False(t, jobs.requeueCutoff.IsZero())
	assert.WithinDuration(t, before, jobs.requeueCutoff, time.Minute)
}

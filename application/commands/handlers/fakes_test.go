package handlers

import (
	"context"
	"time"

	"algoitny-backend/application/ports"
	"algoitny-backend/domain/entities"
	"algoitny-backend/domain/validators"
	"algoitny-backend/domain/valueobjects"
	apperrors "algoitny-backend/pkg/errors"
)

func newTestValidator() *validators.TestCaseValidator {
	return validators.NewTestCaseValidator()
}

// In-memory fakes for the ports the command handlers depend on. Tests
// override the hook fields to inject failures.

type fakeProblemRepo struct {
	problems map[string]*entities.Problem
	cases    map[string][]entities.TestCase

	saveErr    error
	replaceErr error
}

func newFakeProblemRepo() *fakeProblemRepo {
	return &fakeProblemRepo{
		problems: make(map[string]*entities.Problem),
		cases:    make(map[string][]entities.TestCase),
	}
}

func (f *fakeProblemRepo) Save(_ context.Context, p *entities.Problem) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.problems[p.Key.String()] = p
	return nil
}

func (f *fakeProblemRepo) GetByKey(_ context.Context, key valueobjects.ProblemKey) (*entities.Problem, error) {
	p, ok := f.problems[key.String()]
	if !ok {
		return nil, apperrors.NewNotFoundError("problem")
	}
	return p, nil
}

func (f *fakeProblemRepo) List(_ context.Context, _ ports.ProblemFilter) ([]*entities.Problem, string, error) {
	var out []*entities.Problem
	for _, p := range f.problems {
		out = append(out, p)
	}
	return out, "", nil
}

func (f *fakeProblemRepo) Delete(_ context.Context, key valueobjects.ProblemKey) error {
	if _, ok := f.problems[key.String()]; !ok {
		return apperrors.NewNotFoundError("problem")
	}
	delete(f.problems, key.String())
	delete(f.cases, key.String())
	return nil
}

func (f *fakeProblemRepo) ReplaceTestCases(_ context.Context, key valueobjects.ProblemKey, cases []entities.TestCase) error {
	if f.replaceErr != nil {
		return f.replaceErr
	}
	if _, ok := f.problems[key.String()]; !ok {
		return apperrors.NewNotFoundError("problem")
	}
	f.cases[key.String()] = cases
	return nil
}

func (f *fakeProblemRepo) GetTestCases(_ context.Context, key valueobjects.ProblemKey) ([]entities.TestCase, error) {
	return f.cases[key.String()], nil
}

type fakeJobRepo struct {
	jobs map[string]*entities.Job

	createErr error
	updateErr error
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[string]*entities.Job)}
}

func (f *fakeJobRepo) Create(_ context.Context, job *entities.Job) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepo) Get(_ context.Context, _ entities.JobKind, jobID string) (*entities.Job, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, apperrors.NewNotFoundError("job")
	}
	return job, nil
}

func (f *fakeJobRepo) List(_ context.Context, filter ports.JobFilter) ([]*entities.Job, string, error) {
	var out []*entities.Job
	for _, job := range f.jobs {
		if filter.Status != "" && job.Status != filter.Status {
			continue
		}
		if filter.UserID != "" && job.UserID != filter.UserID {
			continue
		}
		out = append(out, job)
	}
	return out, "", nil
}

func (f *fakeJobRepo) Claim(_ context.Context, _ entities.JobKind, jobID, workerID string) (*entities.Job, error) {
	job, ok := f.jobs[jobID]
	if !ok {
		return nil, apperrors.NewNotFoundError("job")
	}
	if job.Status != entities.JobStatusPending {
		return nil, apperrors.NewConflictError("job already claimed")
	}
	if err := job.MarkProcessing(workerID); err != nil {
		return nil, apperrors.NewConflictError(err.Error())
	}
	return job, nil
}

func (f *fakeJobRepo) UpdateStatus(_ context.Context, job *entities.Job) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.jobs[job.ID] = job
	return nil
}

func (f *fakeJobRepo) RequeueStale(_ context.Context, _ time.Time) (int, error) {
	return 0, nil
}

type fakeUserRepo struct {
	users map[string]*entities.User
}

func newFakeUserRepo(users ...*entities.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[string]*entities.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) Save(_ context.Context, u *entities.User) error {
	f.users[u.ID] = u
	return nil
}

func (f *fakeUserRepo) GetByID(_ context.Context, userID string) (*entities.User, error) {
	u, ok := f.users[userID]
	if !ok {
		return nil, apperrors.NewNotFoundError("user")
	}
	return u, nil
}

func (f *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entities.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperrors.NewNotFoundError("user")
}

type fakeUsageRepo struct {
	counts   map[string]int
	recorded []string

	recordErr error
}

func newFakeUsageRepo() *fakeUsageRepo {
	return &fakeUsageRepo{counts: make(map[string]int)}
}

func (f *fakeUsageRepo) Record(_ context.Context, userID, action string) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	f.recorded = append(f.recorded, userID+":"+action)
	return nil
}

func (f *fakeUsageRepo) CountSince(_ context.Context, userID, action string, _ time.Time) (int, error) {
	return f.counts[userID+":"+action], nil
}

type fakeLocker struct {
	acquired []string
	released []string

	acquireErr error
}

func (f *fakeLocker) Acquire(_ context.Context, resource, _ string, _ time.Duration) error {
	if f.acquireErr != nil {
		return f.acquireErr
	}
	f.acquired = append(f.acquired, resource)
	return nil
}

func (f *fakeLocker) Release(_ context.Context, resource, _ string) error {
	f.released = append(f.released, resource)
	return nil
}

type fakePublisher struct {
	events []string

	publishErr error
}

func (f *fakePublisher) PublishJobEvent(_ context.Context, eventType string, _ *entities.Job) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.events = append(f.events, eventType)
	return nil
}

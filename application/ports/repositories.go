// Package ports defines the interfaces the application layer depends on.
// Infrastructure provides the implementations; handlers and services only
// ever see these contracts.
package ports

import (
	"context"
	"time"

	"algoitny-backend/domain/entities"
	"algoitny-backend/domain/valueobjects"
)

// ProblemFilter narrows problem listings.
type ProblemFilter struct {
	Platform    string
	Query       string // substring match on title
	NeedsReview *bool
	Limit       int
	Cursor      string
}

// ProblemRepository persists problems and their test-case suites.
type ProblemRepository interface {
	Save(ctx context.Context, problem *entities.Problem) error
	GetByKey(ctx context.Context, key valueobjects.ProblemKey) (*entities.Problem, error)
	List(ctx context.Context, filter ProblemFilter) ([]*entities.Problem, string, error)
	Delete(ctx context.Context, key valueobjects.ProblemKey) error

	ReplaceTestCases(ctx context.Context, key valueobjects.ProblemKey, cases []entities.TestCase) error
	GetTestCases(ctx context.Context, key valueobjects.ProblemKey) ([]entities.TestCase, error)
}

// JobFilter narrows job listings.
type JobFilter struct {
	Status entities.JobStatus
	Kind   entities.JobKind
	UserID string
	Limit  int
	Cursor string
}

// JobRepository persists background jobs and drives their lifecycle.
type JobRepository interface {
	Create(ctx context.Context, job *entities.Job) error
	Get(ctx context.Context, kind entities.JobKind, jobID string) (*entities.Job, error)
	List(ctx context.Context, filter JobFilter) ([]*entities.Job, string, error)

	// Claim atomically moves a PENDING job to PROCESSING on behalf of
	// workerID. Exactly one concurrent caller wins; the rest get a
	// conflict error.
	Claim(ctx context.Context, kind entities.JobKind, jobID, workerID string) (*entities.Job, error)

	// UpdateStatus persists the job's current status fields. When the job
	// transitioned in memory, the write is conditional on the stored
	// status still matching the transition's source and fails with a
	// conflict otherwise.
	UpdateStatus(ctx context.Context, job *entities.Job) error

	// RequeueStale returns PROCESSING jobs older than deadline to PENDING
	// and reports how many were requeued.
	RequeueStale(ctx context.Context, deadline time.Time) (int, error)
}

// ProgressRepository persists the append-only job progress trail.
type ProgressRepository interface {
	Append(ctx context.Context, kind entities.JobKind, entry entities.ProgressEntry) error
	List(ctx context.Context, kind entities.JobKind, jobID string) ([]entities.ProgressEntry, error)
}

// HistoryRepository persists user search history.
type HistoryRepository interface {
	Append(ctx context.Context, record entities.SearchRecord) error
	ListByUser(ctx context.Context, userID string, limit int, cursor string) ([]entities.SearchRecord, string, error)
}

// UsageRepository persists usage logs and answers windowed counts for
// plan-limit enforcement.
type UsageRepository interface {
	Record(ctx context.Context, userID, action string) error
	CountSince(ctx context.Context, userID, action string, since time.Time) (int, error)
}

// UserRepository persists user profiles.
type UserRepository interface {
	Save(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, userID string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
}

// Locker serializes work on a shared resource across processes.
type Locker interface {
	Acquire(ctx context.Context, resource, ownerID string, duration time.Duration) error
	Release(ctx context.Context, resource, ownerID string) error
}

// EventPublisher emits job lifecycle events for downstream consumers.
type EventPublisher interface {
	PublishJobEvent(ctx context.Context, eventType string, job *entities.Job) error
}

// ScriptGenerator produces a test-case generator script for a problem.
type ScriptGenerator interface {
	Generate(ctx context.Context, job *entities.Job, progress func(step, message string)) (string, error)
}

// ProblemExtractor pulls problem metadata out of a judge URL.
type ProblemExtractor interface {
	Extract(ctx context.Context, job *entities.Job, progress func(step, message string)) (*entities.Problem, error)
}

package entities

import (
	"fmt"
	"time"

	"algoitny-backend/domain/valueobjects"

	"github.com/google/uuid"
)

// JobKind distinguishes the two asynchronous workloads the service runs.
type JobKind string

const (
	JobKindScriptGeneration  JobKind = "script_generation"
	JobKindProblemExtraction JobKind = "problem_extraction"
)

// JobStatus is the lifecycle state of a background job.
type JobStatus string

const (
	JobStatusPending    JobStatus = "PENDING"
	JobStatusProcessing JobStatus = "PROCESSING"
	JobStatusCompleted  JobStatus = "COMPLETED"
	JobStatusFailed     JobStatus = "FAILED"
	JobStatusCancelled  JobStatus = "CANCELLED"
)

// legalTransitions encodes the job state machine. Terminal states
// (COMPLETED, CANCELLED) have no outgoing edges; FAILED may return to
// PENDING through an explicit retry.
var legalTransitions = map[JobStatus][]JobStatus{
	JobStatusPending:    {JobStatusProcessing, JobStatusCancelled},
	JobStatusProcessing: {JobStatusCompleted, JobStatusFailed, JobStatusCancelled},
	JobStatusFailed:     {JobStatusPending},
}

// IsTerminal reports whether the status accepts no further transitions.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// IsValid reports whether the status is one of the known values.
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine allows moving from s to next.
func (s JobStatus) CanTransitionTo(next JobStatus) bool {
	for _, allowed := range legalTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Job is a unit of asynchronous background work: either generating a
// test-case generator script for a problem, or extracting problem metadata
// from a judge URL. Both kinds share the same lifecycle and progress trail.
type Job struct {
	ID         string
	Kind       JobKind
	UserID     string
	ProblemKey valueobjects.ProblemKey

	// Script generation inputs/outputs.
	Title         string
	Language      string
	Constraints   string
	Tags          []string
	GeneratorCode string

	// Problem extraction input.
	ProblemURL string

	Status       JobStatus
	ErrorMessage string
	WorkerID     string
	Attempts     int
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// statusBefore holds the status the job had before its most recent
	// in-memory transition. Repositories use it to guard status writes
	// against concurrent transitions on the stored item.
	statusBefore JobStatus
}

// NewScriptGenerationJob creates a pending script-generation job.
func NewScriptGenerationJob(userID string, key valueobjects.ProblemKey, title, language, constraints string, tags []string) (*Job, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if key.IsZero() {
		return nil, fmt.Errorf("problem key is required")
	}
	if language == "" {
		return nil, fmt.Errorf("language is required")
	}

	now := time.Now().UTC()
	return &Job{
		ID:          uuid.New().String(),
		Kind:        JobKindScriptGeneration,
		UserID:      userID,
		ProblemKey:  key,
		Title:       title,
		Language:    language,
		Constraints: constraints,
		Tags:        tags,
		Status:      JobStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewProblemExtractionJob creates a pending problem-extraction job.
func NewProblemExtractionJob(userID, problemURL string) (*Job, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if problemURL == "" {
		return nil, fmt.Errorf("problem url is required")
	}

	now := time.Now().UTC()
	return &Job{
		ID:         uuid.New().String(),
		Kind:       JobKindProblemExtraction,
		UserID:     userID,
		ProblemURL: problemURL,
		Status:     JobStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

// TransitionTo moves the job to the next status, enforcing the state machine.
func (j *Job) TransitionTo(next JobStatus) error {
	if !next.IsValid() {
		return fmt.Errorf("invalid job status: %s", next)
	}
	if !j.Status.CanTransitionTo(next) {
		return fmt.Errorf("illegal transition %s -> %s for job %s", j.Status, next, j.ID)
	}
	j.statusBefore = j.Status
	j.Status = next
	j.UpdatedAt = time.Now().UTC()
	return nil
}

// StatusBefore returns the status the job held before its most recent
// transition, or "" if the job has not transitioned since it was loaded.
func (j *Job) StatusBefore() JobStatus {
	return j.statusBefore
}

// MarkProcessing records the worker that claimed the job.
func (j *Job) MarkProcessing(workerID string) error {
	if err := j.TransitionTo(JobStatusProcessing); err != nil {
		return err
	}
	j.WorkerID = workerID
	j.Attempts++
	return nil
}

// MarkCompleted records a successful result.
func (j *Job) MarkCompleted(generatorCode string) error {
	if err := j.TransitionTo(JobStatusCompleted); err != nil {
		return err
	}
	j.GeneratorCode = generatorCode
	j.ErrorMessage = ""
	return nil
}

// MarkFailed records the failure reason.
func (j *Job) MarkFailed(reason string) error {
	if err := j.TransitionTo(JobStatusFailed); err != nil {
		return err
	}
	j.ErrorMessage = reason
	return nil
}

// Cancel moves a non-terminal job to CANCELLED.
func (j *Job) Cancel() error {
	return j.TransitionTo(JobStatusCancelled)
}

// Retry requeues a failed job.
func (j *Job) Retry() error {
	if err := j.TransitionTo(JobStatusPending); err != nil {
		return err
	}
	j.WorkerID = ""
	j.ErrorMessage = ""
	return nil
}

// ProgressEntry is a single step in a job's progress trail. Entries are
// append-only and expire via TTL after the retention window.
type ProgressEntry struct {
	JobID     string
	Seq       int
	Step      string
	Message   string
	CreatedAt time.Time
}

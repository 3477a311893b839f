package handlers

import (
	"context"
	"fmt"

	"algoitny-backend/application/ports"
	"algoitny-backend/application/queries"
	"algoitny-backend/application/queries/bus"
	"algoitny-backend/domain/entities"
)

// JobPage is the result of ListJobsQuery.
type JobPage struct {
	Jobs       []*entities.Job
	NextCursor string
}

// ListJobsHandler serves ListJobsQuery.
type ListJobsHandler struct {
	jobs ports.JobRepository
}

// NewListJobsHandler creates a ListJobsHandler.
func NewListJobsHandler(jobs ports.JobRepository) *ListJobsHandler {
	return &ListJobsHandler{jobs: jobs}
}

// Handle lists jobs through the user or status index.
func (h *ListJobsHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.ListJobsQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	jobs, next, err := h.jobs.List(ctx, ports.JobFilter{
		Status: q.Status,
		Kind:   q.Kind,
		UserID: q.UserID,
		Limit:  q.Limit,
		Cursor: q.Cursor,
	})
	if err != nil {
		return nil, err
	}
	return &JobPage{Jobs: jobs, NextCursor: next}, nil
}

// GetJobHandler serves GetJobQuery.
type GetJobHandler struct {
	jobs ports.JobRepository
}

// NewGetJobHandler creates a GetJobHandler.
func NewGetJobHandler(jobs ports.JobRepository) *GetJobHandler {
	return &GetJobHandler{jobs: jobs}
}

// Handle fetches one job.
func (h *GetJobHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetJobQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}
	return h.jobs.Get(ctx, q.Kind, q.JobID)
}

// GetJobProgressHandler serves GetJobProgressQuery.
type GetJobProgressHandler struct {
	jobs     ports.JobRepository
	progress ports.ProgressRepository
}

// NewGetJobProgressHandler creates a GetJobProgressHandler.
func NewGetJobProgressHandler(jobs ports.JobRepository, progress ports.ProgressRepository) *GetJobProgressHandler {
	return &GetJobProgressHandler{jobs: jobs, progress: progress}
}

// Handle returns the job's progress trail in chronological order. The job
// is fetched first so a missing job yields not-found rather than an empty
// trail.
func (h *GetJobProgressHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetJobProgressQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	if _, err := h.jobs.Get(ctx, q.Kind, q.JobID); err != nil {
		return nil, err
	}
	return h.progress.List(ctx, q.Kind, q.JobID)
}

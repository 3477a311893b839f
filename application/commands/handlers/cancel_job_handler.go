package handlers

import (
	"context"
	"fmt"

	"algoitny-backend/application/commands"
	"algoitny-backend/application/commands/bus"
	"algoitny-backend/application/ports"
	"algoitny-backend/domain/events"
	apperrors "algoitny-backend/pkg/errors"

	"go.uber.org/zap"
)

// CancelJobHandler cancels a job the caller owns.
type CancelJobHandler struct {
	jobs      ports.JobRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewCancelJobHandler creates a CancelJobHandler.
func NewCancelJobHandler(jobs ports.JobRepository, publisher ports.EventPublisher, logger *zap.Logger) *CancelJobHandler {
	return &CancelJobHandler{jobs: jobs, publisher: publisher, logger: logger}
}

// Handle cancels the job if the state machine permits it. A job already in
// a terminal state yields a conflict.
func (h *CancelJobHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.CancelJobCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	job, err := h.jobs.Get(ctx, c.Kind, c.JobID)
	if err != nil {
		return nil, err
	}
	if job.UserID != c.UserID && !c.IsAdmin {
		return nil, apperrors.NewForbiddenError("job belongs to another user")
	}

	if err := job.Cancel(); err != nil {
		return nil, apperrors.NewConflictError(err.Error())
	}
	if err := h.jobs.UpdateStatus(ctx, job); err != nil {
		return nil, err
	}

	if err := h.publisher.PublishJobEvent(ctx, events.JobCancelled, job); err != nil {
		h.logger.Warn("Failed to publish job event",
			zap.String("jobID", job.ID),
			zap.Error(err),
		)
	}

	h.logger.Info("Job cancelled",
		zap.String("jobID", job.ID),
		zap.String("userID", c.UserID),
	)
	return job, nil
}

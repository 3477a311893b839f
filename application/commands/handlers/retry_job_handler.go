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

// RetryJobHandler requeues a failed job the caller owns.
type RetryJobHandler struct {
	jobs      ports.JobRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewRetryJobHandler creates a RetryJobHandler.
func NewRetryJobHandler(jobs ports.JobRepository, publisher ports.EventPublisher, logger *zap.Logger) *RetryJobHandler {
	return &RetryJobHandler{jobs: jobs, publisher: publisher, logger: logger}
}

// Handle moves a FAILED job back to PENDING. Any other state yields a
// conflict.
func (h *RetryJobHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.RetryJobCommand)
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

	if err := job.Retry(); err != nil {
		return nil, apperrors.NewConflictError(err.Error())
	}
	if err := h.jobs.UpdateStatus(ctx, job); err != nil {
		return nil, err
	}

	if err := h.publisher.PublishJobEvent(ctx, events.JobRetried, job); err != nil {
		h.logger.Warn("Failed to publish job event",
			zap.String("jobID", job.ID),
			zap.Error(err),
		)
	}

	h.logger.Info("Job requeued for retry",
		zap.String("jobID", job.ID),
		zap.String("userID", c.UserID),
	)
	return job, nil
}

package handlers

import (
	"context"
	"fmt"
	"time"

	"algoitny-backend/application/commands"
	"algoitny-backend/application/commands/bus"
	"algoitny-backend/application/ports"
	"algoitny-backend/domain/entities"
	"algoitny-backend/domain/events"
	apperrors "algoitny-backend/pkg/errors"

	"go.uber.org/zap"
)

// extractionLockDuration bounds how long a URL stays locked when the
// worker that should release it dies.
const extractionLockDuration = 10 * time.Minute

// ExtractProblemHandler enqueues problem-extraction jobs, deduplicating
// concurrent requests for the same URL through a lock.
type ExtractProblemHandler struct {
	jobs      ports.JobRepository
	usage     ports.UsageRepository
	locker    ports.Locker
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewExtractProblemHandler creates an ExtractProblemHandler.
func NewExtractProblemHandler(
	jobs ports.JobRepository,
	usage ports.UsageRepository,
	locker ports.Locker,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *ExtractProblemHandler {
	return &ExtractProblemHandler{
		jobs:      jobs,
		usage:     usage,
		locker:    locker,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle locks the URL, creates the PENDING job, and records the usage.
// The lock is held until the worker finishes the extraction or it expires.
func (h *ExtractProblemHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.ExtractProblemCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	job, err := entities.NewProblemExtractionJob(c.UserID, c.ProblemURL)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := h.locker.Acquire(ctx, "extract:"+c.ProblemURL, job.ID, extractionLockDuration); err != nil {
		if apperrors.IsType(err, apperrors.ErrorTypeConflict) {
			return nil, apperrors.NewConflictError("an extraction for this URL is already in progress")
		}
		return nil, err
	}

	if err := h.jobs.Create(ctx, job); err != nil {
		if relErr := h.locker.Release(ctx, "extract:"+c.ProblemURL, job.ID); relErr != nil {
			h.logger.Warn("Failed to release extraction lock", zap.Error(relErr))
		}
		return nil, err
	}

	if err := h.usage.Record(ctx, c.UserID, entities.UsageActionExtraction); err != nil {
		h.logger.Warn("Failed to record usage",
			zap.String("userID", c.UserID),
			zap.Error(err),
		)
	}

	if err := h.publisher.PublishJobEvent(ctx, events.JobCreated, job); err != nil {
		h.logger.Warn("Failed to publish job event",
			zap.String("jobID", job.ID),
			zap.Error(err),
		)
	}

	h.logger.Info("Problem extraction job queued",
		zap.String("jobID", job.ID),
		zap.String("url", c.ProblemURL),
		zap.String("userID", c.UserID),
	)
	return job, nil
}

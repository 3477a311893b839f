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
	"algoitny-backend/domain/valueobjects"
	apperrors "algoitny-backend/pkg/errors"

	"go.uber.org/zap"
)

// ExecuteScriptHandler enqueues script-generation jobs, enforcing the
// caller's daily execution allowance from the usage log.
type ExecuteScriptHandler struct {
	jobs      ports.JobRepository
	users     ports.UserRepository
	usage     ports.UsageRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewExecuteScriptHandler creates an ExecuteScriptHandler.
func NewExecuteScriptHandler(
	jobs ports.JobRepository,
	users ports.UserRepository,
	usage ports.UsageRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *ExecuteScriptHandler {
	return &ExecuteScriptHandler{
		jobs:      jobs,
		users:     users,
		usage:     usage,
		publisher: publisher,
		logger:    logger,
	}
}

// Handle checks the plan limit, creates the PENDING job, and records the
// usage. The job itself runs on a worker.
func (h *ExecuteScriptHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.ExecuteScriptCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	key, err := valueobjects.NewProblemKey(c.Platform, c.ProblemID)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	user, err := h.users.GetByID(ctx, c.UserID)
	if err != nil {
		return nil, err
	}

	if limit := user.DailyExecutionLimit(); limit >= 0 {
		since := time.Now().UTC().Add(-24 * time.Hour)
		used, err := h.usage.CountSince(ctx, c.UserID, entities.UsageActionExecution, since)
		if err != nil {
			return nil, err
		}
		if used >= limit {
			return nil, apperrors.NewRateLimitError(limit, "24h")
		}
	}

	job, err := entities.NewScriptGenerationJob(c.UserID, key, c.Title, c.Language, c.Constraints, c.Tags)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if err := h.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	if err := h.usage.Record(ctx, c.UserID, entities.UsageActionExecution); err != nil {
		// The job is already queued; losing one usage row only loosens
		// the limit by one request.
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

	h.logger.Info("Script generation job queued",
		zap.String("jobID", job.ID),
		zap.String("problem", key.String()),
		zap.String("userID", c.UserID),
	)
	return job, nil
}

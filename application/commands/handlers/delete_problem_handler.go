package handlers

import (
	"context"
	"fmt"

	"algoitny-backend/application/commands"
	"algoitny-backend/application/commands/bus"
	"algoitny-backend/application/ports"
	"algoitny-backend/domain/valueobjects"
	apperrors "algoitny-backend/pkg/errors"

	"go.uber.org/zap"
)

// DeleteProblemHandler removes a problem and everything stored under it.
type DeleteProblemHandler struct {
	problems ports.ProblemRepository
	logger   *zap.Logger
}

// NewDeleteProblemHandler creates a DeleteProblemHandler.
func NewDeleteProblemHandler(problems ports.ProblemRepository, logger *zap.Logger) *DeleteProblemHandler {
	return &DeleteProblemHandler{problems: problems, logger: logger}
}

// Handle executes the command.
func (h *DeleteProblemHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.DeleteProblemCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	key, err := valueobjects.NewProblemKey(c.Platform, c.ProblemID)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	if _, err := h.problems.GetByKey(ctx, key); err != nil {
		return nil, err
	}
	if err := h.problems.Delete(ctx, key); err != nil {
		return nil, err
	}

	h.logger.Info("Problem deleted", zap.String("problem", key.String()))
	return nil, nil
}

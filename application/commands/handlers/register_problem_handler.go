// Package handlers implements the command handlers. Each handler owns one
// write path and is registered on the command bus by the DI container.
package handlers

import (
	"context"
	"fmt"

	"algoitny-backend/application/commands"
	"algoitny-backend/application/commands/bus"
	"algoitny-backend/application/ports"
	"algoitny-backend/domain/entities"
	"algoitny-backend/domain/valueobjects"
	apperrors "algoitny-backend/pkg/errors"

	"go.uber.org/zap"
)

// RegisterProblemHandler creates or updates a problem's metadata.
type RegisterProblemHandler struct {
	problems ports.ProblemRepository
	logger   *zap.Logger
}

// NewRegisterProblemHandler creates a RegisterProblemHandler.
func NewRegisterProblemHandler(problems ports.ProblemRepository, logger *zap.Logger) *RegisterProblemHandler {
	return &RegisterProblemHandler{problems: problems, logger: logger}
}

// Handle executes the command and returns the stored problem.
func (h *RegisterProblemHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.RegisterProblemCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	key, err := valueobjects.NewProblemKey(c.Platform, c.ProblemID)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	problem, err := h.problems.GetByKey(ctx, key)
	switch {
	case err == nil:
		// Re-registering updates metadata but keeps review state.
		problem.Title = c.Title
		problem.URL = c.URL
	case apperrors.IsNotFound(err):
		problem, err = entities.NewProblem(key, c.Title, c.URL)
		if err != nil {
			return nil, apperrors.NewValidationError(err.Error())
		}
	default:
		return nil, err
	}

	problem.Tags = c.Tags
	problem.Language = c.Language
	problem.Constraints = c.Constraints
	if c.SolutionCode != "" {
		problem.SolutionCode = c.SolutionCode
	}

	if err := h.problems.Save(ctx, problem); err != nil {
		return nil, err
	}

	h.logger.Info("Problem registered", zap.String("problem", key.String()))
	return problem, nil
}

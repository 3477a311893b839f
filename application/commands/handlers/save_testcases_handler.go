package handlers

import (
	"context"
	"fmt"

	"algoitny-backend/application/commands"
	"algoitny-backend/application/commands/bus"
	"algoitny-backend/application/ports"
	"algoitny-backend/domain/entities"
	"algoitny-backend/domain/validators"
	"algoitny-backend/domain/valueobjects"
	apperrors "algoitny-backend/pkg/errors"

	"go.uber.org/zap"
)

// SaveTestCasesHandler replaces a problem's test-case suite.
type SaveTestCasesHandler struct {
	problems  ports.ProblemRepository
	validator *validators.TestCaseValidator
	logger    *zap.Logger
}

// NewSaveTestCasesHandler creates a SaveTestCasesHandler.
func NewSaveTestCasesHandler(problems ports.ProblemRepository, validator *validators.TestCaseValidator, logger *zap.Logger) *SaveTestCasesHandler {
	return &SaveTestCasesHandler{problems: problems, validator: validator, logger: logger}
}

// Handle validates the suite against storage limits, replaces the stored
// cases, and optionally completes the problem's review.
func (h *SaveTestCasesHandler) Handle(ctx context.Context, cmd bus.Command) (interface{}, error) {
	c, ok := cmd.(commands.SaveTestCasesCommand)
	if !ok {
		return nil, fmt.Errorf("unexpected command type %T", cmd)
	}

	key, err := valueobjects.NewProblemKey(c.Platform, c.ProblemID)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	cases := make([]entities.TestCase, len(c.TestCases))
	for i, tc := range c.TestCases {
		cases[i] = entities.TestCase{Index: i, Input: tc.Input, Output: tc.Output}
	}
	if err := h.validator.ValidateSuite(cases); err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	problem, err := h.problems.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	if err := h.problems.ReplaceTestCases(ctx, key, cases); err != nil {
		return nil, err
	}
	problem.TestCaseCount = len(cases)

	if c.Complete {
		problem.Complete()
		if err := h.problems.Save(ctx, problem); err != nil {
			return nil, err
		}
	}

	h.logger.Info("Test cases saved",
		zap.String("problem", key.String()),
		zap.Int("count", len(cases)),
		zap.Bool("completed", c.Complete),
	)
	return problem, nil
}

// Package handlers implements the query handlers registered on the query
// bus.
package handlers

import (
	"context"
	"fmt"
	"time"

	"algoitny-backend/application/ports"
	"algoitny-backend/application/queries"
	"algoitny-backend/application/queries/bus"
	"algoitny-backend/domain/entities"
	"algoitny-backend/domain/valueobjects"
	apperrors "algoitny-backend/pkg/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProblemWithTestCases is the result of GetProblemQuery.
type ProblemWithTestCases struct {
	Problem   *entities.Problem
	TestCases []entities.TestCase
}

// GetProblemHandler serves GetProblemQuery.
type GetProblemHandler struct {
	problems ports.ProblemRepository
}

// NewGetProblemHandler creates a GetProblemHandler.
func NewGetProblemHandler(problems ports.ProblemRepository) *GetProblemHandler {
	return &GetProblemHandler{problems: problems}
}

// Handle fetches the problem and, when requested, its test cases.
func (h *GetProblemHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetProblemQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	key, err := valueobjects.NewProblemKey(q.Platform, q.ProblemID)
	if err != nil {
		return nil, apperrors.NewValidationError(err.Error())
	}

	problem, err := h.problems.GetByKey(ctx, key)
	if err != nil {
		return nil, err
	}

	result := &ProblemWithTestCases{Problem: problem}
	if q.IncludeTestCases {
		cases, err := h.problems.GetTestCases(ctx, key)
		if err != nil {
			return nil, err
		}
		result.TestCases = cases
	}
	return result, nil
}

// ProblemPage is the result of SearchProblemsQuery.
type ProblemPage struct {
	Problems   []*entities.Problem
	NextCursor string
}

// SearchProblemsHandler serves SearchProblemsQuery and records the search
// in the caller's history.
type SearchProblemsHandler struct {
	problems ports.ProblemRepository
	history  ports.HistoryRepository
	logger   *zap.Logger
}

// NewSearchProblemsHandler creates a SearchProblemsHandler.
func NewSearchProblemsHandler(problems ports.ProblemRepository, history ports.HistoryRepository, logger *zap.Logger) *SearchProblemsHandler {
	return &SearchProblemsHandler{problems: problems, history: history, logger: logger}
}

// Handle lists matching problems. History recording is best effort; a
// failed write never fails the search.
func (h *SearchProblemsHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.SearchProblemsQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	problems, next, err := h.problems.List(ctx, ports.ProblemFilter{
		Platform:    q.Platform,
		Query:       q.Query,
		NeedsReview: q.NeedsReview,
		Limit:       q.Limit,
		Cursor:      q.Cursor,
	})
	if err != nil {
		return nil, err
	}

	if q.UserID != "" && q.Query != "" {
		record := entities.SearchRecord{
			ID:          uuid.New().String(),
			UserID:      q.UserID,
			Query:       q.Query,
			Platform:    q.Platform,
			ResultCount: len(problems),
			CreatedAt:   time.Now().UTC(),
		}
		if err := h.history.Append(ctx, record); err != nil {
			h.logger.Warn("Failed to record search history",
				zap.String("userID", q.UserID),
				zap.Error(err),
			)
		}
	}

	return &ProblemPage{Problems: problems, NextCursor: next}, nil
}

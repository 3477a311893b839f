package handlers

import (
	"context"
	"fmt"
	"time"

	"algoitny-backend/application/ports"
	"algoitny-backend/application/queries"
	"algoitny-backend/application/queries/bus"
	"algoitny-backend/domain/entities"
)

// HistoryPage is the result of ListSearchHistoryQuery.
type HistoryPage struct {
	Records    []entities.SearchRecord
	NextCursor string
}

// ListSearchHistoryHandler serves ListSearchHistoryQuery.
type ListSearchHistoryHandler struct {
	history ports.HistoryRepository
}

// NewListSearchHistoryHandler creates a ListSearchHistoryHandler.
func NewListSearchHistoryHandler(history ports.HistoryRepository) *ListSearchHistoryHandler {
	return &ListSearchHistoryHandler{history: history}
}

// Handle lists the caller's searches, newest first.
func (h *ListSearchHistoryHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.ListSearchHistoryQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	records, next, err := h.history.ListByUser(ctx, q.UserID, q.Limit, q.Cursor)
	if err != nil {
		return nil, err
	}
	return &HistoryPage{Records: records, NextCursor: next}, nil
}

// UsageReport is the result of GetUsageQuery. A Limit of -1 means
// unlimited.
type UsageReport struct {
	Plan        string `json:"plan"`
	Limit       int    `json:"limit"`
	Executions  int    `json:"executions"`
	Extractions int    `json:"extractions"`
	Remaining   int    `json:"remaining"`
}

// GetUsageHandler serves GetUsageQuery.
type GetUsageHandler struct {
	users ports.UserRepository
	usage ports.UsageRepository
}

// NewGetUsageHandler creates a GetUsageHandler.
func NewGetUsageHandler(users ports.UserRepository, usage ports.UsageRepository) *GetUsageHandler {
	return &GetUsageHandler{users: users, usage: usage}
}

// Handle reports the caller's last-24h usage against their plan limit.
func (h *GetUsageHandler) Handle(ctx context.Context, query bus.Query) (interface{}, error) {
	q, ok := query.(queries.GetUsageQuery)
	if !ok {
		return nil, fmt.Errorf("unexpected query type %T", query)
	}

	user, err := h.users.GetByID(ctx, q.UserID)
	if err != nil {
		return nil, err
	}

	since := time.Now().UTC().Add(-24 * time.Hour)
	executions, err := h.usage.CountSince(ctx, q.UserID, entities.UsageActionExecution, since)
	if err != nil {
		return nil, err
	}
	extractions, err := h.usage.CountSince(ctx, q.UserID, entities.UsageActionExtraction, since)
	if err != nil {
		return nil, err
	}

	limit := user.DailyExecutionLimit()
	remaining := -1
	if limit >= 0 {
		remaining = limit - executions
		if remaining < 0 {
			remaining = 0
		}
	}

	return &UsageReport{
		Plan:        user.Plan,
		Limit:       limit,
		Executions:  executions,
		Extractions: extractions,
		Remaining:   remaining,
	}, nil
}

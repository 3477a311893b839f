package handlers

import (
	"net/http"
	"strconv"

	"algoitny-backend/application/queries"
	querybus "algoitny-backend/application/queries/bus"
	queryhandlers "algoitny-backend/application/queries/handlers"
	"algoitny-backend/pkg/auth"
	"algoitny-backend/pkg/common"
	apperrors "algoitny-backend/pkg/errors"

	"go.uber.org/zap"
)

// AccountHandler serves the caller's history and usage endpoints.
type AccountHandler struct {
	queryBus *querybus.QueryBus
	logger   *zap.Logger
}

// NewAccountHandler creates an AccountHandler.
func NewAccountHandler(queryBus *querybus.QueryBus, logger *zap.Logger) *AccountHandler {
	return &AccountHandler{queryBus: queryBus, logger: logger}
}

// History handles GET /account/history.
func (h *AccountHandler) History(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "unauthorized")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	result, err := h.queryBus.Ask(r.Context(), queries.ListSearchHistoryQuery{
		UserID: user.UserID,
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	page := result.(*queryhandlers.HistoryPage)
	common.RespondWithMeta(w, http.StatusOK, toHistoryResponses(page.Records), &common.MetaInfo{
		NextCursor: page.NextCursor,
		Count:      len(page.Records),
	})
}

// Usage handles GET /account/usage.
func (h *AccountHandler) Usage(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "unauthorized")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetUsageQuery{UserID: user.UserID})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, result.(*queryhandlers.UsageReport))
}

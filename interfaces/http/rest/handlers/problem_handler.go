package handlers

import (
	"net/http"
	"strconv"

	"algoitny-backend/application/commands"
	"algoitny-backend/application/commands/bus"
	"algoitny-backend/application/queries"
	querybus "algoitny-backend/application/queries/bus"
	queryhandlers "algoitny-backend/application/queries/handlers"
	"algoitny-backend/domain/entities"
	"algoitny-backend/pkg/auth"
	"algoitny-backend/pkg/common"
	apperrors "algoitny-backend/pkg/errors"
	"algoitny-backend/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Large suites carry test-case payloads; the body cap tracks the per-item
// storage budget times the suite maximum.
const maxProblemBodyBytes = 64 << 20

// ProblemHandler serves the problem CRUD and test-case endpoints.
type ProblemHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
}

// NewProblemHandler creates a ProblemHandler.
func NewProblemHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, logger *zap.Logger) *ProblemHandler {
	return &ProblemHandler{commandBus: commandBus, queryBus: queryBus, logger: logger}
}

type registerProblemRequest struct {
	Platform     string   `json:"platform" validate:"required"`
	ProblemID    string   `json:"problem_id" validate:"required"`
	Title        string   `json:"title" validate:"required,max=500"`
	URL          string   `json:"url" validate:"omitempty,url"`
	Tags         []string `json:"tags" validate:"max=20,dive,min=1,max=50"`
	Language     string   `json:"language" validate:"max=50"`
	Constraints  string   `json:"constraints"`
	SolutionCode string   `json:"solution_code"`
}

// Register handles POST /problems.
func (h *ProblemHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerProblemRequest
	if err := common.ParseJSONBody(r, &req, maxProblemBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.RegisterProblemCommand{
		Platform:     req.Platform,
		ProblemID:    req.ProblemID,
		Title:        req.Title,
		URL:          req.URL,
		Tags:         req.Tags,
		Language:     req.Language,
		Constraints:  req.Constraints,
		SolutionCode: req.SolutionCode,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	problem := result.(*entities.Problem)
	common.RespondJSON(w, http.StatusCreated, toProblemResponse(problem))
}

// Get handles GET /problems/{platform}/{problemID}.
func (h *ProblemHandler) Get(w http.ResponseWriter, r *http.Request) {
	include, _ := strconv.ParseBool(r.URL.Query().Get("include_testcases"))

	result, err := h.queryBus.Ask(r.Context(), queries.GetProblemQuery{
		Platform:         chi.URLParam(r, "platform"),
		ProblemID:        chi.URLParam(r, "problemID"),
		IncludeTestCases: include,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	pt := result.(*queryhandlers.ProblemWithTestCases)
	payload := map[string]interface{}{
		"problem": toProblemResponse(pt.Problem),
	}
	if include {
		payload["test_cases"] = toTestCaseResponses(pt.TestCases)
	}
	common.RespondJSON(w, http.StatusOK, payload)
}

// Search handles GET /problems.
func (h *ProblemHandler) Search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var needsReview *bool
	if raw := q.Get("needs_review"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "needs_review must be a boolean")
			return
		}
		needsReview = &v
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	query := queries.SearchProblemsQuery{
		Platform:    q.Get("platform"),
		Query:       q.Get("q"),
		NeedsReview: needsReview,
		Limit:       limit,
		Cursor:      q.Get("cursor"),
	}
	if user, err := auth.GetUserFromContext(r.Context()); err == nil {
		query.UserID = user.UserID
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	page := result.(*queryhandlers.ProblemPage)
	common.RespondWithMeta(w, http.StatusOK, toProblemResponses(page.Problems), &common.MetaInfo{
		NextCursor: page.NextCursor,
		Count:      len(page.Problems),
	})
}

type saveTestCasesRequest struct {
	TestCases []testCasePayload `json:"test_cases" validate:"required,min=1,max=100"`
	Complete  bool              `json:"complete"`
}

type testCasePayload struct {
	Input  string `json:"input" validate:"required"`
	Output string `json:"output"`
}

// SaveTestCases handles PUT /problems/{platform}/{problemID}/testcases.
func (h *ProblemHandler) SaveTestCases(w http.ResponseWriter, r *http.Request) {
	var req saveTestCasesRequest
	if err := common.ParseJSONBody(r, &req, maxProblemBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}

	cases := make([]commands.TestCaseInput, len(req.TestCases))
	for i, tc := range req.TestCases {
		cases[i] = commands.TestCaseInput{Input: tc.Input, Output: tc.Output}
	}

	result, err := h.commandBus.Send(r.Context(), commands.SaveTestCasesCommand{
		Platform:  chi.URLParam(r, "platform"),
		ProblemID: chi.URLParam(r, "problemID"),
		TestCases: cases,
		Complete:  req.Complete,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	problem := result.(*entities.Problem)
	common.RespondJSON(w, http.StatusOK, toProblemResponse(problem))
}

// Delete handles DELETE /problems/{platform}/{problemID}. Admin only,
// enforced by the router.
func (h *ProblemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	_, err := h.commandBus.Send(r.Context(), commands.DeleteProblemCommand{
		Platform:  chi.URLParam(r, "platform"),
		ProblemID: chi.URLParam(r, "problemID"),
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

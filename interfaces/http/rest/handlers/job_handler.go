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

const maxJobBodyBytes = 1 << 20

// JobHandler serves job submission and lifecycle endpoints.
type JobHandler struct {
	commandBus *bus.CommandBus
	queryBus   *querybus.QueryBus
	logger     *zap.Logger
}

// NewJobHandler creates a JobHandler.
func NewJobHandler(commandBus *bus.CommandBus, queryBus *querybus.QueryBus, logger *zap.Logger) *JobHandler {
	return &JobHandler{commandBus: commandBus, queryBus: queryBus, logger: logger}
}

type executeRequest struct {
	Platform    string   `json:"platform" validate:"required"`
	ProblemID   string   `json:"problem_id" validate:"required"`
	Title       string   `json:"title" validate:"max=500"`
	Language    string   `json:"language" validate:"required,max=50"`
	Constraints string   `json:"constraints"`
	Tags        []string `json:"tags" validate:"max=20,dive,min=1,max=50"`
}

// Execute handles POST /execute, queueing a script-generation job.
func (h *JobHandler) Execute(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "unauthorized")
		return
	}

	var req executeRequest
	if err := common.ParseJSONBody(r, &req, maxJobBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.ExecuteScriptCommand{
		UserID:      user.UserID,
		Platform:    req.Platform,
		ProblemID:   req.ProblemID,
		Title:       req.Title,
		Language:    req.Language,
		Constraints: req.Constraints,
		Tags:        req.Tags,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	job := result.(*entities.Job)
	common.RespondJSON(w, http.StatusAccepted, toJobResponse(job))
}

type extractRequest struct {
	ProblemURL string `json:"problem_url" validate:"required,url"`
}

// Extract handles POST /extract, queueing a problem-extraction job.
func (h *JobHandler) Extract(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "unauthorized")
		return
	}

	var req extractRequest
	if err := common.ParseJSONBody(r, &req, maxJobBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}

	result, err := h.commandBus.Send(r.Context(), commands.ExtractProblemCommand{
		UserID:     user.UserID,
		ProblemURL: req.ProblemURL,
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	job := result.(*entities.Job)
	common.RespondJSON(w, http.StatusAccepted, toJobResponse(job))
}

// List handles GET /jobs. Regular users see their own jobs; admins may
// list by status across users.
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "unauthorized")
		return
	}

	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	query := queries.ListJobsQuery{
		Kind:   entities.JobKind(q.Get("kind")),
		Limit:  limit,
		Cursor: q.Get("cursor"),
	}
	status := entities.JobStatus(q.Get("status"))
	if user.IsAdmin && status != "" {
		query.Status = status
	} else {
		query.UserID = user.UserID
		query.Status = status
	}

	result, err := h.queryBus.Ask(r.Context(), query)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	page := result.(*queryhandlers.JobPage)
	common.RespondWithMeta(w, http.StatusOK, toJobResponses(page.Jobs), &common.MetaInfo{
		NextCursor: page.NextCursor,
		Count:      len(page.Jobs),
	})
}

// Get handles GET /jobs/{kind}/{jobID}.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseJobKind(chi.URLParam(r, "kind"))
	if !ok {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "unknown job kind")
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetJobQuery{
		Kind:  kind,
		JobID: chi.URLParam(r, "jobID"),
	})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	job := result.(*entities.Job)
	if !h.authorizeJobAccess(w, r, job) {
		return
	}
	common.RespondJSON(w, http.StatusOK, toJobResponse(job))
}

// Progress handles GET /jobs/{kind}/{jobID}/progress.
func (h *JobHandler) Progress(w http.ResponseWriter, r *http.Request) {
	kind, ok := parseJobKind(chi.URLParam(r, "kind"))
	if !ok {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "unknown job kind")
		return
	}
	jobID := chi.URLParam(r, "jobID")

	jobResult, err := h.queryBus.Ask(r.Context(), queries.GetJobQuery{Kind: kind, JobID: jobID})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	if !h.authorizeJobAccess(w, r, jobResult.(*entities.Job)) {
		return
	}

	result, err := h.queryBus.Ask(r.Context(), queries.GetJobProgressQuery{Kind: kind, JobID: jobID})
	if err != nil {
		common.RespondAppError(w, err)
		return
	}

	entries := result.([]entities.ProgressEntry)
	common.RespondWithMeta(w, http.StatusOK, toProgressResponses(entries), &common.MetaInfo{
		Count: len(entries),
	})
}

// Cancel handles POST /jobs/{kind}/{jobID}/cancel.
func (h *JobHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(kind entities.JobKind, jobID string, user *auth.UserContext) (interface{}, error) {
		return h.commandBus.Send(r.Context(), commands.CancelJobCommand{
			Kind:    kind,
			JobID:   jobID,
			UserID:  user.UserID,
			IsAdmin: user.IsAdmin,
		})
	})
}

// Retry handles POST /jobs/{kind}/{jobID}/retry.
func (h *JobHandler) Retry(w http.ResponseWriter, r *http.Request) {
	h.lifecycle(w, r, func(kind entities.JobKind, jobID string, user *auth.UserContext) (interface{}, error) {
		return h.commandBus.Send(r.Context(), commands.RetryJobCommand{
			Kind:    kind,
			JobID:   jobID,
			UserID:  user.UserID,
			IsAdmin: user.IsAdmin,
		})
	})
}

func (h *JobHandler) lifecycle(w http.ResponseWriter, r *http.Request, send func(entities.JobKind, string, *auth.UserContext) (interface{}, error)) {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "unauthorized")
		return
	}
	kind, ok := parseJobKind(chi.URLParam(r, "kind"))
	if !ok {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "unknown job kind")
		return
	}

	result, err := send(kind, chi.URLParam(r, "jobID"), user)
	if err != nil {
		common.RespondAppError(w, err)
		return
	}
	common.RespondJSON(w, http.StatusOK, toJobResponse(result.(*entities.Job)))
}

// authorizeJobAccess rejects reads of another user's job. Jobs are not
// secret between admins.
func (h *JobHandler) authorizeJobAccess(w http.ResponseWriter, r *http.Request, job *entities.Job) bool {
	user, err := auth.GetUserFromContext(r.Context())
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "unauthorized")
		return false
	}
	if job.UserID != user.UserID && !user.IsAdmin {
		common.RespondError(w, http.StatusForbidden, string(apperrors.ErrorTypeForbidden), "job belongs to another user")
		return false
	}
	return true
}

// parseJobKind accepts both the canonical kind names and short aliases.
func parseJobKind(raw string) (entities.JobKind, bool) {
	switch raw {
	case string(entities.JobKindScriptGeneration), "generation":
		return entities.JobKindScriptGeneration, true
	case string(entities.JobKindProblemExtraction), "extraction":
		return entities.JobKindProblemExtraction, true
	}
	return "", false
}

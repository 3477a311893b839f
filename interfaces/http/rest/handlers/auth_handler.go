package handlers

import (
	"net/http"

	"algoitny-backend/application/ports"
	"algoitny-backend/domain/entities"
	"algoitny-backend/pkg/auth"
	"algoitny-backend/pkg/common"
	apperrors "algoitny-backend/pkg/errors"
	"algoitny-backend/pkg/utils"

	"go.uber.org/zap"
)

const maxAuthBodyBytes = 64 * 1024

// AuthHandler issues and refreshes token pairs.
type AuthHandler struct {
	users      ports.UserRepository
	jwtManager *auth.JWTManager
	logger     *zap.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(users ports.UserRepository, jwtManager *auth.JWTManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{users: users, jwtManager: jwtManager, logger: logger}
}

type tokenRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name" validate:"max=200"`
}

// IssueToken handles POST /auth/token. An unknown email registers a new
// free-plan account.
func (h *AuthHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := common.ParseJSONBody(r, &req, maxAuthBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if apperrors.IsNotFound(err) {
		user, err = entities.NewUser(req.Email, req.Name)
		if err != nil {
			common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
			return
		}
		if err := h.users.Save(r.Context(), user); err != nil {
			common.RespondAppError(w, err)
			return
		}
		h.logger.Info("User registered", zap.String("userID", user.ID))
	} else if err != nil {
		common.RespondAppError(w, err)
		return
	}

	pair, err := h.jwtManager.Issue(user.ID, user.Email, user.Plan, user.IsAdmin)
	if err != nil {
		h.logger.Error("Failed to issue tokens", zap.Error(err))
		common.RespondError(w, http.StatusInternalServerError, string(apperrors.ErrorTypeInternal), "failed to issue tokens")
		return
	}
	common.RespondJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// RefreshToken handles POST /auth/refresh, rotating the pair.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := common.ParseJSONBody(r, &req, maxAuthBodyBytes); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), "invalid request body")
		return
	}
	if err := utils.ValidateStruct(req); err != nil {
		common.RespondError(w, http.StatusBadRequest, string(apperrors.ErrorTypeValidation), err.Error())
		return
	}

	pair, err := h.jwtManager.Refresh(req.RefreshToken)
	if err != nil {
		common.RespondError(w, http.StatusUnauthorized, string(apperrors.ErrorTypeUnauthorized), "invalid refresh token")
		return
	}
	common.RespondJSON(w, http.StatusOK, pair)
}

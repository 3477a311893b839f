// Package middleware holds the HTTP middleware for the REST API.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"algoitny-backend/pkg/auth"
	"algoitny-backend/pkg/common"
	apperrors "algoitny-backend/pkg/errors"

	"go.uber.org/zap"
)

// Authenticate validates bearer tokens and applies per-IP and per-user
// rate limits before the request reaches a handler.
func Authenticate(jwtManager *auth.JWTManager, logger *zap.Logger) func(next http.Handler) http.Handler {
	ipLimiter := auth.NewIPRateLimiter(100)
	userLimiter := auth.NewUserRateLimiter(200)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientIP := getClientIP(r)
			allowed, _ := ipLimiter.Allow(r.Context(), clientIP)
			if !allowed {
				common.RespondError(w, http.StatusTooManyRequests,
					string(apperrors.ErrorTypeRateLimit), "rate limit exceeded")
				return
			}

			token := extractToken(r)
			if token == "" {
				respondUnauthorized(w, "missing authentication token")
				return
			}

			claims, err := jwtManager.ValidateAccess(token)
			if err != nil {
				logger.Debug("Token rejected",
					zap.Error(err),
					zap.String("ip", clientIP),
					zap.String("path", r.URL.Path),
				)
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					respondUnauthorized(w, "token has expired")
				case errors.Is(err, auth.ErrInvalidSignature):
					respondUnauthorized(w, "invalid token signature")
				case errors.Is(err, auth.ErrWrongTokenUse):
					respondUnauthorized(w, "refresh token cannot access the API")
				default:
					respondUnauthorized(w, "invalid token")
				}
				return
			}

			allowed, _ = userLimiter.Allow(r.Context(), claims.UserID)
			if !allowed {
				common.RespondError(w, http.StatusTooManyRequests,
					string(apperrors.ErrorTypeRateLimit), "user rate limit exceeded")
				return
			}

			ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
				UserID:  claims.UserID,
				Email:   claims.Email,
				Plan:    claims.Plan,
				IsAdmin: claims.IsAdmin,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects non-admin callers. Must run inside Authenticate.
func RequireAdmin() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				respondUnauthorized(w, "unauthorized")
				return
			}
			if !user.IsAdmin {
				common.RespondError(w, http.StatusForbidden,
					string(apperrors.ErrorTypeForbidden), "admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken pulls the bearer token from the Authorization header.
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// getClientIP extracts the client IP, preferring proxy headers.
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

func respondUnauthorized(w http.ResponseWriter, message string) {
	common.RespondError(w, http.StatusUnauthorized,
		string(apperrors.ErrorTypeUnauthorized), message)
}

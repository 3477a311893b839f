package auth

import (
	"context"
	"fmt"
)

// UserContext is the authenticated identity attached to a request.
type UserContext struct {
	UserID  string
	Email   string
	Plan    string
	IsAdmin bool
}

type contextKey string

const userContextKey contextKey = "algoitny.user"

// SetUserInContext attaches the authenticated user to the context.
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext retrieves the authenticated user from the context.
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, fmt.Errorf("no authenticated user in context")
	}
	return user, nil
}

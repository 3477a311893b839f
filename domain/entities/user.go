package entities

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Plan names map to per-day usage allowances enforced by the usage log.
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// User is an account holder. Identity comes from the auth provider; the
// profile item only carries what the API needs for display and limits.
type User struct {
	ID        string
	Email     string
	Name      string
	Plan      string
	IsAdmin   bool
	CreatedAt time.Time
}

// NewUser creates a user on the free plan.
func NewUser(email, name string) (*User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("valid email is required")
	}

	return &User{
		ID:        uuid.New().String(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		Plan:      PlanFree,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// DailyExecutionLimit returns how many execution requests the user's plan
// allows per day. Admins are unlimited.
func (u *User) DailyExecutionLimit() int {
	if u.IsAdmin {
		return -1
	}
	switch u.Plan {
	case PlanPro:
		return 200
	default:
		return 20
	}
}

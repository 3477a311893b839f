package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Sentinel errors surfaced by token validation. The auth middleware maps
// these onto distinct 401 messages.
var (
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrInvalidToken     = errors.New("invalid token")
	ErrWrongTokenUse    = errors.New("token not valid for this use")
)

// Token use values distinguishing access tokens from refresh tokens.
const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// Claims are the JWT claims issued by this service.
type Claims struct {
	UserID   string `json:"uid"`
	Email    string `json:"email"`
	Plan     string `json:"plan,omitempty"`
	IsAdmin  bool   `json:"admin,omitempty"`
	TokenUse string `json:"token_use"`
	jwt.RegisteredClaims
}

// JWTConfig configures token issuance and validation.
type JWTConfig struct {
	SecretKey     string
	Issuer        string
	Audience      string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// JWTManager issues and validates HS256 access/refresh token pairs.
type JWTManager struct {
	cfg JWTConfig
}

// NewJWTManager creates a manager, applying expiry defaults.
func NewJWTManager(cfg JWTConfig) (*JWTManager, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("jwt secret key is required")
	}
	if cfg.AccessExpiry == 0 {
		cfg.AccessExpiry = 1 * time.Hour
	}
	if cfg.RefreshExpiry == 0 {
		cfg.RefreshExpiry = 14 * 24 * time.Hour
	}
	return &JWTManager{cfg: cfg}, nil
}

// TokenPair is an issued access/refresh pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Issue generates a fresh access/refresh pair for the given identity.
func (m *JWTManager) Issue(userID, email, plan string, isAdmin bool) (*TokenPair, error) {
	access, err := m.sign(userID, email, plan, isAdmin, TokenUseAccess, m.cfg.AccessExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh, err := m.sign(userID, email, plan, isAdmin, TokenUseRefresh, m.cfg.RefreshExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(m.cfg.AccessExpiry.Seconds()),
	}, nil
}

// Refresh validates a refresh token and rotates the pair. The new pair
// carries the same identity claims as the refresh token presented.
func (m *JWTManager) Refresh(refreshToken string) (*TokenPair, error) {
	claims, err := m.validate(refreshToken)
	if err != nil {
		return nil, err
	}
	if claims.TokenUse != TokenUseRefresh {
		return nil, ErrWrongTokenUse
	}
	return m.Issue(claims.UserID, claims.Email, claims.Plan, claims.IsAdmin)
}

// ValidateAccess validates an access token and returns its claims.
func (m *JWTManager) ValidateAccess(token string) (*Claims, error) {
	claims, err := m.validate(token)
	if err != nil {
		return nil, err
	}
	if claims.TokenUse != TokenUseAccess {
		return nil, ErrWrongTokenUse
	}
	return claims, nil
}

func (m *JWTManager) sign(userID, email, plan string, isAdmin bool, use string, expiry time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   userID,
		Email:    email,
		Plan:     plan,
		IsAdmin:  isAdmin,
		TokenUse: use,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.cfg.Issuer,
			Audience:  jwt.ClaimStrings{m.cfg.Audience},
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiry)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.cfg.SecretKey))
}

func (m *JWTManager) validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(m.cfg.SecretKey), nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrSignatureInvalid):
			return nil, ErrInvalidSignature
		default:
			return nil, ErrInvalidToken
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

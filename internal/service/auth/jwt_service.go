package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JWTService mints and validates the access/refresh token pair. Access
// tokens authenticate API requests; refresh tokens are only accepted by the
// token refresh endpoint.
type JWTService interface {
	// GenerateToken mints a signed access token for the user.
	GenerateToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateToken checks an access token and returns its claims, or an
	// error for expired, malformed, or wrong-type tokens.
	ValidateToken(ctx context.Context, tokenString string) (*Claims, error)

	// GenerateRefreshToken mints a signed refresh token for the user.
	GenerateRefreshToken(ctx context.Context, userID uuid.UUID) (string, error)

	// ValidateRefreshToken checks a refresh token and returns its claims.
	ValidateRefreshToken(ctx context.Context, tokenString string) (*Claims, error)
}

// Claims is the decoded token payload handed back to callers after
// validation.
type Claims struct {
	UserID uuid.UUID `json:"uid,omitempty"`

	// TokenType is "access" or "refresh". Validation rejects a token
	// presented in the wrong context.
	TokenType string `json:"type,omitempty"`

	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}

package auth

import (
	"context"

	"valvx/internal/domain/models"
)

// TokenVerifier validates a bearer or cookie token and returns the caller.
// Implementations return domain.ErrUnauthorized for any invalid token so the
// middleware stays agnostic to how the token was checked.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString string) (*models.Principal, error)

	// Close releases any resources held by the verifier (e.g. JWKS refresh).
	Close() error
}

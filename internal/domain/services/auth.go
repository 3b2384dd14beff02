package services

import (
	"context"
	"time"

	"valvx/internal/domain/models"
)

// AuthService signs users in and out and resolves session tokens.
type AuthService interface {
	// Login checks credentials and issues a session token
	Login(ctx context.Context, req *LoginRequest) (*LoginResult, error)

	// Logout revokes the caller's session token until it would have expired
	Logout(ctx context.Context, principal *models.Principal) error

	// Authenticate resolves a raw token into a principal
	Authenticate(ctx context.Context, token string) (*models.Principal, error)

	// CurrentUser loads the account behind a principal
	CurrentUser(ctx context.Context, principal *models.Principal) (*models.User, error)

	// CreateUser registers an account (used by the admin CLI)
	CreateUser(ctx context.Context, req *CreateUserRequest) (*models.User, error)
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	User      *models.User
}

type CreateUserRequest struct {
	Username string
	Name     string
	Password string
}

// Package account implements sign-in, sign-out and user management.
package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"golang.org/x/crypto/bcrypt"

	"valvx/internal/domain"
	"valvx/internal/domain/models"
	"valvx/internal/domain/repositories"
	"valvx/internal/domain/services"
)

// MinPasswordLength applies to accounts created through CreateUser.
const MinPasswordLength = 8

// Verifier resolves a raw bearer token.
type Verifier interface {
	Verify(ctx context.Context, token string) (*models.Principal, error)
}

// Tokens issues, verifies and revokes session tokens.
type Tokens interface {
	Verifier
	Issue(user *models.User) (string, time.Time, error)
	Revoke(ctx context.Context, p *models.Principal) error
}

type authService struct {
	userRepo   repositories.UserRepository
	tokens     Tokens
	verifier   Verifier
	bcryptCost int
	dummyHash  []byte
	logger     *slog.Logger
}

// NewAuthService creates the auth service. verifier resolves tokens on
// requests and may chain the session issuer with external verifiers; nil
// uses tokens alone.
func NewAuthService(
	userRepo repositories.UserRepository,
	tokens Tokens,
	verifier Verifier,
	logger *slog.Logger,
) services.AuthService {
	if verifier == nil {
		verifier = tokens
	}
	s := &authService{
		userRepo:   userRepo,
		tokens:     tokens,
		verifier:   verifier,
		bcryptCost: bcrypt.DefaultCost,
		logger:     logger,
	}
	// Compared against when the user does not exist so both paths cost the same.
	s.dummyHash, _ = bcrypt.GenerateFromPassword([]byte("not-a-real-password"), s.bcryptCost)
	return s
}

var errInvalidCredentials = fmt.Errorf("invalid username or password: %w", domain.ErrUnauthorized)

func (s *authService) Login(ctx context.Context, req *services.LoginRequest) (*services.LoginResult, error) {
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return nil, errInvalidCredentials
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword(s.dummyHash, []byte(req.Password))
			s.logger.Info("login failed", "username", req.Username, "reason", "unknown user")
			return nil, errInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Info("login failed", "username", req.Username, "reason", "wrong password")
		return nil, errInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	return &services.LoginResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

func (s *authService) Logout(ctx context.Context, principal *models.Principal) error {
	if principal == nil {
		return nil
	}
	if principal.External {
		// External tokens are owned by the identity provider.
		return nil
	}
	if err := s.tokens.Revoke(ctx, principal); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.logger.Info("user logged out", "user_id", principal.UserID, "username", principal.Username)
	return nil
}

func (s *authService) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	if token == "" {
		return nil, domain.ErrUnauthorized
	}
	return s.verifier.Verify(ctx, token)
}

// CurrentUser loads the stored account. External principals have no row and
// are returned as-is.
func (s *authService) CurrentUser(ctx context.Context, principal *models.Principal) (*models.User, error) {
	if principal == nil {
		return nil, domain.ErrUnauthorized
	}
	if principal.External {
		return &models.User{Username: principal.Username, Name: principal.Name}, nil
	}

	user, err := s.userRepo.GetByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Account removed after the token was issued.
			return nil, domain.ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) CreateUser(ctx context.Context, req *services.CreateUserRequest) (*models.User, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Name = strings.TrimSpace(req.Name)

	err := validation.ValidateStruct(req,
		validation.Field(&req.Username, validation.Required, validation.RuneLength(1, 255), is.PrintableASCII),
		validation.Field(&req.Name, validation.RuneLength(0, 255)),
		validation.Field(&req.Password, validation.Required, validation.Length(MinPasswordLength, 72)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Username:     req.Username,
		Name:         req.Name,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.ID, "username", user.Username)
	return user, nil
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"valvx/internal/domain"
	"valvx/internal/domain/models"
)

const issuer = "valvx"

// SessionClaims are the claims carried by session tokens issued at login.
type SessionClaims struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	jwt.RegisteredClaims
}

// TokenIssuer signs and verifies HS256 session tokens.
type TokenIssuer struct {
	secret  []byte
	ttl     time.Duration
	revoked RevocationStore
	logger  *slog.Logger
	now     func() time.Time
}

// NewTokenIssuer creates an issuer. revoked may be nil when logout revocation
// is not needed (e.g. in the CLI).
func NewTokenIssuer(secret string, ttl time.Duration, revoked RevocationStore, logger *slog.Logger) *TokenIssuer {
	return &TokenIssuer{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: revoked,
		logger:  logger,
		now:     time.Now,
	}
}

// Issue signs a session token for user.
func (t *TokenIssuer) Issue(user *models.User) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.ttl)

	claims := SessionClaims{
		Username: user.Username,
		Name:     user.Name,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign session token: %w", err)
	}
	return signed, expiresAt, nil
}

// Verify checks signature, expiry and revocation of a session token.
func (t *TokenIssuer) Verify(ctx context.Context, tokenString string) (*models.Principal, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return t.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil || !token.Valid {
		t.logger.Debug("session token rejected", "error", err)
		return nil, domain.ErrUnauthorized
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || claims.ID == "" {
		return nil, domain.ErrUnauthorized
	}

	if t.revoked != nil {
		revoked, err := t.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("check revocation: %w", err)
		}
		if revoked {
			return nil, domain.ErrUnauthorized
		}
	}

	return &models.Principal{
		UserID:    userID,
		Username:  claims.Username,
		Name:      claims.Name,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// Revoke marks the principal's token as revoked until it expires.
func (t *TokenIssuer) Revoke(ctx context.Context, p *models.Principal) error {
	if t.revoked == nil || p.TokenID == "" {
		return nil
	}
	return t.revoked.Revoke(ctx, p.TokenID, p.ExpiresAt)
}

func (t *TokenIssuer) Close() error { return nil }

// ChainVerifier tries each verifier in order and returns the first success.
type ChainVerifier []TokenVerifier

func (c ChainVerifier) Verify(ctx context.Context, tokenString string) (*models.Principal, error) {
	for _, v := range c {
		p, err := v.Verify(ctx, tokenString)
		if err == nil {
			return p, nil
		}
		if !errors.Is(err, domain.ErrUnauthorized) {
			return nil, err
		}
	}
	return nil, domain.ErrUnauthorized
}

func (c ChainVerifier) Close() error {
	var errs []error
	for _, v := range c {
		errs = append(errs, v.Close())
	}
	return errors.Join(errs...)
}

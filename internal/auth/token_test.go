package auth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/golang-jwt/jwt/v5"

	"valvx/internal/domain"
	"valvx/internal/domain/models"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTokenIssuer_IssueAndVerify(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	issuer := NewTokenIssuer("secret", time.Hour, NewMemoryRevocationStore(), testLogger())

	token, expiresAt, err := issuer.Issue(&models.User{ID: 7, Username: "user@example.com", Name: "Test User"})
	c.Assert(err, qt.IsNil)
	c.Assert(expiresAt.After(time.Now()), qt.IsTrue)

	p, err := issuer.Verify(ctx, token)
	c.Assert(err, qt.IsNil)
	c.Assert(p.UserID, qt.Equals, int64(7))
	c.Assert(p.Username, qt.Equals, "user@example.com")
	c.Assert(p.Name, qt.Equals, "Test User")
	c.Assert(p.TokenID, qt.Not(qt.Equals), "")
	c.Assert(p.External, qt.IsFalse)
}

func TestTokenIssuer_Rejects(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: 1, Username: "u"}

	good := NewTokenIssuer("secret", time.Hour, nil, testLogger())
	other := NewTokenIssuer("other-secret", time.Hour, nil, testLogger())
	expired := NewTokenIssuer("secret", time.Hour, nil, testLogger())
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	wrongKey, _, err := other.Issue(user)
	qt.Assert(t, err, qt.IsNil)
	old, _, err := expired.Issue(user)
	qt.Assert(t, err, qt.IsNil)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   "1",
			ID:        "x",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	qt.Assert(t, err, qt.IsNil)

	tests := []struct {
		name  string
		token string
	}{
		{"garbage", "not-a-token"},
		{"wrong key", wrongKey},
		{"expired", old},
		{"alg none", none},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			_, err := good.Verify(ctx, tt.token)
			c.Assert(errors.Is(err, domain.ErrUnauthorized), qt.IsTrue)
		})
	}
}

func TestTokenIssuer_Revoke(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	issuer := NewTokenIssuer("secret", time.Hour, NewMemoryRevocationStore(), testLogger())

	token, _, err := issuer.Issue(&models.User{ID: 3, Username: "u"})
	c.Assert(err, qt.IsNil)
	p, err := issuer.Verify(ctx, token)
	c.Assert(err, qt.IsNil)

	c.Assert(issuer.Revoke(ctx, p), qt.IsNil)

	_, err = issuer.Verify(ctx, token)
	c.Assert(err, qt.ErrorIs, domain.ErrUnauthorized)
}

type stubVerifier struct {
	p   *models.Principal
	err error
}

func (s stubVerifier) Verify(context.Context, string) (*models.Principal, error) { return s.p, s.err }
func (s stubVerifier) Close() error                                              { return nil }

func TestChainVerifier(t *testing.T) {
	ctx := context.Background()
	ok := &models.Principal{Username: "ext", External: true}
	boom := errors.New("redis down")

	tests := []struct {
		name    string
		chain   ChainVerifier
		want    *models.Principal
		wantErr error
	}{
		{"empty", ChainVerifier{}, nil, domain.ErrUnauthorized},
		{"second succeeds", ChainVerifier{stubVerifier{err: domain.ErrUnauthorized}, stubVerifier{p: ok}}, ok, nil},
		{"all fail", ChainVerifier{stubVerifier{err: domain.ErrUnauthorized}, stubVerifier{err: domain.ErrUnauthorized}}, nil, domain.ErrUnauthorized},
		{"infrastructure error stops", ChainVerifier{stubVerifier{err: boom}, stubVerifier{p: ok}}, nil, boom},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			p, err := tt.chain.Verify(ctx, "token")
			if tt.wantErr != nil {
				c.Assert(err, qt.ErrorIs, tt.wantErr)
				return
			}
			c.Assert(err, qt.IsNil)
			c.Assert(p, qt.Equals, tt.want)
		})
	}
}

package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"valvx/internal/domain"
	"valvx/internal/domain/models"
	"valvx/internal/httputil"
)

// SessionCookie is the HttpOnly cookie set at login.
const SessionCookie = "session"

// Authenticator resolves a raw token into the calling principal.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.Principal, error)
}

// TokenFromRequest returns the session token from the session cookie or an
// Authorization: Bearer header. allowQuery also accepts ?auth_token=, which
// browsers need for WebSocket upgrades.
func TokenFromRequest(r *http.Request, allowQuery bool) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		const prefix = "Bearer "
		if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
			return strings.TrimSpace(h[len(prefix):])
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if allowQuery {
		return r.URL.Query().Get("auth_token")
	}
	return ""
}

// Auth attaches the principal to the request when a valid token is present.
// It never rejects a request; RequireAuth does that per route.
func Auth(authn Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r, r.URL.Path == "/ws")
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := authn.Authenticate(r.Context(), token)
			switch {
			case err == nil:
				r = httputil.WithPrincipal(r, principal)
			case errors.Is(err, domain.ErrUnauthorized):
				logger.Debug("invalid token", "path", r.URL.Path)
			default:
				logger.Error("token verification failed", "path", r.URL.Path, "error", err)
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuth rejects requests without a principal with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if httputil.GetPrincipal(r) == nil {
			httputil.RespondError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

package httputil

import (
	"context"
	"net/http"

	"valvx/internal/domain/models"
)

// Context key type to avoid collisions
type contextKey string

const (
	principalKey contextKey = "principal"
	requestIDKey contextKey = "requestID"
)

// WithPrincipal adds the authenticated caller to the request context
func WithPrincipal(r *http.Request, p *models.Principal) *http.Request {
	ctx := context.WithValue(r.Context(), principalKey, p)
	return r.WithContext(ctx)
}

// GetPrincipal retrieves the caller from context, nil if unauthenticated
func GetPrincipal(r *http.Request) *models.Principal {
	p, _ := r.Context().Value(principalKey).(*models.Principal)
	return p
}

// Username returns the caller's username or "" when unauthenticated.
func Username(r *http.Request) string {
	if p := GetPrincipal(r); p != nil {
		return p.Username
	}
	return ""
}

func WithRequestID(r *http.Request, id string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), requestIDKey, id))
}

func GetRequestID(r *http.Request) string {
	id, _ := r.Context().Value(requestIDKey).(string)
	return id
}

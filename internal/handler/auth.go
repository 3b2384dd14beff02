package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"valvx/internal/domain"
	"valvx/internal/domain/models"
	"valvx/internal/domain/services"
	"valvx/internal/httputil"
	"valvx/internal/middleware"
)

// AuthHandler serves login, logout and the current-user endpoints.
type AuthHandler struct {
	authService  services.AuthService
	secureCookie bool
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth handler. secureCookie marks the session
// cookie Secure, which requires HTTPS.
func NewAuthHandler(authService services.AuthService, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type loginResponse struct {
	Success   bool         `json:"success"`
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Login checks credentials and starts a session
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		respondFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		if errors.Is(err, domain.ErrUnauthorized) {
			httputil.RespondJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"success": false,
				"message": "invalid username or password",
			})
			return
		}
		handleError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})

	httputil.RespondJSON(w, http.StatusOK, loginResponse{
		Success:   true,
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User:      result.User,
	})
}

// Logout revokes the session and clears the cookie
// POST /api/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), httputil.GetPrincipal(r)); err != nil {
		handleError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	httputil.RespondJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// CurrentUser returns the signed-in account
// GET /api/user
func (h *AuthHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.CurrentUser(r.Context(), httputil.GetPrincipal(r))
	if err != nil {
		handleError(w, h.logger, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, user)
}

// CheckAuth reports whether the caller is signed in. It always answers 200.
// GET /api/check-auth
func (h *AuthHandler) CheckAuth(w http.ResponseWriter, r *http.Request) {
	principal := httputil.GetPrincipal(r)
	if principal == nil {
		httputil.RespondJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
		return
	}

	user, err := h.authService.CurrentUser(r.Context(), principal)
	if err != nil {
		if !errors.Is(err, domain.ErrUnauthorized) {
			h.logger.Error("load current user failed", "error", err)
		}
		httputil.RespondJSON(w, http.StatusOK, map[string]bool{"authenticated": false})
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"authenticated": true,
		"user":          user,
	})
}

package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"valvx/internal/domain"
	"valvx/internal/httputil"
)

// handleError converts domain errors to problem+json responses. Bodies also
// carry success:false and message for the browser client.
func handleError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := domain.StatusCode(err)
	message := err.Error()
	extras := map[string]interface{}{"success": false}

	var conflictErr *domain.ConflictError
	switch {
	case errors.As(err, &conflictErr):
		extras["resource_type"] = conflictErr.ResourceType
		if conflictErr.ResourceID != "" {
			extras["resource_id"] = conflictErr.ResourceID
		}
	case status == http.StatusNotFound:
		message = "not found"
	case status == http.StatusUnauthorized:
		message = "authentication required"
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "error", err)
		message = "internal server error"
	}

	extras["message"] = message
	httputil.RespondErrorWithExtras(w, status, message, extras)
}

// respondFailure writes a client error that did not come from a service.
func respondFailure(w http.ResponseWriter, status int, message string) {
	httputil.RespondErrorWithExtras(w, status, message, map[string]interface{}{
		"success": false,
		"message": message,
	})
}

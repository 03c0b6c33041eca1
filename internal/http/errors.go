package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/fernhill/userd/internal/service"
	"github.com/fernhill/userd/pkg/httpx"
)

// writeServiceError translates service-layer errors into wire responses.
// Anything unrecognised is a 500 with a generic body; the detail only goes
// to the log.
func writeServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredential):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password")
	case errors.Is(err, service.ErrUnauthorized):
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Credential rejected")
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, "not_found", "No such user")
	case errors.Is(err, service.ErrDuplicateEmail):
		httpx.WriteError(w, http.StatusBadRequest, "duplicate_email", "Email is already registered")
	case errors.Is(err, service.ErrFeatureDisabled):
		httpx.WriteError(w, http.StatusBadRequest, "feature_disabled", "Operation not available in this mode")
	case errors.Is(err, service.ErrTwoFANotEnabled):
		httpx.WriteError(w, http.StatusBadRequest, "2fa_not_enabled", "2FA is not enabled for this user")
	default:
		log.Error("request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "Internal server error")
	}
}

func writeInvalidRequest(w http.ResponseWriter, description string) {
	httpx.WriteError(w, http.StatusBadRequest, "invalid_request", description)
}

package http

import (
	"encoding/json"
	"net/http"

	"github.com/fernhill/userd/internal/service"
	"github.com/fernhill/userd/pkg/httpx"
	"github.com/fernhill/userd/pkg/slogx"
)

// TwoFAHandler handles TOTP enrollment and validation.
type TwoFAHandler struct {
	AuthService *service.AuthService
}

// HandleEnable handles POST /v1/auth/2fa/enable
//
//	@Summary		Enable TOTP 2FA
//	@Description	Provisions a TOTP secret for the caller and returns it once in plain text. Enabling again returns the same secret.
//	@Tags			2FA
//	@Security		BearerAuth
//	@Produce		json
//	@Success		200	{object}	twoFASecretResponse	"Base32 TOTP secret"
//	@Failure		400	{object}	httpx.ErrorResponse	"Not available in this mode"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/2fa/enable [post].
func (h *TwoFAHandler) HandleEnable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Missing identity")
		return
	}

	secret, err := h.AuthService.Enable2FA(ctx, userID)
	if err != nil {
		log.Warn("2fa enable failed", "user_id", userID, "err", err)
		writeServiceError(w, log, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, twoFASecretResponse{Secret: secret})
}

// HandleValidate handles POST /v1/auth/2fa/validate
//
//	@Summary		Validate a TOTP code
//	@Description	Checks a six digit code against the caller's enrolled secret.
//	@Tags			2FA
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		twoFAValidateRequest	true	"TOTP code"
//	@Success		200		{object}	twoFAValidateResponse	"Validation result"
//	@Failure		400		{object}	httpx.ErrorResponse		"2FA not enabled or malformed request"
//	@Failure		401		{object}	httpx.ErrorResponse		"Invalid or missing access token"
//	@Failure		500		{object}	httpx.ErrorResponse		"Internal server error"
//	@Router			/v1/auth/2fa/validate [post].
func (h *TwoFAHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Missing identity")
		return
	}

	var req twoFAValidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w, "Invalid JSON body")
		return
	}
	if req.Code == "" {
		writeInvalidRequest(w, "code is required")
		return
	}

	valid, err := h.AuthService.Validate2FAToken(ctx, userID, req.Code)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}
	if !valid {
		log.Warn("invalid TOTP code", "user_id", userID)
	}

	httpx.WriteJSON(w, http.StatusOK, twoFAValidateResponse{Valid: valid})
}

// HandleDisable handles DELETE /v1/auth/2fa
//
//	@Summary		Disable TOTP 2FA
//	@Description	Clears the caller's TOTP secret and flag.
//	@Tags			2FA
//	@Security		BearerAuth
//	@Success		204	"2FA disabled"
//	@Failure		400	{object}	httpx.ErrorResponse	"Not available in this mode"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/2fa [delete].
func (h *TwoFAHandler) HandleDisable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Missing identity")
		return
	}

	if err := h.AuthService.Disable2FA(ctx, userID); err != nil {
		writeServiceError(w, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

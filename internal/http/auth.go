package http

import (
	"encoding/json"
	"net/http"

	"github.com/fernhill/userd/internal/service"
	"github.com/fernhill/userd/pkg/httpx"
	"github.com/fernhill/userd/pkg/slogx"
)

// AuthHandler handles the session endpoints: login, refresh, logout and the
// API-key profile lookup.
type AuthHandler struct {
	AuthService *service.AuthService
}

// HandleLogin handles POST /v1/auth/login
//
//	@Summary		Log in with email and password
//	@Description	Verifies credentials and returns an access/refresh token pair. A new login replaces any existing refresh session.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		loginRequest			true	"Credentials"
//	@Success		200		{object}	loginResponse			"Token pair and profile"
//	@Failure		400		{object}	httpx.ErrorResponse		"Malformed request"
//	@Failure		401		{object}	httpx.ErrorResponse		"Invalid email or password"
//	@Failure		500		{object}	httpx.ErrorResponse		"Internal server error"
//	@Router			/v1/auth/login [post].
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w, "Invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		writeInvalidRequest(w, err.Error())
		return
	}

	pair, user, err := h.AuthService.Login(ctx, req.Email, req.Password)
	if err != nil {
		log.Warn("login rejected", "email", req.Email, "err", err)
		writeServiceError(w, log, err)
		return
	}

	log.Info("login succeeded", "user_id", user.ID)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, loginResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         mapUser(user, false),
	})
}

// HandleRefresh handles POST /v1/auth/refresh
//
//	@Summary		Rotate a refresh token
//	@Description	Exchanges a valid refresh token for a new pair. Presenting a rotated-out token revokes the session.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		refreshRequest		true	"Current refresh token"
//	@Success		200		{object}	tokenResponse		"New token pair"
//	@Failure		400		{object}	httpx.ErrorResponse	"Malformed request"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid, expired or replayed refresh token"
//	@Failure		500		{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/refresh [post].
func (h *AuthHandler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w, "Invalid JSON body")
		return
	}
	if req.RefreshToken == "" {
		writeInvalidRequest(w, "refreshToken is required")
		return
	}

	pair, err := h.AuthService.Refresh(ctx, req.RefreshToken)
	if err != nil {
		log.Warn("refresh rejected", "err", err)
		writeServiceError(w, log, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// HandleLogout handles POST /v1/auth/logout
//
//	@Summary		Log out
//	@Description	Clears the caller's refresh session. Safe to call when no session exists.
//	@Tags			Auth
//	@Security		BearerAuth
//	@Success		204	"Session cleared"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		500	{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/logout [post].
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	userID := httpx.UserIDFromContext(ctx)
	if userID == "" {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "Missing identity")
		return
	}

	if err := h.AuthService.Logout(ctx, userID); err != nil {
		writeServiceError(w, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleProfile handles GET /v1/auth/profile
//
//	@Summary		Look up the profile behind an API key
//	@Description	Resolves the X-API-Key header to its owning account. This is the service-to-service auth path.
//	@Tags			Auth
//	@Produce		json
//	@Param			X-API-Key	header		string				true	"API key"
//	@Success		200			{object}	userResponse		"Owning account"
//	@Failure		401			{object}	httpx.ErrorResponse	"Unknown API key"
//	@Failure		500			{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/auth/profile [get].
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, err := h.AuthService.ValidateAPIKey(ctx, r.Header.Get("X-API-Key"))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, mapUser(user, true))
}

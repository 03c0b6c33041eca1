package http

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/fernhill/userd/internal/domain"
	"github.com/fernhill/userd/internal/service"
	"github.com/fernhill/userd/pkg/httpx"
	"github.com/fernhill/userd/pkg/slogx"
)

// UserHandler handles account CRUD.
type UserHandler struct {
	UserService *service.UserService
}

// HandleCreate handles POST /v1/users
//
//	@Summary		Register a new account
//	@Description	Creates an account and returns it including the generated API key. The key is shown here and on the profile endpoint only.
//	@Tags			Users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		registerRequest		true	"Account details"
//	@Success		201		{object}	userResponse		"Created account"
//	@Failure		400		{object}	httpx.ErrorResponse	"Validation failure or duplicate email"
//	@Failure		500		{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/users [post].
func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w, "Invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		writeInvalidRequest(w, err.Error())
		return
	}

	user, err := h.UserService.Register(ctx, req.UserName, req.Email, req.Password, domain.RoleUser)
	if err != nil {
		log.Warn("registration failed", "email", req.Email, "err", err)
		writeServiceError(w, log, err)
		return
	}

	log.Info("user registered", "user_id", user.ID)
	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusCreated, mapUser(user, true))
}

// HandleList handles GET /v1/users
//
//	@Summary		List accounts
//	@Description	Returns a page of accounts, newest first. Admin only.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			page		query		int					false	"Page number (1-based)"
//	@Param			pageSize	query		int					false	"Page size (max 100)"
//	@Success		200			{object}	userListResponse	"Page of accounts"
//	@Failure		401			{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		403			{object}	httpx.ErrorResponse	"Caller is not an admin"
//	@Failure		500			{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/users [get].
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))

	result, err := h.UserService.List(ctx, page, pageSize)
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	users := make([]userResponse, 0, len(result.Users))
	for _, u := range result.Users {
		users = append(users, mapUser(u, false))
	}

	httpx.WriteJSON(w, http.StatusOK, userListResponse{
		Users:      users,
		Total:      result.Total,
		Page:       result.Page,
		PageSize:   result.PageSize,
		TotalPages: result.TotalPages,
	})
}

// HandleGet handles GET /v1/users/{id}
//
//	@Summary		Get an account
//	@Description	Returns a single account. Callers can fetch themselves; admins can fetch anyone.
//	@Tags			Users
//	@Security		BearerAuth
//	@Produce		json
//	@Param			id	path		string				true	"User id"
//	@Success		200	{object}	userResponse		"Account"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		403	{object}	httpx.ErrorResponse	"Not the caller's own account"
//	@Failure		404	{object}	httpx.ErrorResponse	"No such user"
//	@Failure		500	{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/users/{id} [get].
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	user, err := h.UserService.Get(ctx, r.PathValue("id"))
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, mapUser(user, false))
}

// HandleUpdate handles PATCH /v1/users/{id}
//
//	@Summary		Update an account
//	@Description	Applies a partial update to name, email or password. Changing the role requires an admin caller.
//	@Tags			Users
//	@Security		BearerAuth
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string				true	"User id"
//	@Param			request	body		updateUserRequest	true	"Fields to change"
//	@Success		200		{object}	userResponse		"Updated account"
//	@Failure		400		{object}	httpx.ErrorResponse	"Validation failure or duplicate email"
//	@Failure		401		{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		403		{object}	httpx.ErrorResponse	"Not the caller's own account"
//	@Failure		404		{object}	httpx.ErrorResponse	"No such user"
//	@Failure		500		{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/users/{id} [patch].
func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequest(w, "Invalid JSON body")
		return
	}
	if err := req.validate(); err != nil {
		writeInvalidRequest(w, err.Error())
		return
	}

	// Role changes are admin-only, even on the caller's own account.
	if req.Role != nil && !domain.RoleAtLeast(domain.Role(httpx.RoleFromContext(ctx)), domain.RoleAdmin) {
		httpx.WriteError(w, http.StatusForbidden, "forbidden", "Only admins can change roles")
		return
	}

	user, err := h.UserService.Update(ctx, r.PathValue("id"), service.UpdateParams{
		UserName: req.UserName,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		writeServiceError(w, log, err)
		return
	}

	log.Info("user updated", "user_id", user.ID)
	httpx.WriteJSON(w, http.StatusOK, mapUser(user, false))
}

// HandleDelete handles DELETE /v1/users/{id}
//
//	@Summary		Delete an account
//	@Description	Hard-deletes an account.
//	@Tags			Users
//	@Security		BearerAuth
//	@Param			id	path	string	true	"User id"
//	@Success		204	"Account removed"
//	@Failure		401	{object}	httpx.ErrorResponse	"Invalid or missing access token"
//	@Failure		403	{object}	httpx.ErrorResponse	"Not the caller's own account"
//	@Failure		404	{object}	httpx.ErrorResponse	"No such user"
//	@Failure		500	{object}	httpx.ErrorResponse	"Internal server error"
//	@Router			/v1/users/{id} [delete].
func (h *UserHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := h.UserService.Delete(ctx, r.PathValue("id")); err != nil {
		writeServiceError(w, log, err)
		return
	}

	log.Info("user deleted", "user_id", r.PathValue("id"))
	w.WriteHeader(http.StatusNoContent)
}

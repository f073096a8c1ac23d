package user

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Roger-dornelles/pizzeria-project/internal/middleware"
	"github.com/Roger-dornelles/pizzeria-project/internal/response"
)

// Handler holds HTTP handlers for user-related endpoints.
type Handler struct {
	svc *Service
}

// NewHandler creates a new user Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create godoc
//
//	@Summary		Register
//	@Description	Create a new account. The email must not be registered yet.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CreateUserInput	true	"New account"
//	@Success		201		{object}	response.Envelope{data=User}
//	@Failure		400		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Failure		500		{object}	response.Envelope
//	@Router			/users [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in CreateUserInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	u, err := h.svc.Create(r.Context(), in)
	if err != nil {
		response.Err(w, err)
		return
	}

	response.Created(w, u)
}

// GetMe godoc
//
//	@Summary		Get current user
//	@Description	Returns the profile of the currently authenticated user.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=User}
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Failure		500	{object}	response.Envelope
//	@Router			/users/me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Unauthorized(w, "Usuario sem permissão.")
		return
	}

	u, err := h.svc.GetByID(r.Context(), userID)
	if err != nil {
		response.Err(w, err)
		return
	}

	response.OK(w, u)
}

// GetByID godoc
//
//	@Summary		Get user
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"User ID"
//	@Success		200	{object}	response.Envelope{data=User}
//	@Failure		400	{object}	response.Envelope
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/users/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	u, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		response.Err(w, err)
		return
	}

	response.OK(w, u)
}

// Update godoc
//
//	@Summary		Update user
//	@Description	Change name, email or password of the caller's own account. Omitted fields are kept.
//	@Tags			users
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		int				true	"User ID"
//	@Param			request	body		UpdateUserInput	true	"Fields to change"
//	@Success		200		{object}	response.Envelope{data=User}
//	@Failure		400		{object}	response.Envelope
//	@Failure		401		{object}	response.Envelope
//	@Failure		404		{object}	response.Envelope
//	@Failure		409		{object}	response.Envelope
//	@Router			/users/{id} [put]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownID(w, r)
	if !ok {
		return
	}

	var in UpdateUserInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}

	u, err := h.svc.Update(r.Context(), id, in)
	if err != nil {
		response.Err(w, err)
		return
	}

	response.OK(w, u)
}

// Delete godoc
//
//	@Summary		Delete user
//	@Description	Delete the caller's own account together with its products.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		int	true	"User ID"
//	@Success		200	{object}	response.Envelope{data=response.Message}
//	@Failure		400	{object}	response.Envelope
//	@Failure		401	{object}	response.Envelope
//	@Failure		404	{object}	response.Envelope
//	@Router			/users/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.ownID(w, r)
	if !ok {
		return
	}

	msg, err := h.svc.Delete(r.Context(), id)
	if err != nil {
		response.Err(w, err)
		return
	}

	email, _ := middleware.UserEmailFromContext(r.Context())
	slog.Info("account deleted", "user_id", id, "email", email)

	response.OK(w, response.Message{Message: msg})
}

// ownID returns the {id} path parameter when it names the caller's own account.
func (h *Handler) ownID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, ok := pathID(w, r)
	if !ok {
		return 0, false
	}
	callerID, ok := middleware.UserIDFromContext(r.Context())
	if !ok || callerID != id {
		response.Unauthorized(w, "Usuario sem permissão.")
		return 0, false
	}
	return id, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(w, "id inválido")
		return 0, false
	}
	return id, true
}

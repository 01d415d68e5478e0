package handlers

import (
	"net/http"

	"github.com/upb/blog-api/services"
	"github.com/upb/blog-api/utils"
	"go.uber.org/zap"
)

// UpdateProfileRequest is the body of PUT /users/me. Omitted fields are kept.
type UpdateProfileRequest struct {
	FullName *string `json:"full_name" validate:"omitempty,max=100"`
	Email    *string `json:"email" validate:"omitempty,email,max=255"`
}

// UserHandler serves user listing and profile endpoints
type UserHandler struct {
	users  *services.UserService
	logger *zap.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users *services.UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{users: users, logger: logger}
}

// HandleList handles GET /users
func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	page, ok := pagination(w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.users.List(r.Context(), page)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeLogged(h.logger, utils.WriteOK(w, result))
}

// HandleGetMe handles GET /users/me
func (h *UserHandler) HandleGetMe(w http.ResponseWriter, r *http.Request) {
	user, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	writeLogged(h.logger, utils.WriteOK(w, user))
}

// HandleUpdateMe handles PUT /users/me
func (h *UserHandler) HandleUpdateMe(w http.ResponseWriter, r *http.Request) {
	principal, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if !decodeRequest(w, r, &req, h.logger) {
		return
	}

	user, err := h.users.UpdateProfile(r.Context(), principal, services.UpdateProfileInput{
		FullName: req.FullName,
		Email:    req.Email,
	})
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeLogged(h.logger, utils.WriteOKMessage(w, "Profile updated successfully", user))
}

// HandleGet handles GET /users/{id}
func (h *UserHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeLogged(h.logger, utils.WriteOK(w, user))
}

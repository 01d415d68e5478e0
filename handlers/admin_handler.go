package handlers

import (
	"net/http"

	"github.com/upb/blog-api/services"
	"github.com/upb/blog-api/utils"
	"go.uber.org/zap"
)

// AdminHandler serves the admin-only endpoints. Routes must sit behind
// RequireAuth and RequireAdmin.
type AdminHandler struct {
	admin  *services.AdminService
	logger *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(admin *services.AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{admin: admin, logger: logger}
}

// HandleDashboard handles GET /admin/dashboard
func (h *AdminHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.admin.Dashboard(r.Context())
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeLogged(h.logger, utils.WriteOK(w, stats))
}

// HandleListUsers handles GET /admin/users
func (h *AdminHandler) HandleListUsers(w http.ResponseWriter, r *http.Request) {
	page, ok := pagination(w, r, h.logger)
	if !ok {
		return
	}

	result, err := h.admin.ListUsers(r.Context(), page)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeLogged(h.logger, utils.WriteOK(w, result))
}

// HandleToggleActive handles PATCH /admin/users/{id}/toggle-active
func (h *AdminHandler) HandleToggleActive(w http.ResponseWriter, r *http.Request) {
	actor, ok := requirePrincipal(w, r, h.logger)
	if !ok {
		return
	}
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	user, err := h.admin.ToggleActive(r.Context(), actor, id)
	if err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}

	message := "User deactivated"
	if user.IsActive {
		message = "User activated"
	}
	writeLogged(h.logger, utils.WriteOKMessage(w, message, user))
}

// HandleDeletePost handles DELETE /admin/posts/{id}. The row is removed
// whether or not it was soft deleted.
func (h *AdminHandler) HandleDeletePost(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.admin.DeletePost(r.Context(), id); err != nil {
		HandleServiceError(w, r, err, h.logger)
		return
	}
	writeLogged(h.logger, utils.WriteOKMessage(w, "Post deleted by admin", nil))
}

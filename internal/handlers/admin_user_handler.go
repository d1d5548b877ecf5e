package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/storykeeper/backend/internal/middleware"
	"github.com/storykeeper/backend/internal/models"
	"go.uber.org/zap"
)

// AdminUserService is the interface that wraps user administration.
type AdminUserService interface {
	// Method SetRole changes the role of a user. Unknown roles yield a *services.ValidationError.
	SetRole(ctx context.Context, userID int, role models.Role) error
	// Method DeleteUser removes a user together with every story, like and media file the user owns.
	//
	// If the user does not exist services.ErrUserNotFound is returned.
	DeleteUser(ctx context.Context, userID int) error
}

// setRoleRequest changes the role of a user
type setRoleRequest struct {
	Role models.Role `json:"role"`
}

// AdminUserHandler handles user administration HTTP requests
type AdminUserHandler struct {
	BaseHandler
	adminUserService AdminUserService
}

// NewAdminUserHandler creates a new admin user handler
func NewAdminUserHandler(adminUserService AdminUserService, logger *zap.Logger) *AdminUserHandler {
	return &AdminUserHandler{
		BaseHandler:      BaseHandler{Logger: logger},
		adminUserService: adminUserService,
	}
}

// RegisterRoutes registers user administration routes
// Note: the router is expected to be scoped to /admin behind the admin middleware
func (h *AdminUserHandler) RegisterRoutes(r chi.Router) {
	r.Route("/users/{id}", func(r chi.Router) {
		r.Delete("/", h.DeleteUser)
		r.Put("/role", h.SetRole)
	})
}

// DeleteUser handles DELETE /admin/users/{id}
// @Summary Delete a user
// @Description Removes the user with all stories, likes and media files
// @Tags admin
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} map[string]any
// @Failure 400 {object} ErrorResponse "Cannot delete yourself"
// @Failure 404 {object} ErrorResponse "User not found"
// @Security BearerAuth
// @Router /admin/users/{id} [delete]
func (h *AdminUserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	if callerID, _ := middleware.GetUserID(r.Context()); callerID == userID {
		h.RespondError(w, http.StatusBadRequest, "admins cannot delete their own account", ErrorTypeValidation)
		return
	}

	if err := h.adminUserService.DeleteUser(r.Context(), userID); err != nil {
		h.RespondServiceError(w, err, "delete user")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{"message": "user deleted"})
}

// SetRole handles PUT /admin/users/{id}/role
// @Summary Change the role of a user
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "User ID"
// @Param request body setRoleRequest true "Role (1 user, 2 admin)"
// @Success 200 {object} map[string]any
// @Failure 400 {object} ErrorResponse "Unknown role"
// @Failure 404 {object} ErrorResponse "User not found"
// @Security BearerAuth
// @Router /admin/users/{id}/role [put]
func (h *AdminUserHandler) SetRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	var req setRoleRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.adminUserService.SetRole(r.Context(), userID, req.Role); err != nil {
		h.RespondServiceError(w, err, "set user role")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{"user_id": userID, "role": req.Role})
}

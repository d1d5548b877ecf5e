package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/storykeeper/backend/internal/models"
	"github.com/storykeeper/backend/internal/textstats"
	"go.uber.org/zap"
)

// TagService is the interface that wraps the story type catalogue.
type TagService interface {
	// Method List returns every category with its tags.
	List(ctx context.Context) ([]models.TagCategory, error)
	// Method RecountAll recomputes usage_count of every tag and returns the number of tags updated.
	RecountAll(ctx context.Context) (int, error)
}

// CatalogHandler serves tags and supported languages
type CatalogHandler struct {
	BaseHandler
	tagService TagService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(tagService TagService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		BaseHandler: BaseHandler{Logger: logger},
		tagService:  tagService,
	}
}

// RegisterRoutes registers the public catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Get("/tags", h.ListTags)
	r.Get("/languages", h.ListLanguages)
}

// RegisterAdminRoutes registers catalog maintenance routes
// Note: the router is expected to be scoped to /admin behind the admin middleware
func (h *CatalogHandler) RegisterAdminRoutes(r chi.Router) {
	r.Post("/tags/recount", h.RecountTags)
}

// ListTags handles GET /tags
// @Summary List tags by category
// @Tags catalog
// @Produce json
// @Success 200 {object} map[string]any "categories"
// @Router /tags [get]
func (h *CatalogHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	categories, err := h.tagService.List(r.Context())
	if err != nil {
		h.RespondServiceError(w, err, "list tags")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{"categories": categories})
}

// ListLanguages handles GET /languages
// @Summary List supported story languages
// @Tags catalog
// @Produce json
// @Success 200 {object} map[string]any "languages"
// @Router /languages [get]
func (h *CatalogHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	h.RespondSuccess(w, http.StatusOK, Envelope{"languages": textstats.Languages()})
}

// RecountTags handles POST /admin/tags/recount
// @Summary Recompute tag usage counts
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]any "updated"
// @Security BearerAuth
// @Router /admin/tags/recount [post]
func (h *CatalogHandler) RecountTags(w http.ResponseWriter, r *http.Request) {
	updated, err := h.tagService.RecountAll(r.Context())
	if err != nil {
		h.RespondServiceError(w, err, "recount tags")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{"updated": updated})
}

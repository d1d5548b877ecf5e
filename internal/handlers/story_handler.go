package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/storykeeper/backend/internal/middleware"
	"github.com/storykeeper/backend/internal/models"
	"github.com/storykeeper/backend/internal/services"
	"go.uber.org/zap"
)

// StoryService is the interface that wraps the owner and reader side of the story lifecycle.
type StoryService interface {
	// Method Submit validates a new story and stores it in pending status.
	//
	// "userID" parameter is the author of the story.
	// "req" parameter contains the content, media references and tag selection.
	//
	// If validation fails a *services.ValidationError is returned together with 0.
	Submit(ctx context.Context, userID int, req *models.SubmitStoryRequest) (int, error)
	// Method Edit lets the owner change a story. Editing a published or rejected story sends it back to review.
	//
	// If the story does not exist or is deleted services.ErrStoryNotFound is returned, services.ErrNotOwner if it belongs to someone else.
	Edit(ctx context.Context, storyID, userID int, req *models.EditStoryRequest) (*models.EditResult, error)
	// Method OwnerDelete moves the caller's own story to the recycling bin.
	OwnerDelete(ctx context.Context, storyID, userID int) error
	// Method Get returns a story visible to the viewer and counts the view.
	//
	// "viewerID" parameter is 0 for anonymous visitors.
	//
	// Stories that are not published are only visible to their owner and to admins, otherwise services.ErrStoryNotFound is returned.
	Get(ctx context.Context, storyID, viewerID int, viewerRole models.Role) (*models.StoryDetail, error)
	// Method Library lists published stories matching the filter.
	Library(ctx context.Context, filter models.LibraryFilter) ([]models.StoryListItem, error)
	// Method MyStories lists every non deleted story of the user regardless of status.
	MyStories(ctx context.Context, userID int) ([]models.StoryListItem, error)
}

// EngagementService toggles likes.
type EngagementService interface {
	// Method ToggleUser likes or unlikes a story on behalf of an authenticated user.
	ToggleUser(ctx context.Context, storyID, userID int) (*models.LikeResult, error)
	// Method ToggleAnonymous flips the like in the visitor session and adjusts the anonymous estimate.
	ToggleAnonymous(ctx context.Context, storyID int, toggle services.SessionToggle) (*models.LikeResult, error)
}

// LikeSession remembers the stories an anonymous visitor liked
type LikeSession interface {
	IsLiked(r *http.Request, storyID int) bool
	Toggle(w http.ResponseWriter, r *http.Request, storyID int) (bool, error)
}

// StoryHandler handles story-related HTTP requests
type StoryHandler struct {
	BaseHandler
	storyService      StoryService
	engagementService EngagementService
	likeSession       LikeSession
}

// NewStoryHandler creates a new story handler
func NewStoryHandler(storyService StoryService, engagementService EngagementService, likeSession LikeSession, logger *zap.Logger) *StoryHandler {
	return &StoryHandler{
		BaseHandler:       BaseHandler{Logger: logger},
		storyService:      storyService,
		engagementService: engagementService,
		likeSession:       likeSession,
	}
}

// RegisterRoutes registers story routes.
// Reading and liking accept anonymous visitors, writing requires authentication.
func (h *StoryHandler) RegisterRoutes(r chi.Router, authMiddleware, optionalAuthMiddleware func(http.Handler) http.Handler) {
	r.Route("/stories", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(optionalAuthMiddleware)
			r.Get("/", h.Library)
			r.Get("/{id}", h.Get)
			r.Post("/{id}/like", h.ToggleLike)
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)
			r.Post("/", h.Submit)
			r.Put("/{id}", h.Edit)
			r.Delete("/{id}", h.Delete)
		})
	})

	r.With(authMiddleware).Get("/me/stories", h.MyStories)
}

// Library handles GET /stories
// @Summary List published stories
// @Description Public library of published stories, newest first
// @Tags stories
// @Produce json
// @Param language query string false "Language group (zh, en, ...)"
// @Param tag query int false "Tag ID"
// @Param search query string false "Full text search in title, description and content"
// @Param page query int false "Page number" default(1)
// @Param count query int false "Items per page" default(20)
// @Success 200 {object} map[string]any "stories"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /stories [get]
func (h *StoryHandler) Library(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.LibraryFilter{
		LanguageGroup: q.Get("language"),
		TagID:         queryInt(r, "tag"),
		Search:        q.Get("search"),
		Page:          queryInt(r, "page"),
		Count:         queryInt(r, "count"),
	}

	stories, err := h.storyService.Library(r.Context(), filter)
	if err != nil {
		h.RespondServiceError(w, err, "list stories")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{"stories": stories})
}

// Get handles GET /stories/{id}
// @Summary Get a story
// @Description Returns a published story, or any status to its owner and admins. Counts a view.
// @Tags stories
// @Produce json
// @Param id path int true "Story ID"
// @Success 200 {object} map[string]any "story"
// @Failure 400 {object} ErrorResponse "Invalid story ID"
// @Failure 404 {object} ErrorResponse "Story not found"
// @Router /stories/{id} [get]
func (h *StoryHandler) Get(w http.ResponseWriter, r *http.Request) {
	storyID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	viewerID, authenticated := middleware.GetUserID(r.Context())
	role := models.Role(middleware.GetUserRole(r.Context()))

	story, err := h.storyService.Get(r.Context(), storyID, viewerID, role)
	if err != nil {
		h.RespondServiceError(w, err, "get story")
		return
	}

	if !authenticated {
		story.LikedByViewer = h.likeSession.IsLiked(r, storyID)
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{"story": story})
}

// ToggleLike handles POST /stories/{id}/like
// @Summary Like or unlike a story
// @Description Authenticated users toggle a counted like. Anonymous visitors toggle a like remembered in their session, reported as an estimate.
// @Tags stories
// @Produce json
// @Param id path int true "Story ID"
// @Success 200 {object} models.LikeResult
// @Failure 404 {object} ErrorResponse "Story not found"
// @Router /stories/{id}/like [post]
func (h *StoryHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	storyID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	var result *models.LikeResult
	var err error
	if userID, authenticated := middleware.GetUserID(r.Context()); authenticated {
		result, err = h.engagementService.ToggleUser(r.Context(), storyID, userID)
	} else {
		result, err = h.engagementService.ToggleAnonymous(r.Context(), storyID, func() (bool, error) {
			return h.likeSession.Toggle(w, r, storyID)
		})
	}
	if err != nil {
		h.RespondServiceError(w, err, "toggle like")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{
		"liked":                   result.Liked,
		"like_count":              result.LikeCount,
		"anonymous_like_estimate": result.AnonymousLikeEstimate,
	})
}

// Submit handles POST /stories
// @Summary Submit a story
// @Description Creates a story awaiting moderation. A status in the body is ignored.
// @Tags stories
// @Accept json
// @Produce json
// @Param request body models.SubmitStoryRequest true "Story"
// @Success 201 {object} map[string]any "story_id"
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 401 {object} ErrorResponse "Authentication required"
// @Security BearerAuth
// @Router /stories [post]
func (h *StoryHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req models.SubmitStoryRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	storyID, err := h.storyService.Submit(r.Context(), userID, &req)
	if err != nil {
		h.RespondServiceError(w, err, "submit story")
		return
	}

	h.RespondSuccess(w, http.StatusCreated, Envelope{
		"story_id": storyID,
		"status":   models.StatusPending,
		"message":  "story submitted for review",
	})
}

// Edit handles PUT /stories/{id}
// @Summary Edit own story
// @Description Updates the given fields. A published or rejected story goes back to review.
// @Tags stories
// @Accept json
// @Produce json
// @Param id path int true "Story ID"
// @Param request body models.EditStoryRequest true "Changed fields"
// @Success 200 {object} models.EditResult
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 403 {object} ErrorResponse "Not the owner"
// @Failure 404 {object} ErrorResponse "Story not found"
// @Security BearerAuth
// @Router /stories/{id} [put]
func (h *StoryHandler) Edit(w http.ResponseWriter, r *http.Request) {
	storyID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(r.Context())

	var req models.EditStoryRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.storyService.Edit(r.Context(), storyID, userID, &req)
	if err != nil {
		h.RespondServiceError(w, err, "edit story")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{
		"story_id":    result.StoryID,
		"status":      result.Status,
		"resubmitted": result.Resubmitted,
	})
}

// Delete handles DELETE /stories/{id}
// @Summary Delete own story
// @Description Moves the story to the recycling bin
// @Tags stories
// @Produce json
// @Param id path int true "Story ID"
// @Success 200 {object} map[string]any
// @Failure 403 {object} ErrorResponse "Not the owner"
// @Failure 404 {object} ErrorResponse "Story not found"
// @Security BearerAuth
// @Router /stories/{id} [delete]
func (h *StoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	storyID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}
	userID, _ := middleware.GetUserID(r.Context())

	if err := h.storyService.OwnerDelete(r.Context(), storyID, userID); err != nil {
		h.RespondServiceError(w, err, "delete story")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{"message": "story moved to the recycling bin"})
}

// MyStories handles GET /me/stories
// @Summary List own stories
// @Tags stories
// @Produce json
// @Success 200 {object} map[string]any "stories"
// @Failure 401 {object} ErrorResponse "Authentication required"
// @Security BearerAuth
// @Router /me/stories [get]
func (h *StoryHandler) MyStories(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	stories, err := h.storyService.MyStories(r.Context(), userID)
	if err != nil {
		h.RespondServiceError(w, err, "list own stories")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{"stories": stories})
}

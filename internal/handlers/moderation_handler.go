package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/storykeeper/backend/internal/models"
	"go.uber.org/zap"
)

// ModerationService is the interface that wraps the admin side of the story lifecycle.
//
// Single transitions report their outcome as a models.TransitionResult, the error is reserved for storage failures.
type ModerationService interface {
	// Method Approve publishes a pending story and notifies the owner.
	Approve(ctx context.Context, storyID int) (models.TransitionResult, error)
	// Method Reject rejects a pending story. "reason" is optional and forwarded to the owner.
	Reject(ctx context.Context, storyID int, reason string) (models.TransitionResult, error)
	// Method BatchApprove approves every id independently and reports each outcome.
	BatchApprove(ctx context.Context, ids []int) *models.BatchResult
	// Method BatchReject rejects every id independently and reports each outcome.
	BatchReject(ctx context.Context, ids []int, reason string) *models.BatchResult
	// Method SoftDelete moves a story to the recycling bin.
	SoftDelete(ctx context.Context, storyID int) (models.TransitionResult, error)
	// Method Restore takes a story out of the recycling bin with its status unchanged.
	Restore(ctx context.Context, storyID int) (models.TransitionResult, error)
	// Method Purge permanently removes a story from the recycling bin with its media files.
	Purge(ctx context.Context, storyID int) (models.TransitionResult, error)
	// Method BatchPurge purges every id independently. One failing id does not stop the others.
	BatchPurge(ctx context.Context, ids []int) *models.BatchResult
	// Method Queue lists non deleted stories in the given status, pending when empty.
	Queue(ctx context.Context, status models.StoryStatus, page, count int) ([]models.StoryListItem, error)
	// Method Bin lists the recycling bin.
	Bin(ctx context.Context, page, count int) ([]models.StoryListItem, error)
	// Method Stats counts stories per status.
	Stats(ctx context.Context) (*models.StoryStats, error)
}

// ExportService writes the story export
type ExportService interface {
	WriteCSV(ctx context.Context, w io.Writer, includeDeleted bool) (int, error)
}

// ModerationHandler handles admin moderation HTTP requests
type ModerationHandler struct {
	BaseHandler
	moderationService ModerationService
	exportService     ExportService
}

// NewModerationHandler creates a new moderation handler
func NewModerationHandler(moderationService ModerationService, exportService ExportService, logger *zap.Logger) *ModerationHandler {
	return &ModerationHandler{
		BaseHandler:       BaseHandler{Logger: logger},
		moderationService: moderationService,
		exportService:     exportService,
	}
}

// RegisterRoutes registers moderation routes.
// Note: the router is expected to be scoped to /admin behind the admin middleware
func (h *ModerationHandler) RegisterRoutes(r chi.Router) {
	r.Route("/stories", func(r chi.Router) {
		r.Get("/", h.Queue)
		r.Get("/export", h.Export)
		r.Post("/batch/approve", h.BatchApprove)
		r.Post("/batch/reject", h.BatchReject)
		r.Post("/{id}/approve", h.Approve)
		r.Post("/{id}/reject", h.Reject)
		r.Delete("/{id}", h.SoftDelete)
	})

	r.Route("/bin", func(r chi.Router) {
		r.Get("/", h.Bin)
		r.Post("/batch/purge", h.BatchPurge)
		r.Post("/{id}/restore", h.Restore)
		r.Delete("/{id}", h.Purge)
	})

	r.Get("/stats", h.Stats)
}

// Queue handles GET /admin/stories
// @Summary Moderation queue
// @Description Lists stories in a status, pending by default
// @Tags admin
// @Produce json
// @Param status query string false "Status" Enums(draft, pending, published, rejected, private, archived)
// @Param page query int false "Page number" default(1)
// @Param count query int false "Items per page" default(20)
// @Success 200 {object} map[string]any "stories"
// @Failure 400 {object} ErrorResponse "Invalid status"
// @Security BearerAuth
// @Router /admin/stories [get]
func (h *ModerationHandler) Queue(w http.ResponseWriter, r *http.Request) {
	status := models.StoryStatus(r.URL.Query().Get("status"))

	stories, err := h.moderationService.Queue(r.Context(), status, queryInt(r, "page"), queryInt(r, "count"))
	if err != nil {
		h.RespondServiceError(w, err, "list moderation queue")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{"stories": stories})
}

// Approve handles POST /admin/stories/{id}/approve
// @Summary Approve a pending story
// @Tags admin
// @Produce json
// @Param id path int true "Story ID"
// @Success 200 {object} map[string]any "result"
// @Failure 404 {object} ErrorResponse "Story not found"
// @Failure 409 {object} ErrorResponse "Story is not pending"
// @Security BearerAuth
// @Router /admin/stories/{id}/approve [post]
func (h *ModerationHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "approve story", h.moderationService.Approve)
}

// Reject handles POST /admin/stories/{id}/reject
// @Summary Reject a pending story
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Story ID"
// @Param request body models.RejectRequest false "Optional reason"
// @Success 200 {object} map[string]any "result"
// @Failure 404 {object} ErrorResponse "Story not found"
// @Failure 409 {object} ErrorResponse "Story is not pending"
// @Security BearerAuth
// @Router /admin/stories/{id}/reject [post]
func (h *ModerationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	storyID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	// The reason is optional, so an empty body is accepted
	var req models.RejectRequest
	if r.ContentLength != 0 && !h.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.moderationService.Reject(r.Context(), storyID, req.Reason)
	if err != nil {
		h.RespondServiceError(w, err, "reject story")
		return
	}
	h.RespondTransition(w, storyID, result)
}

// BatchApprove handles POST /admin/stories/batch/approve
// @Summary Approve several stories
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.BatchRequest true "Story IDs"
// @Success 200 {object} models.BatchResult
// @Failure 400 {object} ErrorResponse "No ids"
// @Security BearerAuth
// @Router /admin/stories/batch/approve [post]
func (h *ModerationHandler) BatchApprove(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeBatch(w, r)
	if !ok {
		return
	}
	h.respondBatch(w, h.moderationService.BatchApprove(r.Context(), req.IDs))
}

// batchRejectRequest carries the ids and an optional shared reason
type batchRejectRequest struct {
	IDs    []int  `json:"ids"`
	Reason string `json:"reason"`
}

// BatchReject handles POST /admin/stories/batch/reject
// @Summary Reject several stories
// @Tags admin
// @Accept json
// @Produce json
// @Param request body batchRejectRequest true "Story IDs and reason"
// @Success 200 {object} models.BatchResult
// @Failure 400 {object} ErrorResponse "No ids"
// @Security BearerAuth
// @Router /admin/stories/batch/reject [post]
func (h *ModerationHandler) BatchReject(w http.ResponseWriter, r *http.Request) {
	var req batchRejectRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}
	if len(req.IDs) == 0 {
		h.RespondError(w, http.StatusBadRequest, "ids must not be empty", ErrorTypeValidation)
		return
	}
	h.respondBatch(w, h.moderationService.BatchReject(r.Context(), req.IDs, req.Reason))
}

// SoftDelete handles DELETE /admin/stories/{id}
// @Summary Move a story to the recycling bin
// @Tags admin
// @Produce json
// @Param id path int true "Story ID"
// @Success 200 {object} map[string]any "result"
// @Failure 404 {object} ErrorResponse "Story not found"
// @Failure 409 {object} ErrorResponse "Story already deleted"
// @Security BearerAuth
// @Router /admin/stories/{id} [delete]
func (h *ModerationHandler) SoftDelete(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "delete story", h.moderationService.SoftDelete)
}

// Bin handles GET /admin/bin
// @Summary List the recycling bin
// @Tags admin
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param count query int false "Items per page" default(20)
// @Success 200 {object} map[string]any "stories"
// @Security BearerAuth
// @Router /admin/bin [get]
func (h *ModerationHandler) Bin(w http.ResponseWriter, r *http.Request) {
	stories, err := h.moderationService.Bin(r.Context(), queryInt(r, "page"), queryInt(r, "count"))
	if err != nil {
		h.RespondServiceError(w, err, "list recycling bin")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{"stories": stories})
}

// Restore handles POST /admin/bin/{id}/restore
// @Summary Restore a story from the recycling bin
// @Description Restoring a story that is not in the bin changes nothing and reports affected 0
// @Tags admin
// @Produce json
// @Param id path int true "Story ID"
// @Success 200 {object} map[string]any "result, affected"
// @Failure 404 {object} ErrorResponse "Story not found"
// @Security BearerAuth
// @Router /admin/bin/{id}/restore [post]
func (h *ModerationHandler) Restore(w http.ResponseWriter, r *http.Request) {
	storyID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	result, err := h.moderationService.Restore(r.Context(), storyID)
	if err != nil {
		h.RespondServiceError(w, err, "restore story")
		return
	}

	switch result {
	case models.TransitionApplied:
		h.RespondSuccess(w, http.StatusOK, Envelope{"story_id": storyID, "result": result, "affected": 1})
	case models.TransitionWrongState:
		h.RespondSuccess(w, http.StatusOK, Envelope{"story_id": storyID, "result": result, "affected": 0})
	default:
		h.RespondTransition(w, storyID, result)
	}
}

// Purge handles DELETE /admin/bin/{id}
// @Summary Permanently delete a story
// @Description Removes the story, its likes and tag links, and its media files
// @Tags admin
// @Produce json
// @Param id path int true "Story ID"
// @Success 200 {object} map[string]any "result"
// @Failure 404 {object} ErrorResponse "Story not found"
// @Failure 409 {object} ErrorResponse "Story is not in the bin"
// @Security BearerAuth
// @Router /admin/bin/{id} [delete]
func (h *ModerationHandler) Purge(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, "purge story", h.moderationService.Purge)
}

// BatchPurge handles POST /admin/bin/batch/purge
// @Summary Permanently delete several stories
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.BatchRequest true "Story IDs"
// @Success 200 {object} models.BatchResult
// @Failure 400 {object} ErrorResponse "No ids"
// @Security BearerAuth
// @Router /admin/bin/batch/purge [post]
func (h *ModerationHandler) BatchPurge(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeBatch(w, r)
	if !ok {
		return
	}
	h.respondBatch(w, h.moderationService.BatchPurge(r.Context(), req.IDs))
}

// Export handles GET /admin/stories/export
// @Summary Export stories as CSV
// @Tags admin
// @Produce text/csv
// @Param include_deleted query bool false "Include stories in the recycling bin"
// @Success 200 {file} file "CSV"
// @Security BearerAuth
// @Router /admin/stories/export [get]
func (h *ModerationHandler) Export(w http.ResponseWriter, r *http.Request) {
	includeDeleted, _ := strconv.ParseBool(r.URL.Query().Get("include_deleted"))

	filename := fmt.Sprintf("stories_%s.csv", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	// Headers are already sent once rows stream, so a late failure can only be logged
	rows, err := h.exportService.WriteCSV(r.Context(), w, includeDeleted)
	if err != nil {
		h.Logger.Error("failed to export stories", zap.Int("rows", rows), zap.Error(err))
		return
	}
	h.Logger.Info("stories exported", zap.Int("rows", rows), zap.Bool("includeDeleted", includeDeleted))
}

// Stats handles GET /admin/stats
// @Summary Story counts per status
// @Tags admin
// @Produce json
// @Success 200 {object} models.StoryStats
// @Security BearerAuth
// @Router /admin/stats [get]
func (h *ModerationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.moderationService.Stats(r.Context())
	if err != nil {
		h.RespondServiceError(w, err, "get story stats")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{"stats": stats})
}

func (h *ModerationHandler) transition(w http.ResponseWriter, r *http.Request, action string, fn func(context.Context, int) (models.TransitionResult, error)) {
	storyID, ok := h.PathID(w, r, "id")
	if !ok {
		return
	}

	result, err := fn(r.Context(), storyID)
	if err != nil {
		h.RespondServiceError(w, err, action)
		return
	}
	h.RespondTransition(w, storyID, result)
}

func (h *ModerationHandler) decodeBatch(w http.ResponseWriter, r *http.Request) (*models.BatchRequest, bool) {
	var req models.BatchRequest
	if !h.DecodeJSON(w, r, &req) {
		return nil, false
	}
	if len(req.IDs) == 0 {
		h.RespondError(w, http.StatusBadRequest, "ids must not be empty", ErrorTypeValidation)
		return nil, false
	}
	return &req, true
}

func (h *ModerationHandler) respondBatch(w http.ResponseWriter, result *models.BatchResult) {
	h.RespondSuccess(w, http.StatusOK, Envelope{"affected": result.Affected, "results": result.Results})
}

package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/storykeeper/backend/internal/scheduler"
	"go.uber.org/zap"
)

// JobRunner runs a maintenance job by name
type JobRunner interface {
	RunNow(ctx context.Context, name string) error
}

// MaintenanceHandler lets external schedulers trigger maintenance jobs
type MaintenanceHandler struct {
	BaseHandler
	runner JobRunner
}

// NewMaintenanceHandler creates a new maintenance handler
func NewMaintenanceHandler(runner JobRunner, logger *zap.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		BaseHandler: BaseHandler{Logger: logger},
		runner:      runner,
	}
}

// RegisterRoutes registers maintenance routes, the router is expected to check the API key
func (h *MaintenanceHandler) RegisterRoutes(r chi.Router) {
	r.Post("/maintenance/{job}", h.RunJob)
}

// RunJob handles POST /maintenance/{job}
// @Summary Run a maintenance job now
// @Description Runs reset-token-gc, refresh-token-gc, tag-recount or bin-purge synchronously
// @Tags maintenance
// @Produce json
// @Param job path string true "Job name"
// @Param X-API-Key header string true "API key"
// @Success 200 {object} map[string]any
// @Failure 404 {object} ErrorResponse "Unknown job"
// @Failure 500 {object} ErrorResponse "Job failed"
// @Router /maintenance/{job} [post]
func (h *MaintenanceHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	job := chi.URLParam(r, "job")

	if err := h.runner.RunNow(r.Context(), job); err != nil {
		if errors.Is(err, scheduler.ErrUnknownJob) {
			h.RespondError(w, http.StatusNotFound, "unknown job "+job, ErrorTypeNotFound)
			return
		}
		h.Logger.Error("maintenance job failed", zap.String("job", job), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "job failed", "")
		return
	}

	h.Logger.Info("maintenance job completed", zap.String("job", job))
	h.RespondSuccess(w, http.StatusOK, Envelope{"job": job})
}

package handlers

import (
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/storykeeper/backend/internal/middleware"
	"github.com/storykeeper/backend/internal/models"
	"go.uber.org/zap"
)

// MediaStore saves uploaded files
type MediaStore interface {
	// Method Save writes the reader under a new name owned by userID and returns the relative path and size.
	Save(r io.Reader, userID int, logicalName string) (string, int64, error)
	// Method URLFor returns the public URL of a relative path.
	URLFor(relPath string) string
}

// mediaRule lists accepted extensions and the size limit of one kind
type mediaRule struct {
	maxBytes   int64
	extensions map[string]struct{}
}

func newMediaRule(maxBytes int64, extensions ...string) mediaRule {
	rule := mediaRule{maxBytes: maxBytes, extensions: make(map[string]struct{}, len(extensions))}
	for _, ext := range extensions {
		rule.extensions[ext] = struct{}{}
	}
	return rule
}

var mediaRules = map[models.MediaKind]mediaRule{
	models.MediaImage: newMediaRule(5<<20, "jpg", "jpeg", "png", "webp"),
	models.MediaAudio: newMediaRule(25<<20, "webm", "mp3", "wav", "m4a", "ogg", "mp4"),
	models.MediaVideo: newMediaRule(100<<20, "mp4", "webm", "mov", "avi", "mkv", "flv"),
}

// MaxUploadBytes is the largest accepted upload of any kind
const MaxUploadBytes = 100 << 20

// MediaHandler handles media upload HTTP requests
type MediaHandler struct {
	BaseHandler
	store MediaStore
}

// NewMediaHandler creates a new media handler
func NewMediaHandler(store MediaStore, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{
		BaseHandler: BaseHandler{Logger: logger},
		store:       store,
	}
}

// RegisterRoutes registers media routes
func (h *MediaHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.With(authMiddleware).Post("/media/{kind}", h.Upload)
}

// Upload handles POST /media/{kind}
// @Summary Upload a media file
// @Description Stores an image (5MB, jpg/jpeg/png/webp), audio (25MB, webm/mp3/wav/m4a/ogg/mp4) or video (100MB, mp4/webm/mov/avi/mkv/flv). The returned path is referenced from a story.
// @Tags media
// @Accept multipart/form-data
// @Produce json
// @Param kind path string true "Media kind" Enums(image, audio, video)
// @Param file formData file true "File"
// @Success 201 {object} models.UploadResult
// @Failure 400 {object} ErrorResponse "Invalid kind or extension"
// @Failure 413 {object} ErrorResponse "File too large"
// @Security BearerAuth
// @Router /media/{kind} [post]
func (h *MediaHandler) Upload(w http.ResponseWriter, r *http.Request) {
	kind := models.MediaKind(chi.URLParam(r, "kind"))
	rule, ok := mediaRules[kind]
	if !ok {
		h.RespondError(w, http.StatusBadRequest, "media kind must be image, audio or video", ErrorTypeValidation)
		return
	}
	userID, _ := middleware.GetUserID(r.Context())

	// Leave room for the multipart envelope around the file
	r.Body = http.MaxBytesReader(w, r.Body, rule.maxBytes+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			h.RespondError(w, http.StatusRequestEntityTooLarge, "file is too large", "")
			return
		}
		h.RespondError(w, http.StatusBadRequest, "file is required", ErrorTypeValidation)
		return
	}
	defer file.Close()

	if header.Size > rule.maxBytes {
		h.RespondError(w, http.StatusRequestEntityTooLarge, "file is too large", "")
		return
	}

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(header.Filename), "."))
	if _, allowed := rule.extensions[format]; !allowed {
		h.RespondError(w, http.StatusBadRequest, "unsupported file extension for "+string(kind), ErrorTypeValidation)
		return
	}

	relPath, size, err := h.store.Save(file, userID, header.Filename)
	if err != nil {
		h.Logger.Error("failed to save media", zap.Int("userId", userID), zap.String("kind", string(kind)), zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to save file", "")
		return
	}

	h.Logger.Info("media uploaded", zap.Int("userId", userID), zap.String("path", relPath), zap.Int64("size", size))
	h.RespondSuccess(w, http.StatusCreated, Envelope{"file": models.UploadResult{
		Kind:         kind,
		Path:         relPath,
		URL:          h.store.URLFor(relPath),
		OriginalName: header.Filename,
		Format:       format,
		Size:         size,
	}})
}

package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/storykeeper/backend/internal/models"
	"github.com/storykeeper/backend/internal/services"
	"go.uber.org/zap"
)

// transcriptionRequestsPerMinute bounds collaborator calls per client
const transcriptionRequestsPerMinute = 30

// TranscriptionService is the interface that wraps the audio to draft pipeline.
type TranscriptionService interface {
	// Method TranscribeChunk transcribes one recorded chunk.
	//
	// If the chunk exceeds services.MaxChunkBytes services.ErrChunkTooLarge is returned.
	// Transcription failures are returned as *speech.Error carrying a user-facing category.
	TranscribeChunk(ctx context.Context, audio []byte, languageHint, encoding string) (*models.Transcript, error)
	// Method Polish cleans up a raw transcript. Polishing failures degrade to the raw text and are not returned as errors.
	Polish(ctx context.Context, rawText, languageHint string) (*models.PolishResult, error)
	// Method Process transcribes and polishes audio in one call and computes the derived fields of the draft.
	Process(ctx context.Context, audio []byte, languageHint, encoding string) (*models.DraftResult, error)
	// Method Describe suggests a short promotional description of the content.
	Describe(ctx context.Context, content, languageHint string) (string, error)
}

// TranscriptionHandler handles transcription HTTP requests
type TranscriptionHandler struct {
	BaseHandler
	transcriptionService TranscriptionService
}

// NewTranscriptionHandler creates a new transcription handler
func NewTranscriptionHandler(transcriptionService TranscriptionService, logger *zap.Logger) *TranscriptionHandler {
	return &TranscriptionHandler{
		BaseHandler:          BaseHandler{Logger: logger},
		transcriptionService: transcriptionService,
	}
}

// RegisterRoutes registers transcription routes behind authentication and a per-client rate limit
func (h *TranscriptionHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/transcriptions", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(httprate.LimitByIP(transcriptionRequestsPerMinute, time.Minute))
		r.Post("/chunk", h.Chunk)
		r.Post("/polish", h.Polish)
		r.Post("/process", h.Process)
		r.Post("/describe", h.Describe)
	})
}

// Chunk handles POST /transcriptions/chunk
// @Summary Transcribe an audio chunk
// @Description Transcribes a recorded chunk of at most 7.5MB
// @Tags transcriptions
// @Accept multipart/form-data
// @Produce json
// @Param audio formData file true "Audio chunk"
// @Param language formData string false "Language hint, such as zh-CN"
// @Param encoding formData string false "Audio encoding" Enums(WEBM_OPUS, OGG_OPUS, LINEAR16, FLAC, MP3)
// @Success 200 {object} models.Transcript
// @Failure 400 {object} ErrorResponse "Audio missing"
// @Failure 413 {object} ErrorResponse "Chunk too large"
// @Failure 422 {object} ErrorResponse "Transcription failed, see category"
// @Security BearerAuth
// @Router /transcriptions/chunk [post]
func (h *TranscriptionHandler) Chunk(w http.ResponseWriter, r *http.Request) {
	audio, language, encoding, ok := h.readAudio(w, r)
	if !ok {
		return
	}

	transcript, err := h.transcriptionService.TranscribeChunk(r.Context(), audio, language, encoding)
	if err != nil {
		h.RespondServiceError(w, err, "transcribe chunk")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{
		"text":       transcript.Text,
		"confidence": transcript.Confidence,
		"language":   transcript.Language,
	})
}

// Polish handles POST /transcriptions/polish
// @Summary Polish a transcript
// @Description Returns the polished content and always keeps the raw transcript. When polishing fails the raw text is returned with polished=false.
// @Tags transcriptions
// @Accept json
// @Produce json
// @Param request body models.PolishRequest true "Transcript"
// @Success 200 {object} models.PolishResult
// @Failure 400 {object} ErrorResponse "Text missing"
// @Security BearerAuth
// @Router /transcriptions/polish [post]
func (h *TranscriptionHandler) Polish(w http.ResponseWriter, r *http.Request) {
	var req models.PolishRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	result, err := h.transcriptionService.Polish(r.Context(), req.Text, req.Language)
	if err != nil {
		h.RespondServiceError(w, err, "polish transcript")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{"result": result})
}

// Process handles POST /transcriptions/process
// @Summary Turn audio into a story draft
// @Tags transcriptions
// @Accept multipart/form-data
// @Produce json
// @Param audio formData file true "Audio"
// @Param language formData string false "Language hint"
// @Param encoding formData string false "Audio encoding"
// @Success 200 {object} models.DraftResult
// @Failure 413 {object} ErrorResponse "Chunk too large"
// @Failure 422 {object} ErrorResponse "Transcription failed"
// @Security BearerAuth
// @Router /transcriptions/process [post]
func (h *TranscriptionHandler) Process(w http.ResponseWriter, r *http.Request) {
	audio, language, encoding, ok := h.readAudio(w, r)
	if !ok {
		return
	}

	draft, err := h.transcriptionService.Process(r.Context(), audio, language, encoding)
	if err != nil {
		h.RespondServiceError(w, err, "process audio")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{"draft": draft})
}

// Describe handles POST /transcriptions/describe
// @Summary Suggest a story description
// @Tags transcriptions
// @Accept json
// @Produce json
// @Param request body models.DescribeRequest true "Story content"
// @Success 200 {object} map[string]any "description"
// @Failure 400 {object} ErrorResponse "Content missing"
// @Security BearerAuth
// @Router /transcriptions/describe [post]
func (h *TranscriptionHandler) Describe(w http.ResponseWriter, r *http.Request) {
	var req models.DescribeRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	description, err := h.transcriptionService.Describe(r.Context(), req.Content, req.Language)
	if err != nil {
		h.RespondServiceError(w, err, "describe story")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{"description": description})
}

// readAudio reads the "audio" form file. One byte past the limit is read so oversized chunks reach the service check.
func (h *TranscriptionHandler) readAudio(w http.ResponseWriter, r *http.Request) ([]byte, string, string, bool) {
	if err := r.ParseMultipartForm(services.MaxChunkBytes); err != nil {
		h.Logger.Warn("failed to parse multipart form", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to parse request", ErrorTypeValidation)
		return nil, "", "", false
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			h.RespondError(w, http.StatusBadRequest, "audio file is required", ErrorTypeValidation)
		} else {
			h.RespondError(w, http.StatusBadRequest, "failed to read audio file", ErrorTypeValidation)
		}
		return nil, "", "", false
	}
	defer file.Close()

	audio, err := io.ReadAll(io.LimitReader(file, services.MaxChunkBytes+1))
	if err != nil {
		h.Logger.Error("failed to read audio file", zap.Error(err))
		h.RespondError(w, http.StatusBadRequest, "failed to read audio file", ErrorTypeValidation)
		return nil, "", "", false
	}

	return audio, r.FormValue("language"), r.FormValue("encoding"), true
}

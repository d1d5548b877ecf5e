package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/storykeeper/backend/internal/models"
	"github.com/storykeeper/backend/internal/services"
	"github.com/storykeeper/backend/internal/speech"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupTranscriptionRouter(t *testing.T, svc *mockTranscriptionService) chi.Router {
	t.Helper()
	h := NewTranscriptionHandler(svc, zaptest.NewLogger(t))
	r := chi.NewRouter()
	h.RegisterRoutes(r, withUser(1, models.RoleUser))
	return r
}

func audioRequest(t *testing.T, path string, audio []byte, fields map[string]string) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	if audio != nil {
		part, err := writer.CreateFormFile("audio", "chunk.webm")
		require.NoError(t, err)
		_, err = part.Write(audio)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	body := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestTranscriptionHandler_Chunk(t *testing.T) {
	tests := []struct {
		name              string
		audio             []byte
		serviceErr        error
		expectedStatus    int
		expectedErrorType string
	}{
		{
			name:           "transcribed",
			audio:          []byte("opus-bytes"),
			expectedStatus: http.StatusOK,
		},
		{
			name:              "missing audio",
			expectedStatus:    http.StatusBadRequest,
			expectedErrorType: ErrorTypeValidation,
		},
		{
			name:              "oversized chunk",
			audio:             bytes.Repeat([]byte{1}, services.MaxChunkBytes+10),
			expectedStatus:    http.StatusRequestEntityTooLarge,
			expectedErrorType: ErrorTypeChunkTooLarge,
		},
		{
			name:              "categorized failure",
			audio:             []byte("stereo"),
			serviceErr:        &speech.Error{Category: speech.CategoryMonoRequired, Message: "must be mono"},
			expectedStatus:    http.StatusUnprocessableEntity,
			expectedErrorType: ErrorTypeTranscription,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockTranscriptionService{
				transcript: &models.Transcript{Text: "你好", Confidence: 0.9, Language: "zh-CN"},
				err:        tt.serviceErr,
			}
			router := setupTranscriptionRouter(t, svc)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, audioRequest(t, "/transcriptions/chunk", tt.audio, map[string]string{"language": "zh-CN", "encoding": "webm_opus"}))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			body := decodeBody(t, rec)
			if tt.expectedErrorType != "" {
				assert.Equal(t, tt.expectedErrorType, body["error_type"])
				return
			}
			assert.Equal(t, "你好", body["text"])
			assert.Equal(t, "zh-CN", svc.language)
			assert.Equal(t, "webm_opus", svc.encoding)
		})
	}

	t.Run("failure carries the category", func(t *testing.T) {
		svc := &mockTranscriptionService{err: &speech.Error{Category: speech.CategoryNoSpeech, Message: "No speech detected"}}
		router := setupTranscriptionRouter(t, svc)
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, audioRequest(t, "/transcriptions/chunk", []byte("silence"), nil))

		body := decodeBody(t, rec)
		assert.Equal(t, string(speech.CategoryNoSpeech), body["category"])
		assert.Equal(t, "No speech detected", body["error"])
	})
}

func TestTranscriptionHandler_Polish(t *testing.T) {
	svc := &mockTranscriptionService{polished: &models.PolishResult{
		Content:       "raw text",
		RawTranscript: "raw text",
		PolishError:   "upstream unavailable",
	}}
	router := setupTranscriptionRouter(t, svc)

	rec, body := doRequest(t, router, http.MethodPost, "/transcriptions/polish", `{"text":"raw text","language":"en"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	result := body["result"].(map[string]any)
	assert.Equal(t, false, result["polished"])
	assert.Equal(t, "raw text", result["raw_transcript"])
}

func TestTranscriptionHandler_Process(t *testing.T) {
	svc := &mockTranscriptionService{draft: &models.DraftResult{
		PolishResult: models.PolishResult{Content: "Polished.", RawTranscript: "polished", Polished: true},
		Language:     "en",
		WordCount:    1,
		ReadingTime:  1,
	}}
	router := setupTranscriptionRouter(t, svc)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, audioRequest(t, "/transcriptions/process", []byte("audio"), map[string]string{"language": "en"}))

	assert.Equal(t, http.StatusOK, rec.Code)
	draft := decodeBody(t, rec)["draft"].(map[string]any)
	assert.Equal(t, "Polished.", draft["content"])
	assert.Equal(t, float64(1), draft["word_count"])
	assert.Equal(t, []byte("audio"), svc.audio)
}

func TestTranscriptionHandler_Describe(t *testing.T) {
	router := setupTranscriptionRouter(t, &mockTranscriptionService{})

	rec, body := doRequest(t, router, http.MethodPost, "/transcriptions/describe", `{"content":"A story","language":"en"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "A short description.", body["description"])
}

package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/storykeeper/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func uploadRequest(t *testing.T, kind, filename string, size int) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{'x'}, size))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/media/"+kind, &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func TestMediaHandler_Upload(t *testing.T) {
	tests := []struct {
		name           string
		kind           string
		filename       string
		size           int
		expectedStatus int
	}{
		{name: "image", kind: "image", filename: "cover.PNG", size: 1024, expectedStatus: http.StatusCreated},
		{name: "audio", kind: "audio", filename: "voice.m4a", size: 2048, expectedStatus: http.StatusCreated},
		{name: "video", kind: "video", filename: "clip.mkv", size: 4096, expectedStatus: http.StatusCreated},
		{name: "unknown kind", kind: "document", filename: "a.pdf", size: 10, expectedStatus: http.StatusBadRequest},
		{name: "wrong extension", kind: "image", filename: "cover.gif", size: 10, expectedStatus: http.StatusBadRequest},
		{name: "audio extension for video", kind: "video", filename: "voice.mp3", size: 10, expectedStatus: http.StatusBadRequest},
		{name: "image at the limit", kind: "image", filename: "full.jpg", size: 5 << 20, expectedStatus: http.StatusCreated},
		{name: "image too large", kind: "image", filename: "big.jpg", size: 5<<20 + 1, expectedStatus: http.StatusRequestEntityTooLarge},
		{name: "audio too large", kind: "audio", filename: "long.webm", size: 25<<20 + 1, expectedStatus: http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockMediaStore{}
			h := NewMediaHandler(store, zaptest.NewLogger(t))
			router := chi.NewRouter()
			h.RegisterRoutes(router, withUser(1, models.RoleUser))
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, uploadRequest(t, tt.kind, tt.filename, tt.size))

			assert.Equal(t, tt.expectedStatus, rec.Code)
			body := decodeBody(t, rec)
			if tt.expectedStatus != http.StatusCreated {
				assert.Equal(t, false, body["success"])
				assert.Empty(t, store.saved)
				return
			}

			file := body["file"].(map[string]any)
			assert.Equal(t, tt.kind, file["kind"])
			assert.Equal(t, tt.filename, file["original_name"])
			assert.Equal(t, float64(tt.size), file["size"])
			assert.Contains(t, file["url"], "/media/2026/10/user_1/")
		})
	}
}

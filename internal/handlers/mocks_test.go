package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/storykeeper/backend/internal/middleware"
	"github.com/storykeeper/backend/internal/models"
	"github.com/storykeeper/backend/internal/services"
	"github.com/stretchr/testify/require"
)

// withUser stands in for the auth middleware, userID 0 leaves the request anonymous
func withUser(userID int, role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if userID != 0 {
				r = r.WithContext(middleware.WithUser(r.Context(), userID, int(role)))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func doRequest(t *testing.T, router chi.Router, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	decoded := map[string]any{}
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

type mockStoryService struct {
	submitFn  func(ctx context.Context, userID int, req *models.SubmitStoryRequest) (int, error)
	editFn    func(ctx context.Context, storyID, userID int, req *models.EditStoryRequest) (*models.EditResult, error)
	deleteFn  func(ctx context.Context, storyID, userID int) error
	getFn     func(ctx context.Context, storyID, viewerID int, role models.Role) (*models.StoryDetail, error)
	libraryFn func(ctx context.Context, filter models.LibraryFilter) ([]models.StoryListItem, error)
	mineFn    func(ctx context.Context, userID int) ([]models.StoryListItem, error)
}

func (m *mockStoryService) Submit(ctx context.Context, userID int, req *models.SubmitStoryRequest) (int, error) {
	return m.submitFn(ctx, userID, req)
}

func (m *mockStoryService) Edit(ctx context.Context, storyID, userID int, req *models.EditStoryRequest) (*models.EditResult, error) {
	return m.editFn(ctx, storyID, userID, req)
}

func (m *mockStoryService) OwnerDelete(ctx context.Context, storyID, userID int) error {
	return m.deleteFn(ctx, storyID, userID)
}

func (m *mockStoryService) Get(ctx context.Context, storyID, viewerID int, role models.Role) (*models.StoryDetail, error) {
	return m.getFn(ctx, storyID, viewerID, role)
}

func (m *mockStoryService) Library(ctx context.Context, filter models.LibraryFilter) ([]models.StoryListItem, error) {
	return m.libraryFn(ctx, filter)
}

func (m *mockStoryService) MyStories(ctx context.Context, userID int) ([]models.StoryListItem, error) {
	return m.mineFn(ctx, userID)
}

type mockEngagementService struct {
	userCalls      []int
	anonymousCalls []int
	result         *models.LikeResult
	err            error
}

func (m *mockEngagementService) ToggleUser(ctx context.Context, storyID, userID int) (*models.LikeResult, error) {
	m.userCalls = append(m.userCalls, storyID)
	return m.result, m.err
}

func (m *mockEngagementService) ToggleAnonymous(ctx context.Context, storyID int, toggle services.SessionToggle) (*models.LikeResult, error) {
	m.anonymousCalls = append(m.anonymousCalls, storyID)
	if m.err != nil {
		return nil, m.err
	}
	liked, err := toggle()
	if err != nil {
		return nil, err
	}
	result := *m.result
	result.Liked = liked
	return &result, nil
}

type mockLikeSession struct {
	liked map[int]bool
}

func (m *mockLikeSession) IsLiked(r *http.Request, storyID int) bool {
	return m.liked[storyID]
}

func (m *mockLikeSession) Toggle(w http.ResponseWriter, r *http.Request, storyID int) (bool, error) {
	if m.liked == nil {
		m.liked = map[int]bool{}
	}
	m.liked[storyID] = !m.liked[storyID]
	return m.liked[storyID], nil
}

type mockModerationService struct {
	results   map[int]models.TransitionResult
	err       error
	reasons   []string
	batchIDs  []int
	queueArgs []models.StoryStatus
	stories   []models.StoryListItem
	stats     *models.StoryStats
}

func (m *mockModerationService) transition(storyID int) (models.TransitionResult, error) {
	if m.err != nil {
		return "", m.err
	}
	if result, ok := m.results[storyID]; ok {
		return result, nil
	}
	return models.TransitionNotFound, nil
}

func (m *mockModerationService) batch(ids []int) *models.BatchResult {
	m.batchIDs = ids
	result := models.NewBatchResult()
	for _, id := range ids {
		r, _ := m.transition(id)
		result.Record(id, r)
	}
	return result
}

func (m *mockModerationService) Approve(ctx context.Context, storyID int) (models.TransitionResult, error) {
	return m.transition(storyID)
}

func (m *mockModerationService) Reject(ctx context.Context, storyID int, reason string) (models.TransitionResult, error) {
	m.reasons = append(m.reasons, reason)
	return m.transition(storyID)
}

func (m *mockModerationService) BatchApprove(ctx context.Context, ids []int) *models.BatchResult {
	return m.batch(ids)
}

func (m *mockModerationService) BatchReject(ctx context.Context, ids []int, reason string) *models.BatchResult {
	m.reasons = append(m.reasons, reason)
	return m.batch(ids)
}

func (m *mockModerationService) SoftDelete(ctx context.Context, storyID int) (models.TransitionResult, error) {
	return m.transition(storyID)
}

func (m *mockModerationService) Restore(ctx context.Context, storyID int) (models.TransitionResult, error) {
	return m.transition(storyID)
}

func (m *mockModerationService) Purge(ctx context.Context, storyID int) (models.TransitionResult, error) {
	return m.transition(storyID)
}

func (m *mockModerationService) BatchPurge(ctx context.Context, ids []int) *models.BatchResult {
	return m.batch(ids)
}

func (m *mockModerationService) Queue(ctx context.Context, status models.StoryStatus, page, count int) ([]models.StoryListItem, error) {
	m.queueArgs = append(m.queueArgs, status)
	if m.err != nil {
		return nil, m.err
	}
	return m.stories, nil
}

func (m *mockModerationService) Bin(ctx context.Context, page, count int) ([]models.StoryListItem, error) {
	return m.stories, m.err
}

func (m *mockModerationService) Stats(ctx context.Context) (*models.StoryStats, error) {
	return m.stats, m.err
}

type mockExportService struct {
	includeDeleted bool
}

func (m *mockExportService) WriteCSV(ctx context.Context, w io.Writer, includeDeleted bool) (int, error) {
	m.includeDeleted = includeDeleted
	_, err := io.WriteString(w, "id,title\n1,First\n")
	return 1, err
}

type mockTranscriptionService struct {
	audio      []byte
	language   string
	encoding   string
	transcript *models.Transcript
	polished   *models.PolishResult
	draft      *models.DraftResult
	err        error
}

func (m *mockTranscriptionService) TranscribeChunk(ctx context.Context, audio []byte, languageHint, encoding string) (*models.Transcript, error) {
	m.audio, m.language, m.encoding = audio, languageHint, encoding
	if len(audio) > services.MaxChunkBytes {
		return nil, services.ErrChunkTooLarge
	}
	return m.transcript, m.err
}

func (m *mockTranscriptionService) Polish(ctx context.Context, rawText, languageHint string) (*models.PolishResult, error) {
	return m.polished, m.err
}

func (m *mockTranscriptionService) Process(ctx context.Context, audio []byte, languageHint, encoding string) (*models.DraftResult, error) {
	m.audio, m.language, m.encoding = audio, languageHint, encoding
	return m.draft, m.err
}

func (m *mockTranscriptionService) Describe(ctx context.Context, content, languageHint string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return "A short description.", nil
}

type mockAuthService struct {
	err          error
	refreshToken string
}

func (m *mockAuthService) Register(ctx context.Context, req *models.RegisterRequest) (string, string, error) {
	if m.err != nil {
		return "", "", m.err
	}
	return "access", "refresh", nil
}

func (m *mockAuthService) Login(ctx context.Context, req *models.LoginRequest) (string, string, error) {
	if m.err != nil {
		return "", "", m.err
	}
	return "access", "refresh", nil
}

func (m *mockAuthService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	m.refreshToken = refreshToken
	if m.err != nil {
		return "", "", m.err
	}
	return "new-access", "new-refresh", nil
}

type mockPasswordService struct {
	err        error
	clientKeys []string
	changedFor int
}

func (m *mockPasswordService) RequestReset(ctx context.Context, email, clientKey string) error {
	m.clientKeys = append(m.clientKeys, clientKey)
	return m.err
}

func (m *mockPasswordService) ConfirmReset(ctx context.Context, token, newPassword string) error {
	return m.err
}

func (m *mockPasswordService) ChangePassword(ctx context.Context, userID int, req *models.ChangePasswordRequest) error {
	m.changedFor = userID
	return m.err
}

type mockMediaStore struct {
	saved []string
}

func (m *mockMediaStore) Save(r io.Reader, userID int, logicalName string) (string, int64, error) {
	n, err := io.Copy(io.Discard, r)
	if err != nil {
		return "", 0, err
	}
	m.saved = append(m.saved, logicalName)
	return "2026/10/user_1/file" + logicalName[strings.LastIndex(logicalName, "."):], n, nil
}

func (m *mockMediaStore) URLFor(relPath string) string {
	return "/media/" + relPath
}

type mockTagService struct {
	categories []models.TagCategory
	err        error
}

func (m *mockTagService) List(ctx context.Context) ([]models.TagCategory, error) {
	return m.categories, m.err
}

func (m *mockTagService) RecountAll(ctx context.Context) (int, error) {
	return len(m.categories), m.err
}

type mockAdminUserService struct {
	deleted []int
	roles   map[int]models.Role
	err     error
}

func (m *mockAdminUserService) SetRole(ctx context.Context, userID int, role models.Role) error {
	if m.err != nil {
		return m.err
	}
	if m.roles == nil {
		m.roles = map[int]models.Role{}
	}
	m.roles[userID] = role
	return nil
}

func (m *mockAdminUserService) DeleteUser(ctx context.Context, userID int) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, userID)
	return nil
}

func sprintfPath(pattern string, id int) string {
	return fmt.Sprintf(pattern, id)
}

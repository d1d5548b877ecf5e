package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/storykeeper/backend/internal/models"
	"github.com/storykeeper/backend/internal/tasks"
)

var errMock = errors.New("mock failure")

// mockStoryRepository keeps stories in memory and applies the conditional transitions like the SQL repository
type mockStoryRepository struct {
	mu      sync.Mutex
	stories map[int]*models.StoryDetail
	nextID  int
	err     error
	// failIDs makes every call touching these ids fail
	failIDs map[int]bool
	// cascadeTags is returned by DeleteCascade
	cascadeTags map[int][]int
	created     *models.Story
	updated     *models.Story
	views       int
	listFilter  models.LibraryFilter
	list        []models.StoryListItem
	exportRows  []models.StoryExportRow
	userMedia   []string
	stats       *models.StoryStats
	deletedIDs  []int
	cutoff      time.Time
}

func newMockStoryRepository(stories ...*models.StoryDetail) *mockStoryRepository {
	m := &mockStoryRepository{stories: make(map[int]*models.StoryDetail), failIDs: make(map[int]bool), cascadeTags: make(map[int][]int), nextID: 100}
	for _, s := range stories {
		m.stories[s.ID] = s
	}
	return m
}

func (m *mockStoryRepository) fail(id int) error {
	if m.err != nil {
		return m.err
	}
	if m.failIDs[id] {
		return errMock
	}
	return nil
}

func (m *mockStoryRepository) Create(ctx context.Context, story *models.Story) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.nextID++
	story.ID = m.nextID
	copied := *story
	m.created = &copied
	m.stories[story.ID] = &models.StoryDetail{Story: copied}
	return nil
}

func (m *mockStoryRepository) GetByID(ctx context.Context, id int, includeDeleted bool) (*models.StoryDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(id); err != nil {
		return nil, err
	}
	s, ok := m.stories[id]
	if !ok || (!includeDeleted && s.DeletedAt != nil) {
		return nil, nil
	}
	copied := *s
	return &copied, nil
}

func (m *mockStoryRepository) Update(ctx context.Context, story *models.Story) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(story.ID); err != nil {
		return err
	}
	copied := *story
	m.updated = &copied
	if s, ok := m.stories[story.ID]; ok {
		s.Story = copied
	}
	return nil
}

func (m *mockStoryRepository) ListPublished(ctx context.Context, filter models.LibraryFilter) ([]models.StoryListItem, error) {
	m.listFilter = filter
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

func (m *mockStoryRepository) ListByUser(ctx context.Context, userID int) ([]models.StoryListItem, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

func (m *mockStoryRepository) ListByStatus(ctx context.Context, status models.StoryStatus, page, count int) ([]models.StoryListItem, error) {
	m.listFilter = models.LibraryFilter{Page: page, Count: count}
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

func (m *mockStoryRepository) ListDeleted(ctx context.Context, page, count int) ([]models.StoryListItem, error) {
	m.listFilter = models.LibraryFilter{Page: page, Count: count}
	if m.err != nil {
		return nil, m.err
	}
	return m.list, nil
}

func (m *mockStoryRepository) ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]int, error) {
	m.cutoff = cutoff
	if m.err != nil {
		return nil, m.err
	}
	return m.deletedIDs, nil
}

func (m *mockStoryRepository) TransitionStatus(ctx context.Context, id int, from, to models.StoryStatus, publishedAt *time.Time) (models.TransitionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(id); err != nil {
		return "", err
	}
	s, ok := m.stories[id]
	if !ok || s.DeletedAt != nil {
		return models.TransitionNotFound, nil
	}
	if s.Status != from {
		return models.TransitionWrongState, nil
	}
	s.Status = to
	if publishedAt != nil {
		s.PublishedAt = publishedAt
	}
	return models.TransitionApplied, nil
}

func (m *mockStoryRepository) SoftDelete(ctx context.Context, id int) (models.TransitionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(id); err != nil {
		return "", err
	}
	s, ok := m.stories[id]
	if !ok {
		return models.TransitionNotFound, nil
	}
	if s.DeletedAt != nil {
		return models.TransitionWrongState, nil
	}
	now := time.Now()
	s.DeletedAt = &now
	return models.TransitionApplied, nil
}

func (m *mockStoryRepository) Restore(ctx context.Context, id int) (models.TransitionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(id); err != nil {
		return "", err
	}
	s, ok := m.stories[id]
	if !ok {
		return models.TransitionNotFound, nil
	}
	if s.DeletedAt == nil {
		return models.TransitionWrongState, nil
	}
	s.DeletedAt = nil
	return models.TransitionApplied, nil
}

func (m *mockStoryRepository) DeleteCascade(ctx context.Context, id int) (models.TransitionResult, []int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(id); err != nil {
		return "", nil, err
	}
	s, ok := m.stories[id]
	if !ok {
		return models.TransitionNotFound, nil, nil
	}
	if s.DeletedAt == nil {
		return models.TransitionWrongState, nil, nil
	}
	delete(m.stories, id)
	return models.TransitionApplied, m.cascadeTags[id], nil
}

func (m *mockStoryRepository) IncrementViews(ctx context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(id); err != nil {
		return err
	}
	m.views++
	if s, ok := m.stories[id]; ok {
		s.ViewCount++
	}
	return nil
}

func (m *mockStoryRepository) Counters(ctx context.Context, id int) (*models.StoryCounters, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(id); err != nil {
		return nil, err
	}
	s, ok := m.stories[id]
	if !ok || s.DeletedAt != nil {
		return nil, nil
	}
	return &models.StoryCounters{ViewCount: s.ViewCount, LikeCount: s.LikeCount, AnonymousLikeCount: s.AnonymousLikeCount}, nil
}

func (m *mockStoryRepository) AdjustAnonymousLikes(ctx context.Context, id int, delta int) (*models.StoryCounters, error) {
	m.mu.Lock()
	s, ok := m.stories[id]
	if ok && s.DeletedAt == nil {
		s.AnonymousLikeCount = max(s.AnonymousLikeCount+delta, 0)
	}
	m.mu.Unlock()
	return m.Counters(ctx, id)
}

func (m *mockStoryRepository) CountByStatus(ctx context.Context) (*models.StoryStats, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.stats, nil
}

func (m *mockStoryRepository) ListForExport(ctx context.Context, includeDeleted bool) ([]models.StoryExportRow, error) {
	if m.err != nil {
		return nil, m.err
	}
	if includeDeleted {
		return m.exportRows, nil
	}
	var live []models.StoryExportRow
	for _, row := range m.exportRows {
		if row.DeletedAt == nil {
			live = append(live, row)
		}
	}
	return live, nil
}

func (m *mockStoryRepository) ListMediaByUser(ctx context.Context, userID int) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.userMedia, nil
}

// mockTagRepository is a mock implementation of the tag repositories
type mockTagRepository struct {
	existing    map[int]bool
	storyTags   map[int][]int
	replaceErr  error
	recountErr  error
	recounted   []int
	replaced    map[int]int
	categories  []models.TagCategory
	recountAll  int
	recountAllN int
	err         error
}

func newMockTagRepository(existing ...int) *mockTagRepository {
	m := &mockTagRepository{existing: make(map[int]bool), storyTags: make(map[int][]int), replaced: make(map[int]int)}
	for _, id := range existing {
		m.existing[id] = true
	}
	return m
}

func (m *mockTagRepository) Exists(ctx context.Context, tagID int) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.existing[tagID], nil
}

func (m *mockTagRepository) TagIDsByStory(ctx context.Context, storyID int) ([]int, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.storyTags[storyID], nil
}

func (m *mockTagRepository) ReplaceStoryTag(ctx context.Context, storyID, tagID int) ([]int, error) {
	if m.replaceErr != nil {
		return nil, m.replaceErr
	}
	previous := m.storyTags[storyID]
	m.storyTags[storyID] = []int{tagID}
	m.replaced[storyID] = tagID
	return previous, nil
}

func (m *mockTagRepository) RecountUsage(ctx context.Context, tagIDs ...int) error {
	m.recounted = append(m.recounted, tagIDs...)
	return m.recountErr
}

func (m *mockTagRepository) ListCategoriesWithTags(ctx context.Context) ([]models.TagCategory, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.categories, nil
}

func (m *mockTagRepository) RecountAll(ctx context.Context) (int, error) {
	m.recountAllN++
	if m.err != nil {
		return 0, m.err
	}
	return m.recountAll, nil
}

// mockLikeRepository keeps like rows per story
type mockLikeRepository struct {
	rows  map[int]map[int]bool
	live  map[int]bool
	anon  map[int]int
	err   error
	liked bool
}

func newMockLikeRepository(liveStories ...int) *mockLikeRepository {
	m := &mockLikeRepository{rows: make(map[int]map[int]bool), live: make(map[int]bool), anon: make(map[int]int)}
	for _, id := range liveStories {
		m.live[id] = true
		m.rows[id] = make(map[int]bool)
	}
	return m
}

func (m *mockLikeRepository) Toggle(ctx context.Context, storyID, userID int) (*models.LikeResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	if !m.live[storyID] {
		return nil, nil
	}
	liked := !m.rows[storyID][userID]
	if liked {
		m.rows[storyID][userID] = true
	} else {
		delete(m.rows[storyID], userID)
	}
	return &models.LikeResult{Liked: liked, LikeCount: len(m.rows[storyID]), AnonymousLikeEstimate: m.anon[storyID]}, nil
}

func (m *mockLikeRepository) HasLiked(ctx context.Context, storyID, userID int) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	return m.liked || m.rows[storyID][userID], nil
}

// mockMediaStorage records deletions
type mockMediaStorage struct {
	deleted []string
	missing map[string]bool
}

func (m *mockMediaStorage) Delete(relPath string) error {
	if m.missing[relPath] {
		return errors.New("file does not exist")
	}
	m.deleted = append(m.deleted, relPath)
	return nil
}

func (m *mockMediaStorage) URLFor(relPath string) string {
	return "/media/" + relPath
}

// mockNotifier records moderation notices
type mockNotifier struct {
	decisions []string
	err       error
}

func (m *mockNotifier) NotifyDecision(ctx context.Context, story *models.StoryDetail, decision, reason string) error {
	m.decisions = append(m.decisions, decision)
	return m.err
}

// mockUserRepository is a mock implementation of UserRepository
type mockUserRepository struct {
	user           *models.User
	err            error
	createErr      error
	emailExists    bool
	usernameExists bool
	created        *models.User
	updatedHash    string
	updatedRole    models.Role
	deleted        bool
	deleteCalled   bool
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = 1
	m.created = user
	return nil
}

func (m *mockUserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.user, nil
}

func (m *mockUserRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, bool, error) {
	if m.err != nil {
		return false, false, m.err
	}
	return m.emailExists, m.usernameExists, nil
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	m.updatedHash = passwordHash
	return m.err
}

func (m *mockUserRepository) UpdateRole(ctx context.Context, userID int, role models.Role) error {
	m.updatedRole = role
	return m.err
}

func (m *mockUserRepository) Delete(ctx context.Context, userID int) (bool, error) {
	m.deleteCalled = true
	if m.err != nil {
		return false, m.err
	}
	return m.deleted, nil
}

// mockUserTokenRepository is a mock implementation of UserTokenRepository
type mockUserTokenRepository struct {
	token          *models.UserToken
	err            error
	updateTokenErr error
	created        []string
	revoked        []int
}

func (m *mockUserTokenRepository) Create(ctx context.Context, userToken *models.UserToken) error {
	if m.err != nil {
		return m.err
	}
	m.created = append(m.created, userToken.Token)
	return nil
}

func (m *mockUserTokenRepository) GetByToken(ctx context.Context, token string) (*models.UserToken, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.token, nil
}

func (m *mockUserTokenRepository) UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error {
	return m.updateTokenErr
}

func (m *mockUserTokenRepository) DeleteByUser(ctx context.Context, userID int) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

// mockPasswordResetRepository hands out single-use tokens
type mockPasswordResetRepository struct {
	tokens  map[string]*models.PasswordResetToken
	err     error
	created *models.PasswordResetToken
}

func newMockPasswordResetRepository() *mockPasswordResetRepository {
	return &mockPasswordResetRepository{tokens: make(map[string]*models.PasswordResetToken)}
}

func (m *mockPasswordResetRepository) Create(ctx context.Context, token *models.PasswordResetToken) error {
	if m.err != nil {
		return m.err
	}
	m.created = token
	m.tokens[token.Token] = token
	return nil
}

func (m *mockPasswordResetRepository) Consume(ctx context.Context, token string, now time.Time) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	t, ok := m.tokens[token]
	if !ok || t.Used || !t.ExpiresAt.After(now) {
		return 0, nil
	}
	t.Used = true
	return t.UserID, nil
}

// mockMailer records scheduled emails
type mockMailer struct {
	resets    []tasks.PasswordResetPayload
	decisions []tasks.ModerationDecisionPayload
	err       error
}

func (m *mockMailer) EnqueuePasswordReset(ctx context.Context, payload tasks.PasswordResetPayload) error {
	if m.err != nil {
		return m.err
	}
	m.resets = append(m.resets, payload)
	return nil
}

func (m *mockMailer) EnqueueModerationDecision(ctx context.Context, payload tasks.ModerationDecisionPayload) error {
	if m.err != nil {
		return m.err
	}
	m.decisions = append(m.decisions, payload)
	return nil
}

// mockLimiter allows a fixed number of calls per key
type mockLimiter struct {
	limit int
	calls map[string]int
	err   error
}

func (m *mockLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	if m.calls == nil {
		m.calls = make(map[string]int)
	}
	m.calls[key]++
	return m.calls[key] <= m.limit, nil
}

// mockTranscriber returns a fixed transcript
type mockTranscriber struct {
	transcript *models.Transcript
	err        error
	calls      int
}

func (m *mockTranscriber) Transcribe(ctx context.Context, audio []byte, languageHint, encoding string) (*models.Transcript, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.transcript, nil
}

// mockPolisher returns a fixed polished text
type mockPolisher struct {
	polished    *models.PolishedText
	description string
	err         error
}

func (m *mockPolisher) Polish(ctx context.Context, rawText, languageHint string) (*models.PolishedText, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.polished, nil
}

func (m *mockPolisher) Describe(ctx context.Context, storyContent, languageHint string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	return m.description, nil
}

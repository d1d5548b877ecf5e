package services

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/storykeeper/backend/internal/models"
	"github.com/storykeeper/backend/internal/storage"
	"github.com/storykeeper/backend/internal/textstats"
	"go.uber.org/zap"
)

const (
	maxTitleLength       = 200
	maxDescriptionLength = 2000
	defaultLanguage      = "en-US"
	defaultPageSize      = 20
	maxPageSize          = 100
)

// StoryRepository is the interface that wraps methods for Story table data access used by the lifecycle manager
type StoryRepository interface {
	// Method Create inserts a new story and sets its ID.
	//
	// "story" parameter is the story to insert.
	//
	// If some error occurs during data insert, the error will be returned.
	Create(ctx context.Context, story *models.Story) error
	// Method GetByID retrieves a story with its author.
	//
	// "id" parameter is the story ID, "includeDeleted" allows stories from the recycling bin.
	//
	// If the story does not exist, nil is returned together with nil error.
	GetByID(ctx context.Context, id int, includeDeleted bool) (*models.StoryDetail, error)
	// Method Update stores the editable fields, derived fields and status of a live story.
	//
	// If some error occurs during data update, the error will be returned.
	Update(ctx context.Context, story *models.Story) error
	// Method ListPublished retrieves the public library page.
	//
	// If some error occurs during data retrieve, the error will be returned together with nil value.
	ListPublished(ctx context.Context, filter models.LibraryFilter) ([]models.StoryListItem, error)
	// Method ListByUser retrieves every live story of a user.
	//
	// If some error occurs during data retrieve, the error will be returned together with nil value.
	ListByUser(ctx context.Context, userID int) ([]models.StoryListItem, error)
	// Method SoftDelete moves a live story into the recycling bin.
	//
	// The result tells applied, not found and wrong state apart.
	SoftDelete(ctx context.Context, id int) (models.TransitionResult, error)
	// Method IncrementViews counts one view of a live story.
	IncrementViews(ctx context.Context, id int) error
}

// StoryTagRepository is the interface that wraps methods for story-tag links
type StoryTagRepository interface {
	// Method Exists checks if a tag exists.
	Exists(ctx context.Context, tagID int) (bool, error)
	// Method TagIDsByStory retrieves the tags linked to a story.
	TagIDsByStory(ctx context.Context, storyID int) ([]int, error)
	// Method ReplaceStoryTag links a story to a single tag and returns the previously linked tag ids.
	//
	// "tagID" 0 only removes the existing links.
	ReplaceStoryTag(ctx context.Context, storyID, tagID int) ([]int, error)
	// Method RecountUsage recomputes usage_count of the given tags.
	RecountUsage(ctx context.Context, tagIDs ...int) error
}

// LikeChecker reports whether a user liked a story
type LikeChecker interface {
	HasLiked(ctx context.Context, storyID, userID int) (bool, error)
}

// MediaStorage is the media storage collaborator as seen by the services
type MediaStorage interface {
	// Method Delete removes a stored file. Missing files are reported as errors.
	Delete(relPath string) error
	// Method URLFor returns the public URL of a stored file.
	URLFor(relPath string) string
}

type storyService struct {
	repo    StoryRepository
	tagRepo StoryTagRepository
	likes   LikeChecker
	media   MediaStorage
	logger  *zap.Logger
}

// NewStoryService creates the story lifecycle manager
func NewStoryService(repo StoryRepository, tagRepo StoryTagRepository, likes LikeChecker, media MediaStorage, logger *zap.Logger) *storyService {
	return &storyService{
		repo:    repo,
		tagRepo: tagRepo,
		likes:   likes,
		media:   media,
		logger:  logger,
	}
}

// Submit validates and stores a new story. The story always starts in pending, whatever status the caller asked for.
func (s *storyService) Submit(ctx context.Context, userID int, req *models.SubmitStoryRequest) (int, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if err := validateStoryText(title, content, req.Description); err != nil {
		return 0, err
	}

	if req.Status != "" && req.Status != string(models.StatusPending) {
		s.logger.Info("ignoring requested initial status", zap.Int("userId", userID), zap.String("requested", req.Status))
	}

	media := normalizeMedia(req.Media)
	if err := checkMediaOwner(media, models.MediaRefs{}, userID); err != nil {
		return 0, err
	}

	tagID, err := s.pickTag(ctx, req.TagIDs)
	if err != nil {
		return 0, err
	}

	story := &models.Story{
		UserID:        userID,
		Title:         title,
		Content:       content,
		RawTranscript: req.RawTranscript,
		Polished:      req.Polished,
		Description:   strings.TrimSpace(req.Description),
		DisplayAuthor: strings.TrimSpace(req.DisplayAuthor),
		Language:      req.Language,
		LanguageName:  req.LanguageName,
		Media:         media,
		Status:        models.StatusPending,
	}
	applyDerivedFields(story)

	if err := s.repo.Create(ctx, story); err != nil {
		return 0, err
	}

	if tagID > 0 {
		s.replaceTag(ctx, story.ID, tagID)
	}

	s.logger.Info("story submitted", zap.Int("storyId", story.ID), zap.Int("userId", userID), zap.Int("wordCount", story.WordCount))
	return story.ID, nil
}

// Edit applies an owner edit. Published and rejected stories go back to pending for review.
func (s *storyService) Edit(ctx context.Context, storyID, userID int, req *models.EditStoryRequest) (*models.EditResult, error) {
	current, err := s.repo.GetByID(ctx, storyID, false)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrStoryNotFound
	}
	if current.UserID != userID {
		return nil, ErrNotOwner
	}

	story := current.Story
	if req.Title != nil {
		story.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		story.Content = strings.TrimSpace(*req.Content)
	}
	if req.RawTranscript != nil {
		story.RawTranscript = req.RawTranscript
	}
	if req.Polished != nil {
		story.Polished = *req.Polished
	}
	if req.Description != nil {
		story.Description = strings.TrimSpace(*req.Description)
	}
	if req.DisplayAuthor != nil {
		story.DisplayAuthor = strings.TrimSpace(*req.DisplayAuthor)
	}
	if req.Language != nil {
		story.Language = *req.Language
		story.LanguageName = ""
	}
	if req.LanguageName != nil {
		story.LanguageName = *req.LanguageName
	}

	var replaced []string
	if req.Media != nil {
		next := normalizeMedia(*req.Media)
		if err := checkMediaOwner(next, story.Media, userID); err != nil {
			return nil, err
		}
		replaced = replacedPaths(story.Media, next)
		story.Media = next
	}

	if err := validateStoryText(story.Title, story.Content, story.Description); err != nil {
		return nil, err
	}

	tagID := 0
	if len(req.TagIDs) > 0 {
		if tagID, err = s.pickTag(ctx, req.TagIDs); err != nil {
			return nil, err
		}
	}

	applyDerivedFields(&story)

	result := &models.EditResult{StoryID: storyID, Status: story.Status}
	if story.Status == models.StatusPublished || story.Status == models.StatusRejected {
		story.Status = models.StatusPending
		result.Status = models.StatusPending
		result.Resubmitted = true
	}

	if err := s.repo.Update(ctx, &story); err != nil {
		return nil, err
	}

	if tagID > 0 {
		s.replaceTag(ctx, storyID, tagID)
	}

	for _, path := range replaced {
		if err := s.media.Delete(path); err != nil {
			s.logger.Warn("failed to delete replaced media", zap.Int("storyId", storyID), zap.String("path", path), zap.Error(err))
		}
	}

	s.logger.Info("story edited", zap.Int("storyId", storyID), zap.Bool("resubmitted", result.Resubmitted))
	return result, nil
}

// OwnerDelete moves the caller's own story into the recycling bin
func (s *storyService) OwnerDelete(ctx context.Context, storyID, userID int) error {
	current, err := s.repo.GetByID(ctx, storyID, false)
	if err != nil {
		return err
	}
	if current == nil {
		return ErrStoryNotFound
	}
	if current.UserID != userID {
		return ErrNotOwner
	}

	result, err := s.repo.SoftDelete(ctx, storyID)
	if err != nil {
		return err
	}
	if result != models.TransitionApplied {
		return ErrStoryNotFound
	}

	s.logger.Info("story moved to recycling bin by owner", zap.Int("storyId", storyID), zap.Int("userId", userID))
	return nil
}

// Get returns a story for the detail page and counts the view.
// Unpublished stories are only visible to their owner and to admins.
func (s *storyService) Get(ctx context.Context, storyID, viewerID int, viewerRole models.Role) (*models.StoryDetail, error) {
	detail, err := s.repo.GetByID(ctx, storyID, false)
	if err != nil {
		return nil, err
	}
	if detail == nil {
		return nil, ErrStoryNotFound
	}

	isOwner := viewerID > 0 && detail.UserID == viewerID
	if detail.Status != models.StatusPublished && !isOwner && viewerRole < models.RoleAdmin {
		return nil, ErrStoryNotFound
	}

	if err := s.repo.IncrementViews(ctx, storyID); err != nil {
		s.logger.Warn("failed to count view", zap.Int("storyId", storyID), zap.Error(err))
	} else {
		detail.ViewCount++
	}

	if detail.TagIDs, err = s.tagRepo.TagIDsByStory(ctx, storyID); err != nil {
		return nil, err
	}

	if viewerID > 0 {
		if detail.LikedByViewer, err = s.likes.HasLiked(ctx, storyID, viewerID); err != nil {
			return nil, err
		}
	}

	s.resolveURLs(detail)
	return detail, nil
}

// Library returns the published stories matching filter
func (s *storyService) Library(ctx context.Context, filter models.LibraryFilter) ([]models.StoryListItem, error) {
	filter.Page, filter.Count = normalizePage(filter.Page, filter.Count)
	filter.Search = strings.TrimSpace(filter.Search)
	if filter.LanguageGroup != "" {
		filter.LanguageGroup = textstats.LanguageGroup(filter.LanguageGroup)
	}

	items, err := s.repo.ListPublished(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.resolveListURLs(items), nil
}

// MyStories returns the live stories of a user in every status
func (s *storyService) MyStories(ctx context.Context, userID int) ([]models.StoryListItem, error) {
	items, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.resolveListURLs(items), nil
}

// pickTag keeps a single story type: the first id wins
func (s *storyService) pickTag(ctx context.Context, tagIDs []int) (int, error) {
	if len(tagIDs) == 0 {
		return 0, nil
	}
	if len(tagIDs) > 1 {
		s.logger.Warn("several tags supplied, keeping the first", zap.Ints("tagIds", tagIDs))
	}

	tagID := tagIDs[0]
	if tagID <= 0 {
		return 0, newValidationError("tag_ids", "tag id must be positive")
	}
	exists, err := s.tagRepo.Exists(ctx, tagID)
	if err != nil {
		return 0, err
	}
	if !exists {
		return 0, newValidationError("tag_ids", "tag does not exist")
	}
	return tagID, nil
}

// replaceTag links the story to tagID and recounts the affected tags; failures are logged
func (s *storyService) replaceTag(ctx context.Context, storyID, tagID int) {
	previous, err := s.tagRepo.ReplaceStoryTag(ctx, storyID, tagID)
	if err != nil {
		s.logger.Error("failed to link story tag", zap.Int("storyId", storyID), zap.Int("tagId", tagID), zap.Error(err))
		return
	}
	if err := s.tagRepo.RecountUsage(ctx, append(previous, tagID)...); err != nil {
		s.logger.Warn("failed to recount tag usage", zap.Int("storyId", storyID), zap.Error(err))
	}
}

func (s *storyService) resolveURLs(detail *models.StoryDetail) {
	if p := detail.Media.ImagePath; p != "" {
		detail.ImageURL = s.media.URLFor(p)
	}
	if p := detail.Media.AudioPath; p != "" {
		detail.AudioURL = s.media.URLFor(p)
	}
	if p := detail.Media.VideoPath; p != "" {
		detail.VideoURL = s.media.URLFor(p)
	}
}

func (s *storyService) resolveListURLs(items []models.StoryListItem) []models.StoryListItem {
	for i := range items {
		if items[i].ImagePath != "" {
			items[i].ImageURL = s.media.URLFor(items[i].ImagePath)
		}
	}
	return items
}

func validateStoryText(title, content, description string) error {
	if title == "" {
		return newValidationError("title", "title is required")
	}
	if utf8.RuneCountInString(title) > maxTitleLength {
		return newValidationError("title", "title must be at most 200 characters")
	}
	if content == "" {
		return newValidationError("content", "content is required")
	}
	if utf8.RuneCountInString(description) > maxDescriptionLength {
		return newValidationError("description", "description must be at most 2000 characters")
	}
	return nil
}

// applyDerivedFields recomputes word count, reading time and language fields from the stored text
func applyDerivedFields(story *models.Story) {
	stats := textstats.Compute(story.Content)
	story.WordCount = stats.WordCount
	story.ReadingTime = stats.ReadingTime

	if story.Language == "" {
		story.Language = defaultLanguage
	}
	if story.LanguageName == "" {
		story.LanguageName = textstats.LanguageName(story.Language)
	}
	story.LanguageGroup = textstats.LanguageGroup(story.Language)
}

func normalizeMedia(m models.MediaRefs) models.MediaRefs {
	m.ImagePath = strings.TrimSpace(m.ImagePath)
	m.AudioPath = strings.TrimSpace(m.AudioPath)
	m.VideoPath = strings.TrimSpace(m.VideoPath)
	if m.AudioPath != "" && m.AudioLanguage != "" && m.AudioLanguageName == "" {
		m.AudioLanguageName = textstats.LanguageName(m.AudioLanguage)
	}
	return m
}

// checkMediaOwner rejects media paths outside the caller's storage partition.
// Paths already attached to the story in current are kept as they are.
func checkMediaOwner(next, current models.MediaRefs, userID int) error {
	for _, ref := range []struct {
		field, path, current string
	}{
		{"media.image_path", next.ImagePath, current.ImagePath},
		{"media.audio_path", next.AudioPath, current.AudioPath},
		{"media.video_path", next.VideoPath, current.VideoPath},
	} {
		if ref.path == "" || ref.path == ref.current {
			continue
		}
		if !storage.OwnedBy(ref.path, userID) {
			return newValidationError(ref.field, "media must be uploaded by the story author")
		}
	}
	return nil
}

// replacedPaths returns the old paths that next no longer references
func replacedPaths(old, next models.MediaRefs) []string {
	var paths []string
	for _, pair := range [][2]string{
		{old.ImagePath, next.ImagePath},
		{old.AudioPath, next.AudioPath},
		{old.VideoPath, next.VideoPath},
	} {
		if pair[0] != "" && pair[0] != pair[1] {
			paths = append(paths, pair[0])
		}
	}
	return paths
}

func normalizePage(page, count int) (int, int) {
	if page < 1 {
		page = 1
	}
	if count < 1 {
		count = defaultPageSize
	}
	if count > maxPageSize {
		count = maxPageSize
	}
	return page, count
}

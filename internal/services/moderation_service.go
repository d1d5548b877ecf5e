package services

import (
	"context"
	"time"

	"github.com/storykeeper/backend/internal/models"
	"go.uber.org/zap"
)

// Moderation decisions passed to the notifier
const (
	DecisionApproved = "approved"
	DecisionRejected = "rejected"
)

// ModerationRepository is the interface that wraps the conditional transitions of the Story table
type ModerationRepository interface {
	// Method GetByID retrieves a story with its author.
	//
	// If the story does not exist, nil is returned together with nil error.
	GetByID(ctx context.Context, id int, includeDeleted bool) (*models.StoryDetail, error)
	// Method TransitionStatus moves a live story from one status to another in a single conditional update.
	//
	// "publishedAt" is stored when not nil.
	//
	// The result is not_found when no live story has this id and wrong_state when its status differs from "from".
	TransitionStatus(ctx context.Context, id int, from, to models.StoryStatus, publishedAt *time.Time) (models.TransitionResult, error)
	// Method SoftDelete sets deleted_at of a live story.
	SoftDelete(ctx context.Context, id int) (models.TransitionResult, error)
	// Method Restore clears deleted_at of a story in the recycling bin.
	Restore(ctx context.Context, id int) (models.TransitionResult, error)
	// Method DeleteCascade removes a story of the recycling bin together with its likes and tag links.
	//
	// The tag ids linked to the removed story are returned so their usage can be recounted.
	DeleteCascade(ctx context.Context, id int) (models.TransitionResult, []int, error)
	// Method ListByStatus retrieves live stories with the given status, oldest first.
	ListByStatus(ctx context.Context, status models.StoryStatus, page, count int) ([]models.StoryListItem, error)
	// Method ListDeleted retrieves the recycling bin, most recently deleted first.
	ListDeleted(ctx context.Context, page, count int) ([]models.StoryListItem, error)
	// Method ListDeletedBefore retrieves the ids of stories deleted before cutoff.
	ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]int, error)
	// Method CountByStatus aggregates stories per status.
	CountByStatus(ctx context.Context) (*models.StoryStats, error)
}

// TagUsageRecounter recomputes tag usage counts from the story links
type TagUsageRecounter interface {
	RecountUsage(ctx context.Context, tagIDs ...int) error
}

// DecisionNotifier tells a story owner about a moderation decision
type DecisionNotifier interface {
	// Method NotifyDecision delivers the decision; failures never undo the transition.
	NotifyDecision(ctx context.Context, story *models.StoryDetail, decision, reason string) error
}

type moderationService struct {
	repo     ModerationRepository
	tags     TagUsageRecounter
	media    MediaStorage
	notifier DecisionNotifier
	logger   *zap.Logger
	now      func() time.Time
}

// NewModerationService creates the moderation workflow; notifier may be nil
func NewModerationService(repo ModerationRepository, tags TagUsageRecounter, media MediaStorage, notifier DecisionNotifier, logger *zap.Logger) *moderationService {
	return &moderationService{
		repo:     repo,
		tags:     tags,
		media:    media,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
}

// Approve publishes a pending story and sets published_at
func (s *moderationService) Approve(ctx context.Context, storyID int) (models.TransitionResult, error) {
	now := s.now()
	result, err := s.repo.TransitionStatus(ctx, storyID, models.StatusPending, models.StatusPublished, &now)
	if err != nil {
		return models.TransitionFailed, err
	}

	s.logger.Info("approve story", zap.Int("storyId", storyID), zap.String("result", string(result)))
	if result == models.TransitionApplied {
		s.notify(ctx, storyID, DecisionApproved, "")
	}
	return result, nil
}

// Reject moves a pending story to rejected; reason is only forwarded to the owner
func (s *moderationService) Reject(ctx context.Context, storyID int, reason string) (models.TransitionResult, error) {
	result, err := s.repo.TransitionStatus(ctx, storyID, models.StatusPending, models.StatusRejected, nil)
	if err != nil {
		return models.TransitionFailed, err
	}

	s.logger.Info("reject story", zap.Int("storyId", storyID), zap.String("result", string(result)))
	if result == models.TransitionApplied {
		s.notify(ctx, storyID, DecisionRejected, reason)
	}
	return result, nil
}

// BatchApprove approves every id independently
func (s *moderationService) BatchApprove(ctx context.Context, ids []int) *models.BatchResult {
	return s.batch(ctx, ids, "approve", s.Approve)
}

// BatchReject rejects every id independently
func (s *moderationService) BatchReject(ctx context.Context, ids []int, reason string) *models.BatchResult {
	return s.batch(ctx, ids, "reject", func(ctx context.Context, id int) (models.TransitionResult, error) {
		return s.Reject(ctx, id, reason)
	})
}

// SoftDelete moves a live story into the recycling bin without touching its status
func (s *moderationService) SoftDelete(ctx context.Context, storyID int) (models.TransitionResult, error) {
	result, err := s.repo.SoftDelete(ctx, storyID)
	if err != nil {
		return models.TransitionFailed, err
	}
	s.logger.Info("soft delete story", zap.Int("storyId", storyID), zap.String("result", string(result)))
	return result, nil
}

// Restore brings a story back from the recycling bin with its prior status.
// Restoring a live story is a no-op reported as wrong_state.
func (s *moderationService) Restore(ctx context.Context, storyID int) (models.TransitionResult, error) {
	result, err := s.repo.Restore(ctx, storyID)
	if err != nil {
		return models.TransitionFailed, err
	}
	s.logger.Info("restore story", zap.Int("storyId", storyID), zap.String("result", string(result)))
	return result, nil
}

// Purge permanently removes a story of the recycling bin.
// Media files are deleted first on a best-effort basis, then the rows.
func (s *moderationService) Purge(ctx context.Context, storyID int) (models.TransitionResult, error) {
	story, err := s.repo.GetByID(ctx, storyID, true)
	if err != nil {
		return models.TransitionFailed, err
	}
	if story == nil {
		return models.TransitionNotFound, nil
	}
	if story.DeletedAt == nil {
		return models.TransitionWrongState, nil
	}

	for _, path := range story.Media.Paths() {
		if err := s.media.Delete(path); err != nil {
			s.logger.Warn("failed to delete media during purge", zap.Int("storyId", storyID), zap.String("path", path), zap.Error(err))
		}
	}

	result, tagIDs, err := s.repo.DeleteCascade(ctx, storyID)
	if err != nil {
		return models.TransitionFailed, err
	}

	if result == models.TransitionApplied && len(tagIDs) > 0 {
		if err := s.tags.RecountUsage(ctx, tagIDs...); err != nil {
			s.logger.Warn("failed to recount tag usage after purge", zap.Int("storyId", storyID), zap.Error(err))
		}
	}

	s.logger.Info("purge story", zap.Int("storyId", storyID), zap.String("result", string(result)))
	return result, nil
}

// BatchPurge purges every id; one failing id does not stop the others
func (s *moderationService) BatchPurge(ctx context.Context, ids []int) *models.BatchResult {
	return s.batch(ctx, ids, "purge", s.Purge)
}

// PurgeExpired purges stories that stayed in the recycling bin longer than retention
func (s *moderationService) PurgeExpired(ctx context.Context, retention time.Duration) (*models.BatchResult, error) {
	ids, err := s.repo.ListDeletedBefore(ctx, s.now().Add(-retention))
	if err != nil {
		return nil, err
	}
	return s.BatchPurge(ctx, ids), nil
}

// Queue lists live stories of a status for review, pending by default
func (s *moderationService) Queue(ctx context.Context, status models.StoryStatus, page, count int) ([]models.StoryListItem, error) {
	if status == "" {
		status = models.StatusPending
	}
	if !status.Valid() {
		return nil, newValidationError("status", "unknown story status")
	}
	page, count = normalizePage(page, count)
	return s.repo.ListByStatus(ctx, status, page, count)
}

// Bin lists the recycling bin
func (s *moderationService) Bin(ctx context.Context, page, count int) ([]models.StoryListItem, error) {
	page, count = normalizePage(page, count)
	return s.repo.ListDeleted(ctx, page, count)
}

// Stats returns story counts for the admin dashboard
func (s *moderationService) Stats(ctx context.Context) (*models.StoryStats, error) {
	return s.repo.CountByStatus(ctx)
}

func (s *moderationService) batch(ctx context.Context, ids []int, action string, fn func(context.Context, int) (models.TransitionResult, error)) *models.BatchResult {
	out := models.NewBatchResult()
	for _, id := range ids {
		if _, seen := out.Results[id]; seen {
			continue
		}
		result, err := fn(ctx, id)
		if err != nil {
			s.logger.Error("batch item failed", zap.String("action", action), zap.Int("storyId", id), zap.Error(err))
			result = models.TransitionFailed
		}
		out.Record(id, result)
	}

	s.logger.Info("batch moderation finished", zap.String("action", action), zap.Int("requested", len(ids)), zap.Int("affected", out.Affected))
	return out
}

func (s *moderationService) notify(ctx context.Context, storyID int, decision, reason string) {
	if s.notifier == nil {
		return
	}
	story, err := s.repo.GetByID(ctx, storyID, false)
	if err != nil || story == nil {
		s.logger.Warn("failed to load story for decision notice", zap.Int("storyId", storyID), zap.Error(err))
		return
	}
	if err := s.notifier.NotifyDecision(ctx, story, decision, reason); err != nil {
		s.logger.Warn("failed to notify owner", zap.Int("storyId", storyID), zap.String("decision", decision), zap.Error(err))
	}
}

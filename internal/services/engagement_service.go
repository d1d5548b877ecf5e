package services

import (
	"context"

	"github.com/storykeeper/backend/internal/models"
	"go.uber.org/zap"
)

// LikeRepository is the interface that wraps authenticated like rows
type LikeRepository interface {
	// Method Toggle inserts or removes the (story, user) like row and adjusts like_count in the same transaction.
	//
	// If the story is not live, nil is returned together with nil error.
	Toggle(ctx context.Context, storyID, userID int) (*models.LikeResult, error)
}

// CounterRepository is the interface that wraps the anonymous engagement estimate
type CounterRepository interface {
	// Method Counters reads the counters of a live story.
	//
	// If the story is not live, nil is returned together with nil error.
	Counters(ctx context.Context, id int) (*models.StoryCounters, error)
	// Method AdjustAnonymousLikes adds delta to anonymous_like_count, never going below zero.
	AdjustAnonymousLikes(ctx context.Context, id int, delta int) (*models.StoryCounters, error)
}

// SessionToggle flips the story in the visitor's session and reports whether it is now liked
type SessionToggle func() (bool, error)

type engagementService struct {
	likes    LikeRepository
	counters CounterRepository
	logger   *zap.Logger
}

// NewEngagementService creates the engagement counters service
func NewEngagementService(likes LikeRepository, counters CounterRepository, logger *zap.Logger) *engagementService {
	return &engagementService{likes: likes, counters: counters, logger: logger}
}

// ToggleUser toggles the like of an authenticated user; like_count stays equal to the like rows
func (s *engagementService) ToggleUser(ctx context.Context, storyID, userID int) (*models.LikeResult, error) {
	result, err := s.likes.Toggle(ctx, storyID, userID)
	if err != nil {
		return nil, err
	}
	if result == nil {
		return nil, ErrStoryNotFound
	}

	s.logger.Debug("like toggled", zap.Int("storyId", storyID), zap.Int("userId", userID), zap.Bool("liked", result.Liked))
	return result, nil
}

// ToggleAnonymous toggles a session-scoped like. Only the anonymous estimate changes,
// the authoritative like_count is never touched by visitors without an account.
func (s *engagementService) ToggleAnonymous(ctx context.Context, storyID int, toggle SessionToggle) (*models.LikeResult, error) {
	counters, err := s.counters.Counters(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if counters == nil {
		return nil, ErrStoryNotFound
	}

	liked, err := toggle()
	if err != nil {
		return nil, err
	}

	delta := -1
	if liked {
		delta = 1
	}
	counters, err = s.counters.AdjustAnonymousLikes(ctx, storyID, delta)
	if err != nil {
		return nil, err
	}
	if counters == nil {
		return nil, ErrStoryNotFound
	}

	return &models.LikeResult{
		Liked:                 liked,
		LikeCount:             counters.LikeCount,
		AnonymousLikeEstimate: counters.AnonymousLikeCount,
	}, nil
}

package services

import (
	"context"

	"github.com/storykeeper/backend/internal/models"
	"go.uber.org/zap"
)

// TagRepository is the interface that wraps read and maintenance access to tags
type TagRepository interface {
	// Method ListCategoriesWithTags retrieves every category with its tags.
	ListCategoriesWithTags(ctx context.Context) ([]models.TagCategory, error)
	// Method RecountAll recomputes usage_count of every tag and returns the number of tags updated.
	RecountAll(ctx context.Context) (int, error)
}

type tagService struct {
	repo   TagRepository
	logger *zap.Logger
}

// NewTagService creates a new tag service
func NewTagService(repo TagRepository, logger *zap.Logger) *tagService {
	return &tagService{repo: repo, logger: logger}
}

// List returns tag categories with their tags
func (s *tagService) List(ctx context.Context) ([]models.TagCategory, error) {
	return s.repo.ListCategoriesWithTags(ctx)
}

// RecountAll recomputes every usage counter from the story links
func (s *tagService) RecountAll(ctx context.Context) (int, error) {
	updated, err := s.repo.RecountAll(ctx)
	if err != nil {
		return 0, err
	}
	s.logger.Info("tag usage recounted", zap.Int("tags", updated))
	return updated, nil
}

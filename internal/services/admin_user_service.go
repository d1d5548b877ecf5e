package services

import (
	"context"

	"github.com/storykeeper/backend/internal/models"
	"go.uber.org/zap"
)

// AdminUserRepository is the interface that wraps the user administration methods
type AdminUserRepository interface {
	UserRepository
	// Method UpdateRole changes the role of a user.
	UpdateRole(ctx context.Context, userID int, role models.Role) error
	// Method Delete removes a user and, through foreign keys, everything the user owns.
	//
	// The returned flag is false when no such user exists.
	Delete(ctx context.Context, userID int) (bool, error)
}

// UserMediaLister lists the media paths referenced by a user's stories
type UserMediaLister interface {
	ListMediaByUser(ctx context.Context, userID int) ([]string, error)
}

// TagRecounter recomputes every tag usage counter
type TagRecounter interface {
	RecountAll(ctx context.Context) (int, error)
}

type adminUserService struct {
	users  AdminUserRepository
	media  UserMediaLister
	files  MediaStorage
	tags   TagRecounter
	logger *zap.Logger
}

// NewAdminUserService creates a new admin user service
func NewAdminUserService(users AdminUserRepository, media UserMediaLister, files MediaStorage, tags TagRecounter, logger *zap.Logger) *adminUserService {
	return &adminUserService{
		users:  users,
		media:  media,
		files:  files,
		tags:   tags,
		logger: logger,
	}
}

// CreateAdmin creates a user with the admin role
func (s *adminUserService) CreateAdmin(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	user, err := createUser(ctx, s.users, req, models.RoleAdmin)
	if err != nil {
		return nil, err
	}
	s.logger.Info("admin created", zap.Int("userId", user.ID))
	return user, nil
}

// SetRole changes the role of an existing user
func (s *adminUserService) SetRole(ctx context.Context, userID int, role models.Role) error {
	if role != models.RoleUser && role != models.RoleAdmin {
		return newValidationError("role", "unknown role")
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.users.UpdateRole(ctx, userID, role)
}

// DeleteUser removes a user with all stories. Media files go first, best-effort.
func (s *adminUserService) DeleteUser(ctx context.Context, userID int) error {
	paths, err := s.media.ListMediaByUser(ctx, userID)
	if err != nil {
		return err
	}

	deleted, err := s.users.Delete(ctx, userID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrUserNotFound
	}

	for _, path := range paths {
		if err := s.files.Delete(path); err != nil {
			s.logger.Warn("failed to delete user media", zap.Int("userId", userID), zap.String("path", path), zap.Error(err))
		}
	}

	if _, err := s.tags.RecountAll(ctx); err != nil {
		s.logger.Warn("failed to recount tag usage after user deletion", zap.Int("userId", userID), zap.Error(err))
	}

	s.logger.Info("user deleted", zap.Int("userId", userID), zap.Int("mediaFiles", len(paths)))
	return nil
}

package services

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storykeeper/backend/internal/models"
	"github.com/storykeeper/backend/internal/ratelimit"
	"github.com/storykeeper/backend/internal/tasks"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// PasswordResetRepository is the interface that wraps methods for PasswordResetToken table data access
type PasswordResetRepository interface {
	// Method Create stores a new reset token.
	Create(ctx context.Context, token *models.PasswordResetToken) error
	// Method Consume marks an unused, unexpired token as used and returns its user id.
	//
	// If the token is unknown, used or expired, 0 is returned together with nil error.
	Consume(ctx context.Context, token string, now time.Time) (int, error)
}

// ResetMailer schedules the password reset email
type ResetMailer interface {
	EnqueuePasswordReset(ctx context.Context, payload tasks.PasswordResetPayload) error
}

// PasswordConfig holds the reset flow settings
type PasswordConfig struct {
	// TokenTTL is the lifetime of a reset token
	TokenTTL time.Duration
	// ResetURL is the front-end page receiving the token as the "token" query parameter
	ResetURL string
}

type passwordService struct {
	users   UserRepository
	tokens  UserTokenRepository
	resets  PasswordResetRepository
	mailer  ResetMailer
	limiter ratelimit.Limiter
	cfg     PasswordConfig
	logger  *zap.Logger
	now     func() time.Time
}

// NewPasswordService creates the password reset and change service
func NewPasswordService(users UserRepository, tokens UserTokenRepository, resets PasswordResetRepository, mailer ResetMailer, limiter ratelimit.Limiter, cfg PasswordConfig, logger *zap.Logger) *passwordService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	return &passwordService{
		users:   users,
		tokens:  tokens,
		resets:  resets,
		mailer:  mailer,
		limiter: limiter,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// RequestReset sends a reset link when the email belongs to a user.
// Unknown emails succeed silently so the endpoint cannot be used to enumerate accounts.
func (s *passwordService) RequestReset(ctx context.Context, email, clientKey string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegex.MatchString(email) {
		return newValidationError("email", "invalid email format")
	}
	if err := s.allow(ctx, "reset:"+clientKey); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		s.logger.Info("password reset requested for unknown email")
		return nil
	}

	token := &models.PasswordResetToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.cfg.TokenTTL),
	}
	if err := s.resets.Create(ctx, token); err != nil {
		return err
	}

	payload := tasks.PasswordResetPayload{
		Email:     user.Email,
		Username:  user.Username,
		ResetLink: s.resetLink(token.Token),
		ExpiresAt: token.ExpiresAt,
	}
	if err := s.mailer.EnqueuePasswordReset(ctx, payload); err != nil {
		return fmt.Errorf("failed to schedule reset email: %w", err)
	}

	s.logger.Info("password reset requested", zap.Int("userId", user.ID))
	return nil
}

// ConfirmReset sets a new password with a reset token; the token works exactly once
func (s *passwordService) ConfirmReset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return newValidationError("token", "token is required")
	}
	if err := checkPassword(newPassword); err != nil {
		return err
	}

	userID, err := s.resets.Consume(ctx, token, s.now())
	if err != nil {
		return err
	}
	if userID == 0 {
		return ErrTokenInvalid
	}

	if err := s.setPassword(ctx, userID, newPassword); err != nil {
		return err
	}

	s.logger.Info("password reset completed", zap.Int("userId", userID))
	return nil
}

// ChangePassword replaces the password of a signed-in user after checking the current one
func (s *passwordService) ChangePassword(ctx context.Context, userID int, req *models.ChangePasswordRequest) error {
	if err := s.allow(ctx, fmt.Sprintf("change:%d", userID)); err != nil {
		return err
	}
	if req.CurrentPassword == "" {
		return newValidationError("current_password", "current password is required")
	}
	if err := checkPassword(req.NewPassword); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	if err := s.setPassword(ctx, userID, req.NewPassword); err != nil {
		return err
	}

	s.logger.Info("password changed", zap.Int("userId", userID))
	return nil
}

// setPassword stores the new hash and signs the user out everywhere
func (s *passwordService) setPassword(ctx context.Context, userID int, password string) error {
	hash, err := hashPassword(password)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return err
	}
	if err := s.tokens.DeleteByUser(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke refresh tokens", zap.Int("userId", userID), zap.Error(err))
	}
	return nil
}

func (s *passwordService) allow(ctx context.Context, key string) error {
	if s.limiter == nil {
		return nil
	}
	ok, err := s.limiter.Allow(ctx, key)
	if err != nil {
		// The limiter is advisory, an unavailable backend must not lock users out
		s.logger.Warn("rate limiter unavailable", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !ok {
		return ErrRateLimited
	}
	return nil
}

func (s *passwordService) resetLink(token string) string {
	u, err := url.Parse(s.cfg.ResetURL)
	if err != nil || s.cfg.ResetURL == "" {
		return s.cfg.ResetURL + "?token=" + url.QueryEscape(token)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}

package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/storykeeper/backend/internal/auth"
	"github.com/storykeeper/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the interface that wraps methods for User table data access
type UserRepository interface {
	// Method Create inserts a new user into the database.
	//
	// "user" parameter is used to create a new user, its ID is set on success.
	//
	// If the email or username is taken, models.ErrDuplicate is returned.
	Create(ctx context.Context, user *models.User) error
	// Method GetByLogin retrieves a user by email or username.
	//
	// If user with such email or username does not exist, nil is returned together with nil error.
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	// Method GetByEmail retrieves a user by email.
	//
	// If user with such email does not exist, nil is returned together with nil error.
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// Method GetByID retrieves a user by ID.
	//
	// If user with such ID does not exist, nil is returned together with nil error.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// Method ExistsByEmailOrUsername reports whether the email and the username are already taken.
	//
	// If some error occurs during check, the error will be returned together with "false" values.
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, bool, error)
	// Method UpdatePassword replaces the password hash of a user.
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error
}

// UserTokenRepository is the interface that wraps methods for UserToken table data access
type UserTokenRepository interface {
	// Method Create inserts a new refresh token.
	Create(ctx context.Context, userToken *models.UserToken) error
	// Method GetByToken retrieves a refresh token row.
	//
	// If the token does not exist, nil is returned together with nil error.
	GetByToken(ctx context.Context, token string) (*models.UserToken, error)
	// Method UpdateToken rotates a refresh token of a user.
	//
	// If the old token does not belong to the user, an error is returned.
	UpdateToken(ctx context.Context, oldToken, newToken string, userID int) error
	// Method DeleteByUser revokes every refresh token of a user.
	DeleteByUser(ctx context.Context, userID int) error
}

// authService implements registration, login and token refresh
type authService struct {
	userRepo       UserRepository
	userTokenRepo  UserTokenRepository
	tokenGenerator *auth.TokenGenerator
	logger         *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo UserRepository, userTokenRepo UserTokenRepository, tokenGenerator *auth.TokenGenerator, logger *zap.Logger) *authService {
	return &authService{
		userRepo:       userRepo,
		userTokenRepo:  userTokenRepo,
		tokenGenerator: tokenGenerator,
		logger:         logger,
	}
}

// emailRegex validates email format
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// passwordRegex validates password: at least 8 chars, uppercase, lowercase, number, special: !_?^&+-=|
var passwordRegex = []*regexp.Regexp{
	regexp.MustCompile(`.{8,}`),
	regexp.MustCompile(`[a-z]`),
	regexp.MustCompile(`[A-Z]`),
	regexp.MustCompile(`[0-9]`),
	regexp.MustCompile(`[!_?^&+\-=|]`),
}

// Register creates a new user account and signs it in
func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (string, string, error) {
	user, err := createUser(ctx, s.userRepo, req, models.RoleUser)
	if err != nil {
		return "", "", err
	}

	s.logger.Info("user registered", zap.Int("userId", user.ID))
	return generateAndSaveTokens(ctx, s.tokenGenerator, s.userTokenRepo, user.ID, user.Role)
}

// Login authenticates a user by email or username
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (string, string, error) {
	req.Login = strings.TrimSpace(req.Login)
	if req.Login == "" {
		return "", "", newValidationError("login", "login cannot be empty")
	}
	if req.Password == "" {
		return "", "", newValidationError("password", "password cannot be empty")
	}

	user, err := s.userRepo.GetByLogin(ctx, req.Login)
	if err != nil {
		return "", "", err
	}
	if user == nil {
		return "", "", ErrInvalidCredentials
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return "", "", ErrInvalidCredentials
	}

	return generateAndSaveTokens(ctx, s.tokenGenerator, s.userTokenRepo, user.ID, user.Role)
}

// Refresh rotates a refresh token and issues a new access token.
//
// The database lookup and the signature check do not depend on each other, so they run in parallel.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, string, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	errorChan := make(chan error, 2)
	userTokenChan := make(chan *models.UserToken, 1)

	go func() {
		userToken, err := s.userTokenRepo.GetByToken(ctx, refreshToken)
		if err != nil {
			userTokenChan <- nil
			errorChan <- fmt.Errorf("failed to get user token by refresh token: %w", err)
			return
		}
		userTokenChan <- userToken
		errorChan <- nil
	}()

	go func() {
		if err := s.tokenGenerator.ValidateRefreshToken(refreshToken); err != nil {
			errorChan <- ErrTokenInvalid
			return
		}
		errorChan <- nil
	}()

	for range 2 {
		if err := <-errorChan; err != nil {
			return "", "", err
		}
	}
	userToken := <-userTokenChan
	if userToken == nil {
		return "", "", ErrTokenInvalid
	}

	user, err := s.userRepo.GetByID(ctx, userToken.UserID)
	if err != nil {
		return "", "", err
	}
	if user == nil {
		return "", "", ErrTokenInvalid
	}

	accessToken, newRefreshToken, err := s.tokenGenerator.GenerateTokens(userToken.UserID, int(user.Role))
	if err != nil {
		return "", "", err
	}

	if err := s.userTokenRepo.UpdateToken(ctx, refreshToken, newRefreshToken, userToken.UserID); err != nil {
		return "", "", err
	}

	return accessToken, newRefreshToken, nil
}

// generateAndSaveTokens issues a token pair and stores the refresh token
func generateAndSaveTokens(ctx context.Context, tokenGenerator *auth.TokenGenerator,
	userTokenRepo UserTokenRepository, userID int, role models.Role) (string, string, error) {
	accessToken, refreshToken, err := tokenGenerator.GenerateTokens(userID, int(role))
	if err != nil {
		return "", "", fmt.Errorf("failed to generate tokens: %w", err)
	}

	userToken := &models.UserToken{
		UserID: userID,
		Token:  refreshToken,
	}
	if err := userTokenRepo.Create(ctx, userToken); err != nil {
		return "", "", fmt.Errorf("failed to save refresh token: %w", err)
	}

	return accessToken, refreshToken, nil
}

// createUser validates credentials, hashes the password and inserts the user with role
func createUser(ctx context.Context, userRepo UserRepository, req *models.RegisterRequest, role models.Role) (*models.User, error) {
	email, username, err := checkRegisterCredentials(ctx, userRepo, req.Email, req.Username, req.Password)
	if err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
	}
	if err := userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrDuplicate) {
			return nil, newValidationError("email", "email or username already exists")
		}
		return nil, err
	}

	return user, nil
}

// checkRegisterCredentials validates the register fields and returns the normalized email and username
func checkRegisterCredentials(ctx context.Context, userRepo UserRepository, email, username, password string) (string, string, error) {
	normalizedEmail := strings.TrimSpace(strings.ToLower(email))
	normalizedUsername := strings.TrimSpace(username)

	if err := checkPassword(password); err != nil {
		return "", "", err
	}
	if !emailRegex.MatchString(normalizedEmail) {
		return "", "", newValidationError("email", "invalid email format")
	}
	if normalizedUsername == "" {
		return "", "", newValidationError("username", "username cannot be empty")
	}

	emailExists, usernameExists, err := userRepo.ExistsByEmailOrUsername(ctx, normalizedEmail, normalizedUsername)
	if err != nil {
		return "", "", fmt.Errorf("failed to check user credentials: %w", err)
	}
	if emailExists {
		return "", "", newValidationError("email", "email already exists")
	}
	if usernameExists {
		return "", "", newValidationError("username", "username already exists")
	}

	return normalizedEmail, normalizedUsername, nil
}

func checkPassword(password string) error {
	for _, regex := range passwordRegex {
		if !regex.MatchString(password) {
			return newValidationError("password", "password must be at least 8 characters long and contain at least one uppercase letter, one lowercase letter, one number, and one special character (!_?^&+-=|)")
		}
	}
	return nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

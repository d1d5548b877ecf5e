package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	"github.com/storykeeper/backend/internal/middleware"
	"github.com/storykeeper/backend/internal/models"
	"go.uber.org/zap"
)

const (
	refreshTokenCookie = "refresh_token"
	accessTokenMaxAge  = 3600
	refreshTokenMaxAge = 604800
)

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Register performs a user credentials validation and creation and returns access and refresh tokens.
	//
	// "req" parameter contains email, username and password.
	//
	// If user passed invalid credentials, or such user already exists, a *services.ValidationError is returned together with empty strings.
	Register(ctx context.Context, req *models.RegisterRequest) (string, string, error)
	// Method Login performs a user credentials validation and returns access and refresh tokens.
	//
	// "req" parameter contains login (email or username) and password.
	//
	// If the credentials do not match services.ErrInvalidCredentials is returned together with empty strings.
	Login(ctx context.Context, req *models.LoginRequest) (string, string, error)
	// Method Refresh performs a refresh token validation and returns a new access token and refresh token.
	//
	// If refresh token is invalid, expired or unknown services.ErrTokenInvalid is returned together with empty strings.
	Refresh(ctx context.Context, refreshToken string) (string, string, error)
}

// PasswordService is the interface that wraps password reset and change.
type PasswordService interface {
	// Method RequestReset e-mails a single-use reset link when the address belongs to a user.
	//
	// "clientKey" parameter identifies the caller for rate limiting.
	//
	// Unknown addresses are not reported so the endpoint cannot be used to enumerate users.
	// If the caller exceeded its quota services.ErrRateLimited is returned.
	RequestReset(ctx context.Context, email, clientKey string) error
	// Method ConfirmReset consumes the reset token and sets the new password. Expired or used tokens yield services.ErrTokenInvalid.
	ConfirmReset(ctx context.Context, token, newPassword string) error
	// Method ChangePassword checks the current password of the user and replaces it.
	ChangePassword(ctx context.Context, userID int, req *models.ChangePasswordRequest) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	BaseHandler
	authService     AuthService
	passwordService PasswordService
	secureCookies   bool
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService AuthService, passwordService PasswordService, secureCookies bool, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler:     BaseHandler{Logger: logger},
		authService:     authService,
		passwordService: passwordService,
		secureCookies:   secureCookies,
	}
}

// RegisterRoutes registers all auth handler routes
// Note: This assumes the router is already scoped to /api/v1
func (h *AuthHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/refresh", h.Refresh)
		r.Post("/password-reset/request", h.RequestPasswordReset)
		r.Post("/password-reset/confirm", h.ConfirmPasswordReset)
	})

	r.With(authMiddleware).Post("/me/password", h.ChangePassword)
}

// Register handles POST /auth/register
// @Summary Register a new user
// @Description Register a new user with email, username and password. Returns access and refresh tokens as HTTP-only cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Register request"
// @Success 201 {object} map[string]any "User registered successfully"
// @Failure 400 {object} ErrorResponse "Invalid request body or user already exists"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	accessToken, refreshToken, err := h.authService.Register(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, err, "register user")
		return
	}

	h.setTokenCookies(w, accessToken, refreshToken)
	h.RespondSuccess(w, http.StatusCreated, Envelope{"message": "user registered successfully"})
}

// Login handles POST /auth/login
// @Summary Login user
// @Description Authenticate user with login (email or username) and password. Returns access and refresh tokens as HTTP-only cookies.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login request"
// @Success 200 {object} map[string]any "Login successful"
// @Failure 400 {object} ErrorResponse "Invalid request body"
// @Failure 401 {object} ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	accessToken, refreshToken, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		h.RespondServiceError(w, err, "login user")
		return
	}

	h.setTokenCookies(w, accessToken, refreshToken)
	h.RespondSuccess(w, http.StatusOK, Envelope{"message": "login successful"})
}

// RefreshRequest represents a token refresh request
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /auth/refresh
// @Summary Refresh access token
// @Description Refresh access and refresh tokens using a valid refresh token. Token can be provided in request body or as a cookie.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest false "Refresh token request (optional if using cookie)"
// @Success 200 {object} map[string]any "Tokens refreshed successfully"
// @Failure 400 {object} ErrorResponse "Refresh token required"
// @Failure 401 {object} ErrorResponse "Invalid refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var refreshToken string
	var req RefreshRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err == nil && req.RefreshToken != "" {
		refreshToken = req.RefreshToken
	} else {
		cookie, err := r.Cookie(refreshTokenCookie)
		if err != nil {
			h.RespondError(w, http.StatusBadRequest, "refresh token required", ErrorTypeValidation)
			return
		}
		refreshToken = cookie.Value
	}

	accessToken, newRefreshToken, err := h.authService.Refresh(r.Context(), refreshToken)
	if err != nil {
		h.RespondServiceError(w, err, "refresh tokens")
		return
	}

	h.setTokenCookies(w, accessToken, newRefreshToken)
	h.RespondSuccess(w, http.StatusOK, Envelope{"message": "tokens refreshed successfully"})
}

// RequestPasswordReset handles POST /auth/password-reset/request
// @Summary Request a password reset link
// @Description Always reports success for well-formed requests, whether or not the address is registered
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.PasswordResetRequest true "E-mail"
// @Success 200 {object} map[string]any
// @Failure 429 {object} ErrorResponse "Too many requests"
// @Router /auth/password-reset/request [post]
func (h *AuthHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordResetRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	clientKey, err := httprate.KeyByIP(r)
	if err != nil {
		clientKey = r.RemoteAddr
	}

	if err := h.passwordService.RequestReset(r.Context(), req.Email, clientKey); err != nil {
		h.RespondServiceError(w, err, "request password reset")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{"message": "if the address is registered, a reset link has been sent"})
}

// ConfirmPasswordReset handles POST /auth/password-reset/confirm
// @Summary Set a new password with a reset token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.PasswordResetConfirm true "Token and new password"
// @Success 200 {object} map[string]any
// @Failure 400 {object} ErrorResponse "Weak password"
// @Failure 401 {object} ErrorResponse "Invalid or expired token"
// @Router /auth/password-reset/confirm [post]
func (h *AuthHandler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req models.PasswordResetConfirm
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.passwordService.ConfirmReset(r.Context(), req.Token, req.NewPassword); err != nil {
		h.RespondServiceError(w, err, "reset password")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{"message": "password has been reset, please log in again"})
}

// ChangePassword handles POST /me/password
// @Summary Change own password
// @Description Signs out every other session by revoking refresh tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} map[string]any
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 401 {object} ErrorResponse "Wrong current password"
// @Failure 429 {object} ErrorResponse "Too many attempts"
// @Security BearerAuth
// @Router /me/password [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req models.ChangePasswordRequest
	if !h.DecodeJSON(w, r, &req) {
		return
	}

	if err := h.passwordService.ChangePassword(r.Context(), userID, &req); err != nil {
		h.RespondServiceError(w, err, "change password")
		return
	}

	h.RespondSuccess(w, http.StatusOK, Envelope{"message": "password changed"})
}

// setTokenCookies sets access and refresh tokens as HTTP-only cookies
func (h *AuthHandler) setTokenCookies(w http.ResponseWriter, accessToken, refreshToken string) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    accessToken,
		Path:     "/",
		MaxAge:   accessTokenMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    refreshToken,
		Path:     "/",
		MaxAge:   refreshTokenMaxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

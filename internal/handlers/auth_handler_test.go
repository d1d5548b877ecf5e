package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/storykeeper/backend/internal/middleware"
	"github.com/storykeeper/backend/internal/models"
	"github.com/storykeeper/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"
)

func setupAuthRouter(t *testing.T, authService *mockAuthService, passwordService *mockPasswordService) chi.Router {
	t.Helper()
	h := NewAuthHandler(authService, passwordService, true, zaptest.NewLogger(t))
	r := chi.NewRouter()
	h.RegisterRoutes(r, withUser(11, models.RoleUser))
	return r
}

func cookieByName(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestAuthHandler_LoginSetsCookies(t *testing.T) {
	router := setupAuthRouter(t, &mockAuthService{}, &mockPasswordService{})

	rec, body := doRequest(t, router, http.MethodPost, "/auth/login", `{"login":"reader","password":"Password1!"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	access := cookieByName(rec, middleware.AccessTokenCookie)
	if assert.NotNil(t, access) {
		assert.Equal(t, "access", access.Value)
		assert.True(t, access.HttpOnly)
		assert.True(t, access.Secure)
		assert.Equal(t, accessTokenMaxAge, access.MaxAge)
	}
	refresh := cookieByName(rec, refreshTokenCookie)
	if assert.NotNil(t, refresh) {
		assert.Equal(t, refreshTokenMaxAge, refresh.MaxAge)
	}
}

func TestAuthHandler_Errors(t *testing.T) {
	tests := []struct {
		name              string
		path              string
		body              string
		err               error
		expectedStatus    int
		expectedErrorType string
	}{
		{
			name:              "register duplicate",
			path:              "/auth/register",
			body:              `{"username":"a","email":"a@b.c","password":"x"}`,
			err:               &services.ValidationError{Field: "email", Message: "user with this email or username already exists"},
			expectedStatus:    http.StatusBadRequest,
			expectedErrorType: ErrorTypeValidation,
		},
		{
			name:              "wrong password",
			path:              "/auth/login",
			body:              `{"login":"a","password":"x"}`,
			err:               services.ErrInvalidCredentials,
			expectedStatus:    http.StatusUnauthorized,
			expectedErrorType: ErrorTypeAuthentication,
		},
		{
			name:              "revoked refresh token",
			path:              "/auth/refresh",
			body:              `{"refresh_token":"old"}`,
			err:               services.ErrTokenInvalid,
			expectedStatus:    http.StatusUnauthorized,
			expectedErrorType: ErrorTypeInvalidToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := setupAuthRouter(t, &mockAuthService{err: tt.err}, &mockPasswordService{})

			rec, body := doRequest(t, router, http.MethodPost, tt.path, tt.body)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectedErrorType, body["error_type"])
			assert.Nil(t, cookieByName(rec, middleware.AccessTokenCookie))
		})
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	t.Run("token from body", func(t *testing.T) {
		authService := &mockAuthService{}
		router := setupAuthRouter(t, authService, &mockPasswordService{})

		rec, _ := doRequest(t, router, http.MethodPost, "/auth/refresh", `{"refresh_token":"from-body"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "from-body", authService.refreshToken)
		assert.Equal(t, "new-access", cookieByName(rec, middleware.AccessTokenCookie).Value)
	})

	t.Run("token from cookie", func(t *testing.T) {
		authService := &mockAuthService{}
		router := setupAuthRouter(t, authService, &mockPasswordService{})
		req := httptest.NewRequest(http.MethodPost, "/auth/refresh", strings.NewReader(""))
		req.AddCookie(&http.Cookie{Name: refreshTokenCookie, Value: "from-cookie"})
		rec := httptest.NewRecorder()

		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "from-cookie", authService.refreshToken)
	})

	t.Run("token missing", func(t *testing.T) {
		router := setupAuthRouter(t, &mockAuthService{}, &mockPasswordService{})

		rec, _ := doRequest(t, router, http.MethodPost, "/auth/refresh", "")

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuthHandler_PasswordReset(t *testing.T) {
	t.Run("request keyed by client ip", func(t *testing.T) {
		passwords := &mockPasswordService{}
		router := setupAuthRouter(t, &mockAuthService{}, passwords)

		rec, body := doRequest(t, router, http.MethodPost, "/auth/password-reset/request", `{"email":"nobody@example.com"}`)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, true, body["success"])
		if assert.Len(t, passwords.clientKeys, 1) {
			assert.Equal(t, "192.0.2.1", passwords.clientKeys[0])
		}
	})

	t.Run("rate limited", func(t *testing.T) {
		router := setupAuthRouter(t, &mockAuthService{}, &mockPasswordService{err: services.ErrRateLimited})

		rec, body := doRequest(t, router, http.MethodPost, "/auth/password-reset/request", `{"email":"a@b.c"}`)

		assert.Equal(t, http.StatusTooManyRequests, rec.Code)
		assert.Equal(t, ErrorTypeRateLimited, body["error_type"])
	})

	t.Run("confirm with used token", func(t *testing.T) {
		router := setupAuthRouter(t, &mockAuthService{}, &mockPasswordService{err: services.ErrTokenInvalid})

		rec, _ := doRequest(t, router, http.MethodPost, "/auth/password-reset/confirm", `{"token":"t","new_password":"Password1!"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	passwords := &mockPasswordService{}
	router := setupAuthRouter(t, &mockAuthService{}, passwords)

	rec, _ := doRequest(t, router, http.MethodPost, "/me/password", `{"current_password":"Password1!","new_password":"Password2!"}`)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 11, passwords.changedFor)
}

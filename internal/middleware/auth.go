package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

// AccessTokenCookie is the cookie holding the access token for browser clients
const AccessTokenCookie = "access_token"

// TokenValidator validates access tokens and returns the user id and role they carry
type TokenValidator interface {
	ValidateAccessToken(token string) (int, int, error)
}

// extractToken reads the bearer token from the Authorization header, then from the access token cookie
func extractToken(r *http.Request) string {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		scheme, token, found := strings.Cut(authHeader, " ")
		if found && strings.EqualFold(scheme, "bearer") {
			return strings.TrimSpace(token)
		}
	}

	if cookie, err := r.Cookie(AccessTokenCookie); err == nil {
		return cookie.Value
	}

	return ""
}

func withIdentity(ctx context.Context, userID, role int) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, userRoleKey, role)
}

// AuthMiddleware requires a valid access token and stores the caller identity in the context
func AuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return RoleMiddleware(validator, 0)
}

// RoleMiddleware requires a valid access token whose role is at least requiredRole
func RoleMiddleware(validator TokenValidator, requiredRole int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				writeFailure(w, http.StatusUnauthorized, "authentication required", "authentication_required")
				return
			}

			userID, role, err := validator.ValidateAccessToken(token)
			if err != nil {
				writeFailure(w, http.StatusUnauthorized, "invalid or expired token", "invalid_token")
				return
			}

			if role < requiredRole {
				writeFailure(w, http.StatusForbidden, "insufficient permissions", "forbidden")
				return
			}

			next.ServeHTTP(w, r.WithContext(withIdentity(r.Context(), userID, role)))
		})
	}
}

// OptionalAuthMiddleware stores the caller identity when a valid token is present and lets anonymous requests through
func OptionalAuthMiddleware(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractToken(r); token != "" {
				if userID, role, err := validator.ValidateAccessToken(token); err == nil {
					r = r.WithContext(withIdentity(r.Context(), userID, role))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// APIKeyMiddleware validates the X-API-Key header used by internal callers such as external schedulers
func APIKeyMiddleware(apiKey string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := r.Header.Get("X-API-Key")
			if apiKey == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(apiKey)) != 1 {
				writeFailure(w, http.StatusUnauthorized, "invalid or missing API key", "authentication_required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID retrieves the user ID from context
func GetUserID(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(userIDKey).(int)
	return userID, ok
}

// GetUserRole retrieves the user role from context
func GetUserRole(ctx context.Context) int {
	role, _ := ctx.Value(userRoleKey).(int)
	return role
}

// WithUser returns a context carrying the given identity, used by tests and internal callers
func WithUser(ctx context.Context, userID, role int) context.Context {
	return withIdentity(ctx, userID, role)
}

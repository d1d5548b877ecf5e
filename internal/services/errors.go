package services

import (
	"errors"
	"fmt"
)

// Sentinel errors mapped to HTTP responses by the handlers
var (
	ErrStoryNotFound      = errors.New("story not found")
	ErrNotOwner           = errors.New("story belongs to another user")
	ErrUserNotFound       = errors.New("user not found")
	ErrChunkTooLarge      = errors.New("audio chunk is too large")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid or expired token")
	ErrRateLimited        = errors.New("too many attempts, please try again later")
)

// ValidationError reports a missing or malformed field; it is never retried
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func newValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

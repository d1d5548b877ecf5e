package models

import "time"

// PasswordResetToken is a single-use, time-boxed credential
type PasswordResetToken struct {
	ID        int
	UserID    int
	Token     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// PasswordResetRequest starts the reset flow
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirm finishes the reset flow
type PasswordResetConfirm struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

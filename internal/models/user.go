package models

import "time"

type Role int

// Role constants
const (
	RoleUser  Role = 1
	RoleAdmin Role = 2
)

// User represents a user in the system
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a login request, Login is an email or a username
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// UserToken is a stored refresh token
type UserToken struct {
	ID        int
	UserID    int
	Token     string
	CreatedAt time.Time
}

// ChangePasswordRequest changes the password of the current user
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

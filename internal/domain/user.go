package domain

import (
	"time"
)

// User represents a registered account in the system. Every user carries
// exactly one role; accounts are created with the default role and can be
// reassigned by an administrator.
//
// Sensitive columns (password hash, refresh token hash, reset token) are
// excluded from JSON so a user view can never leak them.
type User struct {
	ID               int64      `json:"id"`
	Email            string     `json:"email"`
	PasswordHash     string     `json:"-"`
	Name             string     `json:"name,omitempty"`
	IsActive         bool       `json:"is_active"`
	RoleID           int64      `json:"role_id"`
	RoleName         string     `json:"role"`
	RefreshTokenHash *string    `json:"-"`
	ResetToken       *string    `json:"-"`
	ResetTokenExp    *time.Time `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// TokenPair holds an access and refresh token pair.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

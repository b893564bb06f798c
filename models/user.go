package models

import "time"

type UserRole string

const (
	RoleAdmin  UserRole = "admin"
	RoleViewer UserRole = "viewer"
)

type User struct {
	ID            int        `json:"id"`
	Email         string     `json:"email"`
	Name          string     `json:"name"`
	Role          UserRole   `json:"role"`
	PasswordHash  string     `json:"-"`
	GoogleSubject *string    `json:"-"`
	AvatarURL     *string    `json:"avatar_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	LastLoginAt   *time.Time `json:"last_login_at,omitempty"`
}

// Identity is the per-request session supplied by the auth middleware.
type Identity struct {
	UserID int      `json:"user_id"`
	Role   UserRole `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.UserID > 0 && i.Role == RoleAdmin
}

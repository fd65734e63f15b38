package domain

import "time"

// System role names. These roles are seeded by migrations and cannot be
// deleted through the API.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// Role groups a set of permissions under a name. Authorization always goes
// through the user's role: there are no per-user permission grants.
type Role struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	IsActive    bool         `json:"is_active"`
	Permissions []Permission `json:"permissions,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// IsSystemRole reports whether the named role is one of the built-in roles
// that must always exist.
func IsSystemRole(name string) bool {
	return name == RoleAdmin || name == RoleUser
}

package domain

import (
	"strings"
	"time"
)

// Built-in permissions seeded by migrations and granted to the admin role.
const (
	PermAdminAccess       = "admin.access"
	PermUsersManage       = "users.manage"
	PermRolesManage       = "roles.manage"
	PermPermissionsManage = "permissions.manage"
)

// Permission is a flat "resource.action" string. There is no wildcard or
// hierarchy: "users.manage" and "users.read" are unrelated names and a check
// matches only by exact string equality.
type Permission struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ValidPermissionName reports whether name has the "resource.action" shape:
// two non-empty lowercase segments separated by a single dot.
func ValidPermissionName(name string) bool {
	parts := strings.Split(name, ".")
	if len(parts) != 2 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for _, r := range p {
			if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
				return false
			}
		}
	}
	return true
}

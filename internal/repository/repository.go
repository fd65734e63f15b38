package repository

import (
	"context"
	"time"

	"github.com/crudkit/identity/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user and fills in the generated ID and timestamps.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user, with their role name, by ID.
	GetByID(ctx context.Context, id int64) (*domain.User, error)

	// GetByEmail retrieves a user, with their role name, by email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetByResetToken retrieves the user holding the given reset token,
	// provided the token has not expired.
	GetByResetToken(ctx context.Context, token string) (*domain.User, error)

	// EmailExists reports whether a user with the given email exists.
	EmailExists(ctx context.Context, email string) (bool, error)

	// List returns a page of users ordered by ID, plus the total count.
	List(ctx context.Context, limit, offset int) ([]domain.User, int64, error)

	// UpdatePassword replaces the user's password hash.
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error

	// UpdateRefreshToken replaces the user's stored refresh token hash.
	// A nil hash clears it.
	UpdateRefreshToken(ctx context.Context, id int64, tokenHash *string) error

	// UpdateResetToken sets or clears the user's password reset token and
	// its expiry.
	UpdateResetToken(ctx context.Context, id int64, token *string, expiresAt *time.Time) error

	// UpdateRole reassigns the user to a different role.
	UpdateRole(ctx context.Context, id int64, roleID int64) error

	// SetActive enables or disables the account.
	SetActive(ctx context.Context, id int64, active bool) error
}

// RoleRepository defines the interface for role persistence operations.
type RoleRepository interface {
	// Create inserts a new role and fills in the generated ID and timestamps.
	Create(ctx context.Context, role *domain.Role) error

	// GetByID retrieves a role by its unique identifier.
	GetByID(ctx context.Context, id int64) (*domain.Role, error)

	// GetByName retrieves a role by its unique name.
	GetByName(ctx context.Context, name string) (*domain.Role, error)

	// List returns all roles ordered by name.
	List(ctx context.Context) ([]domain.Role, error)

	// Update modifies a role's name and description.
	Update(ctx context.Context, role *domain.Role) error

	// Delete removes a role. Users still assigned to it block deletion at
	// the database level.
	Delete(ctx context.Context, id int64) error

	// ReplacePermissions atomically replaces the role's permission set.
	ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error

	// ListPermissions returns the role's permissions ordered by name.
	ListPermissions(ctx context.Context, roleID int64) ([]domain.Permission, error)

	// HasPermission reports whether the role holds the named permission.
	HasPermission(ctx context.Context, roleID int64, permission string) (bool, error)
}

// PermissionRepository defines the interface for permission persistence operations.
type PermissionRepository interface {
	// Create inserts a new permission and fills in the generated ID and timestamps.
	Create(ctx context.Context, perm *domain.Permission) error

	// CreateBatch inserts several permissions in one transaction. Any
	// failure rolls back the whole batch.
	CreateBatch(ctx context.Context, perms []*domain.Permission) error

	// GetByID retrieves a permission by its unique identifier.
	GetByID(ctx context.Context, id int64) (*domain.Permission, error)

	// List returns all permissions ordered by name.
	List(ctx context.Context) ([]domain.Permission, error)

	// Update modifies a permission's name and description.
	Update(ctx context.Context, perm *domain.Permission) error

	// Delete removes a permission and its role assignments.
	Delete(ctx context.Context, id int64) error
}

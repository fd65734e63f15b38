package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crudkit/identity/internal/domain"
	"github.com/crudkit/identity/internal/repository"
	apperrors "github.com/crudkit/identity/pkg/errors"
)

// RoleService implements role administration.
type RoleService struct {
	roleRepo repository.RoleRepository
	permRepo repository.PermissionRepository
	logger   *slog.Logger
}

// NewRoleService creates a new role service.
func NewRoleService(roleRepo repository.RoleRepository, permRepo repository.PermissionRepository, logger *slog.Logger) *RoleService {
	return &RoleService{
		roleRepo: roleRepo,
		permRepo: permRepo,
		logger:   logger,
	}
}

// CreateRoleInput holds the parameters for creating a role.
type CreateRoleInput struct {
	Name        string
	Description string
}

// UpdateRoleInput holds the parameters for updating a role. Nil fields are
// left unchanged.
type UpdateRoleInput struct {
	Name        *string
	Description *string
	Active      *bool
}

// Create adds a new role with an empty permission set.
func (s *RoleService) Create(ctx context.Context, input CreateRoleInput) (*domain.Role, error) {
	if input.Name == "" {
		return nil, apperrors.InvalidInput("role name is required")
	}

	role := &domain.Role{
		Name:        input.Name,
		Description: input.Description,
		IsActive:    true,
	}
	if err := s.roleRepo.Create(ctx, role); err != nil {
		return nil, fmt.Errorf("create role: %w", err)
	}

	s.logger.InfoContext(ctx, "role created",
		slog.Int64("role_id", role.ID),
		slog.String("name", role.Name),
	)

	return role, nil
}

// Get retrieves a role along with its permissions.
func (s *RoleService) Get(ctx context.Context, id int64) (*domain.Role, error) {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get role: %w", err)
	}

	perms, err := s.roleRepo.ListPermissions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list role permissions: %w", err)
	}
	role.Permissions = perms

	return role, nil
}

// List returns all roles.
func (s *RoleService) List(ctx context.Context) ([]domain.Role, error) {
	roles, err := s.roleRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// Update modifies a role's name, description, or active flag. System roles
// keep their name and stay active.
func (s *RoleService) Update(ctx context.Context, id int64, input UpdateRoleInput) (*domain.Role, error) {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get role for update: %w", err)
	}

	if input.Name != nil && *input.Name != role.Name {
		if domain.IsSystemRole(role.Name) {
			return nil, apperrors.Forbidden("system roles cannot be renamed")
		}
		if *input.Name == "" {
			return nil, apperrors.InvalidInput("role name must not be empty")
		}
		role.Name = *input.Name
	}
	if input.Description != nil {
		role.Description = *input.Description
	}
	if input.Active != nil && *input.Active != role.IsActive {
		if domain.IsSystemRole(role.Name) {
			return nil, apperrors.Forbidden("system roles cannot be deactivated")
		}
		role.IsActive = *input.Active
	}

	if err := s.roleRepo.Update(ctx, role); err != nil {
		return nil, fmt.Errorf("update role: %w", err)
	}

	s.logger.InfoContext(ctx, "role updated",
		slog.Int64("role_id", role.ID),
	)

	return role, nil
}

// Delete removes a role. The built-in admin and user roles are protected.
func (s *RoleService) Delete(ctx context.Context, id int64) error {
	role, err := s.roleRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("get role for delete: %w", err)
	}

	if domain.IsSystemRole(role.Name) {
		return apperrors.Forbidden("system roles cannot be deleted")
	}

	if err := s.roleRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete role: %w", err)
	}

	s.logger.InfoContext(ctx, "role deleted",
		slog.Int64("role_id", id),
		slog.String("name", role.Name),
	)

	return nil
}

// SetPermissions replaces the role's permission set with the given
// permission IDs. Unknown IDs fail the whole operation.
func (s *RoleService) SetPermissions(ctx context.Context, roleID int64, permissionIDs []int64) (*domain.Role, error) {
	if _, err := s.roleRepo.GetByID(ctx, roleID); err != nil {
		return nil, fmt.Errorf("get role for permission update: %w", err)
	}

	if err := s.roleRepo.ReplacePermissions(ctx, roleID, permissionIDs); err != nil {
		return nil, fmt.Errorf("replace role permissions: %w", err)
	}

	s.logger.InfoContext(ctx, "role permissions replaced",
		slog.Int64("role_id", roleID),
		slog.Int("count", len(permissionIDs)),
	)

	return s.Get(ctx, roleID)
}

package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crudkit/identity/internal/domain"
	"github.com/crudkit/identity/internal/repository"
	apperrors "github.com/crudkit/identity/pkg/errors"
)

// PermissionService implements permission administration.
type PermissionService struct {
	permRepo repository.PermissionRepository
	logger   *slog.Logger
}

// NewPermissionService creates a new permission service.
func NewPermissionService(permRepo repository.PermissionRepository, logger *slog.Logger) *PermissionService {
	return &PermissionService{
		permRepo: permRepo,
		logger:   logger,
	}
}

// CreatePermissionInput holds the parameters for creating a permission.
type CreatePermissionInput struct {
	Name        string
	Description string
}

// UpdatePermissionInput holds the parameters for updating a permission.
type UpdatePermissionInput struct {
	Name        *string
	Description *string
	Active      *bool
}

// Create adds a new permission. Names must have the "resource.action" shape.
func (s *PermissionService) Create(ctx context.Context, input CreatePermissionInput) (*domain.Permission, error) {
	if !domain.ValidPermissionName(input.Name) {
		return nil, apperrors.InvalidInput("permission name must have the form resource.action")
	}

	perm := &domain.Permission{
		Name:        input.Name,
		Description: input.Description,
		IsActive:    true,
	}
	if err := s.permRepo.Create(ctx, perm); err != nil {
		return nil, fmt.Errorf("create permission: %w", err)
	}

	s.logger.InfoContext(ctx, "permission created",
		slog.Int64("permission_id", perm.ID),
		slog.String("name", perm.Name),
	)

	return perm, nil
}

// CreateBatch adds several permissions atomically. All names are validated
// up front; one bad name or duplicate fails the whole batch.
func (s *PermissionService) CreateBatch(ctx context.Context, inputs []CreatePermissionInput) ([]domain.Permission, error) {
	if len(inputs) == 0 {
		return nil, apperrors.InvalidInput("at least one permission is required")
	}

	perms := make([]*domain.Permission, 0, len(inputs))
	for _, input := range inputs {
		if !domain.ValidPermissionName(input.Name) {
			return nil, apperrors.InvalidInput(fmt.Sprintf("permission name %q must have the form resource.action", input.Name))
		}
		perms = append(perms, &domain.Permission{
			Name:        input.Name,
			Description: input.Description,
			IsActive:    true,
		})
	}

	if err := s.permRepo.CreateBatch(ctx, perms); err != nil {
		return nil, fmt.Errorf("create permission batch: %w", err)
	}

	s.logger.InfoContext(ctx, "permission batch created",
		slog.Int("count", len(perms)),
	)

	created := make([]domain.Permission, len(perms))
	for i, p := range perms {
		created[i] = *p
	}
	return created, nil
}

// Get retrieves a permission by ID.
func (s *PermissionService) Get(ctx context.Context, id int64) (*domain.Permission, error) {
	perm, err := s.permRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get permission: %w", err)
	}
	return perm, nil
}

// List returns all permissions.
func (s *PermissionService) List(ctx context.Context) ([]domain.Permission, error) {
	perms, err := s.permRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list permissions: %w", err)
	}
	return perms, nil
}

// Update modifies a permission's name, description, or active flag.
// Deactivating a permission withdraws it from every role that holds it.
func (s *PermissionService) Update(ctx context.Context, id int64, input UpdatePermissionInput) (*domain.Permission, error) {
	perm, err := s.permRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get permission for update: %w", err)
	}

	if input.Name != nil {
		if !domain.ValidPermissionName(*input.Name) {
			return nil, apperrors.InvalidInput("permission name must have the form resource.action")
		}
		perm.Name = *input.Name
	}
	if input.Description != nil {
		perm.Description = *input.Description
	}
	if input.Active != nil {
		perm.IsActive = *input.Active
	}

	if err := s.permRepo.Update(ctx, perm); err != nil {
		return nil, fmt.Errorf("update permission: %w", err)
	}

	s.logger.InfoContext(ctx, "permission updated",
		slog.Int64("permission_id", perm.ID),
	)

	return perm, nil
}

// Delete removes a permission. Role assignments referencing it are removed
// with it; users holding it through a role lose it immediately.
func (s *PermissionService) Delete(ctx context.Context, id int64) error {
	if err := s.permRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete permission: %w", err)
	}

	s.logger.InfoContext(ctx, "permission deleted",
		slog.Int64("permission_id", id),
	)

	return nil
}

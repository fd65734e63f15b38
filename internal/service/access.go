package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/crudkit/identity/internal/repository"
)

// AccessService answers authorization questions. Resolution is fail-closed:
// any lookup error denies access rather than granting it.
type AccessService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	logger   *slog.Logger
}

// NewAccessService creates a new access service.
func NewAccessService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, logger *slog.Logger) *AccessService {
	return &AccessService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		logger:   logger,
	}
}

// UserHasPermission reports whether the user's role holds the named
// permission. Inactive and missing users hold nothing.
func (s *AccessService) UserHasPermission(ctx context.Context, userID int64, permission string) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if !user.IsActive {
		return false, nil
	}
	return s.roleRepo.HasPermission(ctx, user.RoleID, permission)
}

// UserHasAnyPermission reports whether the user holds at least one of the
// named permissions. Checks fan out concurrently; the first error denies.
func (s *AccessService) UserHasAnyPermission(ctx context.Context, userID int64, permissions ...string) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if !user.IsActive || len(permissions) == 0 {
		return false, nil
	}

	results := make([]bool, len(permissions))
	g, gctx := errgroup.WithContext(ctx)
	for i, perm := range permissions {
		g.Go(func() error {
			held, err := s.roleRepo.HasPermission(gctx, user.RoleID, perm)
			if err != nil {
				return err
			}
			results[i] = held
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	for _, held := range results {
		if held {
			return true, nil
		}
	}
	return false, nil
}

// UserHasAllPermissions reports whether the user holds every one of the
// named permissions. An empty set is vacuously held.
func (s *AccessService) UserHasAllPermissions(ctx context.Context, userID int64, permissions ...string) (bool, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if !user.IsActive {
		return false, nil
	}

	results := make([]bool, len(permissions))
	g, gctx := errgroup.WithContext(ctx)
	for i, perm := range permissions {
		g.Go(func() error {
			held, err := s.roleRepo.HasPermission(gctx, user.RoleID, perm)
			if err != nil {
				return err
			}
			results[i] = held
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return false, err
	}

	for _, held := range results {
		if !held {
			return false, nil
		}
	}
	return true, nil
}

// RoleHasPermission reports whether the named role holds the permission.
func (s *AccessService) RoleHasPermission(ctx context.Context, roleName, permission string) (bool, error) {
	role, err := s.roleRepo.GetByName(ctx, roleName)
	if err != nil {
		return false, err
	}
	return s.roleRepo.HasPermission(ctx, role.ID, permission)
}

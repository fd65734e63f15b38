package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/crudkit/identity/internal/domain"
	"github.com/crudkit/identity/internal/repository"
	apperrors "github.com/crudkit/identity/pkg/errors"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// UserService implements user administration: listing accounts, reassigning
// roles, and activating or deactivating users.
type UserService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	logger   *slog.Logger
}

// NewUserService creates a new user service.
func NewUserService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, logger *slog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		logger:   logger,
	}
}

// UserPage is one page of users.
type UserPage struct {
	Users  []domain.User `json:"users"`
	Total  int64         `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// List returns a page of users. Out-of-range paging parameters are clamped.
func (s *UserService) List(ctx context.Context, limit, offset int) (*UserPage, error) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	users, total, err := s.userRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return &UserPage{
		Users:  users,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}, nil
}

// Get retrieves a user by ID.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// AssignRole moves the user onto a different role. The new role takes effect
// on the next permission check; outstanding access tokens keep their old
// role claim until they expire.
func (s *UserService) AssignRole(ctx context.Context, userID, roleID int64) (*domain.User, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, fmt.Errorf("get user for role assignment: %w", err)
	}
	role, err := s.roleRepo.GetByID(ctx, roleID)
	if err != nil {
		return nil, fmt.Errorf("get role for assignment: %w", err)
	}
	if !role.IsActive {
		return nil, apperrors.InvalidInput("role is not active")
	}

	if err := s.userRepo.UpdateRole(ctx, userID, roleID); err != nil {
		return nil, fmt.Errorf("assign role: %w", err)
	}

	s.logger.InfoContext(ctx, "role assigned",
		slog.Int64("user_id", userID),
		slog.Int64("role_id", roleID),
		slog.String("role", role.Name),
	)

	return s.userRepo.GetByID(ctx, userID)
}

// SetActive enables or disables an account. Deactivation also clears any
// live session so the refresh path is cut immediately.
func (s *UserService) SetActive(ctx context.Context, userID int64, active bool) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user for activation change: %w", err)
	}
	if user.IsActive == active {
		return user, nil
	}

	if err := s.userRepo.SetActive(ctx, userID, active); err != nil {
		return nil, fmt.Errorf("set active: %w", err)
	}

	if !active {
		if err := s.userRepo.UpdateRefreshToken(ctx, userID, nil); err != nil {
			s.logger.ErrorContext(ctx, "failed to clear session on deactivation",
				slog.Int64("user_id", userID),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "user activation changed",
		slog.Int64("user_id", userID),
		slog.Bool("active", active),
	)

	return s.userRepo.GetByID(ctx, userID)
}

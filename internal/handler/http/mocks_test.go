package http

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/crudkit/identity/internal/auth"
	"github.com/crudkit/identity/internal/domain"
)

// --- Mock repositories ---

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) GetByResetToken(ctx context.Context, token string) (*domain.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepo) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepo) List(ctx context.Context, limit, offset int) ([]domain.User, int64, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]domain.User), args.Get(1).(int64), args.Error(2)
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateRefreshToken(ctx context.Context, id int64, tokenHash *string) error {
	args := m.Called(ctx, id, tokenHash)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateResetToken(ctx context.Context, id int64, token *string, expiresAt *time.Time) error {
	args := m.Called(ctx, id, token, expiresAt)
	return args.Error(0)
}

func (m *mockUserRepo) UpdateRole(ctx context.Context, id int64, roleID int64) error {
	args := m.Called(ctx, id, roleID)
	return args.Error(0)
}

func (m *mockUserRepo) SetActive(ctx context.Context, id int64, active bool) error {
	args := m.Called(ctx, id, active)
	return args.Error(0)
}

type mockRoleRepo struct {
	mock.Mock
}

func (m *mockRoleRepo) Create(ctx context.Context, role *domain.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *mockRoleRepo) GetByID(ctx context.Context, id int64) (*domain.Role, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Role), args.Error(1)
}

func (m *mockRoleRepo) GetByName(ctx context.Context, name string) (*domain.Role, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Role), args.Error(1)
}

func (m *mockRoleRepo) List(ctx context.Context) ([]domain.Role, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Role), args.Error(1)
}

func (m *mockRoleRepo) Update(ctx context.Context, role *domain.Role) error {
	args := m.Called(ctx, role)
	return args.Error(0)
}

func (m *mockRoleRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockRoleRepo) ReplacePermissions(ctx context.Context, roleID int64, permissionIDs []int64) error {
	args := m.Called(ctx, roleID, permissionIDs)
	return args.Error(0)
}

func (m *mockRoleRepo) ListPermissions(ctx context.Context, roleID int64) ([]domain.Permission, error) {
	args := m.Called(ctx, roleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Permission), args.Error(1)
}

func (m *mockRoleRepo) HasPermission(ctx context.Context, roleID int64, permission string) (bool, error) {
	args := m.Called(ctx, roleID, permission)
	return args.Bool(0), args.Error(1)
}

type mockPermRepo struct {
	mock.Mock
}

func (m *mockPermRepo) Create(ctx context.Context, perm *domain.Permission) error {
	args := m.Called(ctx, perm)
	return args.Error(0)
}

func (m *mockPermRepo) CreateBatch(ctx context.Context, perms []*domain.Permission) error {
	args := m.Called(ctx, perms)
	return args.Error(0)
}

func (m *mockPermRepo) GetByID(ctx context.Context, id int64) (*domain.Permission, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Permission), args.Error(1)
}

func (m *mockPermRepo) List(ctx context.Context) ([]domain.Permission, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Permission), args.Error(1)
}

func (m *mockPermRepo) Update(ctx context.Context, perm *domain.Permission) error {
	args := m.Called(ctx, perm)
	return args.Error(0)
}

func (m *mockPermRepo) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock event publisher ---

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockPublisher) PublishUserPasswordReset(ctx context.Context, userID int64, email, resetToken string) error {
	args := m.Called(ctx, userID, email, resetToken)
	return args.Error(0)
}

// --- Mock access checker ---

type mockAccessChecker struct {
	mock.Mock
}

func (m *mockAccessChecker) UserHasPermission(ctx context.Context, userID int64, permission string) (bool, error) {
	args := m.Called(ctx, userID, permission)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccessChecker) UserHasAnyPermission(ctx context.Context, userID int64, permissions ...string) (bool, error) {
	args := m.Called(ctx, userID, permissions)
	return args.Bool(0), args.Error(1)
}

func (m *mockAccessChecker) UserHasAllPermissions(ctx context.Context, userID int64, permissions ...string) (bool, error) {
	args := m.Called(ctx, userID, permissions)
	return args.Bool(0), args.Error(1)
}

// --- Helpers ---

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func testTokenManager() *auth.TokenManager {
	return auth.NewTokenManager("handler-test-secret-32-characters!!", 15*time.Minute, 7*24*time.Hour)
}

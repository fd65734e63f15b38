package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crudkit/identity/internal/domain"
	apperrors "github.com/crudkit/identity/pkg/errors"
)

func newTestUserService(userRepo *mockUserRepository, roleRepo *mockRoleRepository) *UserService {
	return NewUserService(userRepo, roleRepo, newTestLogger())
}

func TestUserService_List_ClampsPaging(t *testing.T) {
	userRepo := new(mockUserRepository)
	roleRepo := new(mockRoleRepository)
	svc := newTestUserService(userRepo, roleRepo)
	ctx := context.Background()

	userRepo.On("List", ctx, maxPageSize, 0).Return([]domain.User{}, int64(0), nil)

	page, err := svc.List(ctx, 5000, -3)

	require.NoError(t, err)
	assert.Equal(t, maxPageSize, page.Limit)
	assert.Equal(t, 0, page.Offset)
	userRepo.AssertExpectations(t)
}

func TestUserService_AssignRole(t *testing.T) {
	userRepo := new(mockUserRepository)
	roleRepo := new(mockRoleRepository)
	svc := newTestUserService(userRepo, roleRepo)
	ctx := context.Background()

	updated := &domain.User{ID: 1, Email: "alice@example.com", IsActive: true, RoleID: 3, RoleName: "editor"}
	userRepo.On("GetByID", ctx, int64(1)).Return(updated, nil)
	roleRepo.On("GetByID", ctx, int64(3)).Return(&domain.Role{ID: 3, Name: "editor", IsActive: true}, nil)
	userRepo.On("UpdateRole", ctx, int64(1), int64(3)).Return(nil)

	user, err := svc.AssignRole(ctx, 1, 3)

	require.NoError(t, err)
	assert.Equal(t, "editor", user.RoleName)
	userRepo.AssertExpectations(t)
}

func TestUserService_AssignRole_UnknownRole(t *testing.T) {
	userRepo := new(mockUserRepository)
	roleRepo := new(mockRoleRepository)
	svc := newTestUserService(userRepo, roleRepo)
	ctx := context.Background()

	userRepo.On("GetByID", ctx, int64(1)).Return(&domain.User{ID: 1, IsActive: true}, nil)
	roleRepo.On("GetByID", ctx, int64(99)).Return(nil, apperrors.ErrNotFound)

	_, err := svc.AssignRole(ctx, 1, 99)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	userRepo.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserService_SetActive_DeactivationClearsSession(t *testing.T) {
	userRepo := new(mockUserRepository)
	roleRepo := new(mockRoleRepository)
	svc := newTestUserService(userRepo, roleRepo)
	ctx := context.Background()

	u := &domain.User{ID: 1, Email: "alice@example.com", IsActive: true}
	userRepo.On("GetByID", ctx, int64(1)).Return(u, nil)
	userRepo.On("SetActive", ctx, int64(1), false).Return(nil)
	userRepo.On("UpdateRefreshToken", ctx, int64(1), (*string)(nil)).Return(nil)

	_, err := svc.SetActive(ctx, 1, false)

	require.NoError(t, err)
	userRepo.AssertCalled(t, "UpdateRefreshToken", ctx, int64(1), (*string)(nil))
}

func TestUserService_SetActive_NoChangeIsNoop(t *testing.T) {
	userRepo := new(mockUserRepository)
	roleRepo := new(mockRoleRepository)
	svc := newTestUserService(userRepo, roleRepo)
	ctx := context.Background()

	u := &domain.User{ID: 1, IsActive: true}
	userRepo.On("GetByID", ctx, int64(1)).Return(u, nil)

	got, err := svc.SetActive(ctx, 1, true)

	require.NoError(t, err)
	assert.True(t, got.IsActive)
	userRepo.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything)
}

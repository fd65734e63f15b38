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

func newTestRoleService(roleRepo *mockRoleRepository, permRepo *mockPermissionRepository) *RoleService {
	return NewRoleService(roleRepo, permRepo, newTestLogger())
}

func TestRoleService_Create(t *testing.T) {
	roleRepo := new(mockRoleRepository)
	permRepo := new(mockPermissionRepository)
	svc := newTestRoleService(roleRepo, permRepo)
	ctx := context.Background()

	roleRepo.On("Create", ctx, mock.AnythingOfType("*domain.Role")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Role).ID = 3
		}).
		Return(nil)

	role, err := svc.Create(ctx, CreateRoleInput{Name: "editor", Description: "Can edit content"})

	require.NoError(t, err)
	assert.Equal(t, int64(3), role.ID)
	assert.Equal(t, "editor", role.Name)
}

func TestRoleService_Create_EmptyName(t *testing.T) {
	roleRepo := new(mockRoleRepository)
	permRepo := new(mockPermissionRepository)
	svc := newTestRoleService(roleRepo, permRepo)

	_, err := svc.Create(context.Background(), CreateRoleInput{})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestRoleService_Get_IncludesPermissions(t *testing.T) {
	roleRepo := new(mockRoleRepository)
	permRepo := new(mockPermissionRepository)
	svc := newTestRoleService(roleRepo, permRepo)
	ctx := context.Background()

	roleRepo.On("GetByID", ctx, int64(3)).Return(&domain.Role{ID: 3, Name: "editor"}, nil)
	roleRepo.On("ListPermissions", ctx, int64(3)).Return([]domain.Permission{{ID: 10, Name: "posts.manage"}}, nil)

	role, err := svc.Get(ctx, 3)

	require.NoError(t, err)
	require.Len(t, role.Permissions, 1)
	assert.Equal(t, "posts.manage", role.Permissions[0].Name)
}

func TestRoleService_Delete_SystemRoleForbidden(t *testing.T) {
	roleRepo := new(mockRoleRepository)
	permRepo := new(mockPermissionRepository)
	svc := newTestRoleService(roleRepo, permRepo)
	ctx := context.Background()

	roleRepo.On("GetByID", ctx, int64(1)).Return(&domain.Role{ID: 1, Name: "admin"}, nil)

	err := svc.Delete(ctx, 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	roleRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestRoleService_Delete_CustomRole(t *testing.T) {
	roleRepo := new(mockRoleRepository)
	permRepo := new(mockPermissionRepository)
	svc := newTestRoleService(roleRepo, permRepo)
	ctx := context.Background()

	roleRepo.On("GetByID", ctx, int64(3)).Return(&domain.Role{ID: 3, Name: "editor"}, nil)
	roleRepo.On("Delete", ctx, int64(3)).Return(nil)

	err := svc.Delete(ctx, 3)

	assert.NoError(t, err)
	roleRepo.AssertExpectations(t)
}

func TestRoleService_Update_SystemRoleRename(t *testing.T) {
	roleRepo := new(mockRoleRepository)
	permRepo := new(mockPermissionRepository)
	svc := newTestRoleService(roleRepo, permRepo)
	ctx := context.Background()

	roleRepo.On("GetByID", ctx, int64(2)).Return(&domain.Role{ID: 2, Name: "user"}, nil)

	_, err := svc.Update(ctx, 2, UpdateRoleInput{Name: strPtr("member")})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestRoleService_Update_SystemRoleDeactivate(t *testing.T) {
	roleRepo := new(mockRoleRepository)
	permRepo := new(mockPermissionRepository)
	svc := newTestRoleService(roleRepo, permRepo)
	ctx := context.Background()

	roleRepo.On("GetByID", ctx, int64(1)).Return(&domain.Role{ID: 1, Name: "admin", IsActive: true}, nil)

	active := false
	_, err := svc.Update(ctx, 1, UpdateRoleInput{Active: &active})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	roleRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestRoleService_Update_Deactivate(t *testing.T) {
	roleRepo := new(mockRoleRepository)
	permRepo := new(mockPermissionRepository)
	svc := newTestRoleService(roleRepo, permRepo)
	ctx := context.Background()

	roleRepo.On("GetByID", ctx, int64(3)).Return(&domain.Role{ID: 3, Name: "editor", IsActive: true}, nil)
	roleRepo.On("Update", ctx, mock.AnythingOfType("*domain.Role")).Return(nil)

	active := false
	role, err := svc.Update(ctx, 3, UpdateRoleInput{Active: &active})

	require.NoError(t, err)
	assert.False(t, role.IsActive)
}

func TestRoleService_SetPermissions(t *testing.T) {
	roleRepo := new(mockRoleRepository)
	permRepo := new(mockPermissionRepository)
	svc := newTestRoleService(roleRepo, permRepo)
	ctx := context.Background()

	roleRepo.On("GetByID", ctx, int64(3)).Return(&domain.Role{ID: 3, Name: "editor"}, nil)
	roleRepo.On("ReplacePermissions", ctx, int64(3), []int64{10, 11}).Return(nil)
	roleRepo.On("ListPermissions", ctx, int64(3)).Return([]domain.Permission{
		{ID: 10, Name: "posts.manage"},
		{ID: 11, Name: "posts.read"},
	}, nil)

	role, err := svc.SetPermissions(ctx, 3, []int64{10, 11})

	require.NoError(t, err)
	assert.Len(t, role.Permissions, 2)
	roleRepo.AssertExpectations(t)
}

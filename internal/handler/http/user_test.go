package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/crudkit/identity/internal/domain"
	"github.com/crudkit/identity/internal/service"
	apperrors "github.com/crudkit/identity/pkg/errors"
)

func newUserFixture(users *mockUserRepo, roles *mockRoleRepo) *UserHandler {
	svc := service.NewUserService(users, roles, testLogger())
	return NewUserHandler(svc, testLogger())
}

func TestUserEndpoint_List(t *testing.T) {
	users := new(mockUserRepo)
	h := newUserFixture(users, new(mockRoleRepo))

	users.On("List", mock.Anything, 20, 0).Return([]domain.User{
		{ID: 1, Email: "a@example.com", RoleName: "admin"},
		{ID: 2, Email: "b@example.com", RoleName: "user"},
	}, int64(2), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "a@example.com")
	assert.Contains(t, rec.Body.String(), `"total":2`)
}

func TestUserEndpoint_ListClampsLimit(t *testing.T) {
	users := new(mockUserRepo)
	h := newUserFixture(users, new(mockRoleRepo))

	// 500 exceeds the page cap; the repository sees the clamped value.
	users.On("List", mock.Anything, 100, 0).Return([]domain.User{}, int64(0), nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users?limit=500", nil)
	rec := httptest.NewRecorder()
	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

func TestUserEndpoint_GetNotFound(t *testing.T) {
	users := new(mockUserRepo)
	h := newUserFixture(users, new(mockRoleRepo))

	users.On("GetByID", mock.Anything, int64(99)).Return(nil, apperrors.NotFound("user", "99"))

	req := withURLParam(httptest.NewRequest(http.MethodGet, "/api/v1/users/99", nil), "id", "99")
	rec := httptest.NewRecorder()
	h.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUserEndpoint_AssignRole(t *testing.T) {
	users := new(mockUserRepo)
	roles := new(mockRoleRepo)
	h := newUserFixture(users, roles)

	user := &domain.User{ID: 7, Email: "a@example.com", IsActive: true, RoleID: 1, RoleName: "user"}
	promoted := &domain.User{ID: 7, Email: "a@example.com", IsActive: true, RoleID: 2, RoleName: "admin"}

	users.On("GetByID", mock.Anything, int64(7)).Return(user, nil).Once()
	roles.On("GetByID", mock.Anything, int64(2)).Return(&domain.Role{ID: 2, Name: "admin", IsActive: true}, nil)
	users.On("UpdateRole", mock.Anything, int64(7), int64(2)).Return(nil)
	users.On("GetByID", mock.Anything, int64(7)).Return(promoted, nil)

	req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/v1/users/7/role", jsonBody(t, map[string]any{
		"role_id": 2,
	})), "id", "7")
	rec := httptest.NewRecorder()
	h.AssignRole(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)
}

func TestUserEndpoint_AssignRoleRejectsZeroID(t *testing.T) {
	users := new(mockUserRepo)
	h := newUserFixture(users, new(mockRoleRepo))

	req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/v1/users/7/role", jsonBody(t, map[string]any{
		"role_id": 0,
	})), "id", "7")
	rec := httptest.NewRecorder()
	h.AssignRole(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	users.AssertNotCalled(t, "UpdateRole", mock.Anything, mock.Anything, mock.Anything)
}

func TestUserEndpoint_Deactivate(t *testing.T) {
	users := new(mockUserRepo)
	h := newUserFixture(users, new(mockRoleRepo))

	active := &domain.User{ID: 7, Email: "a@example.com", IsActive: true, RoleName: "user"}
	inactive := &domain.User{ID: 7, Email: "a@example.com", IsActive: false, RoleName: "user"}

	users.On("GetByID", mock.Anything, int64(7)).Return(active, nil).Once()
	users.On("SetActive", mock.Anything, int64(7), false).Return(nil)
	users.On("UpdateRefreshToken", mock.Anything, int64(7), (*string)(nil)).Return(nil)
	users.On("GetByID", mock.Anything, int64(7)).Return(inactive, nil)

	req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/v1/users/7/active", jsonBody(t, map[string]any{
		"active": false,
	})), "id", "7")
	rec := httptest.NewRecorder()
	h.SetActive(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_active":false`)
	users.AssertExpectations(t)
}

func TestUserEndpoint_SetActiveRequiresField(t *testing.T) {
	users := new(mockUserRepo)
	h := newUserFixture(users, new(mockRoleRepo))

	req := withURLParam(httptest.NewRequest(http.MethodPut, "/api/v1/users/7/active", jsonBody(t, map[string]any{})), "id", "7")
	rec := httptest.NewRecorder()
	h.SetActive(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	users.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything)
}

package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/crudkit/identity/internal/auth"
	"github.com/crudkit/identity/internal/domain"
	"github.com/crudkit/identity/internal/service"
	apperrors "github.com/crudkit/identity/pkg/errors"
	"github.com/crudkit/identity/pkg/middleware"
)

func newAuthFixture(users *mockUserRepo, roles *mockRoleRepo, publisher *mockPublisher) *AuthHandler {
	svc := service.NewAuthService(users, roles, testTokenManager(), auth.NewPasswordHasher(), publisher, time.Hour, testLogger())
	return NewAuthHandler(svc, testLogger())
}

func jsonBody(t *testing.T, v any) *bytes.Buffer {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, json.NewEncoder(buf).Encode(v))
	return buf
}

func TestRegisterEndpoint_Success(t *testing.T) {
	users := new(mockUserRepo)
	roles := new(mockRoleRepo)
	publisher := new(mockPublisher)
	h := newAuthFixture(users, roles, publisher)

	roles.On("GetByName", mock.Anything, "user").Return(&domain.Role{ID: 2, Name: "user"}, nil)
	users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.User).ID = 1
		}).
		Return(nil)
	users.On("UpdateRefreshToken", mock.Anything, int64(1), mock.AnythingOfType("*string")).Return(nil)
	publisher.On("PublishUserRegistered", mock.Anything, mock.AnythingOfType("*domain.User")).Return(nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", jsonBody(t, map[string]string{
		"email":    "alice@example.com",
		"password": "Sup3r$ecret",
		"name":     "Alice",
	}))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "access_token")
	assert.Contains(t, body, "refresh_token")
	assert.NotContains(t, body, "password_hash")
}

func TestRegisterEndpoint_ValidationError(t *testing.T) {
	h := newAuthFixture(new(mockUserRepo), new(mockRoleRepo), new(mockPublisher))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", jsonBody(t, map[string]string{
		"email":    "not-an-email",
		"password": "short",
	}))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "VALIDATION_ERROR")
}

func TestRegisterEndpoint_DuplicateEmail(t *testing.T) {
	users := new(mockUserRepo)
	roles := new(mockRoleRepo)
	h := newAuthFixture(users, roles, new(mockPublisher))

	roles.On("GetByName", mock.Anything, "user").Return(&domain.Role{ID: 2, Name: "user"}, nil)
	users.On("Create", mock.Anything, mock.AnythingOfType("*domain.User")).
		Return(apperrors.AlreadyExists("user", "email", "alice@example.com"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", jsonBody(t, map[string]string{
		"email":    "alice@example.com",
		"password": "Sup3r$ecret",
	}))
	rec := httptest.NewRecorder()
	h.Register(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLoginEndpoint_BadCredentials(t *testing.T) {
	users := new(mockUserRepo)
	h := newAuthFixture(users, new(mockRoleRepo), new(mockPublisher))

	users.On("GetByEmail", mock.Anything, "alice@example.com").Return(nil, apperrors.ErrNotFound)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", jsonBody(t, map[string]string{
		"email":    "alice@example.com",
		"password": "whatever",
	}))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid email or password")
}

func TestLoginEndpoint_InvalidJSON(t *testing.T) {
	h := newAuthFixture(new(mockUserRepo), new(mockRoleRepo), new(mockPublisher))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "INVALID_INPUT")
}

func TestForgotPasswordEndpoint_UniformResponse(t *testing.T) {
	users := new(mockUserRepo)
	publisher := new(mockPublisher)
	h := newAuthFixture(users, new(mockRoleRepo), publisher)

	known := &domain.User{ID: 1, Email: "alice@example.com", IsActive: true}
	users.On("GetByEmail", mock.Anything, "alice@example.com").Return(known, nil)
	users.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, apperrors.ErrNotFound)
	users.On("UpdateResetToken", mock.Anything, int64(1), mock.AnythingOfType("*string"), mock.AnythingOfType("*time.Time")).Return(nil)
	publisher.On("PublishUserPasswordReset", mock.Anything, int64(1), "alice@example.com", mock.AnythingOfType("string")).Return(nil)

	var bodies []string
	for _, email := range []string{"alice@example.com", "nobody@example.com"} {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/forgot-password", jsonBody(t, map[string]string{"email": email}))
		rec := httptest.NewRecorder()
		h.ForgotPassword(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		bodies = append(bodies, rec.Body.String())
	}

	// Identical response whether or not the account exists.
	assert.Equal(t, bodies[0], bodies[1])
}

func TestChangePasswordEndpoint_RequiresIdentity(t *testing.T) {
	h := newAuthFixture(new(mockUserRepo), new(mockRoleRepo), new(mockPublisher))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/change-password", jsonBody(t, map[string]string{
		"current_password": "Old$ecret1",
		"new_password":     "New$ecret1",
	}))
	rec := httptest.NewRecorder()
	h.ChangePassword(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMeEndpoint(t *testing.T) {
	users := new(mockUserRepo)
	h := newAuthFixture(users, new(mockRoleRepo), new(mockPublisher))

	u := &domain.User{ID: 1, Email: "alice@example.com", IsActive: true, RoleName: "user"}
	users.On("GetByID", mock.Anything, int64(1)).Return(u, nil)

	req := withIdentity(httptest.NewRequest(http.MethodGet, "/api/v1/auth/me", nil), middleware.Identity{UserID: 1, Email: u.Email, Role: "user"})
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "alice@example.com")
}

func TestLogoutEndpoint(t *testing.T) {
	users := new(mockUserRepo)
	h := newAuthFixture(users, new(mockRoleRepo), new(mockPublisher))

	users.On("UpdateRefreshToken", mock.Anything, int64(1), (*string)(nil)).Return(nil)

	req := withIdentity(httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", nil), middleware.Identity{UserID: 1})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	users.AssertExpectations(t)
}

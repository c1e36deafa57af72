package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/assessment-api/internal/models"
	appErrors "github.com/noah-isme/assessment-api/pkg/errors"
)

type authServiceMock struct {
	res         *models.AuthResponse
	info        *models.UserInfo
	err         error
	lastLogin   models.LoginRequest
	lastSignup  models.RegisterRequest
	lastProfile models.UpdateProfileRequest
	passwordFor string
}

func (m *authServiceMock) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	m.lastSignup = req
	return m.res, m.err
}

func (m *authServiceMock) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	m.lastLogin = req
	return m.res, m.err
}

func (m *authServiceMock) UpdateProfile(ctx context.Context, user *models.User, req models.UpdateProfileRequest, meta models.RequestMeta) (*models.UserInfo, error) {
	m.lastProfile = req
	return m.info, m.err
}

func (m *authServiceMock) ChangePassword(ctx context.Context, user *models.User, req models.ChangePasswordRequest, meta models.RequestMeta) error {
	m.passwordFor = user.ID
	return m.err
}

func TestAuthHandlerRegister(t *testing.T) {
	svc := &authServiceMock{res: &models.AuthResponse{Token: "tok", User: testAccount.Info()}}
	h := NewAuthHandler(svc)

	c, w := newTestContext(http.MethodPost, "/auth/register", `{"fullName":"Jane","email":"jane@example.com","password":"password1"}`)
	c.Request.Header.Set("User-Agent", "tests")
	h.Register(c)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "jane@example.com", svc.lastSignup.Email)
	assert.Equal(t, "tests", svc.lastSignup.UserAgent)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.JSONEq(t, `"tok"`, string(body["token"]))
	assert.Contains(t, body, "user")
	assert.NotContains(t, string(body["user"]), "password")
}

func TestAuthHandlerLoginDisabled(t *testing.T) {
	svc := &authServiceMock{err: appErrors.Clone(appErrors.ErrAccountDisabled, "Account is disabled")}
	h := NewAuthHandler(svc)

	c, w := newTestContext(http.MethodPost, "/auth/login", `{"email":"d@example.com","password":"password1"}`)
	h.Login(c)

	require.Equal(t, http.StatusForbidden, w.Code)
	assert.NotContains(t, w.Body.String(), "token")
	assert.Equal(t, "d@example.com", svc.lastLogin.Email)
}

func TestAuthHandlerLoginMalformed(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{})

	c, w := newTestContext(http.MethodPost, "/auth/login", `not json`)
	h.Login(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid JSON body")
}

func TestAuthHandlerMe(t *testing.T) {
	h := NewAuthHandler(&authServiceMock{})

	c, w := newTestContext(http.MethodGet, "/auth/me", "")
	h.Me(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"email":"owner@example.com"`)
}

func TestAuthHandlerProfileAndPassword(t *testing.T) {
	info := testAccount.Info()
	info.FullName = "Renamed"
	svc := &authServiceMock{info: &info}
	h := NewAuthHandler(svc)

	c, w := newTestContext(http.MethodPatch, "/auth/profile", `{"fullName":"Renamed"}`)
	h.UpdateProfile(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", svc.lastProfile.FullName)

	c, w = newTestContext(http.MethodPatch, "/auth/password", `{"currentPassword":"password1","newPassword":"password2"}`)
	h.ChangePassword(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true}`, w.Body.String())
	assert.Equal(t, testAccount.ID, svc.passwordFor)
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/assessment-api/internal/models"
	appErrors "github.com/noah-isme/assessment-api/pkg/errors"
)

type fakeIdentity struct {
	users map[string]*models.User
}

func (f *fakeIdentity) ValidateToken(token string) (*models.JWTClaims, error) {
	if _, ok := f.users[token]; !ok && token != "ghost" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "Invalid or expired token")
	}
	return &models.JWTClaims{UserID: token}, nil
}

func (f *fakeIdentity) Resolve(ctx context.Context, claims *models.JWTClaims) (*models.User, error) {
	user, ok := f.users[claims.UserID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "User no longer exists")
	}
	if user.Disabled() {
		return nil, appErrors.Clone(appErrors.ErrAccountDisabled, "Account is disabled")
	}
	return user, nil
}

func (f *fakeIdentity) IsAdmin(user *models.User) bool {
	return user != nil && user.Role == models.RoleAdmin
}

func newIdentity() *fakeIdentity {
	return &fakeIdentity{users: map[string]*models.User{
		"admin":     {ID: "admin", Email: "admin@gmail.com", Role: models.RoleAdmin, Status: models.StatusActive},
		"applicant": {ID: "applicant", Email: "a@example.com", Role: models.RoleApplicant, Status: models.StatusActive},
		"disabled":  {ID: "disabled", Email: "d@example.com", Role: models.RoleApplicant, Status: models.StatusDisabled},
	}}
}

func protectedRouter(identity IdentityResolver) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/me", JWT(identity), func(c *gin.Context) {
		user := c.MustGet(ContextAccountKey).(*models.User)
		c.JSON(http.StatusOK, gin.H{"id": user.ID})
	})
	r.GET("/admin", JWT(identity), RequireAdmin(identity), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestJWTMiddleware(t *testing.T) {
	r := protectedRouter(newIdentity())

	cases := []struct {
		name   string
		path   string
		header string
		status int
	}{
		{"missing header", "/me", "", http.StatusUnauthorized},
		{"wrong scheme", "/me", "Basic abc", http.StatusUnauthorized},
		{"empty token", "/me", "Bearer  ", http.StatusUnauthorized},
		{"bad token", "/me", "Bearer nope", http.StatusUnauthorized},
		{"deleted account", "/me", "Bearer ghost", http.StatusUnauthorized},
		{"disabled account", "/me", "Bearer disabled", http.StatusForbidden},
		{"active account", "/me", "Bearer applicant", http.StatusOK},
		{"lowercase scheme", "/me", "bearer applicant", http.StatusOK},
		{"applicant on admin route", "/admin", "Bearer applicant", http.StatusForbidden},
		{"admin on admin route", "/admin", "Bearer admin", http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
		})
	}
}

func TestRequireAdminWithoutJWT(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", RequireAdmin(newIdentity()), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"code":"UNAUTHORIZED","message":"unauthorized"}`, w.Body.String())
}

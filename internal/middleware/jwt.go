package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/assessment-api/internal/models"
	appErrors "github.com/noah-isme/assessment-api/pkg/errors"
	"github.com/noah-isme/assessment-api/pkg/response"
)

const (
	// ContextUserKey is the gin context key storing JWT claims.
	ContextUserKey = "currentUser"
	// ContextAccountKey stores the caller's current *models.User record.
	ContextAccountKey = "currentAccount"
)

// IdentityResolver validates tokens and loads the account behind them.
type IdentityResolver interface {
	ValidateToken(token string) (*models.JWTClaims, error)
	Resolve(ctx context.Context, claims *models.JWTClaims) (*models.User, error)
	IsAdmin(user *models.User) bool
}

// JWT protects routes by requiring a valid access token whose account still exists and is active.
func JWT(identity IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrUnauthorized, "Missing or invalid Authorization header"))
			c.Abort()
			return
		}

		claims, err := identity.ValidateToken(token)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		user, err := identity.Resolve(c.Request.Context(), claims)
		if err != nil {
			response.Error(c, err)
			c.Abort()
			return
		}

		c.Set(ContextUserKey, claims)
		c.Set(ContextAccountKey, user)
		c.Next()
	}
}

// RequireAdmin must run after JWT.
func RequireAdmin(identity IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextAccountKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		user, _ := value.(*models.User)
		if !identity.IsAdmin(user) {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "Admin access required"))
			c.Abort()
			return
		}
		c.Next()
	}
}

func bearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	token := strings.TrimSpace(parts[1])
	return token, token != ""
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/assessment-api/internal/middleware"
	"github.com/noah-isme/assessment-api/internal/models"
	appErrors "github.com/noah-isme/assessment-api/pkg/errors"
)

func currentUser(c *gin.Context) (*models.User, error) {
	value, exists := c.Get(middleware.ContextAccountKey)
	if !exists {
		return nil, appErrors.ErrUnauthorized
	}
	user, ok := value.(*models.User)
	if !ok || user == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return user, nil
}

func requestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

func invalidBody(err error) error {
	return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Invalid JSON body")
}

package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/assessment-api/internal/middleware"
)

// Routes groups the handlers mounted under the API prefix.
type Routes struct {
	Auth     *AuthHandler
	Exams    *ExamHandler
	Users    *UserHandler
	Identity middleware.IdentityResolver
}

// Register mounts every API route on the group. Only register and login are public.
func (r Routes) Register(api *gin.RouterGroup) {
	auth := api.Group("/auth")
	auth.POST("/register", r.Auth.Register)
	auth.POST("/login", r.Auth.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(r.Identity))

	secured.GET("/auth/me", r.Auth.Me)
	secured.PATCH("/auth/profile", r.Auth.UpdateProfile)
	secured.PATCH("/auth/password", r.Auth.ChangePassword)

	exams := secured.Group("/exams")
	exams.POST("", r.Exams.Create)
	exams.GET("", r.Exams.List)
	exams.GET("/:id", r.Exams.Get)
	exams.PUT("/:id", r.Exams.Update)
	exams.DELETE("/:id", r.Exams.Delete)
	exams.GET("/:id/export", r.Exams.Export)

	users := secured.Group("/users")
	users.Use(middleware.RequireAdmin(r.Identity))
	users.GET("", r.Users.List)
	users.POST("/applicants", r.Users.CreateApplicant)
	users.PATCH("/:id/status", r.Users.UpdateStatus)
	users.DELETE("/:id", r.Users.Delete)
}

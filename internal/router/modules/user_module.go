package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/aifinder/aifinder-api/internal/container"
	handlers "github.com/aifinder/aifinder-api/internal/interface/http"
	"github.com/aifinder/aifinder-api/internal/interface/middleware"
)

// UserModule wires the user lifecycle endpoints.
// Protected: POST /api/users/ensure, POST /api/user/activity, GET /api/user/profile
// All routes are registered under the given RouterGroup (usually /api)

type UserModule struct {
	Handler *handlers.UserHandler
}

func NewUserModule(h *handlers.UserHandler) *UserModule {
	return &UserModule{Handler: h}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), container.GetSession()))
	{
		auth.POST("/users/ensure", m.Handler.EnsureUser)
		auth.POST("/user/activity", m.Handler.Activity)
		auth.GET("/user/profile", m.Handler.Profile)
	}
}

package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/aifinder/aifinder-api/internal/container"
	handlers "github.com/aifinder/aifinder-api/internal/interface/http"
	"github.com/aifinder/aifinder-api/internal/interface/middleware"
)

// FolderModule wires the saved-tool folder endpoints, all session protected.

type FolderModule struct {
	Handler *handlers.FolderHandler
}

func NewFolderModule(h *handlers.FolderHandler) *FolderModule {
	return &FolderModule{Handler: h}
}

func (m *FolderModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), container.GetSession()))
	{
		auth.GET("/user/folders", m.Handler.List)
		auth.POST("/user/folders", m.Handler.Create)
		auth.DELETE("/user/folders/:name", m.Handler.Delete)
		auth.POST("/user/folders/tools", m.Handler.MoveTool)
		auth.DELETE("/user/folders/:name/tools/:tool", m.Handler.RemoveTool)
	}
}

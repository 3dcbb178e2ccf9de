package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/aifinder/aifinder-api/internal/container"
	handlers "github.com/aifinder/aifinder-api/internal/interface/http"
	"github.com/aifinder/aifinder-api/internal/interface/middleware"
)

// ToolModule wires catalog endpoints.
// Public: GET /api/tools/search
// Protected: upload, logo, delete, like and save operations

type ToolModule struct {
	Handler *handlers.ToolHandler
}

func NewToolModule(h *handlers.ToolHandler) *ToolModule {
	return &ToolModule{Handler: h}
}

func (m *ToolModule) Register(rg *gin.RouterGroup) {
	rg.GET("/tools/search", m.Handler.Search)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), container.GetSession()))
	{
		auth.POST("/tools/upload", m.Handler.BulkUpload)
		auth.POST("/tools/logo", m.Handler.UploadLogo)
		auth.DELETE("/tools/:id", m.Handler.Delete)

		auth.GET("/tools/:id/like", m.Handler.LikeStatus)
		auth.POST("/tools/:id/like", m.Handler.Like)
		auth.DELETE("/tools/:id/like", m.Handler.Unlike)

		auth.GET("/tools/:id/save", m.Handler.SaveStatus)
		auth.POST("/tools/:id/save", m.Handler.Save)
		auth.DELETE("/tools/:id/save", m.Handler.Unsave)
	}
}

package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/aifinder/aifinder-api/internal/container"
	handlers "github.com/aifinder/aifinder-api/internal/interface/http"
	"github.com/aifinder/aifinder-api/internal/interface/middleware"
)

// MetadataModule wires the AI-assisted listing helpers. Both endpoints call
// external services, so they sit behind authentication and tight limits.

type MetadataModule struct {
	Handler *handlers.MetadataHandler
}

func NewMetadataModule(h *handlers.MetadataHandler) *MetadataModule {
	return &MetadataModule{Handler: h}
}

func (m *MetadataModule) Register(rg *gin.RouterGroup) {
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), container.GetSession()))
	{
		auth.POST("/metadata/about", m.Handler.GenerateAbout)
		auth.POST("/metadata/keywords", m.Handler.ExtractKeywords)
	}
}

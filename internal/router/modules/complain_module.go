package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/aifinder/aifinder-api/internal/interface/http"
)

// ComplainModule exposes the public complaint endpoint. Abuse is handled by
// the per-route rate limit, not by authentication.

type ComplainModule struct {
	Handler *handlers.ComplainHandler
}

func NewComplainModule(h *handlers.ComplainHandler) *ComplainModule {
	return &ComplainModule{Handler: h}
}

func (m *ComplainModule) Register(rg *gin.RouterGroup) {
	rg.POST("/complain", m.Handler.Submit)
}

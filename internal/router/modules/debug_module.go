package modules

import (
	"expvar"

	"github.com/gin-gonic/gin"
)

type DebugModule struct{}

func NewDebugModule() *DebugModule { return &DebugModule{} }

func (m *DebugModule) Register(rg *gin.RouterGroup) {
	// Public metrics endpoint (expvar); the shared registry rate-limits it
	rg.GET("/debug/vars", gin.WrapH(expvar.Handler()))
}

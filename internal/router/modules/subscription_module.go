package modules

import (
	"github.com/gin-gonic/gin"

	"github.com/aifinder/aifinder-api/internal/container"
	handlers "github.com/aifinder/aifinder-api/internal/interface/http"
	"github.com/aifinder/aifinder-api/internal/interface/middleware"
)

// SubscriptionModule wires payment endpoints.
// Public: POST /api/webhooks/razorpay (signature-verified, no session)
// Protected: GET /api/user/subscription, POST /api/user/subscription,
// POST /api/user/subscription/verify

type SubscriptionModule struct {
	Handler *handlers.SubscriptionHandler
}

func NewSubscriptionModule(h *handlers.SubscriptionHandler) *SubscriptionModule {
	return &SubscriptionModule{Handler: h}
}

func (m *SubscriptionModule) Register(rg *gin.RouterGroup) {
	// The gateway authenticates itself through the webhook signature.
	rg.POST("/webhooks/razorpay", m.Handler.Webhook)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), container.GetSession()))
	{
		auth.GET("/user/subscription", m.Handler.Status)
		auth.POST("/user/subscription", m.Handler.CreateOrder)
		auth.POST("/user/subscription/verify", m.Handler.Verify)
	}
}

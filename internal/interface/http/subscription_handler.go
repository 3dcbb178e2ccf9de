package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/aifinder/aifinder-api/internal/application"
	"github.com/aifinder/aifinder-api/pkg/response"
	"github.com/aifinder/aifinder-api/pkg/validation"
)

type SubscriptionHandler struct {
	Svc    *app.SubscriptionService
	Logger *logrus.Logger
}

func NewSubscriptionHandler(svc *app.SubscriptionService, logger *logrus.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{Svc: svc, Logger: logger}
}

// Status returns the subscription snapshot with derived entitlements.
func (h *SubscriptionHandler) Status(c *gin.Context) {
	st, err := h.Svc.Status(c.Request.Context(), c.GetString("clerkID"))
	if errors.Is(err, app.ErrUserNotFound) {
		resp := response.Error[any](c, http.StatusNotFound, "user not found", nil)
		c.JSON(resp.Status, resp)
		return
	}
	if err != nil {
		resp := response.Error[any](c, http.StatusInternalServerError, "failed to load subscription", nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := response.Success(c, http.StatusOK, st, "subscription", nil)
	c.JSON(resp.Status, resp)
}

type createOrderRequest struct {
	PlanAmount int `json:"plan_amount" binding:"required,gte=1"`
}

// CreateOrder registers a gateway order for the requested plan amount.
func (h *SubscriptionHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}

	order, err := h.Svc.CreateOrder(c.Request.Context(), c.GetString("clerkID"), req.PlanAmount)
	switch {
	case errors.Is(err, app.ErrInvalidPlanAmount):
		resp := response.Error[any](c, http.StatusBadRequest, "plan amount must be at least 1", nil)
		c.JSON(resp.Status, resp)
	case errors.Is(err, app.ErrUserNotFound):
		resp := response.Error[any](c, http.StatusNotFound, "user not found", nil)
		c.JSON(resp.Status, resp)
	case err != nil:
		h.Logger.WithError(err).Error("create order failed")
		resp := response.Error[any](c, http.StatusBadGateway, "failed to create order", nil)
		c.JSON(resp.Status, resp)
	default:
		resp := response.Success(c, http.StatusCreated, order, "order created", nil)
		c.JSON(resp.Status, resp)
	}
}

type verifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

// Verify handles the checkout confirmation callback from the client.
func (h *SubscriptionHandler) Verify(c *gin.Context) {
	var req verifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}

	applied, err := h.Svc.VerifyAndApply(c.Request.Context(), c.GetString("clerkID"), req.OrderID, req.PaymentID, req.Signature)
	switch {
	case errors.Is(err, app.ErrSignatureMismatch):
		resp := response.Error[any](c, http.StatusBadRequest, "payment signature mismatch", nil)
		c.JSON(resp.Status, resp)
	case errors.Is(err, app.ErrUnknownOrder):
		resp := response.Error[any](c, http.StatusNotFound, "order not found", nil)
		c.JSON(resp.Status, resp)
	case errors.Is(err, app.ErrUserNotFound):
		resp := response.Error[any](c, http.StatusNotFound, "user not found", nil)
		c.JSON(resp.Status, resp)
	case err != nil:
		h.Logger.WithError(err).Error("verify payment failed")
		resp := response.Error[any](c, http.StatusInternalServerError, "failed to verify payment", nil)
		c.JSON(resp.Status, resp)
	default:
		resp := response.Success(c, http.StatusOK, gin.H{"applied": applied}, "payment verified", nil)
		c.JSON(resp.Status, resp)
	}
}

// Webhook handles gateway deliveries. The signature is verified against the
// exact raw body bytes before any parsing. Handled events always answer 200
// so the gateway stops retrying.
func (h *SubscriptionHandler) Webhook(c *gin.Context) {
	rawBody, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "unreadable body", nil)
		c.JSON(resp.Status, resp)
		return
	}
	signature := c.GetHeader("X-Razorpay-Signature")

	err = h.Svc.HandleWebhook(c.Request.Context(), rawBody, signature)
	switch {
	case errors.Is(err, app.ErrSignatureMismatch):
		resp := response.Error[any](c, http.StatusBadRequest, "webhook signature mismatch", nil)
		c.JSON(resp.Status, resp)
	case err != nil:
		h.Logger.WithError(err).Error("webhook processing failed")
		resp := response.Error[any](c, http.StatusInternalServerError, "webhook processing failed", nil)
		c.JSON(resp.Status, resp)
	default:
		resp := response.Success[any](c, http.StatusOK, gin.H{"received": true}, "webhook processed", nil)
		c.JSON(resp.Status, resp)
	}
}

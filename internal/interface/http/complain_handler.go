package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/aifinder/aifinder-api/internal/application"
	"github.com/aifinder/aifinder-api/pkg/response"
	"github.com/aifinder/aifinder-api/pkg/validation"
)

type ComplainHandler struct {
	Svc    *app.ComplaintService
	Logger *logrus.Logger
}

func NewComplainHandler(svc *app.ComplaintService, logger *logrus.Logger) *ComplainHandler {
	return &ComplainHandler{Svc: svc, Logger: logger}
}

type complainRequest struct {
	Email   string `json:"email" binding:"required,email"`
	Message string `json:"message" binding:"required"`
}

// Submit queues a complaint email to the support inbox.
func (h *ComplainHandler) Submit(c *gin.Context) {
	var req complainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}

	err := h.Svc.Submit(c.Request.Context(), req.Email, req.Message)
	if errors.Is(err, app.ErrComplaintTooLong) {
		resp := response.Error[any](c, http.StatusBadRequest, "message too long", nil)
		c.JSON(resp.Status, resp)
		return
	}
	if err != nil {
		h.Logger.WithError(err).Error("complaint submit failed")
		resp := response.Error[any](c, http.StatusInternalServerError, "failed to submit complaint", nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := response.Success[any](c, http.StatusAccepted, gin.H{"queued": true}, "complaint received", nil)
	c.JSON(resp.Status, resp)
}

package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/aifinder/aifinder-api/internal/application"
	"github.com/aifinder/aifinder-api/pkg/response"
	"github.com/aifinder/aifinder-api/pkg/validation"
)

type UserHandler struct {
	Svc    *app.UserService
	Logger *logrus.Logger
}

func NewUserHandler(svc *app.UserService, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type ensureUserRequest struct {
	Email         string     `json:"email" binding:"omitempty,email"`
	Name          string     `json:"name"`
	Image         string     `json:"image"`
	EmailVerified *time.Time `json:"email_verified"`
}

// EnsureUser makes sure a record exists for the authenticated subject. Safe
// to call on every sign-in.
func (h *UserHandler) EnsureUser(c *gin.Context) {
	var req ensureUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}

	clerkID := c.GetString("clerkID")
	email := req.Email
	if email == "" {
		email = c.GetString("userEmail")
	}

	u, created, err := h.Svc.EnsureUser(c.Request.Context(), app.Identity{
		ClerkID:       clerkID,
		Email:         email,
		Name:          req.Name,
		Image:         req.Image,
		EmailVerified: req.EmailVerified,
	})
	if err != nil {
		h.Logger.WithError(err).WithField("clerk_id", clerkID).Error("ensure user failed")
		resp := response.Error[any](c, http.StatusInternalServerError, "failed to ensure user", nil)
		c.JSON(resp.Status, resp)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	resp := response.Success(c, status, gin.H{
		"id":         u.ID,
		"clerk_id":   u.ClerkID,
		"email":      u.Email,
		"name":       u.Name,
		"created":    created,
		"created_at": u.CreatedAt,
	}, "user ensured", nil)
	c.JSON(resp.Status, resp)
}

// Profile returns the stored record for the authenticated subject.
func (h *UserHandler) Profile(c *gin.Context) {
	clerkID := c.GetString("clerkID")
	u, err := h.Svc.Profile(c.Request.Context(), clerkID)
	if errors.Is(err, app.ErrUserNotFound) {
		resp := response.Error[any](c, http.StatusNotFound, "user not found", nil)
		c.JSON(resp.Status, resp)
		return
	}
	if err != nil {
		h.Logger.WithError(err).WithField("clerk_id", clerkID).Error("load profile failed")
		resp := response.Error[any](c, http.StatusInternalServerError, "failed to load profile", nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := response.Success(c, http.StatusOK, u, "profile", nil)
	c.JSON(resp.Status, resp)
}

// Activity records a login event. While the identity-provider webhook has not
// written the record yet this answers 202 with code USER_NOT_FOUND so clients
// retry instead of erroring out.
func (h *UserHandler) Activity(c *gin.Context) {
	clerkID := c.GetString("clerkID")
	err := h.Svc.RecordLogin(c.Request.Context(), clerkID)
	if errors.Is(err, app.ErrUserPending) {
		resp := response.ErrorWithCode[any](c, http.StatusAccepted, "USER_NOT_FOUND", "user record not ready yet", nil)
		c.JSON(resp.Status, resp)
		return
	}
	if err != nil {
		h.Logger.WithError(err).WithField("clerk_id", clerkID).Error("record login failed")
		resp := response.Error[any](c, http.StatusInternalServerError, "failed to record activity", nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := response.Success[any](c, http.StatusOK, gin.H{"recorded": true}, "activity recorded", nil)
	c.JSON(resp.Status, resp)
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	app "github.com/aifinder/aifinder-api/internal/application"
	"github.com/aifinder/aifinder-api/pkg/response"
	"github.com/aifinder/aifinder-api/pkg/validation"
)

type ToolHandler struct {
	Svc    *app.ToolService
	Logger *logrus.Logger
}

func NewToolHandler(svc *app.ToolService, logger *logrus.Logger) *ToolHandler {
	return &ToolHandler{Svc: svc, Logger: logger}
}

type bulkUploadRequest struct {
	Tools []app.ToolInput `json:"tools" binding:"required,min=1,dive"`
}

// BulkUpload inserts a batch of catalog entries, reporting skips per index.
func (h *ToolHandler) BulkUpload(c *gin.Context) {
	var req bulkUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}

	report, err := h.Svc.BulkUpload(c.Request.Context(), req.Tools)
	if err != nil {
		h.Logger.WithError(err).Error("bulk upload failed")
		resp := response.Error[any](c, http.StatusInternalServerError, "upload failed", nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := response.Success(c, http.StatusOK, report, "upload processed", nil)
	c.JSON(resp.Status, resp)
}

// UploadLogo stores a multipart image and returns its public URL.
func (h *ToolHandler) UploadLogo(c *gin.Context) {
	fileHeader, err := c.FormFile("logo")
	if err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "missing logo file", nil)
		c.JSON(resp.Status, resp)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "unreadable logo file", nil)
		c.JSON(resp.Status, resp)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadLogo(c.Request.Context(), f, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		h.Logger.WithError(err).Error("logo upload failed")
		resp := response.Error[any](c, http.StatusInternalServerError, "logo upload failed", nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := response.Success(c, http.StatusOK, gin.H{"url": url}, "logo uploaded", nil)
	c.JSON(resp.Status, resp)
}

// Delete removes a tool and scrubs every user reference to it.
func (h *ToolHandler) Delete(c *gin.Context) {
	report, err := h.Svc.Delete(c.Request.Context(), c.Param("id"))
	if errors.Is(err, app.ErrToolNotFound) {
		resp := response.Error[any](c, http.StatusNotFound, "tool not found", nil)
		c.JSON(resp.Status, resp)
		return
	}
	if err != nil {
		h.Logger.WithError(err).WithField("tool_id", c.Param("id")).Error("tool delete failed")
		resp := response.Error[any](c, http.StatusInternalServerError, "delete failed", nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := response.Success(c, http.StatusOK, report, "tool deleted", nil)
	c.JSON(resp.Status, resp)
}

// Search queries the tools index.
func (h *ToolHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		resp := response.Error[any](c, http.StatusBadRequest, "missing query", nil)
		c.JSON(resp.Status, resp)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))

	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Error("search failed")
		resp := response.Error[any](c, http.StatusInternalServerError, "search failed", nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
	c.JSON(resp.Status, resp)
}

// LikeStatus reports whether the authenticated user likes the tool.
func (h *ToolHandler) LikeStatus(c *gin.Context) {
	liked, err := h.Svc.LikeStatus(c.Request.Context(), c.GetString("clerkID"), c.Param("id"))
	if h.writeUserToolErr(c, err) {
		return
	}
	resp := response.Success(c, http.StatusOK, gin.H{"liked": liked}, "like status", nil)
	c.JSON(resp.Status, resp)
}

func (h *ToolHandler) Like(c *gin.Context) {
	changed, err := h.Svc.Like(c.Request.Context(), c.GetString("clerkID"), c.Param("id"))
	if h.writeUserToolErr(c, err) {
		return
	}
	resp := response.Success(c, http.StatusOK, gin.H{"liked": true, "changed": changed}, "tool liked", nil)
	c.JSON(resp.Status, resp)
}

func (h *ToolHandler) Unlike(c *gin.Context) {
	changed, err := h.Svc.Unlike(c.Request.Context(), c.GetString("clerkID"), c.Param("id"))
	if h.writeUserToolErr(c, err) {
		return
	}
	resp := response.Success(c, http.StatusOK, gin.H{"liked": false, "changed": changed}, "tool unliked", nil)
	c.JSON(resp.Status, resp)
}

// SaveStatus reports whether the tool is saved anywhere for the user.
func (h *ToolHandler) SaveStatus(c *gin.Context) {
	saved, err := h.Svc.SaveStatus(c.Request.Context(), c.GetString("clerkID"), c.Param("id"))
	if h.writeUserToolErr(c, err) {
		return
	}
	resp := response.Success(c, http.StatusOK, gin.H{"saved": saved}, "save status", nil)
	c.JSON(resp.Status, resp)
}

type saveToolRequest struct {
	Folder string `json:"folder" binding:"omitempty,foldername"`
}

func (h *ToolHandler) Save(c *gin.Context) {
	var req saveToolRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
			c.JSON(resp.Status, resp)
			return
		}
	}

	err := h.Svc.Save(c.Request.Context(), c.GetString("clerkID"), c.Param("id"), req.Folder)
	switch {
	case errors.Is(err, app.ErrAlreadySaved):
		resp := response.Error[any](c, http.StatusConflict, "tool already saved", nil)
		c.JSON(resp.Status, resp)
	case errors.Is(err, app.ErrToolLimit):
		resp := response.Error[any](c, http.StatusForbidden, "saved tool limit reached", nil)
		c.JSON(resp.Status, resp)
	case errors.Is(err, app.ErrFolderFull):
		resp := response.Error[any](c, http.StatusForbidden, "folder is full", nil)
		c.JSON(resp.Status, resp)
	case errors.Is(err, app.ErrFolderNotFound):
		resp := response.Error[any](c, http.StatusNotFound, "folder not found", nil)
		c.JSON(resp.Status, resp)
	default:
		if h.writeUserToolErr(c, err) {
			return
		}
		resp := response.Success(c, http.StatusOK, gin.H{"saved": true}, "tool saved", nil)
		c.JSON(resp.Status, resp)
	}
}

func (h *ToolHandler) Unsave(c *gin.Context) {
	err := h.Svc.Unsave(c.Request.Context(), c.GetString("clerkID"), c.Param("id"))
	if errors.Is(err, app.ErrNotSaved) {
		resp := response.Error[any](c, http.StatusNotFound, "tool is not saved", nil)
		c.JSON(resp.Status, resp)
		return
	}
	if h.writeUserToolErr(c, err) {
		return
	}
	resp := response.Success(c, http.StatusOK, gin.H{"saved": false}, "tool unsaved", nil)
	c.JSON(resp.Status, resp)
}

// writeUserToolErr translates the shared not-found/internal cases; returns
// true when a response was written.
func (h *ToolHandler) writeUserToolErr(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, app.ErrToolNotFound):
		resp := response.Error[any](c, http.StatusNotFound, "tool not found", nil)
		c.JSON(resp.Status, resp)
	case errors.Is(err, app.ErrUserNotFound):
		resp := response.Error[any](c, http.StatusNotFound, "user not found", nil)
		c.JSON(resp.Status, resp)
	default:
		h.Logger.WithError(err).Error("tool operation failed")
		resp := response.Error[any](c, http.StatusInternalServerError, "operation failed", nil)
		c.JSON(resp.Status, resp)
	}
	return true
}

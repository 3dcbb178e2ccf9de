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

type FolderHandler struct {
	Svc    *app.ToolService
	Logger *logrus.Logger
}

func NewFolderHandler(svc *app.ToolService, logger *logrus.Logger) *FolderHandler {
	return &FolderHandler{Svc: svc, Logger: logger}
}

func (h *FolderHandler) List(c *gin.Context) {
	folders, err := h.Svc.ListFolders(c.Request.Context(), c.GetString("clerkID"))
	if h.writeFolderErr(c, err) {
		return
	}
	resp := response.Success(c, http.StatusOK, folders, "folders", map[string]any{"count": len(folders)})
	c.JSON(resp.Status, resp)
}

type folderRequest struct {
	Name string `json:"name" binding:"required,foldername"`
}

func (h *FolderHandler) Create(c *gin.Context) {
	var req folderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}
	err := h.Svc.CreateFolder(c.Request.Context(), c.GetString("clerkID"), req.Name)
	if h.writeFolderErr(c, err) {
		return
	}
	resp := response.Success[any](c, http.StatusCreated, gin.H{"name": req.Name}, "folder created", nil)
	c.JSON(resp.Status, resp)
}

// Delete removes a folder. Tools inside it fall back to the unsorted list.
func (h *FolderHandler) Delete(c *gin.Context) {
	err := h.Svc.DeleteFolder(c.Request.Context(), c.GetString("clerkID"), c.Param("name"))
	if h.writeFolderErr(c, err) {
		return
	}
	resp := response.Success[any](c, http.StatusOK, gin.H{"deleted": true}, "folder deleted", nil)
	c.JSON(resp.Status, resp)
}

type moveToFolderRequest struct {
	Folder string `json:"folder" binding:"required,foldername"`
	ToolID string `json:"tool_id" binding:"required"`
}

func (h *FolderHandler) MoveTool(c *gin.Context) {
	var req moveToFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}
	err := h.Svc.MoveToFolder(c.Request.Context(), c.GetString("clerkID"), req.Folder, req.ToolID)
	if h.writeFolderErr(c, err) {
		return
	}
	resp := response.Success[any](c, http.StatusOK, gin.H{"folder": req.Folder, "tool_id": req.ToolID}, "tool moved", nil)
	c.JSON(resp.Status, resp)
}

func (h *FolderHandler) RemoveTool(c *gin.Context) {
	err := h.Svc.RemoveFromFolder(c.Request.Context(), c.GetString("clerkID"), c.Param("name"), c.Param("tool"))
	if h.writeFolderErr(c, err) {
		return
	}
	resp := response.Success[any](c, http.StatusOK, gin.H{"removed": true}, "tool removed from folder", nil)
	c.JSON(resp.Status, resp)
}

func (h *FolderHandler) writeFolderErr(c *gin.Context, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, app.ErrFolderNotFound):
		resp := response.Error[any](c, http.StatusNotFound, "folder not found", nil)
		c.JSON(resp.Status, resp)
	case errors.Is(err, app.ErrFolderExists):
		resp := response.Error[any](c, http.StatusConflict, "folder already exists", nil)
		c.JSON(resp.Status, resp)
	case errors.Is(err, app.ErrFolderLimit):
		resp := response.Error[any](c, http.StatusForbidden, "folder limit reached", nil)
		c.JSON(resp.Status, resp)
	case errors.Is(err, app.ErrFolderFull):
		resp := response.Error[any](c, http.StatusForbidden, "folder is full", nil)
		c.JSON(resp.Status, resp)
	case errors.Is(err, app.ErrToolNotFound):
		resp := response.Error[any](c, http.StatusNotFound, "tool not found", nil)
		c.JSON(resp.Status, resp)
	case errors.Is(err, app.ErrNotSaved):
		resp := response.Error[any](c, http.StatusNotFound, "tool is not saved", nil)
		c.JSON(resp.Status, resp)
	case errors.Is(err, app.ErrAlreadySaved):
		resp := response.Error[any](c, http.StatusConflict, "tool already saved", nil)
		c.JSON(resp.Status, resp)
	case errors.Is(err, app.ErrToolLimit):
		resp := response.Error[any](c, http.StatusForbidden, "saved tool limit reached", nil)
		c.JSON(resp.Status, resp)
	case errors.Is(err, app.ErrUserNotFound):
		resp := response.Error[any](c, http.StatusNotFound, "user not found", nil)
		c.JSON(resp.Status, resp)
	default:
		h.Logger.WithError(err).Error("folder operation failed")
		resp := response.Error[any](c, http.StatusInternalServerError, "operation failed", nil)
		c.JSON(resp.Status, resp)
	}
	return true
}

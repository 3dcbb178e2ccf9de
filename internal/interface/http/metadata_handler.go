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

type MetadataHandler struct {
	Svc    *app.MetadataService
	Logger *logrus.Logger
}

func NewMetadataHandler(svc *app.MetadataService, logger *logrus.Logger) *MetadataHandler {
	return &MetadataHandler{Svc: svc, Logger: logger}
}

type generateAboutRequest struct {
	Name        string `json:"name" binding:"required,toolname"`
	Description string `json:"description" binding:"required,min=10"`
}

// GenerateAbout produces a short marketing blurb from a raw description.
func (h *MetadataHandler) GenerateAbout(c *gin.Context) {
	var req generateAboutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}

	about, err := h.Svc.GenerateAbout(c.Request.Context(), req.Name, req.Description)
	if errors.Is(err, app.ErrDescriptionTooShort) {
		resp := response.Error[any](c, http.StatusBadRequest, "description must be at least 10 characters", nil)
		c.JSON(resp.Status, resp)
		return
	}
	if err != nil {
		h.Logger.WithError(err).Error("about generation failed")
		resp := response.Error[any](c, http.StatusBadGateway, "failed to generate about text", nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := response.Success(c, http.StatusOK, gin.H{"about": about}, "about generated", nil)
	c.JSON(resp.Status, resp)
}

type extractKeywordsRequest struct {
	URL string `json:"url" binding:"required,url"`
}

// ExtractKeywords scrapes the tool's website and derives search keywords.
func (h *MetadataHandler) ExtractKeywords(c *gin.Context) {
	var req extractKeywordsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		resp := response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		c.JSON(resp.Status, resp)
		return
	}

	keywords, err := h.Svc.ExtractKeywords(c.Request.Context(), req.URL)
	if err != nil {
		h.Logger.WithError(err).WithField("url", req.URL).Error("keyword extraction failed")
		resp := response.Error[any](c, http.StatusBadGateway, "failed to extract keywords", nil)
		c.JSON(resp.Status, resp)
		return
	}
	resp := response.Success(c, http.StatusOK, gin.H{"keywords": keywords}, "keywords extracted", map[string]any{"count": len(keywords)})
	c.JSON(resp.Status, resp)
}

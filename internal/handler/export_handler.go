package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lamngoc/student-portal/internal/models"
	"github.com/lamngoc/student-portal/internal/service"
	appErrors "github.com/lamngoc/student-portal/pkg/errors"
	"github.com/lamngoc/student-portal/pkg/response"
)

// ExportHandler serves the student export endpoints: request, status poll
// and the signed download.
type ExportHandler struct {
	exports *service.ExportService
}

// NewExportHandler constructs ExportHandler.
func NewExportHandler(exports *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: exports}
}

// Request enqueues an export of the current listing criteria.
func (h *ExportHandler) Request(c *gin.Context) {
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(service.ExportFormatCSV))))
	criteria := models.StudentCriteria{
		Keyword: c.Query("keyword"),
		Major:   c.Query("major"),
		SortBy:  c.Query("sortBy"),
		Order:   c.Query("order"),
	}

	ticket, err := h.exports.Request(criteria, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.View(c, http.StatusAccepted, "export-status", gin.H{
		"export": ticket,
	})
}

// Status reports the state of a previously requested export.
func (h *ExportHandler) Status(c *gin.Context) {
	id := c.Query("id")
	if id == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "export id required"))
		return
	}

	ticket, err := h.exports.Status(id)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.View(c, http.StatusOK, "export-status", gin.H{
		"export": ticket,
	})
}

// Download streams a finished export file after validating its signed token.
func (h *ExportHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "download token required"))
		return
	}

	path, name, err := h.exports.Resolve(token)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.FileAttachment(path, name)
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lamngoc/student-portal/internal/middleware"
	"github.com/lamngoc/student-portal/internal/service"
	"github.com/lamngoc/student-portal/pkg/response"
)

// DashboardHandler serves the post-login landing page.
type DashboardHandler struct {
	dashboard *service.DashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Show renders the dashboard summary together with the session identity.
func (h *DashboardHandler) Show(c *gin.Context) {
	state := middleware.SessionFromContext(c)
	if state == nil {
		response.Redirect(c, "/login")
		return
	}

	summary, err := h.dashboard.Summary(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.View(c, http.StatusOK, "dashboard", gin.H{
		"totalStudents": summary.TotalStudents,
		"user": gin.H{
			"username": state.Username,
			"fullName": state.FullName,
			"role":     state.Role,
		},
	})
}

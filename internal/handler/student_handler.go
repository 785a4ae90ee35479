package handler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lamngoc/student-portal/internal/models"
	"github.com/lamngoc/student-portal/internal/service"
	appErrors "github.com/lamngoc/student-portal/pkg/errors"
	"github.com/lamngoc/student-portal/pkg/response"
)

// StudentHandler dispatches the student resource actions. The action
// parameter is resolved into the closed models.Action set here, at the
// routing boundary; unknown values fall back to list explicitly.
type StudentHandler struct {
	students  *service.StudentService
	dashboard *service.DashboardService
	logger    *zap.Logger
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService, dashboard *service.DashboardService, logger *zap.Logger) *StudentHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentHandler{students: students, dashboard: dashboard, logger: logger}
}

// HandleGet serves the read actions. Delete remains reachable over GET for
// compatibility with existing links, despite the idempotency concern; the
// POST route is the preferred entry.
func (h *StudentHandler) HandleGet(c *gin.Context) {
	switch models.ParseReadAction(strings.ToLower(c.Query("action"))) {
	case models.ActionNew:
		h.showNewForm(c)
	case models.ActionEdit:
		h.showEditForm(c)
	case models.ActionDelete:
		h.delete(c)
	case models.ActionSearch:
		h.search(c)
	case models.ActionSort:
		h.sort(c)
	case models.ActionFilter:
		h.filter(c)
	default:
		h.list(c)
	}
}

// HandlePost serves the write actions plus the POST form of delete.
func (h *StudentHandler) HandlePost(c *gin.Context) {
	raw := strings.ToLower(actionParam(c))
	if action, ok := models.ParseWriteAction(raw); ok {
		switch action {
		case models.ActionInsert:
			h.insert(c)
		case models.ActionUpdate:
			h.update(c)
		}
		return
	}
	if models.Action(raw) == models.ActionDelete {
		h.delete(c)
		return
	}
	h.list(c)
}

func (h *StudentHandler) list(c *gin.Context) {
	students := h.students.List(c.Request.Context())
	h.renderList(c, students, nil)
}

func (h *StudentHandler) search(c *gin.Context) {
	keyword := strings.TrimSpace(c.Query("keyword"))
	students := h.students.Search(c.Request.Context(), keyword)
	h.renderList(c, students, gin.H{"keyword": keyword})
}

func (h *StudentHandler) sort(c *gin.Context) {
	sortBy := models.SanitizeSortBy(c.Query("sortBy"))
	order := models.SanitizeOrder(c.Query("order"))
	students := h.students.Sorted(c.Request.Context(), sortBy, order)
	h.renderList(c, students, gin.H{"sortBy": sortBy, "order": order})
}

func (h *StudentHandler) filter(c *gin.Context) {
	criteria := models.StudentCriteria{
		Keyword: c.Query("keyword"),
		Major:   c.Query("major"),
		SortBy:  c.Query("sortBy"),
		Order:   c.Query("order"),
	}.Sanitized()
	students := h.students.Filtered(c.Request.Context(), criteria)
	h.renderList(c, students, gin.H{
		"keyword":       criteria.Keyword,
		"selectedMajor": criteria.Major,
		"sortBy":        criteria.SortBy,
		"order":         criteria.Order,
	})
}

func (h *StudentHandler) showNewForm(c *gin.Context) {
	response.View(c, http.StatusOK, "student-form", gin.H{
		"isEditMode": false,
		"majors":     h.students.Majors(c.Request.Context()),
	})
}

func (h *StudentHandler) showEditForm(c *gin.Context) {
	id, ok := parseID(c.Query("id"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "invalid student id"))
		return
	}

	student, err := h.students.Get(c.Request.Context(), id)
	if err != nil {
		h.redirectToList(c, "", "Student not found")
		return
	}

	response.View(c, http.StatusOK, "student-form", gin.H{
		"student":    student,
		"isEditMode": true,
		"majors":     h.students.Majors(c.Request.Context()),
	})
}

func (h *StudentHandler) insert(c *gin.Context) {
	student := models.Student{
		StudentCode: c.PostForm("studentCode"),
		FullName:    c.PostForm("fullName"),
		Email:       c.PostForm("email"),
		Major:       c.PostForm("major"),
	}

	if fieldErrors := h.students.Validate(&student); len(fieldErrors) > 0 {
		h.renderForm(c, &student, false, fieldErrors)
		return
	}

	if h.students.Add(c.Request.Context(), &student) {
		h.dashboard.Invalidate(c.Request.Context())
		h.redirectToList(c, "Student added successfully", "")
	} else {
		h.redirectToList(c, "", "Failed to add student")
	}
}

func (h *StudentHandler) update(c *gin.Context) {
	id, ok := parseID(c.PostForm("id"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "invalid student id"))
		return
	}

	student := models.Student{
		ID:          id,
		StudentCode: c.PostForm("studentCode"),
		FullName:    c.PostForm("fullName"),
		Email:       c.PostForm("email"),
		Major:       c.PostForm("major"),
	}

	if fieldErrors := h.students.Validate(&student); len(fieldErrors) > 0 {
		h.renderForm(c, &student, true, fieldErrors)
		return
	}

	if h.students.Update(c.Request.Context(), &student) {
		h.redirectToList(c, "Student updated successfully", "")
	} else {
		h.redirectToList(c, "", "Failed to update student")
	}
}

func (h *StudentHandler) delete(c *gin.Context) {
	id, ok := parseID(firstNonEmpty(c.Query("id"), c.PostForm("id")))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "invalid student id"))
		return
	}

	if h.students.Delete(c.Request.Context(), id) {
		h.dashboard.Invalidate(c.Request.Context())
		h.redirectToList(c, "Student deleted successfully", "")
	} else {
		h.redirectToList(c, "", "Failed to delete student")
	}
}

// renderList is the shared presentation step for every list-producing
// action. The criteria fields are always present, defaulted when the action
// did not set them, so the listing view never sees partial state.
func (h *StudentHandler) renderList(c *gin.Context, students []models.Student, attrs gin.H) {
	view := gin.H{
		"students":      students,
		"keyword":       "",
		"selectedMajor": "",
		"sortBy":        "id",
		"order":         "desc",
		"majors":        h.students.Majors(c.Request.Context()),
	}
	for k, v := range attrs {
		view[k] = v
	}
	if msg := c.Query("message"); msg != "" {
		view["message"] = msg
	}
	if msg := c.Query("error"); msg != "" {
		view["error"] = msg
	}
	response.View(c, http.StatusOK, "student-list", view)
}

// renderForm re-displays the submitted record with field-level errors.
func (h *StudentHandler) renderForm(c *gin.Context, student *models.Student, editMode bool, fieldErrors map[string]string) {
	view := gin.H{
		"student":    student,
		"isEditMode": editMode,
		"majors":     h.students.Majors(c.Request.Context()),
	}
	for field, msg := range fieldErrors {
		view[field] = msg
	}
	response.View(c, http.StatusUnprocessableEntity, "student-form", view)
}

// redirectToList implements redirect-after-write: a refresh of the listing
// page never replays the mutation.
func (h *StudentHandler) redirectToList(c *gin.Context, message, errMsg string) {
	params := url.Values{}
	params.Set("action", string(models.ActionList))
	if message != "" {
		params.Set("message", message)
	}
	if errMsg != "" {
		params.Set("error", errMsg)
	}
	response.RedirectWithParams(c, "/student", params)
}

func parseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func actionParam(c *gin.Context) string {
	if action := c.Query("action"); action != "" {
		return action
	}
	return c.PostForm("action")
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/lamngoc/student-portal/internal/models"
)

func newAdminRouter(t *testing.T, state *models.SessionState) (*gin.Engine, *bool) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	reached := false

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if state != nil {
			c.Set(ContextSessionKey, state)
		}
		c.Next()
	})
	handle := func(c *gin.Context) {
		reached = true
		c.Status(http.StatusOK)
	}
	group := r.Group("/student", AdminOnly())
	group.GET("", handle)
	group.POST("", handle)
	return r, &reached
}

func studentSession() *models.SessionState {
	return &models.SessionState{UserID: 2, Username: "student1", Role: models.RoleStudent}
}

func adminSession() *models.SessionState {
	return &models.SessionState{UserID: 1, Username: "admin", Role: models.RoleAdmin}
}

func TestAdminOnlyBlocksStudentMutation(t *testing.T) {
	r, reached := newAdminRouter(t, studentSession())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/student?action=delete&id=1", nil))

	assert.False(t, *reached)
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	location, err := url.Parse(rec.Header().Get("Location"))
	assert.NoError(t, err)
	assert.Equal(t, "/student", location.Path)
	assert.Equal(t, "list", location.Query().Get("action"))
	assert.Contains(t, location.Query().Get("error"), "Admin access required")
}

func TestAdminOnlyBlocksStudentFormPost(t *testing.T) {
	r, reached := newAdminRouter(t, studentSession())

	body := url.Values{"action": {"update"}, "id": {"1"}}
	req := httptest.NewRequest(http.MethodPost, "/student", strings.NewReader(body.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.False(t, *reached)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestAdminOnlyAllowsAdminMutation(t *testing.T) {
	r, reached := newAdminRouter(t, adminSession())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/student?action=delete&id=1", nil))

	assert.True(t, *reached)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminOnlyAllowsStudentReads(t *testing.T) {
	for _, target := range []string{
		"/student",
		"/student?action=list",
		"/student?action=search&keyword=an",
		"/student?action=sort&sortBy=full_name&order=asc",
		"/student?action=filter&major=CS",
	} {
		r, reached := newAdminRouter(t, studentSession())
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.True(t, *reached, target)
	}
}

func TestAdminOnlyActionIsCaseInsensitive(t *testing.T) {
	r, reached := newAdminRouter(t, studentSession())

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/student?action=DELETE&id=1", nil))

	assert.False(t, *reached)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestAdminOnlyMissingSessionBlocksMutation(t *testing.T) {
	r, reached := newAdminRouter(t, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/student?action=new", nil))

	assert.False(t, *reached)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lamngoc/student-portal/internal/models"
	"github.com/lamngoc/student-portal/internal/repository"
	"github.com/lamngoc/student-portal/internal/session"
	"github.com/lamngoc/student-portal/pkg/config"
)

var testSessionCfg = config.SessionConfig{CookieName: "portal_session", TTL: 30 * time.Minute}

func newAuthRouter(t *testing.T) (*gin.Engine, *repository.MemorySessionRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	repo := repository.NewMemorySessionRepository()
	mgr := session.NewManager(repo, zap.NewNop(), testSessionCfg)

	r := gin.New()
	r.Use(Authentication(mgr))
	r.GET("/login", func(c *gin.Context) { c.String(http.StatusOK, "login") })
	r.GET("/dashboard", func(c *gin.Context) {
		state := SessionFromContext(c)
		require.NotNil(t, state)
		c.String(http.StatusOK, state.Username)
	})
	r.GET("/app.css", func(c *gin.Context) { c.String(http.StatusOK, "css") })
	return r, repo
}

func TestAuthenticationPublicPaths(t *testing.T) {
	r, _ := newAuthRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/login", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/app.css", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticationRedirectsAnonymous(t *testing.T) {
	r, _ := newAuthRouter(t)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestAuthenticationAttachesSessionState(t *testing.T) {
	r, repo := newAuthRouter(t)
	require.NoError(t, repo.Save(context.Background(), "tok-1",
		models.SessionState{UserID: 1, Username: "admin", Role: models.RoleAdmin}, time.Hour))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: testSessionCfg.CookieName, Value: "tok-1"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "admin", rec.Body.String())
}

func TestAuthenticationExpiredSessionRedirects(t *testing.T) {
	r, repo := newAuthRouter(t)
	require.NoError(t, repo.Save(context.Background(), "tok-1",
		models.SessionState{UserID: 1, Username: "admin"}, -time.Minute))

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.AddCookie(&http.Cookie{Name: testSessionCfg.CookieName, Value: "tok-1"})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

package session

import (
	"context"
	"errors"
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
	"github.com/lamngoc/student-portal/pkg/config"
)

var testSessionCfg = config.SessionConfig{CookieName: "portal_session", TTL: 30 * time.Minute}

func newTestContext(t *testing.T, cookie string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	if cookie != "" {
		c.Request.AddCookie(&http.Cookie{Name: testSessionCfg.CookieName, Value: cookie})
	}
	return c, rec
}

func issuedCookie(t *testing.T, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	res := http.Response{Header: rec.Header()}
	for _, cookie := range res.Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func TestManagerCreateIssuesOpaqueCookie(t *testing.T) {
	repo := repository.NewMemorySessionRepository()
	mgr := NewManager(repo, zap.NewNop(), testSessionCfg)

	c, rec := newTestContext(t, "")
	user := &models.User{ID: 1, Username: "admin", Role: models.RoleAdmin, FullName: "Site Admin"}
	require.NoError(t, mgr.Create(c, user))

	cookie := issuedCookie(t, rec, testSessionCfg.CookieName)
	require.NotNil(t, cookie)
	assert.NotEmpty(t, cookie.Value)
	assert.True(t, cookie.HttpOnly)
	// the cookie names a token, never the identity
	assert.NotContains(t, cookie.Value, "admin")

	state, err := repo.Find(context.Background(), cookie.Value)
	require.NoError(t, err)
	require.NotNil(t, state)
	assert.Equal(t, int64(1), state.UserID)
	assert.Equal(t, models.RoleAdmin, state.Role)
}

func TestManagerCreateSupersedesExistingSession(t *testing.T) {
	repo := repository.NewMemorySessionRepository()
	mgr := NewManager(repo, zap.NewNop(), testSessionCfg)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "stale-token", models.SessionState{UserID: 9}, time.Hour))

	c, rec := newTestContext(t, "stale-token")
	require.NoError(t, mgr.Create(c, &models.User{ID: 1, Username: "admin", Role: models.RoleAdmin}))

	// the pre-login token is dead regardless of who owned it
	state, err := repo.Find(ctx, "stale-token")
	require.NoError(t, err)
	assert.Nil(t, state)

	cookie := issuedCookie(t, rec, testSessionCfg.CookieName)
	require.NotNil(t, cookie)
	assert.NotEqual(t, "stale-token", cookie.Value)
}

func TestManagerCurrent(t *testing.T) {
	repo := repository.NewMemorySessionRepository()
	mgr := NewManager(repo, zap.NewNop(), testSessionCfg)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "tok-1", models.SessionState{UserID: 1, Username: "admin"}, time.Hour))

	c, _ := newTestContext(t, "tok-1")
	state := mgr.Current(c)
	require.NotNil(t, state)
	assert.Equal(t, "admin", state.Username)

	c, _ = newTestContext(t, "")
	assert.Nil(t, mgr.Current(c))

	c, _ = newTestContext(t, "unknown-token")
	assert.Nil(t, mgr.Current(c))
}

type failingSessionRepo struct{}

func (failingSessionRepo) Save(context.Context, string, models.SessionState, time.Duration) error {
	return errors.New("store down")
}

func (failingSessionRepo) Find(context.Context, string) (*models.SessionState, error) {
	return nil, errors.New("store down")
}

func (failingSessionRepo) Touch(context.Context, string, time.Duration) error {
	return errors.New("store down")
}

func (failingSessionRepo) Delete(context.Context, string) error {
	return errors.New("store down")
}

func TestManagerCurrentStoreFaultReadsAsNoSession(t *testing.T) {
	mgr := NewManager(failingSessionRepo{}, zap.NewNop(), testSessionCfg)

	c, _ := newTestContext(t, "tok-1")
	assert.Nil(t, mgr.Current(c))
}

func TestManagerDestroy(t *testing.T) {
	repo := repository.NewMemorySessionRepository()
	mgr := NewManager(repo, zap.NewNop(), testSessionCfg)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, "tok-1", models.SessionState{UserID: 1}, time.Hour))

	c, rec := newTestContext(t, "tok-1")
	mgr.Destroy(c)

	state, err := repo.Find(ctx, "tok-1")
	require.NoError(t, err)
	assert.Nil(t, state)

	cookie := issuedCookie(t, rec, testSessionCfg.CookieName)
	require.NotNil(t, cookie)
	assert.Empty(t, cookie.Value)
	assert.True(t, cookie.MaxAge < 0)
}

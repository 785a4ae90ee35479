package session

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lamngoc/student-portal/internal/models"
	"github.com/lamngoc/student-portal/internal/repository"
	"github.com/lamngoc/student-portal/pkg/config"
)

// Manager owns the cookie-to-session binding. The cookie carries only an
// opaque token; all identity lives server-side in the SessionRepository.
type Manager struct {
	repo   repository.SessionRepository
	logger *zap.Logger
	cfg    config.SessionConfig
}

// NewManager constructs a session manager.
func NewManager(repo repository.SessionRepository, logger *zap.Logger, cfg config.SessionConfig) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{repo: repo, logger: logger, cfg: cfg}
}

// Create issues a fresh session for the user. Whatever session the incoming
// cookie names is invalidated first, whether or not it belonged to the same
// user: a token minted before authentication must never survive login.
func (m *Manager) Create(c *gin.Context, user *models.User) error {
	ctx := c.Request.Context()

	if old, err := c.Cookie(m.cfg.CookieName); err == nil && old != "" {
		if err := m.repo.Delete(ctx, old); err != nil {
			m.logger.Warn("failed to invalidate superseded session", zap.Error(err))
		}
	}

	token, err := generateToken()
	if err != nil {
		return err
	}

	state := models.SessionState{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
		FullName: user.FullName,
	}
	if err := m.repo.Save(ctx, token, state, m.cfg.TTL); err != nil {
		return err
	}

	c.SetCookie(m.cfg.CookieName, token, 0, "/", "", m.cfg.CookieSecure, true)
	return nil
}

// Current returns the live session for the request, sliding its inactivity
// window, or nil when there is none. It never creates a session, and a
// store fault reads as "no session".
func (m *Manager) Current(c *gin.Context) *models.SessionState {
	token, err := c.Cookie(m.cfg.CookieName)
	if err != nil || token == "" {
		return nil
	}

	ctx := c.Request.Context()
	state, err := m.repo.Find(ctx, token)
	if err != nil {
		m.logger.Error("session lookup failed", zap.Error(err))
		return nil
	}
	if state == nil {
		return nil
	}

	if err := m.repo.Touch(ctx, token, m.cfg.TTL); err != nil {
		m.logger.Warn("failed to extend session", zap.Error(err))
	}
	return state
}

// Destroy removes the current session and expires the cookie.
func (m *Manager) Destroy(c *gin.Context) {
	if token, err := c.Cookie(m.cfg.CookieName); err == nil && token != "" {
		if err := m.repo.Delete(c.Request.Context(), token); err != nil {
			m.logger.Warn("failed to delete session", zap.Error(err))
		}
	}
	c.SetCookie(m.cfg.CookieName, "", -1, "/", "", m.cfg.CookieSecure, true)
}

func generateToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lamngoc/student-portal/internal/models"
	"github.com/lamngoc/student-portal/internal/session"
)

// ContextSessionKey is the gin context key storing the session state.
const ContextSessionKey = "currentSession"

// Routes reachable without a session: login/logout, the index, and the
// operational endpoints.
var publicPaths = map[string]bool{
	"/":        true,
	"/login":   true,
	"/logout":  true,
	"/healthz": true,
	"/metrics": true,
}

// Static assets stay public regardless of path.
var publicSuffixes = []string{".css", ".js", ".png", ".jpg", ".ico"}

// Authentication is the first stage of the access gate: every request
// outside the public allow-list needs a live session, otherwise it is
// redirected to the login page. On success the typed session state is
// attached to the request context.
func Authentication(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isPublicPath(c.Request.URL.Path) {
			c.Next()
			return
		}

		state := mgr.Current(c)
		if state == nil {
			c.Redirect(303, "/login")
			c.Abort()
			return
		}

		c.Set(ContextSessionKey, state)
		c.Next()
	}
}

// SessionFromContext returns the session state attached by Authentication.
func SessionFromContext(c *gin.Context) *models.SessionState {
	value, exists := c.Get(ContextSessionKey)
	if !exists {
		return nil
	}
	state, ok := value.(*models.SessionState)
	if !ok {
		return nil
	}
	return state
}

func isPublicPath(path string) bool {
	if publicPaths[path] {
		return true
	}
	for _, suffix := range publicSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

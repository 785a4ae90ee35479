package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lamngoc/student-portal/internal/service"
	"github.com/lamngoc/student-portal/internal/session"
	"github.com/lamngoc/student-portal/pkg/response"
)

// AuthHandler serves the login and logout endpoints.
type AuthHandler struct {
	auth     *service.AuthService
	sessions *session.Manager
	logger   *zap.Logger
}

// NewAuthHandler creates a new handler.
func NewAuthHandler(auth *service.AuthService, sessions *session.Manager, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{auth: auth, sessions: sessions, logger: logger}
}

// ShowLogin renders the login view, or forwards straight to the dashboard
// when a session already exists.
func (h *AuthHandler) ShowLogin(c *gin.Context) {
	if h.sessions.Current(c) != nil {
		response.Redirect(c, "/dashboard")
		return
	}
	attrs := gin.H{"username": ""}
	if msg := c.Query("error"); msg != "" {
		attrs["error"] = msg
	}
	response.View(c, http.StatusOK, "login", attrs)
}

// Login authenticates the submitted credentials and opens a session. The
// failure message never reveals whether the username exists.
func (h *AuthHandler) Login(c *gin.Context) {
	username := strings.TrimSpace(c.PostForm("username"))
	password := c.PostForm("password")

	if username == "" || strings.TrimSpace(password) == "" {
		response.View(c, http.StatusBadRequest, "login", gin.H{
			"error":    "Username and password are required",
			"username": username,
		})
		return
	}

	user, err := h.auth.Login(c.Request.Context(), username, password)
	if err != nil {
		response.View(c, http.StatusUnauthorized, "login", gin.H{
			"error":    "Invalid username or password",
			"username": username,
		})
		return
	}

	if err := h.sessions.Create(c, user); err != nil {
		h.logger.Error("failed to create session", zap.Error(err))
		response.View(c, http.StatusInternalServerError, "login", gin.H{
			"error":    "Login failed, please try again",
			"username": username,
		})
		return
	}

	response.Redirect(c, "/dashboard")
}

// Logout destroys the current session.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.sessions.Destroy(c)
	response.Redirect(c, "/login")
}

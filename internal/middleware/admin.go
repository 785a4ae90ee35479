package middleware

import (
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lamngoc/student-portal/internal/models"
)

const permissionDeniedMessage = "You do not have permission to perform this action. Admin access required."

// AdminOnly is the second stage of the access gate, mounted on the student
// route. Mutating actions require the admin role; read actions pass for any
// authenticated user.
func AdminOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		action := models.Action(strings.ToLower(actionParam(c)))
		if !action.AdminOnly() {
			c.Next()
			return
		}

		state := SessionFromContext(c)
		if state.IsAdmin() {
			c.Next()
			return
		}

		params := url.Values{}
		params.Set("action", string(models.ActionList))
		params.Set("error", permissionDeniedMessage)
		c.Redirect(303, "/student?"+params.Encode())
		c.Abort()
	}
}

func actionParam(c *gin.Context) string {
	if action := c.Query("action"); action != "" {
		return action
	}
	return c.PostForm("action")
}

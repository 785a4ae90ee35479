package response

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	appErrors "github.com/lamngoc/student-portal/pkg/errors"
)

// View hands a flat attribute set to the rendering collaborator. The
// collaborator owns presentation; handlers only decide the view name and
// the attributes.
func View(c *gin.Context, status int, view string, attrs gin.H) {
	payload := gin.H{"view": view}
	for k, v := range attrs {
		payload[k] = v
	}
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, payload)
}

// Redirect issues a See Other redirect to the given path.
func Redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
}

// RedirectWithParams appends query parameters (typically flash message or
// error) to the redirect target.
func RedirectWithParams(c *gin.Context, location string, params url.Values) {
	if len(params) > 0 {
		location = location + "?" + params.Encode()
	}
	c.Redirect(http.StatusSeeOther, location)
}

// Error reports a typed error without leaking storage detail.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.JSON(appErr.Status, gin.H{"error": gin.H{"code": appErr.Code, "message": appErr.Message}})
}

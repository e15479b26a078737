package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// CSRFFieldName is the form field carrying the session's CSRF token.
const CSRFFieldName = "csrf_token"

// CSRFProtect rejects state-changing requests whose token does not match the
// session. A rejected request is redirected back to the page it targeted.
func CSRFProtect(log *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}

		token := c.PostForm(CSRFFieldName)
		if token == "" {
			token = c.GetHeader("X-CSRF-Token")
		}

		expected := CSRFToken(c)
		if expected == "" || token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(expected)) != 1 {
			log.WithFields(logrus.Fields{
				"path":      c.Request.URL.Path,
				"client_ip": c.ClientIP(),
			}).Warn("CSRF token missing or invalid")
			c.Redirect(http.StatusSeeOther, c.Request.URL.Path)
			c.Abort()
			return
		}

		c.Next()
	}
}

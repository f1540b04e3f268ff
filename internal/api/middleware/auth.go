package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/martijn/website/internal/api/session"
	"github.com/martijn/website/internal/logging"
	"github.com/martijn/website/internal/web"
)

const (
	MsgLoginRequired = "Please log in to access this page."
	MsgAdminRequired = "You do not have permission to access this page."
)

// Identity resolves the current user once per request and stores it on the
// gin context. A lookup failure leaves the request anonymous.
func Identity(sessions *session.Manager, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := sessions.Resolve(c)
		if err != nil {
			logging.LogError(logger, "failed to resolve identity", err, "path", c.Request.URL.Path)
		}
		session.SetCurrentUser(c, user)

		c.Next()
	}
}

// RequireLogin sends anonymous visitors to the login page, remembering where
// they were going.
func RequireLogin(sessions *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if session.CurrentUser(c) != nil {
			c.Next()
			return
		}

		_ = sessions.AddFlash(c, "info", MsgLoginRequired)
		c.Redirect(http.StatusFound, session.LoginURL(c.Request.URL.RequestURI()))
		c.Abort()
	}
}

// RequireAnonymous sends logged-in users to the home page.
func RequireAnonymous() gin.HandlerFunc {
	return func(c *gin.Context) {
		if session.CurrentUser(c) != nil {
			c.Redirect(http.StatusFound, "/")
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireAdmin must run after RequireLogin.
func RequireAdmin(renderer *web.Renderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := session.CurrentUser(c)
		if user == nil || !user.IsAdmin {
			renderer.Error(c, http.StatusForbidden, MsgAdminRequired)
			return
		}
		c.Next()
	}
}

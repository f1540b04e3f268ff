package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/martijn/website/internal/logging"
	"github.com/martijn/website/internal/web"
)

const MsgInternalError = "An unexpected error occurred. Please try again later."

// ErrorHandlerMiddleware renders the 500 page for panics and for errors
// attached with c.Error when nothing has been written yet.
func ErrorHandlerMiddleware(renderer *web.Renderer, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error("panic recovered",
					"panic", fmt.Sprint(rec),
					"method", c.Request.Method,
					"path", c.Request.URL.Path,
				)
				if !c.Writer.Written() {
					renderer.Error(c, http.StatusInternalServerError, MsgInternalError)
				}
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			logging.LogError(logger, "request failed", err.Err,
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
			)
			if !c.Writer.Written() {
				renderer.Error(c, http.StatusInternalServerError, MsgInternalError)
			}
		}
	}
}

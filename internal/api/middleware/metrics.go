package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martijn/website/internal/metrics"
)

// Metrics counts requests by route template, so /blog/:slug is one series.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start).Seconds())
	}
}

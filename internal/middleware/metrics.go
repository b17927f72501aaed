package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"task-board-api/internal/metrics"
)

// Metrics records request count and latency per route pattern.
// Probes, docs and websocket upgrades are left out.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metrics.ShouldSkipEndpoint(c.Request.URL.Path) || isWebsocketUpgrade(c) {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		m.RecordHTTPRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}

func isWebsocketUpgrade(c *gin.Context) bool {
	return strings.EqualFold(c.GetHeader("Upgrade"), "websocket")
}

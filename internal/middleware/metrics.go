package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"pneumonet/internal/metrics"
)

// Metrics records a Prometheus latency histogram for every request,
// labeled by method, route template and status code.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		metrics.RecordHTTPLatency(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start).Seconds(),
		)
	}
}

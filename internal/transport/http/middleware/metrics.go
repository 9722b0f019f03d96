package middleware

import (
	"strconv"
	"time"

	"github.com/ErlanBelekov/jwt-auth/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Unmatched requests share one path label so scanners cannot blow up cardinality.
const unmatchedPath = "unmatched"

// Metrics records latency and count per route template.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = unmatchedPath
		}
		labels := []string{c.Request.Method, path, strconv.Itoa(c.Writer.Status())}

		metrics.HTTPRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(labels...).Inc()
	}
}

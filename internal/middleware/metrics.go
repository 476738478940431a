package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"shortly-live/internal/metrics"
)

// Metrics records request counts and latency per matched route.
// Unmatched paths share one label so probes cannot blow up cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		metrics.HTTPRequests.WithLabelValues(route, method, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
	}
}

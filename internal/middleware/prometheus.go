package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crossidm/idsync/internal/metrics"
)

// PrometheusMiddleware records per-route request counts and latency.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		// Use the route pattern so path parameters do not explode label
		// cardinality.
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}

		status := strconv.Itoa(c.Writer.Status())
		method := c.Request.Method

		metrics.RequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
		metrics.RequestsTotal.WithLabelValues(method, route, status).Inc()
	}
}

package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Nearezz/toy-exchange/internal/telemetry"
)

// PrometheusMiddleware records request metrics.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		duration := time.Since(start).Seconds()

		telemetry.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			routeOf(c),
			strconv.Itoa(c.Writer.Status()),
		).Observe(duration)
	}
}

// routeOf returns the matched route pattern, so /v1/order/:id stays one label.
func routeOf(c *gin.Context) string {
	if path := c.FullPath(); path != "" {
		return path
	}
	return "unmatched"
}

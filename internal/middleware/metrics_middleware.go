package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/buildmart/buildmart_api/internal/utils"
)

// MetricsMiddleware records a latency observation per request, labelled by
// route pattern rather than raw path to keep cardinality bounded.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		utils.HTTPRequestDuration.
			WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}

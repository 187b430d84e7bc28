package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/suivi-academique-api/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records one observation per request, labelled by the route template
// so ids and codes in paths do not explode label cardinality.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = unmatchedRoute
		}
		if route == "/metrics" {
			return
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

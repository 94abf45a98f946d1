package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

type requestObserver interface {
	ObserveHTTPRequest(method, path string, status int, duration time.Duration)
}

// Metrics records one observation per request labelled by route template. Unmatched
// requests are grouped under "unmatched" to keep label cardinality bounded.
func Metrics(observer requestObserver) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		observer.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}

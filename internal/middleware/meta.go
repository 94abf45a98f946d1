package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
)

const requestStartKey = "request_start"

// WithResponseMeta stamps the request start so handlers can report processing time
// in the response envelope.
func WithResponseMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(requestStartKey, time.Now())
		c.Next()
	}
}

// ResponseMeta returns envelope metadata for the current request, merged with extra.
// It is nil when WithResponseMeta is not installed and extra is empty.
func ResponseMeta(c *gin.Context, extra map[string]interface{}) map[string]interface{} {
	var meta map[string]interface{}
	if c != nil {
		if value, exists := c.Get(requestStartKey); exists {
			if start, ok := value.(time.Time); ok {
				meta = map[string]interface{}{"processing_time_ms": time.Since(start).Milliseconds()}
			}
		}
	}
	if len(extra) == 0 {
		return meta
	}
	if meta == nil {
		meta = make(map[string]interface{}, len(extra))
	}
	for k, v := range extra {
		meta[k] = v
	}
	return meta
}

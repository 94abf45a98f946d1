package handler

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-api/internal/service"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingFunc adapts a plain function to Pinger.
type PingFunc func(ctx context.Context) error

// PingContext calls f.
func (f PingFunc) PingContext(ctx context.Context) error { return f(ctx) }

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *service.MetricsService
	deps    map[string]Pinger
}

// NewMetricsHandler constructs a metrics handler. deps are checked by Ready, keyed by
// the name reported on failure.
func NewMetricsHandler(metrics *service.MetricsService, deps map[string]Pinger) *MetricsHandler {
	return &MetricsHandler{metrics: metrics, deps: deps}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for liveness checks.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports 503 while any dependency is unreachable.
func (h *MetricsHandler) Ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	names := make([]string, 0, len(h.deps))
	for name := range h.deps {
		names = append(names, name)
	}
	sort.Strings(names)

	failures := gin.H{}
	for _, name := range names {
		if err := h.deps[name].PingContext(ctx); err != nil {
			failures[name] = err.Error()
		}
	}
	if len(failures) > 0 {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failures": failures})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

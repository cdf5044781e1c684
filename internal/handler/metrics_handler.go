package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/limaJavier/lecture-timetabling/internal/metrics"
)

// MetricsHandler exposes observability endpoints.
type MetricsHandler struct {
	metrics *metrics.Recorder
}

// NewMetricsHandler constructs a metrics handler.
func NewMetricsHandler(recorder *metrics.Recorder) *MetricsHandler {
	return &MetricsHandler{metrics: recorder}
}

// Prometheus serves the Prometheus metrics endpoint.
func (h *MetricsHandler) Prometheus(c *gin.Context) {
	if h.metrics == nil {
		c.Status(http.StatusServiceUnavailable)
		return
	}
	h.metrics.Handler().ServeHTTP(c.Writer, c.Request)
}

// Health responds with a generic OK payload for readiness/liveness usage.
func (h *MetricsHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

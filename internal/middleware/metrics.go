package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/limaJavier/lecture-timetabling/internal/metrics"
)

// Metrics returns middleware that captures request metrics using the provided recorder.
func Metrics(recorder *metrics.Recorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		if recorder == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		recorder.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), duration)
	}
}

package handler

import (
	"github.com/gin-gonic/gin"
)

// Register mounts every route on r.
func Register(r gin.IRouter, timetables *TimetableHandler, observability *MetricsHandler) {
	r.POST("/generate-timetable", timetables.Generate)
	r.GET("/health", observability.Health)
	r.GET("/metrics", observability.Prometheus)
}

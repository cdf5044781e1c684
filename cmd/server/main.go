package main

import (
	"fmt"
	"log"

	"github.com/gin-gonic/gin"

	"github.com/limaJavier/lecture-timetabling/internal/config"
	"github.com/limaJavier/lecture-timetabling/internal/handler"
	"github.com/limaJavier/lecture-timetabling/internal/logger"
	"github.com/limaJavier/lecture-timetabling/internal/metrics"
	"github.com/limaJavier/lecture-timetabling/internal/middleware"
	"github.com/limaJavier/lecture-timetabling/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	timetablers, err := service.NewTimetablers(cfg.Solver, logr)
	if err != nil {
		logr.Sugar().Fatalw("invalid solver configuration", "error", err)
	}

	recorder := metrics.NewRecorder()
	timetableService := service.NewTimetableService(timetablers, cfg.Solver, recorder, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(middleware.Metrics(recorder))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	handler.Register(r, handler.NewTimetableHandler(timetableService), handler.NewMetricsHandler(recorder))

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting",
		"addr", addr,
		"env", cfg.Env,
		"strategy", cfg.Solver.Strategy,
		"sat_solver", cfg.Solver.SATSolver,
	)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

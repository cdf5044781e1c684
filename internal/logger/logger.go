package logger

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/limaJavier/lecture-timetabling/internal/config"
	"github.com/limaJavier/lecture-timetabling/internal/middleware"
)

type contextKey struct{}

// Gin context key holding the fields appended to the access log line
const requestFieldsKey = "log_fields"

// New builds the process logger from the production or development preset, depending on the environment.
func New(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.Env == config.EnvProduction {
		zapCfg = zap.NewProductionConfig()
		zapCfg.Sampling = nil
	}

	zapCfg.Encoding = "json"
	if cfg.Log.Format == "console" {
		zapCfg.Encoding = "console"
	}
	zapCfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Log.Level, zapCfg.Level.Level()))
	zapCfg.EncoderConfig.TimeKey = "timestamp"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.InitialFields = map[string]any{"env": cfg.Env}

	return zapCfg.Build()
}

// Empty keeps the environment default, anything unparsable means info
func parseLevel(level string, fallback zapcore.Level) zapcore.Level {
	if level == "" {
		return fallback
	}
	parsed, err := zapcore.ParseLevel(level)
	if err != nil {
		return zapcore.InfoLevel
	}
	return parsed
}

// WithContext stores a request scoped logger in ctx.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored by WithContext, or fallback when there is none.
func FromContext(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := ctx.Value(contextKey{}).(*zap.Logger); ok {
		return l
	}
	return fallback
}

// AddFields attaches fields to the access log line of the current request.
func AddFields(c *gin.Context, fields ...zap.Field) {
	existing, _ := c.Get(requestFieldsKey)
	current, _ := existing.([]zap.Field)
	c.Set(requestFieldsKey, append(current, fields...))
}

// GinMiddleware hands a request scoped logger to the handlers and writes one access line per request,
// at error level for 5xx and warn level for 4xx.
func GinMiddleware(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestLogger := l
		if reqID := middleware.RequestID(c); reqID != "" {
			requestLogger = l.With(zap.String("request_id", reqID))
		}
		c.Request = c.Request.WithContext(WithContext(c.Request.Context(), requestLogger))

		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		}
		if extra, ok := c.Get(requestFieldsKey); ok {
			fields = append(fields, extra.([]zap.Field)...)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case status >= http.StatusInternalServerError:
			requestLogger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			requestLogger.Warn("http_request", fields...)
		default:
			requestLogger.Info("http_request", fields...)
		}
	}
}

package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appErrors "github.com/limaJavier/lecture-timetabling/internal/errors"
	"github.com/limaJavier/lecture-timetabling/internal/logger"
	"github.com/limaJavier/lecture-timetabling/internal/response"
	"github.com/limaJavier/lecture-timetabling/internal/service"
	"github.com/limaJavier/lecture-timetabling/pkg/model"
)

type timetableGenerator interface {
	Generate(ctx context.Context, input model.ModelInput, strategy string) (*service.Result, error)
}

// TimetableHandler exposes the timetable generation endpoint.
type TimetableHandler struct {
	service timetableGenerator
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc *service.TimetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// Generate handles POST /generate-timetable. The optional strategy query parameter overrides the configured one.
func (h *TimetableHandler) Generate(c *gin.Context) {
	var payload map[string]any
	if err := c.ShouldBindJSON(&payload); err != nil {
		if errors.Is(err, io.EOF) {
			response.Error(c, appErrors.ErrInputEmpty)
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return
	}

	raw, err := model.DecodeRawInput(payload)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		return
	}

	input, err := model.ProcessRawInput(raw)
	if err != nil {
		var validationErr *model.ValidationError
		switch {
		case errors.Is(err, model.ErrEmptyInput):
			response.Error(c, appErrors.ErrInputEmpty)
		case errors.As(err, &validationErr):
			response.Error(c, appErrors.WithCause(appErrors.ErrValidation, err, validationErr.Errors))
		default:
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid timetable payload"))
		}
		return
	}

	result, err := h.service.Generate(c.Request.Context(), input, c.Query("strategy"))
	if err != nil {
		response.Error(c, err)
		return
	}

	logger.AddFields(c,
		zap.String("strategy", string(result.Strategy)),
		zap.Bool("satisfiable", result.Satisfiable),
		zap.Bool("fallback", result.FellBack),
	)

	meta := map[string]any{
		"satisfiable": result.Satisfiable,
		"strategy":    result.Strategy,
		"complete":    result.Complete,
		"fitness":     result.Fitness,
		"fallback":    result.FellBack,
		"duration_ms": result.Duration.Milliseconds(),
	}
	if !result.Satisfiable {
		response.JSON(c, http.StatusOK, nil, meta)
		return
	}
	response.JSON(c, http.StatusOK, result.Schedule, meta)
}

package response

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/limaJavier/lecture-timetabling/internal/errors"
)

// Envelope represents the common response contract.
type Envelope struct {
	Data  any              `json:"data"`
	Error *appErrors.Error `json:"error,omitempty"`
	Meta  map[string]any   `json:"meta,omitempty"`
}

// JSON sends a success response with optional metadata.
func JSON(c *gin.Context, status int, data any, meta ...map[string]any) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	envelope := Envelope{Data: data}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

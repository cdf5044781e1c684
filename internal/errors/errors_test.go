package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromError(t *testing.T) {
	t.Run("Nil stays nil", func(t *testing.T) {
		assert.Nil(t, FromError(nil))
	})

	t.Run("Typed error is kept", func(t *testing.T) {
		err := fmt.Errorf("generate: %w", ErrTimeout)

		appErr := FromError(err)

		assert.Equal(t, ErrTimeout, appErr)
	})

	t.Run("Unknown error becomes internal", func(t *testing.T) {
		cause := stdErrors.New("boom")

		appErr := FromError(cause)

		assert.Equal(t, ErrInternal.Code, appErr.Code)
		assert.Equal(t, http.StatusInternalServerError, appErr.Status)
		assert.ErrorIs(t, appErr, cause)
	})
}

func TestCloneAndWithCause(t *testing.T) {
	clone := Clone(ErrValidation, "bad course")
	assert.Equal(t, "bad course", clone.Message)
	assert.Equal(t, "validation failed", ErrValidation.Message)

	cause := stdErrors.New("duration must be positive")
	detailed := WithCause(ErrValidation, cause, []string{"Courses[0].Duration"})
	assert.Equal(t, "validation failed: duration must be positive", detailed.Error())
	assert.Equal(t, []string{"Courses[0].Duration"}, detailed.Details)
	assert.Nil(t, ErrValidation.Details)

	assert.Nil(t, Clone(nil, "x"))
	assert.Equal(t, "<nil>", (*Error)(nil).Error())
}

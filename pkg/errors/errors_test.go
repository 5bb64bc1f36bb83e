package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_ErrorString(t *testing.T) {
	err := NewNotFoundError("laboratory not found")
	assert.Equal(t, "NOT_FOUND: laboratory not found", err.Error())

	wrapped := NewInternalError("query failed", errors.New("connection reset"))
	assert.Equal(t, "INTERNAL: query failed: connection reset", wrapped.Error())
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewInternalError("query failed", cause)
	assert.ErrorIs(t, err, cause)
}

func TestIsType(t *testing.T) {
	assert.True(t, IsType(NewValidationError("bad input"), ErrorTypeValidation))
	assert.False(t, IsType(NewValidationError("bad input"), ErrorTypeNotFound))
	assert.False(t, IsType(errors.New("plain"), ErrorTypeValidation))
	assert.False(t, IsType(nil, ErrorTypeValidation))
}

func TestIsNotFound_SeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("loading laboratory: %w", NewNotFoundError("missing"))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsNotFound(errors.New("other")))
}

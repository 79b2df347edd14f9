package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructorsSetCodes(t *testing.T) {
	cause := errors.New("boom")

	cases := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{"validation", Validation("bad input", cause), ErrValidation},
		{"not found", NotFound("patient", cause), ErrNotFound},
		{"conflict", Conflict("already booked", cause), ErrConflict},
		{"storage", Storage(cause), ErrStorage},
		{"unauthorized", Unauthorized(cause), ErrUnauthorized},
		{"forbidden", Forbidden("not your visit"), ErrForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.code, tc.err.Code)
			assert.True(t, IsCode(tc.err, tc.code))
		})
	}
}

func TestNotFoundMessage(t *testing.T) {
	err := NotFound("appointment", nil)
	assert.Equal(t, "appointment not found", err.Message)
}

func TestStorageHidesCause(t *testing.T) {
	cause := errors.New("pq: connection refused")
	err := Storage(cause)

	assert.Equal(t, "storage failure", err.Message)
	assert.ErrorIs(t, err, cause)
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("row missing")
	err := NotFound("bill", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Unwrap())
}

func TestAsAppErrorThroughWrapping(t *testing.T) {
	inner := Conflict("slot is no longer available", nil)
	wrapped := fmt.Errorf("booking failed: %w", inner)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrConflict, appErr.Code)
	assert.True(t, IsCode(wrapped, ErrConflict))
}

func TestAsAppErrorPlainError(t *testing.T) {
	_, ok := AsAppError(errors.New("plain"))
	assert.False(t, ok)
	assert.False(t, IsCode(errors.New("plain"), ErrConflict))
	assert.False(t, IsCode(nil, ErrConflict))
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "not your visit", Forbidden("not your visit").Error())

	withCause := Validation("invalid slot date", errors.New("parse failure"))
	assert.Equal(t, "invalid slot date: parse failure", withCause.Error())
}

package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessage(t *testing.T) {
	cause := stderrors.New("connection reset")

	assert.Equal(t, "Invalid request parameters", Validation("Invalid request parameters").Error())
	assert.Equal(t, "connection reset", Upstream(cause).Error())
	assert.Equal(t, "connection reset", (&Error{Type: ErrorTypeNetwork, Err: cause}).Error())
	assert.Contains(t, Wrap(ErrorTypeNetwork, cause, "dial failed").Detail(), "network error")
}

func TestTypeOf(t *testing.T) {
	wrapped := fmt.Errorf("fetching: %w", Auth(nil, "bad cookies"))

	assert.Equal(t, ErrorTypeAuth, TypeOf(wrapped))
	assert.Equal(t, ErrorTypeUnknown, TypeOf(stderrors.New("plain")))
	assert.True(t, Is(wrapped, ErrorTypeAuth))
	assert.False(t, Is(nil, ErrorTypeAuth))
}

func TestUnwrap(t *testing.T) {
	err := Wrap(ErrorTypeCancelled, context.Canceled, "stream cancelled")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      bool
	}{
		{ErrorTypeNetwork, true},
		{ErrorTypeRateLimit, true},
		{ErrorTypeServerError, true},
		{ErrorTypeAuth, false},
		{ErrorTypeValidation, false},
		{ErrorTypeUnsupported, false},
		{ErrorTypeUnknown, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.errorType))
		})
	}
}

func TestFromStatusCode(t *testing.T) {
	assert.Equal(t, ErrorTypeRateLimit, FromStatusCode(429, "slow down").Type)
	assert.Equal(t, ErrorTypeAuth, FromStatusCode(403, "forbidden").Type)
	assert.Equal(t, ErrorTypeServerError, FromStatusCode(503, "unavailable").Type)
	assert.Equal(t, ErrorTypeValidation, FromStatusCode(400, "bad").Type)
	assert.True(t, IsRetryableStatusCode(502))
	assert.False(t, IsRetryableStatusCode(404))
}

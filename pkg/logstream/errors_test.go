package logstream

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name:     "server error with body",
			err:      NewServerError(500, "internal failure"),
			expected: "server error (status 500): internal failure",
		},
		{
			name:     "server error without body",
			err:      NewServerError(502, ""),
			expected: "server error (status 502)",
		},
		{
			name:     "unauthorized",
			err:      NewUnauthorizedError(),
			expected: "unauthorized: check the username and password for this connection",
		},
		{
			name:     "decoding",
			err:      NewDecodingError("unexpected format for retention", nil),
			expected: "decoding error: unexpected format for retention",
		},
		{
			name:     "invalid URL with cause",
			err:      NewInvalidURLError("::", errors.New("missing protocol scheme")),
			expected: `invalid URL: "::": missing protocol scheme`,
		},
		{
			name:     "not connected",
			err:      &Error{Kind: KindNotConnected},
			expected: "not connected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.err.Error())
		})
	}
}

func TestError_Is(t *testing.T) {
	notFound := fmt.Errorf("getting schema: %w", NewServerError(404, "stream not found"))

	assert.ErrorIs(t, notFound, ErrServerError)
	assert.ErrorIs(t, notFound, ErrNotFound)
	assert.NotErrorIs(t, notFound, ErrUnauthorized)
	assert.True(t, IsNotFound(notFound))
	assert.True(t, IsServerError(notFound))
	assert.Equal(t, 404, StatusCode(notFound))

	conflict := NewServerError(409, "exists")
	assert.False(t, IsNotFound(conflict))
	assert.True(t, IsServerError(conflict))
}

func TestError_UnauthorizedIsNeverServerError(t *testing.T) {
	err := NewUnauthorizedError()

	assert.True(t, IsUnauthorized(err))
	assert.False(t, IsServerError(err))
	assert.Equal(t, 401, StatusCode(err))
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("unexpected EOF")
	err := NewInvalidResponseError(cause)

	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrInvalidResponse)
}

func TestStatusCode_NonAPIError(t *testing.T) {
	assert.Equal(t, 0, StatusCode(errors.New("plain")))
	assert.Equal(t, 0, StatusCode(nil))
}

func TestErrorKind_String(t *testing.T) {
	assert.Equal(t, "invalid URL", KindInvalidURL.String())
	assert.Equal(t, "invalid response", KindInvalidResponse.String())
	assert.Equal(t, "unknown error", ErrorKind(0).String())
}

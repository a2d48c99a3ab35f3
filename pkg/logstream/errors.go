package logstream

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies every failure the client reports.
type ErrorKind int

const (
	// KindInvalidURL means the base URL, path, or query could not form an absolute URL.
	KindInvalidURL ErrorKind = iota + 1
	// KindInvalidResponse means the transport did not yield a classifiable HTTP response.
	KindInvalidResponse
	// KindServerError is any non-2xx status other than 401.
	KindServerError
	// KindDecodingError means the body matched none of the accepted payload shapes.
	KindDecodingError
	// KindNotConnected is reserved for callers without an active connection.
	KindNotConnected
	// KindUnauthorized is an HTTP 401 from any endpoint.
	KindUnauthorized
)

// String implements fmt.Stringer.
func (k ErrorKind) String() string {
	switch k {
	case KindInvalidURL:
		return "invalid URL"
	case KindInvalidResponse:
		return "invalid response"
	case KindServerError:
		return "server error"
	case KindDecodingError:
		return "decoding error"
	case KindNotConnected:
		return "not connected"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "unknown error"
	}
}

// Error is the typed error returned by every client operation.
type Error struct {
	Kind ErrorKind
	// StatusCode is set for KindServerError and KindUnauthorized.
	StatusCode int
	// Message is the response body text for server errors and the reason for
	// decoding errors.
	Message string
	// Err is the underlying cause, if any.
	Err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var msg string

	switch e.Kind {
	case KindServerError:
		msg = fmt.Sprintf("server error (status %d)", e.StatusCode)
		if e.Message != "" {
			msg += ": " + e.Message
		}
	case KindUnauthorized:
		msg = "unauthorized: check the username and password for this connection"
	default:
		msg = e.Kind.String()
		if e.Message != "" {
			msg += ": " + e.Message
		}
	}

	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}

	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same kind. A target with a zero
// StatusCode matches any status, so the package sentinels work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.Kind != e.Kind {
		return false
	}

	return t.StatusCode == 0 || t.StatusCode == e.StatusCode
}

// Sentinels for use with errors.Is.
var (
	ErrInvalidURL      = &Error{Kind: KindInvalidURL}
	ErrInvalidResponse = &Error{Kind: KindInvalidResponse}
	ErrServerError     = &Error{Kind: KindServerError}
	ErrDecoding        = &Error{Kind: KindDecodingError}
	ErrNotConnected    = &Error{Kind: KindNotConnected}
	ErrUnauthorized    = &Error{Kind: KindUnauthorized}
	ErrNotFound        = &Error{Kind: KindServerError, StatusCode: http.StatusNotFound}
)

// Static errors for err113 compliance.
var (
	ErrConfigRequired        = errors.New("config is required")
	ErrBaseURLRequired       = errors.New("base URL is required")
	ErrClientClosed          = errors.New("client is closed")
	ErrCacheKeyNotFound      = errors.New("key not found")
	ErrCacheEntryExpired     = errors.New("entry expired")
	ErrCacheDisabled         = errors.New("cache disabled")
	ErrKeyNotFoundInAnyCache = errors.New("key not found in any cache")
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS cache")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
)

// Argument validation errors, returned before any request is sent.
var (
	ErrStreamNameRequired = errors.New("stream name is required")
	ErrFilterIDRequired   = errors.New("filter id is required")
	ErrQueryRequired      = errors.New("query is required")
	ErrInvalidTimeRange   = errors.New("start time must be before end time")
)

// NewServerError builds a KindServerError for the given status and body text.
func NewServerError(statusCode int, message string) *Error {
	return &Error{Kind: KindServerError, StatusCode: statusCode, Message: message}
}

// NewUnauthorizedError builds a KindUnauthorized error.
func NewUnauthorizedError() *Error {
	return &Error{Kind: KindUnauthorized, StatusCode: http.StatusUnauthorized}
}

// NewDecodingError builds a KindDecodingError with a human-readable reason.
func NewDecodingError(reason string, cause error) *Error {
	return &Error{Kind: KindDecodingError, Message: reason, Err: cause}
}

// NewInvalidURLError builds a KindInvalidURL error for the offending input.
func NewInvalidURLError(raw string, cause error) *Error {
	return &Error{Kind: KindInvalidURL, Message: fmt.Sprintf("%q", raw), Err: cause}
}

// NewInvalidResponseError builds a KindInvalidResponse error.
func NewInvalidResponseError(cause error) *Error {
	return &Error{Kind: KindInvalidResponse, Err: cause}
}

// IsNotFound reports whether err is a server error with status 404.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsUnauthorized reports whether err is an HTTP 401.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsServerError reports whether err is any non-401 HTTP failure.
func IsServerError(err error) bool {
	return errors.Is(err, ErrServerError)
}

// IsDecodingError reports whether err is a payload shape mismatch.
func IsDecodingError(err error) bool {
	return errors.Is(err, ErrDecoding)
}

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	apiErr := &Error{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}

	return 0
}

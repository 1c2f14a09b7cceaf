package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the category of a failure crossing a package boundary
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeAuth        ErrorType = "auth"
	ErrorTypeUpstream    ErrorType = "upstream"
	ErrorTypeNetwork     ErrorType = "network"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeParsing     ErrorType = "parsing"
	ErrorTypeCancelled   ErrorType = "cancelled"
	ErrorTypeUnsupported ErrorType = "unsupported"
	ErrorTypeServerError ErrorType = "server_error"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error is a typed error carrying an optional HTTP status code and cause
type Error struct {
	Type    ErrorType
	Message string
	Code    int
	Err     error
}

// Error returns only the human readable message, since it is what ends up
// in error events and API responses.
func (e *Error) Error() string {
	if e.Message == "" && e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap exposes the underlying cause
func (e *Error) Unwrap() error {
	return e.Err
}

// Detail renders the type, code and cause for logs
func (e *Error) Detail() string {
	if e.Err != nil {
		return fmt.Sprintf("%s error (code %d): %s: %v", e.Type, e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s error (code %d): %s", e.Type, e.Code, e.Message)
}

// New creates a typed error
func New(errorType ErrorType, message string) *Error {
	return &Error{Type: errorType, Message: message}
}

// Wrap creates a typed error around a cause
func Wrap(errorType ErrorType, err error, message string) *Error {
	return &Error{Type: errorType, Message: message, Err: err}
}

// WithCode sets the HTTP status code associated with the error
func (e *Error) WithCode(code int) *Error {
	e.Code = code
	return e
}

// Validation creates a validation error
func Validation(message string) *Error {
	return &Error{Type: ErrorTypeValidation, Message: message, Code: 400}
}

// Auth wraps an authentication or session failure
func Auth(err error, message string) *Error {
	return &Error{Type: ErrorTypeAuth, Message: message, Code: 401, Err: err}
}

// Upstream wraps a failure raised by the external scraper
func Upstream(err error) *Error {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return &Error{Type: ErrorTypeUpstream, Message: msg, Code: 502, Err: err}
}

// Unsupported reports a capability the backing library does not offer
func Unsupported(capability string) *Error {
	return &Error{
		Type:    ErrorTypeUnsupported,
		Message: fmt.Sprintf("%s is not supported by this scraper", capability),
		Code:    501,
	}
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown when err is not typed
func TypeOf(err error) ErrorType {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// Is reports whether err is a typed error of the given type
func Is(err error, errorType ErrorType) bool {
	return err != nil && TypeOf(err) == errorType
}

// IsRetryable checks if an error type should be retried
func IsRetryable(errorType ErrorType) bool {
	switch errorType {
	case ErrorTypeNetwork, ErrorTypeRateLimit, ErrorTypeServerError:
		return true
	case ErrorTypeAuth, ErrorTypeValidation, ErrorTypeParsing, ErrorTypeUnsupported, ErrorTypeCancelled:
		return false
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429:
		return true
	case 500, 502, 503, 504:
		return true
	case 401, 403, 404:
		return false
	default:
		return statusCode >= 500
	}
}

// FromStatusCode maps an HTTP status to a typed error
func FromStatusCode(statusCode int, message string) *Error {
	var t ErrorType
	switch {
	case statusCode == 429:
		t = ErrorTypeRateLimit
	case statusCode == 401 || statusCode == 403:
		t = ErrorTypeAuth
	case statusCode >= 500:
		t = ErrorTypeServerError
	case statusCode >= 400:
		t = ErrorTypeValidation
	default:
		t = ErrorTypeUnknown
	}
	return &Error{Type: t, Message: message, Code: statusCode}
}

package client

import (
	"errors"
	"fmt"
)

// ErrorType categorizes analysis service errors
type ErrorType string

const (
	// ErrTypeTimeout indicates the request exceeded its deadline
	ErrTypeTimeout ErrorType = "timeout"

	// ErrTypeNetwork indicates the service could not be reached
	ErrTypeNetwork ErrorType = "network"

	// ErrTypeProvider indicates an unexpected HTTP status without a usable body
	ErrTypeProvider ErrorType = "provider"

	// ErrTypeDecode indicates a response body that is not the expected JSON
	ErrTypeDecode ErrorType = "decode"

	// ErrTypeInternal indicates the request could not be built
	ErrTypeInternal ErrorType = "internal"

	// ErrTypeConfiguration indicates invalid client configuration
	ErrTypeConfiguration ErrorType = "configuration"
)

// Error is returned by every client call that fails before a response body
// could be decoded
type Error struct {
	Type       ErrorType
	Message    string
	Endpoint   string
	StatusCode int
	Cause      error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches errors of the same type
func (e *Error) Is(target error) bool {
	if ce, ok := target.(*Error); ok {
		return e.Type == ce.Type
	}
	return false
}

// Timeout reports whether the request timed out
func (e *Error) Timeout() bool {
	return e.Type == ErrTypeTimeout
}

// NewError creates a client error
func NewError(errType ErrorType, message, endpoint string) *Error {
	return &Error{Type: errType, Message: message, Endpoint: endpoint}
}

// NewErrorWithCause creates a client error with an underlying cause
func NewErrorWithCause(errType ErrorType, message, endpoint string, cause error) *Error {
	return &Error{Type: errType, Message: message, Endpoint: endpoint, Cause: cause}
}

// IsTimeout checks if an error is a client timeout
func IsTimeout(err error) bool {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Type == ErrTypeTimeout
	}
	return false
}

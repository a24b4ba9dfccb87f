package tts

import (
	"context"
	"errors"
	"fmt"
)

// Common TTS errors
var (
	// ErrEmptyText indicates there is nothing to convert
	ErrEmptyText = errors.New("no text to convert")

	// ErrMissingCredential indicates no API key was supplied or persisted
	ErrMissingCredential = errors.New("no API key - pass --api-key or set NARRATE_API_KEY")

	// ErrCanceled indicates an operation was canceled
	ErrCanceled = errors.New("operation canceled")
)

// TTSError represents a TTS-specific error with additional context
type TTSError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *TTSError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *TTSError) Unwrap() error {
	return e.Cause
}

// ErrorCode identifies specific error types
type ErrorCode string

const (
	// Transport errors
	ErrorCodeNetworkFailure ErrorCode = "NETWORK_FAILURE"

	// Input errors
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"

	// System errors
	ErrorCodeCanceled ErrorCode = "CANCELED"
)

// NewTTSError creates a new TTS error with context
func NewTTSError(code ErrorCode, message string, cause error) *TTSError {
	return &TTSError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *TTSError) WithContext(key string, value interface{}) *TTSError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsRetryable returns true if running the operation again may succeed.
// Chunks cached before the failure are not fetched again.
func (e *TTSError) IsRetryable() bool {
	return e.Code == ErrorCodeNetworkFailure
}

// canceled wraps a context error as a CANCELED TTSError that also matches
// ErrCanceled.
func canceled(err error) *TTSError {
	return NewTTSError(ErrorCodeCanceled, "conversion canceled", errors.Join(ErrCanceled, err))
}

// isContextErr reports whether err stems from context cancellation or deadline.
func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

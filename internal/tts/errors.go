package tts

import (
	"errors"
	"fmt"
)

// Common TTS errors
var (
	// ErrNoEngineConfigured indicates no speech engine has been selected
	ErrNoEngineConfigured = errors.New("no speech engine configured - specify --engine coqui, piper or espeak")

	// ErrEngineNotAvailable indicates the selected engine is not installed
	ErrEngineNotAvailable = errors.New("selected speech engine is not available")

	// ErrInvalidEngine indicates an unknown engine was specified
	ErrInvalidEngine = errors.New("invalid speech engine specified")

	// ErrGenerationFailed indicates the engine failed or produced no audio
	ErrGenerationFailed = errors.New("speech generation failed")

	// ErrStorageFailed indicates the audio cache could not be written
	ErrStorageFailed = errors.New("audio cache storage failed")

	// ErrEmptyText indicates there was nothing to synthesize
	ErrEmptyText = errors.New("text cannot be empty")
)

// Error represents a TTS-specific error with additional context
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target is the sentinel error for this error's code, so
// callers can use errors.Is(err, ErrGenerationFailed).
func (e *Error) Is(target error) bool {
	switch e.Code {
	case ErrorCodeGenerationFailed:
		return target == ErrGenerationFailed
	case ErrorCodeStorageFailed:
		return target == ErrStorageFailed
	case ErrorCodeEngineUnavailable:
		return target == ErrEngineNotAvailable
	case ErrorCodeInvalidInput:
		return target == ErrEmptyText
	default:
		return false
	}
}

// ErrorCode identifies specific error types
type ErrorCode string

const (
	// Engine errors
	ErrorCodeGenerationFailed  ErrorCode = "GENERATION_FAILED"
	ErrorCodeEngineUnavailable ErrorCode = "ENGINE_UNAVAILABLE"

	// Cache errors
	ErrorCodeStorageFailed ErrorCode = "STORAGE_FAILED"

	// Input errors
	ErrorCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// NewError creates a new TTS error with context
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error
func (e *Error) WithContext(key string, value interface{}) *Error {
	e.Context[key] = value
	return e
}

// IsRetryable returns true if a later call may succeed. Nothing retries
// automatically; this only tells the caller whether asking again makes sense.
func (e *Error) IsRetryable() bool {
	switch e.Code {
	case ErrorCodeGenerationFailed:
		return true
	default:
		return false
	}
}

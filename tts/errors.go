package tts

import (
	"errors"
	"fmt"
)

// Common errors for the speech provider.
var (
	// Configuration errors
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrMissingConfig       = errors.New("required configuration missing")
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// Input errors
	ErrEmptyText = errors.New("empty text provided")

	// Request errors
	ErrTransport   = errors.New("speech server unreachable")
	ErrBadResponse = errors.New("speech server returned an error status")
	ErrUnexpected  = errors.New("unexpected speech request failure")
)

// ErrorCode identifies specific error types.
type ErrorCode string

const (
	// ErrorCodeTransport covers connection, DNS, timeout and body-read failures.
	ErrorCodeTransport ErrorCode = "TRANSPORT"
	// ErrorCodeBadResponse covers any non-200 status from the server.
	ErrorCodeBadResponse ErrorCode = "BAD_RESPONSE"
	// ErrorCodeUnexpected covers everything else that went wrong during a call.
	ErrorCodeUnexpected ErrorCode = "UNEXPECTED"

	ErrorCodeInvalidConfig ErrorCode = "INVALID_CONFIG"
	ErrorCodeInvalidInput  ErrorCode = "INVALID_INPUT"
)

// sentinel maps each code to the error errors.Is matches against.
var sentinel = map[ErrorCode]error{
	ErrorCodeTransport:     ErrTransport,
	ErrorCodeBadResponse:   ErrBadResponse,
	ErrorCodeUnexpected:    ErrUnexpected,
	ErrorCodeInvalidConfig: ErrInvalidConfig,
	ErrorCodeInvalidInput:  ErrEmptyText,
}

// TTSError represents a speech error with additional context.
type TTSError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *TTSError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *TTSError) Unwrap() error {
	return e.Cause
}

// Is matches the sentinel error that belongs to the error code.
func (e *TTSError) Is(target error) bool {
	s, ok := sentinel[e.Code]
	return ok && s == target
}

// NewTTSError creates a new TTS error with context.
func NewTTSError(code ErrorCode, message string, cause error) *TTSError {
	return &TTSError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds context to the error.
func (e *TTSError) WithContext(key string, value interface{}) *TTSError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// IsTransport reports whether err is a transport-level failure.
func IsTransport(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsBadResponse reports whether err is a non-200 server response.
func IsBadResponse(err error) bool {
	return errors.Is(err, ErrBadResponse)
}

// IsUnexpected reports whether err is neither a transport nor a status failure.
func IsUnexpected(err error) bool {
	return errors.Is(err, ErrUnexpected)
}

// StatusCode returns the HTTP status recorded on a BAD_RESPONSE error, or 0.
func StatusCode(err error) int {
	var te *TTSError
	if !errors.As(err, &te) || te.Code != ErrorCodeBadResponse {
		return 0
	}
	status, _ := te.Context["status"].(int)
	return status
}

// Package errors provides typed error definitions for devmanager.
// Errors carry a code so callers can classify failures (configuration,
// execution, timeout, parse) without matching on message text.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique identifier for different error types
type ErrorCode string

const (
	// Configuration errors
	ErrConfigNotFound   ErrorCode = "CONFIG_NOT_FOUND"
	ErrConfigInvalid    ErrorCode = "CONFIG_INVALID"
	ErrConfigParse      ErrorCode = "CONFIG_PARSE"
	ErrConfigValidation ErrorCode = "CONFIG_VALIDATION"

	// Command execution errors
	ErrExecution     ErrorCode = "EXECUTION"
	ErrCommandFailed ErrorCode = "COMMAND_FAILED"
	ErrTimeout       ErrorCode = "TIMEOUT"
	ErrCancelled     ErrorCode = "CANCELLED"

	// Probe output errors
	ErrParse ErrorCode = "PARSE"

	// Service errors
	ErrServiceNotFound ErrorCode = "SERVICE_NOT_FOUND"

	// Request errors
	ErrInvalidInput ErrorCode = "INVALID_INPUT"

	// Internal errors
	ErrInternal ErrorCode = "INTERNAL_ERROR"
)

// DevError represents a structured error with additional context
type DevError struct {
	Code    ErrorCode              `json:"code"`
	Message string                 `json:"message"`
	Details string                 `json:"details,omitempty"`
	Cause   error                  `json:"-"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// Error implements the error interface
func (e *DevError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause error
func (e *DevError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *DevError) WithContext(key string, value interface{}) *DevError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// GetHTTPStatus returns the appropriate HTTP status code for this error
func (e *DevError) GetHTTPStatus() int {
	switch e.Code {
	case ErrConfigNotFound, ErrServiceNotFound:
		return http.StatusNotFound
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrCommandFailed, ErrExecution:
		return http.StatusBadGateway
	case ErrTimeout:
		return http.StatusGatewayTimeout
	case ErrCancelled:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// New creates a new DevError
func New(code ErrorCode, message string) *DevError {
	return &DevError{
		Code:    code,
		Message: message,
	}
}

// NewWithDetails creates a new DevError with details
func NewWithDetails(code ErrorCode, message, details string) *DevError {
	return &DevError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

// Wrap creates a new DevError that wraps an existing error
func Wrap(code ErrorCode, message string, cause error) *DevError {
	return &DevError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapWithDetails creates a new DevError with details that wraps an existing error
func WrapWithDetails(code ErrorCode, message, details string, cause error) *DevError {
	return &DevError{
		Code:    code,
		Message: message,
		Details: details,
		Cause:   cause,
	}
}

// As finds the first DevError in err's chain
func As(err error) (*DevError, bool) {
	var de *DevError
	if stderrors.As(err, &de) {
		return de, true
	}
	return nil, false
}

// GetCode extracts the error code from the first DevError in err's chain
func GetCode(err error) ErrorCode {
	if de, ok := As(err); ok {
		return de.Code
	}
	return ""
}

// HasCode checks if an error has a specific error code
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// IsConfigurationError reports whether err is one of the configuration codes
func IsConfigurationError(err error) bool {
	switch GetCode(err) {
	case ErrConfigNotFound, ErrConfigInvalid, ErrConfigParse, ErrConfigValidation:
		return true
	}
	return false
}

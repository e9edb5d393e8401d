package errors

import (
	"fmt"
	"time"

	"devmanager/internal/constants"
)

// Configuration Errors
func ConfigNotFound(path string) *DevError {
	return NewWithDetails(ErrConfigNotFound, "Configuration file not found", fmt.Sprintf("Path: %s", path))
}

func ConfigInvalid(reason string) *DevError {
	return NewWithDetails(ErrConfigInvalid, "Invalid configuration", reason)
}

func ConfigParseError(path string, cause error) *DevError {
	return WrapWithDetails(ErrConfigParse, "Failed to parse configuration", fmt.Sprintf("Path: %s", path), cause)
}

func ConfigValidationError(field, reason string) *DevError {
	return NewWithDetails(ErrConfigValidation, "Configuration validation failed",
		fmt.Sprintf("Field: %s, Reason: %s", field, reason))
}

// Execution Errors
func ExecutionFailed(command string, cause error) *DevError {
	return WrapWithDetails(ErrExecution, "Failed to launch command",
		fmt.Sprintf("Command: %s", Truncate(command)), cause)
}

func CommandTimeout(command string, timeout time.Duration) *DevError {
	return NewWithDetails(ErrTimeout, "Command timed out",
		fmt.Sprintf("Command: %s, Timeout: %s", Truncate(command), timeout))
}

func CommandCancelled(command string, cause error) *DevError {
	return WrapWithDetails(ErrCancelled, "Command cancelled",
		fmt.Sprintf("Command: %s", Truncate(command)), cause)
}

func CommandFailed(service, action string, exitCode int, output string) *DevError {
	return NewWithDetails(ErrCommandFailed, fmt.Sprintf("%s command failed", action),
		fmt.Sprintf("Service: %s, Exit code: %d", service, exitCode)).
		WithContext("exit_code", exitCode).
		WithContext("output", Truncate(output))
}

// Parse Errors
func ParseError(source, reason string) *DevError {
	return NewWithDetails(ErrParse, "Failed to parse command output",
		fmt.Sprintf("Source: %s, Reason: %s", source, reason))
}

// Service Errors
func ServiceNotFound(name string) *DevError {
	return NewWithDetails(ErrServiceNotFound, "Service not found", fmt.Sprintf("Service: %s", name))
}

func PassCancelled(cause error) *DevError {
	return Wrap(ErrCancelled, "Polling pass superseded", cause)
}

// Validation Errors
func InvalidInput(input, expected string) *DevError {
	return NewWithDetails(ErrInvalidInput, "Invalid input",
		fmt.Sprintf("Input: %s, Expected: %s", input, expected))
}

// Truncate shortens command text and output for error details and logs
func Truncate(s string) string {
	if len(s) <= constants.MaxLoggedOutput {
		return s
	}
	return s[:constants.MaxLoggedOutput] + "..."
}

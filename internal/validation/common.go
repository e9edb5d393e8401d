package validation

import (
	"net/url"
	"regexp"
	"strings"

	"devmanager/internal/errors"
)

var (
	// identifierRegex validates service ids, profile names and container filters
	identifierRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)

	// shellCommandRegex validates shell paths
	shellCommandRegex = regexp.MustCompile(`^(/usr)?(/local)?/bin/(bash|sh|zsh|dash)$`)

	// safeStringRegex matches strings that are safe for shell use without escaping
	safeStringRegex = regexp.MustCompile(`^[a-zA-Z0-9_\-./=]+$`)
)

// Identifier validates a service id or similar name used in commands and URLs
func Identifier(field, id string) error {
	if id == "" {
		return errors.ConfigValidationError(field, "cannot be empty")
	}
	if len(id) > 255 {
		return errors.ConfigValidationError(field, "too long (max 255 characters)")
	}
	if !identifierRegex.MatchString(id) {
		return errors.ConfigValidationError(field, "must start with a letter or digit and contain only letters, digits, '_', '.', '-'")
	}
	return nil
}

// ShellCommand validates a shell path
func ShellCommand(shell string) error {
	if shell == "" {
		return nil // Empty means default shell
	}
	if !shellCommandRegex.MatchString(shell) {
		return errors.ConfigValidationError("shell", "must be a shell path such as /bin/bash or /bin/sh")
	}
	return nil
}

// PortNumber validates a single port number
func PortNumber(field string, port int) error {
	if port <= 0 || port > 65535 {
		return errors.ConfigValidationError(field, "must be between 1 and 65535")
	}
	return nil
}

// StatusCode validates an HTTP status code
func StatusCode(field string, code int) error {
	if code < 100 || code > 599 {
		return errors.ConfigValidationError(field, "must be an HTTP status code between 100 and 599")
	}
	return nil
}

// EndpointURL validates an absolute http(s) URL
func EndpointURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return errors.ConfigValidationError(field, "invalid URL: "+err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.ConfigValidationError(field, "scheme must be http or https")
	}
	if u.Host == "" {
		return errors.ConfigValidationError(field, "host cannot be empty")
	}
	return nil
}

// NonNegative validates counts and durations given in seconds
func NonNegative(field string, n int) error {
	if n < 0 {
		return errors.ConfigValidationError(field, "cannot be negative")
	}
	return nil
}

// Pattern validates a regular expression
func Pattern(field, expr string) error {
	if _, err := regexp.Compile(expr); err != nil {
		return errors.ConfigValidationError(field, "invalid pattern: "+err.Error())
	}
	return nil
}

// NonEmptyString validates that a string is not empty or only whitespace
func NonEmptyString(field, s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.ConfigValidationError(field, "cannot be empty or only whitespace")
	}
	return nil
}

// ShellEscape escapes a string for safe use in shell commands
func ShellEscape(s string) string {
	if safeStringRegex.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", "'\"'\"'") + "'"
}

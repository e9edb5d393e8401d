package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDevError_Error(t *testing.T) {
	err := NewWithDetails(ErrConfigInvalid, "Invalid configuration", "no services")
	assert.Equal(t, "[CONFIG_INVALID] Invalid configuration: no services", err.Error())

	wrapped := Wrap(ErrExecution, "Failed to launch command", stderrors.New("no such file"))
	assert.Equal(t, "[EXECUTION] Failed to launch command: no such file", wrapped.Error())
}

func TestGetCode_WalksWrappedChain(t *testing.T) {
	base := CommandTimeout("sleep 10", time.Second)
	outer := fmt.Errorf("status probe: %w", base)

	assert.Equal(t, ErrTimeout, GetCode(outer))
	assert.True(t, HasCode(outer, ErrTimeout))
	assert.False(t, HasCode(outer, ErrExecution))
	assert.Equal(t, ErrorCode(""), GetCode(stderrors.New("plain")))
}

func TestIsConfigurationError(t *testing.T) {
	assert.True(t, IsConfigurationError(ConfigNotFound("/x")))
	assert.True(t, IsConfigurationError(ConfigParseError("/x", stderrors.New("bad"))))
	assert.True(t, IsConfigurationError(ConfigValidationError("services[0].id", "empty")))
	assert.True(t, IsConfigurationError(fmt.Errorf("load: %w", ConfigInvalid("x"))))
	assert.False(t, IsConfigurationError(ServiceNotFound("api")))
	assert.False(t, IsConfigurationError(nil))
}

func TestCommandFailed_CarriesExitCodeAndTruncatedOutput(t *testing.T) {
	err := CommandFailed("api", "start", 3, strings.Repeat("x", 500))

	assert.Equal(t, ErrCommandFailed, err.Code)
	assert.Equal(t, 3, err.Context["exit_code"])
	assert.Len(t, err.Context["output"], 203)
	assert.Contains(t, err.Error(), "Exit code: 3")
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrServiceNotFound, http.StatusNotFound},
		{ErrInvalidInput, http.StatusBadRequest},
		{ErrCommandFailed, http.StatusBadGateway},
		{ErrTimeout, http.StatusGatewayTimeout},
		{ErrCancelled, http.StatusConflict},
		{ErrInternal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, New(tt.code, "x").GetHTTPStatus())
		})
	}
}

func TestToHTTPError(t *testing.T) {
	httpErr, ok := ToHTTPError(fmt.Errorf("ctx: %w", ServiceNotFound("api"))).(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, httpErr.Code)
	body, ok := httpErr.Message.(HTTPErrorResponse)
	require.True(t, ok)
	assert.Equal(t, ErrServiceNotFound, body.Error.Code)

	httpErr, ok = ToHTTPError(stderrors.New("plain")).(*echo.HTTPError)
	require.True(t, ok)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Code)
}

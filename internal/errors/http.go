package errors

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// HTTPErrorResponse represents the structure of error responses sent to clients
type HTTPErrorResponse struct {
	Error   ErrorInfo              `json:"error"`
	Context map[string]interface{} `json:"context,omitempty"`
}

// ErrorInfo contains the core error information
type ErrorInfo struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// ToHTTPError converts an error to an Echo HTTP error
func ToHTTPError(err error) error {
	if de, ok := As(err); ok {
		return echo.NewHTTPError(de.GetHTTPStatus(), HTTPErrorResponse{
			Error: ErrorInfo{
				Code:    de.Code,
				Message: de.Message,
				Details: de.Details,
			},
			Context: de.Context,
		})
	}

	return echo.NewHTTPError(http.StatusInternalServerError, HTTPErrorResponse{
		Error: ErrorInfo{
			Code:    ErrInternal,
			Message: "Internal server error",
			Details: err.Error(),
		},
	})
}

package server

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/xid"

	"devmanager/internal/errors"
	"devmanager/internal/logger"
)

// generateRequestID generates a unique request ID
func generateRequestID() string {
	return xid.New().String()
}

// contextEnricher carries the request ID into the request context so logs
// written by the monitor and the dispatcher can be correlated
func contextEnricher() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			if reqID != "" {
				ctx := logger.ContextWithFields(c.Request().Context(), logger.Fields{"request_id": reqID})
				c.SetRequest(c.Request().WithContext(ctx))
			}
			return next(c)
		}
	}
}

// ErrorHandler renders every error as an errors.HTTPErrorResponse
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	he, ok := err.(*echo.HTTPError)
	if !ok {
		he, _ = errors.ToHTTPError(err).(*echo.HTTPError)
	}

	body, ok := he.Message.(errors.HTTPErrorResponse)
	if !ok {
		body = errors.HTTPErrorResponse{
			Error: errors.ErrorInfo{
				Code:    codeForStatus(he.Code),
				Message: http.StatusText(he.Code),
			},
		}
		if msg, isString := he.Message.(string); isString {
			body.Error.Message = msg
		}
	}

	if he.Code >= http.StatusInternalServerError {
		logger.GetLogger(c).WithError(err).Debug("Responding with server error")
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(he.Code)
		return
	}
	_ = c.JSON(he.Code, body)
}

func codeForStatus(status int) errors.ErrorCode {
	if status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		return errors.ErrInvalidInput
	}
	return errors.ErrInternal
}

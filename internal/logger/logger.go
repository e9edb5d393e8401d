package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/xid"
	"github.com/sirupsen/logrus"

	"devmanager/internal/constants"
)

// Logger is the global logger instance
var Logger *logrus.Logger

// Fields is an alias for logrus.Fields
type Fields = logrus.Fields

type ctxKey struct{}

// init initializes the global logger
func init() {
	Logger = logrus.New()
	// stdout belongs to command output
	Logger.SetOutput(os.Stderr)
	Logger.SetLevel(logrus.WarnLevel)

	// Use JSON formatter in production
	if os.Getenv(constants.EnvMode) == "production" {
		Logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
		})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
}

// SetLevel sets the logging level
func SetLevel(level string) {
	switch level {
	case "trace":
		Logger.SetLevel(logrus.TraceLevel)
	case "debug":
		Logger.SetLevel(logrus.DebugLevel)
	case "info":
		Logger.SetLevel(logrus.InfoLevel)
	case "warn":
		Logger.SetLevel(logrus.WarnLevel)
	case "error":
		Logger.SetLevel(logrus.ErrorLevel)
	default:
		Logger.SetLevel(logrus.WarnLevel)
	}
}

// SetOutput redirects log output
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

// ContextWithFields attaches fields that WithContext will add to every entry
func ContextWithFields(ctx context.Context, fields Fields) context.Context {
	merged := Fields{}
	if existing, ok := ctx.Value(ctxKey{}).(Fields); ok {
		for k, v := range existing {
			merged[k] = v
		}
	}
	for k, v := range fields {
		merged[k] = v
	}
	return context.WithValue(ctx, ctxKey{}, merged)
}

// WithContext returns a logger with context fields
func WithContext(ctx context.Context) *logrus.Entry {
	if fields, ok := ctx.Value(ctxKey{}).(Fields); ok {
		return Logger.WithContext(ctx).WithFields(fields)
	}
	return Logger.WithContext(ctx)
}

// WithFields returns a logger with additional fields
func WithFields(fields Fields) *logrus.Entry {
	return Logger.WithFields(fields)
}

// WithError adds an error field to the logger
func WithError(err error) *logrus.Entry {
	return Logger.WithError(err)
}

// WithField adds a field to the logger
func WithField(key string, value interface{}) *logrus.Entry {
	return Logger.WithField(key, value)
}

// Info logs an info message
func Info(msg string) {
	Logger.Info(msg)
}

// RequestLogger returns a middleware for logging HTTP requests
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			reqID := c.Response().Header().Get(echo.HeaderXRequestID)
			if reqID == "" {
				reqID = xid.New().String()
			}
			c.Set("request_id", reqID)

			reqLogger := Logger.WithFields(Fields{
				"request_id": reqID,
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"ip":         c.RealIP(),
			})
			c.Set("logger", reqLogger)

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			latency := time.Since(start)
			status := c.Response().Status
			entry := reqLogger.WithFields(Fields{
				"status":     status,
				"latency_ms": latency.Milliseconds(),
			})
			if err != nil {
				entry = entry.WithError(err)
			}

			switch {
			case status >= 500:
				entry.Error("Request failed")
			case status >= 400:
				entry.Warn("Request error")
			default:
				entry.Info("Request completed")
			}

			return nil
		}
	}
}

// GetLogger extracts logger from echo context
func GetLogger(c echo.Context) *logrus.Entry {
	if l, ok := c.Get("logger").(*logrus.Entry); ok {
		return l
	}
	if reqID, ok := c.Get("request_id").(string); ok {
		return Logger.WithField("request_id", reqID)
	}
	return Logger.WithFields(Fields{})
}

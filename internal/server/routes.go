package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"devmanager/internal/constants"
	"devmanager/internal/errors"
	"devmanager/internal/lifecycle"
	"devmanager/internal/logger"
)

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.echo.GET("/swagger/*", echoSwagger.WrapHandler)
	s.echo.GET("/health", s.handleHealth)

	api := s.echo.Group("/api")
	api.GET("/status", s.handleStatus)
	api.POST("/poll", s.handlePoll)
	api.GET("/ws", s.handleWebSocket)

	services := api.Group("/services")
	services.GET("", s.handleListServices)
	services.GET("/:name", s.handleGetService)
	services.POST("/:name/start", s.handleAction(lifecycle.ActionStart))
	services.POST("/:name/stop", s.handleAction(lifecycle.ActionStop))
	services.POST("/:name/restart", s.handleAction(lifecycle.ActionRestart))
}

// handleHealth godoc
// @Summary Liveness check
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /health [get]
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: constants.Version,
		Uptime:  time.Since(s.startTime).Round(time.Second).String(),
	})
}

// handleStatus godoc
// @Summary Current status snapshot
// @Description Overall verdict and the latest status of every monitored service
// @Tags status
// @Produce json
// @Success 200 {object} StatusResponse
// @Router /api/status [get]
func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, newStatusResponse(s.monitor.Snapshot()))
}

// handlePoll godoc
// @Summary Run a polling pass now
// @Description Cancels any in-flight pass and runs a full pass before responding
// @Tags status
// @Produce json
// @Success 200 {object} StatusResponse
// @Failure 409 {object} errors.HTTPErrorResponse
// @Router /api/poll [post]
func (s *Server) handlePoll(c echo.Context) error {
	clearWriteDeadline(c)
	if err := s.monitor.PollOnce(c.Request().Context()); err != nil {
		return errors.ToHTTPError(err)
	}
	return c.JSON(http.StatusOK, newStatusResponse(s.monitor.Snapshot()))
}

// handleListServices godoc
// @Summary List monitored services
// @Tags services
// @Produce json
// @Success 200 {object} ServicesResponse
// @Router /api/services [get]
func (s *Server) handleListServices(c echo.Context) error {
	views := newServiceViews(s.monitor.Snapshot().Items)
	return c.JSON(http.StatusOK, ServicesResponse{Services: views, Total: len(views)})
}

// handleGetService godoc
// @Summary Get one service
// @Tags services
// @Produce json
// @Param name path string true "Service name or id"
// @Success 200 {object} ServiceView
// @Failure 404 {object} errors.HTTPErrorResponse
// @Router /api/services/{name} [get]
func (s *Server) handleGetService(c echo.Context) error {
	item, ok := s.monitor.Find(c.Param("name"))
	if !ok {
		return errors.ToHTTPError(errors.ServiceNotFound(c.Param("name")))
	}
	return c.JSON(http.StatusOK, newServiceView(item))
}

// handleAction godoc
// @Summary Run a lifecycle command
// @Description Runs the service's start, stop or restart command, then re-polls
// @Tags services
// @Produce json
// @Param name path string true "Service name or id"
// @Success 200 {object} ActionResponse
// @Failure 404 {object} errors.HTTPErrorResponse
// @Failure 502 {object} errors.HTTPErrorResponse
// @Router /api/services/{name}/start [post]
// @Router /api/services/{name}/stop [post]
// @Router /api/services/{name}/restart [post]
func (s *Server) handleAction(action lifecycle.Action) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := c.Param("name")
		item, ok := s.monitor.Find(name)
		if !ok {
			return errors.ToHTTPError(errors.ServiceNotFound(name))
		}

		logger.GetLogger(c).WithFields(logger.Fields{
			"service": item.Service.ID,
			"action":  action,
		}).Info("Lifecycle command requested")

		clearWriteDeadline(c)
		outcome, err := s.dispatcher.Dispatch(c.Request().Context(), item.Service, action)
		if err != nil {
			return errors.ToHTTPError(err)
		}

		resp := ActionResponse{
			Service:    outcome.Service,
			Action:     outcome.Action,
			ExitCode:   outcome.ExitCode,
			Output:     outcome.Output,
			DurationMs: outcome.Duration.Milliseconds(),
		}
		if current, ok := s.monitor.Find(item.Service.ID); ok {
			view := newServiceView(current)
			resp.Current = &view
		}
		return c.JSON(http.StatusOK, resp)
	}
}

// clearWriteDeadline lifts the server write timeout for a handler that runs
// lifecycle commands, which have no deadline of their own.
func clearWriteDeadline(c echo.Context) {
	rc := http.NewResponseController(c.Response())
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		logger.GetLogger(c).WithError(err).Debug("Write deadline not cleared")
	}
}

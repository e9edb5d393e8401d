package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"devmanager/internal/constants"
	"devmanager/internal/logger"
)

// WebSocket upgrader configuration
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Allow connections without origin header (e.g., CLI tools)
		if origin == "" {
			return true
		}

		allowedOrigins := []string{
			"http://localhost",
			"https://localhost",
			"http://127.0.0.1",
			"https://127.0.0.1",
			"http://[::1]",
			"https://[::1]",
		}
		for _, allowed := range allowedOrigins {
			if strings.HasPrefix(origin, allowed) {
				return true
			}
		}

		logger.WithFields(logger.Fields{
			"origin": origin,
			"remote": r.RemoteAddr,
		}).Warn("WebSocket connection rejected - invalid origin")
		return false
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// handleWebSocket godoc
// @Summary Snapshot stream
// @Description Sends the current snapshot, then one after every completed pass
// @Tags status
// @Success 101 {string} string "Switching Protocols"
// @Router /api/ws [get]
func (s *Server) handleWebSocket(c echo.Context) error {
	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.WithError(err).Error("Failed to upgrade WebSocket connection")
		return nil
	}
	defer ws.Close()

	clientID := uuid.New().String()
	log := logger.GetLogger(c).WithField("client_id", clientID)
	log.Info("WebSocket client connected")
	defer log.Info("WebSocket client disconnected")

	updates, unsubscribe := s.monitor.Subscribe(constants.SubscriberBuffer)
	defer unsubscribe()

	ctx := c.Request().Context()
	incoming := make(chan ClientMessage)
	closed := make(chan struct{})

	// the reader owns no writes; replies go through the loop below
	go func() {
		defer close(closed)
		for {
			var msg ClientMessage
			if err := ws.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.WithError(err).Debug("WebSocket read error")
				}
				return
			}
			select {
			case incoming <- msg:
			case <-ctx.Done():
				return
			}
		}
	}()

	snap := newStatusResponse(s.monitor.Snapshot())
	if err := writeMessage(ws, StreamMessage{Type: "snapshot", Status: &snap}); err != nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-closed:
			return nil

		case next, ok := <-updates:
			if !ok {
				return nil
			}
			status := newStatusResponse(next)
			if err := writeMessage(ws, StreamMessage{Type: "snapshot", Status: &status}); err != nil {
				log.WithError(err).Debug("WebSocket write failed")
				return nil
			}

		case msg := <-incoming:
			switch msg.Type {
			case "ping":
				if err := writeMessage(ws, StreamMessage{Type: "pong"}); err != nil {
					return nil
				}
			case "poll":
				// the resulting snapshot arrives through the subscription
				go func() {
					if err := s.monitor.PollOnce(ctx); err != nil {
						log.WithError(err).Debug("Poll requested over WebSocket did not complete")
					}
				}()
			default:
				log.WithField("type", msg.Type).Warn("Unknown message type")
			}
		}
	}
}

func writeMessage(ws *websocket.Conn, msg StreamMessage) error {
	if err := ws.SetWriteDeadline(time.Now().Add(constants.WebSocketWriteTimeout)); err != nil {
		return err
	}
	return ws.WriteJSON(msg)
}

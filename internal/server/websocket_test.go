package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialStream(t *testing.T, env *testEnv, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	srv := httptest.NewServer(env.server.Handler())
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	return websocket.DefaultDialer.Dial(url, header)
}

func readMessage(t *testing.T, ws *websocket.Conn) StreamMessage {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg StreamMessage
	require.NoError(t, ws.ReadJSON(&msg))
	return msg
}

func TestWebSocket_StreamsSnapshots(t *testing.T) {
	env := newTestEnv(t)
	ws, _, err := dialStream(t, env, nil)
	require.NoError(t, err)
	defer ws.Close()

	first := readMessage(t, ws)
	assert.Equal(t, "snapshot", first.Type)
	require.NotNil(t, first.Status)
	assert.Zero(t, first.Status.Pass)

	// the subscription is registered before the first message is sent
	require.NoError(t, env.monitor.PollOnce(context.Background()))
	next := readMessage(t, ws)
	assert.Equal(t, "snapshot", next.Type)
	assert.Equal(t, uint64(1), next.Status.Pass)
	assert.Len(t, next.Status.Services, 2)
}

func TestWebSocket_PingAndPoll(t *testing.T) {
	env := newTestEnv(t)
	ws, _, err := dialStream(t, env, nil)
	require.NoError(t, err)
	defer ws.Close()
	readMessage(t, ws)

	require.NoError(t, ws.WriteJSON(ClientMessage{Type: "ping"}))
	assert.Equal(t, "pong", readMessage(t, ws).Type)

	require.NoError(t, ws.WriteJSON(ClientMessage{Type: "poll"}))
	msg := readMessage(t, ws)
	assert.Equal(t, "snapshot", msg.Type)
	assert.Equal(t, uint64(1), msg.Status.Pass)
}

func TestWebSocket_RejectsForeignOrigin(t *testing.T) {
	env := newTestEnv(t)
	_, resp, err := dialStream(t, env, http.Header{"Origin": []string{"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

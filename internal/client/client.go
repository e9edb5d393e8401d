// Package client talks to a running devmanager status API.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"devmanager/internal/errors"
	"devmanager/internal/lifecycle"
	"devmanager/internal/server"
)

// Client represents the HTTP/WebSocket client for the status API
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a new client instance
func New(serverURL string) (*Client, error) {
	// Accept host:port without a scheme
	if !strings.Contains(serverURL, "://") {
		serverURL = "http://" + serverURL
	}
	u, err := url.Parse(serverURL)
	if err != nil || u.Host == "" {
		return nil, errors.InvalidInput(serverURL, "a server URL such as http://127.0.0.1:8089")
	}

	return &Client{
		baseURL: strings.TrimRight(u.String(), "/"),
		httpClient: &http.Client{
			// lifecycle commands run without a deadline on the server
			Timeout: 0,
		},
	}, nil
}

// BaseURL returns the server URL requests are sent to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// doRequest performs an HTTP request and decodes a JSON response into out.
// Error responses are turned back into the server's error codes.
func (c *Client) doRequest(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrExecution, "Status API unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var apiErr errors.HTTPErrorResponse
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Error.Code == "" {
		return errors.NewWithDetails(errors.ErrInternal, "Unexpected response from status API",
			fmt.Sprintf("%s: %s", resp.Status, errors.Truncate(strings.TrimSpace(string(body)))))
	}

	devErr := errors.NewWithDetails(apiErr.Error.Code, apiErr.Error.Message, apiErr.Error.Details)
	for k, v := range apiErr.Context {
		devErr = devErr.WithContext(k, v)
	}
	return devErr
}

// Health checks the liveness of the server
func (c *Client) Health(ctx context.Context) (*server.HealthResponse, error) {
	var health server.HealthResponse
	if err := c.doRequest(ctx, http.MethodGet, "/health", &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Status returns the latest snapshot
func (c *Client) Status(ctx context.Context) (*server.StatusResponse, error) {
	var status server.StatusResponse
	if err := c.doRequest(ctx, http.MethodGet, "/api/status", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Poll runs a pass on the server and returns the resulting snapshot
func (c *Client) Poll(ctx context.Context) (*server.StatusResponse, error) {
	var status server.StatusResponse
	if err := c.doRequest(ctx, http.MethodPost, "/api/poll", &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Action runs a lifecycle command on the server
func (c *Client) Action(ctx context.Context, service string, action lifecycle.Action) (*server.ActionResponse, error) {
	path := fmt.Sprintf("/api/services/%s/%s", url.PathEscape(service), action)
	var resp server.ActionResponse
	if err := c.doRequest(ctx, http.MethodPost, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stream connects to the snapshot stream and calls fn for every snapshot
// until ctx is done or the connection drops
func (c *Client) Stream(ctx context.Context, fn func(server.StatusResponse)) error {
	conn, err := c.WebSocketConnect(ctx, "/api/ws")
	if err != nil {
		return err
	}
	defer conn.Close()

	// unblock ReadJSON once ctx is done
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	for {
		var msg server.StreamMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return errors.Wrap(errors.ErrExecution, "Snapshot stream closed", err)
		}
		if msg.Type == "snapshot" && msg.Status != nil {
			fn(*msg.Status)
		}
	}
}

// WebSocketConnect establishes a WebSocket connection for real-time updates
func (c *Client) WebSocketConnect(ctx context.Context, path string) (*websocket.Conn, error) {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, err
	}

	wsScheme := "ws"
	if u.Scheme == "https" {
		wsScheme = "wss"
	}
	wsURL := fmt.Sprintf("%s://%s%s", wsScheme, u.Host, path)

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrExecution, "WebSocket connection failed", err)
	}
	return conn, nil
}

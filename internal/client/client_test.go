package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devmanager/internal/config"
	"devmanager/internal/errors"
	"devmanager/internal/executor"
	"devmanager/internal/lifecycle"
	"devmanager/internal/monitor"
	"devmanager/internal/probe"
	"devmanager/internal/server"
	"devmanager/internal/testutil"
	"devmanager/internal/types"
)

// newTestServer serves a real status API over a scripted executor.
// "api status" succeeds once "api start" has run.
func newTestServer(t *testing.T) (*Client, *monitor.Monitor) {
	t.Helper()
	var running atomic.Bool
	exec := testutil.NewMockExecutor()
	exec.RunFn = func(ctx context.Context, commandLine string, timeout time.Duration) (*executor.Result, error) {
		switch commandLine {
		case "api start":
			running.Store(true)
			return &executor.Result{Output: "started"}, nil
		case "api status":
			if running.Load() {
				return &executor.Result{}, nil
			}
			return &executor.Result{ExitCode: 1}, nil
		case "worker start":
			return &executor.Result{ExitCode: 4, Output: "boom"}, nil
		}
		return &executor.Result{ExitCode: 1}, nil
	}

	prober := probe.New(probe.Options{Executor: exec})
	t.Cleanup(prober.Close)

	api := testutil.ProcessService("api", true, "api status")
	worker := testutil.ProcessService("worker", false, "worker status")
	mon := monitor.New(prober, []config.ServiceDescriptor{api, worker}, monitor.Options{})

	srv := server.New(server.DefaultConfig(), mon, lifecycle.NewDispatcher(exec, mon))
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	c, err := New(ts.URL)
	require.NoError(t, err)
	return c, mon
}

func TestNew(t *testing.T) {
	c, err := New("127.0.0.1:8089")
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8089", c.BaseURL())

	c, err = New("https://dev.local:9000/")
	require.NoError(t, err)
	assert.Equal(t, "https://dev.local:9000", c.BaseURL())

	_, err = New("http://")
	require.Error(t, err)
	assert.Equal(t, errors.ErrInvalidInput, errors.GetCode(err))
}

func TestHealth(t *testing.T) {
	c, _ := newTestServer(t)

	health, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", health.Status)
}

func TestStatusAndPoll(t *testing.T) {
	c, _ := newTestServer(t)

	status, err := c.Status(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.OverallUnknown, status.Overall)
	assert.Zero(t, status.Pass)

	status, err = c.Poll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.OverallFailed, status.Overall)
	assert.Equal(t, uint64(1), status.Pass)
	require.Len(t, status.Services, 2)
	assert.Equal(t, "🔴", status.Services[0].StatusEmoji)
}

func TestAction(t *testing.T) {
	c, _ := newTestServer(t)

	resp, err := c.Action(context.Background(), "api", lifecycle.ActionStart)
	require.NoError(t, err)
	assert.Equal(t, "api", resp.Service)
	assert.Equal(t, "started", resp.Output)
	require.NotNil(t, resp.Current)
	assert.Equal(t, "🟢", resp.Current.StatusEmoji)
}

func TestAction_ErrorsKeepTheirCode(t *testing.T) {
	c, _ := newTestServer(t)

	_, err := c.Action(context.Background(), "nope", lifecycle.ActionStart)
	require.Error(t, err)
	assert.Equal(t, errors.ErrServiceNotFound, errors.GetCode(err))

	_, err = c.Action(context.Background(), "worker", lifecycle.ActionStart)
	require.Error(t, err)
	devErr, ok := errors.As(err)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCommandFailed, devErr.Code)
	// JSON numbers decode as float64
	assert.Equal(t, float64(4), devErr.Context["exit_code"])
}

func TestDoRequest_NonJSONError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer ts.Close()

	c, err := New(ts.URL)
	require.NoError(t, err)

	_, err = c.Status(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrInternal, errors.GetCode(err))
	assert.Contains(t, err.Error(), "upstream exploded")
}

func TestDoRequest_Unreachable(t *testing.T) {
	c, err := New(testutil.ClosedURL())
	require.NoError(t, err)

	_, err = c.Health(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrExecution, errors.GetCode(err))
}

func TestStream(t *testing.T) {
	c, mon := newTestServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan server.StatusResponse, 8)
	done := make(chan error, 1)
	go func() {
		done <- c.Stream(ctx, func(resp server.StatusResponse) { got <- resp })
	}()

	first := <-got
	assert.Zero(t, first.Pass)

	require.NoError(t, mon.PollOnce(context.Background()))
	select {
	case next := <-got:
		assert.Equal(t, uint64(1), next.Pass)
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot after poll")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("stream did not return after cancel")
	}
}

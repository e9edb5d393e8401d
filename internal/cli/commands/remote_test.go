package commands

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devmanager/internal/client"
	"devmanager/internal/constants"
	"devmanager/internal/errors"
	"devmanager/internal/server"
)

func newRemoteEnv(t *testing.T) (*testEnv, Connector) {
	t.Helper()
	env := newTestEnv(t)
	srv := server.New(server.DefaultConfig(), env.rt.Monitor, env.rt.Dispatcher)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return env, func() (*client.Client, error) {
		return client.New(ts.URL)
	}
}

func TestResolveServerURL(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	t.Setenv(constants.EnvServerURL, "")
	assert.Equal(t, "http://127.0.0.1:8089", ResolveServerURL(""))

	t.Setenv(constants.EnvServerURL, "http://box:9000")
	assert.Equal(t, "http://box:9000", ResolveServerURL(""))
	assert.Equal(t, "http://flag:1", ResolveServerURL("http://flag:1"))
}

func TestRemoteStatus_Refresh(t *testing.T) {
	env, connect := newRemoteEnv(t)
	env.running.Store(true)

	out, _, err := execute(t, context.Background(), RemoteCommands(connect), "status", "--refresh")
	require.NoError(t, err)
	assert.Contains(t, out, "🟢 API *")
	assert.Contains(t, out, "Overall: 🟢 Healthy")
}

func TestRemoteStatus_BeforeFirstPass(t *testing.T) {
	_, connect := newRemoteEnv(t)

	out, _, err := execute(t, context.Background(), RemoteCommands(connect), "status")
	require.NoError(t, err)
	assert.Contains(t, out, "❓ API *")
	assert.Contains(t, out, "Overall: ❓ Unknown")
}

func TestRemoteStart(t *testing.T) {
	env, connect := newRemoteEnv(t)

	out, _, err := execute(t, context.Background(), RemoteCommands(connect), "start", "api")
	require.NoError(t, err)
	assert.Contains(t, out, "✅ start api")
	assert.Contains(t, out, "🟢 API *")
	assert.Equal(t, 1, env.exec.CallCount("api start"))
}

func TestRemoteStart_UnknownService(t *testing.T) {
	_, connect := newRemoteEnv(t)

	_, _, err := execute(t, context.Background(), RemoteCommands(connect), "start", "nope")
	require.Error(t, err)
	assert.Equal(t, errors.ErrServiceNotFound, errors.GetCode(err))
}

func TestRemoteStop_FailureIsAWarning(t *testing.T) {
	_, connect := newRemoteEnv(t)

	_, errOut, err := execute(t, context.Background(), RemoteCommands(connect), "stop", "worker")
	require.NoError(t, err)
	assert.Contains(t, errOut, "COMMAND_FAILED")
}

package executor

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devmanager/internal/errors"
)

func newTestExecutor() *ShellExecutor {
	return NewShellExecutor("/bin/sh")
}

func TestRun_CapturesCombinedOutput(t *testing.T) {
	result, err := newTestExecutor().Run(context.Background(), "echo out; echo err 1>&2", time.Second)
	require.NoError(t, err)

	assert.True(t, result.Success())
	assert.Contains(t, result.Output, "out")
	assert.Contains(t, result.Output, "err")
}

func TestRun_NonZeroExitIsData(t *testing.T) {
	result, err := newTestExecutor().Run(context.Background(), "echo nope; exit 3", time.Second)
	require.NoError(t, err)

	assert.False(t, result.Success())
	assert.Equal(t, 3, result.ExitCode)
	assert.Equal(t, "nope\n", result.Output)
}

func TestRun_TimeoutKillsProcess(t *testing.T) {
	start := time.Now()
	result, err := newTestExecutor().Run(context.Background(), "sleep 10", 100*time.Millisecond)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.HasCode(err, errors.ErrTimeout))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRun_TimeoutKillsBackgroundChildren(t *testing.T) {
	start := time.Now()
	_, err := newTestExecutor().Run(context.Background(), "sleep 10 & sleep 10; wait", 100*time.Millisecond)

	assert.True(t, errors.HasCode(err, errors.ErrTimeout))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestRun_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	_, err := newTestExecutor().Run(ctx, "sleep 10", 0)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCancelled))
}

func TestRun_NoTimeoutRunsToCompletion(t *testing.T) {
	result, err := newTestExecutor().Run(context.Background(), "sleep 0.1; echo done", 0)
	require.NoError(t, err)
	assert.Equal(t, "done\n", result.Output)
	assert.GreaterOrEqual(t, result.Duration, 100*time.Millisecond)
}

func TestRun_SpawnFailure(t *testing.T) {
	e := NewShellExecutor("/nonexistent/shell")
	result, err := e.Run(context.Background(), "true", time.Second)

	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.HasCode(err, errors.ErrExecution))
}

type recordingFactory struct {
	names []string
	args  [][]string
}

func (f *recordingFactory) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	f.names = append(f.names, name)
	f.args = append(f.args, args)
	return exec.CommandContext(ctx, "/bin/sh", "-c", "echo factory")
}

func TestRun_UsesShellDashC(t *testing.T) {
	factory := &recordingFactory{}
	e := NewShellExecutor("/bin/zsh").WithFactory(factory)

	result, err := e.Run(context.Background(), "colima status default", time.Second)
	require.NoError(t, err)
	assert.Equal(t, "factory", strings.TrimSpace(result.Output))
	assert.Equal(t, []string{"/bin/zsh"}, factory.names)
	assert.Equal(t, [][]string{{"-c", "colima status default"}}, factory.args)
}

func TestNewShellExecutor_DefaultShell(t *testing.T) {
	e := NewShellExecutor("")
	assert.Contains(t, []string{"/bin/bash", "/bin/sh"}, e.Shell())
}

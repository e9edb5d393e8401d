package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"devmanager/internal/errors"
	"devmanager/internal/executor"
)

// Response is a scripted command outcome
type Response struct {
	ExitCode int
	Output   string
	// Delay makes the command take this long; the timeout and ctx apply
	Delay time.Duration
	// Err is returned instead of a result (e.g. an EXECUTION error)
	Err error
}

// MockExecutor is a scripted executor.Executor keyed by exact command line
type MockExecutor struct {
	mu        sync.Mutex
	responses map[string]Response
	calls     []string

	// Default is used for command lines without a scripted response
	Default Response
	// RunFn, when set, replaces the scripted lookup
	RunFn func(ctx context.Context, commandLine string, timeout time.Duration) (*executor.Result, error)
}

// NewMockExecutor creates a mock executor whose unscripted commands succeed
func NewMockExecutor() *MockExecutor {
	return &MockExecutor{responses: make(map[string]Response)}
}

// On scripts the response for a command line
func (m *MockExecutor) On(commandLine string, resp Response) *MockExecutor {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[commandLine] = resp
	return m
}

// Calls returns the command lines run so far, in order
func (m *MockExecutor) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// CallCount returns how many times a command line was run
func (m *MockExecutor) CallCount(commandLine string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.calls {
		if c == commandLine {
			n++
		}
	}
	return n
}

// Run implements executor.Executor
func (m *MockExecutor) Run(ctx context.Context, commandLine string, timeout time.Duration) (*executor.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, commandLine)
	resp, ok := m.responses[commandLine]
	if !ok {
		resp = m.Default
	}
	runFn := m.RunFn
	m.mu.Unlock()

	if runFn != nil {
		return runFn(ctx, commandLine, timeout)
	}

	if resp.Delay > 0 {
		var deadline <-chan time.Time
		if timeout > 0 {
			timer := time.NewTimer(timeout)
			defer timer.Stop()
			deadline = timer.C
		}
		delay := time.NewTimer(resp.Delay)
		defer delay.Stop()

		select {
		case <-delay.C:
		case <-deadline:
			return nil, errors.CommandTimeout(commandLine, timeout)
		case <-ctx.Done():
			return nil, errors.CommandCancelled(commandLine, ctx.Err())
		}
	}

	if resp.Err != nil {
		return nil, resp.Err
	}
	return &executor.Result{ExitCode: resp.ExitCode, Output: resp.Output, Duration: resp.Delay}, nil
}

// MockContainerCounter is a testify mock of probe.ContainerCounter
type MockContainerCounter struct {
	mock.Mock
}

// Count implements probe.ContainerCounter
func (m *MockContainerCounter) Count(ctx context.Context, nameFilter string) (int, error) {
	args := m.Called(ctx, nameFilter)
	return args.Int(0), args.Error(1)
}

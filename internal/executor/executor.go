// Package executor runs configured command lines through a shell with a
// deadline and captures their combined output.
package executor

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"time"

	"devmanager/internal/constants"
	"devmanager/internal/errors"
	"devmanager/internal/logger"
)

// Executor runs a shell command line. A non-zero exit status is reported in
// the Result, not as an error. Errors are EXECUTION (could not spawn),
// TIMEOUT (deadline hit, process group killed) or CANCELLED (ctx done).
// A timeout <= 0 means no deadline.
type Executor interface {
	Run(ctx context.Context, commandLine string, timeout time.Duration) (*Result, error)
}

// Result is the outcome of a command that ran to completion
type Result struct {
	ExitCode int
	Output   string
	Duration time.Duration
}

// Success reports whether the command exited with status 0
func (r *Result) Success() bool {
	return r.ExitCode == 0
}

// CommandFactory builds processes (allows mocking in tests)
type CommandFactory interface {
	CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd
}

// DefaultCommandFactory implements CommandFactory using standard exec
type DefaultCommandFactory struct{}

func (DefaultCommandFactory) CommandContext(ctx context.Context, name string, args ...string) *exec.Cmd {
	return exec.CommandContext(ctx, name, args...)
}

// ShellExecutor runs command lines with `<shell> -c`
type ShellExecutor struct {
	shell   string
	factory CommandFactory
}

// NewShellExecutor creates an executor for shell. An empty shell selects
// /bin/bash, or /bin/sh where bash is not installed.
func NewShellExecutor(shell string) *ShellExecutor {
	if shell == "" {
		shell = constants.DefaultShell
		if _, err := exec.LookPath(shell); err != nil {
			shell = constants.FallbackShell
		}
	}
	return &ShellExecutor{shell: shell, factory: DefaultCommandFactory{}}
}

// WithFactory replaces the process factory
func (e *ShellExecutor) WithFactory(factory CommandFactory) *ShellExecutor {
	e.factory = factory
	return e
}

// Shell returns the shell used to run command lines
func (e *ShellExecutor) Shell() string {
	return e.shell
}

// Run implements Executor
func (e *ShellExecutor) Run(ctx context.Context, commandLine string, timeout time.Duration) (*Result, error) {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	var output bytes.Buffer
	cmd := e.factory.CommandContext(runCtx, e.shell, "-c", commandLine)
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.WaitDelay = constants.ProcessWaitDelay
	killProcessGroup(cmd)

	log := logger.WithContext(ctx).WithField("command", errors.Truncate(commandLine))

	start := time.Now()
	if err := cmd.Start(); err != nil {
		log.WithError(err).Debug("Command could not be started")
		return nil, errors.ExecutionFailed(commandLine, err)
	}
	waitErr := cmd.Wait()
	elapsed := time.Since(start)

	// parent cancellation wins over our own deadline
	if ctx.Err() != nil {
		log.Debug("Command cancelled")
		return nil, errors.CommandCancelled(commandLine, ctx.Err())
	}
	if runCtx.Err() != nil {
		log.WithField("timeout", timeout).Debug("Command timed out")
		return nil, errors.CommandTimeout(commandLine, timeout)
	}

	result := &Result{Output: output.String(), Duration: elapsed}
	if waitErr != nil {
		var exitErr *exec.ExitError
		switch {
		case stderrors.As(waitErr, &exitErr):
			result.ExitCode = exitErr.ExitCode()
		case stderrors.Is(waitErr, exec.ErrWaitDelay):
			// a background child kept the output pipe open after the shell exited
			result.ExitCode = cmd.ProcessState.ExitCode()
		default:
			log.WithError(waitErr).Debug("Command failed")
			return nil, errors.ExecutionFailed(commandLine, waitErr)
		}
	}

	log.WithFields(logger.Fields{
		"exit_code":   result.ExitCode,
		"duration_ms": elapsed.Milliseconds(),
	}).Trace("Command finished")

	return result, nil
}

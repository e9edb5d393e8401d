// Package lifecycle runs a service's start, stop and restart commands and
// re-polls the monitor afterwards so the next snapshot reflects the change.
package lifecycle

import (
	"context"
	"sort"
	"strings"
	"time"

	"devmanager/internal/config"
	"devmanager/internal/errors"
	"devmanager/internal/executor"
	"devmanager/internal/logger"
)

// Action is a lifecycle command
type Action string

const (
	ActionStart   Action = "start"
	ActionStop    Action = "stop"
	ActionRestart Action = "restart"
)

// ParseAction validates an action name
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(s)); a {
	case ActionStart, ActionStop, ActionRestart:
		return a, nil
	default:
		return "", errors.InvalidInput(s, "start, stop or restart")
	}
}

// Poller runs a polling pass
type Poller interface {
	PollOnce(ctx context.Context) error
}

// Outcome is the result of one lifecycle command
type Outcome struct {
	Service  string        `json:"service"`
	Action   Action        `json:"action"`
	Command  string        `json:"command"`
	ExitCode int           `json:"exit_code"`
	Output   string        `json:"output"`
	Duration time.Duration `json:"duration"`
	Err      error         `json:"-"`
}

// Success returns true if the command exited with status 0
func (o *Outcome) Success() bool {
	return o != nil && o.Err == nil && o.ExitCode == 0
}

// Dispatcher runs lifecycle commands
type Dispatcher struct {
	executor executor.Executor
	poller   Poller
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewDispatcher creates a dispatcher. poller may be nil when nothing is
// being monitored.
func NewDispatcher(exec executor.Executor, poller Poller) *Dispatcher {
	return &Dispatcher{executor: exec, poller: poller, sleep: sleepContext}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return errors.CommandCancelled("startup delay", ctx.Err())
	}
}

// Start runs the service's start command
func (d *Dispatcher) Start(ctx context.Context, svc config.ServiceDescriptor) (*Outcome, error) {
	return d.Dispatch(ctx, svc, ActionStart)
}

// Stop runs the service's stop command
func (d *Dispatcher) Stop(ctx context.Context, svc config.ServiceDescriptor) (*Outcome, error) {
	return d.Dispatch(ctx, svc, ActionStop)
}

// Restart runs the service's restart command
func (d *Dispatcher) Restart(ctx context.Context, svc config.ServiceDescriptor) (*Outcome, error) {
	return d.Dispatch(ctx, svc, ActionRestart)
}

// Dispatch runs one action and then re-polls
func (d *Dispatcher) Dispatch(ctx context.Context, svc config.ServiceDescriptor, action Action) (*Outcome, error) {
	outcome, err := d.run(ctx, svc, action)
	if outcome != nil {
		d.repoll(ctx)
	}
	return outcome, err
}

func (d *Dispatcher) run(ctx context.Context, svc config.ServiceDescriptor, action Action) (*Outcome, error) {
	command := commandFor(svc, action)
	if strings.TrimSpace(command) == "" {
		return nil, errors.InvalidInput(svc.ID, "a configured "+string(action)+" command")
	}

	log := logger.WithContext(ctx).WithFields(logger.Fields{
		"service": svc.ID,
		"action":  action,
	})
	log.Info("Running lifecycle command")

	outcome := &Outcome{Service: svc.ID, Action: action, Command: command}

	// lifecycle commands run without a deadline
	result, err := d.executor.Run(ctx, command, 0)
	if err != nil {
		outcome.ExitCode = -1
		outcome.Err = err
		log.WithError(err).Warn("Lifecycle command could not run")
		return outcome, err
	}

	outcome.ExitCode = result.ExitCode
	outcome.Output = result.Output
	outcome.Duration = result.Duration
	if !result.Success() {
		outcome.Err = errors.CommandFailed(svc.ID, string(action), result.ExitCode, result.Output)
		log.WithFields(logger.Fields{
			"exit_code": result.ExitCode,
			"output":    errors.Truncate(result.Output),
		}).Warn("Lifecycle command failed")
		return outcome, outcome.Err
	}

	log.WithField("duration_ms", result.Duration.Milliseconds()).Info("Lifecycle command succeeded")
	return outcome, nil
}

func (d *Dispatcher) repoll(ctx context.Context) {
	if d.poller == nil {
		return
	}
	if err := d.poller.PollOnce(ctx); err != nil {
		logger.WithContext(ctx).WithError(err).Warn("Re-poll after lifecycle command failed")
	}
}

func commandFor(svc config.ServiceDescriptor, action Action) string {
	switch action {
	case ActionStart:
		return svc.Commands.Start
	case ActionStop:
		return svc.Commands.Stop
	case ActionRestart:
		return svc.Commands.Restart
	default:
		return ""
	}
}

// StartAll starts the critical services in ascending startup order, waiting
// each service's startup delay before moving on. Every service is attempted;
// the first failure is returned. The monitor is re-polled once at the end.
func (d *Dispatcher) StartAll(ctx context.Context, services []config.ServiceDescriptor) ([]*Outcome, error) {
	var plan []config.ServiceDescriptor
	for _, svc := range services {
		if svc.Critical {
			plan = append(plan, svc)
		}
	}
	sort.SliceStable(plan, func(i, j int) bool {
		return plan[i].StartupOrder < plan[j].StartupOrder
	})

	outcomes, err := d.runAll(ctx, plan, ActionStart)
	d.repoll(ctx)
	return outcomes, err
}

// StopAll stops every service in descending startup order. Every service is
// attempted; the first failure is returned.
func (d *Dispatcher) StopAll(ctx context.Context, services []config.ServiceDescriptor) ([]*Outcome, error) {
	plan := append([]config.ServiceDescriptor(nil), services...)
	sort.SliceStable(plan, func(i, j int) bool {
		return plan[i].StartupOrder > plan[j].StartupOrder
	})

	outcomes, err := d.runAll(ctx, plan, ActionStop)
	d.repoll(ctx)
	return outcomes, err
}

func (d *Dispatcher) runAll(ctx context.Context, plan []config.ServiceDescriptor, action Action) ([]*Outcome, error) {
	var outcomes []*Outcome
	var firstErr error

	for i, svc := range plan {
		if err := ctx.Err(); err != nil {
			return outcomes, errors.CommandCancelled(string(action)+" all", err)
		}

		outcome, err := d.run(ctx, svc, action)
		if outcome == nil {
			// nothing to run for this service
			outcome = &Outcome{Service: svc.ID, Action: action, Err: err}
		}
		outcomes = append(outcomes, outcome)
		if err != nil && firstErr == nil {
			firstErr = err
		}

		if action == ActionStart && svc.StartupDelaySeconds > 0 && i < len(plan)-1 && outcome.Success() {
			if err := d.sleep(ctx, time.Duration(svc.StartupDelaySeconds)*time.Second); err != nil {
				return outcomes, err
			}
		}
	}
	return outcomes, firstErr
}

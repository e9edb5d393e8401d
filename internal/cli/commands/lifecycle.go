package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"devmanager/internal/errors"
	"devmanager/internal/lifecycle"
	"devmanager/internal/logger"
	"devmanager/internal/monitor"
	"devmanager/internal/types"
)

const waitPollInterval = 500 * time.Millisecond

// LifecycleCommands creates the start, stop, restart, start-all and
// stop-all commands
func LifecycleCommands(load Loader) []*cobra.Command {
	commands := []*cobra.Command{}

	for _, entry := range []struct {
		action lifecycle.Action
		short  string
	}{
		{lifecycle.ActionStart, "Start a service"},
		{lifecycle.ActionStop, "Stop a service"},
		{lifecycle.ActionRestart, "Restart a service"},
	} {
		action := entry.action
		actionCmd := &cobra.Command{
			Use:   string(action) + " [service]",
			Short: entry.short,
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runAction(cmd, load, action, args)
			},
		}
		if action != lifecycle.ActionStop {
			actionCmd.Flags().Duration("wait", 0, "Wait up to this long for the service to report healthy")
		}
		commands = append(commands, actionCmd)
	}

	// devmanager start-all
	commands = append(commands, &cobra.Command{
		Use:   "start-all",
		Short: "Start all critical services in startup order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			outcomes, err := rt.Dispatcher.StartAll(cmd.Context(), rt.Services())
			printOutcomes(cmd.OutOrStdout(), outcomes)
			renderSnapshot(cmd.OutOrStdout(), "🔍 Service Status Report", rt.Monitor.Snapshot())
			return err
		},
	})

	// devmanager stop-all
	commands = append(commands, &cobra.Command{
		Use:   "stop-all",
		Short: "Stop all services in reverse startup order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := load(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			outcomes, err := rt.Dispatcher.StopAll(cmd.Context(), rt.Services())
			printOutcomes(cmd.OutOrStdout(), outcomes)
			renderSnapshot(cmd.OutOrStdout(), "🔍 Service Status Report", rt.Monitor.Snapshot())
			if errors.HasCode(err, errors.ErrCommandFailed) {
				// a service that is already down commonly fails its stop command
				fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %v\n", err)
				return nil
			}
			return err
		},
	})

	return commands
}

func runAction(cmd *cobra.Command, load Loader, action lifecycle.Action, args []string) error {
	rt, err := load(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	out := cmd.OutOrStdout()
	if len(args) == 0 {
		fmt.Fprintln(out, "Please specify a service name")
		fmt.Fprintln(out, "Available services:")
		for _, svc := range rt.Services() {
			fmt.Fprintf(out, "  - %s (%s)\n", svc.Name, svc.Label())
		}
		return errors.InvalidInput("", "a service name")
	}

	item, ok := rt.Monitor.Find(args[0])
	if !ok {
		return errors.ServiceNotFound(args[0])
	}

	logger.WithFields(logger.Fields{
		"service": item.Service.ID,
		"action":  action,
	}).Debug("Dispatching lifecycle command")

	fmt.Fprintf(out, "▶ %s %s...\n", action, item.Service.Label())
	outcome, err := rt.Dispatcher.Dispatch(cmd.Context(), item.Service, action)
	printOutcomes(out, []*lifecycle.Outcome{outcome})

	if err == nil && cmd.Flags().Lookup("wait") != nil {
		if wait, _ := cmd.Flags().GetDuration("wait"); wait > 0 {
			err = waitForHealthy(cmd.Context(), rt.Monitor, item.Service.ID, wait)
		}
	}

	if current, found := rt.Monitor.Find(item.Service.ID); found {
		fmt.Fprintln(out, statusLine(current))
	}

	if action == lifecycle.ActionStop && errors.HasCode(err, errors.ErrCommandFailed) {
		fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %v\n", err)
		return nil
	}
	return err
}

// waitForHealthy re-polls until the service reports healthy or timeout passes
func waitForHealthy(ctx context.Context, mon *monitor.Monitor, id string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(waitPollInterval)
	defer ticker.Stop()

	for {
		if item, ok := mon.Find(id); ok && item.Status != nil && item.Status.Icon == types.IconHealthy {
			return nil
		}

		select {
		case <-ctx.Done():
			return errors.NewWithDetails(errors.ErrTimeout, "Service did not become healthy",
				fmt.Sprintf("Service: %s, Timeout: %s", id, timeout))
		case <-ticker.C:
			if err := mon.PollOnce(ctx); err != nil && ctx.Err() == nil {
				logger.WithError(err).Debug("Poll while waiting did not complete")
			}
		}
	}
}

func printOutcomes(w io.Writer, outcomes []*lifecycle.Outcome) {
	for _, o := range outcomes {
		if o == nil {
			continue
		}
		switch {
		case o.Success():
			fmt.Fprintf(w, "  ✅ %s %s (%s)\n", o.Action, o.Service, o.Duration.Round(time.Millisecond))
		case o.Command == "":
			fmt.Fprintf(w, "  ⚪ %s %s: no command configured\n", o.Action, o.Service)
		default:
			fmt.Fprintf(w, "  ❌ %s %s: exit code %d\n", o.Action, o.Service, o.ExitCode)
			if o.Output != "" {
				fmt.Fprintf(w, "     %s\n", errors.Truncate(strings.TrimSpace(o.Output)))
			}
		}
	}
}

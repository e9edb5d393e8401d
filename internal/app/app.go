// Package app assembles the devmanager runtime and runs the CLI.
package app

import (
	"context"

	"devmanager/internal/cli"
	"devmanager/internal/cli/commands"
	"devmanager/internal/config"
	"devmanager/internal/constants"
	"devmanager/internal/errors"
	"devmanager/internal/executor"
	"devmanager/internal/lifecycle"
	"devmanager/internal/logger"
	"devmanager/internal/monitor"
	"devmanager/internal/probe"
	"devmanager/internal/profiles"
)

// App represents the main application
type App struct {
	CLI *cli.Manager
}

// New creates a new application instance
func New() *App {
	return &App{CLI: cli.New(BuildRuntime)}
}

// Run starts the application
func (a *App) Run(args []string) error {
	return a.RunWithContext(context.Background(), args)
}

// RunWithContext runs the CLI with a context for cancellation
func (a *App) RunWithContext(ctx context.Context, args []string) error {
	return a.CLI.ExecuteWithContext(ctx, args)
}

// BuildRuntime loads the configuration and wires the executor, probes,
// monitor, dispatcher and profile watcher together.
func BuildRuntime(ctx context.Context, opts commands.Options) (*commands.Runtime, error) {
	global, err := config.LoadGlobalConfig()
	if err != nil {
		if errors.IsConfigurationError(err) {
			return nil, err
		}
		return nil, errors.ConfigInvalid(err.Error())
	}
	if opts.LogLevel == "" {
		logger.SetLevel(global.Log.Level)
	}

	path, err := config.ResolvePath(opts.ConfigPath, global)
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}
	doc, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	for _, warning := range doc.Warnings() {
		logger.WithField("path", path).Warn(warning)
	}

	settings := config.ResolveSettings(global, doc)
	exec := executor.NewShellExecutor(global.Probe.Shell)

	rt := &commands.Runtime{Global: global, Document: doc}

	var counter probe.ContainerCounter
	if global.Probe.ContainerCounter == constants.ContainerCounterAPI {
		api := probe.NewAPICounter()
		rt.OnClose(func() {
			if err := api.Close(); err != nil {
				logger.WithError(err).Debug("Failed to close Docker client")
			}
		})
		counter = api
	} else {
		counter = probe.NewCLICounter(exec, constants.DefaultContainerCountTimeout)
	}

	prober := probe.New(probe.Options{
		Executor:           exec,
		Counter:            counter,
		Defaults:           settings.Probe,
		ProfileListCommand: global.Profiles.ListCommand,
	})
	rt.OnClose(prober.Close)

	var found []string
	if !global.Profiles.Disabled {
		found, err = profiles.Discover(global.Profiles.Directory)
		if err != nil {
			logger.WithError(err).Warn("Profile discovery failed")
		}
	}
	services := profiles.BuildServices(doc.Services, found, global.Profiles.PlaceholderID)

	mon := monitor.New(prober, services, monitor.Options{
		Interval:    settings.PollInterval,
		Concurrency: settings.Concurrency,
	})
	rt.Monitor = mon
	rt.Dispatcher = lifecycle.NewDispatcher(exec, mon)

	if !global.Profiles.Disabled {
		rt.ProfileWatcher = profiles.NewWatcher(global.Profiles.Directory, constants.ProfileWatchDebounce, func(current []string) {
			mon.SetServices(profiles.BuildServices(doc.Services, current, global.Profiles.PlaceholderID))
			if err := mon.PollOnce(ctx); err != nil {
				logger.WithError(err).Debug("Poll after profile change did not complete")
			}
		})
	}

	logger.WithFields(logger.Fields{
		"path":     path,
		"services": len(services),
		"profiles": len(found),
		"interval": settings.PollInterval,
	}).Debug("Runtime ready")

	return rt, nil
}

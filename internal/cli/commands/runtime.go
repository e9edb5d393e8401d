// Package commands implements the devmanager CLI commands.
package commands

import (
	"context"

	"devmanager/internal/client"
	"devmanager/internal/config"
	"devmanager/internal/lifecycle"
	"devmanager/internal/monitor"
	"devmanager/internal/profiles"
)

// Options are the global flags a runtime is built from
type Options struct {
	ConfigPath string
	LogLevel   string
	// Server is the status API URL used by the remote commands
	Server string
}

// Runtime is everything a command needs once the configuration is loaded
type Runtime struct {
	Global     *config.GlobalConfig
	Document   *config.Document
	Monitor    *monitor.Monitor
	Dispatcher *lifecycle.Dispatcher
	// ProfileWatcher is nil when profile discovery is disabled
	ProfileWatcher *profiles.Watcher

	closers []func()
}

// OnClose registers a func run by Close, most recent first
func (r *Runtime) OnClose(fn func()) {
	r.closers = append(r.closers, fn)
}

// Close releases the runtime's resources
func (r *Runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
	r.closers = nil
}

// Services returns the monitored services in display order
func (r *Runtime) Services() []config.ServiceDescriptor {
	items := r.Monitor.Snapshot().Items
	out := make([]config.ServiceDescriptor, len(items))
	for i, item := range items {
		out[i] = item.Service
	}
	return out
}

// Factory builds a Runtime after flags are parsed
type Factory func(ctx context.Context, opts Options) (*Runtime, error)

// Loader resolves the runtime for a command invocation
type Loader func(ctx context.Context) (*Runtime, error)

// Connector resolves the status API client for a remote command
type Connector func() (*client.Client, error)

// Package cli wires the devmanager commands onto a cobra root command.
package cli

import (
	"context"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"devmanager/internal/cli/commands"
)

// Manager handles CLI operations
type Manager struct {
	factory commands.Factory
	opts    commands.Options
	rootCmd *cobra.Command
}

// New creates a CLI manager. factory builds the runtime once the global
// flags are known.
func New(factory commands.Factory) *Manager {
	m := &Manager{factory: factory}
	m.rootCmd = m.createRootCommand()
	m.setupCommands()
	return m
}

// SetOutput redirects command output, mostly for tests
func (m *Manager) SetOutput(out, errOut io.Writer) {
	m.rootCmd.SetOut(out)
	m.rootCmd.SetErr(errOut)
}

// Execute executes the CLI with the given arguments
func (m *Manager) Execute(args []string) error {
	return m.ExecuteWithContext(context.Background(), args)
}

// ExecuteWithContext executes the CLI with the given arguments and context
func (m *Manager) ExecuteWithContext(ctx context.Context, args []string) error {
	m.rootCmd.SetArgs(args)
	err := m.rootCmd.ExecuteContext(ctx)
	if err != nil && strings.HasPrefix(err.Error(), "unknown command") {
		m.rootCmd.PrintErrln(err.Error())
		m.rootCmd.PrintErr(m.rootCmd.UsageString())
	}
	return err
}

// load builds the runtime for the running command
func (m *Manager) load(ctx context.Context) (*commands.Runtime, error) {
	return m.factory(ctx, m.opts)
}

// setupCommands sets up all CLI commands
func (m *Manager) setupCommands() {
	groups := [][]*cobra.Command{
		commands.StatusCommands(m.load),
		commands.LifecycleCommands(m.load),
		commands.MonitorCommands(m.load),
		commands.ConfigCommands(m.load),
	}
	for _, group := range groups {
		for _, cmd := range group {
			m.rootCmd.AddCommand(cmd)
		}
	}

	// Add remote commands for a running status API
	remoteCmd := &cobra.Command{
		Use:   "remote",
		Short: "Drive a running devmanager server",
		Long: `Query and control a devmanager server started with 'devmanager serve'.
The server address comes from --server, DEVMANAGER_SERVER or config.toml.`,
	}
	remoteCmd.PersistentFlags().StringVar(&m.opts.Server, "server", "", "Status API URL (e.g. http://127.0.0.1:8089)")
	connect := commands.Connect(func() string { return m.opts.Server })
	for _, cmd := range commands.RemoteCommands(connect) {
		remoteCmd.AddCommand(cmd)
	}
	m.rootCmd.AddCommand(remoteCmd)
}

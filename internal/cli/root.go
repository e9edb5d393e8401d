package cli

import (
	"github.com/spf13/cobra"

	"devmanager/internal/constants"
	"devmanager/internal/errors"
	"devmanager/internal/logger"
)

// createRootCommand creates the root command with global flags
func (m *Manager) createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   constants.AppName,
		Short: "Local development service manager",
		Long: `devmanager starts, stops and monitors the services of a local development
environment. Services are declared in a services document; container runtime
profiles found on disk are added automatically.`,
		Version:       constants.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if m.opts.LogLevel != "" {
				logger.SetLevel(m.opts.LogLevel)
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// a bare invocation is a usage error
			cmd.PrintErr(cmd.UsageString())
			return errors.InvalidInput("", "a command")
		},
	}

	rootCmd.PersistentFlags().StringVarP(&m.opts.ConfigPath, "config", "c", "", "Path to the services document")
	rootCmd.PersistentFlags().StringVar(&m.opts.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")

	return rootCmd
}

package commands

import (
	"encoding/json"

	"github.com/spf13/cobra"
)

// StatusCommands creates the status and health-check commands
func StatusCommands(load Loader) []*cobra.Command {
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of all services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			return runStatus(cmd, load, "🔍 Service Status Report", asJSON)
		},
	}
	statusCmd.Flags().Bool("json", false, "Print the snapshot as JSON")

	healthCmd := &cobra.Command{
		Use:   "health-check",
		Short: "Run health checks on all services",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			asJSON, _ := cmd.Flags().GetBool("json")
			return runStatus(cmd, load, "🏥 Health Check Status", asJSON)
		},
	}
	healthCmd.Flags().Bool("json", false, "Print the snapshot as JSON")

	return []*cobra.Command{statusCmd, healthCmd}
}

func runStatus(cmd *cobra.Command, load Loader, title string, asJSON bool) error {
	rt, err := load(cmd.Context())
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := rt.Monitor.PollOnce(cmd.Context()); err != nil {
		return err
	}
	snap := rt.Monitor.Snapshot()

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(newStatusJSON(snap))
	}
	renderSnapshot(cmd.OutOrStdout(), title, snap)
	return nil
}

package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"devmanager/internal/client"
	"devmanager/internal/config"
	"devmanager/internal/constants"
	"devmanager/internal/errors"
	"devmanager/internal/lifecycle"
	"devmanager/internal/monitor"
	"devmanager/internal/server"
)

// ResolveServerURL picks the status API address: explicit flag, then the
// environment, then the server section of config.toml
func ResolveServerURL(flag string) string {
	if flag != "" {
		return flag
	}
	if env := os.Getenv(constants.EnvServerURL); env != "" {
		return env
	}
	host, port := constants.DefaultServerHost, constants.DefaultServerPort
	if global, err := config.LoadGlobalConfig(); err == nil {
		host, port = global.Server.Host, global.Server.Port
	}
	return fmt.Sprintf("http://%s:%d", host, port)
}

// Connect returns a Connector for a server URL resolved at call time
func Connect(serverURL func() string) Connector {
	return func() (*client.Client, error) {
		return client.New(ResolveServerURL(serverURL()))
	}
}

// RemoteCommands creates commands that drive a running status API
func RemoteCommands(connect Connector) []*cobra.Command {
	commands := []*cobra.Command{}

	// devmanager remote status
	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show the server's status snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect()
			if err != nil {
				return err
			}

			var resp *server.StatusResponse
			if refresh, _ := cmd.Flags().GetBool("refresh"); refresh {
				resp, err = c.Poll(cmd.Context())
			} else {
				resp, err = c.Status(cmd.Context())
			}
			if err != nil {
				return err
			}

			snap := snapshotFromResponse(resp)
			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(newStatusJSON(snap))
			}
			renderSnapshot(cmd.OutOrStdout(), "🔍 Service Status Report", snap)
			return nil
		},
	}
	statusCmd.Flags().Bool("refresh", false, "Run a polling pass before reading the snapshot")
	statusCmd.Flags().Bool("json", false, "Print the snapshot as JSON")
	commands = append(commands, statusCmd)

	for _, action := range []lifecycle.Action{lifecycle.ActionStart, lifecycle.ActionStop, lifecycle.ActionRestart} {
		commands = append(commands, &cobra.Command{
			Use:   string(action) + " <service>",
			Short: fmt.Sprintf("Ask the server to %s a service", action),
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := connect()
				if err != nil {
					return err
				}

				resp, err := c.Action(cmd.Context(), args[0], action)
				if err != nil {
					if action == lifecycle.ActionStop && errors.HasCode(err, errors.ErrCommandFailed) {
						fmt.Fprintf(cmd.ErrOrStderr(), "⚠️  %v\n", err)
						return nil
					}
					return err
				}

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "  ✅ %s %s (%dms)\n", resp.Action, resp.Service, resp.DurationMs)
				if resp.Current != nil {
					fmt.Fprintln(out, statusLine(itemFromView(*resp.Current)))
				}
				return nil
			},
		})
	}

	// devmanager remote watch
	commands = append(commands, &cobra.Command{
		Use:   "watch",
		Short: "Follow the server's snapshot stream",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := connect()
			if err != nil {
				return err
			}
			return c.Stream(cmd.Context(), func(resp server.StatusResponse) {
				renderSnapshot(cmd.OutOrStdout(), "🔍 Service Status Report", snapshotFromResponse(&resp))
			})
		},
	})

	return commands
}

func snapshotFromResponse(resp *server.StatusResponse) monitor.Snapshot {
	snap := monitor.Snapshot{
		Overall: resp.Overall,
		State:   resp.State,
		Pass:    resp.Pass,
		Items:   make([]monitor.Item, 0, len(resp.Services)),
	}
	if resp.LastUpdate != nil {
		snap.LastUpdate = *resp.LastUpdate
	}
	for _, view := range resp.Services {
		snap.Items = append(snap.Items, itemFromView(view))
	}
	return snap
}

func itemFromView(view server.ServiceView) monitor.Item {
	return monitor.Item{
		Service: config.ServiceDescriptor{
			ID:            view.ID,
			Name:          view.Name,
			DisplayName:   view.DisplayName,
			Type:          view.Type,
			Critical:      view.Critical,
			StartupOrder:  view.StartupOrder,
			ColimaProfile: view.Profile,
		},
		Status: view.Status,
	}
}

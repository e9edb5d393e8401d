package commands

import (
	stderrors "errors"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"devmanager/internal/constants"
	"devmanager/internal/logger"
	"devmanager/internal/server"
)

var errServerStopped = stderrors.New("server stopped")

// MonitorCommands creates the long-running watch and serve commands
func MonitorCommands(load Loader) []*cobra.Command {
	// devmanager watch
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll services continuously and print each snapshot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, load)
		},
	}

	// devmanager serve
	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the status API server",
		Long: `Run the status API server. Services are polled in the background and
snapshots are served over HTTP and streamed over a WebSocket.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, load)
		},
	}
	serveCmd.Flags().String("host", "", "Address to bind (default from config.toml)")
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (default from config.toml)")

	return []*cobra.Command{watchCmd, serveCmd}
}

func runWatch(cmd *cobra.Command, load Loader) error {
	ctx := cmd.Context()
	rt, err := load(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	updates, unsubscribe := rt.Monitor.Subscribe(constants.SubscriberBuffer)
	defer unsubscribe()

	g, gctx := errgroup.WithContext(ctx)
	if rt.ProfileWatcher != nil {
		g.Go(func() error {
			return rt.ProfileWatcher.Run(gctx)
		})
	}

	rt.Monitor.Start(gctx)
	defer rt.Monitor.Stop()

	g.Go(func() error {
		for {
			select {
			case <-gctx.Done():
				return nil
			case snap := <-updates:
				renderSnapshot(cmd.OutOrStdout(), "🔍 Service Status Report", snap)
			}
		}
	})

	return g.Wait()
}

func runServe(cmd *cobra.Command, load Loader) error {
	ctx := cmd.Context()
	rt, err := load(ctx)
	if err != nil {
		return err
	}
	defer rt.Close()

	cfg := server.ConfigFrom(rt.Global)
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Host = host
	}
	if port, _ := cmd.Flags().GetInt("port"); port != 0 {
		cfg.Port = port
	}
	srv := server.New(cfg, rt.Monitor, rt.Dispatcher)

	g, gctx := errgroup.WithContext(ctx)
	if rt.ProfileWatcher != nil {
		g.Go(func() error {
			return rt.ProfileWatcher.Run(gctx)
		})
	}

	rt.Monitor.Start(gctx)
	defer rt.Monitor.Stop()

	g.Go(func() error {
		err := srv.Start(gctx)
		// the server also returns on SIGINT; take the watcher down with it
		if err == nil {
			err = errServerStopped
		}
		return err
	})

	logger.WithField("addr", srv.Addr()).Debug("Serving status API")
	if err := g.Wait(); err != nil && !stderrors.Is(err, errServerStopped) {
		return err
	}
	return nil
}

package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/docqa/internal/config"
	"github.com/Aman-CERP/docqa/internal/engine"
	qaerrors "github.com/Aman-CERP/docqa/internal/errors"
	"github.com/Aman-CERP/docqa/internal/logging"
	"github.com/Aman-CERP/docqa/internal/mcp"
	"github.com/Aman-CERP/docqa/internal/telemetry"
	"github.com/Aman-CERP/docqa/internal/watcher"
)

func newServeCmd() *cobra.Command {
	var noWatch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the MCP server",
		Long: `Start the Model Context Protocol server on stdio.

The server exposes the answer_context and snapshot_info tools and the
docqa://query_metrics resource. It watches the snapshot file and swaps in a
rebuilt snapshot without dropping requests. If no snapshot exists yet it
still starts and picks one up as soon as 'docqa build' writes it.

stdout carries JSON-RPC only; logs go to ~/.docqa/logs/docqa.log.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if noWatch {
				cfg.Snapshot.Watch = false
			}

			if !debugMode {
				cleanup, err := logging.SetupServeMode(cfg.Server.LogLevel)
				if err != nil {
					return err
				}
				defer cleanup()
			}

			return runServe(ctx, cfg)
		},
	}

	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "Do not reload the snapshot when it changes")

	return cmd
}

// serveDeps are the long-lived pieces of `docqa serve`.
type serveDeps struct {
	holder   *engine.Holder
	reloader *watcher.Reloader
	server   *mcp.Server
}

// prepareServe wires the engine holder, reloader and MCP server and loads
// the initial snapshot. A missing snapshot is not an error; any other load
// failure is fatal unless the watcher can recover from it.
func prepareServe(ctx context.Context, cfg *config.Config) (*serveDeps, error) {
	metrics := telemetry.NewQueryMetrics()
	holder := engine.NewHolder(nil)
	reloader := &watcher.Reloader{
		Holder: holder,
		Path:   cfg.Snapshot.Path,
		Load:   loadOptions(cfg),
		Engine: engineOptions(cfg, metrics),
	}

	if err := reloader.Reload(ctx); err != nil {
		switch {
		case qaerrors.GetCode(err) == qaerrors.ErrCodeSnapshotNotFound:
			slog.Warn("snapshot_missing",
				slog.String("path", cfg.Snapshot.Path),
				slog.Bool("watch", cfg.Snapshot.Watch))
		case cfg.Snapshot.Watch:
			slog.Error("snapshot_load_failed", qaerrors.FormatForLog(err)...)
		default:
			return nil, err
		}
	}

	server, err := mcp.NewServer(holder, cfg, metrics)
	if err != nil {
		return nil, err
	}
	return &serveDeps{holder: holder, reloader: reloader, server: server}, nil
}

// newWatcher creates the snapshot watcher. With no engine loaded it reloads
// once on start, which picks up a build that finished after the initial load.
func (d *serveDeps) newWatcher(cfg *config.Config) (*watcher.SnapshotWatcher, error) {
	return watcher.New(cfg.Snapshot.Path, watcher.Options{
		Debounce:         cfg.Snapshot.WatchDebounce,
		TriggerIfPresent: d.holder.Load() == nil,
	}, d.reloader.Reload)
}

// runServe runs the MCP server and, when enabled, the snapshot watcher. The
// watcher stops when the client disconnects.
func runServe(ctx context.Context, cfg *config.Config) error {
	deps, err := prepareServe(ctx, cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return deps.server.Serve(gctx, cfg.Server.Transport)
	})

	if cfg.Snapshot.Watch {
		w, err := deps.newWatcher(cfg)
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			return w.Run(gctx)
		})
	}

	return g.Wait()
}

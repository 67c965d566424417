package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/daemon"
	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/renamer"
	"github.com/Nomadcxx/jellyrename/internal/ui"
	"github.com/Nomadcxx/jellyrename/internal/watcher"
	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	var (
		healthAddr  string
		settleDelay time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Rename new episodes as they appear",
		Long: `Watch directories and rename episode files once they have finished
copying. Paths default to watch.paths from the config file.

A small status server reports health, counters and recent sessions:
  GET /health
  GET /api/v1/stats
  GET /api/v1/history?limit=20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			opts, err := resolveOptions(cmd, cfg)
			if err != nil {
				return err
			}

			watchPaths := cfg.Watch.Paths
			if len(args) > 0 {
				watchPaths = args
			}
			if len(watchPaths) == 0 {
				return fmt.Errorf("no watch paths: pass directories or set watch.paths in the config")
			}
			for i, p := range watchPaths {
				abs, err := filepath.Abs(p)
				if err != nil {
					return err
				}
				watchPaths[i] = abs
			}

			if !cmd.Flags().Changed("addr") {
				healthAddr = cfg.Watch.HealthAddr
			}
			if !cmd.Flags().Changed("settle") {
				settleDelay = cfg.Watch.SettleDelay
			}

			logger := newLogger(cfg, true)
			defer logger.Close()

			ctx, cancel := signalContext()
			defer cancel()

			r, db, cleanup, err := buildRenamer(cfg, opts, logger)
			if err != nil {
				return err
			}
			defer cleanup()

			handler := renamer.NewWatchHandler(ctx, r, logger)

			w, err := watcher.NewWatcher(handler,
				watcher.WithSettleDelay(settleDelay),
				watcher.WithLogger(logger),
			)
			if err != nil {
				return err
			}

			var server *daemon.Server
			if healthAddr != "" {
				var hist daemon.HistorySource
				if db != nil {
					hist = db
				}
				server = daemon.NewServer(handler, hist, w.WatchList, healthAddr, logger)
			}

			ui.InfoMsg("Watching %d director%s (format: %s)", len(watchPaths), plural(len(watchPaths), "y", "ies"), opts.format)
			for _, p := range watchPaths {
				ui.Line("%s", ui.Path(p))
			}
			if healthAddr != "" {
				ui.InfoMsg("Status server on http://%s/health", healthAddr)
			}
			if dryRun {
				ui.WarningMsg("DRY RUN MODE - No changes will be made")
			}

			d := daemon.New(w, server, watchPaths, logger)
			if err := d.Run(ctx); err != nil {
				logger.Error("daemon", "stopped with error", err)
				return err
			}

			stats := handler.Stats()
			logger.Info("daemon", "stopped",
				logging.F("processed", stats.Processed),
				logging.F("renamed", stats.Renamed),
				logging.F("failed", stats.Failed))
			ui.SuccessMsg("Stopped after %d files (%d renamed, %d failed)", stats.Processed, stats.Renamed, stats.Failed)
			return nil
		},
	}

	addRenameFlags(cmd)
	cmd.Flags().StringVar(&healthAddr, "addr", "", "status server address (default from config, empty disables)")
	cmd.Flags().DurationVar(&settleDelay, "settle", watcher.DefaultSettleDelay, "how long a file must stop changing before it is renamed")

	return cmd
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

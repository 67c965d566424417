// Package daemon runs watch mode: the file watcher feeding the renamer and
// a small HTTP status server.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/watcher"
)

// Daemon manages the background service
type Daemon struct {
	watcher *watcher.Watcher
	server  *Server
	paths   []string
	logger  *logging.Logger
}

// New creates a Daemon. server may be nil to run without the status API.
func New(w *watcher.Watcher, server *Server, paths []string, logger *logging.Logger) *Daemon {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Daemon{
		watcher: w,
		server:  server,
		paths:   paths,
		logger:  logger,
	}
}

// Run watches until ctx is cancelled or the watcher fails.
func (d *Daemon) Run(ctx context.Context) error {
	if len(d.paths) == 0 {
		return errors.New("no watch paths configured")
	}

	if err := d.watcher.Watch(d.paths); err != nil {
		return err
	}

	d.logger.Info("daemon", "Starting jellyrename watch mode", logging.F("paths", d.paths))

	errChan := make(chan error, 2)
	if d.server != nil {
		go func() {
			errChan <- d.server.Start()
		}()
	}
	go func() {
		errChan <- d.watcher.Start(ctx)
	}()

	var runErr error
	select {
	case <-ctx.Done():
		d.logger.Info("daemon", "Shutdown requested")
	case err := <-errChan:
		if err != nil {
			runErr = fmt.Errorf("watch mode error: %w", err)
		}
	}

	if err := d.Stop(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Stop stops the daemon
func (d *Daemon) Stop() error {
	d.logger.Info("daemon", "Stopping jellyrename watch mode")

	if d.server != nil {
		d.server.SetHealthy(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := d.server.Shutdown(shutdownCtx); err != nil {
			d.logger.Warn("daemon", "health server shutdown", logging.F("error", err.Error()))
		}
	}

	if err := d.watcher.Close(); err != nil {
		return fmt.Errorf("error closing watcher: %w", err)
	}
	return nil
}

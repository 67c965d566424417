package renamer

import (
	"context"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/Nomadcxx/jellyrename/internal/watcher"
)

// WatchStats are the counters exposed by the daemon.
type WatchStats struct {
	Processed int64 `json:"processed"`
	Renamed   int64 `json:"renamed"`
	Failed    int64 `json:"failed"`
	Skipped   int64 `json:"skipped"`
}

// WatchHandler renames files reported by the watcher. Each directory gets
// its own session, kept for the life of the process so duplicate titles
// are still detected across events.
type WatchHandler struct {
	renamer *Renamer
	logger  *logging.Logger
	ctx     context.Context

	mu       sync.Mutex
	sessions map[string]*Session
	// names this handler created; their own create events are ignored once
	produced map[string]struct{}

	processed atomic.Int64
	renamed   atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
}

// NewWatchHandler wraps r for use with the watcher.
func NewWatchHandler(ctx context.Context, r *Renamer, logger *logging.Logger) *WatchHandler {
	if logger == nil {
		logger = logging.Nop()
	}
	return &WatchHandler{
		renamer:  r,
		logger:   logger,
		ctx:      ctx,
		sessions: make(map[string]*Session),
		produced: make(map[string]struct{}),
	}
}

// IsMediaFile reports whether the watcher should forward events for path.
func (h *WatchHandler) IsMediaFile(path string) bool {
	return IsVideoFile(path)
}

// HandleFileEvent renames the file named in the event.
func (h *WatchHandler) HandleFileEvent(event watcher.FileEvent) error {
	if event.Type == watcher.EventDelete {
		return nil
	}

	dir := filepath.Dir(event.Path)

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.produced[event.Path]; ok {
		delete(h.produced, event.Path)
		h.logger.Debug("watch", "ignoring own rename", logging.F("path", event.Path))
		return nil
	}

	sess, ok := h.sessions[dir]
	if !ok {
		sess = h.renamer.NewSession(dir)
		sess.discardResults = true
		h.sessions[dir] = sess
	}

	res := h.renamer.ProcessFile(h.ctx, sess, event.Path)
	h.processed.Add(1)

	switch {
	case res.Renamed():
		h.renamed.Add(1)
		if !h.renamer.DryRun() {
			h.produced[res.NewPath] = struct{}{}
		}
		h.logger.Info("watch", "renamed", logging.F("from", filepath.Base(res.OldPath)), logging.F("to", filepath.Base(res.NewPath)))
	case res.Skipped:
		h.skipped.Add(1)
		h.logger.Debug("watch", "skipped", logging.F("path", res.OldPath), logging.F("reason", res.Message))
	case !res.Success:
		h.failed.Add(1)
		h.logger.Warn("watch", "rename failed", logging.F("path", res.OldPath), logging.F("reason", res.Message))
	}

	return nil
}

// Stats returns a snapshot of the counters.
func (h *WatchHandler) Stats() WatchStats {
	return WatchStats{
		Processed: h.processed.Load(),
		Renamed:   h.renamed.Load(),
		Failed:    h.failed.Load(),
		Skipped:   h.skipped.Load(),
	}
}

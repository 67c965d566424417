// Package watcher reports new video files under a set of directories once
// they have stopped changing.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Nomadcxx/jellyrename/internal/logging"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettleDelay is how long a file must be quiet before it is handled.
const DefaultSettleDelay = 2 * time.Second

type EventType string

const (
	EventCreate EventType = "create"
	EventWrite  EventType = "write"
	EventMove   EventType = "move"
	EventDelete EventType = "delete"
)

type FileEvent struct {
	Type EventType
	Path string
}

type Handler interface {
	HandleFileEvent(event FileEvent) error
	IsMediaFile(path string) bool
}

type Watcher struct {
	fsWatcher   *fsnotify.Watcher
	handler     Handler
	logger      *logging.Logger
	recursive   bool
	settleDelay time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

type Option func(*Watcher)

func WithRecursive(recursive bool) Option {
	return func(w *Watcher) {
		w.recursive = recursive
	}
}

// WithSettleDelay sets the quiet period before a file is handled
func WithSettleDelay(d time.Duration) Option {
	return func(w *Watcher) {
		if d >= 0 {
			w.settleDelay = d
		}
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) {
		if l != nil {
			w.logger = l
		}
	}
}

func NewWatcher(handler Handler, opts ...Option) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("unable to create watcher: %w", err)
	}

	w := &Watcher{
		fsWatcher:   fsWatcher,
		handler:     handler,
		logger:      logging.Nop(),
		recursive:   true,
		settleDelay: DefaultSettleDelay,
		pending:     make(map[string]*time.Timer),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

func (w *Watcher) Watch(paths []string) error {
	for _, path := range paths {
		if w.recursive {
			if err := w.addRecursive(path); err != nil {
				return err
			}
		} else {
			if err := w.fsWatcher.Add(path); err != nil {
				return fmt.Errorf("unable to watch %s: %w", path, err)
			}
			w.logger.Info("watcher", "watching", logging.F("path", path))
		}
	}
	return nil
}

// WatchList returns the directories currently watched.
func (w *Watcher) WatchList() []string {
	return w.fsWatcher.WatchList()
}

func (w *Watcher) addRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return fmt.Errorf("unable to watch %s: %w", root, err)
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(filepath.Base(path), ".") {
			return filepath.SkipDir
		}
		if err := w.fsWatcher.Add(path); err != nil {
			return fmt.Errorf("unable to watch %s: %w", path, err)
		}
		w.logger.Debug("watcher", "watching", logging.F("path", path))
		return nil
	})
}

// Start processes events until ctx is cancelled or the watcher is closed.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info("watcher", "started", logging.F("directories", len(w.fsWatcher.WatchList())), logging.F("settle_delay", w.settleDelay.String()))

	for {
		select {
		case <-ctx.Done():
			w.stopPending()
			return nil

		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				w.stopPending()
				return errors.New("watcher events channel closed")
			}

			if event.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if w.recursive && !strings.HasPrefix(filepath.Base(event.Name), ".") {
						if err := w.addRecursive(event.Name); err != nil {
							w.logger.Warn("watcher", "could not watch new directory", logging.F("path", event.Name), logging.F("error", err.Error()))
						} else {
							w.logger.Info("watcher", "now watching new directory", logging.F("path", event.Name))
						}
						w.scheduleExisting(event.Name)
					}
					continue
				}
			}

			w.handleEvent(event)

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				w.stopPending()
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("watcher", "watcher error", err)
		}
	}
}

// Close stops the watcher and waits for in-flight handlers.
func (w *Watcher) Close() error {
	w.stopPending()
	err := w.fsWatcher.Close()
	w.wg.Wait()
	return err
}

func eventType(op fsnotify.Op) EventType {
	switch {
	case op&fsnotify.Create == fsnotify.Create:
		return EventCreate
	case op&fsnotify.Write == fsnotify.Write:
		return EventWrite
	case op&fsnotify.Rename == fsnotify.Rename:
		return EventMove
	case op&fsnotify.Remove == fsnotify.Remove:
		return EventDelete
	}
	return ""
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !w.handler.IsMediaFile(event.Name) {
		return
	}

	typ := eventType(event.Op)
	switch typ {
	case EventCreate, EventWrite:
		w.schedule(typ, event.Name)
	case EventMove, EventDelete:
		// the old name is gone; a move also produces a create for the new name
		w.cancel(event.Name)
	}
}

// scheduleExisting queues media files already present in a directory that
// was moved into a watched tree in one piece.
func (w *Watcher) scheduleExisting(dir string) {
	_ = filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil || info.IsDir() {
			return nil
		}
		if w.handler.IsMediaFile(path) {
			w.schedule(EventCreate, path)
		}
		return nil
	})
}

func (w *Watcher) schedule(typ EventType, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(w.settleDelay, func() {
		w.mu.Lock()
		if w.pending[path] != timer {
			// superseded by a later event
			w.mu.Unlock()
			return
		}
		delete(w.pending, path)
		w.wg.Add(1)
		w.mu.Unlock()
		defer w.wg.Done()

		w.fire(FileEvent{Type: typ, Path: path})
	})
	w.pending[path] = timer
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
}

func (w *Watcher) fire(event FileEvent) {
	if _, err := os.Stat(event.Path); err != nil {
		return
	}

	w.logger.Debug("watcher", "event", logging.F("type", string(event.Type)), logging.F("file", filepath.Base(event.Path)))

	if err := w.handler.HandleFileEvent(event); err != nil {
		w.logger.Error("watcher", "error handling event", err, logging.F("path", event.Path))
	}
}

// Pending returns the number of files waiting for their settle delay.
func (w *Watcher) Pending() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

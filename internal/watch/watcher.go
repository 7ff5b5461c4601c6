// SPDX-License-Identifier: MIT

// Package watch notifies a development session when the configuration
// source file changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/ManuGH/confmod/internal/source"
)

// defaultDebounce is the quiet period after the last filesystem event
// before the change callback fires, coalescing editor write bursts
// (write + rename of a temp file) into a single notification.
const defaultDebounce = 500 * time.Millisecond

// Config holds the parameters for a Watcher.
type Config struct {
	// Path is the resolved source file path. Empty disables watching.
	Path string

	// Debounce overrides the quiet period. Zero or negative values fall
	// back to defaultDebounce.
	Debounce time.Duration

	// OnChange is invoked once per debounced burst of changes to Path.
	OnChange func()

	Logger zerolog.Logger
}

// Watcher observes the parent directory of the source file, so editors
// that replace the file by rename and deletions followed by re-creation
// keep notifications flowing without re-arming.
type Watcher struct {
	cfg     Config
	path    string
	fsw     *fsnotify.Watcher
	started atomic.Bool
}

// New creates a watcher for the configured source path.
func New(cfg Config) *Watcher {
	if cfg.Debounce <= 0 {
		cfg.Debounce = defaultDebounce
	}
	path := cfg.Path
	if path != "" {
		path = filepath.Clean(path)
	}
	return &Watcher{cfg: cfg, path: path}
}

// Start begins watching and returns immediately; the watch loop runs
// until ctx is cancelled. A watcher without a path is a no-op. Start
// must be called at most once.
func (w *Watcher) Start(ctx context.Context) error {
	if w.path == "" {
		w.cfg.Logger.Info().
			Str("event", "watch.disabled").
			Msg("no source path configured, watcher disabled")
		return nil
	}
	if !w.started.CompareAndSwap(false, true) {
		return fmt.Errorf("watcher already started")
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.path)); err != nil {
		_ = fsw.Close() // Ignore close error in error path
		return fmt.Errorf("watch source directory: %w", err)
	}
	w.fsw = fsw

	w.cfg.Logger.Info().
		Str("event", "watch.started").
		Str("path", w.path).
		Msg("watching config source for changes")

	go w.loop(ctx)
	return nil
}

// loop is the main file watcher loop.
func (w *Watcher) loop(ctx context.Context) {
	var debounceTimer *time.Timer

	for {
		select {
		case <-ctx.Done():
			w.cfg.Logger.Info().Str("event", "watch.stopped").Msg("config source watcher stopped")
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			_ = w.fsw.Close() // Ignore close error on shutdown
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}

			// Every mutation of the source counts as a change: writes,
			// creates after deletion, renames from editor temp files and
			// removals (which degrade the value to an empty object).
			w.cfg.Logger.Debug().
				Str("event", "watch.source_changed").
				Str("op", event.Op.String()).
				Msg("config source changed")

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(w.cfg.Debounce, w.fire)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.cfg.Logger.Error().
				Err(err).
				Str("event", "watch.error").
				Msg("config source watcher error")
		}
	}
}

// fire invokes the change callback, keeping the watcher alive when the
// callback panics.
func (w *Watcher) fire() {
	defer func() {
		if r := recover(); r != nil {
			w.cfg.Logger.Error().
				Str("event", "watch.callback_panic").
				Str("reason", source.Message(r)).
				Msg("change callback panicked")
		}
	}()
	if w.cfg.OnChange != nil {
		w.cfg.OnChange()
	}
}

// Stop closes the underlying watcher. Cancelling the Start context is
// the normal shutdown path; Stop exists for callers without one.
func (w *Watcher) Stop() {
	if w.fsw != nil {
		_ = w.fsw.Close() // Ignore close error on shutdown
	}
}

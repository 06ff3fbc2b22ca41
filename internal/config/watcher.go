package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce collapses the burst of events an editor produces on save.
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a settings file into a Holder whenever the file changes.
type Watcher struct {
	path     string
	holder   *Holder
	logger   *zap.Logger
	debounce time.Duration
}

// NewWatcher creates a watcher for path publishing into holder.
func NewWatcher(path string, holder *Holder, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return &Watcher{
		path:     filepath.Clean(path),
		holder:   holder,
		logger:   logger.Named("config"),
		debounce: DefaultDebounce,
	}
}

// Path returns the watched settings file.
func (w *Watcher) Path() string {
	return w.path
}

// Reload reads the settings file and publishes it if it differs from the
// active snapshot. On error the active snapshot is kept.
func (w *Watcher) Reload() (changed bool, err error) {
	s, err := LoadFile(w.path)
	if err != nil {
		return false, err
	}
	for _, msg := range s.Warnings {
		w.logger.Warn("settings field ignored", zap.String("path", w.path), zap.String("detail", msg))
	}
	if Equal(s, w.holder.Load()) {
		return false, nil
	}

	w.holder.Store(s)
	w.logger.Info("settings reloaded", zap.String("path", w.path))
	return true, nil
}

// Run watches the directory holding the settings file until ctx is done.
// The directory is watched rather than the file so that editors replacing
// the file by rename keep being observed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				fire = time.After(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", zap.Error(err))

		case <-fire:
			fire = nil
			if _, err := w.Reload(); err != nil {
				w.logger.Warn("settings reload failed, keeping previous settings", zap.Error(err))
			}
		}
	}
}

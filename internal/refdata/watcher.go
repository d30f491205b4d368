package refdata

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/labtriage/internal/logger"
	"github.com/custodia-labs/labtriage/internal/metrics"
)

// DefaultDebounce collapses the burst of events an editor save produces.
const DefaultDebounce = 250 * time.Millisecond

// Watcher reloads a Manager when the reference files in a directory change.
type Watcher struct {
	manager  *Manager
	dir      string
	debounce time.Duration
	fs       *fsnotify.Watcher
}

// NewWatcher watches dir. The directory is watched rather than the files so
// replacements by rename are seen.
func NewWatcher(manager *Manager, dir string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{manager: manager, dir: dir, debounce: debounce, fs: fw}, nil
}

// Run reloads on change until ctx is done. Failed reloads are logged and
// the previous snapshot stays active.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fs.Close()

	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if w.handleFsEvent(ev) {
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			logger.Warn("refdata: watcher error: %v", err)

		case <-timer.C:
			_, err := w.manager.Reload(ctx)
			metrics.RecordReload(err)
			if err != nil {
				logger.Warn("refdata: keeping version %s: %v", w.manager.Current().Version(), err)
			}
		}
	}
}

// Close stops watching without waiting for Run.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// handleFsEvent reports whether ev touches a reference file.
func (w *Watcher) handleFsEvent(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
		!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	if filepath.Dir(ev.Name) != filepath.Clean(w.dir) {
		return false
	}
	switch filepath.Base(ev.Name) {
	case MarkersFile, ThresholdsFile:
		logger.Debug("refdata: %s %s", ev.Op, ev.Name)
		return true
	}
	return false
}

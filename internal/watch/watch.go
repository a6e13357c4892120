// Package watch reloads the caught state when its JSON document changes on
// disk, so hand edits made while the server runs are picked up.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"dextracker/internal/logging"
	"dextracker/internal/metrics"
)

const defaultDebounce = 250 * time.Millisecond

// Reloader re-reads persisted state, reporting whether memory changed.
type Reloader interface {
	Reload(ctx context.Context) (bool, error)
}

// Watcher watches one file through its parent directory.
type Watcher struct {
	path     string
	watcher  *fsnotify.Watcher
	reloader Reloader
	logger   *logging.Logger
	recorder metrics.Recorder
	debounce time.Duration
}

// New starts watching the directory containing path. Run must be called to
// process events.
func New(path string, reloader Reloader, logger *logging.Logger, recorder metrics.Recorder) (*Watcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve state path: %w", err)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	// Watching the directory survives the rename-over writes the file store does.
	dir := filepath.Dir(absPath)
	if err := fw.Add(dir); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", dir, err)
	}
	if logger == nil {
		logger = logging.Discard()
	}
	if recorder == nil {
		recorder = metrics.NoopRecorder{}
	}
	return &Watcher{
		path:     absPath,
		watcher:  fw,
		reloader: reloader,
		logger:   logger,
		recorder: recorder,
		debounce: defaultDebounce,
	}, nil
}

// Run processes events until ctx is cancelled, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer func() { _ = w.watcher.Close() }()
	w.logger.Info("watching state file", "path", w.path)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.reload(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) reload(ctx context.Context) {
	changed, err := w.reloader.Reload(ctx)
	switch {
	case err != nil:
		w.recorder.IncReload(metrics.ResultFailure)
		w.logger.Warn("state file changed but could not be reloaded", "error", err)
	case changed:
		w.recorder.IncReload(metrics.ResultChanged)
		w.logger.Info("state file changed on disk, reloaded")
	default:
		w.recorder.IncReload(metrics.ResultSame)
	}
}

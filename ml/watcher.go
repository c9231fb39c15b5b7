package ml

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher reports on-disk changes to the model artifact. The loaded model
// is never swapped; the service must be restarted to pick up a new file.
type Watcher struct {
	path     string
	logger   *zap.Logger
	onChange func(fsnotify.Event)
}

// NewWatcher watches path. onChange may be nil.
func NewWatcher(path string, logger *zap.Logger, onChange func(fsnotify.Event)) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{path: path, logger: logger, onChange: onChange}
}

// Run blocks until ctx is done. The parent directory is watched so that
// editors which replace the file by rename are still observed.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	target := filepath.Clean(w.path)
	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
				!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			w.logger.Warn("Model artifact changed on disk; restart to apply",
				zap.String("path", target), zap.String("op", event.Op.String()))
			if w.onChange != nil {
				w.onChange(event)
			}
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Model watcher error", zap.Error(err))
		}
	}
}

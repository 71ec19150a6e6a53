package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/trustflow/pkg/logging"
)

// ChangeEvent represents a change to the watched scenario file
type ChangeEvent struct {
	Path      string
	Timestamp time.Time
}

// FileWatcher watches a scenario file for changes. The containing
// directory is watched rather than the file itself, because most
// editors replace the file on save which would drop a file watch.
type FileWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	events  chan ChangeEvent
}

// NewFileWatcher creates a new file system watcher for a scenario file
func NewFileWatcher(path string) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scenario path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher: watcher,
		path:    abs,
		events:  make(chan ChangeEvent, 100),
	}

	return fw, nil
}

// Start begins watching for file changes
func (fw *FileWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(fw.path)
	if err := fw.watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	logging.Info("watching scenario file", "path", fw.path)

	// Process events
	go fw.processEvents(ctx)

	return nil
}

// processEvents filters directory events down to the watched file
func (fw *FileWatcher) processEvents(ctx context.Context) {
	base := filepath.Base(fw.path)

	for {
		select {
		case <-ctx.Done():
			fw.watcher.Close()
			close(fw.events)
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				close(fw.events)
				return
			}

			if filepath.Base(event.Name) != base {
				continue
			}
			// Chmod alone does not change content
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Rename) {
				continue
			}

			logging.Debug("scenario file changed", "path", event.Name, "op", event.Op.String())
			fw.events <- ChangeEvent{
				Path:      fw.path,
				Timestamp: time.Now(),
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				close(fw.events)
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Stop stops the file watcher
func (fw *FileWatcher) Stop() error {
	return fw.watcher.Close()
}

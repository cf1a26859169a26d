// Package watcher monitors the transcript directory and feeds new
// transcripts to a handler, one at a time, matching the pipeline's
// single-worker model.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/afiuh/BiliVideoAnalyzer/internal/logger"
)

type implWatcher struct {
	dir     string
	handler EventHandler
	logger  logger.Logger
	watcher *fsnotify.Watcher
}

// New creates a Watcher over the transcript directory.
func New(dir string, handler EventHandler, log logger.Logger) (Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	return &implWatcher{
		dir:     dir,
		handler: handler,
		logger:  log,
		watcher: fsw,
	}, nil
}

// Start blocks, dispatching each newly created transcript to the handler
// until the context is cancelled.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "watching for new transcripts: %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "transcript watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}

			if event.Op&fsnotify.Create != fsnotify.Create {
				continue
			}
			if !isTranscript(event.Name) {
				w.logger.Debug(ctx, "ignoring non-transcript file: %s", event.Name)
				continue
			}

			w.logger.Info(ctx, "new transcript detected: %s", event.Name)

			// Small delay so the file is fully written before reading.
			time.Sleep(500 * time.Millisecond)

			if err := w.handler(ctx, event.Name); err != nil {
				w.logger.Error(ctx, "failed to process %s: %v", event.Name, err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "watcher error: %v", err)
		}
	}
}

// Stop closes the underlying file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

func isTranscript(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".txt")
}

// Package watcher processes documents dropped into a folder.
package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/pep299/clarify/internal/document"
	"github.com/pep299/clarify/internal/logger"
)

// EventHandler handles one new file.
type EventHandler func(ctx context.Context, filePath string) error

// DefaultSettle is how long a new file is left alone before processing so the
// writer can finish.
const DefaultSettle = 500 * time.Millisecond

// Watcher monitors a directory for new PDF and DOCX files.
type Watcher struct {
	inputDir      string
	handler       EventHandler
	logger        logger.Logger
	watcher       *fsnotify.Watcher
	maxConcurrent int
	settle        time.Duration
}

// New creates a Watcher running at most maxConcurrent handlers at once.
func New(inputDir string, handler EventHandler, log logger.Logger, maxConcurrent int) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := fw.Add(inputDir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if maxConcurrent <= 0 {
		maxConcurrent = 2
	}
	if log == nil {
		log = logger.Nop()
	}

	return &Watcher{
		inputDir:      inputDir,
		handler:       handler,
		logger:        log,
		watcher:       fw,
		maxConcurrent: maxConcurrent,
		settle:        DefaultSettle,
	}, nil
}

// SetSettle changes the delay between a file appearing and its processing.
func (w *Watcher) SetSettle(d time.Duration) {
	w.settle = d
}

// Start blocks until ctx is done, then waits for in-flight handlers.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Info(ctx, "File watcher started (max concurrent: %d). Monitoring: %s", w.maxConcurrent, w.inputDir)

	var g errgroup.Group
	g.SetLimit(w.maxConcurrent)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info(ctx, "Waiting for ongoing processing to complete...")
			g.Wait()
			w.logger.Info(ctx, "File watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				g.Wait()
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Has(fsnotify.Create) {
				continue
			}
			if !document.Supported(event.Name) {
				w.logger.Debug(ctx, "Ignoring unsupported file: %s", event.Name)
				continue
			}

			w.logger.Info(ctx, "New document detected: %s", event.Name)
			path := event.Name
			// Go blocks while maxConcurrent handlers are running.
			g.Go(func() error {
				select {
				case <-time.After(w.settle):
				case <-ctx.Done():
					return nil
				}
				if err := w.handler(ctx, path); err != nil {
					w.logger.Error(ctx, "Failed to process %s: %v", path, err)
				}
				return nil
			})

		case err, ok := <-w.watcher.Errors:
			if !ok {
				g.Wait()
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Error(ctx, "Watcher error: %v", err)
		}
	}
}

// Stop closes the file watcher
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

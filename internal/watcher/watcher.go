package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Handler processes one dropped manuscript file.
type Handler func(ctx context.Context, path string) error

// Watcher turns a directory into a drop box: every text file created in it
// is handed to the pipeline, one at a time so runs never interleave their
// proxy traffic or output directories.
type Watcher struct {
	dir     string
	handler Handler
	logf    func(string, ...any)
	fsw     *fsnotify.Watcher

	// settleDelay gives the writing process time to finish before we read.
	settleDelay time.Duration
}

func New(dir string, handler Handler, logf func(string, ...any)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	return &Watcher{
		dir:         dir,
		handler:     handler,
		logf:        logf,
		fsw:         fsw,
		settleDelay: 500 * time.Millisecond,
	}, nil
}

// Start blocks until ctx is cancelled, processing dropped files as they
// appear.
func (w *Watcher) Start(ctx context.Context) error {
	w.logf("watching %s for manuscripts (.txt, .md)", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.logf("watcher stopped")
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !event.Op.Has(fsnotify.Create) {
				continue
			}
			if !isManuscript(event.Name) {
				continue
			}
			w.logf("manuscript detected: %s", event.Name)

			select {
			case <-time.After(w.settleDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
			if err := w.handler(ctx, event.Name); err != nil {
				w.logf("failed to process %s: %v", event.Name, err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logf("watcher error: %v", err)
		}
	}
}

func (w *Watcher) Stop() error {
	return w.fsw.Close()
}

func isManuscript(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".md":
		return true
	}
	return false
}

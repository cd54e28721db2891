package watcher

import (
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nguyentantai21042004/video-transcriber/internal/logger"
)

const defaultSettle = 500 * time.Millisecond

// Options configures a Watcher. Zero values fall back to a single worker and
// a 500ms settle interval.
type Options struct {
	InputDir      string
	MaxConcurrent int
	// Settle is how long a file's size must stay unchanged before it is
	// handed to the handler.
	Settle time.Duration
}

// New watches opts.InputDir and passes every video dropped there to handler.
func New(opts Options, handler EventHandler, log logger.Logger) (Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(opts.InputDir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", opts.InputDir, err)
	}

	workers := max(opts.MaxConcurrent, 1)
	settle := opts.Settle
	if settle <= 0 {
		settle = defaultSettle
	}

	return &implWatcher{
		inputDir:      opts.InputDir,
		handler:       handler,
		logger:        log,
		watcher:       fsw,
		maxConcurrent: workers,
		semaphore:     make(chan struct{}, workers),
		settle:        settle,
		inFlight:      make(map[string]struct{}),
	}, nil
}

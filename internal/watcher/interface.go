package watcher

import (
	"context"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
)

// Watcher defines the interface for file system monitoring
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler is a function that handles file events
type EventHandler func(ctx context.Context, filePath string) error

// JobSubmitter is the slice of the job service the intake needs.
type JobSubmitter interface {
	Submit(sessionID string, req domain.Request) (string, error)
	Wait(ctx context.Context, jobID string) (domain.Report, error)
}

package httpapi

import (
	"context"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
	"github.com/nguyentantai21042004/video-transcriber/internal/jobs"
)

// JobService is the job front end the handlers drive.
type JobService interface {
	Submit(sessionID string, req domain.Request) (string, error)
	Get(jobID string) (domain.Report, error)
	Cancel(jobID string) error
	Events(jobID string, since int64) []jobs.Event
	ActiveJob(sessionID string) (string, bool)
}

// ModelStatus reports which model sizes are loaded.
type ModelStatus interface {
	Loaded() []string
}

// ToolChecker resolves external binaries for the health check.
type ToolChecker interface {
	LookPath(name string) (string, error)
}

// Scratch hands out temporary file paths for rendered downloads.
type Scratch interface {
	UniquePath(jobID, ext string) (string, error)
	Remove(ctx context.Context, path string)
}

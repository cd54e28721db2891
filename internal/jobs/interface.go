package jobs

import (
	"context"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
	"github.com/nguyentantai21042004/video-transcriber/internal/transcriber"
)

// Acquirer produces the audio artifact for a job.
type Acquirer interface {
	Acquire(ctx context.Context, jobID string, req domain.Request) (string, error)
}

// EngineProvider hands out loaded transcription engines by model size.
type EngineProvider interface {
	EnsureLoaded(ctx context.Context, size string) (transcriber.Engine, error)
}

// Cleaner removes job artifacts. Remove never fails the caller.
type Cleaner interface {
	Remove(ctx context.Context, path string)
}

// Runner executes one job synchronously and reports its outcome.
type Runner interface {
	Run(ctx context.Context, jobID string, req domain.Request, onStage StageFunc) domain.Report
}

// StageFunc observes status changes while a job runs.
type StageFunc func(status domain.JobStatus)

package media

import (
	"context"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
)

// Acquirer turns a validated request into a local audio artifact.
//
// On failure the returned path is non-empty when a partial artifact may exist
// on disk and still needs cleanup.
type Acquirer interface {
	Acquire(ctx context.Context, jobID string, req domain.Request) (string, error)
}

// Workspace is the slice of the workspace manager the acquirer needs.
type Workspace interface {
	UniquePath(jobID, ext string) (string, error)
	Remove(ctx context.Context, path string)
}

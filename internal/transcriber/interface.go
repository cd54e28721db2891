package transcriber

import (
	"context"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
)

// Engine is a loaded speech recognition model. Implementations must be safe
// for concurrent Transcribe calls.
type Engine interface {
	// Transcribe converts an audio or video file to a transcript. An empty
	// language means auto-detect; anything else forces the decoding language.
	Transcribe(ctx context.Context, audioPath, language string) (domain.Transcript, error)
	// Size returns the model size the engine was loaded with.
	Size() string
}

// Loader performs the expensive one-time initialization of an Engine.
type Loader interface {
	Load(ctx context.Context, size string) (Engine, error)
}

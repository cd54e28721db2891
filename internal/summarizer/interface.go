package summarizer

import (
	"context"
	"errors"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
)

// ErrNotConfigured is returned when no Gemini API key is available.
var ErrNotConfigured = errors.New("summaries are disabled: no Gemini API keys configured")

// Summarizer turns a finished transcript into an LLM-generated markdown summary.
type Summarizer interface {
	Summarize(ctx context.Context, transcript domain.Transcript) (string, error)
	Enabled() bool
}

package transcriber

import (
	"context"
	"os"

	"github.com/nguyentantai21042004/video-transcriber/internal/config"
	"github.com/nguyentantai21042004/video-transcriber/internal/logger"
	"github.com/nguyentantai21042004/video-transcriber/pkg/executor"
)

type whisperLoader struct {
	cfg      *config.Config
	executor executor.Executor
	logger   logger.Logger
	download func(ctx context.Context, dest, url string) error
	stat     func(name string) (os.FileInfo, error)
}

// NewWhisperLoader creates a Loader for whisper.cpp models
func NewWhisperLoader(cfg *config.Config, exec executor.Executor, log logger.Logger) Loader {
	l := &whisperLoader{
		cfg:      cfg,
		executor: exec,
		logger:   log,
		stat:     os.Stat,
	}
	l.download = l.downloadModel
	return l
}

package media

import (
	"os"

	"github.com/nguyentantai21042004/video-transcriber/internal/config"
	"github.com/nguyentantai21042004/video-transcriber/internal/logger"
	"github.com/nguyentantai21042004/video-transcriber/pkg/executor"
)

type implAcquirer struct {
	cfg       config.DownloaderConfig
	workspace Workspace
	executor  executor.Executor
	logger    logger.Logger
	writeFile func(name string, data []byte, perm os.FileMode) error
	glob      func(pattern string) ([]string, error)
}

// New creates a new Acquirer instance
func New(cfg *config.Config, ws Workspace, exec executor.Executor, log logger.Logger) Acquirer {
	return &implAcquirer{
		cfg:       cfg.Downloader,
		workspace: ws,
		executor:  exec,
		logger:    log,
		writeFile: os.WriteFile,
		glob:      filepathGlob,
	}
}

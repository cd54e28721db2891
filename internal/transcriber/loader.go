package transcriber

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const modelDownloadTimeout = 2 * time.Hour

// Load resolves the model file for size, downloading it when allowed, and
// checks that the external binaries are available.
func (l *whisperLoader) Load(ctx context.Context, size string) (Engine, error) {
	model, ok := LookupModel(size)
	if !ok {
		return nil, fmt.Errorf("unknown model size %q", size)
	}

	modelPath := filepath.Join(l.cfg.Whisper.ModelDir, model.FileName)
	info, err := l.stat(modelPath)
	switch {
	case err == nil && info.IsDir():
		return nil, fmt.Errorf("model path is a directory: %s", modelPath)
	case errors.Is(err, os.ErrNotExist):
		if !l.cfg.Whisper.AutoDownload {
			return nil, fmt.Errorf("model file not found: %s (enable whisper.auto_download or place it manually)", modelPath)
		}
		l.logger.Info(ctx, "Downloading model %s (%s) to %s", model.Size, model.SizeLabel, modelPath)
		if err := l.download(ctx, modelPath, model.URL); err != nil {
			return nil, fmt.Errorf("download model %s: %w", model.Size, err)
		}
	case err != nil:
		return nil, fmt.Errorf("cannot access model path %s: %w", modelPath, err)
	}

	for _, bin := range []string{l.cfg.Whisper.BinaryPath, l.cfg.FFmpeg.BinaryPath} {
		if _, err := l.executor.LookPath(bin); err != nil {
			return nil, fmt.Errorf("required tool %q not found: %w", bin, err)
		}
	}

	return &whisperEngine{
		size:       model.Size,
		modelPath:  modelPath,
		whisper:    l.cfg.Whisper,
		ffmpegPath: l.cfg.FFmpeg.BinaryPath,
		executor:   l.executor,
		logger:     l.logger,
		readFile:   os.ReadFile,
		removeFile: os.Remove,
	}, nil
}

// downloadModel streams url into dest through a temporary file so an
// interrupted download never leaves a truncated model behind.
func (l *whisperLoader) downloadModel(ctx context.Context, dest, url string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("prepare model directory: %w", err)
	}

	tmpPath := dest + ".download"
	if err := os.Remove(tmpPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove stale temp file: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, modelDownloadTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", "video-transcriber")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected HTTP status: %s", resp.Status)
	}

	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("create temporary file: %w", err)
	}

	_, copyErr := io.Copy(file, resp.Body)
	closeErr := file.Close()
	if copyErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write model file: %w", copyErr)
	}
	if closeErr != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close model file: %w", closeErr)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("move model into place: %w", err)
	}
	return nil
}

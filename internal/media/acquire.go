package media

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
	"github.com/nguyentantai21042004/video-transcriber/pkg/executor"
)

var filepathGlob = filepath.Glob

// Acquire validates the request and produces a local audio file for it
func (a *implAcquirer) Acquire(ctx context.Context, jobID string, req domain.Request) (string, error) {
	if err := Validate(req); err != nil {
		return "", err
	}

	switch req.Kind {
	case domain.SourceUpload:
		return a.saveUpload(ctx, jobID, req)
	default:
		return a.download(ctx, jobID, req)
	}
}

// saveUpload writes the uploaded bytes verbatim into the workspace
func (a *implAcquirer) saveUpload(ctx context.Context, jobID string, req domain.Request) (string, error) {
	path, err := a.workspace.UniquePath(jobID, filepath.Ext(req.FileName))
	if err != nil {
		return "", domain.NewError(domain.ErrorKindAcquisition, "workspace unavailable: "+err.Error(), err)
	}

	a.logger.Info(ctx, "Saving upload %s (%d bytes): %s", req.FileName, len(req.Data), path)
	if err := a.writeFile(path, req.Data, 0o600); err != nil {
		return path, domain.NewError(domain.ErrorKindAcquisition,
			fmt.Sprintf("failed to save uploaded file: %v", err), err)
	}

	return path, nil
}

// download fetches the best audio stream with yt-dlp and extracts it to the
// configured format and quality. One attempt, no retries.
func (a *implAcquirer) download(ctx context.Context, jobID string, req domain.Request) (string, error) {
	platform := platformName(req.Kind)

	audioPath, err := a.workspace.UniquePath(jobID, a.cfg.AudioFormat)
	if err != nil {
		return "", domain.NewError(domain.ErrorKindAcquisition, "workspace unavailable: "+err.Error(), err)
	}
	template := strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".%(ext)s"

	dlCtx := ctx
	if a.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		dlCtx, cancel = context.WithTimeout(ctx, a.cfg.Timeout)
		defer cancel()
	}

	args := buildDownloadArgs(a.cfg.AudioFormat, a.cfg.AudioQuality, template, strings.TrimSpace(req.URL))
	a.logger.Info(ctx, "Downloading %s audio: %s", platform, req.URL)

	if _, err := a.executor.Execute(dlCtx, a.cfg.BinaryPath, args...); err != nil {
		a.removeLeftovers(ctx, audioPath)
		if errors.Is(dlCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return "", domain.NewError(domain.ErrorKindAcquisition,
				fmt.Sprintf("error downloading %s video: timed out after %s", platform, a.cfg.Timeout), err)
		}
		return "", domain.NewError(domain.ErrorKindAcquisition,
			fmt.Sprintf("error downloading %s video: %s", platform, downloadCause(err)), err)
	}

	if _, err := os.Stat(audioPath); err != nil {
		a.removeLeftovers(ctx, audioPath)
		return "", domain.NewError(domain.ErrorKindAcquisition,
			fmt.Sprintf("error downloading %s video: audio file was not produced", platform), err)
	}

	a.logger.Info(ctx, "%s audio downloaded: %s", platform, audioPath)
	return audioPath, nil
}

// removeLeftovers deletes partial downloads named after the job
func (a *implAcquirer) removeLeftovers(ctx context.Context, audioPath string) {
	prefix := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	matches, err := a.glob(prefix + ".*")
	if err != nil {
		a.logger.Warn(ctx, "Failed to list partial downloads for %s: %v", prefix, err)
		return
	}
	for _, m := range matches {
		a.workspace.Remove(ctx, m)
	}
}

// buildDownloadArgs builds yt-dlp args for a single audio-only download.
// -f bestaudio/best: best audio stream, falling back to the best muxed one
// -x --audio-format/--audio-quality: extract with ffmpeg at a fixed quality
// --no-playlist: a playlist link downloads only the referenced video
func buildDownloadArgs(format, quality, outputTemplate, url string) []string {
	return []string{
		"-f", "bestaudio/best",
		"-x",
		"--audio-format", format,
		"--audio-quality", quality,
		"--no-playlist",
		"--no-progress",
		"--quiet",
		"--no-warnings",
		"-o", outputTemplate,
		url,
	}
}

func platformName(kind domain.SourceKind) string {
	switch kind {
	case domain.SourceYouTube:
		return "YouTube"
	case domain.SourceInstagram:
		return "Instagram"
	default:
		return string(kind)
	}
}

// downloadCause extracts yt-dlp's own "ERROR:" line when present.
func downloadCause(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, "ERROR:"); i >= 0 {
		line := msg[i+len("ERROR:"):]
		if j := strings.IndexByte(line, '\n'); j >= 0 {
			line = line[:j]
		}
		return strings.TrimSpace(line)
	}
	return executor.Tail(msg, 512)
}

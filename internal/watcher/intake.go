package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nguyentantai21042004/video-transcriber/internal/config"
	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
	"github.com/nguyentantai21042004/video-transcriber/internal/export"
	"github.com/nguyentantai21042004/video-transcriber/internal/logger"
)

// SessionPrefix marks jobs submitted by the watch folder.
const SessionPrefix = "watch:"

// Intake turns dropped video files into upload jobs.
type Intake struct {
	jobs     JobSubmitter
	paths    config.PathsConfig
	language string
	logger   logger.Logger
}

// NewIntake creates an Intake writing transcripts to paths.Output and moving
// processed sources to paths.Archived.
func NewIntake(jobs JobSubmitter, paths config.PathsConfig, language string, log logger.Logger) *Intake {
	return &Intake{
		jobs:     jobs,
		paths:    paths,
		language: language,
		logger:   log,
	}
}

// Handle is an EventHandler. On success the transcript lands in the output
// folder and the source moves to the archive; on failure the source stays.
func (in *Intake) Handle(ctx context.Context, filePath string) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return fmt.Errorf("read %s: %w", filePath, err)
	}

	name := filepath.Base(filePath)
	jobID, err := in.jobs.Submit(SessionPrefix+filePath, domain.Request{
		Kind:     domain.SourceUpload,
		FileName: name,
		Data:     data,
		Language: in.language,
	})
	if err != nil {
		return fmt.Errorf("submit %s: %w", name, err)
	}

	report, err := in.jobs.Wait(ctx, jobID)
	if err != nil {
		return fmt.Errorf("wait for job %s: %w", jobID, err)
	}
	ctx = logger.WithJobID(ctx, jobID)
	if !report.Succeeded() {
		return fmt.Errorf("transcription of %s %s: %v", name, report.Status, report.Error)
	}

	if err := os.MkdirAll(in.paths.Output, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	outPath := filepath.Join(in.paths.Output, stem+".txt")
	if err := os.WriteFile(outPath, export.Text(report.Transcript()), 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}

	if err := in.archive(filePath); err != nil {
		in.logger.Warn(ctx, "Failed to move source file to archived folder: %v", err)
	}

	in.logger.Info(ctx, "[DONE] %s -> %s", name, outPath)
	return nil
}

func (in *Intake) archive(filePath string) error {
	if in.paths.Archived == "" {
		return nil
	}
	if err := os.MkdirAll(in.paths.Archived, 0o755); err != nil {
		return fmt.Errorf("create archived dir: %w", err)
	}
	return os.Rename(filePath, filepath.Join(in.paths.Archived, filepath.Base(filePath)))
}

package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
	"github.com/nguyentantai21042004/video-transcriber/internal/language"
	"github.com/nguyentantai21042004/video-transcriber/internal/logger"
	"github.com/nguyentantai21042004/video-transcriber/internal/media"
	"github.com/nguyentantai21042004/video-transcriber/internal/transcriber"
)

// Orchestrator drives one job through validate, acquire, transcribe and clean.
type Orchestrator struct {
	acquirer  Acquirer
	engines   EngineProvider
	cleaner   Cleaner
	modelSize string
	logger    logger.Logger
	now       func() time.Time
}

// NewOrchestrator creates an Orchestrator that transcribes with modelSize.
func NewOrchestrator(acquirer Acquirer, engines EngineProvider, cleaner Cleaner, modelSize string, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		acquirer:  acquirer,
		engines:   engines,
		cleaner:   cleaner,
		modelSize: modelSize,
		logger:    log,
		now:       time.Now,
	}
}

// Run executes the job synchronously. It never panics and always returns a
// terminal report.
func (o *Orchestrator) Run(ctx context.Context, jobID string, req domain.Request, onStage StageFunc) domain.Report {
	ctx = logger.WithJobID(ctx, jobID)
	report := domain.Report{
		JobID:     jobID,
		Kind:      req.Kind,
		StartedAt: o.now(),
	}
	stage := func(status domain.JobStatus) {
		report.Status = status
		if onStage != nil {
			onStage(status)
		}
	}

	stage(domain.JobStatusValidating)
	if err := media.Validate(req); err != nil {
		o.logger.Warn(ctx, "Rejected %s request: %v", req.Kind, err)
		return o.finish(ctx, report, stage, domain.AsError(err, domain.ErrorKindValidation))
	}
	lang, _ := language.Normalize(req.Language)
	req.Language = lang

	if err := ctx.Err(); err != nil {
		return o.finish(ctx, report, stage, cancelledError(err))
	}

	stage(domain.JobStatusAcquiring)
	audioPath, err := o.acquire(ctx, jobID, req)
	if err != nil {
		if audioPath != "" {
			stage(domain.JobStatusCleaning)
			o.cleanup(ctx, audioPath)
		}
		if ctx.Err() != nil {
			return o.finish(ctx, report, stage, cancelledError(ctx.Err()))
		}
		return o.finish(ctx, report, stage, domain.AsError(err, domain.ErrorKindAcquisition))
	}

	stage(domain.JobStatusTranscribing)
	transcript, err := o.transcribe(ctx, audioPath, req.Language)

	stage(domain.JobStatusCleaning)
	o.cleanup(ctx, audioPath)

	if err != nil {
		if ctx.Err() != nil {
			return o.finish(ctx, report, stage, cancelledError(ctx.Err()))
		}
		return o.finish(ctx, report, stage, transcriptionError(err))
	}

	report.Text = transcript.Text
	report.Language = transcript.Language
	report.Segments = transcript.Segments
	return o.finish(ctx, report, stage, nil)
}

func (o *Orchestrator) finish(ctx context.Context, report domain.Report, stage StageFunc, jobErr *domain.Error) domain.Report {
	report.FinishedAt = o.now()
	elapsed := report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond)

	switch {
	case jobErr == nil:
		stage(domain.JobStatusSucceeded)
		o.logger.Info(ctx, "Job succeeded in %s (%d characters, language %s)", elapsed, len(report.Text), report.Language)
	case jobErr.Kind == domain.ErrorKindCancelled:
		report.Error = jobErr
		stage(domain.JobStatusCancelled)
		o.logger.Warn(ctx, "Job cancelled after %s", elapsed)
	default:
		report.Error = jobErr
		stage(domain.JobStatusFailed)
		o.logger.Error(ctx, "Job failed after %s: %v", elapsed, jobErr)
	}
	report.Status = statusOf(jobErr)
	return report
}

func statusOf(jobErr *domain.Error) domain.JobStatus {
	switch {
	case jobErr == nil:
		return domain.JobStatusSucceeded
	case jobErr.Kind == domain.ErrorKindCancelled:
		return domain.JobStatusCancelled
	default:
		return domain.JobStatusFailed
	}
}

// acquire calls the acquirer, turning a panic into an acquisition failure.
func (o *Orchestrator) acquire(ctx context.Context, jobID string, req domain.Request) (path string, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error(ctx, "Acquisition panicked: %v", r)
			err = domain.NewError(domain.ErrorKindAcquisition, fmt.Sprintf("internal error during acquisition: %v", r), nil)
		}
	}()

	o.logger.Info(ctx, "Acquiring %s media", req.Kind)
	return o.acquirer.Acquire(ctx, jobID, req)
}

// transcribe loads the engine on first use and runs it, turning a panic into
// a transcription failure.
func (o *Orchestrator) transcribe(ctx context.Context, audioPath, lang string) (transcript domain.Transcript, err error) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error(ctx, "Transcription panicked: %v", r)
			err = fmt.Errorf("internal error during transcription: %v", r)
		}
	}()

	engine, err := o.engines.EnsureLoaded(ctx, o.modelSize)
	if err != nil {
		return domain.Transcript{}, err
	}
	return engine.Transcribe(ctx, audioPath, lang)
}

// cleanup deletes the artifact exactly once per call site; failures are
// logged by the cleaner and a panic is only logged.
func (o *Orchestrator) cleanup(ctx context.Context, path string) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.Warn(ctx, "%v", domain.NewError(domain.ErrorKindCleanup, fmt.Sprintf("removing %s panicked: %v", path, r), nil))
		}
	}()
	o.cleaner.Remove(ctx, path)
}

func cancelledError(err error) *domain.Error {
	return domain.NewError(domain.ErrorKindCancelled, "job was cancelled", err)
}

func transcriptionError(err error) *domain.Error {
	if errors.Is(err, transcriber.ErrNoSpeech) {
		return domain.NewError(domain.ErrorKindTranscription, "no speech detected in the media", err)
	}
	return domain.AsError(err, domain.ErrorKindTranscription)
}

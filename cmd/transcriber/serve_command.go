package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nguyentantai21042004/video-transcriber/internal/config"
	"github.com/nguyentantai21042004/video-transcriber/internal/httpapi"
	"github.com/nguyentantai21042004/video-transcriber/internal/jobs"
	"github.com/nguyentantai21042004/video-transcriber/internal/logger"
	"github.com/nguyentantai21042004/video-transcriber/internal/summarizer"
	"github.com/nguyentantai21042004/video-transcriber/internal/watcher"
)

const jobShutdownTimeout = 30 * time.Second

func newServeCommand(cmdCtx *commandContext) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web interface and the optional watch folder",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cmdCtx.ensureConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, cmdCtx.logger(os.Stdout))
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Info(ctx, "========================================")
	log.Info(ctx, "Video Transcriber")
	log.Info(ctx, "========================================")
	log.Info(ctx, "System: %s/%s, %d CPU cores", runtime.GOOS, runtime.GOARCH, runtime.NumCPU())
	log.Info(ctx, "Model: %s (%d threads), max concurrent jobs: %d",
		cfg.Whisper.ModelSize, cfg.Whisper.Threads, cfg.Performance.MaxConcurrent)

	a, err := newApp(cfg, cfg.Whisper.ModelSize, log)
	if err != nil {
		return fmt.Errorf("prepare transcriber: %w", err)
	}
	defer func() {
		if err := a.close(); err != nil {
			log.Warn(ctx, "Failed to release workspace: %v", err)
		}
	}()

	service := jobs.NewService(a.orchestrator, jobs.ServiceOptions{
		MaxConcurrent: cfg.Performance.MaxConcurrent,
		MaxPending:    cfg.Performance.MaxPending,
		Retention:     cfg.Performance.JobRetention,
	}, log)

	sum := summarizer.New(cfg.Gemini, log)
	if sum.Enabled() {
		log.Info(ctx, "Summaries enabled with %d Gemini key(s)", len(cfg.Gemini.APIKeys))
	}

	server := httpapi.New(cfg, httpapi.Deps{
		Jobs:       service,
		Models:     a.registry,
		Tools:      a.executor,
		Scratch:    a.workspace,
		Summarizer: sum,
	}, log)

	errCh := make(chan error, 2)
	go func() {
		errCh <- server.Run(ctx)
	}()

	if cfg.Watch.Enabled {
		w, err := startWatchFolder(ctx, cfg, service, log)
		if err != nil {
			return err
		}
		defer w.Stop()
		go func() {
			if err := w.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				errCh <- fmt.Errorf("watch folder: %w", err)
			}
		}()
	}

	log.Info(ctx, "Press Ctrl+C to stop")

	var runErr error
	select {
	case <-ctx.Done():
		log.Info(ctx, "Shutdown signal received")
		runErr = <-errCh
	case runErr = <-errCh:
	}

	log.Info(ctx, "Shutting down gracefully...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), jobShutdownTimeout)
	defer cancel()
	if err := service.Shutdown(shutdownCtx); err != nil {
		log.Warn(ctx, "Jobs did not stop in time: %v", err)
	}

	log.Info(ctx, "Video Transcriber stopped")
	return runErr
}

func startWatchFolder(ctx context.Context, cfg *config.Config, service *jobs.Service, log logger.Logger) (watcher.Watcher, error) {
	for _, dir := range []string{cfg.Paths.Input, cfg.Paths.Output, cfg.Paths.Archived} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	intake := watcher.NewIntake(service, cfg.Paths, cfg.Watch.Language, log)
	w, err := watcher.New(watcher.Options{
		InputDir:      cfg.Paths.Input,
		MaxConcurrent: cfg.Performance.MaxConcurrent,
	}, intake.Handle, log)
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	log.Info(ctx, "Watching %s (transcripts to %s)", cfg.Paths.Input, cfg.Paths.Output)
	return w, nil
}

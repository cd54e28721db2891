package main

import (
	"fmt"

	"github.com/nguyentantai21042004/video-transcriber/internal/config"
	"github.com/nguyentantai21042004/video-transcriber/internal/jobs"
	"github.com/nguyentantai21042004/video-transcriber/internal/logger"
	"github.com/nguyentantai21042004/video-transcriber/internal/media"
	"github.com/nguyentantai21042004/video-transcriber/internal/transcriber"
	"github.com/nguyentantai21042004/video-transcriber/internal/workspace"
	"github.com/nguyentantai21042004/video-transcriber/pkg/executor"
)

// app holds the long-lived collaborators shared by the commands.
type app struct {
	workspace    *workspace.Manager
	executor     executor.Executor
	registry     *transcriber.Registry
	orchestrator *jobs.Orchestrator
}

func newApp(cfg *config.Config, modelSize string, log logger.Logger) (*app, error) {
	if _, ok := transcriber.LookupModel(modelSize); !ok {
		return nil, fmt.Errorf("unknown model size %q (run 'transcriber models' to list sizes)", modelSize)
	}

	ws := workspace.New(cfg.Paths.Workspace, log)
	if _, err := ws.Acquire(); err != nil {
		return nil, err
	}

	exec := executor.New()
	registry := transcriber.NewRegistry(transcriber.NewWhisperLoader(cfg, exec, log), log)
	acquirer := media.New(cfg, ws, exec, log)

	return &app{
		workspace:    ws,
		executor:     exec,
		registry:     registry,
		orchestrator: jobs.NewOrchestrator(acquirer, registry, ws, modelSize, log),
	}, nil
}

func (a *app) close() error {
	return a.workspace.Close()
}

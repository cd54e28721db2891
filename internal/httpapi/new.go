package httpapi

import (
	"net/http"
	"time"

	"github.com/nguyentantai21042004/video-transcriber/internal/config"
	"github.com/nguyentantai21042004/video-transcriber/internal/logger"
	"github.com/nguyentantai21042004/video-transcriber/internal/summarizer"
)

// Deps are the collaborators of the HTTP surface.
type Deps struct {
	Jobs       JobService
	Models     ModelStatus
	Tools      ToolChecker
	Scratch    Scratch
	Summarizer summarizer.Summarizer
}

// Server exposes the job service over HTTP and serves the embedded UI.
type Server struct {
	cfg    *config.Config
	deps   Deps
	logger logger.Logger
	mux    *http.ServeMux
	server *http.Server
}

// New creates a Server with all routes registered.
func New(cfg *config.Config, deps Deps, log logger.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		deps:   deps,
		logger: log,
		mux:    http.NewServeMux(),
	}
	s.routes()

	s.server = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
		// Uploads up to server.max_upload_mb need a generous read window.
		ReadTimeout:  10 * time.Minute,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, used by tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

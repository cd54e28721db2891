package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
)

const shutdownTimeout = 5 * time.Second

func (s *Server) routes() {
	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("GET /api/health", s.handleHealth)
	s.mux.HandleFunc("GET /api/languages", s.handleLanguages)
	s.mux.HandleFunc("GET /api/models", s.handleModels)
	s.mux.HandleFunc("GET /api/session", s.handleSession)

	s.mux.HandleFunc("POST /api/jobs/upload", s.handleUpload)
	s.mux.HandleFunc("POST /api/jobs/youtube", s.handleURL(domain.SourceYouTube))
	s.mux.HandleFunc("POST /api/jobs/instagram", s.handleURL(domain.SourceInstagram))

	s.mux.HandleFunc("GET /api/jobs/{id}", s.handleJob)
	s.mux.HandleFunc("POST /api/jobs/{id}/cancel", s.handleCancel)
	s.mux.HandleFunc("GET /api/jobs/{id}/events", s.handleEvents)
	s.mux.HandleFunc("GET /api/jobs/{id}/transcript.txt", s.handleTextDownload)
	s.mux.HandleFunc("GET /api/jobs/{id}/transcript.srt", s.handleSRTDownload)
	s.mux.HandleFunc("GET /api/jobs/{id}/transcript.docx", s.handleDocxDownload)
	s.mux.HandleFunc("POST /api/jobs/{id}/summary", s.handleSummary)
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.logger.Info(ctx, "HTTP server listening on http://%s", listener.Addr().String())

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	s.logger.Info(ctx, "HTTP server stopped")
	return nil
}

package httpapi

import (
	"context"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nguyentantai21042004/video-transcriber/internal/export"
	"github.com/nguyentantai21042004/video-transcriber/internal/summarizer"
)

const (
	docxTitle       = "Transcrição"
	summaryTitle    = "Resumo"
	summaryFileName = "resumo.docx"
	summaryTimeout  = 2 * time.Minute
)

func (s *Server) handleTextDownload(w http.ResponseWriter, r *http.Request) {
	report, ok := s.finished(w, r)
	if !ok {
		return
	}
	attachment(w, export.TextContentType, export.TextFileName)
	_, _ = w.Write(export.Text(report.Transcript()))
}

func (s *Server) handleSRTDownload(w http.ResponseWriter, r *http.Request) {
	report, ok := s.finished(w, r)
	if !ok {
		return
	}
	attachment(w, export.SRTContentType, export.SRTFileName)
	_, _ = w.Write(export.SRT(report.Transcript()))
}

func (s *Server) handleDocxDownload(w http.ResponseWriter, r *http.Request) {
	report, ok := s.finished(w, r)
	if !ok {
		return
	}
	s.serveDocx(w, r, export.DocxFileName, func(path string) error {
		return export.WriteDocx(path, docxTitle, report.Transcript())
	})
}

type summaryResponse struct {
	Summary string `json:"summary"`
}

// handleSummary returns the Gemini summary as JSON, or as a Word document
// with ?format=docx.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if s.deps.Summarizer == nil || !s.deps.Summarizer.Enabled() {
		s.writeError(w, http.StatusServiceUnavailable, summarizer.ErrNotConfigured.Error())
		return
	}
	report, ok := s.finished(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), summaryTimeout)
	defer cancel()
	summary, err := s.deps.Summarizer.Summarize(ctx, report.Transcript())
	if err != nil {
		s.logger.Error(r.Context(), "Summary for job %s failed: %v", report.JobID, err)
		s.writeError(w, http.StatusBadGateway, "summary failed: "+err.Error())
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "docx") {
		s.serveDocx(w, r, summaryFileName, func(path string) error {
			return export.WriteMarkdownDocx(path, summaryTitle, summary)
		})
		return
	}
	s.writeJSON(w, http.StatusOK, summaryResponse{Summary: summary})
}

// serveDocx renders into a scratch file, streams it and removes it.
func (s *Server) serveDocx(w http.ResponseWriter, r *http.Request, fileName string, render func(path string) error) {
	path, err := s.deps.Scratch.UniquePath(uuid.NewString(), ".docx")
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer s.deps.Scratch.Remove(r.Context(), path)

	if err := render(path); err != nil {
		s.logger.Error(r.Context(), "Failed to render %s: %v", fileName, err)
		s.writeError(w, http.StatusInternalServerError, "failed to render document")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to open document")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "failed to stat document")
		return
	}

	attachment(w, export.DocxContentType, fileName)
	http.ServeContent(w, r, fileName, info.ModTime(), f)
}

package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
	"github.com/nguyentantai21042004/video-transcriber/internal/jobs"
	"github.com/nguyentantai21042004/video-transcriber/internal/language"
	"github.com/nguyentantai21042004/video-transcriber/internal/transcriber"
)

// multipartMemory is the part of an upload kept in memory while parsing.
const multipartMemory = 32 << 20

type submitResponse struct {
	JobID  string           `json:"jobId"`
	Status domain.JobStatus `json:"status"`
}

type urlRequest struct {
	URL      string `json:"url"`
	Language string `json:"language"`
}

type toolStatus struct {
	Name      string `json:"name"`
	Path      string `json:"path,omitempty"`
	Available bool   `json:"available"`
	Detail    string `json:"detail,omitempty"`
}

type healthResponse struct {
	Status       string       `json:"status"`
	Tools        []toolStatus `json:"tools"`
	ModelSize    string       `json:"modelSize"`
	LoadedModels []string     `json:"loadedModels"`
	Summaries    bool         `json:"summaries"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Status:       "ok",
		ModelSize:    transcriber.NormalizeSize(s.cfg.Whisper.ModelSize),
		LoadedModels: []string{},
		Summaries:    s.deps.Summarizer != nil && s.deps.Summarizer.Enabled(),
	}
	if s.deps.Models != nil {
		resp.LoadedModels = s.deps.Models.Loaded()
	}

	for _, bin := range []string{s.cfg.Downloader.BinaryPath, s.cfg.FFmpeg.BinaryPath, s.cfg.Whisper.BinaryPath} {
		status := toolStatus{Name: bin}
		path, err := s.deps.Tools.LookPath(bin)
		if err != nil {
			status.Detail = err.Error()
			resp.Status = "degraded"
		} else {
			status.Path = path
			status.Available = true
		}
		resp.Tools = append(resp.Tools, status)
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"languages": language.Options()})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"default": transcriber.NormalizeSize(s.cfg.Whisper.ModelSize),
		"models":  transcriber.Models(s.cfg.Whisper.ModelDir),
	})
}

// handleSession lets the UI resume polling a job started before a reload.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	id := session(w, r)
	resp := map[string]string{"session": id}
	if jobID, ok := s.deps.Jobs.ActiveJob(id); ok {
		resp["activeJob"] = jobID
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	sessionID := session(w, r)

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes())
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.writeBodyError(w, err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "missing form field \"file\"")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeBodyError(w, err)
		return
	}

	s.submit(w, sessionID, domain.Request{
		Kind:     domain.SourceUpload,
		FileName: header.Filename,
		Data:     data,
		Language: r.FormValue("language"),
	})
}

func (s *Server) handleURL(kind domain.SourceKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := session(w, r)

		var body urlRequest
		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType == "application/json" {
			if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&body); err != nil {
				s.writeError(w, http.StatusBadRequest, "invalid JSON body")
				return
			}
		} else {
			if err := r.ParseForm(); err != nil {
				s.writeError(w, http.StatusBadRequest, "invalid form body")
				return
			}
			body.URL = r.FormValue("url")
			body.Language = r.FormValue("language")
		}

		s.submit(w, sessionID, domain.Request{
			Kind:     kind,
			URL:      body.URL,
			Language: body.Language,
		})
	}
}

// submit queues the request. Validation happens inside the job, so a bad URL
// or file type still yields 202 and a job that fails right away.
func (s *Server) submit(w http.ResponseWriter, sessionID string, req domain.Request) {
	jobID, err := s.deps.Jobs.Submit(sessionID, req)
	switch {
	case errors.Is(err, jobs.ErrJobAlreadyRunning):
		s.writeError(w, http.StatusConflict, "a job is already running for this session")
		return
	case errors.Is(err, jobs.ErrTooManyJobs):
		s.writeError(w, http.StatusServiceUnavailable, "too many jobs in progress, try again later")
		return
	case errors.Is(err, jobs.ErrServiceClosed):
		s.writeError(w, http.StatusServiceUnavailable, "server is shutting down")
		return
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	report, err := s.deps.Jobs.Get(jobID)
	status := domain.JobStatusQueued
	if err == nil {
		status = report.Status
	}
	w.Header().Set("Location", "/api/jobs/"+jobID)
	s.writeJSON(w, http.StatusAccepted, submitResponse{JobID: jobID, Status: status})
}

func (s *Server) writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.writeError(w, http.StatusRequestEntityTooLarge, "upload exceeds "+strconv.FormatInt(s.cfg.Server.MaxUploadMB, 10)+" MB")
		return
	}
	s.writeError(w, http.StatusBadRequest, "invalid upload: "+err.Error())
}

// report loads the job named in the path, answering 404 when unknown.
func (s *Server) report(w http.ResponseWriter, r *http.Request) (domain.Report, bool) {
	report, err := s.deps.Jobs.Get(r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return domain.Report{}, false
	}
	return report, true
}

// finished loads a succeeded job, answering 409 while it is not.
func (s *Server) finished(w http.ResponseWriter, r *http.Request) (domain.Report, bool) {
	report, ok := s.report(w, r)
	if !ok {
		return report, false
	}
	if !report.Succeeded() {
		s.writeError(w, http.StatusConflict, "job has no transcript (status "+string(report.Status)+")")
		return report, false
	}
	return report, true
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	report, ok := s.report(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	err := s.deps.Jobs.Cancel(r.PathValue("id"))
	switch {
	case errors.Is(err, jobs.ErrJobNotFound):
		s.writeError(w, http.StatusNotFound, "job not found")
	case errors.Is(err, jobs.ErrJobNotRunning):
		s.writeError(w, http.StatusConflict, "job is not running")
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		s.writeJSON(w, http.StatusAccepted, map[string]string{"status": "cancelling"})
	}
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.report(w, r); !ok {
		return
	}

	var since int64
	if raw := r.URL.Query().Get("since"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			s.writeError(w, http.StatusBadRequest, "since must be a non-negative integer")
			return
		}
		since = v
	}

	s.writeJSON(w, http.StatusOK, map[string]any{"events": s.deps.Jobs.Events(r.PathValue("id"), since)})
}

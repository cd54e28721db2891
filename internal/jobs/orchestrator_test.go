package jobs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
	"github.com/nguyentantai21042004/video-transcriber/internal/logger"
	"github.com/nguyentantai21042004/video-transcriber/internal/transcriber"
)

// fakeAcquirer writes a fixture audio file into dir.
type fakeAcquirer struct {
	dir   string
	calls atomic.Int32
	err   error
	// partial makes a failed acquisition still report the written path.
	partial bool
	panics  bool
}

func (a *fakeAcquirer) Acquire(ctx context.Context, jobID string, req domain.Request) (string, error) {
	a.calls.Add(1)
	if a.panics {
		panic("disk exploded")
	}
	path := filepath.Join(a.dir, jobID+".mp3")
	if a.err != nil && !a.partial {
		return "", a.err
	}
	if err := os.WriteFile(path, []byte("fixture audio"), 0o600); err != nil {
		return "", err
	}
	return path, a.err
}

type fakeEngine struct {
	mu         sync.Mutex
	languages  []string
	transcribe func(ctx context.Context, audioPath, language string) (domain.Transcript, error)
}

func (e *fakeEngine) Transcribe(ctx context.Context, audioPath, language string) (domain.Transcript, error) {
	e.mu.Lock()
	e.languages = append(e.languages, language)
	e.mu.Unlock()
	if e.transcribe != nil {
		return e.transcribe(ctx, audioPath, language)
	}
	detected := language
	if detected == "" {
		detected = "en"
	}
	return domain.Transcript{Text: "hello world", Language: detected}, nil
}

func (e *fakeEngine) Size() string { return "small" }

func (e *fakeEngine) lastLanguage() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.languages) == 0 {
		return "<none>"
	}
	return e.languages[len(e.languages)-1]
}

type fakeEngines struct {
	engine *fakeEngine
	loads  atomic.Int32
	err    error
}

func (p *fakeEngines) EnsureLoaded(ctx context.Context, size string) (transcriber.Engine, error) {
	p.loads.Add(1)
	if p.err != nil {
		return nil, p.err
	}
	return p.engine, nil
}

// countingCleaner removes files and records each call.
type countingCleaner struct {
	mu     sync.Mutex
	paths  []string
	panics bool
}

func (c *countingCleaner) Remove(ctx context.Context, path string) {
	c.mu.Lock()
	c.paths = append(c.paths, path)
	c.mu.Unlock()
	if c.panics {
		panic("cleanup exploded")
	}
	_ = os.Remove(path)
}

func (c *countingCleaner) calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.paths)
}

type harness struct {
	acquirer *fakeAcquirer
	engines  *fakeEngines
	cleaner  *countingCleaner
	orch     *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		acquirer: &fakeAcquirer{dir: t.TempDir()},
		engines:  &fakeEngines{engine: &fakeEngine{}},
		cleaner:  &countingCleaner{},
	}
	h.orch = NewOrchestrator(h.acquirer, h.engines, h.cleaner, "small", logger.Nop())
	return h
}

func (h *harness) run(req domain.Request) (domain.Report, []domain.JobStatus) {
	var stages []domain.JobStatus
	report := h.orch.Run(context.Background(), "job-1", req, func(s domain.JobStatus) {
		stages = append(stages, s)
	})
	return report, stages
}

func assertGone(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("audio artifact left on disk: %s", entries[0].Name())
	}
}

func assertStages(t *testing.T, got []domain.JobStatus, want ...domain.JobStatus) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("stages = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stages = %v, want %v", got, want)
		}
	}
}

func TestRunRejectsDisallowedUploads(t *testing.T) {
	for _, name := range []string{"clip.exe", "clip.wav", "clip", "archive.mp4.zip"} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			report, stages := h.run(domain.Request{Kind: domain.SourceUpload, FileName: name, Data: []byte("x")})

			if report.Status != domain.JobStatusFailed {
				t.Fatalf("status = %s, want failed", report.Status)
			}
			if report.Error == nil || report.Error.Kind != domain.ErrorKindValidation {
				t.Fatalf("error = %+v, want validation", report.Error)
			}
			if h.acquirer.calls.Load() != 0 || h.engines.loads.Load() != 0 || h.cleaner.calls() != 0 {
				t.Error("validation failure must not touch acquirer, model or workspace")
			}
			assertStages(t, stages, domain.JobStatusValidating, domain.JobStatusFailed)
		})
	}
}

func TestRunRejectsForeignURLs(t *testing.T) {
	tests := []struct {
		name string
		kind domain.SourceKind
		url  string
	}{
		{"youtube pipeline with unknown domain", domain.SourceYouTube, "https://example.com/video"},
		{"youtube pipeline with instagram link", domain.SourceYouTube, "https://www.instagram.com/reel/abc"},
		{"instagram pipeline with youtube link", domain.SourceInstagram, "https://youtu.be/validID"},
		{"instagram pipeline with empty url", domain.SourceInstagram, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			report, _ := h.run(domain.Request{Kind: tt.kind, URL: tt.url})

			if report.Error == nil || report.Error.Kind != domain.ErrorKindValidation {
				t.Fatalf("error = %+v, want validation", report.Error)
			}
			if report.Error.Message == "" {
				t.Error("validation error should carry a message")
			}
			if got := h.acquirer.calls.Load(); got != 0 {
				t.Errorf("acquirer calls = %d, want 0", got)
			}
		})
	}
}

func TestRunYouTubeSuccess(t *testing.T) {
	h := newHarness(t)
	report, stages := h.run(domain.Request{Kind: domain.SourceYouTube, URL: "https://youtu.be/validID"})

	if !report.Succeeded() {
		t.Fatalf("status = %s, error = %v", report.Status, report.Error)
	}
	if report.Text != "hello world" || report.Language != "en" {
		t.Errorf("report = %q/%q, want hello world/en", report.Text, report.Language)
	}
	if report.JobID != "job-1" || report.Kind != domain.SourceYouTube {
		t.Errorf("report identity = %s/%s", report.JobID, report.Kind)
	}
	if report.FinishedAt.Before(report.StartedAt) {
		t.Error("FinishedAt precedes StartedAt")
	}
	if h.cleaner.calls() != 1 {
		t.Errorf("cleanup calls = %d, want 1", h.cleaner.calls())
	}
	assertGone(t, h.acquirer.dir)
	assertStages(t, stages,
		domain.JobStatusValidating,
		domain.JobStatusAcquiring,
		domain.JobStatusTranscribing,
		domain.JobStatusCleaning,
		domain.JobStatusSucceeded,
	)
}

func TestRunForwardsLanguageHint(t *testing.T) {
	tests := []struct {
		hint string
		want string
	}{
		{"pt", "pt"},
		{"pt-BR", "pt"},
		{"auto", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run("hint "+tt.hint, func(t *testing.T) {
			h := newHarness(t)
			report, _ := h.run(domain.Request{
				Kind:     domain.SourceInstagram,
				URL:      "https://www.instagram.com/reel/xyz",
				Language: tt.hint,
			})
			if !report.Succeeded() {
				t.Fatalf("status = %s, error = %v", report.Status, report.Error)
			}
			if got := h.engines.engine.lastLanguage(); got != tt.want {
				t.Errorf("engine language = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunAcquisitionFailureSkipsTranscription(t *testing.T) {
	h := newHarness(t)
	h.acquirer.err = domain.NewError(domain.ErrorKindAcquisition, "error downloading YouTube video: Private video", nil)

	report, stages := h.run(domain.Request{Kind: domain.SourceYouTube, URL: "https://youtube.com/watch?v=x"})

	if report.Error == nil || report.Error.Kind != domain.ErrorKindAcquisition {
		t.Fatalf("error = %+v, want acquisition", report.Error)
	}
	if h.engines.loads.Load() != 0 {
		t.Error("model must not load after acquisition failure")
	}
	if h.cleaner.calls() != 0 {
		t.Error("nothing to clean for a URL failure")
	}
	assertStages(t, stages, domain.JobStatusValidating, domain.JobStatusAcquiring, domain.JobStatusFailed)
}

func TestRunPartialUploadIsCleaned(t *testing.T) {
	h := newHarness(t)
	h.acquirer.err = errors.New("no space left on device")
	h.acquirer.partial = true

	report, _ := h.run(domain.Request{Kind: domain.SourceUpload, FileName: "clip.mp4", Data: []byte("data")})

	if report.Error == nil || report.Error.Kind != domain.ErrorKindAcquisition {
		t.Fatalf("error = %+v, want acquisition", report.Error)
	}
	if h.cleaner.calls() != 1 {
		t.Errorf("cleanup calls = %d, want 1", h.cleaner.calls())
	}
	assertGone(t, h.acquirer.dir)
}

func TestRunTranscriptionFailures(t *testing.T) {
	tests := []struct {
		name      string
		setup     func(h *harness)
		wantInMsg string
	}{
		{
			name: "no speech",
			setup: func(h *harness) {
				h.engines.engine.transcribe = func(ctx context.Context, audioPath, language string) (domain.Transcript, error) {
					return domain.Transcript{}, transcriber.ErrNoSpeech
				}
			},
			wantInMsg: "no speech",
		},
		{
			name: "corrupt media",
			setup: func(h *harness) {
				h.engines.engine.transcribe = func(ctx context.Context, audioPath, language string) (domain.Transcript, error) {
					return domain.Transcript{}, errors.New("unsupported or corrupt media: exit status 1")
				}
			},
			wantInMsg: "corrupt",
		},
		{
			name: "engine panic",
			setup: func(h *harness) {
				h.engines.engine.transcribe = func(ctx context.Context, audioPath, language string) (domain.Transcript, error) {
					panic("out of memory")
				}
			},
			wantInMsg: "out of memory",
		},
		{
			name: "model load failure",
			setup: func(h *harness) {
				h.engines.err = errors.New("load model small: model file not found")
			},
			wantInMsg: "model file not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.setup(h)

			report, stages := h.run(domain.Request{Kind: domain.SourceUpload, FileName: "silence.mp4", Data: []byte("RIFF")})

			if report.Status != domain.JobStatusFailed {
				t.Fatalf("status = %s, want failed", report.Status)
			}
			if report.Error == nil || report.Error.Kind != domain.ErrorKindTranscription {
				t.Fatalf("error = %+v, want transcription", report.Error)
			}
			if !strings.Contains(report.Error.Message, tt.wantInMsg) {
				t.Errorf("message = %q, want it to mention %q", report.Error.Message, tt.wantInMsg)
			}
			if h.cleaner.calls() != 1 {
				t.Errorf("cleanup calls = %d, want exactly 1", h.cleaner.calls())
			}
			assertGone(t, h.acquirer.dir)
			assertStages(t, stages,
				domain.JobStatusValidating,
				domain.JobStatusAcquiring,
				domain.JobStatusTranscribing,
				domain.JobStatusCleaning,
				domain.JobStatusFailed,
			)
		})
	}
}

func TestRunAcquirerPanic(t *testing.T) {
	h := newHarness(t)
	h.acquirer.panics = true

	report, _ := h.run(domain.Request{Kind: domain.SourceYouTube, URL: "https://youtu.be/x"})
	if report.Error == nil || report.Error.Kind != domain.ErrorKindAcquisition {
		t.Fatalf("error = %+v, want acquisition", report.Error)
	}
}

func TestRunCleanupFailureKeepsOutcome(t *testing.T) {
	h := newHarness(t)
	h.cleaner.panics = true

	report, _ := h.run(domain.Request{Kind: domain.SourceYouTube, URL: "https://youtu.be/x"})
	if !report.Succeeded() {
		t.Fatalf("status = %s, want succeeded despite cleanup failure", report.Status)
	}
	if h.cleaner.calls() != 1 {
		t.Errorf("cleanup calls = %d, want 1", h.cleaner.calls())
	}
}

func TestRunCancelledDuringTranscription(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	h.engines.engine.transcribe = func(ctx context.Context, audioPath, language string) (domain.Transcript, error) {
		cancel()
		<-ctx.Done()
		return domain.Transcript{}, ctx.Err()
	}

	report := h.orch.Run(ctx, "job-1", domain.Request{Kind: domain.SourceYouTube, URL: "https://youtu.be/x"}, nil)

	if report.Status != domain.JobStatusCancelled {
		t.Fatalf("status = %s, want cancelled", report.Status)
	}
	if report.Error == nil || report.Error.Kind != domain.ErrorKindCancelled {
		t.Fatalf("error = %+v, want cancelled", report.Error)
	}
	if h.cleaner.calls() != 1 {
		t.Errorf("cleanup calls = %d, want 1", h.cleaner.calls())
	}
	assertGone(t, h.acquirer.dir)
}

func TestRunCancelledBeforeAcquire(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := h.orch.Run(ctx, "job-1", domain.Request{Kind: domain.SourceYouTube, URL: "https://youtu.be/x"}, nil)
	if report.Status != domain.JobStatusCancelled {
		t.Fatalf("status = %s, want cancelled", report.Status)
	}
	if h.acquirer.calls.Load() != 0 {
		t.Error("cancelled job must not acquire")
	}
}

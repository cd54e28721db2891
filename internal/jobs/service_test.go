package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
	"github.com/nguyentantai21042004/video-transcriber/internal/logger"
)

// funcRunner adapts a function to Runner.
type funcRunner func(ctx context.Context, jobID string, req domain.Request, onStage StageFunc) domain.Report

func (f funcRunner) Run(ctx context.Context, jobID string, req domain.Request, onStage StageFunc) domain.Report {
	return f(ctx, jobID, req, onStage)
}

// blockingRunner runs until released or cancelled.
type blockingRunner struct {
	started chan string
	release chan struct{}

	running atomic.Int32
	maxSeen atomic.Int32
}

func newBlockingRunner() *blockingRunner {
	return &blockingRunner{
		started: make(chan string, 16),
		release: make(chan struct{}),
	}
}

func (r *blockingRunner) Run(ctx context.Context, jobID string, req domain.Request, onStage StageFunc) domain.Report {
	n := r.running.Add(1)
	defer r.running.Add(-1)
	for {
		seen := r.maxSeen.Load()
		if n <= seen || r.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	onStage(domain.JobStatusValidating)
	onStage(domain.JobStatusAcquiring)
	r.started <- jobID

	report := domain.Report{JobID: jobID, Kind: req.Kind}
	select {
	case <-r.release:
		onStage(domain.JobStatusTranscribing)
		onStage(domain.JobStatusCleaning)
		report.Status = domain.JobStatusSucceeded
		report.Text = "done"
	case <-ctx.Done():
		report.Status = domain.JobStatusCancelled
		report.Error = cancelledError(ctx.Err())
	}
	onStage(report.Status)
	return report
}

var youtubeReq = domain.Request{Kind: domain.SourceYouTube, URL: "https://youtu.be/x"}

func waitStarted(t *testing.T, r *blockingRunner) string {
	t.Helper()
	select {
	case id := <-r.started:
		return id
	case <-time.After(5 * time.Second):
		t.Fatal("job did not start")
		return ""
	}
}

func waitReport(t *testing.T, s *Service, id string) domain.Report {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	report, err := s.Wait(ctx, id)
	if err != nil {
		t.Fatalf("Wait(%s) error = %v", id, err)
	}
	return report
}

func TestServiceRunsOrchestratedJob(t *testing.T) {
	h := newHarness(t)
	svc := NewService(h.orch, ServiceOptions{MaxConcurrent: 1}, logger.Nop())
	defer svc.Shutdown(context.Background())

	id, err := svc.Submit("session-a", youtubeReq)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	report := waitReport(t, svc, id)
	if !report.Succeeded() || report.Text != "hello world" {
		t.Fatalf("report = %+v", report)
	}
	if report.JobID != id {
		t.Errorf("JobID = %s, want %s", report.JobID, id)
	}

	got, err := svc.Get(id)
	if err != nil || got.Status != domain.JobStatusSucceeded {
		t.Errorf("Get() = %+v, %v", got, err)
	}
	if _, ok := svc.ActiveJob("session-a"); ok {
		t.Error("session should be free after the job finished")
	}
}

func TestServiceOneActiveJobPerSession(t *testing.T) {
	runner := newBlockingRunner()
	svc := NewService(runner, ServiceOptions{MaxConcurrent: 2}, logger.Nop())
	defer svc.Shutdown(context.Background())

	first, err := svc.Submit("session-a", youtubeReq)
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitStarted(t, runner)

	if _, err := svc.Submit("session-a", youtubeReq); !errors.Is(err, ErrJobAlreadyRunning) {
		t.Fatalf("second Submit() error = %v, want ErrJobAlreadyRunning", err)
	}
	other, err := svc.Submit("session-b", youtubeReq)
	if err != nil {
		t.Fatalf("Submit() for another session error = %v", err)
	}
	waitStarted(t, runner)

	close(runner.release)
	waitReport(t, svc, first)
	waitReport(t, svc, other)

	if _, err := svc.Submit("session-a", youtubeReq); err != nil {
		t.Fatalf("Submit() after completion error = %v", err)
	}
}

func TestServiceBoundsConcurrency(t *testing.T) {
	runner := newBlockingRunner()
	svc := NewService(runner, ServiceOptions{MaxConcurrent: 1}, logger.Nop())
	defer svc.Shutdown(context.Background())

	var ids []string
	for _, session := range []string{"a", "b", "c"} {
		id, err := svc.Submit(session, youtubeReq)
		if err != nil {
			t.Fatalf("Submit(%s) error = %v", session, err)
		}
		ids = append(ids, id)
	}

	waitStarted(t, runner)
	close(runner.release)
	for _, id := range ids {
		waitReport(t, svc, id)
	}

	if got := runner.maxSeen.Load(); got != 1 {
		t.Errorf("max concurrent jobs = %d, want 1", got)
	}
}

func TestServiceCapsPendingJobs(t *testing.T) {
	runner := newBlockingRunner()
	svc := NewService(runner, ServiceOptions{MaxConcurrent: 1, MaxPending: 2}, logger.Nop())
	defer svc.Shutdown(context.Background())

	first, err := svc.Submit("a", youtubeReq)
	if err != nil {
		t.Fatalf("Submit(a) error = %v", err)
	}
	if _, err := svc.Submit("b", youtubeReq); err != nil {
		t.Fatalf("Submit(b) error = %v", err)
	}
	if _, err := svc.Submit("c", youtubeReq); !errors.Is(err, ErrTooManyJobs) {
		t.Fatalf("Submit(c) error = %v, want ErrTooManyJobs", err)
	}

	waitStarted(t, runner)
	if err := svc.Cancel(first); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	waitReport(t, svc, first)

	// A finished job frees its slot.
	if _, err := svc.Submit("c", youtubeReq); err != nil {
		t.Fatalf("Submit(c) after a job finished error = %v", err)
	}
	close(runner.release)
}

func TestServiceCancel(t *testing.T) {
	runner := newBlockingRunner()
	svc := NewService(runner, ServiceOptions{}, logger.Nop())
	defer svc.Shutdown(context.Background())

	if err := svc.Cancel("missing"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("Cancel(missing) error = %v, want ErrJobNotFound", err)
	}

	id, _ := svc.Submit("session-a", youtubeReq)
	waitStarted(t, runner)

	if err := svc.Cancel(id); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	report := waitReport(t, svc, id)
	if report.Status != domain.JobStatusCancelled {
		t.Fatalf("status = %s, want cancelled", report.Status)
	}

	if err := svc.Cancel(id); !errors.Is(err, ErrJobNotRunning) {
		t.Errorf("Cancel(finished) error = %v, want ErrJobNotRunning", err)
	}
}

func TestServiceCancelQueuedJob(t *testing.T) {
	runner := newBlockingRunner()
	svc := NewService(runner, ServiceOptions{MaxConcurrent: 1}, logger.Nop())
	defer svc.Shutdown(context.Background())

	running, _ := svc.Submit("a", youtubeReq)
	waitStarted(t, runner)
	queued, _ := svc.Submit("b", youtubeReq)

	if err := svc.Cancel(queued); err != nil {
		t.Fatalf("Cancel(queued) error = %v", err)
	}
	report := waitReport(t, svc, queued)
	if report.Status != domain.JobStatusCancelled {
		t.Fatalf("queued job status = %s, want cancelled", report.Status)
	}

	close(runner.release)
	if got := waitReport(t, svc, running); !got.Succeeded() {
		t.Errorf("running job status = %s", got.Status)
	}
}

func TestServiceRetentionEvictsOldest(t *testing.T) {
	runner := funcRunner(func(ctx context.Context, jobID string, req domain.Request, onStage StageFunc) domain.Report {
		return domain.Report{JobID: jobID, Status: domain.JobStatusSucceeded}
	})
	svc := NewService(runner, ServiceOptions{Retention: 2}, logger.Nop())
	defer svc.Shutdown(context.Background())

	var ids []string
	for i := 0; i < 3; i++ {
		id, err := svc.Submit("session", youtubeReq)
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		waitReport(t, svc, id)
		ids = append(ids, id)
	}

	if _, err := svc.Get(ids[0]); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("oldest job error = %v, want ErrJobNotFound", err)
	}
	for _, id := range ids[1:] {
		if _, err := svc.Get(id); err != nil {
			t.Errorf("Get(%s) error = %v", id, err)
		}
	}
}

func TestServiceEvents(t *testing.T) {
	h := newHarness(t)
	svc := NewService(h.orch, ServiceOptions{}, logger.Nop())
	defer svc.Shutdown(context.Background())

	id, _ := svc.Submit("session", youtubeReq)
	waitReport(t, svc, id)

	events := svc.Events(id, 0)
	want := []domain.JobStatus{
		domain.JobStatusQueued,
		domain.JobStatusValidating,
		domain.JobStatusAcquiring,
		domain.JobStatusTranscribing,
		domain.JobStatusCleaning,
		domain.JobStatusSucceeded,
	}
	if len(events) != len(want) {
		t.Fatalf("events = %+v, want %d", events, len(want))
	}
	for i, ev := range events {
		if ev.Status != want[i] {
			t.Errorf("event %d status = %s, want %s", i, ev.Status, want[i])
		}
		if i > 0 && ev.Seq <= events[i-1].Seq {
			t.Errorf("event %d seq %d not increasing", i, ev.Seq)
		}
	}
	if last := events[len(events)-1]; last.Type != EventTypeResult {
		t.Errorf("last event type = %s, want result", last.Type)
	}

	if rest := svc.Events(id, events[2].Seq); len(rest) != len(want)-3 {
		t.Errorf("Events(since) = %d events, want %d", len(rest), len(want)-3)
	}
	if other := svc.Events("other", 0); len(other) != 0 {
		t.Errorf("Events(other) = %d events, want 0", len(other))
	}
}

func TestServiceShutdown(t *testing.T) {
	runner := newBlockingRunner()
	svc := NewService(runner, ServiceOptions{}, logger.Nop())

	id, _ := svc.Submit("session", youtubeReq)
	waitStarted(t, runner)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	report, err := svc.Get(id)
	if err != nil || report.Status != domain.JobStatusCancelled {
		t.Errorf("job after shutdown = %+v, %v", report, err)
	}
	if _, err := svc.Submit("session", youtubeReq); !errors.Is(err, ErrServiceClosed) {
		t.Errorf("Submit() after shutdown error = %v, want ErrServiceClosed", err)
	}
}

func TestServiceConcurrentSubmitSameSession(t *testing.T) {
	runner := newBlockingRunner()
	svc := NewService(runner, ServiceOptions{MaxConcurrent: 4}, logger.Nop())
	defer svc.Shutdown(context.Background())

	var accepted atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Submit("same", youtubeReq); err == nil {
				accepted.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := accepted.Load(); got != 1 {
		t.Fatalf("accepted = %d, want 1", got)
	}
	close(runner.release)
}

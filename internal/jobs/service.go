package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
	"github.com/nguyentantai21042004/video-transcriber/internal/logger"
	"github.com/nguyentantai21042004/video-transcriber/internal/workspace"
)

var (
	// ErrJobAlreadyRunning is returned when a session starts a second active job.
	ErrJobAlreadyRunning = errors.New("job already running")
	// ErrJobNotFound is returned for unknown or evicted job ids.
	ErrJobNotFound = errors.New("job not found")
	// ErrJobNotRunning is returned when cancelling a finished job.
	ErrJobNotRunning = errors.New("job is not running")
	// ErrServiceClosed is returned by Submit after Shutdown.
	ErrServiceClosed = errors.New("job service is shut down")
	// ErrTooManyJobs is returned when MaxPending jobs are already queued or running.
	ErrTooManyJobs = errors.New("too many pending jobs")
)

// ServiceOptions tunes the Service.
type ServiceOptions struct {
	MaxConcurrent int
	// MaxPending caps queued plus running jobs across all sessions; zero or
	// less means no cap.
	MaxPending int
	Retention  int
	MaxEvents  int
}

type job struct {
	id      string
	session string
	report  domain.Report
	cancel  context.CancelFunc
	done    chan struct{}
}

// Service runs jobs off the caller's goroutine, one active job per session,
// with a bounded number of jobs in flight. Finished reports stay in memory
// until evicted by retention.
type Service struct {
	runner     Runner
	sem        *semaphore
	events     *EventBus
	logger     logger.Logger
	retention  int
	maxPending int

	baseCtx   context.Context
	cancelAll context.CancelFunc
	wg        sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	pending  int
	jobs     map[string]*job
	sessions map[string]string
	finished []string
}

// NewService creates a Service backed by runner.
func NewService(runner Runner, opts ServiceOptions, log logger.Logger) *Service {
	if opts.Retention <= 0 {
		opts.Retention = 100
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		runner:     runner,
		sem:        newSemaphore(opts.MaxConcurrent),
		events:     NewEventBus(opts.MaxEvents),
		logger:     log,
		retention:  opts.Retention,
		maxPending: opts.MaxPending,
		baseCtx:    ctx,
		cancelAll:  cancel,
		jobs:       make(map[string]*job),
		sessions:   make(map[string]string),
	}
}

// Submit queues req for sessionID and returns the new job id.
func (s *Service) Submit(sessionID string, req domain.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return "", ErrServiceClosed
	}
	if active, ok := s.sessions[sessionID]; ok {
		if j, ok := s.jobs[active]; ok && IsActive(j.report.Status) {
			return "", ErrJobAlreadyRunning
		}
	}
	if s.maxPending > 0 && s.pending >= s.maxPending {
		return "", ErrTooManyJobs
	}

	ctx, cancel := context.WithCancel(s.baseCtx)
	j := &job{
		id:      workspace.NewJobID(),
		session: sessionID,
		report: domain.Report{
			Kind:      req.Kind,
			Status:    domain.JobStatusQueued,
			StartedAt: time.Now(),
		},
		cancel: cancel,
		done:   make(chan struct{}),
	}
	j.report.JobID = j.id
	s.jobs[j.id] = j
	s.sessions[sessionID] = j.id
	s.pending++

	s.events.Publish(Event{JobID: j.id, Type: EventTypeStatus, Status: domain.JobStatusQueued})
	s.logger.Info(logger.WithJobID(ctx, j.id), "Queued %s job for session %s", req.Kind, sessionID)

	s.wg.Add(1)
	go s.run(ctx, j, req)
	return j.id, nil
}

func (s *Service) run(ctx context.Context, j *job, req domain.Request) {
	defer s.wg.Done()
	defer j.cancel()

	var report domain.Report
	if err := s.sem.acquire(ctx); err != nil {
		now := time.Now()
		report = domain.Report{
			JobID:      j.id,
			Kind:       req.Kind,
			Status:     domain.JobStatusCancelled,
			Error:      cancelledError(err),
			StartedAt:  now,
			FinishedAt: now,
		}
	} else {
		report = s.runner.Run(ctx, j.id, req, func(status domain.JobStatus) {
			s.setStatus(ctx, j, status)
		})
		s.sem.release()
	}

	s.complete(j, report)
}

func (s *Service) setStatus(ctx context.Context, j *job, status domain.JobStatus) {
	s.mu.Lock()
	from := j.report.Status
	if !CanTransition(from, status) {
		s.mu.Unlock()
		s.logger.Warn(logger.WithJobID(ctx, j.id), "Ignoring invalid transition %s -> %s", from, status)
		return
	}
	j.report.Status = status
	s.mu.Unlock()

	if !status.Terminal() {
		s.events.Publish(Event{JobID: j.id, Type: EventTypeStatus, Status: status})
	}
}

func (s *Service) complete(j *job, report domain.Report) {
	s.mu.Lock()
	j.report = report
	s.pending--
	if s.sessions[j.session] == j.id {
		delete(s.sessions, j.session)
	}
	s.finished = append(s.finished, j.id)
	s.evictLocked()
	s.mu.Unlock()

	event := Event{JobID: j.id, Type: EventTypeResult, Status: report.Status}
	if report.Error != nil {
		event.Type = EventTypeError
		event.Message = report.Error.Message
	}
	s.events.Publish(event)
	close(j.done)
}

// evictLocked drops the oldest finished jobs beyond retention.
func (s *Service) evictLocked() {
	for len(s.finished) > s.retention {
		delete(s.jobs, s.finished[0])
		s.finished = s.finished[1:]
	}
}

// Get returns a snapshot of the job's report.
func (s *Service) Get(jobID string) (domain.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[jobID]
	if !ok {
		return domain.Report{}, ErrJobNotFound
	}
	return j.report, nil
}

// Wait blocks until the job finishes or ctx is done.
func (s *Service) Wait(ctx context.Context, jobID string) (domain.Report, error) {
	s.mu.Lock()
	j, ok := s.jobs[jobID]
	s.mu.Unlock()
	if !ok {
		return domain.Report{}, ErrJobNotFound
	}

	select {
	case <-j.done:
		s.mu.Lock()
		defer s.mu.Unlock()
		return j.report, nil
	case <-ctx.Done():
		return domain.Report{}, ctx.Err()
	}
}

// Cancel requests cancellation of a queued or running job.
func (s *Service) Cancel(jobID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[jobID]
	if !ok {
		return ErrJobNotFound
	}
	if !IsActive(j.report.Status) {
		return ErrJobNotRunning
	}
	j.cancel()
	return nil
}

// ActiveJob returns the id of the session's running job, if any.
func (s *Service) ActiveJob(sessionID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[sessionID]
	return id, ok
}

// Events returns events after seq, optionally restricted to one job.
func (s *Service) Events(jobID string, since int64) []Event {
	return s.events.Since(since, jobID)
}

// Shutdown stops accepting jobs, cancels running ones and waits for them.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	s.cancelAll()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

package workspace

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/nguyentantai21042004/video-transcriber/internal/domain"
	"github.com/nguyentantai21042004/video-transcriber/internal/logger"
)

const lockFileName = ".workspace.lock"

// Manager owns the process-scoped scratch directory. Every file written into
// it is named after a job id, so concurrent jobs never share a path.
type Manager struct {
	root   string
	logger logger.Logger

	once    sync.Once
	dir     string
	err     error
	created bool
	lock    *flock.Flock
}

// New creates a Manager. An empty root means a fresh temp directory is
// created on first use.
func New(root string, log logger.Logger) *Manager {
	return &Manager{
		root:   strings.TrimSpace(root),
		logger: log,
	}
}

// NewJobID returns a collision-resistant job identifier.
func NewJobID() string {
	return uuid.NewString()
}

// Acquire returns the workspace directory, creating it on the first call.
// A creation failure is memoized and returned on every later call.
func (m *Manager) Acquire() (string, error) {
	m.once.Do(func() {
		m.dir, m.err = m.create()
	})
	return m.dir, m.err
}

func (m *Manager) create() (string, error) {
	if m.root == "" {
		dir, err := os.MkdirTemp("", "video-transcriber-*")
		if err != nil {
			return "", fmt.Errorf("create temp workspace: %w", err)
		}
		m.created = true
		return dir, nil
	}

	if err := os.MkdirAll(m.root, 0o755); err != nil {
		return "", fmt.Errorf("create workspace %s: %w", m.root, err)
	}

	lock := flock.New(filepath.Join(m.root, lockFileName))
	ok, err := lock.TryLock()
	if err != nil {
		return "", fmt.Errorf("lock workspace %s: %w", m.root, err)
	}
	if !ok {
		return "", fmt.Errorf("workspace %s is in use by another process", m.root)
	}
	m.lock = lock

	abs, err := filepath.Abs(m.root)
	if err != nil {
		return m.root, nil
	}
	return abs, nil
}

// UniquePath returns <workspace>/<jobID><ext>. The same job id always maps to
// the same path.
func (m *Manager) UniquePath(jobID, ext string) (string, error) {
	dir, err := m.Acquire()
	if err != nil {
		return "", err
	}
	jobID = strings.TrimSpace(jobID)
	if jobID == "" || strings.ContainsAny(jobID, `/\`) || jobID == "." || jobID == ".." {
		return "", fmt.Errorf("invalid job id %q", jobID)
	}
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(dir, jobID+strings.ToLower(ext)), nil
}

// Remove deletes a workspace file. It never fails: a missing file counts as
// removed and any other error is logged.
func (m *Manager) Remove(ctx context.Context, path string) {
	if strings.TrimSpace(path) == "" {
		return
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		m.logger.Warn(ctx, "%v", domain.NewError(domain.ErrorKindCleanup, fmt.Sprintf("failed to remove %s", path), err))
		return
	}
	m.logger.Debug(ctx, "Cleaned up temp file: %s", path)
}

// Close releases the workspace lock and deletes an auto-created directory.
func (m *Manager) Close() error {
	var errs []error
	if m.lock != nil {
		if err := m.lock.Unlock(); err != nil {
			errs = append(errs, fmt.Errorf("unlock workspace: %w", err))
		}
		_ = os.Remove(m.lock.Path())
		m.lock = nil
	}
	if m.created && m.dir != "" {
		if err := os.RemoveAll(m.dir); err != nil {
			errs = append(errs, fmt.Errorf("remove workspace: %w", err))
		}
	}
	return errors.Join(errs...)
}

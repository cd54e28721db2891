package transcriber

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nguyentantai21042004/video-transcriber/internal/logger"
)

// defaultLoadTimeout bounds one model load, including a first-time download.
const defaultLoadTimeout = 2 * time.Hour

// Registry owns the long-lived engines, one per model size. The first load of
// a size is single-flight; later calls reuse the cached engine. Failed loads
// are not cached.
type Registry struct {
	loader      Loader
	logger      logger.Logger
	loadTimeout time.Duration

	group   singleflight.Group
	mu      sync.RWMutex
	engines map[string]Engine
}

// NewRegistry creates an empty Registry backed by loader.
func NewRegistry(loader Loader, log logger.Logger) *Registry {
	return &Registry{
		loader:      loader,
		logger:      log,
		loadTimeout: defaultLoadTimeout,
		engines:     make(map[string]Engine),
	}
}

// EnsureLoaded returns the engine for size, loading it on first use.
// The load runs detached from ctx under the registry's own deadline; ctx only
// bounds how long this caller waits for it.
func (r *Registry) EnsureLoaded(ctx context.Context, size string) (Engine, error) {
	size = NormalizeSize(size)
	if engine, ok := r.cached(size); ok {
		return engine, nil
	}

	ch := r.group.DoChan(size, func() (interface{}, error) {
		if engine, ok := r.cached(size); ok {
			return engine, nil
		}

		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.loadTimeout)
		defer cancel()

		r.logger.Info(loadCtx, "Loading transcription model %s...", size)
		engine, err := r.loader.Load(loadCtx, size)
		if err != nil {
			return nil, fmt.Errorf("load model %s: %w", size, err)
		}

		r.mu.Lock()
		r.engines[size] = engine
		r.mu.Unlock()

		r.logger.Info(loadCtx, "Transcription model %s loaded", size)
		return engine, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			r.logger.Debug(ctx, "Joined in-flight load of model %s", size)
		}
		return res.Val.(Engine), nil
	}
}

// Loaded returns the sizes of all loaded engines.
func (r *Registry) Loaded() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sizes := make([]string, 0, len(r.engines))
	for size := range r.engines {
		sizes = append(sizes, size)
	}
	sort.Strings(sizes)
	return sizes
}

func (r *Registry) cached(size string) (Engine, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	engine, ok := r.engines[size]
	return engine, ok
}

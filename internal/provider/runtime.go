package provider

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

// Runtime guards an Extractor behind an initialization barrier. Until Init
// succeeds every Extract fails fast with domain.ErrExtractorNotReady.
type Runtime struct {
	extractor Extractor
	logger    *slog.Logger

	mu    sync.Mutex
	ready atomic.Bool
}

func NewRuntime(extractor Extractor, logger *slog.Logger) *Runtime {
	return &Runtime{
		extractor: extractor,
		logger:    logger.With(slog.String("component", "extractor_runtime")),
	}
}

// Init runs the extractor's initialization. Once it has succeeded further
// calls are no-ops; a failed attempt may be retried.
func (r *Runtime) Init(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ready.Load() {
		return nil
	}

	start := time.Now()
	if initializer, ok := r.extractor.(Initializer); ok {
		if err := initializer.Init(ctx); err != nil {
			return err
		}
	}

	r.ready.Store(true)
	r.logger.Info("extractor ready", slog.Duration("took", time.Since(start)))
	return nil
}

// InitWithRetry calls Init every interval until it succeeds or ctx ends.
func (r *Runtime) InitWithRetry(ctx context.Context, interval time.Duration) error {
	for {
		err := r.Init(ctx)
		if err == nil {
			return nil
		}
		r.logger.Warn("extractor not ready, retrying",
			slog.Any("error", err),
			slog.Duration("retry_in", interval),
		)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}

func (r *Runtime) Ready() bool {
	return r.ready.Load()
}

func (r *Runtime) Extract(ctx context.Context, image []byte) ([]domain.Detection, error) {
	if !r.ready.Load() {
		return nil, domain.ErrExtractorNotReady
	}
	return r.extractor.Extract(ctx, image)
}

func (r *Runtime) Close() error {
	if c, ok := r.extractor.(Closer); ok {
		return c.Close()
	}
	return nil
}

var _ Extractor = (*Runtime)(nil)

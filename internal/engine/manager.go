// Package engine schedules the per-source scraping workers. A Manager owns
// one worker per registered source; each running worker repeats a full
// fetch, normalize, dedup and persist cycle on its own interval.
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/IshaanNene/HoaxWatch/internal/classify"
	"github.com/IshaanNene/HoaxWatch/internal/config"
	"github.com/IshaanNene/HoaxWatch/internal/observability"
	"github.com/IshaanNene/HoaxWatch/internal/pipeline"
	"github.com/IshaanNene/HoaxWatch/internal/runner"
	"github.com/IshaanNene/HoaxWatch/internal/sources"
	"github.com/IshaanNene/HoaxWatch/internal/storage"
	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// ErrShutdown is returned by control calls after Shutdown.
var ErrShutdown = errors.New("manager is shut down")

// Option configures a Manager.
type Option func(*Manager)

// WithDefaultInterval sets the interval used when neither the caller nor the
// source configuration names one.
func WithDefaultInterval(d time.Duration) Option {
	return func(m *Manager) { m.defaultInterval = d }
}

// WithClassifier replaces the rule classifier.
func WithClassifier(c classify.Classifier) Option {
	return func(m *Manager) { m.classifier = c }
}

// WithMetrics shares a metrics registry with the caller.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(m *Manager) { m.metrics = metrics }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager orchestrates source workers.
type Manager struct {
	// mu guards the worker map and the closed flag. Control calls hold it
	// shared; Status and Shutdown hold it exclusively.
	mu      sync.RWMutex
	workers map[string]*worker
	order   []string
	closed  bool

	store      storage.Store
	runner     *runner.Runner
	normalizer *pipeline.Normalizer
	classifier classify.Classifier
	metrics    *observability.Metrics

	defaultInterval time.Duration
	now             func() time.Time

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	logger  *slog.Logger
}

// New creates a Manager with one stopped worker per registry entry.
func New(registry *sources.Registry, store storage.Store, logger *slog.Logger, opts ...Option) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		workers:         make(map[string]*worker),
		store:           store,
		defaultInterval: config.DefaultConfig().Scraper.DefaultInterval,
		now:             time.Now,
		baseCtx:         ctx,
		cancel:          cancel,
		logger:          logger.With("component", "manager"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.classifier == nil {
		m.classifier = classify.New()
	}
	if m.metrics == nil {
		m.metrics = observability.NewMetrics(logger)
	}
	m.runner = runner.New(store, logger)
	m.normalizer = pipeline.NewNormalizer(logger, m.now)

	for _, e := range registry.Entries() {
		m.workers[e.Key] = &worker{entry: e}
		m.order = append(m.order, e.Key)
	}
	return m
}

// DefaultInterval returns the interval applied when none is given.
func (m *Manager) DefaultInterval() time.Duration { return m.defaultInterval }

// Metrics returns the manager's metrics registry.
func (m *Manager) Metrics() *observability.Metrics { return m.metrics }

// Keys returns the source keys in registry order.
func (m *Manager) Keys() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

// SourceName returns the display name recorded for key's runs.
func (m *Manager) SourceName(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.workers[key]
	if !ok {
		return "", &types.SourceError{Key: key, Err: types.ErrUnknownSource}
	}
	return w.entry.Name, nil
}

// lookup returns the worker for key or a typed error. Callers hold m.mu.
func (m *Manager) lookup(key string) (*worker, error) {
	w, ok := m.workers[key]
	if !ok {
		return nil, &types.SourceError{Key: key, Err: types.ErrUnknownSource}
	}
	if !w.entry.Available() {
		err := w.entry.Err
		if err == nil {
			err = types.ErrDependencyUnavailable
		}
		return w, &types.SourceError{Key: key, Err: err}
	}
	return w, nil
}

// StartSource spawns the background loop for key. It reports false when the
// worker is already running. A zero interval selects the source's configured
// interval or the default; anything below the floor is raised to it.
func (m *Manager) StartSource(key string, interval time.Duration) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return false, ErrShutdown
	}

	w, err := m.lookup(key)
	if err != nil {
		return false, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return false, nil
	}

	fallback := w.entry.Interval
	if fallback <= 0 {
		fallback = m.defaultInterval
	}
	interval = config.ClampInterval(interval, fallback)

	ctx, cancel := context.WithCancel(m.baseCtx)
	done := make(chan struct{})
	w.running = true
	w.interval = interval
	w.startedAt = m.now().UTC()
	w.cancel = cancel
	w.done = done

	m.metrics.RunningWorkers.Add(1)
	m.wg.Add(1)
	go m.loop(ctx, w, interval, done)

	m.logger.Info("source started", "source", key, "interval", interval)
	return true, nil
}

// StopSource signals the loop for key to exit. It reports false when the
// worker is not running. An in-flight cycle completes first.
func (m *Manager) StopSource(key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.workers[key]
	if !ok {
		return false, &types.SourceError{Key: key, Err: types.ErrUnknownSource}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return false, nil
	}
	w.stopLocked()
	m.logger.Info("source stopped", "source", key)
	return true, nil
}

// Start starts every available source. The result maps each started key to
// whether its state changed.
func (m *Manager) Start(interval time.Duration) map[string]bool {
	changed := make(map[string]bool)
	for _, key := range m.order {
		ok, err := m.StartSource(key, interval)
		if err != nil {
			if !errors.Is(err, types.ErrDependencyUnavailable) {
				m.logger.Warn("start failed", "source", key, "error", err)
			}
			continue
		}
		changed[key] = ok
	}
	return changed
}

// Stop stops every source.
func (m *Manager) Stop() map[string]bool {
	changed := make(map[string]bool, len(m.order))
	for _, key := range m.order {
		ok, _ := m.StopSource(key)
		changed[key] = ok
	}
	return changed
}

// Running reports whether any worker is running.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, w := range m.workers {
		w.mu.Lock()
		running := w.running
		w.mu.Unlock()
		if running {
			return true
		}
	}
	return false
}

// Shutdown stops all workers and waits for their loops to exit or for ctx
// to expire. Later control calls fail with ErrShutdown.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if !m.closed {
		m.closed = true
		for _, w := range m.workers {
			w.mu.Lock()
			if w.running {
				w.stopLocked()
			}
			w.mu.Unlock()
		}
		m.cancel()
	}
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("manager stopped")
		return nil
	case <-ctx.Done():
		m.logger.Warn("shutdown timed out with cycles in flight")
		return ctx.Err()
	}
}

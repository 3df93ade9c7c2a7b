package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/HoaxWatch/internal/sources"
	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// worker is the scheduling state of one source. It is created once by New
// and never removed; start and stop only toggle it.
type worker struct {
	entry sources.Entry

	mu         sync.Mutex
	running    bool
	interval   time.Duration
	startedAt  time.Time
	lastRunAt  time.Time
	cancel     context.CancelFunc
	done       chan struct{}
	lastRun    *types.SourceRun
	lastHealth types.Health
	lastResult *CycleResult
}

// stopLocked cancels the loop and marks the worker stopped. Callers hold w.mu.
func (w *worker) stopLocked() {
	if w.cancel != nil {
		w.cancel()
	}
	w.running = false
	w.cancel = nil
}

// finish stores the outcome of a completed cycle.
func (w *worker) finish(res CycleResult, at time.Time) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.lastRunAt = at
	if res.Record != nil {
		rec := *res.Record
		w.lastRun = &rec
	}
	w.lastHealth = res.Health
	r := res
	w.lastResult = &r
}

// loop runs cycles for w until ctx is cancelled. The cycle itself runs on a
// context detached from ctx so a stop never interrupts a fetch mid-flight.
func (m *Manager) loop(ctx context.Context, w *worker, interval time.Duration, done chan struct{}) {
	defer m.wg.Done()
	defer close(done)
	defer m.metrics.RunningWorkers.Add(-1)

	logger := m.logger.With("source", w.entry.Key)
	logger.Debug("worker loop started", "interval", interval)

	for ctx.Err() == nil {
		res, err := m.runCycle(context.WithoutCancel(ctx), w, uuid.New(), true)
		if err != nil {
			logger.Error("cycle failed", "error", err)
		} else {
			logger.Info("cycle complete",
				"collected", res.Collected,
				"inserted", res.Inserted,
				"status", res.Status,
			)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
		case <-timer.C:
		}
	}

	// A restart may already have installed a newer loop.
	w.mu.Lock()
	if w.done == done {
		w.running = false
		w.cancel = nil
	}
	w.mu.Unlock()
	logger.Debug("worker loop exited")
}

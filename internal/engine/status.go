package engine

import (
	"context"
	"time"

	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// Status is a consistent snapshot of every worker.
type Status struct {
	Running                bool           `json:"running"`
	DefaultIntervalSeconds int            `json:"default_interval_seconds"`
	Sources                []SourceStatus `json:"sources"`
	GeneratedAt            time.Time      `json:"generated_at"`
}

// SourceStatus is the snapshot of one worker.
type SourceStatus struct {
	Key             string           `json:"key"`
	Name            string           `json:"name"`
	Available       bool             `json:"available"`
	Error           string           `json:"error,omitempty"`
	Running         bool             `json:"running"`
	IntervalSeconds int              `json:"interval_seconds"`
	StartedAt       *time.Time       `json:"started_at,omitempty"`
	LastRunAt       *time.Time       `json:"last_run_at,omitempty"`
	LastRun         *types.SourceRun `json:"last_run,omitempty"`
	Health          types.Health     `json:"health,omitempty"`
	LastResult      *CycleResult     `json:"last_result,omitempty"`
}

// SourceMetrics aggregates the source run history of one source.
type SourceMetrics struct {
	Key            string                    `json:"key"`
	Name           string                    `json:"name"`
	Available      bool                      `json:"available"`
	Runs           int64                     `json:"runs"`
	Successes      int64                     `json:"successes"`
	Failures       map[types.RunStatus]int64 `json:"failures"`
	TotalCollected int64                     `json:"total_collected"`
	AvgCollected   float64                   `json:"avg_collected"`
	SuccessRate    float64                   `json:"success_rate"`
	LastStatus     types.RunStatus           `json:"last_status,omitempty"`
	LastRunTime    *time.Time                `json:"last_run_time,omitempty"`
}

// Status returns the current state of every source. Latest run records are
// read from the store first; the worker snapshot itself is taken under the
// manager lock and every worker lock so no transition is half visible.
func (m *Manager) Status(ctx context.Context) Status {
	stored, err := m.store.LatestSourceRuns(ctx)
	if err != nil {
		m.logger.Warn("loading latest source runs failed", "error", err)
		stored = nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range m.order {
		m.workers[key].mu.Lock()
	}
	defer func() {
		for _, key := range m.order {
			m.workers[key].mu.Unlock()
		}
	}()

	st := Status{
		DefaultIntervalSeconds: int(m.defaultInterval / time.Second),
		Sources:                make([]SourceStatus, 0, len(m.order)),
		GeneratedAt:            m.now().UTC(),
	}
	for _, key := range m.order {
		w := m.workers[key]
		ss := SourceStatus{
			Key:       key,
			Name:      w.entry.Name,
			Available: w.entry.Available(),
			Error:     errString(w.entry.Err),
			Running:   w.running,
			Health:    w.lastHealth,
		}
		interval := w.interval
		if interval == 0 {
			interval = w.entry.Interval
		}
		if interval == 0 {
			interval = m.defaultInterval
		}
		ss.IntervalSeconds = int(interval / time.Second)
		ss.StartedAt = timePtr(w.startedAt)
		ss.LastRunAt = timePtr(w.lastRunAt)

		switch {
		case w.lastRun != nil:
			rec := *w.lastRun
			ss.LastRun = &rec
		case stored != nil:
			if rec, ok := stored[w.entry.Name]; ok {
				ss.LastRun = &rec
				ss.Health = types.HealthFor(rec.ArticlesCollected)
			}
		}
		if w.lastResult != nil {
			r := *w.lastResult
			ss.LastResult = &r
		}
		if w.running {
			st.Running = true
		}
		st.Sources = append(st.Sources, ss)
	}
	return st
}

// SourceMetrics returns per-source totals from the source run history, in
// registry order. Sources that never ran report zeros.
func (m *Manager) SourceMetrics(ctx context.Context) ([]SourceMetrics, error) {
	stats, err := m.store.SourceRunStats(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]types.SourceRunStats, len(stats))
	for _, s := range stats {
		byName[s.SourceName] = s
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]SourceMetrics, 0, len(m.order))
	for _, key := range m.order {
		w := m.workers[key]
		sm := SourceMetrics{
			Key:       key,
			Name:      w.entry.Name,
			Available: w.entry.Available(),
			Failures:  make(map[types.RunStatus]int64),
		}
		if s, ok := byName[w.entry.Name]; ok {
			sm.Runs = s.Runs
			sm.Successes = s.ByStatus[types.StatusSuccess]
			for status, n := range s.ByStatus {
				if status != types.StatusSuccess {
					sm.Failures[status] = n
				}
			}
			sm.TotalCollected = s.TotalCollected
			if s.Runs > 0 {
				sm.AvgCollected = float64(s.TotalCollected) / float64(s.Runs)
			}
			sm.SuccessRate = s.SuccessRate()
			sm.LastStatus = s.LastStatus
			sm.LastRunTime = timePtr(s.LastRunTime)
		}
		out = append(out, sm)
	}
	return out, nil
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/HoaxWatch/internal/classify"
	"github.com/IshaanNene/HoaxWatch/internal/pipeline"
	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// CycleResult summarizes one fetch, normalize, dedup and persist pass for a
// single source.
type CycleResult struct {
	CycleID    uuid.UUID        `json:"cycle_id"`
	Key        string           `json:"key"`
	Source     string           `json:"source"`
	Available  bool             `json:"available"`
	Status     types.RunStatus  `json:"status,omitempty"`
	Health     types.Health     `json:"health,omitempty"`
	Collected  int              `json:"collected"`
	Dropped    int              `json:"dropped"`
	Duplicates int              `json:"duplicates"`
	Inserted   int              `json:"inserted"`
	Classified int              `json:"classified"`
	Hoaxes     int              `json:"hoaxes"`
	Error      string           `json:"error,omitempty"`
	StartedAt  time.Time        `json:"started_at"`
	Duration   time.Duration    `json:"duration"`
	Record     *types.SourceRun `json:"source_run,omitempty"`
}

// BatchResult is the outcome of RunAllOnce.
type BatchResult struct {
	CycleID        uuid.UUID     `json:"cycle_id"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
	TotalCollected int           `json:"total_collected"`
	NewInserted    int           `json:"new_inserted"`
	Status         string        `json:"status"`
	Sources        []CycleResult `json:"sources"`
	Run            *types.Run    `json:"run,omitempty"`
}

// RunSourceOnce runs a single cycle for key synchronously, regardless of
// whether its worker is running. The returned error is a control error or a
// persistence failure; fetch failures are reported in the result.
func (m *Manager) RunSourceOnce(ctx context.Context, key string) (CycleResult, error) {
	m.mu.RLock()
	w, err := m.lookup(key)
	m.mu.RUnlock()
	if err != nil {
		return CycleResult{Key: key}, err
	}
	return m.runCycle(ctx, w, uuid.New(), true)
}

// RunAllOnce runs one cycle for every source concurrently and records a
// single run row for the batch. It always returns a breakdown entry per
// registered source, unavailable ones included.
func (m *Manager) RunAllOnce(ctx context.Context) BatchResult {
	batch := BatchResult{
		CycleID:   uuid.New(),
		StartedAt: m.now().UTC(),
		Status:    types.RunSucceeded,
	}

	m.mu.RLock()
	workers := make([]*worker, len(m.order))
	for i, key := range m.order {
		workers[i] = m.workers[key]
	}
	m.mu.RUnlock()

	results := make([]CycleResult, len(workers))
	errs := make([]error, len(workers))
	var wg sync.WaitGroup
	for i, w := range workers {
		if !w.entry.Available() {
			results[i] = CycleResult{
				CycleID: batch.CycleID,
				Key:     w.entry.Key,
				Source:  w.entry.Name,
				Error:   errString(w.entry.Err),
			}
			continue
		}
		wg.Add(1)
		go func(i int, w *worker) {
			defer wg.Done()
			results[i], errs[i] = m.runCycle(ctx, w, batch.CycleID, false)
		}(i, w)
	}
	wg.Wait()

	for i, res := range results {
		batch.TotalCollected += res.Collected
		batch.NewInserted += res.Inserted
		if errs[i] != nil {
			batch.Status = types.RunFailed
		}
	}
	batch.Sources = results
	batch.Duration = m.now().Sub(batch.StartedAt)

	run, err := m.recordRun(ctx, types.Run{
		CycleID:        batch.CycleID,
		RunTime:        batch.StartedAt,
		TotalCollected: batch.TotalCollected,
		NewInserted:    batch.NewInserted,
		Status:         batch.Status,
	})
	if err == nil {
		batch.Run = &run
	}

	m.logger.Info("batch complete",
		"cycle_id", batch.CycleID,
		"collected", batch.TotalCollected,
		"inserted", batch.NewInserted,
		"status", batch.Status,
		"duration", batch.Duration,
	)
	return batch
}

// runCycle executes the full pipeline for one source. When recordRun is set
// the cycle writes its own run row; batch callers write one for all sources.
func (m *Manager) runCycle(ctx context.Context, w *worker, cycleID uuid.UUID, recordRun bool) (CycleResult, error) {
	entry := w.entry
	res := CycleResult{
		CycleID:   cycleID,
		Key:       entry.Key,
		Source:    entry.Name,
		Available: true,
		StartedAt: m.now().UTC(),
	}
	m.metrics.CyclesTotal.Add(1)

	items, outcome := m.runner.Run(ctx, cycleID, entry.Source)
	res.Status = outcome.Kind.Status()
	res.Health = outcome.Health
	res.Collected = outcome.Count
	res.Record = &outcome.Record
	if outcome.Err != nil {
		res.Error = outcome.Err.Error()
	}
	m.metrics.ObserveFetch(entry.Name, string(res.Status))
	m.metrics.ArticlesCollected.Add(int64(outcome.Count))

	articles, dropped := m.normalizer.Normalize(items, entry.Name)
	unique := pipeline.Dedup(articles)
	res.Dropped = dropped
	res.Duplicates = len(articles) - len(unique)
	m.metrics.ArticlesDropped.Add(int64(res.Dropped))
	m.metrics.ArticlesDuplicates.Add(int64(res.Duplicates))

	inserted, err := m.store.SaveArticles(ctx, unique)
	// Stores return the rows already committed alongside a failure.
	res.Inserted = len(inserted)
	m.metrics.ArticlesInserted.Add(int64(res.Inserted))
	if err != nil {
		m.classifyInserted(context.WithoutCancel(ctx), inserted, &res)
		err = fmt.Errorf("%s: save articles: %w", entry.Key, err)
		res.Error = err.Error()
		m.metrics.CyclesFailed.Add(1)
		if recordRun {
			m.recordRun(context.WithoutCancel(ctx), types.Run{
				CycleID:        cycleID,
				RunTime:        res.StartedAt,
				TotalCollected: res.Collected,
				NewInserted:    res.Inserted,
				Status:         types.RunFailed,
			})
		}
		res.Duration = m.now().Sub(res.StartedAt)
		w.finish(res, m.now().UTC())
		return res, err
	}
	m.classifyInserted(ctx, inserted, &res)

	if recordRun {
		m.recordRun(ctx, types.Run{
			CycleID:        cycleID,
			RunTime:        res.StartedAt,
			TotalCollected: res.Collected,
			NewInserted:    res.Inserted,
			Status:         types.RunSucceeded,
		})
	}

	res.Duration = m.now().Sub(res.StartedAt)
	w.finish(res, m.now().UTC())
	return res, nil
}

func (m *Manager) classifyInserted(ctx context.Context, inserted []types.StoredArticle, res *CycleResult) {
	for _, a := range inserted {
		hoax, ok := m.classifyArticle(ctx, a)
		if !ok {
			continue
		}
		res.Classified++
		if hoax {
			res.Hoaxes++
		}
	}
}

// classifyArticle labels a newly stored article and writes its news row.
// It reports whether the row was written and whether it is a hoax.
func (m *Manager) classifyArticle(ctx context.Context, a types.StoredArticle) (hoax, ok bool) {
	label, confidence := m.classifier.Classify(a.Title)
	item := types.NewsItem{
		Title:      a.Title,
		Content:    a.Summary,
		Source:     a.Source,
		SourceURL:  a.URL,
		Category:   classify.Category(strings.Join([]string{a.Title, a.Summary}, " ")),
		Date:       a.PublishedAt,
		Prediction: label,
		Confidence: confidence,
	}
	if _, err := m.store.SaveNews(ctx, item); err != nil {
		m.logger.Warn("saving news row failed", "url", a.URL, "error", err)
		return false, false
	}
	m.metrics.NewsClassified.Add(1)
	if label == types.LabelHoax {
		m.metrics.HoaxesFlagged.Add(1)
		return true, true
	}
	return false, true
}

func (m *Manager) recordRun(ctx context.Context, run types.Run) (types.Run, error) {
	rec, err := m.store.RecordRun(ctx, run)
	if err != nil {
		m.logger.Error("recording run failed", "cycle_id", run.CycleID, "error", err)
	}
	return rec, err
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

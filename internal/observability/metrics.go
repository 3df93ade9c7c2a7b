package observability

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
)

// Metrics tracks operational counters for the scraping manager.
type Metrics struct {
	// Cycle metrics
	CyclesTotal  atomic.Int64
	CyclesFailed atomic.Int64

	// Article metrics
	ArticlesCollected  atomic.Int64
	ArticlesDropped    atomic.Int64
	ArticlesDuplicates atomic.Int64
	ArticlesInserted   atomic.Int64
	NewsClassified     atomic.Int64
	HoaxesFlagged      atomic.Int64

	// Worker metrics
	RunningWorkers atomic.Int32

	mu      sync.Mutex
	fetches map[fetchKey]int64

	logger *slog.Logger
}

type fetchKey struct {
	source string
	status string
}

// NewMetrics creates a new Metrics instance.
func NewMetrics(logger *slog.Logger) *Metrics {
	return &Metrics{
		fetches: make(map[fetchKey]int64),
		logger:  logger.With("component", "metrics"),
	}
}

// ObserveFetch counts one fetcher invocation of source ending in status.
func (m *Metrics) ObserveFetch(source, status string) {
	m.mu.Lock()
	m.fetches[fetchKey{source, status}]++
	m.mu.Unlock()
}

// ServeHTTP serves metrics in Prometheus text exposition format.
func (m *Metrics) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	if err := m.Write(w); err != nil {
		m.logger.Warn("writing metrics failed", "error", err)
	}
}

// Write renders every metric in Prometheus text format.
func (m *Metrics) Write(w io.Writer) error {
	counters := []struct {
		name  string
		help  string
		kind  string
		value int64
	}{
		{"hoaxwatch_cycles_total", "Total scrape cycles run", "counter", m.CyclesTotal.Load()},
		{"hoaxwatch_cycles_failed_total", "Scrape cycles that ended in error", "counter", m.CyclesFailed.Load()},
		{"hoaxwatch_articles_collected_total", "Candidate articles returned by fetchers", "counter", m.ArticlesCollected.Load()},
		{"hoaxwatch_articles_dropped_total", "Candidates dropped by normalization", "counter", m.ArticlesDropped.Load()},
		{"hoaxwatch_articles_duplicates_total", "Articles removed as in-batch duplicates", "counter", m.ArticlesDuplicates.Load()},
		{"hoaxwatch_articles_inserted_total", "Articles newly persisted", "counter", m.ArticlesInserted.Load()},
		{"hoaxwatch_news_classified_total", "News rows written by the classifier", "counter", m.NewsClassified.Load()},
		{"hoaxwatch_hoaxes_flagged_total", "News rows labelled as hoax", "counter", m.HoaxesFlagged.Load()},
		{"hoaxwatch_running_workers", "Source workers currently running", "gauge", int64(m.RunningWorkers.Load())},
	}

	for _, c := range counters {
		if _, err := fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s %s\n%s %d\n", c.name, c.help, c.name, c.kind, c.name, c.value); err != nil {
			return err
		}
	}

	m.mu.Lock()
	keys := make([]fetchKey, 0, len(m.fetches))
	for k := range m.fetches {
		keys = append(keys, k)
	}
	values := make(map[fetchKey]int64, len(keys))
	for _, k := range keys {
		values[k] = m.fetches[k]
	}
	m.mu.Unlock()

	sort.Slice(keys, func(i, j int) bool {
		if keys[i].source != keys[j].source {
			return keys[i].source < keys[j].source
		}
		return keys[i].status < keys[j].status
	})

	const name = "hoaxwatch_source_fetches_total"
	if _, err := fmt.Fprintf(w, "# HELP %s Fetcher invocations by source and status\n# TYPE %s counter\n", name, name); err != nil {
		return err
	}
	for _, k := range keys {
		if _, err := fmt.Fprintf(w, "%s{source=%q,status=%q} %d\n", name, k.source, k.status, values[k]); err != nil {
			return err
		}
	}
	return nil
}

// Snapshot returns the scalar metrics as a map.
func (m *Metrics) Snapshot() map[string]int64 {
	return map[string]int64{
		"cycles_total":        m.CyclesTotal.Load(),
		"cycles_failed":       m.CyclesFailed.Load(),
		"articles_collected":  m.ArticlesCollected.Load(),
		"articles_dropped":    m.ArticlesDropped.Load(),
		"articles_duplicates": m.ArticlesDuplicates.Load(),
		"articles_inserted":   m.ArticlesInserted.Load(),
		"news_classified":     m.NewsClassified.Load(),
		"hoaxes_flagged":      m.HoaxesFlagged.Load(),
		"running_workers":     int64(m.RunningWorkers.Load()),
	}
}

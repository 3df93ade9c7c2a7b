package storage

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// MemoryStore keeps everything in process memory. It backs tests and
// throwaway runs.
type MemoryStore struct {
	mu         sync.RWMutex
	articles   []types.StoredArticle
	byURL      map[string]int
	runs       []types.Run
	sourceRuns []types.SourceRun
	news       []types.NewsItem
	closed     bool
	now        func() time.Time
	logger     *slog.Logger
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		byURL:  make(map[string]int),
		now:    time.Now,
		logger: logger.With("component", "memory_store"),
	}
}

func (s *MemoryStore) Name() string { return "memory" }

func (s *MemoryStore) SaveArticles(ctx context.Context, articles []types.Article) ([]types.StoredArticle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, &types.StorageError{Backend: s.Name(), Op: "save articles", Err: types.ErrStoreClosed}
	}

	var inserted []types.StoredArticle
	for _, a := range articles {
		if strings.TrimSpace(a.Source) == "" {
			s.logger.Warn("article without source skipped", "url", a.URL)
			continue
		}
		if _, exists := s.byURL[a.URL]; exists {
			continue
		}
		stored := types.StoredArticle{
			Article:     a,
			ID:          int64(len(s.articles) + 1),
			ContentHash: ContentHash(a),
			CreatedAt:   s.now().UTC(),
		}
		s.byURL[a.URL] = len(s.articles)
		s.articles = append(s.articles, stored)
		inserted = append(inserted, stored)
	}
	return inserted, nil
}

func (s *MemoryStore) SaveNews(ctx context.Context, item types.NewsItem) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return 0, &types.StorageError{Backend: s.Name(), Op: "save news", Err: types.ErrStoreClosed}
	}
	item.ID = int64(len(s.news) + 1)
	if item.CreatedAt.IsZero() {
		item.CreatedAt = s.now().UTC()
	}
	s.news = append(s.news, item)
	return item.ID, nil
}

func (s *MemoryStore) RecordRun(ctx context.Context, run types.Run) (types.Run, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return run, &types.StorageError{Backend: s.Name(), Op: "record run", Err: types.ErrStoreClosed}
	}
	run.ID = int64(len(s.runs) + 1)
	s.runs = append(s.runs, run)
	return run, nil
}

func (s *MemoryStore) RecordSourceRun(ctx context.Context, run types.SourceRun) (types.SourceRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return run, &types.StorageError{Backend: s.Name(), Op: "record source run", Err: types.ErrStoreClosed}
	}
	run.ID = int64(len(s.sourceRuns) + 1)
	s.sourceRuns = append(s.sourceRuns, run)
	return run, nil
}

func (s *MemoryStore) LatestSourceRuns(ctx context.Context) (map[string]types.SourceRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := make(map[string]types.SourceRun)
	for _, r := range s.sourceRuns {
		latest[r.SourceName] = r
	}
	return latest, nil
}

func (s *MemoryStore) SourceRunHistory(ctx context.Context, sourceName string, limit int) ([]types.SourceRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	limit = clampLimit(limit, 20)
	var out []types.SourceRun
	for i := len(s.sourceRuns) - 1; i >= 0 && len(out) < limit; i-- {
		if s.sourceRuns[i].SourceName == sourceName {
			out = append(out, s.sourceRuns[i])
		}
	}
	return out, nil
}

func (s *MemoryStore) SourceRunStats(ctx context.Context) ([]types.SourceRunStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	groups := make(map[[2]string]*statusCount)
	latest := make(map[string]types.SourceRun)
	for _, r := range s.sourceRuns {
		key := [2]string{r.SourceName, string(r.Status)}
		g, ok := groups[key]
		if !ok {
			g = &statusCount{source: r.SourceName, status: r.Status}
			groups[key] = g
		}
		g.runs++
		g.collected += int64(r.ArticlesCollected)
		latest[r.SourceName] = r
	}
	counts := make([]statusCount, 0, len(groups))
	for _, g := range groups {
		counts = append(counts, *g)
	}
	return aggregateStats(counts, latest), nil
}

func (s *MemoryStore) RecentRuns(ctx context.Context, limit int) ([]types.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	limit = clampLimit(limit, 10)
	var out []types.Run
	for i := len(s.runs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.runs[i])
	}
	return out, nil
}

func (s *MemoryStore) TotalArticles(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.articles)), nil
}

func (s *MemoryStore) ArticlesPerSource(ctx context.Context) ([]types.SourceCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[string]int64)
	for _, a := range s.articles {
		counts[a.Source]++
	}
	out := make([]types.SourceCount, 0, len(counts))
	for src, n := range counts {
		out = append(out, types.SourceCount{Source: src, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Source < out[j].Source
	})
	return out, nil
}

func (s *MemoryStore) ListArticles(ctx context.Context, limit, offset int) ([]types.StoredArticle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	limit = clampLimit(limit, 50)
	var out []types.StoredArticle
	for i := len(s.articles) - 1 - max(offset, 0); i >= 0 && len(out) < limit; i-- {
		out = append(out, s.articles[i])
	}
	return out, nil
}

func (s *MemoryStore) ListNews(ctx context.Context, limit int) ([]types.NewsItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	limit = clampLimit(limit, 50)
	var out []types.NewsItem
	for i := len(s.news) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.news[i])
	}
	return out, nil
}

func (s *MemoryStore) Healthy(ctx context.Context) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return !s.closed
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.logger.Info("memory store closing", "articles", len(s.articles), "source_runs", len(s.sourceRuns))
	return nil
}

package storage

import (
	"context"
	"sort"

	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// Store is the interface for all persistence backends.
type Store interface {
	// SaveArticles inserts every article whose URL is not yet stored and
	// returns only the rows actually added. Existing URLs are skipped
	// silently; a failing row is logged and the batch continues.
	SaveArticles(ctx context.Context, articles []types.Article) ([]types.StoredArticle, error)

	// SaveNews stores a classified news row and returns its id.
	SaveNews(ctx context.Context, item types.NewsItem) (int64, error)

	// RecordRun appends one orchestration cycle record.
	RecordRun(ctx context.Context, run types.Run) (types.Run, error)

	// RecordSourceRun appends one fetcher invocation record.
	RecordSourceRun(ctx context.Context, run types.SourceRun) (types.SourceRun, error)

	// LatestSourceRuns returns the newest source run per source name.
	LatestSourceRuns(ctx context.Context) (map[string]types.SourceRun, error)

	// SourceRunHistory returns the newest runs of one source, newest first.
	SourceRunHistory(ctx context.Context, sourceName string, limit int) ([]types.SourceRun, error)

	// SourceRunStats aggregates the source run history per source.
	SourceRunStats(ctx context.Context) ([]types.SourceRunStats, error)

	// RecentRuns returns the newest cycle records, newest first.
	RecentRuns(ctx context.Context, limit int) ([]types.Run, error)

	// TotalArticles counts stored articles.
	TotalArticles(ctx context.Context) (int64, error)

	// ArticlesPerSource counts stored articles per source, largest first.
	ArticlesPerSource(ctx context.Context) ([]types.SourceCount, error)

	// ListArticles pages through stored articles, newest first.
	ListArticles(ctx context.Context, limit, offset int) ([]types.StoredArticle, error)

	// ListNews returns the newest classified rows, newest first.
	ListNews(ctx context.Context, limit int) ([]types.NewsItem, error)

	// Healthy reports whether the backend is reachable.
	Healthy(ctx context.Context) bool

	// Close releases resources.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// statusCount is one (source, status) group of the source run history.
type statusCount struct {
	source    string
	status    types.RunStatus
	runs      int64
	collected int64
}

// aggregateStats folds grouped counts and the latest run per source into
// per-source statistics sorted by source name.
func aggregateStats(counts []statusCount, latest map[string]types.SourceRun) []types.SourceRunStats {
	bySource := make(map[string]*types.SourceRunStats)
	for _, c := range counts {
		s, ok := bySource[c.source]
		if !ok {
			s = &types.SourceRunStats{SourceName: c.source, ByStatus: make(map[types.RunStatus]int64)}
			bySource[c.source] = s
		}
		s.Runs += c.runs
		s.ByStatus[c.status] += c.runs
		s.TotalCollected += c.collected
	}

	out := make([]types.SourceRunStats, 0, len(bySource))
	for name, s := range bySource {
		if last, ok := latest[name]; ok {
			s.LastStatus = last.Status
			s.LastRunTime = last.RunTime
		}
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceName < out[j].SourceName })
	return out
}

// clampLimit bounds list sizes requested through the API.
func clampLimit(limit, fallback int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > 1000 {
		return 1000
	}
	return limit
}

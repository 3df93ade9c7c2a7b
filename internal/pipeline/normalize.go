package pipeline

import (
	"log/slog"
	"strings"
	"time"

	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// Normalizer turns raw candidates into normalized articles.
type Normalizer struct {
	pipeline *Pipeline
	logger   *slog.Logger
}

// NewNormalizer builds the standard normalization chain. now may be nil.
func NewNormalizer(logger *slog.Logger, now func() time.Time) *Normalizer {
	p := New(logger)
	p.Use(&RequireURLMiddleware{})
	p.Use(&TrimMiddleware{})
	p.Use(&FetchedAtMiddleware{Now: now})
	return &Normalizer{
		pipeline: p,
		logger:   logger.With("component", "normalizer"),
	}
}

// Normalize converts candidates in input order. Candidates without a source
// are attributed to sourceName. It returns the surviving articles and the
// number dropped.
func (n *Normalizer) Normalize(candidates []types.CandidateArticle, sourceName string) ([]types.Article, int) {
	out := make([]types.Article, 0, len(candidates))
	dropped := 0
	for _, c := range candidates {
		a := &types.Article{
			Source:      c.Source,
			Title:       c.Title,
			URL:         c.URL,
			PublishedAt: c.PublishedAt,
			Summary:     c.Summary,
		}
		if strings.TrimSpace(a.Source) == "" {
			a.Source = sourceName
		}

		result, err := n.pipeline.Process(a)
		if err != nil {
			n.logger.Warn("candidate rejected", "source", sourceName, "error", err)
		}
		if result == nil {
			dropped++
			continue
		}
		out = append(out, *result)
	}
	if dropped > 0 {
		n.logger.Info("candidates dropped", "source", sourceName, "dropped", dropped, "kept", len(out))
	}
	return out, dropped
}

// Dedup keeps the first article for every distinct URL, preserving order.
// URLs are compared exactly; no canonicalization is applied.
func Dedup(items []types.Article) []types.Article {
	seen := make(map[string]struct{}, len(items))
	out := make([]types.Article, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.URL]; ok {
			continue
		}
		seen[item.URL] = struct{}{}
		out = append(out, item)
	}
	return out
}

package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/IshaanNene/HoaxWatch/internal/config"
	"github.com/IshaanNene/HoaxWatch/internal/fetcher"
	"github.com/IshaanNene/HoaxWatch/internal/parser"
	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// FeedSource reads a Google News RSS search feed scoped to one outlet.
type FeedSource struct {
	key       string
	name      string
	feedURL   string
	domain    string
	limit     int
	stripHTML bool
	client    fetcher.Fetcher
	feeds     *parser.FeedParser
	logger    *slog.Logger
}

func newFeedSource(key, name string, cfg config.SourceConfig, stripHTML bool, deps Deps) (*FeedSource, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%s: invalid feed url %q", name, cfg.URL)
	}
	return &FeedSource{
		key:       key,
		name:      name,
		feedURL:   cfg.URL,
		domain:    u.Hostname(),
		limit:     cfg.Limit,
		stripHTML: stripHTML,
		client:    deps.Client,
		feeds:     parser.NewFeedParser(),
		logger:    deps.Logger.With("component", "source", "source", name),
	}, nil
}

// NewKompas creates the Kompas Cek Fakta feed source.
func NewKompas(cfg config.SourceConfig, deps Deps) (*FeedSource, error) {
	return newFeedSource(config.SourceKompas, "Kompas Cek Fakta", cfg, false, deps)
}

// NewTempo creates the Tempo hoax feed source. Tempo entries carry markup in
// titles and summaries, so both are cleaned.
func NewTempo(cfg config.SourceConfig, deps Deps) (*FeedSource, error) {
	return newFeedSource(config.SourceTempo, "Tempo Hoax", cfg, true, deps)
}

// NewTurnBackHoax creates the TurnBackHoax feed source.
func NewTurnBackHoax(cfg config.SourceConfig, deps Deps) (*FeedSource, error) {
	return newFeedSource(config.SourceTurnBackHoax, "TurnBackHoax", cfg, false, deps)
}

func (s *FeedSource) Key() string  { return s.key }
func (s *FeedSource) Name() string { return s.name }

// Fetch downloads and parses the feed. A feed that cannot be fetched or
// decoded fails the run.
func (s *FeedSource) Fetch(ctx context.Context) ([]types.CandidateArticle, error) {
	resp, err := s.client.Get(ctx, s.feedURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}

	entries, err := s.feeds.Parse(resp.Body, s.feedURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.name, err)
	}

	out := make([]types.CandidateArticle, 0, len(entries))
	for _, entry := range entries {
		title, summary := entry.Title, entry.Summary
		if s.stripHTML {
			title = parser.StripTags(title)
			summary = parser.StripTags(summary)
		}
		if title == "" || !IsValidArticleURL(entry.Link, s.domain) {
			continue
		}
		out = append(out, types.CandidateArticle{
			Source:      s.name,
			Title:       title,
			URL:         entry.Link,
			PublishedAt: entry.PublishedAt,
			Summary:     summary,
		})
	}

	out = dedupPairs(out)
	if s.limit > 0 && len(out) > s.limit {
		out = out[:s.limit]
	}
	s.logger.Debug("feed parsed", "entries", len(entries), "candidates", len(out))
	return out, nil
}

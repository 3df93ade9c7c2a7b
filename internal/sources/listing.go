package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/HoaxWatch/internal/config"
	"github.com/IshaanNene/HoaxWatch/internal/fetcher"
	"github.com/IshaanNene/HoaxWatch/internal/parser"
	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// extractFunc turns one listing page into candidates.
type extractFunc func(doc *goquery.Document, pageURL *url.URL) []types.CandidateArticle

// listingScraper walks the numbered listing pages of an HTML source.
type listingScraper struct {
	name          string
	base          *url.URL
	site          *url.URL
	domain        string
	cfg           config.SourceConfig
	client        fetcher.Fetcher
	dates         *parser.DateExtractor
	detailTimeout time.Duration
	logger        *slog.Logger
}

func newListingScraper(name, site, domain string, cfg config.SourceConfig, deps Deps) (*listingScraper, error) {
	base, err := url.Parse(cfg.URL)
	if err != nil || base.Host == "" {
		return nil, fmt.Errorf("%s: invalid listing url %q", name, cfg.URL)
	}
	siteURL, err := url.Parse(site)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid site url %q: %w", name, site, err)
	}
	pages := cfg.Pages
	if pages <= 0 {
		pages = 1
	}
	cfg.Pages = pages

	return &listingScraper{
		name:          name,
		base:          base,
		site:          siteURL,
		domain:        domain,
		cfg:           cfg,
		client:        deps.Client,
		dates:         parser.NewDateExtractor(deps.Logger),
		detailTimeout: deps.DetailTimeout,
		logger:        deps.Logger.With("component", "source", "source", name),
	}, nil
}

// pageURL returns the listing URL for page n. When firstBare is set the first
// page is the listing URL itself.
func (s *listingScraper) pageURL(n int, firstBare bool) string {
	if n == 1 && firstBare {
		return s.base.String()
	}
	u := *s.base
	q := u.Query()
	q.Set("page", strconv.Itoa(n))
	u.RawQuery = q.Encode()
	return u.String()
}

// run fetches every page in order and applies extract to each. A page that
// fails is skipped; the run fails only when no page could be fetched.
func (s *listingScraper) run(ctx context.Context, firstBare bool, extract extractFunc) ([]types.CandidateArticle, error) {
	var (
		results []types.CandidateArticle
		fetched int
		lastErr error
	)

	for n := 1; n <= s.cfg.Pages; n++ {
		if n > 1 && s.cfg.PageDelay > 0 {
			if err := sleep(ctx, s.cfg.PageDelay); err != nil {
				return nil, err
			}
		}

		pageURL := s.pageURL(n, firstBare)
		resp, err := s.client.Get(ctx, pageURL)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("%s: %w", s.name, err)
			}
			s.logger.Warn("listing page failed", "page", n, "url", pageURL, "error", err)
			lastErr = err
			continue
		}

		doc, err := resp.Document()
		if err != nil {
			s.logger.Warn("listing page unparseable", "page", n, "url", pageURL, "error", err)
			lastErr = &types.ParseError{URL: pageURL, Err: err}
			continue
		}
		fetched++

		parsed, _ := url.Parse(resp.URL)
		if parsed == nil {
			parsed, _ = url.Parse(pageURL)
		}
		page := extract(doc, parsed)
		s.logger.Debug("listing page scraped", "page", n, "candidates", len(page))
		results = append(results, page...)
	}

	if fetched == 0 {
		if lastErr == nil {
			lastErr = errors.New("no pages configured")
		}
		return nil, fmt.Errorf("%s: %w: %w", s.name, types.ErrNoPages, lastErr)
	}

	results = dedupPairs(results)
	if s.cfg.FetchDates {
		s.fillPublishedDates(ctx, results)
	}
	if results == nil {
		results = []types.CandidateArticle{}
	}
	return results, nil
}

// fillPublishedDates reads each article page for its publication date.
// Failures leave the date empty.
func (s *listingScraper) fillPublishedDates(ctx context.Context, items []types.CandidateArticle) {
	for i := range items {
		if ctx.Err() != nil {
			return
		}
		if items[i].PublishedAt != nil {
			continue
		}
		resp, err := s.client.GetWithTimeout(ctx, items[i].URL, s.detailTimeout)
		if err != nil {
			s.logger.Debug("article page unavailable", "url", items[i].URL, "error", err)
			continue
		}
		items[i].PublishedAt = s.dates.PublishedAt(resp.Body)
	}
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

package pipeline

import (
	"log/slog"
	"strings"
	"time"

	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// Middleware processes an article and returns the (possibly modified) article.
// Return nil to drop the article from the pipeline.
type Middleware interface {
	// Name returns the middleware's identifier.
	Name() string

	// Process transforms an article. Return nil to drop it.
	Process(a *types.Article) (*types.Article, error)
}

// Pipeline chains middleware processors together.
type Pipeline struct {
	middlewares []Middleware
	logger      *slog.Logger
}

// New creates a new Pipeline.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{
		logger: logger.With("component", "pipeline"),
	}
}

// Use adds a middleware to the pipeline chain.
func (p *Pipeline) Use(mw Middleware) {
	p.middlewares = append(p.middlewares, mw)
	p.logger.Debug("middleware added", "name", mw.Name(), "position", len(p.middlewares))
}

// Process runs the article through all middleware in order. A nil result
// with a nil error means the article was dropped.
func (p *Pipeline) Process(a *types.Article) (*types.Article, error) {
	current := a
	for _, mw := range p.middlewares {
		result, err := mw.Process(current)
		if err != nil {
			return nil, &StageError{Stage: mw.Name(), URL: a.URL, Err: err}
		}
		if result == nil {
			p.logger.Debug("article dropped", "stage", mw.Name(), "url", a.URL)
			return nil, nil
		}
		current = result
	}
	return current, nil
}

// Len returns the number of middleware in the chain.
func (p *Pipeline) Len() int {
	return len(p.middlewares)
}

// StageError reports the middleware that rejected an article with an error.
type StageError struct {
	Stage string
	URL   string
	Err   error
}

func (e *StageError) Error() string {
	return "pipeline stage " + e.Stage + " failed for " + e.URL + ": " + e.Err.Error()
}

func (e *StageError) Unwrap() error { return e.Err }

// --- Built-in Middleware ---

// RequireURLMiddleware drops articles whose URL is blank.
type RequireURLMiddleware struct{}

func (m *RequireURLMiddleware) Name() string { return "require_url" }

func (m *RequireURLMiddleware) Process(a *types.Article) (*types.Article, error) {
	if strings.TrimSpace(a.URL) == "" {
		return nil, nil
	}
	return a, nil
}

// TrimMiddleware trims whitespace from the URL, title and summary.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(a *types.Article) (*types.Article, error) {
	a.URL = strings.TrimSpace(a.URL)
	a.Title = strings.TrimSpace(a.Title)
	a.Summary = strings.TrimSpace(a.Summary)
	a.Source = strings.TrimSpace(a.Source)
	return a, nil
}

// FetchedAtMiddleware stamps the collection time in UTC.
type FetchedAtMiddleware struct {
	Now func() time.Time
}

func (m *FetchedAtMiddleware) Name() string { return "fetched_at" }

func (m *FetchedAtMiddleware) Process(a *types.Article) (*types.Article, error) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	a.FetchedAt = now().UTC()
	if a.PublishedAt != nil {
		t := a.PublishedAt.UTC()
		a.PublishedAt = &t
	}
	return a, nil
}

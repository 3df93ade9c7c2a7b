package sources

import (
	"context"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/HoaxWatch/internal/config"
	"github.com/IshaanNene/HoaxWatch/internal/parser"
	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// Antaranews scrapes the ANTARA anti-hoax listing.
type Antaranews struct {
	*listingScraper
}

// NewAntaranews creates the ANTARA anti-hoax source.
func NewAntaranews(cfg config.SourceConfig, deps Deps) (*Antaranews, error) {
	ls, err := newListingScraper("Antara Anti-Hoax", "https://www.antaranews.com", "antaranews.com", cfg, deps)
	if err != nil {
		return nil, err
	}
	return &Antaranews{listingScraper: ls}, nil
}

func (s *Antaranews) Key() string  { return config.SourceAntaranews }
func (s *Antaranews) Name() string { return s.name }

// Fetch walks the listing pages and keeps anchors to hoax articles.
func (s *Antaranews) Fetch(ctx context.Context) ([]types.CandidateArticle, error) {
	return s.run(ctx, false, s.extract)
}

func (s *Antaranews) extract(doc *goquery.Document, _ *url.URL) []types.CandidateArticle {
	var out []types.CandidateArticle
	for _, link := range parser.Links(doc, "a[href]") {
		if link.Title == "" || !strings.Contains(link.Href, "/berita/") {
			continue
		}
		lower := strings.ToLower(link.Title)
		if !strings.Contains(lower, "hoaks") && !strings.Contains(lower, "hoax") {
			continue
		}
		// Relative links are relative to the site root, not the listing page.
		abs := parser.ResolveURL(s.site, link.Href)
		if !IsValidArticleURL(abs, s.domain) {
			continue
		}
		out = append(out, types.CandidateArticle{
			Source: s.name,
			Title:  link.Title,
			URL:    abs,
		})
	}
	return out
}

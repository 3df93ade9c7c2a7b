package sources

import (
	"context"
	"net/url"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/HoaxWatch/internal/config"
	"github.com/IshaanNene/HoaxWatch/internal/parser"
	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// minDetikTitle filters out navigation teasers and labels.
const minDetikTitle = 25

// Detik scrapes the detik "Hoax or Not" listing.
type Detik struct {
	*listingScraper
}

// NewDetik creates the detik Hoax or Not source.
func NewDetik(cfg config.SourceConfig, deps Deps) (*Detik, error) {
	ls, err := newListingScraper("Detik Hoax or Not", "https://hoaxornot.detik.com/", "detik.com", cfg, deps)
	if err != nil {
		return nil, err
	}
	return &Detik{listingScraper: ls}, nil
}

func (s *Detik) Key() string  { return config.SourceDetik }
func (s *Detik) Name() string { return s.name }

// Fetch walks the listing pages, reading the first link of every article card.
func (s *Detik) Fetch(ctx context.Context) ([]types.CandidateArticle, error) {
	items, err := s.run(ctx, true, s.extract)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, ok := seen[item.URL]; ok {
			continue
		}
		seen[item.URL] = struct{}{}
		out = append(out, item)
	}
	return out, nil
}

func (s *Detik) extract(doc *goquery.Document, _ *url.URL) []types.CandidateArticle {
	var out []types.CandidateArticle
	for _, link := range parser.FirstLinks(doc, "article") {
		if link.Title == "" || utf8.RuneCountInString(link.Title) < minDetikTitle {
			continue
		}
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

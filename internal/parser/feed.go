package parser

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// FeedEntry is one item of an RSS or Atom feed.
type FeedEntry struct {
	Title       string
	Link        string
	PublishedAt *time.Time
	Summary     string
}

// FeedParser parses RSS and Atom documents.
type FeedParser struct {
	parser *gofeed.Parser
}

// NewFeedParser creates a new FeedParser.
func NewFeedParser() *FeedParser {
	return &FeedParser{parser: gofeed.NewParser()}
}

// Parse decodes body into feed entries. sourceURL is used for error reporting.
func (p *FeedParser) Parse(body []byte, sourceURL string) ([]FeedEntry, error) {
	feed, err := p.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, &types.ParseError{URL: sourceURL, Err: fmt.Errorf("decode feed: %w", err)}
	}

	entries := make([]FeedEntry, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		entry := FeedEntry{
			Title:   strings.TrimSpace(item.Title),
			Link:    strings.TrimSpace(item.Link),
			Summary: strings.TrimSpace(item.Description),
		}
		switch {
		case item.PublishedParsed != nil:
			t := item.PublishedParsed.UTC()
			entry.PublishedAt = &t
		case item.UpdatedParsed != nil:
			t := item.UpdatedParsed.UTC()
			entry.PublishedAt = &t
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

var tagRe = regexp.MustCompile(`<[^>]*>`)

// StripTags removes markup, decodes entities and collapses whitespace.
func StripTags(s string) string {
	cleaned := tagRe.ReplaceAllString(s, " ")
	cleaned = html.UnescapeString(cleaned)
	return strings.Join(strings.Fields(cleaned), " ")
}

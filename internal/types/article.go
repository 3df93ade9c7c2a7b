package types

import (
	"time"

	"github.com/google/uuid"
)

// CandidateArticle is a raw record emitted by a source fetcher. It may carry
// relative URLs, untrimmed titles or junk.
type CandidateArticle struct {
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Summary     string     `json:"summary,omitempty"`
}

// Article is a normalized candidate: trimmed, non-empty URL, stamped with the
// time it was fetched.
type Article struct {
	Source      string     `json:"source"`
	Title       string     `json:"title"`
	URL         string     `json:"url"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	FetchedAt   time.Time  `json:"fetched_at"`
}

// PublishedAtString returns the published time in RFC3339 UTC, or "" when unknown.
func (a *Article) PublishedAtString() string {
	if a.PublishedAt == nil || a.PublishedAt.IsZero() {
		return ""
	}
	return a.PublishedAt.UTC().Format(time.RFC3339)
}

// StoredArticle is an article as persisted. URL is unique across the store.
type StoredArticle struct {
	Article
	ID          int64     `json:"id"`
	ContentHash string    `json:"content_hash"`
	Content     *string   `json:"content,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Label is the classifier verdict for a news item.
type Label string

const (
	LabelHoax       Label = "Hoax"
	LabelLegitimate Label = "Legitimate"
)

// NewsItem is the classified, outward-facing view of a newly collected article.
type NewsItem struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Content    string     `json:"content,omitempty"`
	Source     string     `json:"source"`
	SourceURL  string     `json:"source_url"`
	Category   string     `json:"category"`
	Date       *time.Time `json:"date,omitempty"`
	Prediction Label      `json:"prediction"`
	Confidence float64    `json:"confidence"`
	CreatedAt  time.Time  `json:"created_at"`
}

// SourceCount pairs a source name with a number of stored articles.
type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// Run is the audit record of one orchestration cycle.
type Run struct {
	ID             int64     `json:"id"`
	CycleID        uuid.UUID `json:"cycle_id"`
	RunTime        time.Time `json:"run_time"`
	TotalCollected int       `json:"total_collected"`
	NewInserted    int       `json:"new_inserted"`
	Status         string    `json:"status"`
}

// Run status values.
const (
	RunSucceeded = "SUCCESS"
	RunFailed    = "FAILED"
)

package storage

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/IshaanNene/HoaxWatch/internal/types"
)

const exportPageSize = 500

var csvHeader = []string{"id", "source", "title", "url", "published_at", "fetched_at", "content_hash", "created_at"}

// Export writes every stored article to w as "jsonl" or "csv", newest first.
// It returns the number of articles written.
func Export(ctx context.Context, store Store, format string, w io.Writer) (int, error) {
	var write func(types.StoredArticle) error
	var flush func() error

	switch format {
	case "jsonl":
		enc := json.NewEncoder(w)
		write = func(a types.StoredArticle) error { return enc.Encode(a) }
		flush = func() error { return nil }
	case "csv":
		cw := csv.NewWriter(w)
		if err := cw.Write(csvHeader); err != nil {
			return 0, fmt.Errorf("write csv header: %w", err)
		}
		write = func(a types.StoredArticle) error {
			return cw.Write([]string{
				strconv.FormatInt(a.ID, 10),
				a.Source,
				a.Title,
				a.URL,
				a.PublishedAtString(),
				a.FetchedAt.UTC().Format(time.RFC3339),
				a.ContentHash,
				a.CreatedAt.UTC().Format(time.RFC3339),
			})
		}
		flush = func() error {
			cw.Flush()
			return cw.Error()
		}
	default:
		return 0, fmt.Errorf("unsupported export format: %q (valid: jsonl, csv)", format)
	}

	written := 0
	for offset := 0; ; offset += exportPageSize {
		page, err := store.ListArticles(ctx, exportPageSize, offset)
		if err != nil {
			return written, err
		}
		for _, a := range page {
			if err := write(a); err != nil {
				return written, fmt.Errorf("write article %d: %w", a.ID, err)
			}
			written++
		}
		if len(page) < exportPageSize {
			break
		}
	}
	return written, flush()
}

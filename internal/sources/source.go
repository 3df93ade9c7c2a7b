package sources

import (
	"context"

	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// Source fetches candidate articles from one fact-check outlet.
type Source interface {
	// Key is the stable registry identifier, e.g. "antaranews".
	Key() string

	// Name is the display name recorded with every article and source run.
	Name() string

	// Fetch runs one collection pass. It returns an error only when the pass
	// as a whole failed; skipped pages or entries are not errors.
	Fetch(ctx context.Context) ([]types.CandidateArticle, error)
}

// pairKey identifies a candidate within one run.
type pairKey struct {
	title string
	url   string
}

// dedupPairs keeps the first occurrence of every (title, url) pair.
func dedupPairs(items []types.CandidateArticle) []types.CandidateArticle {
	seen := make(map[pairKey]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		k := pairKey{title: item.Title, url: item.URL}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, item)
	}
	return out
}

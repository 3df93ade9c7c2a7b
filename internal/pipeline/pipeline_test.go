package pipeline

import (
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/HoaxWatch/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var fixedNow = func() time.Time { return time.Date(2024, 10, 14, 10, 0, 0, 0, time.FixedZone("WIB", 7*3600)) }

func TestPipelineBasic(t *testing.T) {
	p := New(testLogger)
	p.Use(&TrimMiddleware{})
	assert.Equal(t, 1, p.Len())

	out, err := p.Process(&types.Article{URL: "  https://a.com/x ", Title: "  Hello World  "})
	require.NoError(t, err)
	assert.Equal(t, "https://a.com/x", out.URL)
	assert.Equal(t, "Hello World", out.Title)
}

type failing struct{}

func (failing) Name() string { return "failing" }
func (failing) Process(*types.Article) (*types.Article, error) {
	return nil, errors.New("nope")
}

func TestPipelineStageError(t *testing.T) {
	p := New(testLogger)
	p.Use(failing{})

	_, err := p.Process(&types.Article{URL: "https://a.com"})
	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "failing", se.Stage)
}

func TestNormalize(t *testing.T) {
	n := NewNormalizer(testLogger, fixedNow)

	candidates := []types.CandidateArticle{
		{Title: "  Hoaks A ", URL: " https://x.com/a "},
		{Source: "Other", Title: "B", URL: "https://x.com/b"},
		{Title: "C", URL: "   "},
		{Title: "D", URL: ""},
		{Title: "", URL: "https://x.com/e"},
	}

	out, dropped := n.Normalize(candidates, "Src")
	assert.Equal(t, 2, dropped)
	require.Len(t, out, 3)

	assert.Equal(t, "Src", out[0].Source)
	assert.Equal(t, "Hoaks A", out[0].Title)
	assert.Equal(t, "https://x.com/a", out[0].URL)
	assert.Equal(t, "Other", out[1].Source)
	assert.Equal(t, "", out[2].Title)
	assert.Equal(t, time.UTC, out[0].FetchedAt.Location())
	assert.True(t, fixedNow().Equal(out[0].FetchedAt))
}

func TestNormalizeEmpty(t *testing.T) {
	out, dropped := NewNormalizer(testLogger, nil).Normalize(nil, "Src")
	assert.Empty(t, out)
	assert.Zero(t, dropped)
}

func TestDedup(t *testing.T) {
	items := []types.Article{
		{URL: "https://x.com/a", Title: "first"},
		{URL: "https://x.com/b"},
		{URL: "https://x.com/a", Title: "second"},
		{URL: "https://x.com/a/"},
	}
	out := Dedup(items)
	require.Len(t, out, 3)
	assert.Equal(t, "first", out[0].Title)
	assert.Equal(t, "https://x.com/b", out[1].URL)
	assert.Equal(t, "https://x.com/a/", out[2].URL)

	assert.Equal(t, out, Dedup(out), "dedup is idempotent")
}

// Scenario: a candidate set with a blank URL, a duplicate and an empty title.
func TestNormalizeThenDedupScenario(t *testing.T) {
	candidates := []types.CandidateArticle{
		{Title: "A", URL: "u1"},
		{Title: "B", URL: " "},
		{Title: "C", URL: "u1"},
		{Title: "", URL: "u2"},
	}
	normalized, dropped := NewNormalizer(testLogger, fixedNow).Normalize(candidates, "S")
	assert.Equal(t, 1, dropped)
	require.Len(t, normalized, 3)

	unique := Dedup(normalized)
	require.Len(t, unique, 2)
	assert.Equal(t, "A", unique[0].Title)
	assert.Equal(t, "u1", unique[0].URL)
	assert.Equal(t, "", unique[1].Title)
	assert.Equal(t, "u2", unique[1].URL)
}

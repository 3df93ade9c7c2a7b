package storage

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/HoaxWatch/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func article(source, title, url string) types.Article {
	return types.Article{Source: source, Title: title, URL: url, FetchedAt: time.Now().UTC()}
}

func TestContentHash(t *testing.T) {
	pub := time.Date(2024, 10, 14, 10, 22, 0, 0, time.FixedZone("WIB", 7*3600))
	a := article("S", "  Hoaks Vaksin ", "u1")
	a.PublishedAt = &pub
	b := article("S", "hoaks vaksin", "u2")
	utc := pub.UTC()
	b.PublishedAt = &utc

	assert.Equal(t, ContentHash(a), ContentHash(b), "hash ignores url, case, padding and zone")
	assert.Len(t, ContentHash(a), 64)

	c := article("Other", "hoaks vaksin", "u1")
	c.PublishedAt = &utc
	assert.NotEqual(t, ContentHash(a), ContentHash(c))

	d := article("S", "hoaks vaksin", "u1")
	assert.NotEqual(t, ContentHash(a), ContentHash(d), "missing date differs from a known date")
}

// storeContract runs the behaviour every backend must share.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("insert if absent", func(t *testing.T) {
		s := newStore(t)
		batch := []types.Article{article("S", "A", "https://x.com/1"), article("S", "", "https://x.com/2")}

		inserted, err := s.SaveArticles(ctx, batch)
		require.NoError(t, err)
		assert.Len(t, inserted, 2)
		assert.NotZero(t, inserted[0].ID)
		assert.Equal(t, ContentHash(batch[0]), inserted[0].ContentHash)

		inserted, err = s.SaveArticles(ctx, batch)
		require.NoError(t, err)
		assert.Empty(t, inserted)

		total, err := s.TotalArticles(ctx)
		require.NoError(t, err)
		assert.EqualValues(t, 2, total)
	})

	t.Run("skips missing source", func(t *testing.T) {
		s := newStore(t)
		inserted, err := s.SaveArticles(ctx, []types.Article{article("", "A", "https://x.com/nosrc"), article("S", "B", "https://x.com/ok")})
		require.NoError(t, err)
		require.Len(t, inserted, 1)
		assert.Equal(t, "https://x.com/ok", inserted[0].URL)
	})

	t.Run("concurrent inserts of one url", func(t *testing.T) {
		s := newStore(t)
		var (
			wg    sync.WaitGroup
			mu    sync.Mutex
			total int
		)
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				inserted, err := s.SaveArticles(ctx, []types.Article{article(fmt.Sprintf("S%d", i), "A", "https://x.com/race")})
				assert.NoError(t, err)
				mu.Lock()
				total += len(inserted)
				mu.Unlock()
			}(i)
		}
		wg.Wait()
		assert.Equal(t, 1, total)
	})

	t.Run("source runs", func(t *testing.T) {
		s := newStore(t)
		cycle := uuid.New()
		base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
		runs := []types.SourceRun{
			{CycleID: cycle, SourceName: "A", RunTime: base, Status: types.StatusSuccess, ArticlesCollected: 7},
			{CycleID: cycle, SourceName: "B", RunTime: base, Status: types.StatusTimeout},
			{CycleID: cycle, SourceName: "A", RunTime: base.Add(time.Minute), Status: types.StatusNetworkError},
			{CycleID: cycle, SourceName: "A", RunTime: base.Add(2 * time.Minute), Status: types.StatusSuccess, ArticlesCollected: 3},
		}
		var last types.SourceRun
		for _, r := range runs {
			rec, err := s.RecordSourceRun(ctx, r)
			require.NoError(t, err)
			assert.Greater(t, rec.ID, last.ID)
			last = rec
		}

		latest, err := s.LatestSourceRuns(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, latest["A"].ArticlesCollected)
		assert.Equal(t, types.StatusTimeout, latest["B"].Status)
		assert.Equal(t, cycle, latest["A"].CycleID)

		history, err := s.SourceRunHistory(ctx, "A", 2)
		require.NoError(t, err)
		require.Len(t, history, 2)
		assert.Equal(t, types.StatusSuccess, history[0].Status)
		assert.Equal(t, types.StatusNetworkError, history[1].Status)

		stats, err := s.SourceRunStats(ctx)
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, "A", stats[0].SourceName)
		assert.EqualValues(t, 3, stats[0].Runs)
		assert.EqualValues(t, 10, stats[0].TotalCollected)
		assert.EqualValues(t, 2, stats[0].ByStatus[types.StatusSuccess])
		assert.Equal(t, types.StatusSuccess, stats[0].LastStatus)
		assert.InDelta(t, 2.0/3.0, stats[0].SuccessRate(), 1e-9)
		assert.EqualValues(t, 1, stats[1].ByStatus[types.StatusTimeout])
	})

	t.Run("runs and analytics", func(t *testing.T) {
		s := newStore(t)
		for i := 1; i <= 3; i++ {
			_, err := s.RecordRun(ctx, types.Run{CycleID: uuid.New(), RunTime: time.Now().UTC(), TotalCollected: i, NewInserted: i - 1, Status: types.RunSucceeded})
			require.NoError(t, err)
		}
		recent, err := s.RecentRuns(ctx, 2)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, 3, recent[0].TotalCollected)
		assert.Equal(t, 2, recent[1].TotalCollected)

		_, err = s.SaveArticles(ctx, []types.Article{
			article("A", "1", "https://x.com/a1"),
			article("A", "2", "https://x.com/a2"),
			article("B", "3", "https://x.com/b1"),
		})
		require.NoError(t, err)

		per, err := s.ArticlesPerSource(ctx)
		require.NoError(t, err)
		require.Len(t, per, 2)
		assert.Equal(t, types.SourceCount{Source: "A", Count: 2}, per[0])

		list, err := s.ListArticles(ctx, 2, 0)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "https://x.com/b1", list[0].URL)

		list, err = s.ListArticles(ctx, 10, 2)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "https://x.com/a1", list[0].URL)
	})

	t.Run("news", func(t *testing.T) {
		s := newStore(t)
		id, err := s.SaveNews(ctx, types.NewsItem{Title: "Hoaks", Source: "S", SourceURL: "https://x.com/n", Category: "health", Prediction: types.LabelHoax, Confidence: 0.8})
		require.NoError(t, err)
		assert.NotZero(t, id)

		news, err := s.ListNews(ctx, 10)
		require.NoError(t, err)
		require.Len(t, news, 1)
		assert.Equal(t, types.LabelHoax, news[0].Prediction)
		assert.InDelta(t, 0.8, news[0].Confidence, 1e-9)
	})

	t.Run("healthy", func(t *testing.T) {
		assert.True(t, newStore(t).Healthy(ctx))
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store {
		s := NewMemoryStore(testLogger)
		t.Cleanup(func() { s.Close() })
		return s
	})
}

func TestMemoryStoreClosed(t *testing.T) {
	s := NewMemoryStore(testLogger)
	require.NoError(t, s.Close())
	assert.False(t, s.Healthy(context.Background()))

	_, err := s.SaveArticles(context.Background(), []types.Article{article("S", "A", "u")})
	assert.ErrorIs(t, err, types.ErrStoreClosed)
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(testLogger)
	pub := time.Date(2024, 10, 14, 3, 22, 0, 0, time.UTC)
	a := article("S", "Hoaks, \"kutipan\"", "https://x.com/1")
	a.PublishedAt = &pub
	_, err := s.SaveArticles(ctx, []types.Article{a, article("S", "B", "https://x.com/2")})
	require.NoError(t, err)

	var jsonl bytes.Buffer
	n, err := Export(ctx, s, "jsonl", &jsonl)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lines := strings.Split(strings.TrimSpace(jsonl.String()), "\n")
	require.Len(t, lines, 2)
	var first types.StoredArticle
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &first))
	assert.Equal(t, "https://x.com/1", first.URL)
	require.NotNil(t, first.PublishedAt)

	var out bytes.Buffer
	n, err = Export(ctx, s, "csv", &out)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	records, err := csv.NewReader(&out).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "Hoaks, \"kutipan\"", records[2][2])
	assert.Equal(t, "2024-10-14T03:22:00Z", records[2][4])

	_, err = Export(ctx, s, "xml", &out)
	assert.Error(t, err)
}

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IshaanNene/HoaxWatch/internal/engine"
	"github.com/IshaanNene/HoaxWatch/internal/observability"
	"github.com/IshaanNene/HoaxWatch/internal/sources"
	"github.com/IshaanNene/HoaxWatch/internal/storage"
	"github.com/IshaanNene/HoaxWatch/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

type stubSource struct {
	key, name string
	n         int
}

func (s *stubSource) Key() string  { return s.key }
func (s *stubSource) Name() string { return s.name }
func (s *stubSource) Fetch(ctx context.Context) ([]types.CandidateArticle, error) {
	out := make([]types.CandidateArticle, s.n)
	for i := range out {
		out[i] = types.CandidateArticle{
			Title: fmt.Sprintf("[HOAKS] Klaim %d", i),
			URL:   fmt.Sprintf("https://%s.test/artikel/%d", s.key, i),
		}
	}
	return out, nil
}

type fixture struct {
	handler http.Handler
	store   *storage.MemoryStore
	manager *engine.Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	reg := sources.NewRegistry()
	reg.Add(&stubSource{key: "tempo", name: "Tempo Hoax", n: 3}, 0)
	reg.AddUnavailable("detik", "Detik Hoax or Not", fmt.Errorf("%w: disabled in configuration", types.ErrDependencyUnavailable))

	store := storage.NewMemoryStore(testLogger)
	metrics := observability.NewMetrics(testLogger)
	m := engine.New(reg, store, testLogger, engine.WithMetrics(metrics))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = m.Shutdown(ctx)
	})

	cfg := Config{Port: 0, MetricsPath: "/metrics", Version: "test"}
	srv := NewServer(cfg, m, store, metrics, testLogger)
	return &fixture{handler: srv.Handler(), store: store, manager: m}
}

func (f *fixture) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var decoded map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "memory", body["storage"])

	require.NoError(t, f.store.Close())
	rec, body = f.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "degraded", body["status"])
}

func TestSourceControl(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name    string
		method  string
		target  string
		body    string
		code    int
		changed any
	}{
		{"start", http.MethodPost, "/api/scraper/sources/tempo/start", `{"interval_seconds": 45}`, http.StatusOK, true},
		{"start again", http.MethodPost, "/api/scraper/sources/tempo/start", "", http.StatusOK, false},
		{"stop", http.MethodPost, "/api/scraper/sources/tempo/stop", "", http.StatusOK, true},
		{"stop again", http.MethodPost, "/api/scraper/sources/tempo/stop", "", http.StatusOK, false},
		{"unknown start", http.MethodPost, "/api/scraper/sources/nope/start", "", http.StatusNotFound, nil},
		{"unknown stop", http.MethodPost, "/api/scraper/sources/nope/stop", "", http.StatusNotFound, nil},
		{"unavailable", http.MethodPost, "/api/scraper/sources/detik/start", "", http.StatusServiceUnavailable, nil},
		{"negative interval", http.MethodPost, "/api/scraper/sources/tempo/start", `{"interval_seconds": -5}`, http.StatusBadRequest, nil},
		{"bad body", http.MethodPost, "/api/scraper/sources/tempo/start", `{"interval_seconds": "soon"}`, http.StatusBadRequest, nil},
		{"overflowing interval", http.MethodPost, "/api/scraper/sources/tempo/start", `{"interval_seconds": 9223372037}`, http.StatusBadRequest, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := f.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.code, rec.Code, rec.Body.String())
			if tt.changed != nil {
				assert.Equal(t, tt.changed, body["changed"])
			} else {
				assert.NotEmpty(t, body["error"])
			}
		})
	}
}

func TestStartStopAll(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/scraper/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"tempo": true}, body["changed"])
	assert.Equal(t, true, body["running"])

	_, body = f.do(t, http.MethodGet, "/api/scraper/status", "")
	assert.Equal(t, true, body["running"])
	srcs := body["sources"].([]any)
	require.Len(t, srcs, 2)
	assert.Equal(t, "tempo", srcs[0].(map[string]any)["key"])
	assert.Equal(t, false, srcs[1].(map[string]any)["available"])

	rec, body = f.do(t, http.MethodPost, "/api/scraper/stop", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"tempo": true, "detik": false}, body["changed"])
}

func TestStartAllWithNothingAvailable(t *testing.T) {
	reg := sources.NewRegistry()
	reg.AddUnavailable("detik", "Detik Hoax or Not", fmt.Errorf("%w: disabled in configuration", types.ErrDependencyUnavailable))
	store := storage.NewMemoryStore(testLogger)
	metrics := observability.NewMetrics(testLogger)
	m := engine.New(reg, store, testLogger, engine.WithMetrics(metrics))
	t.Cleanup(func() { _ = m.Shutdown(context.Background()) })
	f := &fixture{handler: NewServer(Config{MetricsPath: "/metrics", Version: "test"}, m, store, metrics, testLogger).Handler(), store: store, manager: m}

	rec, body := f.do(t, http.MethodPost, "/api/scraper/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["changed"])
	assert.Equal(t, false, body["running"])
}

func TestRunAndRead(t *testing.T) {
	f := newFixture(t)

	rec, body := f.do(t, http.MethodPost, "/api/scraper/run/tempo", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, body["inserted"])

	rec, body = f.do(t, http.MethodPost, "/api/scraper/run", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 0, body["new_inserted"])
	assert.Len(t, body["sources"], 2)

	_, body = f.do(t, http.MethodGet, "/api/articles?limit=2", "")
	assert.Len(t, body["articles"], 2)

	_, body = f.do(t, http.MethodGet, "/api/news", "")
	news := body["news"].([]any)
	require.Len(t, news, 3)
	assert.Equal(t, "Hoax", news[0].(map[string]any)["prediction"])

	_, body = f.do(t, http.MethodGet, "/api/runs", "")
	assert.Len(t, body["runs"], 2)

	_, body = f.do(t, http.MethodGet, "/api/sources/tempo/runs?limit=1", "")
	assert.Equal(t, "Tempo Hoax", body["source"])
	assert.Len(t, body["runs"], 1)

	rec, _ = f.do(t, http.MethodGet, "/api/sources/nope/runs", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	_, body = f.do(t, http.MethodGet, "/api/stats", "")
	assert.EqualValues(t, 3, body["total_articles"])

	_, body = f.do(t, http.MethodGet, "/api/scraper/metrics", "")
	metrics := body["sources"].([]any)
	require.Len(t, metrics, 2)
	assert.EqualValues(t, 2, metrics[0].(map[string]any)["runs"])

	rec, _ = f.do(t, http.MethodPost, "/api/scraper/run/detik", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestQueryValidation(t *testing.T) {
	f := newFixture(t)
	for _, target := range []string{"/api/articles?limit=abc", "/api/articles?offset=-1", "/api/news?limit=-3"} {
		rec, body := f.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, "validation error", body["title"])
	}
}

func TestMetricsAndDashboard(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/scraper/run/tempo", "")

	rec, _ := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "hoaxwatch_cycles_total 1")
	assert.Contains(t, rec.Body.String(), `hoaxwatch_source_fetches_total{source="Tempo Hoax",status="SUCCESS"} 1`)

	rec, _ = f.do(t, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/api/scraper/status")
}

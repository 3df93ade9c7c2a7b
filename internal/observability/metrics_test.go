package observability

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestMetricsServeHTTP(t *testing.T) {
	m := NewMetrics(testLogger)
	m.CyclesTotal.Add(3)
	m.ArticlesInserted.Add(7)
	m.RunningWorkers.Store(2)
	m.ObserveFetch("Tempo Hoax", "SUCCESS")
	m.ObserveFetch("Tempo Hoax", "SUCCESS")
	m.ObserveFetch("Antara Anti-Hoax", "TIMEOUT")

	rec := httptest.NewRecorder()
	m.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/plain")
	body := rec.Body.String()
	assert.Contains(t, body, "hoaxwatch_cycles_total 3\n")
	assert.Contains(t, body, "hoaxwatch_articles_inserted_total 7\n")
	assert.Contains(t, body, "# TYPE hoaxwatch_running_workers gauge\n")
	assert.Contains(t, body, `hoaxwatch_source_fetches_total{source="Tempo Hoax",status="SUCCESS"} 2`)
	assert.Contains(t, body, `hoaxwatch_source_fetches_total{source="Antara Anti-Hoax",status="TIMEOUT"} 1`)
	assert.Less(t,
		strings.Index(body, `source="Antara Anti-Hoax"`),
		strings.Index(body, `source="Tempo Hoax"`))
}

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics(testLogger)
	m.HoaxesFlagged.Add(4)
	snap := m.Snapshot()
	assert.Equal(t, int64(4), snap["hoaxes_flagged"])
	assert.Zero(t, snap["cycles_total"])
}

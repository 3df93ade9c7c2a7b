package api

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/IshaanNene/HoaxWatch/internal/types"
)

const maxLimit = 500

type intervalRequest struct {
	IntervalSeconds int `json:"interval_seconds"`
}

// maxIntervalSeconds is the largest interval a time.Duration can hold.
const maxIntervalSeconds = math.MaxInt64 / int64(time.Second)

func (s *Server) handleHealth(c echo.Context) error {
	ctx := c.Request().Context()
	status, code := "ok", http.StatusOK
	if !s.store.Healthy(ctx) {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	return c.JSON(code, map[string]string{
		"status":  status,
		"storage": s.store.Name(),
		"version": s.cfg.Version,
	})
}

func (s *Server) handleStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, s.scraper.Status(c.Request().Context()))
}

func (s *Server) handleSourceMetrics(c echo.Context) error {
	metrics, err := s.scraper.SourceMetrics(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"sources": metrics})
}

func (s *Server) handleRunAll(c echo.Context) error {
	return c.JSON(http.StatusOK, s.scraper.RunAllOnce(c.Request().Context()))
}

func (s *Server) handleRunSource(c echo.Context) error {
	res, err := s.scraper.RunSourceOnce(c.Request().Context(), c.Param("key"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

func (s *Server) handleStartAll(c echo.Context) error {
	interval, err := bindInterval(c)
	if err != nil {
		return err
	}
	changed := s.scraper.Start(interval)
	return c.JSON(http.StatusOK, map[string]any{"changed": changed, "running": s.scraper.Running()})
}

func (s *Server) handleStopAll(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"changed": s.scraper.Stop(), "running": false})
}

func (s *Server) handleStartSource(c echo.Context) error {
	interval, err := bindInterval(c)
	if err != nil {
		return err
	}
	key := c.Param("key")
	changed, err := s.scraper.StartSource(key, interval)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"key": key, "changed": changed, "running": true})
}

func (s *Server) handleStopSource(c echo.Context) error {
	key := c.Param("key")
	changed, err := s.scraper.StopSource(key)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{"key": key, "changed": changed, "running": false})
}

func (s *Server) handleArticles(c echo.Context) error {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return err
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		return err
	}
	articles, err := s.store.ListArticles(c.Request().Context(), limit, offset)
	if err != nil {
		return err
	}
	if articles == nil {
		articles = []types.StoredArticle{}
	}
	return c.JSON(http.StatusOK, map[string]any{
		"articles": articles,
		"limit":    limit,
		"offset":   offset,
	})
}

func (s *Server) handleNews(c echo.Context) error {
	limit, err := queryInt(c, "limit", 50)
	if err != nil {
		return err
	}
	news, err := s.store.ListNews(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if news == nil {
		news = []types.NewsItem{}
	}
	return c.JSON(http.StatusOK, map[string]any{"news": news})
}

func (s *Server) handleRuns(c echo.Context) error {
	limit, err := queryInt(c, "limit", 10)
	if err != nil {
		return err
	}
	runs, err := s.store.RecentRuns(c.Request().Context(), limit)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []types.Run{}
	}
	return c.JSON(http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleSourceRuns(c echo.Context) error {
	key := c.Param("key")
	name, err := s.scraper.SourceName(key)
	if err != nil {
		return err
	}
	limit, err := queryInt(c, "limit", 20)
	if err != nil {
		return err
	}
	runs, err := s.store.SourceRunHistory(c.Request().Context(), name, limit)
	if err != nil {
		return err
	}
	if runs == nil {
		runs = []types.SourceRun{}
	}
	return c.JSON(http.StatusOK, map[string]any{"key": key, "source": name, "runs": runs})
}

func (s *Server) handleStats(c echo.Context) error {
	ctx := c.Request().Context()
	total, err := s.store.TotalArticles(ctx)
	if err != nil {
		return err
	}
	perSource, err := s.store.ArticlesPerSource(ctx)
	if err != nil {
		return err
	}
	runs, err := s.store.RecentRuns(ctx, 5)
	if err != nil {
		return err
	}
	resp := map[string]any{
		"total_articles":      total,
		"articles_per_source": perSource,
		"recent_runs":         runs,
		"timestamp":           time.Now().UTC().Format(time.RFC3339),
	}
	if s.metrics != nil {
		resp["counters"] = s.metrics.Snapshot()
	}
	return c.JSON(http.StatusOK, resp)
}

// bindInterval reads the optional interval_seconds body field.
func bindInterval(c echo.Context) (time.Duration, error) {
	var req intervalRequest
	if err := c.Bind(&req); err != nil {
		return 0, &ValidationError{Message: "invalid request body", Err: err}
	}
	if req.IntervalSeconds < 0 {
		return 0, newValidation("interval_seconds must not be negative, got %d", req.IntervalSeconds)
	}
	if int64(req.IntervalSeconds) > maxIntervalSeconds {
		return 0, newValidation("interval_seconds must not exceed %d, got %d", maxIntervalSeconds, req.IntervalSeconds)
	}
	return time.Duration(req.IntervalSeconds) * time.Second, nil
}

// queryInt parses a non-negative integer query parameter capped at maxLimit
// for limits.
func queryInt(c echo.Context, name string, def int) (int, error) {
	raw := c.QueryParam(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &ValidationError{Message: name + " must be an integer", Err: err}
	}
	if n < 0 {
		return 0, newValidation("%s must not be negative", name)
	}
	if name == "limit" && n > maxLimit {
		n = maxLimit
	}
	return n, nil
}

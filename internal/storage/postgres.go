package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/IshaanNene/HoaxWatch/internal/config"
	"github.com/IshaanNene/HoaxWatch/internal/types"
)

//go:embed migrations/*.up.sql
var migrations embed.FS

// PostgresStore persists to PostgreSQL through a pgx connection pool.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore connects, pings and applies the schema migrations.
func NewPostgresStore(ctx context.Context, cfg config.PostgresConfig, logger *slog.Logger) (*PostgresStore, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	s := &PostgresStore{
		pool:   pool,
		logger: logger.With("component", "postgres_store"),
	}
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// Migrate applies every embedded migration in file name order. The scripts
// are idempotent.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	files, err := fs.Glob(migrations, "migrations/*.up.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(files)

	for _, f := range files {
		script, err := migrations.ReadFile(f)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", f, err)
		}
		if _, err := s.pool.Exec(ctx, string(script)); err != nil {
			return &types.StorageError{Backend: s.Name(), Op: "migrate " + f, Err: err}
		}
		s.logger.Debug("migration applied", "file", f)
	}
	return nil
}

func (s *PostgresStore) Name() string { return "postgres" }

const insertArticleSQL = `
INSERT INTO hoaxes (source, title, url, published_at, summary, fetched_at, content_hash)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (url) DO NOTHING
RETURNING id, created_at`

func (s *PostgresStore) SaveArticles(ctx context.Context, articles []types.Article) ([]types.StoredArticle, error) {
	var inserted []types.StoredArticle
	for _, a := range articles {
		if strings.TrimSpace(a.Source) == "" {
			s.logger.Warn("article without source skipped", "url", a.URL)
			continue
		}

		stored := types.StoredArticle{Article: a, ContentHash: ContentHash(a)}
		err := s.pool.QueryRow(ctx, insertArticleSQL,
			a.Source, a.Title, a.URL, a.PublishedAt, a.Summary, a.FetchedAt, stored.ContentHash,
		).Scan(&stored.ID, &stored.CreatedAt)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			// URL already stored.
			continue
		case err != nil:
			if ctx.Err() != nil {
				return inserted, &types.StorageError{Backend: s.Name(), Op: "save articles", Err: err}
			}
			s.logger.Error("article insert failed", "url", a.URL, "error", err)
			continue
		}
		inserted = append(inserted, stored)
	}
	return inserted, nil
}

func (s *PostgresStore) SaveNews(ctx context.Context, item types.NewsItem) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
INSERT INTO news (title, content, source, source_url, category, date, prediction, confidence)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id`,
		item.Title, item.Content, item.Source, item.SourceURL, item.Category, item.Date,
		string(item.Prediction), item.Confidence,
	).Scan(&id)
	if err != nil {
		return 0, &types.StorageError{Backend: s.Name(), Op: "save news", Err: err}
	}
	return id, nil
}

func (s *PostgresStore) RecordRun(ctx context.Context, run types.Run) (types.Run, error) {
	err := s.pool.QueryRow(ctx, `
INSERT INTO runs (cycle_id, run_time, total_collected, new_inserted, status)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`,
		run.CycleID, run.RunTime, run.TotalCollected, run.NewInserted, run.Status,
	).Scan(&run.ID)
	if err != nil {
		return run, &types.StorageError{Backend: s.Name(), Op: "record run", Err: err}
	}
	return run, nil
}

func (s *PostgresStore) RecordSourceRun(ctx context.Context, run types.SourceRun) (types.SourceRun, error) {
	err := s.pool.QueryRow(ctx, `
INSERT INTO source_runs (cycle_id, source_name, run_time, status, articles_collected)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`,
		run.CycleID, run.SourceName, run.RunTime, string(run.Status), run.ArticlesCollected,
	).Scan(&run.ID)
	if err != nil {
		return run, &types.StorageError{Backend: s.Name(), Op: "record source run", Err: err}
	}
	return run, nil
}

const sourceRunColumns = `id, cycle_id, source_name, run_time, status, articles_collected`

func scanSourceRun(row pgx.Row) (types.SourceRun, error) {
	var (
		r      types.SourceRun
		status string
	)
	err := row.Scan(&r.ID, &r.CycleID, &r.SourceName, &r.RunTime, &status, &r.ArticlesCollected)
	r.Status = types.RunStatus(status)
	return r, err
}

func (s *PostgresStore) LatestSourceRuns(ctx context.Context) (map[string]types.SourceRun, error) {
	rows, err := s.pool.Query(ctx, `
SELECT DISTINCT ON (source_name) `+sourceRunColumns+`
FROM source_runs
ORDER BY source_name, id DESC`)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "latest source runs", Err: err}
	}
	defer rows.Close()

	latest := make(map[string]types.SourceRun)
	for rows.Next() {
		r, err := scanSourceRun(rows)
		if err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Op: "latest source runs", Err: err}
		}
		latest[r.SourceName] = r
	}
	return latest, rows.Err()
}

func (s *PostgresStore) SourceRunHistory(ctx context.Context, sourceName string, limit int) ([]types.SourceRun, error) {
	rows, err := s.pool.Query(ctx, `
SELECT `+sourceRunColumns+`
FROM source_runs
WHERE source_name = $1
ORDER BY id DESC
LIMIT $2`, sourceName, clampLimit(limit, 20))
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "source run history", Err: err}
	}
	defer rows.Close()

	var out []types.SourceRun
	for rows.Next() {
		r, err := scanSourceRun(rows)
		if err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Op: "source run history", Err: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SourceRunStats(ctx context.Context) ([]types.SourceRunStats, error) {
	rows, err := s.pool.Query(ctx, `
SELECT source_name, status, COUNT(*), COALESCE(SUM(articles_collected), 0)
FROM source_runs
GROUP BY source_name, status`)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "source run stats", Err: err}
	}
	defer rows.Close()

	var counts []statusCount
	for rows.Next() {
		var (
			c      statusCount
			status string
		)
		if err := rows.Scan(&c.source, &status, &c.runs, &c.collected); err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Op: "source run stats", Err: err}
		}
		c.status = types.RunStatus(status)
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	latest, err := s.LatestSourceRuns(ctx)
	if err != nil {
		return nil, err
	}
	return aggregateStats(counts, latest), nil
}

func (s *PostgresStore) RecentRuns(ctx context.Context, limit int) ([]types.Run, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, cycle_id, run_time, total_collected, new_inserted, status
FROM runs
ORDER BY id DESC
LIMIT $1`, clampLimit(limit, 10))
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "recent runs", Err: err}
	}
	defer rows.Close()

	var out []types.Run
	for rows.Next() {
		var r types.Run
		if err := rows.Scan(&r.ID, &r.CycleID, &r.RunTime, &r.TotalCollected, &r.NewInserted, &r.Status); err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Op: "recent runs", Err: err}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *PostgresStore) TotalArticles(ctx context.Context) (int64, error) {
	var n int64
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM hoaxes`).Scan(&n); err != nil {
		return 0, &types.StorageError{Backend: s.Name(), Op: "total articles", Err: err}
	}
	return n, nil
}

func (s *PostgresStore) ArticlesPerSource(ctx context.Context) ([]types.SourceCount, error) {
	rows, err := s.pool.Query(ctx, `
SELECT source, COUNT(*)
FROM hoaxes
GROUP BY source
ORDER BY COUNT(*) DESC, source`)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "articles per source", Err: err}
	}
	defer rows.Close()

	var out []types.SourceCount
	for rows.Next() {
		var c types.SourceCount
		if err := rows.Scan(&c.Source, &c.Count); err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Op: "articles per source", Err: err}
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListArticles(ctx context.Context, limit, offset int) ([]types.StoredArticle, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, source, title, url, published_at, summary, fetched_at, content, content_hash, created_at
FROM hoaxes
ORDER BY id DESC
LIMIT $1 OFFSET $2`, clampLimit(limit, 50), max(offset, 0))
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "list articles", Err: err}
	}
	defer rows.Close()

	var out []types.StoredArticle
	for rows.Next() {
		var a types.StoredArticle
		if err := rows.Scan(&a.ID, &a.Source, &a.Title, &a.URL, &a.PublishedAt, &a.Summary,
			&a.FetchedAt, &a.Content, &a.ContentHash, &a.CreatedAt); err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Op: "list articles", Err: err}
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListNews(ctx context.Context, limit int) ([]types.NewsItem, error) {
	rows, err := s.pool.Query(ctx, `
SELECT id, title, content, source, source_url, category, date, prediction, confidence, created_at
FROM news
ORDER BY id DESC
LIMIT $1`, clampLimit(limit, 50))
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "list news", Err: err}
	}
	defer rows.Close()

	var out []types.NewsItem
	for rows.Next() {
		var (
			n          types.NewsItem
			prediction string
		)
		if err := rows.Scan(&n.ID, &n.Title, &n.Content, &n.Source, &n.SourceURL, &n.Category,
			&n.Date, &prediction, &n.Confidence, &n.CreatedAt); err != nil {
			return nil, &types.StorageError{Backend: s.Name(), Op: "list news", Err: err}
		}
		n.Prediction = types.Label(prediction)
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx) == nil
}

func (s *PostgresStore) Close() error {
	s.logger.Info("postgres store closing")
	s.pool.Close()
	return nil
}

package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/HoaxWatch/internal/config"
	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// MongoStore persists to MongoDB. Surrogate ids come from a counters
// collection so records keep a stable insertion order.
type MongoStore struct {
	client     *mongo.Client
	db         *mongo.Database
	articles   *mongo.Collection
	runs       *mongo.Collection
	sourceRuns *mongo.Collection
	news       *mongo.Collection
	counters   *mongo.Collection
	logger     *slog.Logger
}

type articleDoc struct {
	ID          int64      `bson:"_id"`
	Source      string     `bson:"source"`
	Title       string     `bson:"title"`
	URL         string     `bson:"url"`
	PublishedAt *time.Time `bson:"published_at,omitempty"`
	Summary     string     `bson:"summary"`
	FetchedAt   time.Time  `bson:"fetched_at"`
	Content     *string    `bson:"content,omitempty"`
	ContentHash string     `bson:"content_hash"`
	CreatedAt   time.Time  `bson:"created_at"`
}

func (d articleDoc) toStored() types.StoredArticle {
	return types.StoredArticle{
		Article: types.Article{
			Source:      d.Source,
			Title:       d.Title,
			URL:         d.URL,
			PublishedAt: utcPtr(d.PublishedAt),
			Summary:     d.Summary,
			FetchedAt:   d.FetchedAt.UTC(),
		},
		ID:          d.ID,
		ContentHash: d.ContentHash,
		Content:     d.Content,
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

type runDoc struct {
	ID             int64     `bson:"_id"`
	CycleID        string    `bson:"cycle_id"`
	RunTime        time.Time `bson:"run_time"`
	TotalCollected int       `bson:"total_collected"`
	NewInserted    int       `bson:"new_inserted"`
	Status         string    `bson:"status"`
}

type sourceRunDoc struct {
	ID                int64     `bson:"_id"`
	CycleID           string    `bson:"cycle_id"`
	SourceName        string    `bson:"source_name"`
	RunTime           time.Time `bson:"run_time"`
	Status            string    `bson:"status"`
	ArticlesCollected int       `bson:"articles_collected"`
}

func (d sourceRunDoc) toSourceRun() types.SourceRun {
	id, _ := uuid.Parse(d.CycleID)
	return types.SourceRun{
		ID:                d.ID,
		CycleID:           id,
		SourceName:        d.SourceName,
		RunTime:           d.RunTime.UTC(),
		Status:            types.RunStatus(d.Status),
		ArticlesCollected: d.ArticlesCollected,
	}
}

type newsDoc struct {
	ID         int64      `bson:"_id"`
	Title      string     `bson:"title"`
	Content    string     `bson:"content"`
	Source     string     `bson:"source"`
	SourceURL  string     `bson:"source_url"`
	Category   string     `bson:"category"`
	Date       *time.Time `bson:"date,omitempty"`
	Prediction string     `bson:"prediction"`
	Confidence float64    `bson:"confidence"`
	CreatedAt  time.Time  `bson:"created_at"`
	UpdatedAt  time.Time  `bson:"updated_at"`
}

// NewMongoStore connects, pings and ensures indexes.
func NewMongoStore(ctx context.Context, cfg config.MongoConfig, logger *slog.Logger) (*MongoStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &MongoStore{
		client:     client,
		db:         db,
		articles:   db.Collection("hoaxes"),
		runs:       db.Collection("runs"),
		sourceRuns: db.Collection("source_runs"),
		news:       db.Collection("news"),
		counters:   db.Collection("counters"),
		logger:     logger.With("component", "mongo_store"),
	}
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.articles.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "url", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "source", Value: 1}}},
		{Keys: bson.D{{Key: "published_at", Value: 1}}},
		{Keys: bson.D{{Key: "content_hash", Value: 1}}},
	})
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "create article indexes", Err: err}
	}
	_, err = s.sourceRuns.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "source_name", Value: 1}, {Key: "_id", Value: -1}},
	})
	if err != nil {
		return &types.StorageError{Backend: s.Name(), Op: "create source run indexes", Err: err}
	}
	return nil
}

func (s *MongoStore) Name() string { return "mongodb" }

// nextID atomically increments the named counter.
func (s *MongoStore) nextID(ctx context.Context, name string) (int64, error) {
	var doc struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": name},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, fmt.Errorf("next id for %s: %w", name, err)
	}
	return doc.Seq, nil
}

func (s *MongoStore) SaveArticles(ctx context.Context, articles []types.Article) ([]types.StoredArticle, error) {
	var inserted []types.StoredArticle
	for _, a := range articles {
		if strings.TrimSpace(a.Source) == "" {
			s.logger.Warn("article without source skipped", "url", a.URL)
			continue
		}

		// Skip known URLs before consuming an id.
		n, err := s.articles.CountDocuments(ctx, bson.M{"url": a.URL}, options.Count().SetLimit(1))
		if err == nil && n > 0 {
			continue
		}

		id, err := s.nextID(ctx, "hoaxes")
		if err != nil {
			if ctx.Err() != nil {
				return inserted, &types.StorageError{Backend: s.Name(), Op: "save articles", Err: err}
			}
			s.logger.Error("article id allocation failed", "url", a.URL, "error", err)
			continue
		}

		doc := articleDoc{
			ID:          id,
			Source:      a.Source,
			Title:       a.Title,
			URL:         a.URL,
			PublishedAt: a.PublishedAt,
			Summary:     a.Summary,
			FetchedAt:   a.FetchedAt,
			ContentHash: ContentHash(a),
			CreatedAt:   time.Now().UTC(),
		}
		if _, err := s.articles.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				// Lost a race with a concurrent insert of the same URL.
				continue
			}
			s.logger.Error("article insert failed", "url", a.URL, "error", err)
			continue
		}
		inserted = append(inserted, doc.toStored())
	}
	return inserted, nil
}

func (s *MongoStore) SaveNews(ctx context.Context, item types.NewsItem) (int64, error) {
	id, err := s.nextID(ctx, "news")
	if err != nil {
		return 0, &types.StorageError{Backend: s.Name(), Op: "save news", Err: err}
	}
	now := time.Now().UTC()
	doc := newsDoc{
		ID:         id,
		Title:      item.Title,
		Content:    item.Content,
		Source:     item.Source,
		SourceURL:  item.SourceURL,
		Category:   item.Category,
		Date:       item.Date,
		Prediction: string(item.Prediction),
		Confidence: item.Confidence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.news.InsertOne(ctx, doc); err != nil {
		return 0, &types.StorageError{Backend: s.Name(), Op: "save news", Err: err}
	}
	return id, nil
}

func (s *MongoStore) RecordRun(ctx context.Context, run types.Run) (types.Run, error) {
	id, err := s.nextID(ctx, "runs")
	if err != nil {
		return run, &types.StorageError{Backend: s.Name(), Op: "record run", Err: err}
	}
	run.ID = id
	_, err = s.runs.InsertOne(ctx, runDoc{
		ID:             id,
		CycleID:        run.CycleID.String(),
		RunTime:        run.RunTime,
		TotalCollected: run.TotalCollected,
		NewInserted:    run.NewInserted,
		Status:         run.Status,
	})
	if err != nil {
		return run, &types.StorageError{Backend: s.Name(), Op: "record run", Err: err}
	}
	return run, nil
}

func (s *MongoStore) RecordSourceRun(ctx context.Context, run types.SourceRun) (types.SourceRun, error) {
	id, err := s.nextID(ctx, "source_runs")
	if err != nil {
		return run, &types.StorageError{Backend: s.Name(), Op: "record source run", Err: err}
	}
	run.ID = id
	_, err = s.sourceRuns.InsertOne(ctx, sourceRunDoc{
		ID:                id,
		CycleID:           run.CycleID.String(),
		SourceName:        run.SourceName,
		RunTime:           run.RunTime,
		Status:            string(run.Status),
		ArticlesCollected: run.ArticlesCollected,
	})
	if err != nil {
		return run, &types.StorageError{Backend: s.Name(), Op: "record source run", Err: err}
	}
	return run, nil
}

func (s *MongoStore) LatestSourceRuns(ctx context.Context) (map[string]types.SourceRun, error) {
	cursor, err := s.sourceRuns.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: -1}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$source_name"},
			{Key: "doc", Value: bson.D{{Key: "$first", Value: "$$ROOT"}}},
		}}},
		{{Key: "$replaceRoot", Value: bson.D{{Key: "newRoot", Value: "$doc"}}}},
	})
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "latest source runs", Err: err}
	}
	var docs []sourceRunDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "latest source runs", Err: err}
	}
	latest := make(map[string]types.SourceRun, len(docs))
	for _, d := range docs {
		latest[d.SourceName] = d.toSourceRun()
	}
	return latest, nil
}

func (s *MongoStore) SourceRunHistory(ctx context.Context, sourceName string, limit int) ([]types.SourceRun, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(clampLimit(limit, 20)))
	cursor, err := s.sourceRuns.Find(ctx, bson.M{"source_name": sourceName}, opts)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "source run history", Err: err}
	}
	var docs []sourceRunDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "source run history", Err: err}
	}
	out := make([]types.SourceRun, len(docs))
	for i, d := range docs {
		out[i] = d.toSourceRun()
	}
	return out, nil
}

func (s *MongoStore) SourceRunStats(ctx context.Context) ([]types.SourceRunStats, error) {
	cursor, err := s.sourceRuns.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "source", Value: "$source_name"}, {Key: "status", Value: "$status"}}},
			{Key: "runs", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "collected", Value: bson.D{{Key: "$sum", Value: "$articles_collected"}}},
		}}},
	})
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "source run stats", Err: err}
	}
	var groups []struct {
		ID struct {
			Source string `bson:"source"`
			Status string `bson:"status"`
		} `bson:"_id"`
		Runs      int64 `bson:"runs"`
		Collected int64 `bson:"collected"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "source run stats", Err: err}
	}

	counts := make([]statusCount, len(groups))
	for i, g := range groups {
		counts[i] = statusCount{source: g.ID.Source, status: types.RunStatus(g.ID.Status), runs: g.Runs, collected: g.Collected}
	}
	latest, err := s.LatestSourceRuns(ctx)
	if err != nil {
		return nil, err
	}
	return aggregateStats(counts, latest), nil
}

func (s *MongoStore) RecentRuns(ctx context.Context, limit int) ([]types.Run, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(clampLimit(limit, 10)))
	cursor, err := s.runs.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "recent runs", Err: err}
	}
	var docs []runDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "recent runs", Err: err}
	}
	out := make([]types.Run, len(docs))
	for i, d := range docs {
		id, _ := uuid.Parse(d.CycleID)
		out[i] = types.Run{
			ID:             d.ID,
			CycleID:        id,
			RunTime:        d.RunTime.UTC(),
			TotalCollected: d.TotalCollected,
			NewInserted:    d.NewInserted,
			Status:         d.Status,
		}
	}
	return out, nil
}

func (s *MongoStore) TotalArticles(ctx context.Context) (int64, error) {
	n, err := s.articles.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, &types.StorageError{Backend: s.Name(), Op: "total articles", Err: err}
	}
	return n, nil
}

func (s *MongoStore) ArticlesPerSource(ctx context.Context) ([]types.SourceCount, error) {
	cursor, err := s.articles.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$source"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
	})
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "articles per source", Err: err}
	}
	var groups []struct {
		Source string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "articles per source", Err: err}
	}
	out := make([]types.SourceCount, len(groups))
	for i, g := range groups {
		out[i] = types.SourceCount{Source: g.Source, Count: g.Count}
	}
	return out, nil
}

func (s *MongoStore) ListArticles(ctx context.Context, limit, offset int) ([]types.StoredArticle, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(int64(clampLimit(limit, 50))).
		SetSkip(int64(max(offset, 0)))
	cursor, err := s.articles.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "list articles", Err: err}
	}
	var docs []articleDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "list articles", Err: err}
	}
	out := make([]types.StoredArticle, len(docs))
	for i, d := range docs {
		out[i] = d.toStored()
	}
	return out, nil
}

func (s *MongoStore) ListNews(ctx context.Context, limit int) ([]types.NewsItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(clampLimit(limit, 50)))
	cursor, err := s.news.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "list news", Err: err}
	}
	var docs []newsDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, &types.StorageError{Backend: s.Name(), Op: "list news", Err: err}
	}
	out := make([]types.NewsItem, len(docs))
	for i, d := range docs {
		out[i] = types.NewsItem{
			ID:         d.ID,
			Title:      d.Title,
			Content:    d.Content,
			Source:     d.Source,
			SourceURL:  d.SourceURL,
			Category:   d.Category,
			Date:       utcPtr(d.Date),
			Prediction: types.Label(d.Prediction),
			Confidence: d.Confidence,
			CreatedAt:  d.CreatedAt.UTC(),
		}
	}
	return out, nil
}

func (s *MongoStore) Healthy(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.client.Ping(ctx, nil) == nil
}

func (s *MongoStore) Close() error {
	s.logger.Info("mongodb store closing")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	u := t.UTC()
	return &u
}

// Package runner wraps a source fetch so that no failure escapes it. Every
// invocation yields a typed Outcome and one recorded source run.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/HoaxWatch/internal/sources"
	"github.com/IshaanNene/HoaxWatch/internal/types"
)

// Kind is the variant of a fetch outcome.
type Kind int

const (
	KindSuccess Kind = iota
	KindTimeout
	KindNetworkError
	KindFailure
)

func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindTimeout:
		return "timeout"
	case KindNetworkError:
		return "network_error"
	case KindFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Status maps the outcome kind to the recorded run status.
func (k Kind) Status() types.RunStatus {
	switch k {
	case KindSuccess:
		return types.StatusSuccess
	case KindTimeout:
		return types.StatusTimeout
	case KindNetworkError:
		return types.StatusNetworkError
	default:
		return types.StatusFailure
	}
}

// Outcome describes one fetcher invocation.
type Outcome struct {
	Kind     Kind
	Count    int
	Health   types.Health
	Err      error
	Duration time.Duration
	Record   types.SourceRun
}

// OK reports whether the fetch succeeded.
func (o Outcome) OK() bool { return o.Kind == KindSuccess }

// Recorder persists source run records.
type Recorder interface {
	RecordSourceRun(ctx context.Context, run types.SourceRun) (types.SourceRun, error)
}

// Runner executes fetchers safely.
type Runner struct {
	recorder Recorder
	now      func() time.Time
	logger   *slog.Logger
}

// New creates a Runner that records runs with recorder.
func New(recorder Recorder, logger *slog.Logger) *Runner {
	return &Runner{
		recorder: recorder,
		now:      time.Now,
		logger:   logger.With("component", "safe_runner"),
	}
}

// Run calls src.Fetch exactly once. It never returns an error and never
// panics: failures become an Outcome with an empty article list.
func (r *Runner) Run(ctx context.Context, cycleID uuid.UUID, src sources.Source) ([]types.CandidateArticle, Outcome) {
	start := r.now()
	items, err := r.fetch(ctx, src)
	outcome := Outcome{Duration: r.now().Sub(start)}

	if err != nil {
		items = []types.CandidateArticle{}
		outcome.Kind = Classify(err)
		outcome.Err = err
		r.logger.Error("fetch failed",
			"source", src.Name(),
			"kind", outcome.Kind,
			"duration", outcome.Duration,
			"error", err,
		)
	} else {
		if items == nil {
			r.logger.Warn("fetcher returned no result set, treating as empty", "source", src.Name())
			items = []types.CandidateArticle{}
		}
		outcome.Kind = KindSuccess
		outcome.Count = len(items)
	}

	outcome.Health = types.HealthFor(outcome.Count)
	level := slog.LevelInfo
	if outcome.Health != types.HealthHealthy {
		level = slog.LevelWarn
	}
	r.logger.Log(ctx, level, "source health",
		"source", src.Name(),
		"health", outcome.Health,
		"articles", outcome.Count,
		"duration", outcome.Duration,
	)

	outcome.Record = types.SourceRun{
		CycleID:           cycleID,
		SourceName:        src.Name(),
		RunTime:           start.UTC(),
		Status:            outcome.Kind.Status(),
		ArticlesCollected: outcome.Count,
	}
	if r.recorder != nil {
		// Recording happens even when the caller's context is already done.
		recCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		rec, err := r.recorder.RecordSourceRun(recCtx, outcome.Record)
		cancel()
		if err != nil {
			r.logger.Error("failed to record source run", "source", src.Name(), "error", err)
		} else {
			outcome.Record = rec
		}
	}

	return items, outcome
}

// fetch invokes the source and converts a panic into an error.
func (r *Runner) fetch(ctx context.Context, src sources.Source) (items []types.CandidateArticle, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("fetcher panicked: %v", p)
		}
	}()
	return src.Fetch(ctx)
}

// Classify maps a fetch error to an outcome kind.
func Classify(err error) Kind {
	if err == nil {
		return KindSuccess
	}

	var fe *types.FetchError
	if errors.As(err, &fe) {
		switch fe.Kind {
		case types.KindTimeout:
			return KindTimeout
		case types.KindNetwork:
			return KindNetworkError
		default:
			return KindFailure
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindNetworkError
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return KindNetworkError
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return KindNetworkError
	}
	return KindFailure
}

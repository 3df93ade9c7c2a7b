package types

import (
	"time"

	"github.com/google/uuid"
)

// RunStatus is the outcome recorded for a single fetcher invocation.
type RunStatus string

const (
	StatusSuccess      RunStatus = "SUCCESS"
	StatusFailure      RunStatus = "FAILURE"
	StatusTimeout      RunStatus = "TIMEOUT"
	StatusNetworkError RunStatus = "NETWORK_ERROR"
)

// Valid reports whether s is one of the known statuses.
func (s RunStatus) Valid() bool {
	switch s {
	case StatusSuccess, StatusFailure, StatusTimeout, StatusNetworkError:
		return true
	}
	return false
}

// SourceRun is the append-only audit record of one fetcher invocation.
type SourceRun struct {
	ID                int64     `json:"id"`
	CycleID           uuid.UUID `json:"cycle_id"`
	SourceName        string    `json:"source_name"`
	RunTime           time.Time `json:"run_time"`
	Status            RunStatus `json:"status"`
	ArticlesCollected int       `json:"articles_collected"`
}

// SourceRunStats aggregates the source_runs history of one source.
type SourceRunStats struct {
	SourceName     string              `json:"source_name"`
	Runs           int64               `json:"runs"`
	ByStatus       map[RunStatus]int64 `json:"by_status"`
	TotalCollected int64               `json:"total_collected"`
	LastStatus     RunStatus           `json:"last_status,omitempty"`
	LastRunTime    time.Time           `json:"last_run_time,omitempty"`
}

// SuccessRate returns the share of successful runs in [0,1].
func (s SourceRunStats) SuccessRate() float64 {
	if s.Runs == 0 {
		return 0
	}
	return float64(s.ByStatus[StatusSuccess]) / float64(s.Runs)
}

// Health is an observability label derived from a fetch count.
type Health string

const (
	HealthDown     Health = "DOWN"
	HealthDegraded Health = "DEGRADED"
	HealthHealthy  Health = "HEALTHY"
)

// HealthFor labels a fetch that produced count candidates.
func HealthFor(count int) Health {
	switch {
	case count <= 0:
		return HealthDown
	case count < 5:
		return HealthDegraded
	default:
		return HealthHealthy
	}
}

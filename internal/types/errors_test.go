package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFetchErrorUnwrap(t *testing.T) {
	inner := errors.New("connection refused")
	err := fmt.Errorf("page 2: %w", &FetchError{URL: "https://example.com", Kind: KindNetwork, Err: inner})

	var fe *FetchError
	assert.True(t, errors.As(err, &fe))
	assert.Equal(t, KindNetwork, fe.Kind)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, fe.Error(), "network")
}

func TestFetchErrorStatusMessage(t *testing.T) {
	err := &FetchError{URL: "https://example.com", StatusCode: 503, Kind: KindStatus, Err: errors.New("unavailable")}
	assert.Contains(t, err.Error(), "status 503")
}

func TestSourceErrorIs(t *testing.T) {
	err := &SourceError{Key: "nope", Err: ErrUnknownSource}
	assert.ErrorIs(t, err, ErrUnknownSource)
	assert.NotErrorIs(t, err, ErrDependencyUnavailable)
}

func TestHealthFor(t *testing.T) {
	tests := []struct {
		count int
		want  Health
	}{
		{0, HealthDown},
		{1, HealthDegraded},
		{4, HealthDegraded},
		{5, HealthHealthy},
		{120, HealthHealthy},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HealthFor(tt.count), "count=%d", tt.count)
	}
}

func TestRunStatusValid(t *testing.T) {
	assert.True(t, StatusTimeout.Valid())
	assert.False(t, RunStatus("PARTIAL").Valid())
}

func TestSuccessRate(t *testing.T) {
	s := SourceRunStats{Runs: 4, ByStatus: map[RunStatus]int64{StatusSuccess: 3, StatusTimeout: 1}}
	assert.InDelta(t, 0.75, s.SuccessRate(), 1e-9)
	assert.Zero(t, SourceRunStats{}.SuccessRate())
}

package observability_test

import (
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/couchcryptid/quake-dashboard/internal/config"
	"github.com/couchcryptid/quake-dashboard/internal/observability"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"info":    slog.LevelInfo,
		"verbose": slog.LevelInfo,
		"":        slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, observability.ParseLevel(in), "level %q", in)
	}
}

func TestNewLogger(t *testing.T) {
	logger := observability.NewLogger(&config.Config{LogLevel: "warn", LogFormat: "text"})

	assert.NotNil(t, logger)
	assert.False(t, logger.Enabled(t.Context(), slog.LevelInfo))
	assert.True(t, logger.Enabled(t.Context(), slog.LevelWarn))
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := observability.NewMetricsForTesting()
	b := observability.NewMetricsForTesting()

	a.InvalidFilters.Inc()
	a.PlatesCache.WithLabelValues("hit").Inc()

	assert.InDelta(t, 1.0, testutil.ToFloat64(a.InvalidFilters), 0)
	assert.InDelta(t, 0.0, testutil.ToFloat64(b.InvalidFilters), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(a.PlatesCache.WithLabelValues("hit")), 0)
}

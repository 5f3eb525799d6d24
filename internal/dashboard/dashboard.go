// Package dashboard is the single recomputation entry point behind every
// chart. A filter change replaces the session's FilterSpec, and Recompute
// rebuilds the filtered view and every aggregate from scratch.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/quake-dashboard/internal/aggregate"
	"github.com/couchcryptid/quake-dashboard/internal/animation"
	"github.com/couchcryptid/quake-dashboard/internal/dataset"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/couchcryptid/quake-dashboard/internal/filter"
	"github.com/couchcryptid/quake-dashboard/internal/observability"
)

// InteractionRecorder receives filter changes. Recording is best effort:
// a failure is logged and never fails the interaction.
type InteractionRecorder interface {
	RecordInteraction(ctx context.Context, in domain.Interaction) error
}

// Settings tune the dashboard beyond the dataset itself.
type Settings struct {
	DefaultMagTypes int
	SessionTTL      time.Duration
	MaxFrames       int
	FrameDelay      time.Duration
	Trend           animation.TrendMode
}

// Options select presentation variants of a snapshot.
type Options struct {
	ScatterColor  aggregate.ScatterColor
	TopPlaces     int
	HistogramBins int
}

// DefaultOptions are the options used when a request specifies none.
func DefaultOptions() Options {
	return Options{
		ScatterColor:  aggregate.ColorNone,
		TopPlaces:     10,
		HistogramBins: aggregate.DefaultHistogramBins,
	}
}

// Snapshot holds every derived aggregate for one FilterSpec.
type Snapshot struct {
	Filter     domain.FilterSpec `json:"filter"`
	ComputedAt time.Time         `json:"computed_at"`

	Summary   aggregate.Summary         `json:"summary"`
	Map       []aggregate.MapPoint      `json:"map"`
	Scatter   []aggregate.ScatterGroup  `json:"scatter"`
	Monthly   aggregate.MonthlySeasonal `json:"monthly"`
	Density   aggregate.DensityTable    `json:"density"`
	Matrix    []aggregate.MatrixPoint   `json:"scatter_matrix"`
	Histogram []aggregate.Bin           `json:"magnitude_histogram"`
	TopPlaces []aggregate.PlaceCount    `json:"top_places"`

	// Correlation is nil when the view has fewer than two events.
	Correlation *aggregate.CorrelationMatrix `json:"correlation"`

	// Outliers are drawn from the full dataset, not the filtered view.
	Outliers aggregate.OutlierSet `json:"outliers"`
}

// SeriesQuery selects the time-series animation.
type SeriesQuery struct {
	Granularity aggregate.Granularity
	Metric      aggregate.Metric
	MaxFrames   int
}

// Animation is the frame sequence for the time-series chart.
type Animation struct {
	Granularity aggregate.Granularity `json:"granularity"`
	Metric      aggregate.Metric      `json:"metric"`
	Label       string                `json:"label"`
	Points      int                   `json:"points"`
	Frames      []animation.Frame     `json:"frames"`
}

// Dashboard recomputes chart data for the loaded dataset and owns the
// per-session filter state.
type Dashboard struct {
	data     *dataset.Dataset
	sessions *Sessions
	outliers aggregate.OutlierSet
	recorder InteractionRecorder
	settings Settings
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Dashboard over data. recorder may be nil.
func New(data *dataset.Dataset, settings Settings, recorder InteractionRecorder, logger *slog.Logger, metrics *observability.Metrics) *Dashboard {
	if settings.MaxFrames <= 0 {
		settings.MaxFrames = animation.DefaultMaxFrames
	}
	if settings.Trend == "" {
		settings.Trend = animation.TrendRolling
	}
	return &Dashboard{
		data:     data,
		sessions: NewSessions(data.DefaultFilter(settings.DefaultMagTypes), settings.SessionTTL),
		outliers: aggregate.Outliers(data.Events()),
		recorder: recorder,
		settings: settings,
		logger:   logger,
		metrics:  metrics,
	}
}

// Dataset returns the loaded dataset.
func (d *Dashboard) Dataset() *dataset.Dataset {
	return d.data
}

// Sessions returns the per-session filter store.
func (d *Dashboard) Sessions() *Sessions {
	return d.sessions
}

// CheckReadiness reports an error until the dataset holds at least one event.
func (d *Dashboard) CheckReadiness(_ context.Context) error {
	if d.data == nil || d.data.Len() == 0 {
		return errors.New("dataset has no events")
	}
	return nil
}

// Resolve returns a live session id for id, creating a session if needed.
func (d *Dashboard) Resolve(id string) string {
	id, created := d.sessions.Resolve(id)
	if created {
		d.logger.Debug("session created", "session_id", id)
	}
	d.metrics.ActiveSessions.Set(float64(d.sessions.Len()))
	return id
}

// Filter returns the session's current filter.
func (d *Dashboard) Filter(sessionID string) domain.FilterSpec {
	return d.sessions.Filter(sessionID)
}

// UpdateFilter replaces the session's filter and recomputes. An invalid
// spec is rejected before any state changes.
func (d *Dashboard) UpdateFilter(ctx context.Context, sessionID string, spec domain.FilterSpec, opts Options) (Snapshot, error) {
	spec, err := d.sessions.Update(sessionID, spec)
	if err != nil {
		d.metrics.InvalidFilters.Inc()
		return Snapshot{}, err
	}
	snap, err := d.Recompute(spec, opts)
	if err != nil {
		return Snapshot{}, err
	}
	d.record(ctx, sessionID, domain.ActionFilterUpdate, snap)
	return snap, nil
}

// ResetFilter restores the session's default filter and recomputes.
func (d *Dashboard) ResetFilter(ctx context.Context, sessionID string, opts Options) (Snapshot, error) {
	spec := d.sessions.Reset(sessionID)
	snap, err := d.Recompute(spec, opts)
	if err != nil {
		return Snapshot{}, err
	}
	d.record(ctx, sessionID, domain.ActionFilterReset, snap)
	return snap, nil
}

// Recompute filters the dataset with spec and rebuilds every aggregate.
// It is a pure function of spec, opts and the dataset.
func (d *Dashboard) Recompute(spec domain.FilterSpec, opts Options) (Snapshot, error) {
	start := time.Now()

	view, err := filter.Apply(d.data.Events(), spec)
	if err != nil {
		d.metrics.InvalidFilters.Inc()
		return Snapshot{}, err
	}

	snap := Snapshot{
		Filter:     spec.Clone(),
		ComputedAt: domain.Now(),
		Summary:    aggregate.Summarize(view),
		Map:        aggregate.MapPoints(view),
		Scatter:    aggregate.ScatterPoints(view, opts.ScatterColor),
		Monthly:    aggregate.MonthlyCounts(view),
		Density:    aggregate.MagnitudeDepthDensity(view),
		Matrix:     aggregate.MatrixPoints(view),
		Histogram:  aggregate.MagnitudeHistogram(view, opts.HistogramBins),
		TopPlaces:  aggregate.TopPlaces(view, opts.TopPlaces),
		Outliers:   d.outliers,
	}

	corr, err := aggregate.Correlation(view, nil)
	switch {
	case err == nil:
		snap.Correlation = &corr
	case errors.Is(err, domain.ErrInsufficientData):
		d.metrics.InsufficientData.WithLabelValues("correlation").Inc()
	default:
		return Snapshot{}, err
	}

	d.metrics.FilteredEvents.Observe(float64(len(view)))
	d.metrics.RecomputeDuration.Observe(time.Since(start).Seconds())
	return snap, nil
}

// TimeSeries resamples the filtered view and builds the animation frames.
// It returns domain.ErrInsufficientData when the series has fewer than
// two buckets.
func (d *Dashboard) TimeSeries(spec domain.FilterSpec, q SeriesQuery) (Animation, error) {
	view, err := filter.Apply(d.data.Events(), spec)
	if err != nil {
		return Animation{}, err
	}
	series, err := aggregate.Resample(view, q.Granularity, q.Metric)
	if err != nil {
		return Animation{}, err
	}

	maxFrames := q.MaxFrames
	if maxFrames <= 0 {
		maxFrames = d.settings.MaxFrames
	}
	frames, err := animation.BuildFrames(series, maxFrames, d.settings.Trend)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientData) {
			d.metrics.InsufficientData.WithLabelValues("timeseries").Inc()
		}
		return Animation{}, err
	}
	return Animation{
		Granularity: q.Granularity,
		Metric:      q.Metric,
		Label:       q.Metric.Label(),
		Points:      len(series),
		Frames:      frames,
	}, nil
}

// TimeSeriesGIF writes the animation for spec and q as a GIF.
func (d *Dashboard) TimeSeriesGIF(w io.Writer, spec domain.FilterSpec, q SeriesQuery) error {
	anim, err := d.TimeSeries(spec, q)
	if err != nil {
		return err
	}
	start := time.Now()
	err = animation.EncodeGIF(w, anim.Frames, anim.Points, animation.RenderOptions{
		Delay:  d.settings.FrameDelay,
		YLabel: anim.Label,
	})
	if err != nil {
		return fmt.Errorf("time series gif: %w", err)
	}
	d.metrics.GIFEncodeDuration.Observe(time.Since(start).Seconds())
	return nil
}

// TopOutliers returns the k largest events of the full dataset by key.
func (d *Dashboard) TopOutliers(key aggregate.OutlierKey, k int) ([]domain.Event, error) {
	return aggregate.TopK(d.data.Events(), key, k)
}

func (d *Dashboard) record(ctx context.Context, sessionID, action string, snap Snapshot) {
	if d.recorder == nil {
		return
	}
	in := domain.Interaction{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Action:      action,
		Filter:      snap.Filter,
		ResultCount: snap.Summary.Total,
		OccurredAt:  snap.ComputedAt,
	}
	if err := d.recorder.RecordInteraction(ctx, in); err != nil {
		d.metrics.InteractionsPublished.WithLabelValues("error").Inc()
		d.logger.Warn("record interaction failed", "session_id", sessionID, "action", action, "error", err)
		return
	}
	d.metrics.InteractionsPublished.WithLabelValues("success").Inc()
}

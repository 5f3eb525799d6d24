package aggregate

import (
	"fmt"
	"slices"
	"time"

	"github.com/aclements/go-moremath/stats"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

// Granularity is a resample bucket size.
type Granularity string

const (
	Daily   Granularity = "Daily"
	Weekly  Granularity = "Weekly"
	Monthly Granularity = "Monthly"
)

// ParseGranularity accepts Daily, Weekly or Monthly.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case Daily, Weekly, Monthly:
		return g, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownGranularity, s)
	}
}

// BucketStart truncates t to the start of its bucket in UTC. Weeks start
// on Monday.
func (g Granularity) BucketStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	switch g {
	case Weekly:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case Monthly:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// Metric reduces the magnitudes in one bucket to a single value.
type Metric string

const (
	MeanMagnitude Metric = "mean"
	MaxMagnitude  Metric = "max"
	Count         Metric = "count"
)

// ParseMetric accepts mean, max or count.
func ParseMetric(s string) (Metric, error) {
	switch m := Metric(s); m {
	case MeanMagnitude, MaxMagnitude, Count:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", domain.ErrUnknownMetric, s)
	}
}

// Label is the axis title for a metric.
func (m Metric) Label() string {
	switch m {
	case MeanMagnitude:
		return "Mean magnitude"
	case MaxMagnitude:
		return "Max magnitude"
	default:
		return "Event count"
	}
}

func (m Metric) reduce(magnitudes []float64) float64 {
	switch m {
	case MeanMagnitude:
		return stats.Mean(magnitudes)
	case MaxMagnitude:
		_, hi := stats.Bounds(magnitudes)
		return hi
	default:
		return float64(len(magnitudes))
	}
}

// Point is one bucket of a resampled series.
type Point struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Resample buckets events by BucketStart and reduces each bucket with m.
// Buckets without events are omitted, so spacing may be irregular. The
// result is sorted by bucket start.
func Resample(events []domain.Event, g Granularity, m Metric) ([]Point, error) {
	if _, err := ParseGranularity(string(g)); err != nil {
		return nil, err
	}
	if _, err := ParseMetric(string(m)); err != nil {
		return nil, err
	}

	buckets := make(map[int64][]float64)
	for _, e := range events {
		start := g.BucketStart(e.DateTime).Unix()
		buckets[start] = append(buckets[start], e.Magnitude)
	}

	points := make([]Point, 0, len(buckets))
	for start, mags := range buckets {
		points = append(points, Point{Time: time.Unix(start, 0).UTC(), Value: m.reduce(mags)})
	}
	slices.SortFunc(points, func(a, b Point) int { return a.Time.Compare(b.Time) })
	return points, nil
}

// Package animation turns a resampled time series into cumulative frames
// for the animated time-series chart and encodes them as a GIF.
package animation

import (
	"fmt"
	"time"

	"github.com/aclements/go-moremath/stats"

	"github.com/couchcryptid/quake-dashboard/internal/aggregate"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

// DefaultMaxFrames bounds the number of strided frames.
const DefaultMaxFrames = 20

// TrendMode selects the moving average drawn over each frame.
type TrendMode string

const (
	// TrendRolling is a right-aligned average over max(3, len/10) points.
	// The first points average over the partial window available.
	TrendRolling TrendMode = "rolling"
	// TrendCentered is a centered average over min(5, len) points with the
	// series zero-padded at both ends.
	TrendCentered TrendMode = "centered"
)

// ParseTrendMode accepts rolling or centered. The empty string means rolling.
func ParseTrendMode(s string) (TrendMode, error) {
	switch m := TrendMode(s); m {
	case "":
		return TrendRolling, nil
	case TrendRolling, TrendCentered:
		return m, nil
	default:
		return "", fmt.Errorf("unknown trend mode %q", s)
	}
}

// TimeRange is a closed interval of instants.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Axes are the bounds shared by every frame of one animation.
type Axes struct {
	X TimeRange    `json:"x"`
	Y domain.Range `json:"y"`
}

// Frame is one cumulative prefix of the series.
type Frame struct {
	// Index is the position of the last included point in the series.
	Index      int         `json:"index"`
	Timestamps []time.Time `json:"timestamps"`
	Values     []float64   `json:"values"`
	// Trend has the same length as Values.
	Trend []float64 `json:"trend"`
	Axes  Axes      `json:"axes"`
}

// Indices returns the series positions that get a frame: every step-th
// index from 0 with step = max(1, ceil(n/maxFrames)), plus n-1 when the
// stride skips it. The result holds at most maxFrames+1 indices.
//
// The stride rounds up on purpose. Floor division (n/maxFrames) gives one
// frame per point for any n < 2*maxFrames, so 25 points at maxFrames=20
// would animate 25 frames instead of 13.
func Indices(n, maxFrames int) []int {
	if n <= 0 {
		return nil
	}
	if maxFrames < 1 {
		maxFrames = DefaultMaxFrames
	}
	step := max(1, (n+maxFrames-1)/maxFrames)
	out := make([]int, 0, maxFrames+1)
	for i := 0; i < n; i += step {
		out = append(out, i)
	}
	if out[len(out)-1] != n-1 {
		out = append(out, n-1)
	}
	return out
}

// BuildFrames selects cumulative frames from a time-ordered series. It
// returns domain.ErrInsufficientData for fewer than two points. A
// non-positive maxFrames means DefaultMaxFrames.
func BuildFrames(series []aggregate.Point, maxFrames int, mode TrendMode) ([]Frame, error) {
	if len(series) < 2 {
		return nil, fmt.Errorf("build frames: %w: %d point(s)", domain.ErrInsufficientData, len(series))
	}
	if _, err := ParseTrendMode(string(mode)); err != nil {
		return nil, err
	}

	times := make([]time.Time, len(series))
	values := make([]float64, len(series))
	for i, p := range series {
		times[i] = p.Time
		values[i] = p.Value
	}
	axes := ComputeAxes(times, values)

	indices := Indices(len(series), maxFrames)
	frames := make([]Frame, len(indices))
	for i, idx := range indices {
		n := idx + 1
		frames[i] = Frame{
			Index:      idx,
			Timestamps: times[:n:n],
			Values:     values[:n:n],
			Trend:      Trend(values[:n], mode),
			Axes:       axes,
		}
	}
	return frames, nil
}

// ComputeAxes derives the shared bounds from the full series: x spans the
// first to last timestamp and y spans min(0, min value) to 1.1 times the
// max value. A series with no positive headroom gets a unit y span.
func ComputeAxes(times []time.Time, values []float64) Axes {
	var axes Axes
	if len(times) > 0 {
		axes.X = TimeRange{Start: times[0], End: times[len(times)-1]}
	}
	if len(values) == 0 {
		axes.Y = domain.Range{Min: 0, Max: 1}
		return axes
	}
	lo, hi := stats.Bounds(values)
	ymin := min(0, lo)
	ymax := hi * 1.1
	if ymax <= ymin {
		ymax = ymin + 1
	}
	axes.Y = domain.Range{Min: ymin, Max: ymax}
	return axes
}

// Trend returns the moving average of values for mode. The result has the
// same length as values and does not alias it.
func Trend(values []float64, mode TrendMode) []float64 {
	if mode == TrendCentered {
		return centered(values)
	}
	return rolling(values)
}

func rolling(values []float64) []float64 {
	w := max(3, len(values)/10)
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= w {
			sum -= values[i-w]
		}
		out[i] = sum / float64(min(i+1, w))
	}
	return out
}

func centered(values []float64) []float64 {
	n := len(values)
	out := make([]float64, n)
	if n == 0 {
		return out
	}
	w := min(5, n)
	off := (w - 1) / 2
	for i := range out {
		hi := i + off
		lo := hi - w + 1
		var sum float64
		for _, v := range values[max(lo, 0):min(hi+1, n)] {
			sum += v
		}
		out[i] = sum / float64(w)
	}
	return out
}

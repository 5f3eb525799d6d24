package aggregate

import (
	"fmt"
	"time"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

// MapPoint is one marker on the geographic map. Color follows depth and
// marker size follows magnitude.
type MapPoint struct {
	ID        string    `json:"id"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Magnitude float64   `json:"magnitude"`
	Depth     float64   `json:"depth"`
	Place     string    `json:"place"`
	DateTime  time.Time `json:"datetime"`
}

// MapPoints projects events onto map markers in view order.
func MapPoints(events []domain.Event) []MapPoint {
	out := make([]MapPoint, len(events))
	for i, e := range events {
		out[i] = MapPoint{
			ID:        e.ID,
			Latitude:  e.Latitude,
			Longitude: e.Longitude,
			Magnitude: e.Magnitude,
			Depth:     e.Depth,
			Place:     e.Place,
			DateTime:  e.DateTime,
		}
	}
	return out
}

// ScatterColor selects how magnitude-vs-depth points are grouped.
type ScatterColor string

const (
	ColorNone    ScatterColor = "none"
	ColorMagType ScatterColor = "magType"
	ColorNet     ScatterColor = "net"
)

// ParseScatterColor accepts none, magType or net. The empty string means none.
func ParseScatterColor(s string) (ScatterColor, error) {
	switch c := ScatterColor(s); c {
	case "":
		return ColorNone, nil
	case ColorNone, ColorMagType, ColorNet:
		return c, nil
	default:
		return "", fmt.Errorf("scatter color %q: %w", s, domain.ErrMissingColumn)
	}
}

// ScatterPoint is one magnitude-vs-depth point.
type ScatterPoint struct {
	Magnitude float64 `json:"magnitude"`
	Depth     float64 `json:"depth"`
}

// ScatterGroup is one colored trace of the scatter plot.
type ScatterGroup struct {
	Name   string         `json:"name"`
	Points []ScatterPoint `json:"points"`
}

// ScatterPoints groups events by color. With ColorNone there is a single
// unnamed group. Groups appear in order of first appearance.
func ScatterPoints(events []domain.Event, color ScatterColor) []ScatterGroup {
	groups := []ScatterGroup{}
	index := make(map[string]int)
	for _, e := range events {
		var name string
		switch color {
		case ColorMagType:
			name = e.MagType
		case ColorNet:
			name = e.Net
		}
		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, ScatterGroup{Name: name})
		}
		groups[i].Points = append(groups[i].Points, ScatterPoint{Magnitude: e.Magnitude, Depth: e.Depth})
	}
	return groups
}

// MatrixPoint is one row of the magnitude/depth/felt scatterplot matrix.
type MatrixPoint struct {
	Magnitude float64 `json:"magnitude"`
	Depth     float64 `json:"depth"`
	Felt      int     `json:"felt"`
}

// MatrixPoints keeps only events that carry a felt count.
func MatrixPoints(events []domain.Event) []MatrixPoint {
	out := []MatrixPoint{}
	for _, e := range events {
		if e.Felt == nil {
			continue
		}
		out = append(out, MatrixPoint{Magnitude: e.Magnitude, Depth: e.Depth, Felt: *e.Felt})
	}
	return out
}

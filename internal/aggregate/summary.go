package aggregate

import (
	"cmp"
	"math"
	"slices"

	"github.com/aclements/go-moremath/stats"
	"github.com/aclements/go-moremath/vec"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

// Summary backs the three value boxes above the charts.
type Summary struct {
	Total int `json:"total"`
	// Means are nil for an empty view.
	MeanMagnitude *float64 `json:"mean_magnitude"`
	MeanDepth     *float64 `json:"mean_depth"`
}

// Summarize counts events and averages magnitude and depth.
func Summarize(events []domain.Event) Summary {
	s := Summary{Total: len(events)}
	if len(events) == 0 {
		return s
	}
	mags := make([]float64, len(events))
	depths := make([]float64, len(events))
	for i, e := range events {
		mags[i] = e.Magnitude
		depths[i] = e.Depth
	}
	mm, md := stats.Mean(mags), stats.Mean(depths)
	s.MeanMagnitude, s.MeanDepth = &mm, &md
	return s
}

// PlaceCount is the number of events sharing a place string.
type PlaceCount struct {
	Place string `json:"place"`
	Count int    `json:"count"`
}

// TopPlaces returns the n most frequent places. Ties keep the place that
// appears first in events.
func TopPlaces(events []domain.Event, n int) []PlaceCount {
	index := make(map[string]int)
	var places []PlaceCount
	for _, e := range events {
		i, ok := index[e.Place]
		if !ok {
			i = len(places)
			index[e.Place] = i
			places = append(places, PlaceCount{Place: e.Place})
		}
		places[i].Count++
	}
	slices.SortStableFunc(places, func(a, b PlaceCount) int {
		return cmp.Compare(b.Count, a.Count)
	})
	if n < 0 {
		n = 0
	}
	if len(places) > n {
		places = places[:n]
	}
	if places == nil {
		places = []PlaceCount{}
	}
	return places
}

// DefaultHistogramBins is the magnitude histogram resolution.
const DefaultHistogramBins = 50

// Bin is one histogram bar covering [Low, High). The last bin also
// includes its High edge.
type Bin struct {
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
	Count int     `json:"count"`
}

// MagnitudeHistogram splits the observed magnitude range into bins
// equal-width bins. A view whose magnitudes are all equal yields a single
// bin. An empty view yields no bins.
func MagnitudeHistogram(events []domain.Event, bins int) []Bin {
	if len(events) == 0 || bins <= 0 {
		return []Bin{}
	}
	mags := make([]float64, len(events))
	for i, e := range events {
		mags[i] = e.Magnitude
	}
	lo, hi := stats.Bounds(mags)
	if lo == hi {
		return []Bin{{Low: lo, High: hi, Count: len(mags)}}
	}

	edges := vec.Linspace(lo, hi, bins+1)
	out := make([]Bin, bins)
	for i := range out {
		out[i] = Bin{Low: edges[i], High: edges[i+1]}
	}
	width := (hi - lo) / float64(bins)
	for _, m := range mags {
		i := int(math.Floor((m - lo) / width))
		i = min(max(i, 0), bins-1)
		out[i].Count++
	}
	return out
}

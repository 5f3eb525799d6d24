// Package dataset loads and normalizes the earthquake catalog.
//
// The catalog is read once at startup and never modified afterwards; every
// consumer receives the same backing slice and must treat it as read-only.
package dataset

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/aclements/go-moremath/stats"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

// Derived columns appended to every raw row, in this order.
var derivedColumns = []string{"datetime", "month", "season", "magnitude_category", "depth_category"}

// Dataset is the immutable, normalized event catalog.
type Dataset struct {
	events  []domain.Event
	columns []string
	index   map[string]int
	rows    [][]string // retained source cells, aligned with events
	stats   LoadStats
}

// LoadStats counts what happened to source rows during normalization.
type LoadStats struct {
	Rows        int `json:"rows"`
	MissingCore int `json:"missing_core"`
	BadTime     int `json:"bad_time"`
	Duplicates  int `json:"duplicates"`
	Retained    int `json:"retained"`
}

// Events returns the full catalog in source order. The slice is shared and
// must not be modified.
func (d *Dataset) Events() []domain.Event {
	return d.events
}

// Len returns the number of retained events.
func (d *Dataset) Len() int {
	return len(d.events)
}

// Stats returns the normalization counters from load.
func (d *Dataset) Stats() LoadStats {
	return d.stats
}

// Columns returns the raw-table column names: retained source columns in
// source order followed by the derived columns.
func (d *Dataset) Columns() []string {
	return slices.Clone(d.columns)
}

// MagTypes returns the distinct magnitude types in order of first appearance.
func (d *Dataset) MagTypes() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range d.events {
		if _, ok := seen[e.MagType]; ok {
			continue
		}
		seen[e.MagType] = struct{}{}
		out = append(out, e.MagType)
	}
	return out
}

// MagnitudeBounds returns the observed magnitude range.
func (d *Dataset) MagnitudeBounds() domain.Range {
	return bounds(d.events, func(e domain.Event) float64 { return e.Magnitude })
}

// DepthBounds returns the observed depth range.
func (d *Dataset) DepthBounds() domain.Range {
	return bounds(d.events, func(e domain.Event) float64 { return e.Depth })
}

// DefaultFilter builds the startup filter: the observed magnitude and depth
// ranges and the first magTypeLimit distinct magnitude types.
func (d *Dataset) DefaultFilter(magTypeLimit int) domain.FilterSpec {
	types := d.MagTypes()
	if magTypeLimit >= 0 && len(types) > magTypeLimit {
		types = types[:magTypeLimit]
	}
	if types == nil {
		types = []string{}
	}
	return domain.FilterSpec{
		Magnitude: d.MagnitudeBounds(),
		Depth:     d.DepthBounds(),
		MagTypes:  types,
	}
}

// Rows projects the unfiltered catalog onto the named columns. An empty
// selection returns every column. Unknown names fail with ErrMissingColumn.
func (d *Dataset) Rows(columns []string) ([]map[string]string, error) {
	if len(columns) == 0 {
		columns = d.columns
	}
	idx := make([]int, len(columns))
	for i, c := range columns {
		j, ok := d.index[c]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrMissingColumn, c)
		}
		idx[i] = j
	}

	out := make([]map[string]string, len(d.rows))
	for r, row := range d.rows {
		m := make(map[string]string, len(columns))
		for i, c := range columns {
			m[c] = row[idx[i]]
		}
		out[r] = m
	}
	return out, nil
}

// New builds a Dataset directly from normalized events. It is used by tests
// and tools that do not start from CSV; Row is reassigned from slice order
// and derived fields are recomputed.
func New(events []domain.Event) *Dataset {
	evs := make([]domain.Event, len(events))
	rows := make([][]string, len(events))
	for i, e := range events {
		e = e.Derive()
		e.Row = i
		evs[i] = e
		rows[i] = eventCells(e)
	}
	cols := append(slices.Clone(eventColumns), derivedColumns...)
	return &Dataset{
		events:  evs,
		columns: cols,
		index:   indexColumns(cols),
		rows:    rows,
		stats:   LoadStats{Rows: len(events), Retained: len(events)},
	}
}

// eventColumns are the schema columns reproducible from an Event alone.
var eventColumns = []string{"id", "time", "magnitude", "depth", "latitude", "longitude", "place", "magType", "net", "felt", "alert", "tsunami", "country"}

func eventCells(e domain.Event) []string {
	felt := ""
	if e.Felt != nil {
		felt = strconv.Itoa(*e.Felt)
	}
	cells := []string{
		e.ID,
		strconv.FormatInt(e.Time, 10),
		strconv.FormatFloat(e.Magnitude, 'g', -1, 64),
		strconv.FormatFloat(e.Depth, 'g', -1, 64),
		strconv.FormatFloat(e.Latitude, 'g', -1, 64),
		strconv.FormatFloat(e.Longitude, 'g', -1, 64),
		e.Place,
		e.MagType,
		e.Net,
		felt,
		e.Alert,
		strconv.Itoa(e.Tsunami),
		e.Country,
	}
	return append(cells, derivedCells(e)...)
}

func derivedCells(e domain.Event) []string {
	return []string{
		e.DateTime.Format(time.RFC3339),
		strconv.Itoa(e.Month),
		string(e.Season),
		string(e.MagnitudeCategory),
		string(e.DepthCategory),
	}
}

func indexColumns(cols []string) map[string]int {
	m := make(map[string]int, len(cols))
	for i, c := range cols {
		m[c] = i
	}
	return m
}

func bounds(events []domain.Event, field func(domain.Event) float64) domain.Range {
	if len(events) == 0 {
		return domain.Range{}
	}
	xs := make([]float64, len(events))
	for i, e := range events {
		xs[i] = field(e)
	}
	lo, hi := stats.Bounds(xs)
	return domain.Range{Min: lo, Max: hi}
}

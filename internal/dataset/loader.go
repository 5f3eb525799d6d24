package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

// RequiredColumns must all be present in the source header. Their absence
// fails the load rather than surfacing later inside an aggregate.
var RequiredColumns = []string{
	"id", "time", "magnitude", "depth", "latitude", "longitude",
	"place", "magType", "net", "felt", "alert", "tsunami", "country",
}

// droppedColumns are source metadata columns not carried into the raw table.
var droppedColumns = map[string]bool{
	"type": true, "updated": true, "url": true, "detailUrl": true,
	"status": true, "code": true, "sources": true, "types": true,
	"rms": true, "geometryType": true, "placeOnly": true, "location": true,
	"locality": true, "postcode": true, "what3words": true, "locationDetails": true,
}

// LoadFile opens path and loads it with Load.
func LoadFile(path string, logger *slog.Logger) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Load(f, logger)
}

// Load parses the earthquake CSV, derives datetime, month, season and the
// magnitude/depth categories, drops rows missing a core field (magnitude,
// depth, latitude, longitude) or with an unparsable time, and keeps the first
// occurrence of each event id.
func Load(r io.Reader, logger *slog.Logger) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("read header: empty input")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}

	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, name := range RequiredColumns {
		if _, ok := col[name]; !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrMissingColumn, name)
		}
	}

	var kept []int
	var columns []string
	for i, h := range header {
		h = strings.TrimSpace(h)
		if droppedColumns[h] {
			continue
		}
		kept = append(kept, i)
		columns = append(columns, h)
	}
	columns = append(columns, derivedColumns...)

	ds := &Dataset{columns: columns, index: indexColumns(columns)}
	seen := make(map[string]struct{})

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row %d: %w", line, err)
		}
		ds.stats.Rows++

		get := func(name string) string {
			i := col[name]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}

		event, ok, badTime := parseEvent(get)
		if !ok {
			if badTime {
				ds.stats.BadTime++
			} else {
				ds.stats.MissingCore++
			}
			continue
		}
		if _, dup := seen[event.ID]; dup {
			ds.stats.Duplicates++
			continue
		}
		seen[event.ID] = struct{}{}

		event = event.Derive()
		event.Row = len(ds.events)
		ds.events = append(ds.events, event)

		cells := make([]string, 0, len(columns))
		for _, i := range kept {
			if i < len(rec) {
				cells = append(cells, rec[i])
			} else {
				cells = append(cells, "")
			}
		}
		ds.rows = append(ds.rows, append(cells, derivedCells(event)...))
	}

	ds.stats.Retained = len(ds.events)
	logger.Info("dataset loaded",
		"rows", ds.stats.Rows,
		"retained", ds.stats.Retained,
		"missing_core", ds.stats.MissingCore,
		"bad_time", ds.stats.BadTime,
		"duplicates", ds.stats.Duplicates,
	)
	return ds, nil
}

// parseEvent reads one row. ok is false when a core field is missing or the
// time cannot be parsed; badTime distinguishes the latter.
func parseEvent(get func(string) string) (event domain.Event, ok, badTime bool) {
	mag, ok1 := parseFloat(get("magnitude"))
	depth, ok2 := parseFloat(get("depth"))
	lat, ok3 := parseFloat(get("latitude"))
	lon, ok4 := parseFloat(get("longitude"))
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return domain.Event{}, false, false
	}

	ms, ok := parseEpochMillis(get("time"))
	if !ok {
		return domain.Event{}, false, true
	}

	return domain.Event{
		ID:        get("id"),
		Time:      ms,
		Magnitude: mag,
		Depth:     depth,
		Latitude:  lat,
		Longitude: lon,
		Place:     get("place"),
		MagType:   get("magType"),
		Net:       get("net"),
		Felt:      parseOptionalInt(get("felt")),
		Alert:     normalizeAlert(get("alert")),
		Tsunami:   parseFlag(get("tsunami")),
		Country:   get("country"),
	}, true, false
}

// parseFloat parses s, reporting false for empty, unparsable or non-finite
// values.
func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// parseEpochMillis accepts integer milliseconds and the float rendering some
// exports produce ("1.7250323e+12").
func parseEpochMillis(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, true
	}
	v, ok := parseFloat(s)
	if !ok {
		return 0, false
	}
	return int64(v), true
}

// parseOptionalInt returns nil for empty or unparsable values. Float
// renderings ("12.0") are truncated.
func parseOptionalInt(s string) *int {
	v, ok := parseFloat(s)
	if !ok {
		return nil
	}
	n := int(v)
	return &n
}

func parseFlag(s string) int {
	v, ok := parseFloat(s)
	if ok && v == 1 {
		return 1
	}
	return 0
}

func normalizeAlert(s string) string {
	s = strings.ToLower(s)
	switch s {
	case domain.AlertGreen, domain.AlertYellow, domain.AlertOrange, domain.AlertRed:
		return s
	default:
		return ""
	}
}

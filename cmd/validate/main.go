// Command validate performs data integrity checks on an earthquake CSV
// before it is served. It verifies the load accounting, the derived
// columns, and that every aggregate accounts for each retained event.
//
// Usage:
//
//	go run ./cmd/validate -csv data/earthquakes.csv
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/couchcryptid/quake-dashboard/internal/aggregate"
	"github.com/couchcryptid/quake-dashboard/internal/animation"
	"github.com/couchcryptid/quake-dashboard/internal/dataset"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/couchcryptid/quake-dashboard/internal/filter"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	csvPath := flag.String("csv", "data/earthquakes.csv", "earthquake CSV to validate")
	magTypes := flag.Int("default-mag-types", 5, "number of magnitude types in the default filter")
	flag.Parse()

	os.Exit(run(os.Stdout, *csvPath, *magTypes))
}

func run(out io.Writer, csvPath string, magTypes int) int {
	fmt.Fprintln(out, "=== Earthquake Data Integrity Validation ===")
	fmt.Fprintln(out)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	data, err := dataset.LoadFile(csvPath, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateLoadAccounting(data),
		validateDerivedFields(data.Events()),
		validateAggregates(data.Events()),
		validateDefaultView(data, magTypes),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Fprintf(out, "  %-42s %s\n", p.name, status)
	}

	stats := data.Stats()
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Rows: %d read, %d retained, %d missing core field, %d bad time, %d duplicate\n",
		stats.Rows, stats.Retained, stats.MissingCore, stats.BadTime, stats.Duplicates)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(out, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(out, "  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Fprintln(out, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(out, "\nValidation FAILED.")
	return 1
}

// ── Phase 1: load accounting ──

func validateLoadAccounting(data *dataset.Dataset) *phase {
	p := &phase{name: "Load accounting"}
	s := data.Stats()

	if s.Retained != data.Len() {
		p.errorf("retained counter %d != %d events", s.Retained, data.Len())
	}
	if dropped := s.MissingCore + s.BadTime + s.Duplicates; s.Retained+dropped != s.Rows {
		p.errorf("retained %d + dropped %d != %d rows read", s.Retained, dropped, s.Rows)
	}
	if data.Len() == 0 {
		p.errorf("no events retained")
	}

	seen := make(map[string]int, data.Len())
	for i, e := range data.Events() {
		if prev, dup := seen[e.ID]; dup {
			p.errorf("event %q at rows %d and %d", e.ID, prev, i)
		}
		seen[e.ID] = i
		if e.Row != i {
			p.errorf("event %q: row %d, want %d", e.ID, e.Row, i)
		}
	}
	return p
}

// ── Phase 2: derived fields ──

func validateDerivedFields(events []domain.Event) *phase {
	p := &phase{name: "Derived fields"}
	for _, e := range events {
		for name, v := range map[string]float64{
			"magnitude": e.Magnitude, "depth": e.Depth,
			"latitude": e.Latitude, "longitude": e.Longitude,
		} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				p.errorf("%s: %s is not finite", e.ID, name)
			}
		}

		want := e.Derive()
		if !e.DateTime.Equal(want.DateTime) || e.DateTime.Location() != time.UTC {
			p.errorf("%s: datetime %s, want %s", e.ID, e.DateTime, want.DateTime)
		}
		if e.Month != want.Month {
			p.errorf("%s: month %d, want %d", e.ID, e.Month, want.Month)
		}
		if e.Season != want.Season {
			p.errorf("%s: season %s, want %s", e.ID, e.Season, want.Season)
		}
		if e.MagnitudeCategory != want.MagnitudeCategory {
			p.errorf("%s: magnitude %g classified %s, want %s", e.ID, e.Magnitude, e.MagnitudeCategory, want.MagnitudeCategory)
		}
		if e.DepthCategory != want.DepthCategory {
			p.errorf("%s: depth %g classified %s, want %s", e.ID, e.Depth, e.DepthCategory, want.DepthCategory)
		}
		if e.Felt != nil && *e.Felt < 0 {
			p.errorf("%s: negative felt count %d", e.ID, *e.Felt)
		}
	}
	return p
}

// ── Phase 3: aggregate totals ──

func validateAggregates(events []domain.Event) *phase {
	p := &phase{name: "Aggregate totals"}
	n := len(events)

	if d := aggregate.MagnitudeDepthDensity(events); d.Total != n {
		p.errorf("density total %d != %d events", d.Total, n)
	}

	ms := aggregate.MonthlyCounts(events)
	months, seasons := 0, 0
	for _, m := range ms.Months {
		months += m.Count
	}
	for _, s := range ms.Seasons {
		seasons += s.Count
	}
	if months != n || seasons != n {
		p.errorf("monthly sum %d, seasonal sum %d, want %d", months, seasons, n)
	}

	binned := 0
	for _, b := range aggregate.MagnitudeHistogram(events, aggregate.DefaultHistogramBins) {
		binned += b.Count
	}
	if binned != n {
		p.errorf("histogram holds %d events, want %d", binned, n)
	}

	for _, g := range []aggregate.Granularity{aggregate.Daily, aggregate.Weekly, aggregate.Monthly} {
		series, err := aggregate.Resample(events, g, aggregate.Count)
		if err != nil {
			p.errorf("resample %s: %v", g, err)
			continue
		}
		total := 0.0
		for i, pt := range series {
			total += pt.Value
			if i > 0 && !pt.Time.After(series[i-1].Time) {
				p.errorf("%s buckets out of order at %s", g, pt.Time.Format(time.DateOnly))
			}
		}
		if int(total) != n {
			p.errorf("%s counts sum to %g, want %d", g, total, n)
		}
	}
	return p
}

// ── Phase 4: default view ──

func validateDefaultView(data *dataset.Dataset, magTypes int) *phase {
	p := &phase{name: "Default view"}
	spec := data.DefaultFilter(magTypes)

	view, err := filter.Apply(data.Events(), spec)
	if err != nil {
		p.errorf("default filter rejected: %v", err)
		return p
	}
	if len(view) == 0 {
		p.errorf("default filter %v matches no events", spec.MagTypes)
		return p
	}

	if _, err := aggregate.Correlation(view, aggregate.CorrelationColumns); err != nil {
		p.errorf("correlation: %v", err)
	}

	series, err := aggregate.Resample(view, aggregate.Weekly, aggregate.MeanMagnitude)
	if err != nil {
		p.errorf("weekly resample: %v", err)
		return p
	}
	frames, err := animation.BuildFrames(series, animation.DefaultMaxFrames, animation.TrendRolling)
	switch {
	case errors.Is(err, domain.ErrInsufficientData):
		p.errorf("weekly series has %d points, animation needs at least 2", len(series))
	case err != nil:
		p.errorf("build frames: %v", err)
	case len(frames[len(frames)-1].Values) != len(series):
		p.errorf("last frame shows %d of %d points", len(frames[len(frames)-1].Values), len(series))
	}
	return p
}

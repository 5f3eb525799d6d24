// Command quakegif renders the time-series animation offline. It loads the
// earthquake CSV, applies a filter, resamples and writes the animated GIF,
// optionally with the frame data as JSON alongside.
//
// Usage:
//
//	go run ./cmd/quakegif \
//	  -csv data/earthquakes.csv \
//	  -out earthquake_timeseries.gif \
//	  -granularity Weekly -metric mean \
//	  -frames-json earthquake_timeseries.json
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/couchcryptid/quake-dashboard/internal/aggregate"
	"github.com/couchcryptid/quake-dashboard/internal/animation"
	"github.com/couchcryptid/quake-dashboard/internal/dataset"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/couchcryptid/quake-dashboard/internal/filter"
)

type options struct {
	csvPath     string
	out         string
	framesJSON  string
	granularity string
	metric      string
	trend       string
	maxFrames   int
	magTypes    string
	defaultMags int
	// minMag and maxMag are nil unless set on the command line.
	minMag *float64
	maxMag *float64
	width  int
	height int
	delay  time.Duration
}

func main() {
	o, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}
	if err := run(o); err != nil {
		log.Fatal(err)
	}
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("quakegif", flag.ContinueOnError)
	fs.StringVar(&o.csvPath, "csv", "data/earthquakes.csv", "earthquake CSV to load")
	fs.StringVar(&o.out, "out", "earthquake_timeseries.gif", "output GIF path")
	fs.StringVar(&o.framesJSON, "frames-json", "", "optional output path for the frame data as JSON")
	fs.StringVar(&o.granularity, "granularity", string(aggregate.Weekly), "bucket size: Daily, Weekly or Monthly")
	fs.StringVar(&o.metric, "metric", string(aggregate.MeanMagnitude), "reducer: mean, max or count")
	fs.StringVar(&o.trend, "trend", string(animation.TrendRolling), "trend line: rolling or centered")
	fs.IntVar(&o.maxFrames, "max-frames", animation.DefaultMaxFrames, "maximum number of frames")
	fs.StringVar(&o.magTypes, "mag-types", "", "comma-separated magnitude types (default: first -default-mag-types in source order)")
	fs.IntVar(&o.defaultMags, "default-mag-types", 5, "number of magnitude types accepted when -mag-types is empty")
	fs.Func("min-mag", "minimum magnitude (default: dataset minimum)", floatFlag(&o.minMag))
	fs.Func("max-mag", "maximum magnitude (default: dataset maximum)", floatFlag(&o.maxMag))
	fs.IntVar(&o.width, "width", 0, "GIF width in pixels")
	fs.IntVar(&o.height, "height", 0, "GIF height in pixels")
	fs.DurationVar(&o.delay, "delay", animation.DefaultFrameDelay, "delay between frames")
	err := fs.Parse(args)
	return o, err
}

func floatFlag(dst **float64) func(string) error {
	return func(s string) error {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*dst = &v
		return nil
	}
}

func run(o options) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	g, err := aggregate.ParseGranularity(o.granularity)
	if err != nil {
		return err
	}
	m, err := aggregate.ParseMetric(o.metric)
	if err != nil {
		return err
	}
	trend, err := animation.ParseTrendMode(o.trend)
	if err != nil {
		return err
	}

	data, err := dataset.LoadFile(o.csvPath, logger)
	if err != nil {
		return err
	}
	spec := buildFilter(data, o)

	view, err := filter.Apply(data.Events(), spec)
	if err != nil {
		return err
	}
	series, err := aggregate.Resample(view, g, m)
	if err != nil {
		return err
	}
	frames, err := animation.BuildFrames(series, o.maxFrames, trend)
	if err != nil {
		return fmt.Errorf("%d events in %d %s buckets: %w", len(view), len(series), g, err)
	}
	log.Printf("%d of %d events, %d %s buckets, %d frames", len(view), data.Len(), len(series), g, len(frames))

	if err := writeFile(o.out, func(w io.Writer) error {
		return animation.EncodeGIF(w, frames, len(series), animation.RenderOptions{
			Width:  o.width,
			Height: o.height,
			Delay:  o.delay,
			YLabel: m.Label(),
		})
	}); err != nil {
		return fmt.Errorf("writing gif: %w", err)
	}
	log.Printf("wrote %s", o.out)

	if o.framesJSON == "" {
		return nil
	}
	if err := writeFile(o.framesJSON, func(w io.Writer) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(frames)
	}); err != nil {
		return fmt.Errorf("writing frames: %w", err)
	}
	log.Printf("wrote %s", o.framesJSON)
	return nil
}

// buildFilter starts from the dataset default and applies any overrides.
func buildFilter(data *dataset.Dataset, o options) domain.FilterSpec {
	spec := data.DefaultFilter(o.defaultMags)
	if o.minMag != nil {
		spec.Magnitude.Min = *o.minMag
	}
	if o.maxMag != nil {
		spec.Magnitude.Max = *o.maxMag
	}
	if o.magTypes != "" {
		spec.MagTypes = nil
		for t := range strings.SplitSeq(o.magTypes, ",") {
			if t = strings.TrimSpace(t); t != "" {
				spec.MagTypes = append(spec.MagTypes, t)
			}
		}
	}
	return spec
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

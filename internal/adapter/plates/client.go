// Package plates fetches tectonic plate boundaries for the map overlay.
package plates

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/couchcryptid/quake-dashboard/internal/observability"
)

// Client implements domain.PlateSource by downloading a GeoJSON
// FeatureCollection of boundary lines.
type Client struct {
	url        string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]domain.PlateBoundary]
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// NewClient creates a plate boundary client for the GeoJSON document at url.
func NewClient(url string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	c := &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		metrics:    metrics,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]domain.PlateBoundary](gobreaker.Settings{
		Name:        "plate-boundaries",
		MaxRequests: 1,
		Timeout:     time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return c
}

// PlateBoundaries downloads and decodes the boundary document. While the
// breaker is open it fails fast without touching the network.
func (c *Client) PlateBoundaries(ctx context.Context) ([]domain.PlateBoundary, error) {
	boundaries, err := c.breaker.Execute(func() ([]domain.PlateBoundary, error) {
		return c.fetch(ctx)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		c.metrics.PlatesRequests.WithLabelValues("rejected").Inc()
		return nil, fmt.Errorf("plate boundaries: %w", err)
	case err != nil:
		c.metrics.PlatesRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	c.metrics.PlatesRequests.WithLabelValues("success").Inc()
	return boundaries, nil
}

func (c *Client) fetch(ctx context.Context) ([]domain.PlateBoundary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.PlatesAPIDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("plate boundaries request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("plate boundaries: status %d: %s", resp.StatusCode, body)
	}

	var doc featureCollection
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode plate boundaries: %w", err)
	}
	return doc.boundaries(), nil
}

// GeoJSON document types. Only line geometries are kept.

type featureCollection struct {
	Features []feature `json:"features"`
}

type feature struct {
	Properties struct {
		Name string `json:"Name"`
	} `json:"properties"`
	Geometry geometry `json:"geometry"`
}

type geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

func (fc featureCollection) boundaries() []domain.PlateBoundary {
	out := make([]domain.PlateBoundary, 0, len(fc.Features))
	for _, f := range fc.Features {
		var lines [][][]float64
		switch f.Geometry.Type {
		case "LineString":
			var line [][]float64
			if err := json.Unmarshal(f.Geometry.Coordinates, &line); err != nil {
				continue
			}
			lines = [][][]float64{line}
		case "MultiLineString":
			if err := json.Unmarshal(f.Geometry.Coordinates, &lines); err != nil {
				continue
			}
		default:
			continue
		}

		b := domain.PlateBoundary{Name: f.Properties.Name}
		for _, line := range lines {
			coords := make([]domain.Coordinate, 0, len(line))
			for _, pos := range line {
				if len(pos) < 2 {
					continue
				}
				coords = append(coords, domain.Coordinate{Lon: pos[0], Lat: pos[1]})
			}
			if len(coords) >= 2 {
				b.Lines = append(b.Lines, coords)
			}
		}
		if len(b.Lines) > 0 {
			out = append(out, b)
		}
	}
	return out
}

package plates

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/couchcryptid/quake-dashboard/internal/observability"
)

const (
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

const boundaryDoc = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {"Name": "AF-AN"},
     "geometry": {"type": "LineString", "coordinates": [[-0.43, -54.85], [-0.03, -54.67], [0.31, -54.52]]}},
    {"type": "Feature", "properties": {"Name": "PA-NA"},
     "geometry": {"type": "MultiLineString", "coordinates": [[[-120.0, 35.0], [-121.0, 36.0]], [[-122.0, 37.0], [-123.0, 38.0]]]}},
    {"type": "Feature", "properties": {"Name": "hotspot"},
     "geometry": {"type": "Point", "coordinates": [-155.3, 19.4]}},
    {"type": "Feature", "properties": {"Name": "stub"},
     "geometry": {"type": "LineString", "coordinates": [[10.0, 10.0]]}}
  ]
}`

func testClient(url string, metrics *observability.Metrics) *Client {
	return NewClient(url, 5*time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)), metrics)
}

func TestClient_PlateBoundaries_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = io.WriteString(w, boundaryDoc)
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	got, err := testClient(srv.URL, metrics).PlateBoundaries(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.PlateBoundary{
		{Name: "AF-AN", Lines: [][]domain.Coordinate{{{Lon: -0.43, Lat: -54.85}, {Lon: -0.03, Lat: -54.67}, {Lon: 0.31, Lat: -54.52}}}},
		{Name: "PA-NA", Lines: [][]domain.Coordinate{
			{{Lon: -120, Lat: 35}, {Lon: -121, Lat: 36}},
			{{Lon: -122, Lat: 37}, {Lon: -123, Lat: 38}},
		}},
	}, got)
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.PlatesRequests.WithLabelValues("success")), 0)
}

func TestClient_PlateBoundaries_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	_, err := testClient(srv.URL, metrics).PlateBoundaries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.PlatesRequests.WithLabelValues("error")), 0)
}

func TestClient_PlateBoundaries_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"features": [`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, observability.NewMetricsForTesting()).PlateBoundaries(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestClient_BreakerOpensAfterRepeatedFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	metrics := observability.NewMetricsForTesting()
	c := testClient(srv.URL, metrics)
	for range 5 {
		_, err := c.PlateBoundaries(context.Background())
		require.Error(t, err)
	}

	assert.Equal(t, int32(3), hits.Load(), "open breaker must not reach the server")
	assert.InDelta(t, 2.0, testutil.ToFloat64(metrics.PlatesRequests.WithLabelValues("rejected")), 0)
}

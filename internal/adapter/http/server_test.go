package http_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/quake-dashboard/internal/adapter/http"
	"github.com/couchcryptid/quake-dashboard/internal/dashboard"
	"github.com/couchcryptid/quake-dashboard/internal/dataset"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/couchcryptid/quake-dashboard/internal/observability"
)

type stubPlates struct {
	boundaries []domain.PlateBoundary
	err        error
}

func (s *stubPlates) PlateBoundaries(_ context.Context) ([]domain.PlateBoundary, error) {
	return s.boundaries, s.err
}

func newTestServer(t *testing.T, data *dataset.Dataset, plates domain.PlateSource) *httpadapter.Server {
	t.Helper()
	if data == nil {
		var err error
		data, err = dataset.LoadFile("../../dataset/testdata/earthquakes.csv", slog.Default())
		require.NoError(t, err)
	}
	d := dashboard.New(data, dashboard.Settings{DefaultMagTypes: 5, SessionTTL: time.Hour}, nil, slog.Default(), observability.NewMetricsForTesting())
	return httpadapter.NewServer(":0", d, plates, slog.Default())
}

func do(t *testing.T, srv http.Handler, method, target, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == httpadapter.SessionCookie {
			return c
		}
	}
	t.Fatal("no session cookie issued")
	return nil
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

type snapshotBody struct {
	Filter  domain.FilterSpec `json:"filter"`
	Summary struct {
		Total int `json:"total"`
	} `json:"summary"`
	Scatter []struct {
		Name string `json:"name"`
	} `json:"scatter"`
	Correlation *struct {
		Columns []string `json:"columns"`
	} `json:"correlation"`
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReflectsDataset(t *testing.T) {
	ready := do(t, newTestServer(t, nil, nil), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, ready.Code)

	empty := do(t, newTestServer(t, dataset.New(nil), nil), http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, empty.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(t, newTestServer(t, nil, nil), http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestGetFilter_IssuesSessionWithDefaults(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/api/filter", "")
	require.Equal(t, http.StatusOK, rec.Code)
	cookie := sessionCookie(t, rec)
	assert.True(t, cookie.HttpOnly)

	body := decode[struct {
		Filter   domain.FilterSpec `json:"filter"`
		Defaults domain.FilterSpec `json:"defaults"`
		MagTypes []string          `json:"available_mag_types"`
	}](t, rec)
	assert.Equal(t, body.Defaults, body.Filter)
	assert.Equal(t, []string{"mb", "mww", "ml", "md", "mb_lg"}, body.Filter.MagTypes)
	assert.Equal(t, []string{"mb", "mww", "ml", "md", "mb_lg", "mwr"}, body.MagTypes)

	again := do(t, srv, http.MethodGet, "/api/filter", "", cookie)
	assert.Empty(t, again.Result().Cookies(), "a live session is not reissued")
}

func TestGetFilter_InfiniteSourceValuesNeverReachResponse(t *testing.T) {
	csv := "id,time,magnitude,depth,latitude,longitude,place,magType,net,felt,alert,tsunami,country\n" +
		"a,1705276800000,5.0,10,35.1,139.2,Honshu,mb,us,,,0,Japan\n" +
		"b,1705363200000,Inf,10,35.1,139.2,Honshu,mb,us,,,0,Japan\n" +
		"c,1705449600000,5.8,-Inf,35.1,139.2,Honshu,mb,us,,,0,Japan\n"
	data, err := dataset.Load(strings.NewReader(csv), slog.Default())
	require.NoError(t, err)
	srv := newTestServer(t, data, nil)

	rec := do(t, srv, http.MethodGet, "/api/filter", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Defaults domain.FilterSpec `json:"defaults"`
	}](t, rec)
	assert.Equal(t, domain.Range{Min: 5, Max: 5}, body.Defaults.Magnitude)

	rec = do(t, srv, http.MethodGet, "/api/dashboard", "", sessionCookie(t, rec))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestPutFilter_ReplacesSessionFilter(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	cookie := sessionCookie(t, do(t, srv, http.MethodGet, "/api/filter", ""))

	body := `{"magnitude":{"min":5,"max":8},"depth":{"min":0,"max":500},"mag_types":["mww","ml"]}`
	rec := do(t, srv, http.MethodPut, "/api/filter?color=magType", body, cookie)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	snap := decode[snapshotBody](t, rec)
	assert.Equal(t, 3, snap.Summary.Total)
	require.Len(t, snap.Scatter, 2)
	assert.Equal(t, "mww", snap.Scatter[0].Name)

	dash := decode[snapshotBody](t, do(t, srv, http.MethodGet, "/api/dashboard", "", cookie))
	assert.Equal(t, 3, dash.Summary.Total)
	assert.Equal(t, []string{"mww", "ml"}, dash.Filter.MagTypes)
}

func TestPutFilter_EmptyMagTypesIsEmptyView(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	body := `{"magnitude":{"min":0,"max":10},"depth":{"min":0,"max":700},"mag_types":[]}`
	rec := do(t, srv, http.MethodPut, "/api/filter", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	snap := decode[snapshotBody](t, rec)
	assert.Zero(t, snap.Summary.Total)
	assert.Nil(t, snap.Correlation)
}

func TestPutFilter_Rejections(t *testing.T) {
	tests := []struct {
		name, body, code string
	}{
		{"min above max", `{"magnitude":{"min":6,"max":5},"depth":{"min":0,"max":700},"mag_types":["mb"]}`, "invalid_filter"},
		{"missing depth", `{"magnitude":{"min":1,"max":5},"mag_types":["mb"]}`, "invalid_request"},
		{"missing bound", `{"magnitude":{"min":1},"depth":{"min":0,"max":700},"mag_types":["mb"]}`, "invalid_request"},
		{"missing mag types", `{"magnitude":{"min":1,"max":5},"depth":{"min":0,"max":700}}`, "invalid_request"},
		{"unknown field", `{"magnitude":{"min":1,"max":5},"depth":{"min":0,"max":700},"mag_types":[],"sig":1}`, "invalid_request"},
		{"not json", `magnitude=1`, "invalid_request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, nil, nil)
			rec := do(t, srv, http.MethodPut, "/api/filter", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.code, decode[errorBody](t, rec).Error)
		})
	}
}

func TestResetFilter(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	cookie := sessionCookie(t, do(t, srv, http.MethodGet, "/api/filter", ""))
	do(t, srv, http.MethodPut, "/api/filter", `{"magnitude":{"min":7,"max":8},"depth":{"min":0,"max":700},"mag_types":["mww"]}`, cookie)

	rec := do(t, srv, http.MethodPost, "/api/filter/reset", "", cookie)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 7, decode[snapshotBody](t, rec).Summary.Total)
}

func TestDashboard_UnknownColor(t *testing.T) {
	rec := do(t, newTestServer(t, nil, nil), http.MethodGet, "/api/dashboard?color=country", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decode[errorBody](t, rec).Error)
}

func TestTimeSeries(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/api/timeseries?aggregation=Monthly&metric=count&max_frames=3", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode[struct {
		Points int `json:"points"`
		Frames []struct {
			Values []float64 `json:"values"`
		} `json:"frames"`
	}](t, rec)
	assert.Equal(t, 6, body.Points)
	assert.Len(t, body.Frames, 4, "stride 2 plus the forced final frame")
	assert.Len(t, body.Frames[len(body.Frames)-1].Values, 6)
}

func TestTimeSeries_BadQuery(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	for _, q := range []string{"aggregation=Hourly", "metric=median", "max_frames=abc", "max_frames=1000"} {
		rec := do(t, srv, http.MethodGet, "/api/timeseries?"+q, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, q)
	}
}

func TestTimeSeries_InsufficientData(t *testing.T) {
	srv := newTestServer(t, nil, nil)
	cookie := sessionCookie(t, do(t, srv, http.MethodGet, "/api/filter", ""))
	do(t, srv, http.MethodPut, "/api/filter", `{"magnitude":{"min":0,"max":10},"depth":{"min":0,"max":700},"mag_types":["md"]}`, cookie)

	for _, path := range []string{"/api/timeseries", "/api/timeseries.gif"} {
		rec := do(t, srv, http.MethodGet, path, "", cookie)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, path)
		assert.Equal(t, "insufficient_data", decode[errorBody](t, rec).Error, path)
	}
}

func TestTimeSeriesGIF(t *testing.T) {
	rec := do(t, newTestServer(t, nil, nil), http.MethodGet, "/api/timeseries.gif?aggregation=Monthly&metric=max", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/gif", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "GIF89a"))
}

func TestOutliers(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/api/outliers?key=felt&k=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Events []domain.Event `json:"events"`
	}](t, rec)
	require.Len(t, body.Events, 1)
	assert.Equal(t, "us3", body.Events[0].ID)

	bad := do(t, srv, http.MethodGet, "/api/outliers?key=sig", "")
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestEvents_ColumnProjection(t *testing.T) {
	srv := newTestServer(t, nil, nil)

	rec := do(t, srv, http.MethodGet, "/api/events?columns=id,season", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Columns []string            `json:"columns"`
		Rows    []map[string]string `json:"rows"`
	}](t, rec)
	assert.Equal(t, []string{"id", "season"}, body.Columns)
	require.Len(t, body.Rows, 8)
	assert.Equal(t, map[string]string{"id": "us1", "season": "Winter"}, body.Rows[0])

	unknown := do(t, srv, http.MethodGet, "/api/events?columns=id,url", "")
	assert.Equal(t, http.StatusBadRequest, unknown.Code)
	assert.Equal(t, "unknown_column", decode[errorBody](t, unknown).Error)
}

func TestPlates(t *testing.T) {
	boundary := domain.PlateBoundary{Name: "PA-NA", Lines: [][]domain.Coordinate{{{Lon: -120, Lat: 35}, {Lon: -121, Lat: 36}}}}

	rec := do(t, newTestServer(t, nil, &stubPlates{boundaries: []domain.PlateBoundary{boundary}}), http.MethodGet, "/api/plates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Boundaries []domain.PlateBoundary `json:"boundaries"`
	}](t, rec)
	assert.Equal(t, []domain.PlateBoundary{boundary}, body.Boundaries)

	for name, src := range map[string]domain.PlateSource{
		"disabled": nil,
		"failing":  &stubPlates{err: errors.New("upstream down")},
	} {
		rec := do(t, newTestServer(t, nil, src), http.MethodGet, "/api/plates", "")
		assert.Equal(t, http.StatusOK, rec.Code, name)
		assert.JSONEq(t, `{"boundaries":[]}`, rec.Body.String(), name)
	}
}

package http

import (
	"bytes"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/couchcryptid/quake-dashboard/internal/aggregate"
	"github.com/couchcryptid/quake-dashboard/internal/dashboard"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

// SessionCookie names the cookie carrying the dashboard session id.
const SessionCookie = "quake_session"

const maxBodyBytes = 64 << 10

// session returns the caller's session id, issuing a cookie when the
// request carried none or an expired one.
func (s *Server) session(w http.ResponseWriter, r *http.Request) string {
	var current string
	if c, err := r.Cookie(SessionCookie); err == nil {
		current = c.Value
	}
	id := s.dash.Resolve(current)
	if id != current {
		http.SetCookie(w, &http.Cookie{
			Name:     SessionCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return id
}

// options parses the presentation query parameters shared by snapshot
// responses.
func options(r *http.Request) (dashboard.Options, error) {
	req := dashboardRequest{Color: queryOr(r, "color", string(aggregate.ColorNone))}
	if err := validateStruct(&req); err != nil {
		return dashboard.Options{}, err
	}
	opts := dashboard.DefaultOptions()
	opts.ScatterColor = aggregate.ScatterColor(req.Color)
	return opts, nil
}

type filterResponse struct {
	Filter          domain.FilterSpec `json:"filter"`
	Defaults        domain.FilterSpec `json:"defaults"`
	MagTypes        []string          `json:"available_mag_types"`
	MagnitudeBounds domain.Range      `json:"magnitude_bounds"`
	DepthBounds     domain.Range      `json:"depth_bounds"`
}

func (s *Server) handleGetFilter(w http.ResponseWriter, r *http.Request) {
	id := s.session(w, r)
	data := s.dash.Dataset()
	writeJSON(w, http.StatusOK, filterResponse{
		Filter:          s.dash.Filter(id),
		Defaults:        s.dash.Sessions().Defaults(),
		MagTypes:        data.MagTypes(),
		MagnitudeBounds: data.MagnitudeBounds(),
		DepthBounds:     data.DepthBounds(),
	})
}

func (s *Server) handlePutFilter(w http.ResponseWriter, r *http.Request) {
	id := s.session(w, r)
	opts, err := options(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	var req filterRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidRequest, "malformed filter body: "+err.Error())
		return
	}
	if err := validateStruct(&req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	snap, err := s.dash.UpdateFilter(r.Context(), id, req.toDomain(), opts)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleResetFilter(w http.ResponseWriter, r *http.Request) {
	id := s.session(w, r)
	opts, err := options(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	snap, err := s.dash.ResetFilter(r.Context(), id, opts)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id := s.session(w, r)
	opts, err := options(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	snap, err := s.dash.Recompute(s.dash.Filter(id), opts)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func seriesQuery(r *http.Request) (dashboard.SeriesQuery, error) {
	req := seriesRequest{
		Aggregation: queryOr(r, "aggregation", string(aggregate.Weekly)),
		Metric:      queryOr(r, "metric", string(aggregate.MeanMagnitude)),
		MaxFrames:   queryInt(r, "max_frames", 0),
	}
	if err := validateStruct(&req); err != nil {
		return dashboard.SeriesQuery{}, err
	}
	return dashboard.SeriesQuery{
		Granularity: aggregate.Granularity(req.Aggregation),
		Metric:      aggregate.Metric(req.Metric),
		MaxFrames:   req.MaxFrames,
	}, nil
}

func (s *Server) handleTimeSeries(w http.ResponseWriter, r *http.Request) {
	id := s.session(w, r)
	q, err := seriesQuery(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	anim, err := s.dash.TimeSeries(s.dash.Filter(id), q)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, anim)
}

func (s *Server) handleTimeSeriesGIF(w http.ResponseWriter, r *http.Request) {
	id := s.session(w, r)
	q, err := seriesQuery(r)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := s.dash.TimeSeriesGIF(&buf, s.dash.Filter(id), q); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/gif")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes()) //nolint:errcheck // client went away
}

type outliersResponse struct {
	Key    aggregate.OutlierKey `json:"key"`
	Events []domain.Event       `json:"events"`
}

func (s *Server) handleOutliers(w http.ResponseWriter, r *http.Request) {
	req := outliersRequest{
		Key: queryOr(r, "key", string(aggregate.ByMagnitude)),
		K:   queryInt(r, "k", 3),
	}
	if err := validateStruct(&req); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	key := aggregate.OutlierKey(req.Key)
	events, err := s.dash.TopOutliers(key, req.K)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, outliersResponse{Key: key, Events: events})
}

type eventsResponse struct {
	Columns []string            `json:"columns"`
	Rows    []map[string]string `json:"rows"`
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	columns := queryList(r, "columns")
	rows, err := s.dash.Dataset().Rows(columns)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if len(columns) == 0 {
		columns = s.dash.Dataset().Columns()
	}
	writeJSON(w, http.StatusOK, eventsResponse{Columns: columns, Rows: rows})
}

type platesResponse struct {
	Boundaries []domain.PlateBoundary `json:"boundaries"`
}

func (s *Server) handlePlates(w http.ResponseWriter, r *http.Request) {
	resp := platesResponse{Boundaries: []domain.PlateBoundary{}}
	if s.plates != nil {
		boundaries, err := s.plates.PlateBoundaries(r.Context())
		switch {
		case err != nil:
			s.logger.Warn("plate boundaries unavailable", "error", err)
		case boundaries != nil:
			resp.Boundaries = boundaries
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

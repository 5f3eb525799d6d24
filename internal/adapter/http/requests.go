package http

import (
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validateStruct(v any) error {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate.Struct(v)
}

type rangeRequest struct {
	Min *float64 `json:"min" validate:"required"`
	Max *float64 `json:"max" validate:"required"`
}

func (r *rangeRequest) toDomain() domain.Range {
	return domain.Range{Min: *r.Min, Max: *r.Max}
}

// filterRequest is the PUT /api/filter body. An empty mag_types list is
// valid and selects nothing.
type filterRequest struct {
	Magnitude *rangeRequest `json:"magnitude" validate:"required"`
	Depth     *rangeRequest `json:"depth" validate:"required"`
	MagTypes  []string      `json:"mag_types" validate:"required,max=64,dive,required,max=32"`
}

func (r *filterRequest) toDomain() domain.FilterSpec {
	return domain.FilterSpec{
		Magnitude: r.Magnitude.toDomain(),
		Depth:     r.Depth.toDomain(),
		MagTypes:  r.MagTypes,
	}
}

type seriesRequest struct {
	Aggregation string `validate:"oneof=Daily Weekly Monthly"`
	Metric      string `validate:"oneof=mean max count"`
	MaxFrames   int    `validate:"gte=0,lte=200"`
}

type outliersRequest struct {
	Key string `validate:"oneof=magnitude depth felt"`
	K   int    `validate:"gte=1,lte=100"`
}

type dashboardRequest struct {
	Color string `validate:"oneof=none magType net"`
}

func queryOr(r *http.Request, key, def string) string {
	if v := r.URL.Query().Get(key); v != "" {
		return v
	}
	return def
}

// queryInt returns def when the parameter is absent and -1 when it is not
// an integer, so range validation rejects it.
func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}

func queryList(r *http.Request, key string) []string {
	var out []string
	for _, part := range strings.Split(r.URL.Query().Get(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

package aggregate

import (
	"fmt"
	"math"

	"github.com/aclements/go-moremath/stats"
	"github.com/goccy/go-json"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

// CorrelationColumns are the numeric event columns eligible for correlation,
// in matrix order.
var CorrelationColumns = []string{"magnitude", "depth", "latitude", "longitude"}

var numericColumns = map[string]func(domain.Event) float64{
	"magnitude": func(e domain.Event) float64 { return e.Magnitude },
	"depth":     func(e domain.Event) float64 { return e.Depth },
	"latitude":  func(e domain.Event) float64 { return e.Latitude },
	"longitude": func(e domain.Event) float64 { return e.Longitude },
}

// Coefficient is a Pearson coefficient that is NaN when either column has
// zero variance. It encodes NaN as JSON null.
type Coefficient float64

// Defined reports whether the coefficient is a number.
func (c Coefficient) Defined() bool {
	return !math.IsNaN(float64(c))
}

func (c Coefficient) MarshalJSON() ([]byte, error) {
	if !c.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(c))
}

// CorrelationMatrix is a symmetric matrix of pairwise Pearson coefficients.
type CorrelationMatrix struct {
	Columns []string        `json:"columns"`
	Values  [][]Coefficient `json:"values"`
}

// At returns the coefficient for a column pair, or false if either column
// is not part of the matrix.
func (m CorrelationMatrix) At(a, b string) (Coefficient, bool) {
	i, j := -1, -1
	for k, c := range m.Columns {
		if c == a {
			i = k
		}
		if c == b {
			j = k
		}
	}
	if i < 0 || j < 0 {
		return Coefficient(math.NaN()), false
	}
	return m.Values[i][j], true
}

// Correlation computes pairwise Pearson correlation over columns. A nil
// columns slice means all of CorrelationColumns. It returns
// domain.ErrMissingColumn for a column that is not numeric, and
// domain.ErrInsufficientData when fewer than two columns or two events
// are available.
func Correlation(events []domain.Event, columns []string) (CorrelationMatrix, error) {
	if columns == nil {
		columns = CorrelationColumns
	}
	series := make([][]float64, len(columns))
	for i, c := range columns {
		get, ok := numericColumns[c]
		if !ok {
			return CorrelationMatrix{}, fmt.Errorf("correlation: %w: %q", domain.ErrMissingColumn, c)
		}
		s := make([]float64, len(events))
		for j, e := range events {
			s[j] = get(e)
		}
		series[i] = s
	}
	if len(columns) < 2 {
		return CorrelationMatrix{}, fmt.Errorf("correlation: %w: %d numeric column(s)", domain.ErrInsufficientData, len(columns))
	}
	if len(events) < 2 {
		return CorrelationMatrix{}, fmt.Errorf("correlation: %w: %d event(s)", domain.ErrInsufficientData, len(events))
	}

	values := make([][]Coefficient, len(columns))
	for i := range values {
		values[i] = make([]Coefficient, len(columns))
	}
	for i := range columns {
		for j := i; j < len(columns); j++ {
			r := Coefficient(pearson(series[i], series[j]))
			if i == j && r.Defined() {
				r = 1
			}
			values[i][j] = r
			values[j][i] = r
		}
	}
	return CorrelationMatrix{Columns: append([]string(nil), columns...), Values: values}, nil
}

// pearson returns NaN when either input has zero variance.
func pearson(x, y []float64) float64 {
	mx, my := stats.Mean(x), stats.Mean(y)

	var sxy, sxx, syy float64
	for i := range x {
		dx, dy := x[i]-mx, y[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return math.NaN()
	}
	r := sxy / math.Sqrt(sxx*syy)
	return math.Max(-1, math.Min(1, r))
}

package aggregate_test

import (
	"time"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

func intPtr(v int) *int { return &v }

// quake builds a derived event at an RFC 3339 instant.
func quake(row int, at string, mag, depth float64) domain.Event {
	ts, err := time.Parse(time.RFC3339, at)
	if err != nil {
		panic(err)
	}
	e := domain.Event{
		ID:        "ev" + string(rune('a'+row)),
		Time:      ts.UnixMilli(),
		Magnitude: mag,
		Depth:     depth,
		MagType:   "mb",
		Net:       "us",
		Row:       row,
	}
	return e.Derive()
}

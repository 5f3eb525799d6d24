// Package filter derives the filtered view of the catalog from a FilterSpec.
package filter

import (
	"fmt"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

// Apply returns the events that satisfy spec, in source order. The input is
// never modified and the result shares no backing array with it. An invalid
// spec fails with domain.ErrInvalidFilter; an empty result is not an error.
func Apply(events []domain.Event, spec domain.FilterSpec) ([]domain.Event, error) {
	m, err := spec.Compile()
	if err != nil {
		return nil, fmt.Errorf("apply filter: %w", err)
	}
	out := make([]domain.Event, 0, len(events)/2)
	for _, e := range events {
		if m.Match(e) {
			out = append(out, e)
		}
	}
	return out, nil
}

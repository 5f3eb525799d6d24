package filter_test

import (
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
	"github.com/couchcryptid/quake-dashboard/internal/filter"
)

var magTypes = []string{"mb", "ml", "mww", "md", "mwr"}

// syntheticEvents builds a deterministic pseudo-random catalog.
func syntheticEvents(n int) []domain.Event {
	r := rand.New(rand.NewPCG(42, 7))
	events := make([]domain.Event, n)
	for i := range events {
		events[i] = domain.Event{
			ID:        string(rune('a'+i%26)) + string(rune('0'+i/26%10)),
			Magnitude: float64(r.IntN(80)) / 10, // 0.0–7.9 in 0.1 steps
			Depth:     float64(r.IntN(700)),
			MagType:   magTypes[r.IntN(len(magTypes))],
			Row:       i,
		}
	}
	return events
}

func TestApply_EveryResultSatisfiesPredicates(t *testing.T) {
	events := syntheticEvents(5000)
	spec := domain.FilterSpec{
		Magnitude: domain.Range{Min: 5.0, Max: 6.0},
		Depth:     domain.Range{Min: 0, Max: 100},
		MagTypes:  []string{"mb"},
	}

	got, err := filter.Apply(events, spec)
	require.NoError(t, err)
	require.NotEmpty(t, got)

	for _, e := range got {
		assert.GreaterOrEqual(t, e.Magnitude, 5.0)
		assert.LessOrEqual(t, e.Magnitude, 6.0)
		assert.GreaterOrEqual(t, e.Depth, 0.0)
		assert.LessOrEqual(t, e.Depth, 100.0)
		assert.Equal(t, "mb", e.MagType)
	}

	// No false negatives: everything left out fails at least one predicate.
	kept := map[int]bool{}
	for _, e := range got {
		kept[e.Row] = true
	}
	for _, e := range events {
		if !kept[e.Row] {
			assert.False(t, spec.Matches(e), "event row %d wrongly excluded", e.Row)
		}
	}
}

func TestApply_PreservesSourceOrder(t *testing.T) {
	events := syntheticEvents(300)
	spec := domain.FilterSpec{
		Magnitude: domain.Range{Min: 2, Max: 7},
		Depth:     domain.Range{Min: 0, Max: 700},
		MagTypes:  magTypes,
	}
	got, err := filter.Apply(events, spec)
	require.NoError(t, err)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].Row, got[i].Row)
	}
}

func TestApply_Idempotent(t *testing.T) {
	events := syntheticEvents(300)
	spec := domain.FilterSpec{
		Magnitude: domain.Range{Min: 3, Max: 6},
		Depth:     domain.Range{Min: 50, Max: 400},
		MagTypes:  []string{"ml", "mww"},
	}
	a, err := filter.Apply(events, spec)
	require.NoError(t, err)
	b, err := filter.Apply(events, spec)
	require.NoError(t, err)

	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("repeated Apply differs (-first +second):\n%s", diff)
	}
}

func TestApply_DoesNotMutateInput(t *testing.T) {
	events := syntheticEvents(100)
	before := append([]domain.Event(nil), events...)

	got, err := filter.Apply(events, domain.FilterSpec{
		Magnitude: domain.Range{Min: 0, Max: 10},
		Depth:     domain.Range{Min: 0, Max: 1000},
		MagTypes:  magTypes,
	})
	require.NoError(t, err)
	require.Len(t, got, len(events))

	got[0].Magnitude = 99
	if diff := cmp.Diff(before, events); diff != "" {
		t.Errorf("input modified (-before +after):\n%s", diff)
	}
}

func TestApply_Monotonic(t *testing.T) {
	events := syntheticEvents(400)
	base := domain.FilterSpec{
		Magnitude: domain.Range{Min: 4, Max: 5},
		Depth:     domain.Range{Min: 100, Max: 200},
		MagTypes:  []string{"mb"},
	}
	baseLen := count(t, events, base)

	wider := []func(domain.FilterSpec) domain.FilterSpec{
		func(s domain.FilterSpec) domain.FilterSpec { s.Magnitude.Min = 3; return s },
		func(s domain.FilterSpec) domain.FilterSpec { s.Magnitude.Max = 7; return s },
		func(s domain.FilterSpec) domain.FilterSpec { s.Depth.Min = 0; return s },
		func(s domain.FilterSpec) domain.FilterSpec { s.Depth.Max = 700; return s },
		func(s domain.FilterSpec) domain.FilterSpec { s.MagTypes = []string{"mb", "ml"}; return s },
	}
	for i, widen := range wider {
		assert.GreaterOrEqual(t, count(t, events, widen(base.Clone())), baseLen, "widening %d shrank result", i)
	}
}

func TestApply_EmptyAcceptedSet(t *testing.T) {
	got, err := filter.Apply(syntheticEvents(50), domain.FilterSpec{
		Magnitude: domain.Range{Min: 0, Max: 10},
		Depth:     domain.Range{Min: 0, Max: 1000},
	})
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestApply_InvalidSpec(t *testing.T) {
	_, err := filter.Apply(syntheticEvents(10), domain.FilterSpec{
		Magnitude: domain.Range{Min: 6, Max: 5},
		Depth:     domain.Range{Min: 0, Max: 100},
		MagTypes:  magTypes,
	})
	require.ErrorIs(t, err, domain.ErrInvalidFilter)
}

func TestApply_NilEvents(t *testing.T) {
	got, err := filter.Apply(nil, domain.FilterSpec{MagTypes: magTypes})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func count(t *testing.T, events []domain.Event, spec domain.FilterSpec) int {
	t.Helper()
	got, err := filter.Apply(events, spec)
	require.NoError(t, err)
	return len(got)
}

package dashboard_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-dashboard/internal/dashboard"
	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

func defaultSpec() domain.FilterSpec {
	return domain.FilterSpec{
		Magnitude: domain.Range{Min: 2.5, Max: 8},
		Depth:     domain.Range{Min: 0, Max: 700},
		MagTypes:  []string{"mb", "ml"},
	}
}

func TestSessions_Resolve(t *testing.T) {
	s := dashboard.NewSessions(defaultSpec(), time.Hour)

	id, created := s.Resolve("")
	require.True(t, created)
	assert.NotEmpty(t, id)

	again, created := s.Resolve(id)
	assert.False(t, created)
	assert.Equal(t, id, again)

	other, created := s.Resolve("not-a-session")
	assert.True(t, created)
	assert.NotEqual(t, "not-a-session", other)
	assert.Equal(t, 2, s.Len())
}

func TestSessions_UpdateAndReset(t *testing.T) {
	s := dashboard.NewSessions(defaultSpec(), time.Hour)
	id, _ := s.Resolve("")

	next := defaultSpec()
	next.MagTypes = []string{"ml"}
	got, err := s.Update(id, next)
	require.NoError(t, err)
	assert.Equal(t, next, got)

	next.MagTypes[0] = "mutated"
	assert.Equal(t, []string{"ml"}, s.Filter(id).MagTypes, "store must not alias the caller's slice")

	assert.Equal(t, defaultSpec(), s.Reset(id))
	assert.Equal(t, defaultSpec(), s.Filter(id))
}

func TestSessions_UpdateRejectsInvalid(t *testing.T) {
	s := dashboard.NewSessions(defaultSpec(), time.Hour)
	id, _ := s.Resolve("")

	bad := defaultSpec()
	bad.Magnitude = domain.Range{Min: 7, Max: 3}
	_, err := s.Update(id, bad)

	require.ErrorIs(t, err, domain.ErrInvalidFilter)
	assert.Equal(t, defaultSpec(), s.Filter(id))
}

func TestSessions_FilterUnknownReturnsDefaults(t *testing.T) {
	s := dashboard.NewSessions(defaultSpec(), time.Hour)
	assert.Equal(t, defaultSpec(), s.Filter("missing"))
}

func TestSessions_PruneIdle(t *testing.T) {
	fc := freezeClock(t)
	s := dashboard.NewSessions(defaultSpec(), 10*time.Minute)

	idle, _ := s.Resolve("")
	fc.Advance(6 * time.Minute)
	active, _ := s.Resolve("")
	fc.Advance(6 * time.Minute)

	assert.Equal(t, 1, s.Prune())
	assert.Equal(t, 1, s.Len())

	_, created := s.Resolve(active)
	assert.False(t, created)
	_, created = s.Resolve(idle)
	assert.True(t, created, "an expired session is replaced")
}

func TestSessions_ConcurrentUpdatesAreWhole(t *testing.T) {
	s := dashboard.NewSessions(defaultSpec(), time.Hour)
	id, _ := s.Resolve("")

	// Every written spec keeps Max = Min + 1 and a matching mag type, so a
	// torn read would break the relation.
	var wg sync.WaitGroup
	for w := range 8 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for i := range 200 {
				v := float64(w*1000 + i)
				_, err := s.Update(id, domain.FilterSpec{
					Magnitude: domain.Range{Min: v, Max: v + 1},
					Depth:     domain.Range{Min: v, Max: v + 1},
					MagTypes:  []string{fmt.Sprint(v)},
				})
				assert.NoError(t, err)
			}
		}()
		go func() {
			defer wg.Done()
			for range 200 {
				f := s.Filter(id)
				if f.MagTypes[0] == "mb" {
					continue
				}
				assert.Equal(t, f.Magnitude.Min+1, f.Magnitude.Max)
				assert.Equal(t, f.Magnitude, f.Depth)
				assert.Equal(t, fmt.Sprint(f.Magnitude.Min), f.MagTypes[0])
			}
		}()
	}
	wg.Wait()
}

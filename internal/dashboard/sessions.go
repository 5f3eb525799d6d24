package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/quake-dashboard/internal/domain"
)

type session struct {
	filter   domain.FilterSpec
	lastSeen time.Time
}

// Sessions holds one FilterSpec per browser session. A filter is always
// replaced whole under the lock, so readers never see a partial update.
// Sessions idle for longer than the TTL are pruned lazily on access.
type Sessions struct {
	mu       sync.Mutex
	ttl      time.Duration
	defaults domain.FilterSpec
	entries  map[string]*session
}

// NewSessions creates an empty store whose new sessions start at defaults.
func NewSessions(defaults domain.FilterSpec, ttl time.Duration) *Sessions {
	return &Sessions{
		ttl:      ttl,
		defaults: defaults.Clone(),
		entries:  make(map[string]*session),
	}
}

// Resolve returns id when it names a live session, or the id of a newly
// created session otherwise. The second result reports whether a session
// was created.
func (s *Sessions) Resolve(id string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := domain.Now()
	s.pruneLocked(now)
	if e, ok := s.entries[id]; ok {
		e.lastSeen = now
		return id, false
	}
	id = uuid.NewString()
	s.entries[id] = &session{filter: s.defaults.Clone(), lastSeen: now}
	return id, true
}

// Filter returns a copy of the session's filter, or the defaults for an
// unknown session.
func (s *Sessions) Filter(id string) domain.FilterSpec {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[id]; ok {
		return e.filter.Clone()
	}
	return s.defaults.Clone()
}

// Update validates spec and replaces the session's filter with it. An
// invalid spec leaves the stored filter untouched.
func (s *Sessions) Update(id string, spec domain.FilterSpec) (domain.FilterSpec, error) {
	if err := spec.Validate(); err != nil {
		return domain.FilterSpec{}, err
	}
	spec = spec.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &session{filter: spec, lastSeen: domain.Now()}
	return spec.Clone(), nil
}

// Reset restores the session's filter to the defaults.
func (s *Sessions) Reset(id string) domain.FilterSpec {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = &session{filter: s.defaults.Clone(), lastSeen: domain.Now()}
	return s.defaults.Clone()
}

// Defaults returns a copy of the filter new sessions start with.
func (s *Sessions) Defaults() domain.FilterSpec {
	return s.defaults.Clone()
}

// Len returns the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Prune drops sessions idle for longer than the TTL and returns how many
// were removed.
func (s *Sessions) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pruneLocked(domain.Now())
}

func (s *Sessions) pruneLocked(now time.Time) int {
	if s.ttl <= 0 {
		return 0
	}
	removed := 0
	for id, e := range s.entries {
		if now.Sub(e.lastSeen) > s.ttl {
			delete(s.entries, id)
			removed++
		}
	}
	return removed
}

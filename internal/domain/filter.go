package domain

import (
	"fmt"
	"math"
	"slices"
)

// Range is an inclusive numeric interval.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies in [Min, Max].
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Widen returns the smallest range covering both r and o.
func (r Range) Widen(o Range) Range {
	return Range{Min: math.Min(r.Min, o.Min), Max: math.Max(r.Max, o.Max)}
}

func (r Range) validate(name string) error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) {
		return fmt.Errorf("%w: %s range has a NaN bound", ErrInvalidFilter, name)
	}
	if r.Min > r.Max {
		return fmt.Errorf("%w: %s range min %g exceeds max %g", ErrInvalidFilter, name, r.Min, r.Max)
	}
	return nil
}

// FilterSpec is the active filter state: two inclusive ranges and a set of
// accepted magnitude types. An empty accepted set matches nothing.
type FilterSpec struct {
	Magnitude Range    `json:"magnitude"`
	Depth     Range    `json:"depth"`
	MagTypes  []string `json:"mag_types"`
}

// Validate rejects malformed ranges. Bounds are never swapped silently.
func (s FilterSpec) Validate() error {
	if err := s.Magnitude.validate("magnitude"); err != nil {
		return err
	}
	return s.Depth.validate("depth")
}

// Matches reports whether e satisfies all three predicates. It does not
// validate the spec; callers filtering many events should use a Matcher.
func (s FilterSpec) Matches(e Event) bool {
	return s.Magnitude.Contains(e.Magnitude) &&
		s.Depth.Contains(e.Depth) &&
		slices.Contains(s.MagTypes, e.MagType)
}

// Clone returns a copy that shares no memory with s.
func (s FilterSpec) Clone() FilterSpec {
	s.MagTypes = slices.Clone(s.MagTypes)
	if s.MagTypes == nil {
		s.MagTypes = []string{}
	}
	return s
}

// Matcher is a FilterSpec compiled for repeated matching.
type Matcher struct {
	magnitude Range
	depth     Range
	magTypes  map[string]struct{}
}

// Compile validates s and returns a Matcher for it.
func (s FilterSpec) Compile() (*Matcher, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	types := make(map[string]struct{}, len(s.MagTypes))
	for _, t := range s.MagTypes {
		types[t] = struct{}{}
	}
	return &Matcher{magnitude: s.Magnitude, depth: s.Depth, magTypes: types}, nil
}

// Match reports whether e passes the compiled filter.
func (m *Matcher) Match(e Event) bool {
	if !m.magnitude.Contains(e.Magnitude) || !m.depth.Contains(e.Depth) {
		return false
	}
	_, ok := m.magTypes[e.MagType]
	return ok
}

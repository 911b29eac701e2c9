// Package timemap provides an ordered, time-keyed map from an instant to a
// state value. Each entry declares the state effective from that instant
// onward, so looking up an arbitrary instant resolves to the most recent
// entry at or before it. The map is an immutable value object; mutation is
// expressed by building a replacement map and validating it at the domain
// layer.
package timemap

import (
	"errors"
	"sort"
	"time"
)

// ErrMalformedTimeline indicates a map could not be built because the supplied
// pairs were empty or their instants were not strictly increasing.
var ErrMalformedTimeline = errors.New("timemap: instants must be non-empty and strictly increasing")

// ErrNoValueDefined indicates a lookup instant precedes the first entry, so no
// state is in effect at that time.
var ErrNoValueDefined = errors.New("timemap: no value defined at or before instant")

// Pair couples an instant with the state that takes effect at that instant.
type Pair[S comparable] struct {
	Instant time.Time
	State   S
}

// Map is an ordered sequence of (instant, state) pairs sorted ascending by
// instant. The zero value is unusable; construct via New.
type Map[S comparable] struct {
	pairs []Pair[S]
}

// New builds a Map from the supplied pairs. The pairs must already be in
// ascending order with strictly increasing instants; an empty sequence or any
// out-of-order or duplicate instant fails with ErrMalformedTimeline.
func New[S comparable](pairs []Pair[S]) (*Map[S], error) {
	if len(pairs) == 0 {
		return nil, ErrMalformedTimeline
	}
	for i := 1; i < len(pairs); i++ {
		if !pairs[i].Instant.After(pairs[i-1].Instant) {
			return nil, ErrMalformedTimeline
		}
	}
	owned := make([]Pair[S], len(pairs))
	copy(owned, pairs)
	return &Map[S]{pairs: owned}, nil
}

// ValueAt returns the state effective at the given instant, i.e. the state of
// the latest entry at or before it. It fails with ErrNoValueDefined when the
// instant precedes the first entry.
func (m *Map[S]) ValueAt(instant time.Time) (S, error) {
	// Index of the first entry strictly after instant; the effective entry
	// is the one before it.
	idx := sort.Search(len(m.pairs), func(i int) bool {
		return m.pairs[i].Instant.After(instant)
	})
	if idx == 0 {
		var zero S
		return zero, ErrNoValueDefined
	}
	return m.pairs[idx-1].State, nil
}

// Pairs returns the entries in ascending instant order. The returned slice is
// a fresh copy on every call, so callers may iterate or modify it freely.
func (m *Map[S]) Pairs() []Pair[S] {
	out := make([]Pair[S], len(m.pairs))
	copy(out, m.pairs)
	return out
}

// Len returns the number of entries.
func (m *Map[S]) Len() int { return len(m.pairs) }

// First returns the earliest entry.
func (m *Map[S]) First() Pair[S] { return m.pairs[0] }

// Last returns the latest entry.
func (m *Map[S]) Last() Pair[S] { return m.pairs[len(m.pairs)-1] }

// Equal reports structural equality: the same sequence of instants and states.
func (m *Map[S]) Equal(other *Map[S]) bool {
	if m == nil || other == nil {
		return m == other
	}
	if len(m.pairs) != len(other.pairs) {
		return false
	}
	for i, p := range m.pairs {
		if !p.Instant.Equal(other.pairs[i].Instant) || p.State != other.pairs[i].State {
			return false
		}
	}
	return true
}

// Package single implements the "Single" prefix kind: a unit type where
// exactly one prefix exists. Useful for experiments that only care about
// reachability of one destination and want to skip prefix bookkeeping
// entirely.
package single

import "github.com/routesim/routesim/pkg/prefix"

// Prefix is the sole value of this kind.
type Prefix struct{}

// String satisfies prefix.Key.
func (Prefix) String() string { return "*" }

// Map is an exact-key map over the single prefix kind. Since there is only
// one possible key, it is really just an optional value.
type Map[V any] struct {
	value V
	set   bool
}

// NewMap returns an empty Map.
func NewMap[V any]() *Map[V] { return &Map[V]{} }

func (m *Map[V]) Get(Prefix) (V, bool) {
	return m.value, m.set
}

func (m *Map[V]) Insert(_ Prefix, v V) {
	m.value = v
	m.set = true
}

func (m *Map[V]) Delete(Prefix) {
	var zero V
	m.value = zero
	m.set = false
}

func (m *Map[V]) Len() int {
	if m.set {
		return 1
	}
	return 0
}

func (m *Map[V]) Range(fn func(Prefix, V) bool) {
	if m.set {
		fn(Prefix{}, m.value)
	}
}

// LPM degenerates to exact-key lookup for the Single kind.
func (m *Map[V]) LPM(_ Prefix) (Prefix, V, bool) {
	return Prefix{}, m.value, m.set
}

var _ prefix.Map[Prefix, int] = (*Map[int])(nil)

// Set is a set over the single prefix kind: it either contains the one
// prefix or it doesn't.
type Set struct {
	present bool
}

// NewSet returns an empty Set.
func NewSet() *Set { return &Set{} }

func (s *Set) Add(Prefix)    { s.present = true }
func (s *Set) Remove(Prefix) { s.present = false }
func (s *Set) Contains(Prefix) bool { return s.present }
func (s *Set) Len() int {
	if s.present {
		return 1
	}
	return 0
}

func (s *Set) Range(fn func(Prefix) bool) {
	if s.present {
		fn(Prefix{})
	}
}

func (s *Set) Sorted() []Prefix {
	if s.present {
		return []Prefix{{}}
	}
	return nil
}

var _ prefix.Set[Prefix] = (*Set)(nil)

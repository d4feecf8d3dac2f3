// Package simple implements the "Simple" prefix kind: disjoint prefixes
// identified by a small integer, with no notion of containment between
// them. Useful for synthetic topologies where only prefix identity matters.
package simple

import (
	"sort"
	"strconv"

	"github.com/routesim/routesim/pkg/prefix"
)

// Prefix is an opaque integer identifier. Two Prefix values are disjoint
// unless equal.
type Prefix int

// String satisfies prefix.Key.
func (p Prefix) String() string { return strconv.Itoa(int(p)) }

// Map is an exact-key map over Simple prefixes.
type Map[V any] struct {
	entries map[Prefix]V
}

// NewMap returns an empty Map.
func NewMap[V any]() *Map[V] {
	return &Map[V]{entries: make(map[Prefix]V)}
}

func (m *Map[V]) Get(k Prefix) (V, bool) {
	v, ok := m.entries[k]
	return v, ok
}

func (m *Map[V]) Insert(k Prefix, v V) { m.entries[k] = v }
func (m *Map[V]) Delete(k Prefix)      { delete(m.entries, k) }
func (m *Map[V]) Len() int             { return len(m.entries) }

func (m *Map[V]) Range(fn func(Prefix, V) bool) {
	keys := make([]Prefix, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for _, k := range keys {
		if !fn(k, m.entries[k]) {
			return
		}
	}
}

// LPM degenerates to exact-key lookup for the Simple kind.
func (m *Map[V]) LPM(k Prefix) (Prefix, V, bool) {
	v, ok := m.entries[k]
	return k, v, ok
}

var _ prefix.Map[Prefix, int] = (*Map[int])(nil)

// Set is a set of Simple prefixes.
type Set struct {
	members map[Prefix]struct{}
}

// NewSet returns an empty Set.
func NewSet() *Set { return &Set{members: make(map[Prefix]struct{})} }

func (s *Set) Add(k Prefix)    { s.members[k] = struct{}{} }
func (s *Set) Remove(k Prefix) { delete(s.members, k) }
func (s *Set) Contains(k Prefix) bool {
	_, ok := s.members[k]
	return ok
}
func (s *Set) Len() int { return len(s.members) }

func (s *Set) Range(fn func(Prefix) bool) {
	for _, k := range s.Sorted() {
		if !fn(k) {
			return
		}
	}
}

func (s *Set) Sorted() []Prefix {
	out := make([]Prefix, 0, len(s.members))
	for k := range s.members {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var _ prefix.Set[Prefix] = (*Set)(nil)

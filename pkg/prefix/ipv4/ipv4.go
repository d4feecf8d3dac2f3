// Package ipv4 implements the "IPv4" prefix kind: real CIDR prefixes over
// net/netip, with longest-prefix-match lookup. The Map here mirrors the
// public shape of gaissmai/bart's Table[V] (Insert/Get/Delete/LookupPrefixLPM),
// but is implemented as a plain binary trie over the 32 address bits rather
// than bart's popcount-compressed multibit node structure: the simulator
// deals in hundreds to low thousands of prefixes per router, not the
// million-route tables bart is built for, so the simpler trie is the right
// tradeoff here.
package ipv4

import (
	"net/netip"
	"sort"

	"github.com/routesim/routesim/pkg/prefix"
)

// Prefix wraps netip.Prefix so it satisfies prefix.Key (netip.Prefix itself
// has a String method but is not otherwise distinguished as our Key type).
type Prefix struct {
	netip.Prefix
}

// New builds a Prefix from an address and mask length, masking to the
// network address the way net.ParseCIDR does.
func New(addr netip.Addr, bits int) Prefix {
	p := netip.PrefixFrom(addr, bits)
	return Prefix{p.Masked()}
}

// MustParse parses a CIDR string such as "10.0.0.0/8", panicking on error.
// Intended for tests and literal scenario construction.
func MustParse(s string) Prefix {
	p := netip.MustParsePrefix(s)
	return Prefix{p.Masked()}
}

// ParsePrefix parses a CIDR string, returning an error instead of panicking.
func ParsePrefix(s string) (Prefix, error) {
	p, err := netip.ParsePrefix(s)
	if err != nil {
		return Prefix{}, err
	}
	return Prefix{p.Masked()}, nil
}

func (p Prefix) String() string { return p.Prefix.String() }

type node[V any] struct {
	children [2]*node[V]
	value    V
	has      bool
}

// Map is a binary trie over IPv4 prefixes supporting longest-prefix-match.
type Map[V any] struct {
	root *node[V]
	size int
}

// NewMap returns an empty Map.
func NewMap[V any]() *Map[V] {
	return &Map[V]{root: &node[V]{}}
}

func bitAt(addr [4]byte, i int) int {
	byteIdx := i / 8
	bitIdx := 7 - (i % 8)
	return int((addr[byteIdx] >> uint(bitIdx)) & 1)
}

func (m *Map[V]) walk(p Prefix, create bool) *node[V] {
	n := m.root
	addr := p.Addr().As4()
	bits := p.Bits()
	for i := 0; i < bits; i++ {
		b := bitAt(addr, i)
		if n.children[b] == nil {
			if !create {
				return nil
			}
			n.children[b] = &node[V]{}
		}
		n = n.children[b]
	}
	return n
}

// Insert adds or overwrites the value stored for key.
func (m *Map[V]) Insert(key Prefix, value V) {
	n := m.walk(key, true)
	if !n.has {
		m.size++
	}
	n.value = value
	n.has = true
}

// Get returns the exact-match entry for key, if present.
func (m *Map[V]) Get(key Prefix) (V, bool) {
	n := m.walk(key, false)
	if n == nil || !n.has {
		var zero V
		return zero, false
	}
	return n.value, true
}

// Delete removes the exact-match entry for key, if present.
func (m *Map[V]) Delete(key Prefix) {
	n := m.walk(key, false)
	if n == nil || !n.has {
		return
	}
	var zero V
	n.value = zero
	n.has = false
	m.size--
}

// Len returns the number of stored entries.
func (m *Map[V]) Len() int { return m.size }

// Range visits every stored entry in ascending prefix order.
func (m *Map[V]) Range(fn func(Prefix, V) bool) {
	for _, e := range m.sortedEntries() {
		if !fn(e.key, e.value) {
			return
		}
	}
}

type entry[V any] struct {
	key   Prefix
	value V
}

func (m *Map[V]) sortedEntries() []entry[V] {
	var out []entry[V]
	var walk func(n *node[V], addr [4]byte, depth int)
	walk = func(n *node[V], addr [4]byte, depth int) {
		if n == nil {
			return
		}
		if n.has {
			a := netip.AddrFrom4(addr)
			out = append(out, entry[V]{key: Prefix{netip.PrefixFrom(a, depth)}, value: n.value})
		}
		if n.children[0] != nil {
			walk(n.children[0], addr, depth+1)
		}
		if n.children[1] != nil {
			a := addr
			a[depth/8] |= 1 << uint(7-(depth%8))
			walk(n.children[1], a, depth+1)
		}
	}
	walk(m.root, [4]byte{}, 0)
	sort.Slice(out, func(i, j int) bool {
		ai, aj := out[i].key, out[j].key
		if ai.Bits() != aj.Bits() {
			return ai.Bits() < aj.Bits()
		}
		return lessAddr(ai.Addr(), aj.Addr())
	})
	return out
}

func lessAddr(a, b netip.Addr) bool {
	ab, bb := a.As4(), b.As4()
	for i := range ab {
		if ab[i] != bb[i] {
			return ab[i] < bb[i]
		}
	}
	return false
}

// LPM returns the entry whose key is the longest stored prefix covering
// query, walking from the root down query's bit path and remembering the
// deepest node marked has along the way.
func (m *Map[V]) LPM(query Prefix) (Prefix, V, bool) {
	n := m.root
	addr := query.Addr().As4()
	bits := query.Bits()

	bestDepth := -1
	var bestValue V
	if n.has {
		bestDepth = 0
		bestValue = n.value
	}
	for i := 0; i < bits; i++ {
		b := bitAt(addr, i)
		if n.children[b] == nil {
			break
		}
		n = n.children[b]
		if n.has {
			bestDepth = i + 1
			bestValue = n.value
		}
	}
	if bestDepth == -1 {
		var zero V
		return Prefix{}, zero, false
	}
	a := netip.AddrFrom4(addr)
	return Prefix{netip.PrefixFrom(a, bestDepth).Masked()}, bestValue, true
}

var _ prefix.Map[Prefix, int] = (*Map[int])(nil)

// Set is a set of IPv4 prefixes backed by a Map[struct{}].
type Set struct {
	m *Map[struct{}]
}

// NewSet returns an empty Set.
func NewSet() *Set { return &Set{m: NewMap[struct{}]()} }

func (s *Set) Add(key Prefix)    { s.m.Insert(key, struct{}{}) }
func (s *Set) Remove(key Prefix) { s.m.Delete(key) }
func (s *Set) Contains(key Prefix) bool {
	_, ok := s.m.Get(key)
	return ok
}
func (s *Set) Len() int { return s.m.Len() }

func (s *Set) Range(fn func(Prefix) bool) {
	s.m.Range(func(k Prefix, _ struct{}) bool { return fn(k) })
}

func (s *Set) Sorted() []Prefix {
	out := make([]Prefix, 0, s.m.Len())
	s.m.Range(func(k Prefix, _ struct{}) bool {
		out = append(out, k)
		return true
	})
	return out
}

var _ prefix.Set[Prefix] = (*Set)(nil)

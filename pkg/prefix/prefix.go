// Package prefix provides a container algebra: map and set types
// parameterized over a prefix kind, with longest-prefix-match support
// where the kind allows it. Three kinds are provided by the sibling packages
// single, simple, and ipv4; callers choose one at construction time and
// write generic code against the Map/Set interfaces here.
package prefix

// Key is any type usable as a destination prefix. It must be a valid map
// key (comparable) and printable for logging and error messages.
type Key interface {
	comparable
	String() string
}

// Map is an exact-key map from a prefix to a value, plus longest-prefix-match
// lookup. For non-IPv4 kinds, LPM degenerates to exact-key lookup.
type Map[P Key, V any] interface {
	Get(key P) (V, bool)
	Insert(key P, value V)
	Delete(key P)
	Len() int
	// Range calls fn for every stored entry. Iteration order is whatever the
	// underlying kind provides; callers needing determinism must sort.
	Range(fn func(key P, value V) bool)
	// LPM returns the entry whose key is the longest stored prefix that
	// covers query, or the zero value and false if none covers it.
	LPM(query P) (key P, value V, ok bool)
}

// Set is a set of prefixes with deterministic iteration given a stable
// ordering. It offers membership, iteration and a sorted listing; it has
// no union or intersection operations.
type Set[P Key] interface {
	Add(key P)
	Remove(key P)
	Contains(key P) bool
	Len() int
	Range(fn func(key P) bool)
	// Sorted returns every member in the kind's canonical order.
	Sorted() []P
}

// Each of the single/simple/ipv4 packages exposes generic NewMap[V]/NewSet
// constructor functions satisfying Map[P, V]/Set[P] for its own P. Generic
// simulator components (bgp.Process[P], router.Router[P], sim.Network[P])
// take small constructor closures built from those functions at the one
// call site where a concrete P is chosen — Go has no way to abstract "the
// map constructor for P" as a single reusable value independent of V, so
// this is pushed to the caller rather than threaded through an Algebra
// interface. See DESIGN.md for the rationale.

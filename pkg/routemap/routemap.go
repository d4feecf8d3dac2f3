// Package routemap implements the ordered match/set/flow-control pipeline
// applied to a BGP candidate route per neighbor per direction.
package routemap

import (
	"fmt"
	"sort"

	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/prefix"
)

// Candidate is the mutable route representation a RouteMap evaluates
// against and rewrites. The BGP process (pkg/bgp) converts its internal
// RIB entry to and from a Candidate at the route-map evaluation boundary,
// keeping this package free of any dependency on pkg/bgp.
type Candidate[P prefix.Key] struct {
	Prefix      P
	ASPath      model.ASPath
	NextHop     model.RouterId
	Neighbor    model.RouterId // the session peer this candidate is being evaluated for/from
	LocalPref   int
	MED         int
	Communities model.CommunitySet
	IGPCost     int
	Weight      int
}

// DefaultLocalPref and DefaultMED are the values "clear to default" set
// clauses restore.
const (
	DefaultLocalPref = 100
	DefaultMED       = 0
	DefaultWeight    = 100
)

// Action is the terminal disposition of a matching entry.
type Action int

const (
	Allow Action = iota
	Deny
)

// FlowKind discriminates the three flow directives an Allow entry may
// specify after applying its set clauses.
type FlowKind int

const (
	// Exit halts evaluation, yielding the modified route.
	Exit FlowKind = iota
	// Continue proceeds to the next entry in order.
	Continue
	// ContinueAt jumps to the first entry with order >= Target.
	ContinueAt
)

// Flow is the post-match disposition of an Allow entry.
type Flow struct {
	Kind   FlowKind
	Target int
}

// Match is one match clause. A Candidate matches an entry only if every
// one of its match clauses returns true.
type Match[P prefix.Key] interface {
	Match(c *Candidate[P]) bool
}

// Set is one set clause, applied in order when an Allow entry matches.
type Set[P prefix.Key] interface {
	Apply(c *Candidate[P])
}

// Entry is one ordered rule in a RouteMap.
type Entry[P prefix.Key] struct {
	Order   int
	Action  Action
	Matches []Match[P]
	Sets    []Set[P]
	Flow    Flow
}

func (e *Entry[P]) matches(c *Candidate[P]) bool {
	for _, m := range e.Matches {
		if !m.Match(c) {
			return false
		}
	}
	return true
}

// RouteMap is an ordered, by-order-key-unique list of entries.
type RouteMap[P prefix.Key] struct {
	Name    string
	entries []*Entry[P]
}

// New builds an empty RouteMap.
func New[P prefix.Key](name string) *RouteMap[P] {
	return &RouteMap[P]{Name: name}
}

// AddEntry inserts e in order-key order, rejecting a duplicate order key
// as a configuration-time failure.
func (rm *RouteMap[P]) AddEntry(e *Entry[P]) error {
	idx := sort.Search(len(rm.entries), func(i int) bool { return rm.entries[i].Order >= e.Order })
	if idx < len(rm.entries) && rm.entries[idx].Order == e.Order {
		return fmt.Errorf("routemap %s: duplicate order key %d", rm.Name, e.Order)
	}
	rm.entries = append(rm.entries, nil)
	copy(rm.entries[idx+1:], rm.entries[idx:])
	rm.entries[idx] = e
	return nil
}

// RemoveEntry deletes the entry at the given order key, if present.
func (rm *RouteMap[P]) RemoveEntry(order int) {
	for i, e := range rm.entries {
		if e.Order == order {
			rm.entries = append(rm.entries[:i], rm.entries[i+1:]...)
			return
		}
	}
}

// Entries returns the entries in ascending order-key order. The returned
// slice must not be mutated by the caller.
func (rm *RouteMap[P]) Entries() []*Entry[P] { return rm.entries }

// Apply evaluates the map against c (which Apply mutates in place for the
// Allow path) and reports whether the route survives. Evaluation never
// fails at runtime; an empty or exhausted map always allows, matching
// the "default is Allow" rule.
func (rm *RouteMap[P]) Apply(c *Candidate[P]) bool {
	i := 0
	for i < len(rm.entries) {
		e := rm.entries[i]
		if !e.matches(c) {
			i++
			continue
		}
		if e.Action == Deny {
			return false
		}
		for _, s := range e.Sets {
			s.Apply(c)
		}
		switch e.Flow.Kind {
		case Exit:
			return true
		case Continue:
			i++
		case ContinueAt:
			j := sort.Search(len(rm.entries), func(k int) bool { return rm.entries[k].Order >= e.Flow.Target })
			i = j
		}
	}
	return true
}

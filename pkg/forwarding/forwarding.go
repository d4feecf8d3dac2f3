// Package forwarding implements forwarding-state derivation: given
// a converged network, resolve (router, prefix) to next hops and full
// paths, detecting black-holes and forwarding loops.
package forwarding

import (
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/prefix"
	"github.com/routesim/routesim/pkg/rserrors"
	"github.com/routesim/routesim/pkg/sim"
)

type cacheKey[P prefix.Key] struct {
	router model.RouterId
	prefix P
}

// State resolves (router, prefix) next hops and full forwarding paths
// over a converged Network, caching results for repeated queries.
type State[P prefix.Key] struct {
	net         *sim.Network[P]
	loadBalance bool

	hopCache map[cacheKey[P]][]model.RouterId
}

// New builds a State over net. loadBalance controls whether Get/GetPaths
// fan out across all equal-cost next hops or collapse to the
// lexicographically-smallest one.
func New[P prefix.Key](net *sim.Network[P], loadBalance bool) *State[P] {
	return &State[P]{
		net:         net,
		loadBalance: loadBalance,
		hopCache:    make(map[cacheKey[P]][]model.RouterId),
	}
}

// Get returns r's immediate next hops for prefixKey, following the
// resolution procedure (static route priority, then BGP Loc-RIB next hop
// resolved through the OSPF next-hop table or direct adjacency).
func (s *State[P]) Get(r model.RouterId, prefixKey P) []model.RouterId {
	key := cacheKey[P]{router: r, prefix: prefixKey}
	if hops, ok := s.hopCache[key]; ok {
		return hops
	}
	rtr, ok := s.net.Router(r)
	if !ok {
		return nil
	}
	hops := rtr.Resolve(prefixKey, s.loadBalance)
	s.hopCache[key] = hops
	return hops
}

// GetPaths traverses the forwarding graph from r for prefixKey, returning
// every complete path (branching at ECMP next hops when loadBalance is
// set). A path terminates once it reaches a router the Network has no
// internal Router for (an external router), or an internal router whose
// resolved next hop is itself (local delivery).
//
// Returns a *rserrors.ForwardingBlackHoleError if some node on a path has
// an empty next-hop set, or a *rserrors.ForwardingLoopError if a router
// appears twice on the same path for this prefix.
func (s *State[P]) GetPaths(r model.RouterId, prefixKey P) ([][]model.RouterId, error) {
	return s.walk(r, prefixKey, nil, make(map[model.RouterId]bool))
}

func (s *State[P]) walk(current model.RouterId, prefixKey P, path []model.RouterId, visited map[model.RouterId]bool) ([][]model.RouterId, error) {
	if visited[current] {
		return nil, &rserrors.ForwardingLoopError{Path: s.names(append(path, current))}
	}
	path = append(append([]model.RouterId{}, path...), current)

	visited = copyVisited(visited)
	visited[current] = true

	if _, ok := s.net.Router(current); !ok {
		// current is external, or not an internal router at all: the
		// path ends here.
		return [][]model.RouterId{path}, nil
	}

	hops := s.Get(current, prefixKey)
	if len(hops) == 0 {
		return nil, &rserrors.ForwardingBlackHoleError{Path: s.names(path)}
	}

	var paths [][]model.RouterId
	for _, next := range hops {
		if next == current {
			// Resolve returned the router itself: local delivery, the
			// prefix terminates here without a further hop.
			paths = append(paths, path)
			continue
		}
		sub, err := s.walk(next, prefixKey, path, visited)
		if err != nil {
			return nil, err
		}
		paths = append(paths, sub...)
	}
	return paths, nil
}

func (s *State[P]) names(path []model.RouterId) []string {
	out := make([]string, len(path))
	for i, id := range path {
		out[i] = s.net.Name(id)
	}
	return out
}

func copyVisited(v map[model.RouterId]bool) map[model.RouterId]bool {
	out := make(map[model.RouterId]bool, len(v)+1)
	for k, val := range v {
		out[k] = val
	}
	return out
}

// Invalidate drops every cached entry, forcing the next Get/GetPaths call
// to re-resolve. Callers should invalidate after any further network
// mutation since a State snapshot is only valid for the converged
// network it was built from.
func (s *State[P]) Invalidate() {
	s.hopCache = make(map[cacheKey[P]][]model.RouterId)
}

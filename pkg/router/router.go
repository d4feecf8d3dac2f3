// Package router implements the per-router aggregate: the BGP process,
// a reference to the AS's OSPF process, and a prefix→static-route
// table, plus the three-step forwarding-lookup procedure.
package router

import (
	"sort"

	"github.com/routesim/routesim/pkg/bgp"
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/ospf"
	"github.com/routesim/routesim/pkg/prefix"
)

// Router owns one internal router's protocol state.
type Router[P prefix.Key] struct {
	ID  model.RouterId
	ASN model.ASN

	BGP  *bgp.Process[P]
	OSPF ospf.Process

	static prefix.Map[P, model.StaticRoute]

	// direct is the set of link-layer neighbors (internal or external)
	// reachable in one hop, independent of whether they participate in
	// OSPF. Kept current by the network driver, which owns the full
	// topology graph including external routers.
	direct map[model.RouterId]bool
}

// New returns a Router with an empty static-route table.
func New[P prefix.Key](id model.RouterId, asn model.ASN, ospfProcess ospf.Process, bgpProcess *bgp.Process[P], newMap func() prefix.Map[P, model.StaticRoute]) *Router[P] {
	return &Router[P]{
		ID:     id,
		ASN:    asn,
		BGP:    bgpProcess,
		OSPF:   ospfProcess,
		static: newMap(),
		direct: make(map[model.RouterId]bool),
	}
}

// SetDirectNeighbors replaces the set of link-layer-adjacent routers.
func (r *Router[P]) SetDirectNeighbors(neighbors []model.RouterId) {
	r.direct = make(map[model.RouterId]bool, len(neighbors))
	for _, n := range neighbors {
		r.direct[n] = true
	}
}

// SetStaticRoute installs target for prefixKey and re-runs the BGP decision
// process for every known prefix, since a static route's presence can
// shadow or unshadow a previously-installed BGP route even though it never
// alters BGP state directly.
func (r *Router[P]) SetStaticRoute(prefixKey P, target model.StaticRoute) []bgp.Event[P] {
	r.static.Insert(prefixKey, target)
	return r.BGP.ReRunAll()
}

// RemoveStaticRoute deletes the static route for prefixKey, if any.
func (r *Router[P]) RemoveStaticRoute(prefixKey P) []bgp.Event[P] {
	r.static.Delete(prefixKey)
	return r.BGP.ReRunAll()
}

// Resolve implements the three-step forwarding lookup for
// prefixKey: a covering static route takes priority over BGP, and the
// result collapses to the lexicographically-smallest next hop unless
// loadBalance is set.
func (r *Router[P]) Resolve(prefixKey P, loadBalance bool) []model.RouterId {
	hops := r.resolveRaw(prefixKey)
	if loadBalance || len(hops) <= 1 {
		return hops
	}
	sort.Slice(hops, func(i, j int) bool { return hops[i] < hops[j] })
	return hops[:1]
}

func (r *Router[P]) resolveRaw(prefixKey P) []model.RouterId {
	if _, route, ok := r.static.LPM(prefixKey); ok {
		return r.resolveStatic(route)
	}
	_, entry, ok := r.BGP.LocRIBLookupLPM(prefixKey)
	if !ok {
		return nil
	}
	return r.resolveNextHop(entry.Route.NextHop)
}

func (r *Router[P]) resolveStatic(route model.StaticRoute) []model.RouterId {
	switch route.Kind {
	case model.StaticDrop:
		return nil
	case model.StaticDirect:
		if r.isAdjacent(route.Target) {
			return []model.RouterId{route.Target}
		}
		return nil
	case model.StaticIndirect:
		return r.resolveNextHop(route.Target)
	default:
		return nil
	}
}

// resolveNextHop resolves a BGP or Indirect-static next-hop marker through
// the OSPF next-hop table, falling back to a direct link-layer adjacency
// for targets (typically external routers) that don't participate in OSPF.
func (r *Router[P]) resolveNextHop(target model.RouterId) []model.RouterId {
	if target == r.ID {
		return []model.RouterId{r.ID}
	}
	if rib := r.OSPF.RIB(r.ID); rib != nil {
		if entry, ok := rib[target]; ok && entry.Cost < model.InfiniteCost {
			return append([]model.RouterId{}, entry.NextHops...)
		}
	}
	if r.isAdjacent(target) {
		return []model.RouterId{target}
	}
	return nil
}

func (r *Router[P]) isAdjacent(target model.RouterId) bool {
	return r.direct[target]
}

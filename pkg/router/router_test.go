package router

import (
	"testing"

	"github.com/routesim/routesim/pkg/bgp"
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/ospf/global"
	"github.com/routesim/routesim/pkg/prefix"
	"github.com/routesim/routesim/pkg/prefix/simple"
)

func newTestRouter(id model.RouterId) *Router[simple.Prefix] {
	ospfProcess := global.New()
	ospfProcess.AddRouter(id)

	newMap := func() prefix.Map[simple.Prefix, bgp.RIBEntry[simple.Prefix]] {
		return simple.NewMap[bgp.RIBEntry[simple.Prefix]]()
	}
	newSet := func() prefix.Set[simple.Prefix] { return simple.NewSet() }
	bgpProcess := bgp.NewProcess[simple.Prefix](id, 65000, newMap, newSet)

	staticMap := func() prefix.Map[simple.Prefix, model.StaticRoute] {
		return simple.NewMap[model.StaticRoute]()
	}
	return New[simple.Prefix](id, 65000, ospfProcess, bgpProcess, staticMap)
}

func TestResolveDropReturnsEmptySet(t *testing.T) {
	r := newTestRouter(1)
	r.SetStaticRoute(simple.Prefix(10), model.Drop())

	hops := r.Resolve(simple.Prefix(10), false)
	if len(hops) != 0 {
		t.Fatalf("expected no next hops for a dropped prefix, got %v", hops)
	}
}

func TestResolveDirectRequiresAdjacency(t *testing.T) {
	r := newTestRouter(1)
	r.SetStaticRoute(simple.Prefix(10), model.Direct(2))

	if hops := r.Resolve(simple.Prefix(10), false); len(hops) != 0 {
		t.Fatalf("expected black hole before adjacency is known, got %v", hops)
	}

	r.SetDirectNeighbors([]model.RouterId{2})
	hops := r.Resolve(simple.Prefix(10), false)
	if len(hops) != 1 || hops[0] != 2 {
		t.Fatalf("expected [2], got %v", hops)
	}
}

func TestResolveIndirectUsesOSPFNextHopTable(t *testing.T) {
	r := newTestRouter(1)
	ospfProcess := r.OSPF.(*global.Global)
	ospfProcess.AddRouter(2)
	ospfProcess.AddRouter(3)
	ospfProcess.Apply(model.AddLink(1, 2, 10, model.BackboneArea))
	ospfProcess.Apply(model.AddLink(2, 1, 10, model.BackboneArea))
	ospfProcess.Apply(model.AddLink(2, 3, 10, model.BackboneArea))
	ospfProcess.Apply(model.AddLink(3, 2, 10, model.BackboneArea))

	r.SetStaticRoute(simple.Prefix(10), model.Indirect(3))

	hops := r.Resolve(simple.Prefix(10), false)
	if len(hops) != 1 || hops[0] != 2 {
		t.Fatalf("expected next hop [2] toward router 3, got %v", hops)
	}
}

func TestResolveCollapsesToLexicographicallySmallestWithoutLoadBalance(t *testing.T) {
	r := newTestRouter(1)
	ospfProcess := r.OSPF.(*global.Global)
	ospfProcess.AddRouter(2)
	ospfProcess.AddRouter(3)
	ospfProcess.AddRouter(4)
	ospfProcess.Apply(model.AddLink(1, 2, 10, model.BackboneArea))
	ospfProcess.Apply(model.AddLink(2, 1, 10, model.BackboneArea))
	ospfProcess.Apply(model.AddLink(1, 3, 10, model.BackboneArea))
	ospfProcess.Apply(model.AddLink(3, 1, 10, model.BackboneArea))
	ospfProcess.Apply(model.AddLink(2, 4, 10, model.BackboneArea))
	ospfProcess.Apply(model.AddLink(4, 2, 10, model.BackboneArea))
	ospfProcess.Apply(model.AddLink(3, 4, 10, model.BackboneArea))
	ospfProcess.Apply(model.AddLink(4, 3, 10, model.BackboneArea))

	r.SetStaticRoute(simple.Prefix(10), model.Indirect(4))

	hops := r.Resolve(simple.Prefix(10), false)
	if len(hops) != 1 || hops[0] != 2 {
		t.Fatalf("expected collapse to smallest id [2], got %v", hops)
	}

	hops = r.Resolve(simple.Prefix(10), true)
	if len(hops) != 2 {
		t.Fatalf("expected both ECMP hops with load balancing enabled, got %v", hops)
	}
}

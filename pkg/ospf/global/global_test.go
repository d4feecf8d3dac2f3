package global

import (
	"testing"

	"github.com/routesim/routesim/pkg/model"
)

// TestInterAreaRedistributionPrefersLowerCostABR builds the shape of
// spec boundary scenario S6: two backbone (area 0) routers each
// dual-homed to two ABRs, which in turn both reach a single area-1
// router. It asserts that area-0 routers take the lower-cost ABR to
// reach the area-1 destination, and that raising that ABR's area-0-side
// link costs flips every area-0 router over to the other ABR.
func TestInterAreaRedistributionPrefersLowerCostABR(t *testing.T) {
	g := New()

	var l1, l2, abr1, abr2, r1 model.RouterId = 1, 2, 3, 4, 5
	for _, r := range []model.RouterId{l1, l2, abr1, abr2, r1} {
		g.AddRouter(r)
	}

	area0 := model.BackboneArea
	area1 := model.AreaId(1)

	link := func(a, b model.RouterId, weight int, area model.AreaId) {
		g.Apply(model.AddLink(a, b, weight, area))
		g.Apply(model.AddLink(b, a, weight, area))
	}

	// Area 0: L1 and L2 are each dual-homed to both ABRs. ABR1's area-0
	// side starts cheap (weight 1); ABR2's starts expensive (weight 5).
	link(l1, abr1, 1, area0)
	link(l2, abr1, 1, area0)
	link(l1, abr2, 5, area0)
	link(l2, abr2, 5, area0)

	// Area 1: both ABRs reach the sole area-1 router at equal cost, so
	// the area-0-side cost is what decides which ABR wins.
	link(abr1, r1, 1, area1)
	link(abr2, r1, 1, area1)

	assertNextHopVia := func(t *testing.T, from model.RouterId, viaCheapABR bool) {
		rib := g.RIB(from)
		entry, ok := rib[r1]
		if !ok {
			t.Fatalf("router %v has no RIB entry for %v", from, r1)
		}
		if entry.Class != model.ClassInterArea {
			t.Fatalf("expected inter-area class for %v's route to %v, got %v", from, r1, entry.Class)
		}
		wantCost := 2
		wantHop := abr1
		if !viaCheapABR {
			wantCost = 6
			wantHop = abr2
		}
		if entry.Cost != wantCost {
			t.Fatalf("router %v: expected cost %d to %v, got %d", from, wantCost, r1, entry.Cost)
		}
		found := false
		for _, h := range entry.NextHops {
			if h == wantHop {
				found = true
			}
		}
		if !found {
			t.Fatalf("router %v: expected next hop %v toward %v, got %v", from, wantHop, r1, entry.NextHops)
		}
	}

	assertNextHopVia(t, l1, true)
	assertNextHopVia(t, l2, true)

	// Raise ABR1's area-0-side cost above ABR2's: every area-0 router
	// must flip to ABR2.
	g.Apply(model.WeightChange(l1, abr1, 10))
	g.Apply(model.WeightChange(l2, abr1, 10))

	assertNextHopVia(t, l1, false)
	assertNextHopVia(t, l2, false)
}

// TestAreaChangeRetractsStaleRouterLSA covers a router that loses its
// last link in an area: its Router-LSA there must be retracted, not just
// left un-renewed, or Dijkstra keeps seeing an edge that no longer
// exists.
func TestAreaChangeRetractsStaleRouterLSA(t *testing.T) {
	g := New()
	var a, b model.RouterId = 1, 2
	g.AddRouter(a)
	g.AddRouter(b)

	area1 := model.AreaId(1)
	area2 := model.AreaId(2)
	g.Apply(model.AddLink(a, b, 1, area1))
	g.Apply(model.AddLink(b, a, 1, area1))

	if !g.IsReachable(a, b) {
		t.Fatalf("expected a to reach b once linked in area 1")
	}
	if areas := g.lsdb.RouterAreas(a); len(areas) != 1 || areas[0] != area1 {
		t.Fatalf("expected a's Router-LSA only in area 1, got %v", areas)
	}

	// Move the link to area 2: a no longer occupies area 1 at all.
	g.Apply(model.AreaChange(a, b, area2))
	g.Apply(model.AreaChange(b, a, area2))

	for _, area := range g.lsdb.RouterAreas(a) {
		if area == area1 {
			t.Fatalf("expected a's stale area-1 Router-LSA to be retracted, still present: %v", g.lsdb.RouterAreas(a))
		}
	}
	if !g.IsReachable(a, b) {
		t.Fatalf("expected a to still reach b after the area move")
	}
}

// TestRemoveRouterRetractsRouterLSA covers a router removed entirely: it
// drops out of the topology's node list, so it must be revisited
// explicitly or its stale Router-LSA lingers in the LSDB forever.
func TestRemoveRouterRetractsRouterLSA(t *testing.T) {
	g := New()
	var a, b model.RouterId = 1, 2
	g.AddRouter(a)
	g.AddRouter(b)

	g.Apply(model.AddLink(a, b, 1, model.BackboneArea))
	g.Apply(model.AddLink(b, a, 1, model.BackboneArea))
	if !g.IsReachable(a, b) {
		t.Fatalf("expected a to reach b before removal")
	}

	g.RemoveRouter(a)

	if areas := g.lsdb.RouterAreas(a); len(areas) != 0 {
		t.Fatalf("expected a's Router-LSA retracted from every area after removal, still in %v", areas)
	}
	if g.IsReachable(b, a) {
		t.Fatalf("expected b not to reach a after a was removed")
	}
}

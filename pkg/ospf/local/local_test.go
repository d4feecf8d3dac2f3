package local

import (
	"testing"

	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/ospf"
)

// drain feeds every message in a batch of Outcomes back through l until no
// further messages are produced, simulating the event queue draining a
// burst of OSPF protocol traffic between two directly connected routers.
func drain(l *Local, initial []ospf.Message) []model.RouterId {
	var changed []model.RouterId
	queue := append([]ospf.Message{}, initial...)
	for len(queue) > 0 {
		msg := queue[0]
		queue = queue[1:]
		out := l.HandleMessage(msg)
		queue = append(queue, out.Messages...)
		changed = append(changed, out.ChangedRouters...)
	}
	return changed
}

func TestNeighborsReachFullAfterBringUp(t *testing.T) {
	l := New()
	l.AddRouter(1)
	l.AddRouter(2)

	out := l.Apply(model.AddLink(1, 2, 10, model.BackboneArea))
	out2 := l.Apply(model.AddLink(2, 1, 10, model.BackboneArea))

	drain(l, out.Messages)
	drain(l, out2.Messages)

	na := l.neighborOf(1, 2)
	nb := l.neighborOf(2, 1)
	if na.state != stateFull || nb.state != stateFull {
		t.Fatalf("expected both neighbors Full, got %v / %v", na.state, nb.state)
	}
}

func TestConvergesToReachableAfterBringUp(t *testing.T) {
	l := New()
	l.AddRouter(1)
	l.AddRouter(2)
	l.AddRouter(3)

	drain(l, l.Apply(model.AddLink(1, 2, 10, model.BackboneArea)).Messages)
	drain(l, l.Apply(model.AddLink(2, 1, 10, model.BackboneArea)).Messages)
	drain(l, l.Apply(model.AddLink(2, 3, 10, model.BackboneArea)).Messages)
	drain(l, l.Apply(model.AddLink(3, 2, 10, model.BackboneArea)).Messages)

	if !l.IsReachable(1, 3) {
		t.Fatalf("expected 1 to reach 3 via 2 after flooding converges")
	}
}

func TestRemoveLinkDisconnectsRouters(t *testing.T) {
	l := New()
	l.AddRouter(1)
	l.AddRouter(2)

	drain(l, l.Apply(model.AddLink(1, 2, 10, model.BackboneArea)).Messages)
	drain(l, l.Apply(model.AddLink(2, 1, 10, model.BackboneArea)).Messages)
	if !l.IsReachable(1, 2) {
		t.Fatalf("expected initial reachability")
	}

	l.Apply(model.RemoveLink(1, 2))
	l.Apply(model.RemoveLink(2, 1))

	if l.IsReachable(1, 2) {
		t.Fatalf("expected 1 to no longer reach 2 after both directions removed")
	}
}

// TestAreaChangeRetractsStaleRouterLSA covers a router that loses its
// last link in an area: its Router-LSA there must be retracted, not just
// left un-renewed, and the retraction must flood out like any other
// originated LSA.
func TestAreaChangeRetractsStaleRouterLSA(t *testing.T) {
	l := New()
	l.AddRouter(1)
	l.AddRouter(2)

	area1 := model.AreaId(1)
	area2 := model.AreaId(2)
	drain(l, l.Apply(model.AddLink(1, 2, 10, area1)).Messages)
	drain(l, l.Apply(model.AddLink(2, 1, 10, area1)).Messages)

	if areas := l.lsdb.RouterAreas(1); len(areas) != 1 || areas[0] != area1 {
		t.Fatalf("expected router 1's Router-LSA only in area 1, got %v", areas)
	}

	drain(l, l.Apply(model.AreaChange(1, 2, area2)).Messages)
	drain(l, l.Apply(model.AreaChange(2, 1, area2)).Messages)

	for _, area := range l.lsdb.RouterAreas(1) {
		if area == area1 {
			t.Fatalf("expected router 1's stale area-1 Router-LSA retracted, still present: %v", l.lsdb.RouterAreas(1))
		}
	}
	if !l.IsReachable(1, 2) {
		t.Fatalf("expected 1 to still reach 2 after the area move")
	}
}

// TestRemoveRouterRetractsRouterLSA covers a router removed entirely: it
// drops out of the topology's node list, so originateRouterLSA must be
// triggered explicitly on removal or its stale Router-LSA lingers.
func TestRemoveRouterRetractsRouterLSA(t *testing.T) {
	l := New()
	l.AddRouter(1)
	l.AddRouter(2)

	drain(l, l.Apply(model.AddLink(1, 2, 10, model.BackboneArea)).Messages)
	drain(l, l.Apply(model.AddLink(2, 1, 10, model.BackboneArea)).Messages)
	if !l.IsReachable(1, 2) {
		t.Fatalf("expected initial reachability")
	}

	l.RemoveRouter(1)

	if areas := l.lsdb.RouterAreas(1); len(areas) != 0 {
		t.Fatalf("expected router 1's Router-LSA retracted from every area after removal, still in %v", areas)
	}
	if l.IsReachable(2, 1) {
		t.Fatalf("expected 2 not to reach 1 after 1 was removed")
	}
}

func TestExternalNetworkReachableAfterConvergence(t *testing.T) {
	l := New()
	l.AddRouter(1)
	l.AddRouter(2)
	drain(l, l.Apply(model.AddLink(1, 2, 5, model.BackboneArea)).Messages)
	drain(l, l.Apply(model.AddLink(2, 1, 5, model.BackboneArea)).Messages)

	l.Apply(model.AddExternalNetwork(2, 99, 1))

	rib := l.RIB(1)
	entry, ok := rib[99]
	if !ok {
		t.Fatalf("expected router 1 to learn external network 99")
	}
	if entry.Cost != 6 {
		t.Fatalf("expected cost 5+1=6 to external network, got %d", entry.Cost)
	}
	if entry.Class != model.ClassExternal {
		t.Fatalf("expected ClassExternal, got %v", entry.Class)
	}
}

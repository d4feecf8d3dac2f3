package sim

import (
	"testing"

	"github.com/routesim/routesim/pkg/bgp"
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/ospf/global"
	"github.com/routesim/routesim/pkg/prefix"
	"github.com/routesim/routesim/pkg/prefix/simple"
	"github.com/routesim/routesim/pkg/queue"
)

func newTestNetwork() *Network[simple.Prefix] {
	return New[simple.Prefix](
		global.New(),
		queue.NewFIFO[simple.Prefix](),
		func() prefix.Map[simple.Prefix, bgp.RIBEntry[simple.Prefix]] { return simple.NewMap[bgp.RIBEntry[simple.Prefix]]() },
		func() prefix.Map[simple.Prefix, model.StaticRoute] { return simple.NewMap[model.StaticRoute]() },
		simple.NewSet,
	)
}

func TestAddLinkAndRemoveLinkUpdateAdjacency(t *testing.T) {
	n := newTestNetwork()
	a := n.AddRouter("r1", 65000)
	b := n.AddRouter("r2", 65000)

	if err := n.AddLink(a, b); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if !n.ospfProcess.IsReachable(a, b) {
		t.Fatalf("expected a to reach b after AddLink")
	}
	if err := n.RemoveLink(a, b); err != nil {
		t.Fatalf("RemoveLink: %v", err)
	}
	if n.ospfProcess.IsReachable(a, b) {
		t.Fatalf("expected a not to reach b after RemoveLink")
	}
}

func TestAddLinkRejectsTwoExternalRouters(t *testing.T) {
	n := newTestNetwork()
	a := n.AddExternalRouter("ext1", 65001)
	b := n.AddExternalRouter("ext2", 65002)

	if err := n.AddLink(a, b); err == nil {
		t.Fatalf("expected error connecting two external routers")
	}
}

func TestBGPSessionEstablishesBetweenDirectlyConnectedRouters(t *testing.T) {
	n := newTestNetwork()
	a := n.AddRouter("r1", 65000)
	b := n.AddRouter("r2", 65000)
	if err := n.AddLink(a, b); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if err := n.SetBGPSession(a, b, true, false); err != nil {
		t.Fatalf("SetBGPSession: %v", err)
	}
	ra, _ := n.Router(a)
	if !ra.BGP.HasSession(b) {
		t.Fatalf("expected session established between a and b")
	}
}

func TestBGPSessionDeactivatesWhenOSPFReachabilityIsLost(t *testing.T) {
	n := newTestNetwork()
	a := n.AddRouter("r1", 65000)
	b := n.AddRouter("r2", 65000)
	c := n.AddRouter("r3", 65000)
	mustLink(t, n, a, b)
	mustLink(t, n, b, c)

	if err := n.SetBGPSession(a, c, true, false); err != nil {
		t.Fatalf("SetBGPSession: %v", err)
	}
	ra, _ := n.Router(a)
	if !ra.BGP.HasSession(c) {
		t.Fatalf("expected a-c session active while b is up")
	}

	if err := n.RemoveLink(b, c); err != nil {
		t.Fatalf("RemoveLink: %v", err)
	}
	if err := n.RemoveLink(c, b); err != nil {
		t.Fatalf("RemoveLink: %v", err)
	}
	if ra.BGP.HasSession(c) {
		t.Fatalf("expected a-c session to be purged once OSPF reachability is lost")
	}
}

func TestExternalRouteAdvertisementReachesInternalRouterLocRIB(t *testing.T) {
	n := newTestNetwork()
	internal := n.AddRouter("r1", 65000)
	ext := n.AddExternalRouter("ext1", 65001)
	mustLink(t, n, internal, ext)

	if err := n.SetBGPSession(internal, ext, true, false); err != nil {
		t.Fatalf("SetBGPSession: %v", err)
	}
	if err := n.AdvertiseExternalRoute(ext, simple.Prefix(7), model.ASPath{65001}, 0, nil); err != nil {
		t.Fatalf("AdvertiseExternalRoute: %v", err)
	}

	ri, _ := n.Router(internal)
	entry, ok := ri.BGP.LocRIBEntry(simple.Prefix(7))
	if !ok {
		t.Fatalf("expected prefix 7 to be installed in r1's Loc-RIB")
	}
	if entry.Route.NextHop != ext {
		t.Fatalf("expected next hop %v, got %v", ext, entry.Route.NextHop)
	}
}

func TestRemoveRouterTearsDownSessions(t *testing.T) {
	n := newTestNetwork()
	a := n.AddRouter("r1", 65000)
	b := n.AddRouter("r2", 65000)
	mustLink(t, n, a, b)
	if err := n.SetBGPSession(a, b, true, false); err != nil {
		t.Fatalf("SetBGPSession: %v", err)
	}

	if err := n.RemoveRouter(b); err != nil {
		t.Fatalf("RemoveRouter: %v", err)
	}
	if _, ok := n.Router(b); ok {
		t.Fatalf("expected router b to be gone")
	}
}

func TestManualSimulationDefersConvergence(t *testing.T) {
	n := newTestNetwork()
	n.ManualSimulation()
	a := n.AddRouter("r1", 65000)
	b := n.AddRouter("r2", 65000)
	if err := n.AddLink(a, b); err != nil {
		t.Fatalf("AddLink: %v", err)
	}
	if err := n.SetBGPSession(a, b, true, false); err != nil {
		t.Fatalf("SetBGPSession: %v", err)
	}

	if n.queue.IsEmpty() {
		t.Fatalf("expected pending events under manual simulation")
	}
	for {
		_, progressed, err := n.SimulateStep()
		if err != nil {
			t.Fatalf("SimulateStep: %v", err)
		}
		if !progressed {
			break
		}
	}
	ra, _ := n.Router(a)
	if !ra.BGP.HasSession(b) {
		t.Fatalf("expected session established after draining manually")
	}
}

func mustLink(t *testing.T, n *Network[simple.Prefix], a, b model.RouterId) {
	t.Helper()
	if err := n.AddLink(a, b); err != nil {
		t.Fatalf("AddLink(%v,%v): %v", a, b, err)
	}
}

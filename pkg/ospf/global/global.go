// Package global implements the centralized OSPF realization of the
// Process contract: every neighborhood change triggers a
// synchronous recompute of the LSDB and RIBs, with no OSPF messages
// emitted — appropriate for experiments that don't need to observe OSPF
// convergence itself.
package global

import (
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/ospf"
)

// Global is the centralized OSPF coordinator.
type Global struct {
	topo *ospf.Topology
	lsdb *ospf.LSDB
	ribs map[model.RouterId]map[model.RouterId]model.OSPFRIBEntry
	seq  map[model.RouterId]int32
}

// New returns an empty Global coordinator.
func New() *Global {
	return &Global{
		topo: ospf.NewTopology(),
		lsdb: ospf.NewLSDB(),
		ribs: make(map[model.RouterId]map[model.RouterId]model.OSPFRIBEntry),
		seq:  make(map[model.RouterId]int32),
	}
}

// AddRouter registers r with the topology.
func (g *Global) AddRouter(r model.RouterId) { g.topo.AddNode(r) }

// RemoveRouter tears down r's links and recomputes, returning every
// router whose RIB changed.
func (g *Global) RemoveRouter(r model.RouterId) ospf.Outcome {
	g.topo.RemoveNode(r)
	return ospf.Outcome{ChangedRouters: g.recompute()}
}

// Apply folds change into the topology and recomputes every RIB,
// returning the routers whose RIB changed as a result. Global never
// emits OSPF messages.
func (g *Global) Apply(change model.NeighborhoodChange) ospf.Outcome {
	g.applyChange(change)
	return ospf.Outcome{ChangedRouters: g.recompute()}
}

// HandleMessage is a no-op: Global never emits or expects OSPF protocol
// messages.
func (g *Global) HandleMessage(ospf.Message) ospf.Outcome { return ospf.Outcome{} }

func (g *Global) applyChange(change model.NeighborhoodChange) {
	switch change.Kind {
	case model.ChangeAddLink:
		g.topo.SetLink(change.A, change.B, change.Weight, change.Area)
	case model.ChangeRemoveLink:
		g.topo.RemoveLink(change.A, change.B)
	case model.ChangeWeightChange:
		if link, ok := g.topo.Link(change.A, change.B); ok {
			g.topo.SetLink(change.A, change.B, change.Weight, link.Area)
		}
	case model.ChangeAreaChange:
		if link, ok := g.topo.Link(change.A, change.B); ok {
			g.topo.SetLink(change.A, change.B, link.Weight, change.Area)
		}
		if link, ok := g.topo.Link(change.B, change.A); ok {
			g.topo.SetLink(change.B, change.A, link.Weight, change.Area)
		}
	case model.ChangeAddExternalNetwork:
		key := model.LsaKey{Type: model.LsaExternal, Advertiser: change.A, Target: change.B}
		seq := g.seq[change.A]
		g.seq[change.A] = seq + 1
		g.lsdb.InstallExternal(model.LSA{
			Key:          key,
			Sequence:     seq,
			ExternalCost: change.Weight,
		})
	case model.ChangeRemoveExternalNetwork:
		g.lsdb.RemoveExternal(model.LsaKey{Type: model.LsaExternal, Advertiser: change.A, Target: change.B})
	case model.ChangeBatch:
		for _, sub := range change.Batch {
			g.applyChange(sub)
		}
	}
}

// recompute rebuilds the Router-LSAs from the topology, recomputes every
// RIB, and reports which routers' RIBs changed.
func (g *Global) recompute() []model.RouterId {
	g.rebuildRouterLSAs()
	newRIBs := ospf.RIBs(g.topo, g.lsdb)

	var changed []model.RouterId
	for r, rib := range newRIBs {
		if !ribEqual(g.ribs[r], rib) {
			changed = append(changed, r)
		}
	}
	for r := range g.ribs {
		if _, ok := newRIBs[r]; !ok {
			changed = append(changed, r)
		}
	}
	g.ribs = newRIBs
	return changed
}

// rebuildRouterLSAs rebuilds every router's per-area Router-LSA from the
// current topology. A router that no longer has any link in an area it
// previously advertised into (including one removed from the topology
// entirely) has its stale LSA there retracted, not just left un-renewed.
func (g *Global) rebuildRouterLSAs() {
	routers := make(map[model.RouterId]bool)
	for _, r := range g.topo.Nodes() {
		routers[r] = true
	}
	for _, r := range g.lsdb.RouterAdvertisers() {
		routers[r] = true
	}

	for r := range routers {
		byArea := make(map[model.AreaId][]model.RouterLink)
		for _, n := range g.topo.Neighbors(r) {
			link, _ := g.topo.Link(r, n)
			byArea[link.Area] = append(byArea[link.Area], model.RouterLink{Target: n, Weight: link.Weight})
		}

		key := model.LsaKey{Type: model.LsaRouter, Advertiser: r}
		for _, area := range g.lsdb.RouterAreas(r) {
			if _, ok := byArea[area]; !ok {
				g.lsdb.Remove(area, key)
			}
		}

		for area, links := range byArea {
			seq := g.seq[r]
			g.seq[r] = seq + 1
			g.lsdb.Install(area, model.LSA{
				Key:         key,
				Sequence:    seq,
				RouterLinks: links,
			})
		}
	}
}

func ribEqual(a, b map[model.RouterId]model.OSPFRIBEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for dest, ea := range a {
		eb, ok := b[dest]
		if !ok || ea.Cost != eb.Cost || ea.Class != eb.Class || len(ea.NextHops) != len(eb.NextHops) {
			return false
		}
		seen := make(map[model.RouterId]bool, len(ea.NextHops))
		for _, h := range ea.NextHops {
			seen[h] = true
		}
		for _, h := range eb.NextHops {
			if !seen[h] {
				return false
			}
		}
	}
	return true
}

// RIB returns r's current OSPF RIB.
func (g *Global) RIB(r model.RouterId) map[model.RouterId]model.OSPFRIBEntry { return g.ribs[r] }

// IsReachable reports whether b is reachable from a at finite cost.
func (g *Global) IsReachable(a, b model.RouterId) bool {
	entry, ok := g.ribs[a][b]
	return ok && entry.Cost < model.InfiniteCost
}

var _ ospf.Process = (*Global)(nil)

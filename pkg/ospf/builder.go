package ospf

import "github.com/routesim/routesim/pkg/model"

// RIBs is a full recompute of every router's OSPF RIB from the current
// topology and link-state database: intra-area SPTs, inter-area summary
// redistribution through the backbone, and AS-external extension. It is
// invoked in full on every neighborhood change rather than incrementally
// recomputing only the marked deltas a staged update algorithm would
// touch; the result is observationally identical (the per-router RIBs
// are a pure function of the LSDB and topology), at the cost of doing
// unnecessary work on unaffected areas. See DESIGN.md for the tradeoff.
func RIBs(topo *Topology, lsdb *LSDB) map[model.RouterId]map[model.RouterId]model.OSPFRIBEntry {
	areas := areaSet(topo, lsdb)

	intraSPT := make(map[model.AreaId]map[model.RouterId]map[model.RouterId]model.SPTNode, len(areas))
	for area := range areas {
		routerLSAs := lsdb.RouterLSAsInArea(area)
		perRoot := make(map[model.RouterId]map[model.RouterId]model.SPTNode, len(routerLSAs))
		for root := range routerLSAs {
			perRoot[root] = ComputeSPT(root, routerLSAs)
		}
		intraSPT[area] = perRoot
	}

	abrSet := make(map[model.RouterId]bool)
	for _, r := range ABRs(topo) {
		abrSet[r] = true
	}

	backboneInter := make(map[model.RouterId]map[model.RouterId]model.SPTNode)

	// Redistribute each stub area's intra-area knowledge into the backbone.
	for area := range areas {
		if area == model.BackboneArea {
			continue
		}
		for abr := range abrSet {
			if !inArea(topo, abr, area) || !inArea(topo, abr, model.BackboneArea) {
				continue
			}
			abrSPT, ok := intraSPT[area][abr]
			if !ok {
				continue
			}
			redistributeInto(backboneInter, intraSPT[model.BackboneArea], abr, abrSPT, area, topo)
		}
	}

	// Redistribute the backbone's combined (intra + just-computed inter)
	// knowledge into every non-backbone area.
	areaInter := make(map[model.AreaId]map[model.RouterId]map[model.RouterId]model.SPTNode)
	backboneRIB := combine(intraSPT[model.BackboneArea], backboneInter)
	for area := range areas {
		if area == model.BackboneArea {
			continue
		}
		inter := make(map[model.RouterId]map[model.RouterId]model.SPTNode)
		for abr := range abrSet {
			if !inArea(topo, abr, area) || !inArea(topo, abr, model.BackboneArea) {
				continue
			}
			abrRIB, ok := backboneRIB[abr]
			if !ok {
				continue
			}
			redistributeInto(inter, intraSPT[area], abr, abrRIB, model.BackboneArea, topo)
		}
		areaInter[area] = inter
	}

	// Assemble the intra/inter-area OSPF core RIB per router.
	core := make(map[model.RouterId]map[model.RouterId]model.OSPFRIBEntry)
	for _, r := range topo.Nodes() {
		dest := make(map[model.RouterId]model.OSPFRIBEntry)
		for area := range topo.AreasOf(r) {
			var intra, inter map[model.RouterId]model.SPTNode
			if perRoot, ok := intraSPT[area]; ok {
				intra = perRoot[r]
			}
			if area == model.BackboneArea {
				inter = backboneInter[r]
			} else {
				inter = areaInter[area][r]
			}
			mergeEntries(dest, intra, area, model.ClassIntraArea)
			mergeEntries(dest, inter, area, model.ClassInterArea)
		}
		core[r] = dest
	}

	// AS-external extension: every router gains a candidate for each
	// External-LSA's target, via its best known cost to the advertiser.
	for _, ext := range lsdb.ExternalLSAs() {
		advertiser := ext.Key.Advertiser
		target := ext.Key.Target
		for _, dest := range core {
			toAdv, ok := dest[advertiser]
			if !ok || toAdv.Cost >= model.InfiniteCost {
				continue
			}
			candidate := model.OSPFRIBEntry{
				Destination: target,
				Cost:        toAdv.Cost + ext.ExternalCost,
				NextHops:    toAdv.NextHops,
				Class:       model.ClassExternal,
			}
			mergeOSPFEntry(dest, candidate)
		}
	}

	return core
}

func areaSet(topo *Topology, lsdb *LSDB) map[model.AreaId]bool {
	out := make(map[model.AreaId]bool)
	for _, r := range topo.Nodes() {
		for a := range topo.AreasOf(r) {
			out[a] = true
		}
	}
	for _, a := range lsdb.Areas() {
		out[a] = true
	}
	return out
}

func inArea(topo *Topology, r model.RouterId, area model.AreaId) bool {
	return topo.AreasOf(r)[area]
}

// redistributeInto originates a Summary-LSA from abr (with intra-area
// knowledge abrSPT in sourceArea) into the target area's inter map,
// skipping destinations already native to the target area (exclusion i)
// and inter-area source paths (exclusion iii — callers only ever pass
// intra-area source SPTs from sourceArea == backbone or a stub, which is
// sufficient since this function is only ever called with a freshly
// computed intra-area or already-redistributed backbone RIB).
func redistributeInto(target map[model.RouterId]map[model.RouterId]model.SPTNode, targetAreaSPT map[model.RouterId]map[model.RouterId]model.SPTNode, abr model.RouterId, abrSPT map[model.RouterId]model.SPTNode, sourceArea model.AreaId, topo *Topology) {
	for destination, node := range abrSPT {
		if node.Cost >= model.InfiniteCost {
			continue
		}
		if destination == abr {
			continue
		}
		if _, native := targetAreaSPT[destination]; native {
			continue
		}
		for r, rSPT := range targetAreaSPT {
			toABR, ok := rSPT[abr]
			if r == abr {
				toABR = model.SPTNode{Cost: 0}
				ok = true
			}
			if !ok {
				continue
			}
			candidateCost := toABR.Cost + node.Cost
			hops := toABR.FirstHops
			if r == abr {
				hops = node.FirstHops
			}
			byDest, exists := target[r]
			if !exists {
				byDest = make(map[model.RouterId]model.SPTNode)
				target[r] = byDest
			}
			existing, had := byDest[destination]
			switch {
			case !had || candidateCost < existing.Cost:
				byDest[destination] = model.SPTNode{Destination: destination, Cost: candidateCost, FirstHops: append([]model.RouterId{}, hops...), InterArea: true}
			case candidateCost == existing.Cost:
				byDest[destination] = model.SPTNode{Destination: destination, Cost: candidateCost, FirstHops: unionRouterIds(existing.FirstHops, hops), InterArea: true}
			}
		}
	}
}

// combine merges intra and inter SPTs per router, intra taking priority.
func combine(intra map[model.RouterId]map[model.RouterId]model.SPTNode, inter map[model.RouterId]map[model.RouterId]model.SPTNode) map[model.RouterId]map[model.RouterId]model.SPTNode {
	out := make(map[model.RouterId]map[model.RouterId]model.SPTNode)
	for r, dest := range intra {
		cp := make(map[model.RouterId]model.SPTNode, len(dest))
		for d, n := range dest {
			cp[d] = n
		}
		out[r] = cp
	}
	for r, dest := range inter {
		cp, ok := out[r]
		if !ok {
			cp = make(map[model.RouterId]model.SPTNode)
			out[r] = cp
		}
		for d, n := range dest {
			if _, has := cp[d]; !has {
				cp[d] = n
			}
		}
	}
	return out
}

func mergeEntries(dest map[model.RouterId]model.OSPFRIBEntry, spt map[model.RouterId]model.SPTNode, area model.AreaId, class model.RIBClass) {
	for d, node := range spt {
		mergeOSPFEntry(dest, model.OSPFRIBEntry{
			Destination: d,
			Cost:        node.Cost,
			NextHops:    node.FirstHops,
			Areas:       []model.AreaId{area},
			Class:       class,
		})
	}
}

// mergeOSPFEntry folds candidate into dest[candidate.Destination]: ties
// favor intra-area over inter-area over external; within a class,
// minimum cost wins, and on equal cost the first-hop sets are unioned.
func mergeOSPFEntry(dest map[model.RouterId]model.OSPFRIBEntry, candidate model.OSPFRIBEntry) {
	existing, ok := dest[candidate.Destination]
	if !ok {
		dest[candidate.Destination] = candidate
		return
	}
	if candidate.Class != existing.Class {
		if candidate.Class < existing.Class {
			dest[candidate.Destination] = candidate
		}
		return
	}
	switch {
	case candidate.Cost < existing.Cost:
		dest[candidate.Destination] = candidate
	case candidate.Cost == existing.Cost:
		existing.NextHops = unionRouterIds(existing.NextHops, candidate.NextHops)
		existing.Areas = append(existing.Areas, candidate.Areas...)
		dest[candidate.Destination] = existing
	}
}

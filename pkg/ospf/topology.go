// Package ospf implements the OSPF link-state database and the
// SPT/RIB builder shared by both the global and local coordinator
// realizations, in the global and local subpackages.
package ospf

import "github.com/routesim/routesim/pkg/model"

// Link is one directed edge of the IGP topology: a weight and the area
// both endpoints have agreed to share (area is configured per undirected
// pair, weight per direction).
type Link struct {
	Weight int
	Area   model.AreaId
}

// Topology is the directed multigraph the OSPF engine runs Dijkstra over.
// Edge weight is directional; area membership of an edge is shared by
// convention (set_ospf_area always updates both directions together).
type Topology struct {
	links map[model.RouterId]map[model.RouterId]Link
}

// NewTopology returns an empty Topology.
func NewTopology() *Topology {
	return &Topology{links: make(map[model.RouterId]map[model.RouterId]Link)}
}

// AddNode ensures r has an (initially empty) adjacency row.
func (t *Topology) AddNode(r model.RouterId) {
	if _, ok := t.links[r]; !ok {
		t.links[r] = make(map[model.RouterId]Link)
	}
}

// SetLink installs or overwrites the directed edge a->b.
func (t *Topology) SetLink(a, b model.RouterId, weight int, area model.AreaId) {
	t.AddNode(a)
	t.links[a][b] = Link{Weight: weight, Area: area}
}

// RemoveLink removes the directed edge a->b, if present.
func (t *Topology) RemoveLink(a, b model.RouterId) {
	if row, ok := t.links[a]; ok {
		delete(row, b)
	}
}

// RemoveNode removes r and every edge referencing it.
func (t *Topology) RemoveNode(r model.RouterId) {
	delete(t.links, r)
	for _, row := range t.links {
		delete(row, r)
	}
}

// Link returns the directed edge a->b, if present.
func (t *Topology) Link(a, b model.RouterId) (Link, bool) {
	row, ok := t.links[a]
	if !ok {
		return Link{}, false
	}
	l, ok := row[b]
	return l, ok
}

// Neighbors returns every router r has a directed edge to.
func (t *Topology) Neighbors(r model.RouterId) []model.RouterId {
	row, ok := t.links[r]
	if !ok {
		return nil
	}
	out := make([]model.RouterId, 0, len(row))
	for n := range row {
		out = append(out, n)
	}
	return out
}

// Nodes returns every router with an adjacency row (added via AddNode or
// as the source of SetLink).
func (t *Topology) Nodes() []model.RouterId {
	out := make([]model.RouterId, 0, len(t.links))
	for r := range t.links {
		out = append(out, r)
	}
	return out
}

// NodesInArea returns every router that has at least one edge (in either
// direction) belonging to area.
func (t *Topology) NodesInArea(area model.AreaId) []model.RouterId {
	seen := make(map[model.RouterId]bool)
	for a, row := range t.links {
		for b, link := range row {
			if link.Area == area {
				seen[a] = true
				seen[b] = true
			}
		}
	}
	out := make([]model.RouterId, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	return out
}

// AreasOf returns the set of areas r has at least one edge in.
func (t *Topology) AreasOf(r model.RouterId) map[model.AreaId]bool {
	areas := make(map[model.AreaId]bool)
	if row, ok := t.links[r]; ok {
		for _, link := range row {
			areas[link.Area] = true
		}
	}
	for a, row := range t.links {
		if a == r {
			continue
		}
		if link, ok := row[r]; ok {
			areas[link.Area] = true
		}
	}
	return areas
}

package ospf

import "github.com/routesim/routesim/pkg/model"

// LSDB is the per-AS link-state database: per-area LSA maps plus a single
// AS-external map.
type LSDB struct {
	areas    map[model.AreaId]map[model.LsaKey]model.LSA
	external map[model.LsaKey]model.LSA
}

// NewLSDB returns an empty database.
func NewLSDB() *LSDB {
	return &LSDB{
		areas:    make(map[model.AreaId]map[model.LsaKey]model.LSA),
		external: make(map[model.LsaKey]model.LSA),
	}
}

// Install stores lsa in area if it is strictly newer than what's already
// there (per model.LSA.Compare), returning true if it was installed.
func (d *LSDB) Install(area model.AreaId, lsa model.LSA) bool {
	tbl, ok := d.areas[area]
	if !ok {
		tbl = make(map[model.LsaKey]model.LSA)
		d.areas[area] = tbl
	}
	existing, had := tbl[lsa.Key]
	if had && existing.Compare(lsa) != model.LsaOlder {
		return false
	}
	tbl[lsa.Key] = lsa
	return true
}

// InstallExternal stores an External-LSA in the AS-wide (non-area-scoped)
// table if strictly newer.
func (d *LSDB) InstallExternal(lsa model.LSA) bool {
	existing, had := d.external[lsa.Key]
	if had && existing.Compare(lsa) != model.LsaOlder {
		return false
	}
	d.external[lsa.Key] = lsa
	return true
}

// Get returns the stored LSA for key in area.
func (d *LSDB) Get(area model.AreaId, key model.LsaKey) (model.LSA, bool) {
	tbl, ok := d.areas[area]
	if !ok {
		return model.LSA{}, false
	}
	lsa, ok := tbl[key]
	return lsa, ok
}

// Remove deletes the LSA for key from area.
func (d *LSDB) Remove(area model.AreaId, key model.LsaKey) {
	if tbl, ok := d.areas[area]; ok {
		delete(tbl, key)
	}
}

// External returns the stored External-LSA for key.
func (d *LSDB) External(key model.LsaKey) (model.LSA, bool) {
	lsa, ok := d.external[key]
	return lsa, ok
}

// RemoveExternal deletes an External-LSA.
func (d *LSDB) RemoveExternal(key model.LsaKey) {
	delete(d.external, key)
}

// RouterAreas returns every area where r currently has an installed
// Router-LSA, used to detect areas a router no longer occupies so its
// stale LSA there can be retracted.
func (d *LSDB) RouterAreas(r model.RouterId) []model.AreaId {
	key := model.LsaKey{Type: model.LsaRouter, Advertiser: r}
	var out []model.AreaId
	for area, tbl := range d.areas {
		if _, ok := tbl[key]; ok {
			out = append(out, area)
		}
	}
	return out
}

// RouterAdvertisers returns every router id with at least one installed
// Router-LSA, in any area. A router dropped entirely from a Topology
// still has an entry here until its stale LSAs are explicitly retracted.
func (d *LSDB) RouterAdvertisers() []model.RouterId {
	seen := make(map[model.RouterId]bool)
	for _, tbl := range d.areas {
		for key := range tbl {
			if key.Type == model.LsaRouter {
				seen[key.Advertiser] = true
			}
		}
	}
	out := make([]model.RouterId, 0, len(seen))
	for r := range seen {
		out = append(out, r)
	}
	return out
}

// RouterLSAsInArea returns every Router-LSA installed in area, keyed by
// advertising router.
func (d *LSDB) RouterLSAsInArea(area model.AreaId) map[model.RouterId]model.LSA {
	out := make(map[model.RouterId]model.LSA)
	tbl, ok := d.areas[area]
	if !ok {
		return out
	}
	for key, lsa := range tbl {
		if key.Type == model.LsaRouter {
			out[key.Advertiser] = lsa
		}
	}
	return out
}

// SummaryLSAsInArea returns every Summary-LSA installed in area as a
// slice; each LSA's Key carries its (advertiser, target).
func (d *LSDB) SummaryLSAsInArea(area model.AreaId) []model.LSA {
	tbl, ok := d.areas[area]
	if !ok {
		return nil
	}
	var out []model.LSA
	for key, lsa := range tbl {
		if key.Type == model.LsaSummary {
			out = append(out, lsa)
		}
	}
	return out
}

// ExternalLSAs returns every installed External-LSA.
func (d *LSDB) ExternalLSAs() []model.LSA {
	out := make([]model.LSA, 0, len(d.external))
	for _, lsa := range d.external {
		out = append(out, lsa)
	}
	return out
}

// Areas returns every area id with at least one installed LSA.
func (d *LSDB) Areas() []model.AreaId {
	out := make([]model.AreaId, 0, len(d.areas))
	for a := range d.areas {
		out = append(out, a)
	}
	return out
}

// ABRs returns every router that is a member of the backbone and at
// least one non-backbone area, per the GLOSSARY's ABR definition, derived
// from the router-membership computed from a Topology.
func ABRs(topo *Topology) []model.RouterId {
	var out []model.RouterId
	for _, r := range topo.Nodes() {
		areas := topo.AreasOf(r)
		if !areas[model.BackboneArea] {
			continue
		}
		for a := range areas {
			if a != model.BackboneArea {
				out = append(out, r)
				break
			}
		}
	}
	return out
}

// Package bgp implements the per-router BGP process: RIB-In,
// Loc-RIB, RIB-Out, the decision process, route-map application,
// dissemination, and route-reflection bookkeeping.
package bgp

import (
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/prefix"
)

// Route is a BGP route as carried between RIB-In, Loc-RIB, and RIB-Out.
// LocalPref and MED are pointers so "unset" (default applies) is
// distinguishable from "explicitly set to the default value".
type Route[P prefix.Key] struct {
	Prefix       P
	ASPath       model.ASPath
	NextHop      model.RouterId
	LocalPref    *int
	MED          *int
	Communities  model.CommunitySet
	OriginatorId *model.RouterId
	ClusterList  model.ClusterList
}

// Clone returns a deep copy safe for independent mutation.
func (r Route[P]) Clone() Route[P] {
	out := r
	if r.LocalPref != nil {
		v := *r.LocalPref
		out.LocalPref = &v
	}
	if r.MED != nil {
		v := *r.MED
		out.MED = &v
	}
	if r.OriginatorId != nil {
		v := *r.OriginatorId
		out.OriginatorId = &v
	}
	out.ASPath = append(model.ASPath{}, r.ASPath...)
	out.Communities = append(model.CommunitySet{}, r.Communities...)
	out.ClusterList = append(model.ClusterList{}, r.ClusterList...)
	return out
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// localPrefOrDefault returns the route's local-pref, defaulting to 100.
func (r Route[P]) localPrefOrDefault() int { return intOr(r.LocalPref, 100) }

// medOrDefault returns the route's MED, defaulting to 0.
func (r Route[P]) medOrDefault() int { return intOr(r.MED, 0) }

// Equal reports whether two routes carry the same fields, used to decide
// whether a RIB-Out entry needs to be re-advertised: compare the final
// route to RIB-Out[prefix][peer].
func (r Route[P]) Equal(o Route[P]) bool {
	if r.Prefix != o.Prefix || r.NextHop != o.NextHop {
		return false
	}
	if !r.ASPath.Equal(o.ASPath) {
		return false
	}
	if r.localPrefOrDefault() != o.localPrefOrDefault() {
		return false
	}
	if r.medOrDefault() != o.medOrDefault() {
		return false
	}
	if !r.Communities.Equal(o.Communities) {
		return false
	}
	if (r.OriginatorId == nil) != (o.OriginatorId == nil) {
		return false
	}
	if r.OriginatorId != nil && *r.OriginatorId != *o.OriginatorId {
		return false
	}
	if !r.ClusterList.Equal(o.ClusterList) {
		return false
	}
	return true
}

// RIBEntry is a Route plus its derived fields.
type RIBEntry[P prefix.Key] struct {
	Route           Route[P]
	Peer            model.RouterId    // learned from (meaningful in RIB-In/Loc-RIB)
	PeerSessionType model.SessionType // session type of Peer at reception time
	IGPCost         int
	ToPeer          model.RouterId // destined to (only populated in RIB-Out)
	HasToPeer       bool
	Weight          int // router-local preference, default 100
}

// Equal reports whether two RIB entries are identical across both the
// route and every derived field, the "differs" comparison used to decide
// whether the decision process needs to re-run dissemination.
func (e RIBEntry[P]) Equal(o RIBEntry[P]) bool {
	return e.Route.Equal(o.Route) &&
		e.Peer == o.Peer &&
		e.PeerSessionType == o.PeerSessionType &&
		e.IGPCost == o.IGPCost &&
		e.ToPeer == o.ToPeer &&
		e.HasToPeer == o.HasToPeer &&
		e.Weight == o.Weight
}

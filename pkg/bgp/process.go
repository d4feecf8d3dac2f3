package bgp

import (
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/prefix"
	"github.com/routesim/routesim/pkg/routemap"
	"github.com/routesim/routesim/pkg/simlog"
)

// EventKind discriminates the two BGP message kinds the process exchanges
// with its peers.
type EventKind int

const (
	EventUpdate EventKind = iota
	EventWithdraw
)

// Event is a BGP message in flight on the event queue, addressed to
// Target and carrying, for EventUpdate, the advertised Route.
type Event[P prefix.Key] struct {
	Kind    EventKind
	Target  model.RouterId
	From    model.RouterId
	Prefix  P
	Route   Route[P]
}

// NewMapFunc and NewSetFunc are the constructor closures a caller supplies
// to parameterize a Process over a concrete prefix kind, since Go cannot
// express "the map/set constructor for P" as a value independent of the
// call site that fixes P. See pkg/prefix's doc comment for the rationale.
type NewMapFunc[P prefix.Key, V any] func() prefix.Map[P, V]
type NewSetFunc[P prefix.Key] func() prefix.Set[P]

// Process is the per-router BGP speaker: RIB-In, Loc-RIB, RIB-Out,
// sessions, route maps, and the IGP cost table OSPF feeds it.
type Process[P prefix.Key] struct {
	Self model.RouterId
	ASN  model.ASN

	sessions map[model.RouterId]model.SessionRecord

	ribIn  map[P]map[model.RouterId]Route[P]
	locRIB prefix.Map[P, RIBEntry[P]]
	ribOut map[P]map[model.RouterId]RIBEntry[P]

	routeMapsIn  map[model.RouterId]*routemap.RouteMap[P]
	routeMapsOut map[model.RouterId]*routemap.RouteMap[P]

	igpCost map[model.RouterId]int

	knownPrefixes prefix.Set[P]

	newMap NewMapFunc[P, RIBEntry[P]]
}

// NewProcess builds an empty BGP process for a router, given the
// constructors for its prefix kind's Loc-RIB map and known-prefix set.
func NewProcess[P prefix.Key](self model.RouterId, asn model.ASN, newMap NewMapFunc[P, RIBEntry[P]], newSet NewSetFunc[P]) *Process[P] {
	return &Process[P]{
		Self:          self,
		ASN:           asn,
		sessions:      make(map[model.RouterId]model.SessionRecord),
		ribIn:         make(map[P]map[model.RouterId]Route[P]),
		locRIB:        newMap(),
		ribOut:        make(map[P]map[model.RouterId]RIBEntry[P]),
		routeMapsIn:   make(map[model.RouterId]*routemap.RouteMap[P]),
		routeMapsOut:  make(map[model.RouterId]*routemap.RouteMap[P]),
		igpCost:       make(map[model.RouterId]int),
		knownPrefixes: newSet(),
		newMap:        newMap,
	}
}

// SetSession configures (or, with ok=false, removes) the session record
// for peer. Removing a session purges RIB-In/RIB-Out rows for every
// prefix and re-runs the decision process.
func (p *Process[P]) SetSession(peer model.RouterId, rec model.SessionRecord, present bool) []Event[P] {
	if !present {
		delete(p.sessions, peer)
		p.purgePeer(peer)
	} else {
		p.sessions[peer] = rec
	}
	return p.ReRunAll()
}

// SessionType returns the derived session type of peer, if a session is
// configured.
func (p *Process[P]) SessionType(peer model.RouterId) (model.SessionType, bool) {
	rec, ok := p.sessions[peer]
	if !ok {
		return 0, false
	}
	return model.DeriveSessionType(p.ASN, rec.RemoteASN, rec.IsClientOfMe), true
}

// HasSession reports whether peer is a configured session.
func (p *Process[P]) HasSession(peer model.RouterId) bool {
	_, ok := p.sessions[peer]
	return ok
}

// Peers returns every configured session peer.
func (p *Process[P]) Peers() []model.RouterId {
	out := make([]model.RouterId, 0, len(p.sessions))
	for peer := range p.sessions {
		out = append(out, peer)
	}
	return out
}

// SetRouteMap installs (or, with rm=nil, removes) the route map applied
// to peer in the given direction.
func (p *Process[P]) SetRouteMap(peer model.RouterId, out bool, rm *routemap.RouteMap[P]) []Event[P] {
	tbl := p.routeMapsIn
	if out {
		tbl = p.routeMapsOut
	}
	if rm == nil {
		delete(tbl, peer)
	} else {
		tbl[peer] = rm
	}
	return p.ReRunAll()
}

// SetIGPCost updates the cost to reach router (as computed by OSPF),
// re-running the decision process for every known prefix since cost
// changes can alter eligibility and tie-breaks.
func (p *Process[P]) SetIGPCost(router model.RouterId, cost int) []Event[P] {
	if cost < 0 {
		delete(p.igpCost, router)
	} else {
		p.igpCost[router] = cost
	}
	return p.ReRunAll()
}

// purgePeer removes every RIB-In/RIB-Out row referencing peer, without
// re-running the decision process (the caller does that separately).
func (p *Process[P]) purgePeer(peer model.RouterId) {
	for prefixKey, byPeer := range p.ribIn {
		delete(byPeer, peer)
		if len(byPeer) == 0 {
			delete(p.ribIn, prefixKey)
		}
	}
	for prefixKey, byPeer := range p.ribOut {
		delete(byPeer, peer)
		if len(byPeer) == 0 {
			delete(p.ribOut, prefixKey)
		}
	}
}

// ReRunAll re-runs the decision process and dissemination for every known
// prefix, collecting the resulting events. Used by every configuration
// mutation, including static-route changes at the router aggregate,
// which never alter BGP state directly but still trigger a
// re-evaluation pass.
func (p *Process[P]) ReRunAll() []Event[P] {
	var events []Event[P]
	p.knownPrefixes.Range(func(prefixKey P) bool {
		events = append(events, p.runDecisionAndDisseminate(prefixKey)...)
		return true
	})
	return events
}

// HandleUpdate processes a received BGP-Update.
func (p *Process[P]) HandleUpdate(from model.RouterId, prefixKey P, route Route[P]) []Event[P] {
	if !p.HasSession(from) {
		simlog.WithRouter(p.Self).WithEvent("bgp-update").Debugf("dropping update from unknown peer %v", from)
		return nil
	}
	if route.OriginatorId != nil && *route.OriginatorId == p.Self {
		return p.HandleWithdraw(from, prefixKey)
	}
	if route.ClusterList.Contains(p.Self) {
		return p.HandleWithdraw(from, prefixKey)
	}

	byPeer, ok := p.ribIn[prefixKey]
	if !ok {
		byPeer = make(map[model.RouterId]Route[P])
		p.ribIn[prefixKey] = byPeer
	}
	byPeer[from] = route.Clone()
	p.knownPrefixes.Add(prefixKey)

	return p.runDecisionAndDisseminate(prefixKey)
}

// HandleWithdraw processes a received BGP-Withdraw.
func (p *Process[P]) HandleWithdraw(from model.RouterId, prefixKey P) []Event[P] {
	if byPeer, ok := p.ribIn[prefixKey]; ok {
		delete(byPeer, from)
		if len(byPeer) == 0 {
			delete(p.ribIn, prefixKey)
		}
	}
	return p.runDecisionAndDisseminate(prefixKey)
}

// LocRIBEntry returns the current best route for prefixKey, if any.
func (p *Process[P]) LocRIBEntry(prefixKey P) (RIBEntry[P], bool) {
	return p.locRIB.Get(prefixKey)
}

// LocRIBLookupLPM resolves the longest-prefix-match Loc-RIB entry
// covering query, for kinds that support it.
func (p *Process[P]) LocRIBLookupLPM(query P) (P, RIBEntry[P], bool) {
	return p.locRIB.LPM(query)
}

// KnownPrefixes returns the set of prefixes this process has ever accepted
// an update for. Withdraws do not add to the set.
func (p *Process[P]) KnownPrefixes() prefix.Set[P] { return p.knownPrefixes }

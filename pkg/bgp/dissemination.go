package bgp

import (
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/routemap"
)

// exportable reports whether the currently selected Loc-RIB entry,
// learned over a session of type learned, may be exported to a peer whose
// session type is to, per the route-reflector export rules: export iff
// the learning session was eBGP or iBGP-Client, or the target session is
// eBGP or iBGP-Client.
func exportable(learned, to model.SessionType) bool {
	learnedOK := learned == model.SessionEBGP || learned == model.SessionIBGPClient
	toOK := to == model.SessionEBGP || to == model.SessionIBGPClient
	return learnedOK || toOK
}

// disseminate re-evaluates outgoing state for every configured session
// peer, returning the Update/Withdraw events to enqueue.
func (p *Process[P]) disseminate(prefixKey P) []Event[P] {
	var events []Event[P]
	best, hasBest := p.locRIB.Get(prefixKey)

	for peer := range p.sessions {
		toType, _ := p.SessionType(peer)
		existing, hadExisting := p.ribOutEntry(prefixKey, peer)

		if !hasBest {
			if hadExisting {
				p.clearRIBOut(prefixKey, peer)
				events = append(events, Event[P]{Kind: EventWithdraw, Target: peer, From: p.Self, Prefix: prefixKey})
			}
			continue
		}

		canExport := exportable(best.PeerSessionType, toType)
		if !canExport {
			if hadExisting {
				p.clearRIBOut(prefixKey, peer)
				events = append(events, Event[P]{Kind: EventWithdraw, Target: peer, From: p.Self, Prefix: prefixKey})
			}
			continue
		}

		final, ok := p.processOutgoing(prefixKey, peer, best, toType)
		if !ok {
			if hadExisting {
				p.clearRIBOut(prefixKey, peer)
				events = append(events, Event[P]{Kind: EventWithdraw, Target: peer, From: p.Self, Prefix: prefixKey})
			}
			continue
		}

		if hadExisting && existing.Route.Equal(final.Route) {
			continue
		}
		p.setRIBOut(prefixKey, peer, final)
		events = append(events, Event[P]{Kind: EventUpdate, Target: peer, From: p.Self, Prefix: prefixKey, Route: final.Route.Clone()})
	}
	return events
}

// processOutgoing applies per-peer outgoing processing: the Outgoing
// route-map, and eBGP rewriting.
func (p *Process[P]) processOutgoing(prefixKey P, peer model.RouterId, best RIBEntry[P], toType model.SessionType) (RIBEntry[P], bool) {
	route := best.Route.Clone()

	if best.PeerSessionType == model.SessionEBGP {
		route.NextHop = p.Self
	}
	if best.PeerSessionType.IsIBGP() && toType.IsIBGP() {
		if route.OriginatorId == nil {
			origin := best.Peer
			route.OriginatorId = &origin
		}
		route.ClusterList = route.ClusterList.Append(p.Self)
	}

	cand := &routemap.Candidate[P]{
		Prefix:      route.Prefix,
		ASPath:      append(model.ASPath{}, route.ASPath...),
		NextHop:     route.NextHop,
		Neighbor:    peer,
		LocalPref:   route.localPrefOrDefault(),
		MED:         route.medOrDefault(),
		Communities: append(model.CommunitySet{}, route.Communities...),
		Weight:      best.Weight,
	}
	if toType == model.SessionEBGP {
		cand.MED = routemap.DefaultMED
	}

	if rm, ok := p.routeMapsOut[peer]; ok {
		if !rm.Apply(cand) {
			return RIBEntry[P]{}, false
		}
	}

	final := fromCandidate(cand, route.OriginatorId, route.ClusterList)
	if toType == model.SessionEBGP {
		final.NextHop = p.Self
		final.LocalPref = nil
		final.OriginatorId = nil
		final.ClusterList = nil
		final.ASPath = final.ASPath.Prepend(p.ASN)
		final.Communities = final.Communities.StripLocalPrivate(p.ASN)
	}

	return RIBEntry[P]{
		Route:           final,
		Peer:            best.Peer,
		PeerSessionType: best.PeerSessionType,
		IGPCost:         best.IGPCost,
		ToPeer:          peer,
		HasToPeer:       true,
		Weight:          best.Weight,
	}, true
}

func (p *Process[P]) ribOutEntry(prefixKey P, peer model.RouterId) (RIBEntry[P], bool) {
	byPeer, ok := p.ribOut[prefixKey]
	if !ok {
		return RIBEntry[P]{}, false
	}
	e, ok := byPeer[peer]
	return e, ok
}

func (p *Process[P]) setRIBOut(prefixKey P, peer model.RouterId, e RIBEntry[P]) {
	byPeer, ok := p.ribOut[prefixKey]
	if !ok {
		byPeer = make(map[model.RouterId]RIBEntry[P])
		p.ribOut[prefixKey] = byPeer
	}
	byPeer[peer] = e
}

func (p *Process[P]) clearRIBOut(prefixKey P, peer model.RouterId) {
	byPeer, ok := p.ribOut[prefixKey]
	if !ok {
		return
	}
	delete(byPeer, peer)
	if len(byPeer) == 0 {
		delete(p.ribOut, prefixKey)
	}
}

package bgp

import (
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/routemap"
)

// toCandidate converts a raw RIB-In route into a route-map Candidate,
// ready for Incoming-route-map evaluation. Neighbor is the peer it was
// received from, used by the "neighbor" match clause.
func toCandidate[P comparable](prefixKey P, peer model.RouterId, route Route[P]) *routemap.Candidate[P] {
	return &routemap.Candidate[P]{
		Prefix:      prefixKey,
		ASPath:      append(model.ASPath{}, route.ASPath...),
		NextHop:     route.NextHop,
		Neighbor:    peer,
		LocalPref:   route.localPrefOrDefault(),
		MED:         route.medOrDefault(),
		Communities: append(model.CommunitySet{}, route.Communities...),
		Weight:      routemap.DefaultWeight,
	}
}

func fromCandidate[P comparable](c *routemap.Candidate[P], originatorId *model.RouterId, clusterList model.ClusterList) Route[P] {
	lp := c.LocalPref
	med := c.MED
	return Route[P]{
		Prefix:       c.Prefix,
		ASPath:       c.ASPath,
		NextHop:      c.NextHop,
		LocalPref:    &lp,
		MED:          &med,
		Communities:  c.Communities,
		OriginatorId: originatorId,
		ClusterList:  clusterList,
	}
}

// candidateEntry is a fully processed candidate, ready for tie-break.
type candidateEntry[P comparable] struct {
	entry RIBEntry[P]
}

// buildCandidates builds the candidate-set for the decision process:
// apply the Incoming route map per peer, then compute IGP cost and strip
// private communities.
func (p *Process[P]) buildCandidates(prefixKey P) []candidateEntry[P] {
	byPeer, ok := p.ribIn[prefixKey]
	if !ok {
		return nil
	}
	var out []candidateEntry[P]
	for peer, raw := range byPeer {
		sessType, ok := p.SessionType(peer)
		if !ok {
			continue
		}
		cand := toCandidate(prefixKey, peer, raw)
		if rm, ok := p.routeMapsIn[peer]; ok {
			if !rm.Apply(cand) {
				continue
			}
		}

		nextHop := cand.NextHop
		igpCost := 0
		if sessType == model.SessionEBGP {
			igpCost = 0
			nextHop = peer
			cand.NextHop = peer
		} else {
			cost, known := p.igpCost[nextHop]
			if !known || cost >= model.InfiniteCost {
				continue
			}
			igpCost = cost
		}

		if sessType == model.SessionEBGP {
			cand.Communities = cand.Communities.StripForeignPrivate(p.ASN)
		}

		route := fromCandidate(cand, raw.OriginatorId, raw.ClusterList)
		entry := RIBEntry[P]{
			Route:           route,
			Peer:            peer,
			PeerSessionType: sessType,
			IGPCost:         igpCost,
			Weight:          cand.Weight,
		}
		out = append(out, candidateEntry[P]{entry: entry})
	}
	return out
}

// best implements the 10-step BGP decision-process tie-break. Returns
// false if candidates is empty.
func best[P comparable](candidates []candidateEntry[P]) (RIBEntry[P], bool) {
	if len(candidates) == 0 {
		return RIBEntry[P]{}, false
	}
	bestC := candidates[0]
	for _, c := range candidates[1:] {
		if better(c, bestC) {
			bestC = c
		}
	}
	return bestC.entry, true
}

// better reports whether a strictly outranks b under the tie-break order.
func better[P comparable](a, b candidateEntry[P]) bool {
	ae, be := a.entry, b.entry

	if ae.Weight != be.Weight {
		return ae.Weight > be.Weight
	}
	al, bl := ae.Route.localPrefOrDefault(), be.Route.localPrefOrDefault()
	if al != bl {
		return al > bl
	}
	if len(ae.Route.ASPath) != len(be.Route.ASPath) {
		return len(ae.Route.ASPath) < len(be.Route.ASPath)
	}
	// Origin: not modeled beyond equality.
	aFirst, aOK := ae.Route.ASPath.FirstAS()
	bFirst, bOK := be.Route.ASPath.FirstAS()
	if aOK && bOK && aFirst == bFirst {
		am, bm := ae.Route.medOrDefault(), be.Route.medOrDefault()
		if am != bm {
			return am < bm
		}
	}
	if (ae.PeerSessionType == model.SessionEBGP) != (be.PeerSessionType == model.SessionEBGP) {
		return ae.PeerSessionType == model.SessionEBGP
	}
	if ae.IGPCost != be.IGPCost {
		return ae.IGPCost < be.IGPCost
	}
	aId, bId := originOrFrom(ae), originOrFrom(be)
	if aId != bId {
		return aId < bId
	}
	if len(ae.Route.ClusterList) != len(be.Route.ClusterList) {
		return len(ae.Route.ClusterList) < len(be.Route.ClusterList)
	}
	return ae.Peer < be.Peer
}

func originOrFrom[P comparable](e RIBEntry[P]) model.RouterId {
	if e.Route.OriginatorId != nil {
		return *e.Route.OriginatorId
	}
	return e.Peer
}

// runDecisionAndDisseminate re-runs the decision process for prefixKey;
// if Loc-RIB changed, it runs dissemination and returns the resulting
// events.
func (p *Process[P]) runDecisionAndDisseminate(prefixKey P) []Event[P] {
	candidates := p.buildCandidates(prefixKey)
	newBest, ok := best(candidates)

	current, hadCurrent := p.locRIB.Get(prefixKey)
	changed := hadCurrent != ok
	if hadCurrent && ok {
		changed = !current.Equal(newBest)
	}

	if ok {
		p.locRIB.Insert(prefixKey, newBest)
	} else if hadCurrent {
		p.locRIB.Delete(prefixKey)
	}

	if !changed {
		return nil
	}
	return p.disseminate(prefixKey)
}

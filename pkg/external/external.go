// Package external implements the external-router model: a
// non-transit eBGP speaker that advertises and withdraws its own routes
// and never runs a decision process of its own.
package external

import (
	"github.com/routesim/routesim/pkg/bgp"
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/prefix"
)

// Advertisement is one route an external router currently originates.
type Advertisement[P prefix.Key] struct {
	ASPath      model.ASPath
	MED         int
	Communities model.CommunitySet
}

// Router is an external BGP speaker: a name, an ASN, a set of active
// peers, and the advertisements it currently originates. It performs no
// decision process, never re-advertises a route learned from a peer (it
// has no RIB-In to learn into), and never originates a community
// belonging to a foreign ASN.
type Router[P prefix.Key] struct {
	ID   model.RouterId
	Name string
	ASN  model.ASN

	peers      map[model.RouterId]bool
	advertised map[P]Advertisement[P]
}

// New returns an external Router with no active peers or advertisements.
func New[P prefix.Key](id model.RouterId, name string, asn model.ASN) *Router[P] {
	return &Router[P]{
		ID:         id,
		Name:       name,
		ASN:        asn,
		peers:      make(map[model.RouterId]bool),
		advertised: make(map[P]Advertisement[P]),
	}
}

// AdvertisePrefix stores the advertisement and emits an Update to every
// active peer.
func (r *Router[P]) AdvertisePrefix(prefixKey P, asPath model.ASPath, med int, communities model.CommunitySet) []bgp.Event[P] {
	var own model.CommunitySet
	for _, c := range communities {
		if c.ASN == r.ASN {
			own = append(own, c)
		}
	}
	r.advertised[prefixKey] = Advertisement[P]{ASPath: asPath, MED: med, Communities: own}
	return r.emitTo(prefixKey, r.peerList())
}

// WithdrawPrefix removes the advertisement and emits a Withdraw to every
// active peer.
func (r *Router[P]) WithdrawPrefix(prefixKey P) []bgp.Event[P] {
	delete(r.advertised, prefixKey)
	var events []bgp.Event[P]
	for peer := range r.peers {
		events = append(events, bgp.Event[P]{Kind: bgp.EventWithdraw, Target: peer, From: r.ID, Prefix: prefixKey})
	}
	return events
}

// EstablishPeer adds n to the active-peer set and re-emits every active
// advertisement to it.
func (r *Router[P]) EstablishPeer(n model.RouterId) []bgp.Event[P] {
	r.peers[n] = true
	var events []bgp.Event[P]
	for prefixKey := range r.advertised {
		events = append(events, r.emitTo(prefixKey, []model.RouterId{n})...)
	}
	return events
}

// ClosePeer removes n from the active-peer set. No withdraws are emitted:
// session loss is observed on the peer's side, not announced by the
// external router.
func (r *Router[P]) ClosePeer(n model.RouterId) {
	delete(r.peers, n)
}

// IsPeerActive reports whether n is currently an active peer.
func (r *Router[P]) IsPeerActive(n model.RouterId) bool { return r.peers[n] }

func (r *Router[P]) peerList() []model.RouterId {
	out := make([]model.RouterId, 0, len(r.peers))
	for peer := range r.peers {
		out = append(out, peer)
	}
	return out
}

func (r *Router[P]) emitTo(prefixKey P, peers []model.RouterId) []bgp.Event[P] {
	adv, ok := r.advertised[prefixKey]
	if !ok {
		return nil
	}
	route := bgp.Route[P]{
		Prefix:      prefixKey,
		ASPath:      adv.ASPath,
		NextHop:     r.ID,
		Communities: adv.Communities,
	}
	med := adv.MED
	route.MED = &med

	var events []bgp.Event[P]
	for _, peer := range peers {
		events = append(events, bgp.Event[P]{Kind: bgp.EventUpdate, Target: peer, From: r.ID, Prefix: prefixKey, Route: route.Clone()})
	}
	return events
}

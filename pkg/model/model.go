// Package model holds the non-generic types shared across the simulator:
// router identity, BGP session and route bookkeeping, OSPF LSA bodies, and
// the static-route and neighborhood-change variants the network driver
// operates on. Types here deliberately avoid referencing the prefix
// algebra in pkg/prefix; components that are generic over the prefix kind
// import this package and parameterize themselves separately.
package model

import (
	"fmt"
	"sort"
)

// RouterId is an opaque monotonically assigned handle, stable for the
// lifetime of a network.
type RouterId uint32

func (r RouterId) String() string { return fmt.Sprintf("R%d", uint32(r)) }

// ASN is a 32-bit autonomous system number.
type ASN uint32

// InternalASN is the sentinel ASN internal routers default to when no
// explicit ASN is supplied.
const InternalASN ASN = 65000

// AreaId identifies an OSPF area. BackboneArea is area 0.
type AreaId uint32

// BackboneArea is the OSPF backbone area.
const BackboneArea AreaId = 0

// SessionType is the effective role of one side of a BGP session.
type SessionType int

const (
	// SessionEBGP is an external session: the two endpoints' ASNs differ.
	SessionEBGP SessionType = iota
	// SessionIBGPPeer is an internal session between two non-reflector peers,
	// or the non-client side of a route-reflector relationship.
	SessionIBGPPeer
	// SessionIBGPClient is the route-reflector side of an internal session:
	// the remote end is a client of the local router.
	SessionIBGPClient
)

func (t SessionType) String() string {
	switch t {
	case SessionEBGP:
		return "eBGP"
	case SessionIBGPPeer:
		return "iBGP-Peer"
	case SessionIBGPClient:
		return "iBGP-Client"
	default:
		return "unknown"
	}
}

// IsIBGP reports whether t is one of the two internal session flavors.
func (t SessionType) IsIBGP() bool { return t != SessionEBGP }

// SessionRecord is the configuration maintained independently by one
// endpoint of an undirected BGP session pair (A,B): A's remote ASN as A
// observed it, and whether B is a route-reflector client of A.
type SessionRecord struct {
	RemoteASN    ASN
	IsClientOfMe bool
}

// DeriveSessionType computes the canonical session type at the local side
// of a session given the local and remote ASN and the local session
// record's client flag.
func DeriveSessionType(localASN, remoteASN ASN, isClientOfLocal bool) SessionType {
	if localASN != remoteASN {
		return SessionEBGP
	}
	if isClientOfLocal {
		return SessionIBGPClient
	}
	return SessionIBGPPeer
}

// Community is a BGP community tag: an (ASN, value) pair plus a visibility
// flag. A non-public community is private to its owning ASN and is
// stripped when a route crosses an eBGP boundary into or out of a
// different AS.
type Community struct {
	ASN    ASN
	Value  uint32
	Public bool
}

func (c Community) String() string {
	if c.Public {
		return fmt.Sprintf("%d:%d", c.ASN, c.Value)
	}
	return fmt.Sprintf("%d:%d(private)", c.ASN, c.Value)
}

// CommunitySet is an ordered, deduplicated collection of communities.
// Order is insertion order except where noted (dissemination appends).
type CommunitySet []Community

// Contains reports whether c is present in the set.
func (s CommunitySet) Contains(c Community) bool {
	for _, existing := range s {
		if existing == c {
			return true
		}
	}
	return false
}

// Add returns a copy of s with c appended if not already present.
func (s CommunitySet) Add(c Community) CommunitySet {
	if s.Contains(c) {
		return s
	}
	out := make(CommunitySet, len(s), len(s)+1)
	copy(out, s)
	return append(out, c)
}

// Remove returns a copy of s with c removed, if present.
func (s CommunitySet) Remove(c Community) CommunitySet {
	out := make(CommunitySet, 0, len(s))
	for _, existing := range s {
		if existing != c {
			out = append(out, existing)
		}
	}
	return out
}

// StripForeignPrivate returns a copy of s with every private community not
// owned by localASN removed. Applied on eBGP reception: a private
// community tagged with some other AS has no meaning once it crosses
// into ours.
func (s CommunitySet) StripForeignPrivate(localASN ASN) CommunitySet {
	out := make(CommunitySet, 0, len(s))
	for _, c := range s {
		if !c.Public && c.ASN != localASN {
			continue
		}
		out = append(out, c)
	}
	return out
}

// StripLocalPrivate returns a copy of s with every private community
// owned by localASN removed. Applied on eBGP transmission: a private
// community only has meaning inside the AS that owns it, so it must not
// leak across the AS boundary on the way out either.
func (s CommunitySet) StripLocalPrivate(localASN ASN) CommunitySet {
	out := make(CommunitySet, 0, len(s))
	for _, c := range s {
		if !c.Public && c.ASN == localASN {
			continue
		}
		out = append(out, c)
	}
	return out
}

// Equal reports whether two community sets contain the same communities,
// ignoring order.
func (s CommunitySet) Equal(other CommunitySet) bool {
	if len(s) != len(other) {
		return false
	}
	a := append(CommunitySet{}, s...)
	b := append(CommunitySet{}, other...)
	sort.Slice(a, func(i, j int) bool { return a[i].String() < a[j].String() })
	sort.Slice(b, func(i, j int) bool { return b[i].String() < b[j].String() })
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// ASPath is an ordered list of autonomous systems a route has traversed.
type ASPath []ASN

// FirstAS returns the first (most recently prepended) AS on the path, or
// 0 if the path is empty. Used by the MED tie-break, which only compares
// candidates sharing the same first AS.
func (p ASPath) FirstAS() (ASN, bool) {
	if len(p) == 0 {
		return 0, false
	}
	return p[0], true
}

// Prepend returns a copy of p with asn inserted at the front.
func (p ASPath) Prepend(asn ASN) ASPath {
	out := make(ASPath, 0, len(p)+1)
	out = append(out, asn)
	out = append(out, p...)
	return out
}

// Equal reports whether two AS paths are identical, element for element.
func (p ASPath) Equal(other ASPath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// ClusterList is the ordered list of route-reflector cluster ids (here,
// RouterIds) a route has been reflected through.
type ClusterList []RouterId

// Contains reports whether r appears in the cluster list.
func (c ClusterList) Contains(r RouterId) bool {
	for _, existing := range c {
		if existing == r {
			return true
		}
	}
	return false
}

// Append returns a copy of c with r appended.
func (c ClusterList) Append(r RouterId) ClusterList {
	out := make(ClusterList, len(c), len(c)+1)
	copy(out, c)
	return append(out, r)
}

// Equal reports whether two cluster lists are identical, element for
// element.
func (c ClusterList) Equal(other ClusterList) bool {
	if len(c) != len(other) {
		return false
	}
	for i := range c {
		if c[i] != other[i] {
			return false
		}
	}
	return true
}

// StaticRouteKind discriminates the three kinds of static-route target.
type StaticRouteKind int

const (
	// StaticDirect routes via a directly connected neighbor.
	StaticDirect StaticRouteKind = iota
	// StaticIndirect routes via a (possibly remote) router, resolved
	// through the OSPF next-hop table.
	StaticIndirect
	// StaticDrop blackholes matching traffic.
	StaticDrop
)

// StaticRoute is a per-router, per-prefix forwarding override.
type StaticRoute struct {
	Kind   StaticRouteKind
	Target RouterId // meaningful for StaticDirect and StaticIndirect
}

// Direct builds a StaticRoute routing via a directly connected neighbor.
func Direct(neighbor RouterId) StaticRoute {
	return StaticRoute{Kind: StaticDirect, Target: neighbor}
}

// Indirect builds a StaticRoute routing via a remote router.
func Indirect(router RouterId) StaticRoute {
	return StaticRoute{Kind: StaticIndirect, Target: router}
}

// Drop builds a StaticRoute that blackholes matching traffic.
func Drop() StaticRoute {
	return StaticRoute{Kind: StaticDrop}
}

package model

import "math"

// InfiniteCost represents an unreachable destination.
const InfiniteCost = math.MaxInt32

// LsaType discriminates the three LSA bodies the simulator models.
type LsaType int

const (
	LsaRouter LsaType = iota
	LsaSummary
	LsaExternal
)

func (t LsaType) String() string {
	switch t {
	case LsaRouter:
		return "Router"
	case LsaSummary:
		return "Summary"
	case LsaExternal:
		return "External"
	default:
		return "unknown"
	}
}

// LsaKey identifies an LSA: its type, the advertising router, and — for
// Summary and External LSAs — the target the LSA describes a cost to.
// Router-LSAs leave Target at its zero value; they describe the
// advertising router's own links.
type LsaKey struct {
	Type      LsaType
	Advertiser RouterId
	Target    RouterId
}

// RouterLink is one edge in a Router-LSA body: a link from the advertising
// router to Target, of the given weight, existing in one area.
type RouterLink struct {
	Target RouterId
	Weight int
}

// LSA is a link-state advertisement: a key, a freshness pair, and exactly
// one populated body depending on Key.Type.
type LSA struct {
	Key      LsaKey
	Sequence int32
	Age      int

	// RouterLinks is populated when Key.Type == LsaRouter.
	RouterLinks []RouterLink
	// SummaryCost is populated when Key.Type == LsaSummary: the
	// originating ABR's advertised cost to Key.Target in its source area.
	SummaryCost int
	// ExternalCost is populated when Key.Type == LsaExternal: the cost
	// from the advertising router to the external neighbor Key.Target.
	ExternalCost int
}

// LsaOrdering is the result of comparing two LSAs sharing a key.
type LsaOrdering int

const (
	LsaOlder LsaOrdering = iota
	LsaNewer
	LsaSame
)

// Compare orders a against b: newer sequence wins; if equal, lower age
// wins; if equal, Same.
func (a LSA) Compare(b LSA) LsaOrdering {
	if a.Sequence != b.Sequence {
		if a.Sequence > b.Sequence {
			return LsaNewer
		}
		return LsaOlder
	}
	if a.Age != b.Age {
		if a.Age < b.Age {
			return LsaNewer
		}
		return LsaOlder
	}
	return LsaSame
}

// MaxAge is the sentinel age at which an LSA becomes eligible for removal.
const MaxAge = 3600

// MaxSequence is the maximum LSA sequence number; advancing past it
// triggers the premature-aging wraparound procedure.
const MaxSequence = math.MaxInt32

// SPTNode is one entry of a per-router, per-area shortest-path tree: the
// destination, its cost, the set of first-hop neighbors reachable at that
// cost (for ECMP), and whether the path traverses a Summary-LSA.
type SPTNode struct {
	Destination RouterId
	Cost        int
	FirstHops   []RouterId
	InterArea   bool
}

// RIBClass orders the three kinds of OSPF path by preference during
// per-router RIB assembly: intra-area beats inter-area beats external.
type RIBClass int

const (
	ClassIntraArea RIBClass = iota
	ClassInterArea
	ClassExternal
)

// OSPFRIBEntry is a router's best known path to a destination across all
// of its areas plus the AS-external extension.
type OSPFRIBEntry struct {
	Destination RouterId
	Cost        int
	NextHops    []RouterId
	Areas       []AreaId
	Class       RIBClass
}

// ChangeKind discriminates the variants of NeighborhoodChange.
type ChangeKind int

const (
	ChangeAddLink ChangeKind = iota
	ChangeRemoveLink
	ChangeWeightChange
	ChangeAreaChange
	ChangeAddExternalNetwork
	ChangeRemoveExternalNetwork
	ChangeBatch
)

// NeighborhoodChange describes one topology delta fed to the OSPF
// coordinator. Batch carries a slice of further changes to be
// applied as one atomic recomputation.
type NeighborhoodChange struct {
	Kind ChangeKind

	// A, B are the endpoints for link/area/weight changes. For
	// ChangeAddExternalNetwork and ChangeRemoveExternalNetwork, A is the
	// internal (advertising) router and B is the external neighbor;
	// Weight is A's cost to B.
	A, B   RouterId
	Weight int
	Area   AreaId

	Batch []NeighborhoodChange
}

// AddLink builds a NeighborhoodChange for a new directed link a->b of the
// given weight in area.
func AddLink(a, b RouterId, weight int, area AreaId) NeighborhoodChange {
	return NeighborhoodChange{Kind: ChangeAddLink, A: a, B: b, Weight: weight, Area: area}
}

// RemoveLink builds a NeighborhoodChange tearing down the link a->b.
func RemoveLink(a, b RouterId) NeighborhoodChange {
	return NeighborhoodChange{Kind: ChangeRemoveLink, A: a, B: b}
}

// WeightChange builds a NeighborhoodChange altering the directed weight
// of link a->b.
func WeightChange(a, b RouterId, weight int) NeighborhoodChange {
	return NeighborhoodChange{Kind: ChangeWeightChange, A: a, B: b, Weight: weight}
}

// AreaChange builds a NeighborhoodChange altering the (shared, undirected)
// area of the link between a and b.
func AreaChange(a, b RouterId, area AreaId) NeighborhoodChange {
	return NeighborhoodChange{Kind: ChangeAreaChange, A: a, B: b, Area: area}
}

// Batch wraps several changes into one atomic recomputation.
func Batch(changes ...NeighborhoodChange) NeighborhoodChange {
	return NeighborhoodChange{Kind: ChangeBatch, Batch: changes}
}

// AddExternalNetwork builds a NeighborhoodChange originating an
// External-LSA: internal is the advertising router, external the
// neighbor it reaches at the given cost.
func AddExternalNetwork(internal, external RouterId, cost int) NeighborhoodChange {
	return NeighborhoodChange{Kind: ChangeAddExternalNetwork, A: internal, B: external, Weight: cost}
}

// RemoveExternalNetwork builds a NeighborhoodChange withdrawing the
// External-LSA internal previously originated for external.
func RemoveExternalNetwork(internal, external RouterId) NeighborhoodChange {
	return NeighborhoodChange{Kind: ChangeRemoveExternalNetwork, A: internal, B: external}
}

package routemap

import (
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/prefix"
)

// --- Match clauses ---

// MatchPrefixEquals matches a candidate whose prefix equals Prefix exactly.
type MatchPrefixEquals[P prefix.Key] struct {
	Prefix P
}

func (m MatchPrefixEquals[P]) Match(c *Candidate[P]) bool { return c.Prefix == m.Prefix }

// MatchPrefixInSet matches a candidate whose prefix is a member of Set.
type MatchPrefixInSet[P prefix.Key] struct {
	Set prefix.Set[P]
}

func (m MatchPrefixInSet[P]) Match(c *Candidate[P]) bool { return m.Set.Contains(c.Prefix) }

// MatchNeighbor matches a candidate being evaluated for/from a specific
// session peer.
type MatchNeighbor[P prefix.Key] struct {
	Neighbor model.RouterId
}

func (m MatchNeighbor[P]) Match(c *Candidate[P]) bool { return c.Neighbor == m.Neighbor }

// MatchNextHop matches a candidate whose next-hop equals NextHop.
type MatchNextHop[P prefix.Key] struct {
	NextHop model.RouterId
}

func (m MatchNextHop[P]) Match(c *Candidate[P]) bool { return c.NextHop == m.NextHop }

// MatchCommunityPresent matches a candidate carrying Community.
type MatchCommunityPresent[P prefix.Key] struct {
	Community model.Community
}

func (m MatchCommunityPresent[P]) Match(c *Candidate[P]) bool {
	return c.Communities.Contains(m.Community)
}

// MatchASPathContains matches a candidate whose AS path contains ASN.
type MatchASPathContains[P prefix.Key] struct {
	ASN model.ASN
}

func (m MatchASPathContains[P]) Match(c *Candidate[P]) bool {
	for _, asn := range c.ASPath {
		if asn == m.ASN {
			return true
		}
	}
	return false
}

// MatchASPathLengthEquals matches a candidate whose AS path has exactly
// Length elements.
type MatchASPathLengthEquals[P prefix.Key] struct {
	Length int
}

func (m MatchASPathLengthEquals[P]) Match(c *Candidate[P]) bool { return len(c.ASPath) == m.Length }

// MatchASPathLengthInRange matches a candidate whose AS path length falls
// within [Min, Max] inclusive.
type MatchASPathLengthInRange[P prefix.Key] struct {
	Min, Max int
}

func (m MatchASPathLengthInRange[P]) Match(c *Candidate[P]) bool {
	n := len(c.ASPath)
	return n >= m.Min && n <= m.Max
}

// --- Set clauses ---

// SetNextHop overwrites the candidate's next-hop.
type SetNextHop[P prefix.Key] struct {
	NextHop model.RouterId
}

func (s SetNextHop[P]) Apply(c *Candidate[P]) { c.NextHop = s.NextHop }

// SetLocalPref overwrites the candidate's local-pref. With ClearSet true
// it resets it to the default of 100 instead.
type SetLocalPref[P prefix.Key] struct {
	Value    int
	ClearSet bool // when true, reset to DefaultLocalPref instead of using Value
}

func (s SetLocalPref[P]) Apply(c *Candidate[P]) {
	if s.ClearSet {
		c.LocalPref = DefaultLocalPref
		return
	}
	c.LocalPref = s.Value
}

// SetMED overwrites the candidate's MED, or clears it to 0.
type SetMED[P prefix.Key] struct {
	Value    int
	ClearSet bool
}

func (s SetMED[P]) Apply(c *Candidate[P]) {
	if s.ClearSet {
		c.MED = DefaultMED
		return
	}
	c.MED = s.Value
}

// SetIGPCost overwrites the candidate's recorded IGP cost. Used by tests
// and synthetic scenarios that want to force a tie-break outcome without
// modeling a full OSPF topology.
type SetIGPCost[P prefix.Key] struct {
	Value int
}

func (s SetIGPCost[P]) Apply(c *Candidate[P]) { c.IGPCost = s.Value }

// SetAddCommunity appends Community if not already present.
type SetAddCommunity[P prefix.Key] struct {
	Community model.Community
}

func (s SetAddCommunity[P]) Apply(c *Candidate[P]) {
	c.Communities = c.Communities.Add(s.Community)
}

// SetDeleteCommunity removes Community if present.
type SetDeleteCommunity[P prefix.Key] struct {
	Community model.Community
}

func (s SetDeleteCommunity[P]) Apply(c *Candidate[P]) {
	c.Communities = c.Communities.Remove(s.Community)
}

// SetPrependASPath prepends ASN to the AS path Count times.
type SetPrependASPath[P prefix.Key] struct {
	ASN   model.ASN
	Count int
}

func (s SetPrependASPath[P]) Apply(c *Candidate[P]) {
	for i := 0; i < s.Count; i++ {
		c.ASPath = c.ASPath.Prepend(s.ASN)
	}
}

// SetWeight overwrites the candidate's router-local weight.
type SetWeight[P prefix.Key] struct {
	Value int
}

func (s SetWeight[P]) Apply(c *Candidate[P]) { c.Weight = s.Value }

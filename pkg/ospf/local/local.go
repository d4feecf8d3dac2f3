// Package local implements the distributed OSPFv2 realization of the
// Process contract: neighbor bring-up from ExStart, a
// Database-Description exchange with a leader/follower relation, and
// link-state request/update/acknowledge flooding, converging to Full
// state before a neighbor's database is considered synchronized.
//
// The core has no timer model, so there is no Hello protocol
// and no retransmission timeout: bring-up starts directly at ExStart when
// a link is added, and an unacknowledged LSA simply stays in a neighbor's
// retransmit list until the corresponding MsgLSAck arrives.
package local

import (
	"sort"

	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/ospf"
)

// neighborState is the OSPFv2 adjacency state collapsed to three named
// phases; Loading is folded into Exchange
// since the core's synchronous message handling makes the distinction
// between "still requesting" and "still loading" purely a matter of
// whether pendingRequest is empty.
type neighborState int

const (
	stateDown neighborState = iota
	stateExStart
	stateExchange
	stateFull
)

type neighbor struct {
	state          neighborState
	master         bool
	pendingRequest map[model.LsaKey]bool
	retransmit     map[model.LsaKey]ospf.AreaLSA
}

// Local is the distributed OSPF coordinator for one AS.
type Local struct {
	topo *ospf.Topology
	lsdb *ospf.LSDB
	ribs map[model.RouterId]map[model.RouterId]model.OSPFRIBEntry
	seq  map[model.RouterId]int32

	neighbors map[model.RouterId]map[model.RouterId]*neighbor
}

// New returns an empty Local coordinator.
func New() *Local {
	return &Local{
		topo:      ospf.NewTopology(),
		lsdb:      ospf.NewLSDB(),
		ribs:      make(map[model.RouterId]map[model.RouterId]model.OSPFRIBEntry),
		seq:       make(map[model.RouterId]int32),
		neighbors: make(map[model.RouterId]map[model.RouterId]*neighbor),
	}
}

func (l *Local) AddRouter(r model.RouterId) { l.topo.AddNode(r) }

func (l *Local) RemoveRouter(r model.RouterId) ospf.Outcome {
	l.topo.RemoveNode(r)
	delete(l.neighbors, r)
	for _, row := range l.neighbors {
		delete(row, r)
	}
	var out ospf.Outcome
	// r has no neighbors left in the topology, so this retracts its
	// Router-LSA from every area it previously occupied rather than
	// leaving a ghost entry for Dijkstra to keep tripping over.
	l.originateRouterLSA(r, &out)
	out.ChangedRouters = append(out.ChangedRouters, l.recomputeAffected(nil)...)
	return out
}

func (l *Local) neighborOf(a, b model.RouterId) *neighbor {
	row, ok := l.neighbors[a]
	if !ok {
		row = make(map[model.RouterId]*neighbor)
		l.neighbors[a] = row
	}
	n, ok := row[b]
	if !ok {
		n = &neighbor{pendingRequest: make(map[model.LsaKey]bool), retransmit: make(map[model.LsaKey]ospf.AreaLSA)}
		row[b] = n
	}
	return n
}

// Apply folds a topology/external-network change into the local model,
// originating this router's own Router-LSA or External-LSA and kicking
// off (or tearing down) neighbor bring-up as needed.
func (l *Local) Apply(change model.NeighborhoodChange) ospf.Outcome {
	var out ospf.Outcome
	l.applyChange(change, &out)
	return out
}

func (l *Local) applyChange(change model.NeighborhoodChange, out *ospf.Outcome) {
	switch change.Kind {
	case model.ChangeAddLink:
		l.topo.SetLink(change.A, change.B, change.Weight, change.Area)
		l.originateRouterLSA(change.A, out)
		out.Messages = append(out.Messages, l.beginNegotiation(change.A, change.B)...)
		out.ChangedRouters = append(out.ChangedRouters, l.recomputeAffected(nil)...)
	case model.ChangeRemoveLink:
		l.topo.RemoveLink(change.A, change.B)
		l.tearDownNeighbor(change.A, change.B)
		l.originateRouterLSA(change.A, out)
		out.ChangedRouters = append(out.ChangedRouters, l.recomputeAffected(nil)...)
	case model.ChangeWeightChange:
		if link, ok := l.topo.Link(change.A, change.B); ok {
			l.topo.SetLink(change.A, change.B, change.Weight, link.Area)
		}
		l.originateRouterLSA(change.A, out)
		out.ChangedRouters = append(out.ChangedRouters, l.recomputeAffected(nil)...)
	case model.ChangeAreaChange:
		if link, ok := l.topo.Link(change.A, change.B); ok {
			l.topo.SetLink(change.A, change.B, link.Weight, change.Area)
		}
		if link, ok := l.topo.Link(change.B, change.A); ok {
			l.topo.SetLink(change.B, change.A, link.Weight, change.Area)
		}
		l.originateRouterLSA(change.A, out)
		l.originateRouterLSA(change.B, out)
		out.ChangedRouters = append(out.ChangedRouters, l.recomputeAffected(nil)...)
	case model.ChangeAddExternalNetwork:
		seq := l.bumpSeq(change.A)
		key := model.LsaKey{Type: model.LsaExternal, Advertiser: change.A, Target: change.B}
		l.lsdb.InstallExternal(model.LSA{Key: key, Sequence: seq, ExternalCost: change.Weight})
		l.floodFromOwner(change.A, ospf.AreaLSA{Area: model.BackboneArea, LSA: model.LSA{Key: key, Sequence: seq, ExternalCost: change.Weight}}, out)
		out.ChangedRouters = append(out.ChangedRouters, l.recomputeAffected(nil)...)
	case model.ChangeRemoveExternalNetwork:
		l.lsdb.RemoveExternal(model.LsaKey{Type: model.LsaExternal, Advertiser: change.A, Target: change.B})
		out.ChangedRouters = append(out.ChangedRouters, l.recomputeAffected(nil)...)
	case model.ChangeBatch:
		for _, sub := range change.Batch {
			l.applyChange(sub, out)
		}
	}
}

func (l *Local) bumpSeq(r model.RouterId) int32 {
	s := l.seq[r]
	l.seq[r] = s + 1
	return s
}

// originateRouterLSA rebuilds r's own Router-LSA for every area it has
// links in and floods whichever bodies changed. Any area r previously
// advertised into but no longer has a link in has its stale Router-LSA
// retracted, not just left un-renewed.
func (l *Local) originateRouterLSA(r model.RouterId, out *ospf.Outcome) {
	byArea := make(map[model.AreaId][]model.RouterLink)
	for _, n := range l.topo.Neighbors(r) {
		link, _ := l.topo.Link(r, n)
		byArea[link.Area] = append(byArea[link.Area], model.RouterLink{Target: n, Weight: link.Weight})
	}

	key := model.LsaKey{Type: model.LsaRouter, Advertiser: r}
	for _, area := range l.lsdb.RouterAreas(r) {
		if _, ok := byArea[area]; !ok {
			l.lsdb.Remove(area, key)
		}
	}

	for area, links := range byArea {
		seq := l.bumpSeq(r)
		lsa := model.LSA{Key: key, Sequence: seq, RouterLinks: links}
		if l.lsdb.Install(area, lsa) {
			l.floodFromOwner(r, ospf.AreaLSA{Area: area, LSA: lsa}, out)
		}
	}
}

// floodFromOwner sends MsgLSUpdate to every neighbor of owner in Exchange
// or Full state,
// registering the LSA in that neighbor's retransmit list until
// acknowledged.
func (l *Local) floodFromOwner(owner model.RouterId, al ospf.AreaLSA, out *ospf.Outcome) {
	for peer, n := range l.neighbors[owner] {
		if n.state != stateFull && n.state != stateExchange {
			continue
		}
		n.retransmit[al.LSA.Key] = al
		out.Messages = append(out.Messages, ospf.Message{
			Kind: ospf.MsgLSUpdate, From: owner, Target: peer, LSAs: []ospf.AreaLSA{al},
		})
	}
}

// beginNegotiation starts ExStart on both sides of a new link: Hello-less
// neighbor bring-up starting directly from ExStart.
func (l *Local) beginNegotiation(a, b model.RouterId) []ospf.Message {
	na := l.neighborOf(a, b)
	if na.state == stateDown {
		na.state = stateExStart
		na.master = a > b
	}
	nb := l.neighborOf(b, a)
	if nb.state == stateDown {
		nb.state = stateExStart
		nb.master = b > a
	}
	return []ospf.Message{
		{Kind: ospf.MsgNegotiate, From: a, Target: b, Master: na.master},
		{Kind: ospf.MsgNegotiate, From: b, Target: a, Master: nb.master},
	}
}

func (l *Local) tearDownNeighbor(a, b model.RouterId) {
	if row, ok := l.neighbors[a]; ok {
		delete(row, b)
	}
	if row, ok := l.neighbors[b]; ok {
		delete(row, a)
	}
}

// HandleMessage dispatches one OSPF protocol message, advancing the
// sender/target neighbor relationship and returning any reply messages
// plus the routers whose RIB changed as a result.
func (l *Local) HandleMessage(msg ospf.Message) ospf.Outcome {
	var out ospf.Outcome
	switch msg.Kind {
	case ospf.MsgNegotiate:
		l.handleNegotiate(msg, &out)
	case ospf.MsgDBDescription:
		l.handleDBD(msg, &out)
	case ospf.MsgLSRequest:
		l.handleLSRequest(msg, &out)
	case ospf.MsgLSUpdate:
		l.handleLSUpdate(msg, &out)
	case ospf.MsgLSAck:
		l.handleLSAck(msg, &out)
	}
	return out
}

func (l *Local) handleNegotiate(msg ospf.Message, out *ospf.Outcome) {
	n := l.neighborOf(msg.Target, msg.From)
	if n.state == stateDown {
		n.state = stateExStart
		n.master = msg.Target > msg.From
	}
	if n.state != stateExStart {
		return
	}
	n.state = stateExchange
	out.Messages = append(out.Messages, ospf.Message{
		Kind: ospf.MsgDBDescription, From: msg.Target, Target: msg.From, Master: n.master,
		Headers: l.headersSharedWith(msg.Target, msg.From),
	})
}

// headersSharedWith returns r's LSA headers for every area r shares with
// peer, plus every External-LSA header (AS-external is not area-scoped).
func (l *Local) headersSharedWith(r, peer model.RouterId) []ospf.LSAHeader {
	shared := make(map[model.AreaId]bool)
	for area := range l.topo.AreasOf(r) {
		if l.topo.AreasOf(peer)[area] {
			shared[area] = true
		}
	}
	var headers []ospf.LSAHeader
	for area := range shared {
		for adv, lsa := range l.lsdb.RouterLSAsInArea(area) {
			headers = append(headers, ospf.LSAHeader{Key: model.LsaKey{Type: model.LsaRouter, Advertiser: adv}, Sequence: lsa.Sequence, Age: lsa.Age, Area: area})
		}
		for _, lsa := range l.lsdb.SummaryLSAsInArea(area) {
			headers = append(headers, ospf.LSAHeader{Key: lsa.Key, Sequence: lsa.Sequence, Age: lsa.Age, Area: area})
		}
	}
	for _, lsa := range l.lsdb.ExternalLSAs() {
		headers = append(headers, ospf.LSAHeader{Key: lsa.Key, Sequence: lsa.Sequence, Age: lsa.Age, Area: model.BackboneArea})
	}
	sort.Slice(headers, func(i, j int) bool { return headers[i].Key.Advertiser < headers[j].Key.Advertiser })
	return headers
}

func (l *Local) handleDBD(msg ospf.Message, out *ospf.Outcome) {
	n := l.neighborOf(msg.Target, msg.From)
	if n.state != stateExchange && n.state != stateExStart {
		return
	}
	n.state = stateExchange

	var need []model.LsaKey
	for _, h := range msg.Headers {
		var existing model.LSA
		var had bool
		if h.Key.Type == model.LsaExternal {
			existing, had = l.lsdb.External(h.Key)
		} else {
			existing, had = l.lsdb.Get(h.Area, h.Key)
		}
		remote := model.LSA{Key: h.Key, Sequence: h.Sequence, Age: h.Age}
		if !had || existing.Compare(remote) == model.LsaOlder {
			need = append(need, h.Key)
			n.pendingRequest[h.Key] = true
		}
	}
	if len(need) > 0 {
		out.Messages = append(out.Messages, ospf.Message{Kind: ospf.MsgLSRequest, From: msg.Target, Target: msg.From, Requested: need})
		return
	}
	if len(n.pendingRequest) == 0 {
		n.state = stateFull
	}
}

func (l *Local) handleLSRequest(msg ospf.Message, out *ospf.Outcome) {
	var lsas []ospf.AreaLSA
	for _, key := range msg.Requested {
		if key.Type == model.LsaExternal {
			if lsa, ok := l.lsdb.External(key); ok {
				lsas = append(lsas, ospf.AreaLSA{Area: model.BackboneArea, LSA: lsa})
			}
			continue
		}
		for _, area := range l.areasOfLSA(key) {
			if lsa, ok := l.lsdb.Get(area, key); ok {
				lsas = append(lsas, ospf.AreaLSA{Area: area, LSA: lsa})
			}
		}
	}
	if len(lsas) > 0 {
		out.Messages = append(out.Messages, ospf.Message{Kind: ospf.MsgLSUpdate, From: msg.Target, Target: msg.From, LSAs: lsas})
	}
}

func (l *Local) areasOfLSA(key model.LsaKey) []model.AreaId {
	var areas []model.AreaId
	for _, area := range l.lsdb.Areas() {
		if _, ok := l.lsdb.Get(area, key); ok {
			areas = append(areas, area)
		}
	}
	return areas
}

func (l *Local) handleLSUpdate(msg ospf.Message, out *ospf.Outcome) {
	n := l.neighborOf(msg.Target, msg.From)
	var acked []model.LsaKey
	anyInstalled := false

	for _, al := range msg.LSAs {
		lsa := al.LSA
		if lsa.Key.Advertiser == msg.Target {
			// Self-originated LSA reflected back: re-originate at a
			// higher sequence rather than accept the foreign copy.
			if lsa.Sequence >= l.seq[msg.Target] {
				l.seq[msg.Target] = lsa.Sequence + 1
				l.originateRouterLSA(msg.Target, out)
			}
			acked = append(acked, lsa.Key)
			continue
		}
		var installed bool
		if lsa.Key.Type == model.LsaExternal {
			installed = l.lsdb.InstallExternal(lsa)
		} else {
			installed = l.lsdb.Install(al.Area, lsa)
		}
		if installed {
			anyInstalled = true
			l.floodFromOwner(msg.Target, al, out)
		}
		delete(n.pendingRequest, lsa.Key)
		acked = append(acked, lsa.Key)
	}

	out.Messages = append(out.Messages, ospf.Message{Kind: ospf.MsgLSAck, From: msg.Target, Target: msg.From, Acked: acked})

	if len(n.pendingRequest) == 0 && n.state == stateExchange {
		n.state = stateFull
	}
	if anyInstalled {
		out.ChangedRouters = append(out.ChangedRouters, l.recomputeAffected(nil)...)
	}
}

func (l *Local) handleLSAck(msg ospf.Message, out *ospf.Outcome) {
	n := l.neighborOf(msg.Target, msg.From)
	for _, key := range msg.Acked {
		delete(n.retransmit, key)
	}
}

// recomputeAffected rebuilds every router's RIB and reports which ones
// changed. hint is accepted for interface symmetry with a future
// incremental implementation; the current builder always recomputes in
// full (see pkg/ospf.RIBs's doc comment).
func (l *Local) recomputeAffected(hint []model.RouterId) []model.RouterId {
	newRIBs := ospf.RIBs(l.topo, l.lsdb)
	var changed []model.RouterId
	for r, rib := range newRIBs {
		if !ribsEqual(l.ribs[r], rib) {
			changed = append(changed, r)
		}
	}
	for r := range l.ribs {
		if _, ok := newRIBs[r]; !ok {
			changed = append(changed, r)
		}
	}
	l.ribs = newRIBs
	return changed
}

func ribsEqual(a, b map[model.RouterId]model.OSPFRIBEntry) bool {
	if len(a) != len(b) {
		return false
	}
	for dest, ea := range a {
		eb, ok := b[dest]
		if !ok || ea.Cost != eb.Cost || ea.Class != eb.Class || len(ea.NextHops) != len(eb.NextHops) {
			return false
		}
	}
	return true
}

func (l *Local) RIB(r model.RouterId) map[model.RouterId]model.OSPFRIBEntry { return l.ribs[r] }

func (l *Local) IsReachable(a, b model.RouterId) bool {
	entry, ok := l.ribs[a][b]
	return ok && entry.Cost < model.InfiniteCost
}

var _ ospf.Process = (*Local)(nil)

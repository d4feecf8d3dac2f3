// Package sim implements the network driver: the owner of the
// topology, session graph, router map, and event queue, and the
// convergence loop that dispatches queued BGP/OSPF events to the right
// router's process.
package sim

import (
	"sort"

	"github.com/routesim/routesim/pkg/bgp"
	"github.com/routesim/routesim/pkg/external"
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/ospf"
	"github.com/routesim/routesim/pkg/prefix"
	"github.com/routesim/routesim/pkg/queue"
	"github.com/routesim/routesim/pkg/router"
	"github.com/routesim/routesim/pkg/routemap"
	"github.com/routesim/routesim/pkg/rserrors"
	"github.com/routesim/routesim/pkg/simlog"
)

// DefaultMsgLimit is the message cap applied unless SetMsgLimit overrides
// it: one million events before simulation gives up on convergence.
const DefaultMsgLimit = 1_000_000

type routerEntry[P prefix.Key] struct {
	name     string
	asn      model.ASN
	external bool
	rtr      *router.Router[P]
	ext      *external.Router[P]
}

// SessionConfig is one configured (not necessarily active) BGP session.
type SessionConfig struct {
	Src, Dst      model.RouterId
	IsClientOfSrc bool
}

func sessionKey(a, b model.RouterId) [2]model.RouterId {
	if a < b {
		return [2]model.RouterId{a, b}
	}
	return [2]model.RouterId{b, a}
}

// Network is the network driver: topology, sessions, routers, and the
// event queue driving convergence.
type Network[P prefix.Key] struct {
	routers map[model.RouterId]*routerEntry[P]
	order   []model.RouterId
	nextID  model.RouterId

	topo        *ospf.Topology
	ospfProcess ospf.Process

	configured map[[2]model.RouterId]SessionConfig
	active     map[[2]model.RouterId]bool

	queue     queue.Queue[P]
	skipQueue bool
	msgLimit  *int

	newMap       func() prefix.Map[P, bgp.RIBEntry[P]]
	newStaticMap func() prefix.Map[P, model.StaticRoute]
	newSet       func() prefix.Set[P]
}

// New builds an empty Network parameterized over a prefix kind, given an
// OSPF coordinator realization (global or local) and a queue realization.
func New[P prefix.Key](
	ospfProcess ospf.Process,
	q queue.Queue[P],
	newMap func() prefix.Map[P, bgp.RIBEntry[P]],
	newStaticMap func() prefix.Map[P, model.StaticRoute],
	newSet func() prefix.Set[P],
) *Network[P] {
	limit := DefaultMsgLimit
	return &Network[P]{
		routers:      make(map[model.RouterId]*routerEntry[P]),
		topo:         ospf.NewTopology(),
		ospfProcess:  ospfProcess,
		configured:   make(map[[2]model.RouterId]SessionConfig),
		active:       make(map[[2]model.RouterId]bool),
		queue:        q,
		msgLimit:     &limit,
		newMap:       newMap,
		newStaticMap: newStaticMap,
		newSet:       newSet,
	}
}

// AddRouter registers a new internal router and returns its id.
func (n *Network[P]) AddRouter(name string, asn model.ASN) model.RouterId {
	id := n.nextID
	n.nextID++
	n.topo.AddNode(id)
	n.ospfProcess.AddRouter(id)
	bgpProcess := bgp.NewProcess[P](id, asn, n.newMap, n.newSet)
	rtr := router.New[P](id, asn, n.ospfProcess, bgpProcess, n.newStaticMap)
	n.routers[id] = &routerEntry[P]{name: name, asn: asn, rtr: rtr}
	n.order = append(n.order, id)
	return id
}

// AddExternalRouter registers a new external router and returns its id.
func (n *Network[P]) AddExternalRouter(name string, asn model.ASN) model.RouterId {
	id := n.nextID
	n.nextID++
	n.topo.AddNode(id)
	ext := external.New[P](id, name, asn)
	n.routers[id] = &routerEntry[P]{name: name, asn: asn, external: true, ext: ext}
	n.order = append(n.order, id)
	return id
}

func (n *Network[P]) get(id model.RouterId) (*routerEntry[P], error) {
	e, ok := n.routers[id]
	if !ok {
		return nil, rserrors.NewDeviceError(rserrors.ErrDeviceNotFound, id.String())
	}
	return e, nil
}

// AddLink installs a bidirectional link of the default weight (100) in
// the backbone area. Forbidden between two external routers.
func (n *Network[P]) AddLink(a, b model.RouterId) error {
	ea, err := n.get(a)
	if err != nil {
		return err
	}
	eb, err := n.get(b)
	if err != nil {
		return err
	}
	if ea.external && eb.external {
		return rserrors.ErrCannotConnectExternalRouters
	}

	n.topo.SetLink(a, b, 100, model.BackboneArea)
	n.topo.SetLink(b, a, 100, model.BackboneArea)
	n.refreshAdjacency(a)
	n.refreshAdjacency(b)

	var events []queue.Event[P]
	if !ea.external && !eb.external {
		out1 := n.ospfProcess.Apply(model.AddLink(a, b, 100, model.BackboneArea))
		out2 := n.ospfProcess.Apply(model.AddLink(b, a, 100, model.BackboneArea))
		events = append(events, n.wrapOSPFOutcome(out1)...)
		events = append(events, n.wrapOSPFOutcome(out2)...)
	}
	return n.afterTopologyChange(events)
}

// RemoveLink tears down both directions of the link between a and b.
func (n *Network[P]) RemoveLink(a, b model.RouterId) error {
	ea, err := n.get(a)
	if err != nil {
		return err
	}
	eb, err := n.get(b)
	if err != nil {
		return err
	}
	if _, ok := n.topo.Link(a, b); !ok {
		return rserrors.NewDeviceError(rserrors.ErrLinkNotFound, a.String()+"-"+b.String())
	}

	n.topo.RemoveLink(a, b)
	n.topo.RemoveLink(b, a)
	n.refreshAdjacency(a)
	n.refreshAdjacency(b)

	var events []queue.Event[P]
	if !ea.external && !eb.external {
		out1 := n.ospfProcess.Apply(model.RemoveLink(a, b))
		out2 := n.ospfProcess.Apply(model.RemoveLink(b, a))
		events = append(events, n.wrapOSPFOutcome(out1)...)
		events = append(events, n.wrapOSPFOutcome(out2)...)
	}
	return n.afterTopologyChange(events)
}

// SetLinkWeight sets the directional weight of the link src->dst.
func (n *Network[P]) SetLinkWeight(src, dst model.RouterId, w int) error {
	link, ok := n.topo.Link(src, dst)
	if !ok {
		return rserrors.NewDeviceError(rserrors.ErrLinkNotFound, src.String()+"-"+dst.String())
	}
	esrc, err := n.get(src)
	if err != nil {
		return err
	}
	edst, err := n.get(dst)
	if err != nil {
		return err
	}
	if esrc.external || edst.external {
		return rserrors.ErrCannotConfigureExternalLink
	}

	n.topo.SetLink(src, dst, w, link.Area)
	out := n.ospfProcess.Apply(model.WeightChange(src, dst, w))
	return n.afterTopologyChange(n.wrapOSPFOutcome(out))
}

// SetOSPFArea sets the shared area of the undirected link (a,b).
func (n *Network[P]) SetOSPFArea(a, b model.RouterId, area model.AreaId) error {
	if _, ok := n.topo.Link(a, b); !ok {
		return rserrors.NewDeviceError(rserrors.ErrLinkNotFound, a.String()+"-"+b.String())
	}
	ea, err := n.get(a)
	if err != nil {
		return err
	}
	eb, err := n.get(b)
	if err != nil {
		return err
	}
	if ea.external || eb.external {
		return rserrors.ErrCannotConfigureExternalLink
	}

	if link, ok := n.topo.Link(a, b); ok {
		n.topo.SetLink(a, b, link.Weight, area)
	}
	if link, ok := n.topo.Link(b, a); ok {
		n.topo.SetLink(b, a, link.Weight, area)
	}
	out := n.ospfProcess.Apply(model.AreaChange(a, b, area))
	return n.afterTopologyChange(n.wrapOSPFOutcome(out))
}

// refreshAdjacency recomputes r's link-layer adjacency set from the
// topology, for internal routers (used to resolve Static Direct targets
// and BGP next hops toward routers outside the OSPF domain).
func (n *Network[P]) refreshAdjacency(r model.RouterId) {
	e := n.routers[r]
	if e == nil || e.external {
		return
	}
	e.rtr.SetDirectNeighbors(n.topo.Neighbors(r))
}

func (n *Network[P]) wrapOSPFOutcome(out ospf.Outcome) []queue.Event[P] {
	events := make([]queue.Event[P], 0, len(out.Messages))
	for _, m := range out.Messages {
		events = append(events, queue.FromOSPF[P](m.Target, m))
	}
	events = append(events, n.syncIGPCosts(out.ChangedRouters)...)
	return events
}

// syncIGPCosts pushes each changed router's fresh OSPF RIB costs into
// every internal router's BGP igp-cost table and collects the re-run
// events. The OSPF coordinator briefly borrows the set of routers of its
// AS during this pass to push the new RIBs.
func (n *Network[P]) syncIGPCosts(changed []model.RouterId) []queue.Event[P] {
	var events []queue.Event[P]
	for _, r := range changed {
		e := n.routers[r]
		if e == nil || e.external {
			continue
		}
		rib := n.ospfProcess.RIB(r)
		for dest, entry := range rib {
			events = append(events, wrapBGP[P](e.rtr.BGP.SetIGPCost(dest, entry.Cost))...)
		}
	}
	return events
}

func wrapBGP[P prefix.Key](events []bgp.Event[P]) []queue.Event[P] {
	out := make([]queue.Event[P], 0, len(events))
	for _, e := range events {
		out = append(out, queue.FromBGP(e))
	}
	return out
}

// SetBGPSession configures (some=true) or removes (some=false) the BGP
// session between src and dst. isClientOfSrc is only meaningful when
// some=true: it marks dst as src's route-reflector client.
func (n *Network[P]) SetBGPSession(src, dst model.RouterId, some bool, isClientOfSrc bool) error {
	esrc, err := n.get(src)
	if err != nil {
		return err
	}
	edst, err := n.get(dst)
	if err != nil {
		return err
	}
	key := sessionKey(src, dst)

	if !some {
		delete(n.configured, key)
		events := n.deactivate(key, src, dst)
		return n.afterTopologyChange(events)
	}

	if esrc.asn != edst.asn {
		if _, direct := n.topo.Link(src, dst); !direct {
			return rserrors.ErrInconsistentConfig
		}
	}

	n.configured[key] = SessionConfig{Src: src, Dst: dst, IsClientOfSrc: isClientOfSrc}
	return n.afterTopologyChange(n.refreshSessions())
}

// refreshSessions re-evaluates OSPF/link reachability for every
// configured session, activating or deactivating it accordingly. Every
// operation that modifies OSPF reachability must call this before
// draining the queue.
func (n *Network[P]) refreshSessions() []queue.Event[P] {
	var events []queue.Event[P]
	for key, cfg := range n.configured {
		reachable := n.sessionReachable(cfg.Src, cfg.Dst)
		if reachable && !n.active[key] {
			events = append(events, n.activate(key, cfg)...)
		} else if !reachable && n.active[key] {
			events = append(events, n.deactivate(key, cfg.Src, cfg.Dst)...)
		}
	}
	return events
}

func (n *Network[P]) sessionReachable(a, b model.RouterId) bool {
	ea := n.routers[a]
	eb := n.routers[b]
	if ea == nil || eb == nil {
		return false
	}
	if !ea.external && !eb.external {
		return n.ospfProcess.IsReachable(a, b) && n.ospfProcess.IsReachable(b, a)
	}
	_, ab := n.topo.Link(a, b)
	_, ba := n.topo.Link(b, a)
	return ab && ba
}

func (n *Network[P]) activate(key [2]model.RouterId, cfg SessionConfig) []queue.Event[P] {
	n.active[key] = true
	ea := n.routers[cfg.Src]
	eb := n.routers[cfg.Dst]
	var events []queue.Event[P]
	if ea.external {
		events = append(events, wrapBGP[P](ea.ext.EstablishPeer(cfg.Dst))...)
	} else {
		rec := model.SessionRecord{RemoteASN: eb.asn, IsClientOfMe: cfg.IsClientOfSrc}
		events = append(events, wrapBGP[P](ea.rtr.BGP.SetSession(cfg.Dst, rec, true))...)
	}
	if eb.external {
		events = append(events, wrapBGP[P](eb.ext.EstablishPeer(cfg.Src))...)
	} else {
		rec := model.SessionRecord{RemoteASN: ea.asn, IsClientOfMe: false}
		events = append(events, wrapBGP[P](eb.rtr.BGP.SetSession(cfg.Src, rec, true))...)
	}
	return events
}

func (n *Network[P]) deactivate(key [2]model.RouterId, a, b model.RouterId) []queue.Event[P] {
	if !n.active[key] {
		return nil
	}
	delete(n.active, key)
	var events []queue.Event[P]
	if ea := n.routers[a]; ea != nil {
		if ea.external {
			ea.ext.ClosePeer(b)
		} else {
			events = append(events, wrapBGP[P](ea.rtr.BGP.SetSession(b, model.SessionRecord{}, false))...)
		}
	}
	if eb := n.routers[b]; eb != nil {
		if eb.external {
			eb.ext.ClosePeer(a)
		} else {
			events = append(events, wrapBGP[P](eb.rtr.BGP.SetSession(a, model.SessionRecord{}, false))...)
		}
	}
	return events
}

// SetBGPRouteMap installs rm on router, applied to neighbor in the given
// direction (out=true means outbound/export).
func (n *Network[P]) SetBGPRouteMap(r, neighbor model.RouterId, out bool, rm *routemap.RouteMap[P]) error {
	e, err := n.get(r)
	if err != nil {
		return err
	}
	if e.external {
		return rserrors.NewDeviceError(rserrors.ErrDeviceIsExternal, e.name)
	}
	events := e.rtr.BGP.SetRouteMap(neighbor, out, rm)
	return n.afterTopologyChange(wrapBGP[P](events))
}

// RemoveBGPRouteMap removes the route map applied to neighbor in the
// given direction.
func (n *Network[P]) RemoveBGPRouteMap(r, neighbor model.RouterId, out bool) error {
	return n.SetBGPRouteMap(r, neighbor, out, nil)
}

// SetStaticRoute installs target as r's static route for prefixKey.
func (n *Network[P]) SetStaticRoute(r model.RouterId, prefixKey P, target model.StaticRoute) error {
	e, err := n.get(r)
	if err != nil {
		return err
	}
	if e.external {
		return rserrors.NewDeviceError(rserrors.ErrDeviceIsExternal, e.name)
	}
	events := e.rtr.SetStaticRoute(prefixKey, target)
	return n.afterTopologyChange(wrapBGP[P](events))
}

// AdvertiseExternalRoute has external router r originate prefixKey.
func (n *Network[P]) AdvertiseExternalRoute(r model.RouterId, prefixKey P, asPath model.ASPath, med int, communities model.CommunitySet) error {
	e, err := n.get(r)
	if err != nil {
		return err
	}
	if !e.external {
		return rserrors.NewDeviceError(rserrors.ErrDeviceIsInternal, e.name)
	}
	events := e.ext.AdvertisePrefix(prefixKey, asPath, med, communities)
	return n.afterTopologyChange(wrapBGP[P](events))
}

// WithdrawExternalRoute has external router r withdraw prefixKey.
func (n *Network[P]) WithdrawExternalRoute(r model.RouterId, prefixKey P) error {
	e, err := n.get(r)
	if err != nil {
		return err
	}
	if !e.external {
		return rserrors.NewDeviceError(rserrors.ErrDeviceIsInternal, e.name)
	}
	events := e.ext.WithdrawPrefix(prefixKey)
	return n.afterTopologyChange(wrapBGP[P](events))
}

// RemoveRouter tears down r's sessions and links and simulates the
// result regardless of whether manual-simulation mode is active.
func (n *Network[P]) RemoveRouter(r model.RouterId) error {
	e, err := n.get(r)
	if err != nil {
		return err
	}

	var events []queue.Event[P]
	for key, cfg := range n.configured {
		if cfg.Src == r || cfg.Dst == r {
			delete(n.configured, key)
			events = append(events, n.deactivate(key, cfg.Src, cfg.Dst)...)
		}
	}
	for _, neighbor := range n.topo.Neighbors(r) {
		n.topo.RemoveLink(r, neighbor)
		n.topo.RemoveLink(neighbor, r)
		n.refreshAdjacency(neighbor)
	}
	n.topo.RemoveNode(r)

	if !e.external {
		out := n.ospfProcess.RemoveRouter(r)
		events = append(events, n.wrapOSPFOutcome(out)...)
	}

	delete(n.routers, r)
	for i, id := range n.order {
		if id == r {
			n.order = append(n.order[:i], n.order[i+1:]...)
			break
		}
	}

	events = append(events, n.refreshSessions()...)
	n.queue.PushMany(events)
	n.updateQueueParams()
	return n.runConvergence()
}

// SetMsgLimit sets the message cap; nil means run forever.
func (n *Network[P]) SetMsgLimit(limit *int) { n.msgLimit = limit }

// AutoSimulation enables automatic convergence after every mutation.
func (n *Network[P]) AutoSimulation() { n.skipQueue = false }

// ManualSimulation defers convergence: operations enqueue their initial
// events and return immediately; the caller drains the queue via
// SimulateStep.
func (n *Network[P]) ManualSimulation() { n.skipQueue = true }

// SimulateStep pops and dispatches exactly one event, returning the event
// dispatched and false if the queue was empty.
func (n *Network[P]) SimulateStep() (queue.Event[P], bool, error) {
	e, ok := n.queue.Pop()
	if !ok {
		return queue.Event[P]{}, false, nil
	}
	n.queue.PushMany(n.dispatch(e))
	return e, true, nil
}

func (n *Network[P]) updateQueueParams() {
	n.queue.UpdateParams(append([]model.RouterId{}, n.order...), n.topo)
}

// afterTopologyChange pushes events to the queue, refreshes BGP session
// reachability (since the caller may have just changed OSPF reachability),
// and runs convergence unless skip_queue is set.
func (n *Network[P]) afterTopologyChange(events []queue.Event[P]) error {
	n.queue.PushMany(events)
	n.queue.PushMany(n.refreshSessions())
	n.updateQueueParams()
	if n.skipQueue {
		return nil
	}
	return n.runConvergence()
}

// runConvergence drains the queue, dispatching each event to the target
// router's BGP process or the OSPF coordinator, until empty or the
// message cap is reached.
func (n *Network[P]) runConvergence() error {
	count := 0
	for !n.queue.IsEmpty() {
		if n.msgLimit != nil && count >= *n.msgLimit {
			return rserrors.ErrNoConvergence
		}
		e, ok := n.queue.Pop()
		if !ok {
			break
		}
		count++
		n.queue.PushMany(n.dispatch(e))
	}
	return nil
}

// dispatch handles one queued event and returns any events it produced.
func (n *Network[P]) dispatch(e queue.Event[P]) []queue.Event[P] {
	switch {
	case e.BGP != nil:
		return n.dispatchBGP(*e.BGP)
	case e.OSPF != nil:
		return n.wrapOSPFOutcome(n.ospfProcess.HandleMessage(*e.OSPF))
	default:
		return nil
	}
}

func (n *Network[P]) dispatchBGP(e bgp.Event[P]) []queue.Event[P] {
	target := n.routers[e.Target]
	if target == nil || target.external {
		simlog.WithRouter(e.Target).WithEvent("bgp-dispatch").Debug("dropping BGP event targeting unknown or external router")
		return nil
	}
	if !target.rtr.BGP.HasSession(e.From) {
		simlog.WithRouter(e.Target).WithEvent("bgp-dispatch").Debugf("%v", rserrors.ErrNoBGPSession)
		return nil
	}
	var produced []bgp.Event[P]
	if e.Kind == bgp.EventUpdate {
		produced = target.rtr.BGP.HandleUpdate(e.From, e.Prefix, e.Route)
	} else {
		produced = target.rtr.BGP.HandleWithdraw(e.From, e.Prefix)
	}
	return wrapBGP[P](produced)
}

// RouterIDs returns every router id in insertion order.
func (n *Network[P]) RouterIDs() []model.RouterId {
	return append([]model.RouterId{}, n.order...)
}

// Router returns the internal router aggregate for id, if present and
// internal.
func (n *Network[P]) Router(id model.RouterId) (*router.Router[P], bool) {
	e, ok := n.routers[id]
	if !ok || e.external {
		return nil, false
	}
	return e.rtr, true
}

// ExternalRouter returns the external router aggregate for id, if present
// and external.
func (n *Network[P]) ExternalRouter(id model.RouterId) (*external.Router[P], bool) {
	e, ok := n.routers[id]
	if !ok || !e.external {
		return nil, false
	}
	return e.ext, true
}

// LinkWeight returns the directional weight of the link src->dst.
func (n *Network[P]) LinkWeight(src, dst model.RouterId) (int, bool) {
	link, ok := n.topo.Link(src, dst)
	return link.Weight, ok
}

// OSPFArea returns the shared area of the link (a,b).
func (n *Network[P]) OSPFArea(a, b model.RouterId) (model.AreaId, bool) {
	link, ok := n.topo.Link(a, b)
	return link.Area, ok
}

// BGPSessions returns every configured session pair in a stable order.
func (n *Network[P]) BGPSessions() []SessionConfig {
	out := make([]SessionConfig, 0, len(n.configured))
	for _, cfg := range n.configured {
		out = append(out, cfg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Src != out[j].Src {
			return out[i].Src < out[j].Src
		}
		return out[i].Dst < out[j].Dst
	})
	return out
}

// Name returns the configured name of id, or its RouterId string form if
// unknown.
func (n *Network[P]) Name(id model.RouterId) string {
	if e, ok := n.routers[id]; ok {
		return e.name
	}
	return id.String()
}

// Topology exposes the driver's topology graph for forwarding-state
// derivation and scenario introspection.
func (n *Network[P]) Topology() *ospf.Topology { return n.topo }

// OSPF exposes the shared OSPF coordinator.
func (n *Network[P]) OSPF() ospf.Process { return n.ospfProcess }

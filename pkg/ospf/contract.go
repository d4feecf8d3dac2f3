package ospf

import "github.com/routesim/routesim/pkg/model"

// MessageKind discriminates the OSPFv2 message types the local
// realization exchanges between neighbors.
type MessageKind int

const (
	// MsgNegotiate starts neighbor bring-up at ExStart (the core omits
	// Hello; sessions are configured directly into negotiation).
	MsgNegotiate MessageKind = iota
	MsgDBDescription
	MsgLSRequest
	MsgLSUpdate
	MsgLSAck
)

// Message is one OSPF protocol message in flight on the event queue,
// emitted and consumed only by the local realization.
type Message struct {
	Kind   MessageKind
	From   model.RouterId
	Target model.RouterId

	// Master is set on MsgNegotiate/MsgDBDescription: true if From is the
	// leader (higher router id) of the DD exchange.
	Master bool
	// Headers accompanies MsgDBDescription: the LSA headers (as LsaKey +
	// freshness) From is offering.
	Headers []LSAHeader
	// Requested accompanies MsgLSRequest: the keys From wants.
	Requested []model.LsaKey
	// LSAs accompanies MsgLSUpdate: the full LSAs From is flooding.
	LSAs []AreaLSA
	// Acked accompanies MsgLSAck.
	Acked []model.LsaKey
}

// LSAHeader is the (key, sequence, age) triple exchanged during Database
// Description, without the LSA body.
type LSAHeader struct {
	Key      model.LsaKey
	Sequence int32
	Age      int
	Area     model.AreaId
}

// AreaLSA pairs an LSA with the area it was flooded in (External-LSAs use
// model.BackboneArea as a don't-care placeholder since they are not
// area-scoped). Exported for construction from sibling packages (the
// local realization).
type AreaLSA struct {
	Area model.AreaId
	LSA  model.LSA
}

// Outcome is the result of feeding one input (a neighborhood change or an
// incoming Message) to a Process: any OSPF protocol messages to enqueue,
// and the set of routers whose RIB changed as a result (ready for the
// caller to re-run BGP's IGP-cost-driven decision process).
type Outcome struct {
	Messages       []Message
	ChangedRouters []model.RouterId
}

// Process is the contract every OSPF realization implements: given a neighborhood
// delta or an incoming protocol message, produce the updated per-router
// RIBs (and, for the local realization, the OSPF messages to flood). The
// global and local coordinators (pkg/ospf/global, pkg/ospf/local) both
// satisfy this contract over the shared Topology/LSDB/SPT machinery in
// this package.
type Process interface {
	Apply(change model.NeighborhoodChange) Outcome
	HandleMessage(msg Message) Outcome

	RIB(r model.RouterId) map[model.RouterId]model.OSPFRIBEntry
	IsReachable(a, b model.RouterId) bool

	AddRouter(r model.RouterId)
	RemoveRouter(r model.RouterId) Outcome
}

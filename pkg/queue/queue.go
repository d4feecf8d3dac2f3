// Package queue implements the event queue: an opaque container of
// pending BGP/OSPF events with a default FIFO realization and an optional
// Redis-backed one for experiments that want the queue's state visible
// outside the simulator process.
package queue

import (
	"github.com/routesim/routesim/pkg/bgp"
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/ospf"
	"github.com/routesim/routesim/pkg/prefix"
)

// Event wraps exactly one of a BGP or an OSPF message, addressed to
// Target. Queue implementations are free to reorder or prioritize across
// Events but must eventually return every pushed one.
type Event[P prefix.Key] struct {
	Target model.RouterId
	BGP    *bgp.Event[P] `json:"bgp,omitempty"`
	OSPF   *ospf.Message `json:"ospf,omitempty"`
}

// FromBGP wraps a BGP event for the queue.
func FromBGP[P prefix.Key](e bgp.Event[P]) Event[P] {
	return Event[P]{Target: e.Target, BGP: &e}
}

// FromOSPF wraps an OSPF message for the queue.
func FromOSPF[P prefix.Key](target model.RouterId, m ospf.Message) Event[P] {
	return Event[P]{Target: target, OSPF: &m}
}

// Queue is the pending-event queue contract. UpdateParams is called after
// every structural change (router/link/session mutation) so a
// priority-aware implementation can reindex against the current topology;
// the FIFO realization ignores it.
type Queue[P prefix.Key] interface {
	Push(e Event[P])
	PushMany(events []Event[P])
	Pop() (Event[P], bool)
	Len() int
	IsEmpty() bool
	UpdateParams(routers []model.RouterId, topo *ospf.Topology)
}

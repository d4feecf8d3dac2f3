package external

import (
	"testing"

	"github.com/routesim/routesim/pkg/bgp"
	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/prefix/simple"
)

func TestAdvertisePrefixEmitsToActivePeersOnly(t *testing.T) {
	r := New[simple.Prefix](100, "isp1", 65001)
	r.EstablishPeer(1)

	events := r.AdvertisePrefix(simple.Prefix(10), model.ASPath{65001}, 0, nil)
	if len(events) != 1 || events[0].Target != 1 || events[0].Kind != bgp.EventUpdate {
		t.Fatalf("expected one update to peer 1, got %+v", events)
	}
}

func TestEstablishPeerReemitsActiveAdvertisements(t *testing.T) {
	r := New[simple.Prefix](100, "isp1", 65001)
	r.AdvertisePrefix(simple.Prefix(10), model.ASPath{65001}, 0, nil)
	r.AdvertisePrefix(simple.Prefix(20), model.ASPath{65001}, 0, nil)

	events := r.EstablishPeer(1)
	if len(events) != 2 {
		t.Fatalf("expected two updates on peer establish, got %d", len(events))
	}
}

func TestClosePeerEmitsNoWithdraws(t *testing.T) {
	r := New[simple.Prefix](100, "isp1", 65001)
	r.AdvertisePrefix(simple.Prefix(10), model.ASPath{65001}, 0, nil)
	r.EstablishPeer(1)

	r.ClosePeer(1)
	if r.IsPeerActive(1) {
		t.Fatalf("expected peer 1 to no longer be active")
	}
}

func TestWithdrawPrefixEmitsToEveryActivePeer(t *testing.T) {
	r := New[simple.Prefix](100, "isp1", 65001)
	r.EstablishPeer(1)
	r.EstablishPeer(2)
	r.AdvertisePrefix(simple.Prefix(10), model.ASPath{65001}, 0, nil)

	events := r.WithdrawPrefix(simple.Prefix(10))
	if len(events) != 2 {
		t.Fatalf("expected withdraw to both peers, got %d", len(events))
	}
	for _, e := range events {
		if e.Kind != bgp.EventWithdraw {
			t.Fatalf("expected EventWithdraw, got %v", e.Kind)
		}
	}
}

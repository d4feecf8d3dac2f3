package queue

import (
	"testing"

	"github.com/routesim/routesim/pkg/bgp"
	"github.com/routesim/routesim/pkg/prefix/simple"
)

func TestFIFOPopsInPushOrder(t *testing.T) {
	q := NewFIFO[simple.Prefix]()
	q.Push(FromBGP(bgp.Event[simple.Prefix]{Target: 1, Prefix: simple.Prefix(10)}))
	q.Push(FromBGP(bgp.Event[simple.Prefix]{Target: 2, Prefix: simple.Prefix(20)}))

	first, ok := q.Pop()
	if !ok || first.Target != 1 {
		t.Fatalf("expected first event targeting router 1, got %+v", first)
	}
	second, ok := q.Pop()
	if !ok || second.Target != 2 {
		t.Fatalf("expected second event targeting router 2, got %+v", second)
	}
	if !q.IsEmpty() {
		t.Fatalf("expected queue to be empty after draining")
	}
}

func TestFIFOPushManyPreservesOrder(t *testing.T) {
	q := NewFIFO[simple.Prefix]()
	q.PushMany([]Event[simple.Prefix]{
		FromBGP(bgp.Event[simple.Prefix]{Target: 1}),
		FromBGP(bgp.Event[simple.Prefix]{Target: 2}),
		FromBGP(bgp.Event[simple.Prefix]{Target: 3}),
	})
	if q.Len() != 3 {
		t.Fatalf("expected 3 queued events, got %d", q.Len())
	}
	for _, want := range []int{1, 2, 3} {
		e, ok := q.Pop()
		if !ok || int(e.Target) != want {
			t.Fatalf("expected target %d, got %+v", want, e)
		}
	}
}

func TestFIFOPopOnEmptyReturnsFalse(t *testing.T) {
	q := NewFIFO[simple.Prefix]()
	if _, ok := q.Pop(); ok {
		t.Fatalf("expected pop on empty queue to return false")
	}
}

package routemap

import (
	"testing"

	"github.com/routesim/routesim/pkg/model"
	"github.com/routesim/routesim/pkg/prefix/simple"
)

func newCandidate(pfx simple.Prefix) *Candidate[simple.Prefix] {
	return &Candidate[simple.Prefix]{
		Prefix:    pfx,
		ASPath:    model.ASPath{3, 2, 1},
		LocalPref: DefaultLocalPref,
		MED:       DefaultMED,
		Weight:    DefaultWeight,
	}
}

func TestApplyDefaultAllowsWhenNoEntryMatches(t *testing.T) {
	rm := New[simple.Prefix]("empty")
	c := newCandidate(simple.Prefix(1))
	if ok := rm.Apply(c); !ok {
		t.Fatalf("empty route map should allow by default")
	}
}

func TestApplyDenyStopsEvaluation(t *testing.T) {
	rm := New[simple.Prefix]("deny-all")
	if err := rm.AddEntry(&Entry[simple.Prefix]{
		Order:  10,
		Action: Deny,
	}); err != nil {
		t.Fatal(err)
	}
	c := newCandidate(simple.Prefix(1))
	if ok := rm.Apply(c); ok {
		t.Fatalf("deny entry should drop the route")
	}
}

func TestApplySetClausesOnMatch(t *testing.T) {
	rm := New[simple.Prefix]("set-lp")
	if err := rm.AddEntry(&Entry[simple.Prefix]{
		Order:   10,
		Action:  Allow,
		Matches: []Match[simple.Prefix]{MatchPrefixEquals[simple.Prefix]{Prefix: simple.Prefix(1)}},
		Sets:    []Set[simple.Prefix]{SetLocalPref[simple.Prefix]{Value: 50}},
		Flow:    Flow{Kind: Exit},
	}); err != nil {
		t.Fatal(err)
	}
	c := newCandidate(simple.Prefix(1))
	if ok := rm.Apply(c); !ok {
		t.Fatalf("allow entry should pass the route")
	}
	if c.LocalPref != 50 {
		t.Errorf("expected local-pref 50, got %d", c.LocalPref)
	}

	other := newCandidate(simple.Prefix(2))
	rm.Apply(other)
	if other.LocalPref != DefaultLocalPref {
		t.Errorf("non-matching prefix should be unaffected, got local-pref %d", other.LocalPref)
	}
}

func TestContinueAtJumpsToTargetOrder(t *testing.T) {
	rm := New[simple.Prefix]("continue-at")
	must := func(e *Entry[simple.Prefix]) {
		if err := rm.AddEntry(e); err != nil {
			t.Fatal(err)
		}
	}
	must(&Entry[simple.Prefix]{
		Order:  10,
		Action: Allow,
		Sets:   []Set[simple.Prefix]{SetWeight[simple.Prefix]{Value: 200}},
		Flow:   Flow{Kind: ContinueAt, Target: 30},
	})
	must(&Entry[simple.Prefix]{
		Order:  20,
		Action: Allow,
		Sets:   []Set[simple.Prefix]{SetWeight[simple.Prefix]{Value: 999}},
		Flow:   Flow{Kind: Exit},
	})
	must(&Entry[simple.Prefix]{
		Order:  30,
		Action: Allow,
		Sets:   []Set[simple.Prefix]{SetMED[simple.Prefix]{Value: 5}},
		Flow:   Flow{Kind: Exit},
	})

	c := newCandidate(simple.Prefix(1))
	rm.Apply(c)
	if c.Weight != 200 {
		t.Errorf("expected weight 200 from the order-10 entry, got %d", c.Weight)
	}
	if c.Weight == 999 {
		t.Errorf("order-20 entry should have been skipped by ContinueAt")
	}
	if c.MED != 5 {
		t.Errorf("expected MED 5 from the order-30 entry, got %d", c.MED)
	}
}

func TestAddEntryRejectsDuplicateOrder(t *testing.T) {
	rm := New[simple.Prefix]("dup")
	if err := rm.AddEntry(&Entry[simple.Prefix]{Order: 10, Action: Allow}); err != nil {
		t.Fatal(err)
	}
	if err := rm.AddEntry(&Entry[simple.Prefix]{Order: 10, Action: Deny}); err == nil {
		t.Fatalf("expected duplicate order key to be rejected")
	}
}

func TestPrependASPath(t *testing.T) {
	rm := New[simple.Prefix]("prepend")
	if err := rm.AddEntry(&Entry[simple.Prefix]{
		Order:  10,
		Action: Allow,
		Sets:   []Set[simple.Prefix]{SetPrependASPath[simple.Prefix]{ASN: 42, Count: 2}},
		Flow:   Flow{Kind: Exit},
	}); err != nil {
		t.Fatal(err)
	}
	c := newCandidate(simple.Prefix(1))
	rm.Apply(c)
	want := model.ASPath{42, 42, 3, 2, 1}
	if !c.ASPath.Equal(want) {
		t.Errorf("expected AS path %v, got %v", want, c.ASPath)
	}
}

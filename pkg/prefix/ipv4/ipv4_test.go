package ipv4

import "testing"

func TestLPMReturnsLongestCoveringPrefix(t *testing.T) {
	m := NewMap[string]()
	m.Insert(MustParse("100.0.0.0/16"), "e1")
	m.Insert(MustParse("100.0.2.0/24"), "e4")

	key, val, ok := m.LPM(MustParse("100.0.0.1/32"))
	if !ok || val != "e1" || key.String() != "100.0.0.0/16" {
		t.Fatalf("expected 100.0.0.0/16 -> e1, got %v %v %v", key, val, ok)
	}

	key, val, ok = m.LPM(MustParse("100.0.2.1/32"))
	if !ok || val != "e4" || key.String() != "100.0.2.0/24" {
		t.Fatalf("expected 100.0.2.0/24 -> e4 (more specific), got %v %v %v", key, val, ok)
	}
}

func TestLPMWithStaticOverride(t *testing.T) {
	m := NewMap[string]()
	m.Insert(MustParse("100.0.2.0/23"), "r3-23")
	m.Insert(MustParse("100.0.2.128/25"), "r3-25")

	_, val, ok := m.LPM(MustParse("100.0.2.1/32"))
	if !ok || val != "r3-23" {
		t.Fatalf("expected the /23 entry for 100.0.2.1, got %v %v", val, ok)
	}

	_, val, ok = m.LPM(MustParse("100.0.2.129/32"))
	if !ok || val != "r3-25" {
		t.Fatalf("expected the /25 entry for 100.0.2.129, got %v %v", val, ok)
	}
}

func TestLPMNoCoveringPrefix(t *testing.T) {
	m := NewMap[string]()
	m.Insert(MustParse("10.0.0.0/8"), "x")
	if _, _, ok := m.LPM(MustParse("192.168.1.1/32")); ok {
		t.Fatalf("expected no match for an unrelated address")
	}
}

func TestDeleteRemovesExactEntryOnly(t *testing.T) {
	m := NewMap[int]()
	m.Insert(MustParse("10.0.0.0/8"), 1)
	m.Insert(MustParse("10.0.0.0/16"), 2)
	m.Delete(MustParse("10.0.0.0/16"))

	if _, ok := m.Get(MustParse("10.0.0.0/16")); ok {
		t.Fatalf("expected the /16 entry to be gone")
	}
	if v, ok := m.Get(MustParse("10.0.0.0/8")); !ok || v != 1 {
		t.Fatalf("expected the /8 entry to survive, got %v %v", v, ok)
	}
	if m.Len() != 1 {
		t.Fatalf("expected Len() == 1, got %d", m.Len())
	}
}

func TestSetOperations(t *testing.T) {
	s := NewSet()
	a := MustParse("172.16.0.0/12")
	b := MustParse("192.168.0.0/16")
	s.Add(a)
	s.Add(b)
	if !s.Contains(a) || !s.Contains(b) {
		t.Fatalf("expected both prefixes to be members")
	}
	if s.Len() != 2 {
		t.Fatalf("expected Len() == 2, got %d", s.Len())
	}
	s.Remove(a)
	if s.Contains(a) {
		t.Fatalf("expected a to be removed")
	}
	if got := s.Sorted(); len(got) != 1 || got[0] != b {
		t.Fatalf("expected Sorted() == [%v], got %v", b, got)
	}
}

func TestRangeVisitsInAscendingOrder(t *testing.T) {
	m := NewMap[int]()
	m.Insert(MustParse("10.0.0.0/24"), 1)
	m.Insert(MustParse("10.0.0.0/8"), 2)
	m.Insert(MustParse("10.0.0.0/16"), 3)

	var bits []int
	m.Range(func(k Prefix, v int) bool {
		bits = append(bits, k.Bits())
		return true
	})
	want := []int{8, 16, 24}
	if len(bits) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(bits))
	}
	for i := range want {
		if bits[i] != want[i] {
			t.Fatalf("expected ascending bit lengths %v, got %v", want, bits)
		}
	}
}

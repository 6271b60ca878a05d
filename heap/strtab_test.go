package heap

import "testing"

func newTestHeap(t *testing.T) *Heap {
	t.Helper()
	return New(nil, nil, DefaultConfig())
}

func TestStringTable_InternIdentity(t *testing.T) {
	h := newTestHeap(t)

	a := h.StringTable().Intern([]byte("foobar"))
	b := h.StringTable().Intern([]byte("foo" + "bar"))

	if a != b {
		t.Fatalf("expected interning equal byte sequences to return the same reference")
	}
	if a.Refcount < 2 {
		t.Fatalf("expected refcount >= 2 after two Intern calls, got %d", a.Refcount)
	}
}

func TestStringTable_DistinctStrings(t *testing.T) {
	h := newTestHeap(t)

	a := h.StringTable().Intern([]byte("alpha"))
	b := h.StringTable().Intern([]byte("beta"))

	if a == b {
		t.Fatal("expected distinct byte sequences to intern to distinct references")
	}
}

func TestStringTable_RemovalOnZeroRefcount(t *testing.T) {
	h := newTestHeap(t)

	s := h.StringTable().Intern([]byte("ephemeral"))
	if h.StringTable().Count() != 1 {
		t.Fatalf("expected 1 interned string, got %d", h.StringTable().Count())
	}

	h.DecRef(s)

	if h.StringTable().Count() != 0 {
		t.Fatalf("expected string table entry removed once refcount reaches zero, got count %d", h.StringTable().Count())
	}
	if h.Count() != 0 {
		t.Fatalf("expected string unlinked from the allocated list, got count %d", h.Count())
	}
}

func TestStringTable_CharLen(t *testing.T) {
	h := newTestHeap(t)

	s := h.StringTable().Intern([]byte("héllo"))
	if s.ByteLen() != 6 {
		t.Fatalf("expected byte length 6 for 'héllo', got %d", s.ByteLen())
	}
	if s.CharLen() != 5 {
		t.Fatalf("expected char length 5 for 'héllo', got %d", s.CharLen())
	}
}

func TestDukString_CharAtWalksNonASCIIByCodePoint(t *testing.T) {
	h := newTestHeap(t)

	s := h.StringTable().Intern([]byte("héllo"))

	want := []string{"h", "é", "l", "l", "o"}
	for i, w := range want {
		got, ok := s.CharAt(uint32(i))
		if !ok {
			t.Fatalf("CharAt(%d) reported out of range", i)
		}
		if string(got) != w {
			t.Fatalf("CharAt(%d) = %q, want %q", i, got, w)
		}
	}

	if _, ok := s.CharAt(5); ok {
		t.Fatal("expected CharAt(5) to be out of range for a 5-character string")
	}
}

func TestDukString_CharAtReusesCacheCheckpoint(t *testing.T) {
	h := newTestHeap(t)

	s := h.StringTable().Intern([]byte("abcdéfg"))

	// Prime the cache near the middle, then ask for a nearby later
	// index: lookupCache should resume from the cached checkpoint
	// instead of re-walking from byte 0.
	if _, ok := s.CharAt(3); !ok {
		t.Fatal("CharAt(3) reported out of range")
	}
	got, ok := s.CharAt(4)
	if !ok {
		t.Fatal("CharAt(4) reported out of range")
	}
	if string(got) != "é" {
		t.Fatalf("CharAt(4) = %q, want %q", got, "é")
	}
}

func TestStringTable_GrowsAndSurvivesLookup(t *testing.T) {
	h := newTestHeap(t)

	const n = 500
	strs := make([]*DukString, 0, n)
	for i := 0; i < n; i++ {
		strs = append(strs, h.StringTable().Intern([]byte{byte(i), byte(i >> 8), 'x'}))
	}

	for i, s := range strs {
		got := h.StringTable().Intern([]byte{byte(i), byte(i >> 8), 'x'})
		if got != s {
			t.Fatalf("entry %d did not survive table growth: got different reference", i)
		}
	}
}

package heap

import (
	"crypto/rand"
	"encoding/binary"
)

// charCacheSize is the number of char-offset -> byte-offset entries cached
// per string (spec.md §3 "a small per-heap char-offset cache, default 4
// entries").
const charCacheSize = 4

// charCacheEntry remembers that charIdx (a code-point index) starts at
// byteOff within DukString.body, so repeated random access into a
// non-ASCII string doesn't re-walk from the start every time.
type charCacheEntry struct {
	charIdx uint32
	byteOff uint32
	valid   bool
}

// DukString is an immutable, interned byte sequence in duk5's extended
// UTF-8 (spec.md §3 "String (C4)"): any 32-bit code point, including
// CESU-8 surrogate pairs for non-BMP characters outside strict UTF-8.
type DukString struct {
	Header

	hash    uint32
	byteLen uint32
	charLen uint32
	body    []byte

	cache    [charCacheSize]charCacheEntry
	cacheNxt int
}

// Bytes returns the string's raw body. Callers must not mutate the
// returned slice; strings are immutable once interned.
func (s *DukString) Bytes() []byte { return s.body }

// ByteLen returns the length of the string in bytes.
func (s *DukString) ByteLen() uint32 { return s.byteLen }

// CharLen returns the length of the string in code points.
func (s *DukString) CharLen() uint32 { return s.charLen }

// Hash returns the string's content hash, seeded at heap creation.
func (s *DukString) Hash() uint32 { return s.hash }

// Trace reports no outgoing references: a string body holds no tagged
// values and no references to other heap objects.
func (s *DukString) Trace(visit func(Traceable)) {}

// lookupCache returns the best known (charIdx, byteOff) pair at or before
// want, falling back to the string start when nothing is cached yet.
func (s *DukString) lookupCache(want uint32) (charIdx, byteOff uint32) {
	bestChar, bestByte := uint32(0), uint32(0)
	for _, e := range s.cache {
		if e.valid && e.charIdx <= want && e.charIdx >= bestChar {
			bestChar, bestByte = e.charIdx, e.byteOff
		}
	}
	return bestChar, bestByte
}

// storeCache records charIdx -> byteOff, evicting cache entries
// round-robin once full.
func (s *DukString) storeCache(charIdx, byteOff uint32) {
	s.cache[s.cacheNxt] = charCacheEntry{charIdx: charIdx, byteOff: byteOff, valid: true}
	s.cacheNxt = (s.cacheNxt + 1) % charCacheSize
}

// CharAt returns the single-character substring starting at code-point
// index charIdx, per spec.md §3's "random access into non-ASCII
// strings" via the char-offset cache: it resumes the byte-offset walk
// from the closest cached checkpoint at or before charIdx instead of
// always re-walking from the string start, then remembers the landing
// spot for the next lookup. Reports ok=false if charIdx is out of
// range.
func (s *DukString) CharAt(charIdx uint32) (ch []byte, ok bool) {
	if charIdx >= s.charLen {
		return nil, false
	}

	curChar, byteOff := s.lookupCache(charIdx)
	for curChar < charIdx && byteOff < s.byteLen {
		byteOff++
		for byteOff < s.byteLen && s.body[byteOff]&0xC0 == 0x80 {
			byteOff++
		}
		curChar++
	}

	end := byteOff + 1
	for end < s.byteLen && s.body[end]&0xC0 == 0x80 {
		end++
	}

	s.storeCache(charIdx, byteOff)
	return s.body[byteOff:end], true
}

// cellState distinguishes an empty slot (never used; probing stops), a
// deleted slot (used once; probing must continue past it), and a used
// slot, per spec.md §4.2's "sentinel distinct from null and from any
// string".
type cellState uint8

const (
	cellEmpty cellState = iota
	cellDeleted
	cellUsed
)

type cell struct {
	state cellState
	str   *DukString
}

// StringTable is the heap's weakly-referenced intern table (C4): an
// open-addressed hash table keyed by content hash, holding at most one
// DukString per distinct byte sequence. Table cells do not themselves
// hold a counted reference (see newStringTable's doc comment); a string
// is removed from the table in the same step that frees it.
type StringTable struct {
	h        *Heap
	cells    []cell
	used     int
	deleted  int
	seed     uint32
	inhibit  bool // set during sweep to defer a resize (spec.md §4.2)
	minCells int
}

// stringTablePrimes lists candidate table sizes, each prime, used for
// both growth and shrink (next prime >= 2x used) per
// spec.md §4.2's doubling/halving-to-prime policy.
var stringTablePrimes = []int{
	17, 37, 79, 163, 331, 673, 1361, 2729, 5463, 10949,
	21911, 43853, 87719, 175447, 350899, 701819, 1403641,
	2807303, 5614657, 11229331, 22458671, 44917381,
}

func nextPrime(n int) int {
	for _, p := range stringTablePrimes {
		if p >= n {
			return p
		}
	}
	return stringTablePrimes[len(stringTablePrimes)-1]
}

// newStringTable creates a heap's intern table.
//
// Design note (Open Question resolution, spec.md §9): spec.md's
// component table describes C4 as a "weakly-referenced intern table"
// but invariant 2(c) lists intern-table entries among the strong
// references that make up a string's refcount. Taken literally, the two
// are incompatible with the lifecycle rule that removal from the table
// is *driven by* refcount reaching zero (§4.4 "Removal"): if table
// membership itself held a counted reference, the count could never
// reach zero while the entry remained. duk5 resolves this the way real
// duktape does it: the table holds a bare Go pointer with no IncRef of
// its own. Intern() increfs the *returned* reference on behalf of the
// caller, not on behalf of the table slot; when the last caller-side
// reference drops to zero, drainRefzero's free path removes the table
// entry as part of freeing the string.
func newStringTable(h *Heap) *StringTable {
	minCells := h.config.StringTableMinEntries
	if minCells <= 0 {
		minCells = 17
	}
	minCells = nextPrime(minCells)
	var seedBuf [4]byte
	if _, err := rand.Read(seedBuf[:]); err != nil {
		Logger().Warn("string table seed fallback to fixed value; crypto/rand unavailable")
		seedBuf = [4]byte{0x9e, 0x37, 0x79, 0xb9}
	}
	return &StringTable{
		h:        h,
		cells:    make([]cell, minCells),
		seed:     binary.LittleEndian.Uint32(seedBuf[:]),
		minCells: minCells,
	}
}

func (t *StringTable) hashBytes(b []byte) uint32 {
	// FNV-1a, seeded, per spec.md §3 "32-bit hash seeded at heap creation".
	h := t.seed ^ 2166136261
	for _, c := range b {
		h ^= uint32(c)
		h *= 16777619
	}
	return h
}

// Intern returns the unique DukString for b, allocating and registering
// a new one on first sight. The returned reference is already IncRef'd
// on the caller's behalf (refcount 1 for a brand new string, +1 for a
// pre-existing one) — callers must DecRef it exactly once when they
// release their hold, per C6.
func (t *StringTable) Intern(b []byte) *DukString {
	h := t.hashBytes(b)
	if s := t.find(h, b); s != nil {
		t.h.IncRef(s)
		return s
	}

	s := &DukString{
		hash:    h,
		byteLen: uint32(len(b)),
		charLen: countChars(b),
		body:    append([]byte(nil), b...),
	}
	s.Tag = TagString
	t.h.Register(s)
	t.insert(s)
	return s
}

// find probes the table for an existing string with hash h and body
// equal to b, returning nil if none is interned.
func (t *StringTable) find(h uint32, b []byte) *DukString {
	n := len(t.cells)
	idx := int(h) % n
	step := t.probeStep(h, n)
	for i := 0; i < n; i++ {
		c := &t.cells[idx]
		switch c.state {
		case cellEmpty:
			return nil
		case cellUsed:
			if c.str.hash == h && bytesEqual(c.str.body, b) {
				return c.str
			}
		}
		idx = (idx + step) % n
	}
	return nil
}

// insert places a freshly interned string into the table, growing first
// if the load factor would exceed the 75% upper bound (spec.md §4.2).
func (t *StringTable) insert(s *DukString) {
	if !t.inhibit && t.used+1 > (len(t.cells)*3)/4 {
		t.resize(nextPrime(t.used * 2))
	}
	t.insertInto(t.cells, s)
	t.used++
}

func (t *StringTable) insertInto(cells []cell, s *DukString) {
	n := len(cells)
	idx := int(s.hash) % n
	step := t.probeStep(s.hash, n)
	for {
		c := &cells[idx]
		if c.state != cellUsed {
			*c = cell{state: cellUsed, str: s}
			return
		}
		idx = (idx + step) % n
	}
}

// probeStep derives a double-hashing probe step in [1, n-1], coprime
// with n since every table size is prime.
func (t *StringTable) probeStep(h uint32, n int) int {
	step := int(h>>16) % (n - 1)
	if step < 0 {
		step = -step
	}
	return step + 1
}

// remove drops s's cell, replacing it with the deleted sentinel rather
// than emptying it outright so existing probe chains through this slot
// stay intact (spec.md §4.2 "adjacent empties never heal probe chains").
// Called from drainRefzero's free path and from the GC's string-table
// sweep phase, including while an emergency cycle holds t.inhibit set
// around the whole sweep; remove itself never resizes the table, so the
// flag does not affect it.
func (t *StringTable) remove(s *DukString) {
	n := len(t.cells)
	idx := int(s.hash) % n
	step := t.probeStep(s.hash, n)
	for i := 0; i < n; i++ {
		c := &t.cells[idx]
		if c.state == cellUsed && c.str == s {
			*c = cell{state: cellDeleted}
			t.used--
			t.deleted++
			return
		}
		if c.state == cellEmpty {
			return
		}
		idx = (idx + step) % n
	}
}

// maybeShrink halves the table when the used count falls below the 25%
// lower bound, deferring if resize is currently inhibited (mid-sweep).
func (t *StringTable) maybeShrink() {
	if t.inhibit {
		return
	}
	if len(t.cells) <= t.minCells {
		return
	}
	if t.used*4 >= len(t.cells) {
		return
	}
	target := nextPrime(t.used * 2)
	if target < t.minCells {
		target = t.minCells
	}
	if target < len(t.cells) {
		t.resize(target)
	}
}

// resize rebuilds the table at the given size, also purging deleted
// sentinels (the only way they're ever reclaimed).
func (t *StringTable) resize(newSize int) {
	if newSize < t.minCells {
		newSize = t.minCells
	}
	newCells := make([]cell, newSize)
	for _, c := range t.cells {
		if c.state == cellUsed {
			t.insertInto(newCells, c.str)
		}
	}
	t.cells = newCells
	t.deleted = 0
}

// SetInhibit forbids resize while set, per spec.md §4.2's "during sweep,
// table resize may be forbidden (a flag)". An emergency GC cycle sets
// this around its sweep phases; every cycle clears it afterward,
// applying any resize the sweep deferred.
func (t *StringTable) SetInhibit(v bool) {
	t.inhibit = v
	if !v {
		t.maybeShrink()
	}
}

// Each walks every interned string, used by the GC's string-table sweep
// phase to find and remove zero-refcount entries.
func (t *StringTable) Each(fn func(*DukString)) {
	for i := range t.cells {
		if t.cells[i].state == cellUsed {
			fn(t.cells[i].str)
		}
	}
}

// Count returns the number of live interned strings.
func (t *StringTable) Count() int { return t.used }

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// countChars counts code-point starts in extended UTF-8/CESU-8 data: any
// byte whose top two bits are not "10" begins a new code point. This
// intentionally does not reject ill-formed sequences — duk5's internal
// string representation is a superset of strict UTF-8 (spec.md §3,
// "Extended UTF-8" in the glossary); validation against strict UTF-8 is
// the job of the builtins package's URI codecs, not the string table.
func countChars(b []byte) uint32 {
	var n uint32
	for _, c := range b {
		if c&0xC0 != 0x80 {
			n++
		}
	}
	return n
}

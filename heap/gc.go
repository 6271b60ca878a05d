package heap

// Phase tracks where the heap currently is in a mark-and-sweep cycle,
// guarding against a GC triggered re-entrantly from inside a finalizer
// or an allocation retry that itself runs during sweep. Modeled on the
// teacher's Asyncify state machine (Normal/Unwinding/Rewinding), which
// gates concurrent triggers the same way, generalized from a
// mutex-guarded int32 to a heap-owned field since duk5 never shares a
// Heap across goroutines (spec.md §5).
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseMarking
	PhaseSweeping
)

// maxMarkDepth bounds recursive marking before an object is flagged
// TEMPROOT and revisited in a later pass (spec.md §4.5 point 1).
const maxMarkDepth = 256

// resetSoftCounter resets the soft GC trigger counter to
// usedCount*M + A, per spec.md §4.5's "M and A" constants.
func (h *Heap) resetSoftCounter(usedCount int) {
	h.gcSoftCounter = usedCount*h.config.GCTriggerMultiplier + h.config.GCTriggerAddend
}

// Tick decrements the soft GC counter by one unit of allocation work and
// triggers a normal-aggressiveness cycle when it reaches zero. Callers
// that allocate heap objects outside of Heap.Alloc (e.g. object/value
// constructors that only touch Go-side memory) call this to keep the
// periodic cycle running even when the raw byte allocator never fails.
func (h *Heap) Tick() {
	h.gcSoftCounter--
	if h.gcSoftCounter <= 0 {
		h.GC(AggressivenessNormal)
	}
}

// GC runs one mark-and-sweep cycle at the given aggressiveness
// (spec.md §4.5). Re-entrant calls (a GC triggered by an allocation
// that itself happens during this cycle's finalizer run) are rejected:
// duk5 is single-threaded per heap, so the only way GC can be
// re-entered is from code running inside this very call, and the phase
// stays non-idle from the start of mark to the end of sweep, finalizer
// run included, so a nested call returns without doing anything.
func (h *Heap) GC(aggr Aggressiveness) {
	if h.gcPhase != PhaseIdle {
		return
	}

	h.gcPhase = PhaseMarking
	h.mark()

	if aggr != AggressivenessEmergency {
		h.runFinalizers()
	}

	h.gcPhase = PhaseSweeping
	h.strtab.SetInhibit(aggr == AggressivenessEmergency)
	h.sweep()
	h.sweepStringTable()
	h.strtab.SetInhibit(false)
	h.gcPhase = PhaseIdle

	if aggr == AggressivenessCompact {
		h.compact()
	}

	h.resetSoftCounter(h.count)
}

// mark implements phase 1: clear every header's REACHABLE bit, then walk
// out from every root (spec.md §4.5 point 1: heap_thread, curr_thread,
// all value-stack slots of all threads, all activation records, built-in
// table, heap stash, log buffer — collected here via the Root
// interface), marking with a depth limit and flagging TEMPROOT objects
// for a follow-up pass when the limit is hit.
func (h *Heap) mark() {
	h.Each(func(t Traceable) bool {
		hdr := t.Head()
		hdr.Flags &^= FlagReachable | FlagTemproot
		return true
	})

	var temproots []Traceable
	for _, r := range h.roots {
		for _, t := range r.Roots() {
			h.markOne(t, 0, &temproots)
		}
	}

	for len(temproots) > 0 {
		next := temproots[:0:0]
		for _, t := range temproots {
			t.Head().Flags &^= FlagTemproot
			// t is already flagged FlagReachable from the pass that hit
			// the depth limit on it, so markOne's visited-check would
			// short-circuit before tracing its still-unvisited children.
			// Re-enter tracing directly at depth 0 instead.
			t.Trace(func(child Traceable) {
				h.markOne(child, 0, &next)
			})
		}
		temproots = next
	}
}

func (h *Heap) markOne(t Traceable, depth int, temproots *[]Traceable) {
	if t == nil {
		return
	}
	hdr := t.Head()
	if hdr.Flags&FlagReachable != 0 {
		return
	}
	hdr.Flags |= FlagReachable

	if depth >= maxMarkDepth {
		hdr.Flags |= FlagTemproot
		*temproots = append(*temproots, t)
		return
	}

	t.Trace(func(child Traceable) {
		h.markOne(child, depth+1, temproots)
	})
}

// runFinalizers implements phase 2: run the finalizer of every
// unreachable object that carries one and hasn't already fired, then
// mark each of those objects (and everything it references) reachable
// so this cycle's sweep keeps them. The next cycle frees such an object
// unless a finalizer stored it into a reachable value; being flagged
// FlagFinalized, it is not finalized a second time.
func (h *Heap) runFinalizers() {
	h.finalizeList = h.finalizeList[:0]
	h.Each(func(t Traceable) bool {
		hdr := t.Head()
		if hdr.Flags&FlagReachable == 0 && hdr.Finalizer != nil && hdr.Flags&FlagFinalized == 0 {
			h.finalizeList = append(h.finalizeList, t)
		}
		return true
	})
	for _, t := range h.finalizeList {
		hdr := t.Head()
		hdr.Flags |= FlagFinalized
		hdr.Finalizer(t)
	}

	var temproots []Traceable
	for _, t := range h.finalizeList {
		h.markOne(t, 0, &temproots)
	}
	for len(temproots) > 0 {
		next := temproots[:0:0]
		for _, t := range temproots {
			t.Head().Flags &^= FlagTemproot
			t.Trace(func(child Traceable) {
				h.markOne(child, 0, &next)
			})
		}
		temproots = next
	}
}

// sweep implements phase 3: free every non-string object that is still
// unreachable (objects finalized in this cycle were marked reachable by
// runFinalizers and survive until the next one). Strings are governed by
// refcounting alone and are reaped separately in phase 4
// (sweepStringTable), matching spec.md §4.5 listing "Sweep" and "String
// table sweep" as distinct phases: a string with outstanding strong
// references (even ones mark couldn't reach through a root, e.g. a
// compiled function's internal constant pool this cycle doesn't trace)
// must never be collected just because nothing rooted it this pass.
func (h *Heap) sweep() {
	var dead []*Header
	h.Each(func(t Traceable) bool {
		hdr := t.Head()
		if hdr.Tag != TagString && hdr.Flags&FlagReachable == 0 {
			dead = append(dead, hdr)
		}
		return true
	})

	for _, hdr := range dead {
		h.unlink(hdr)
	}
}

// sweepStringTable implements phase 4: remove every interned string
// whose refcount has reached zero (spec.md §4.5 point 4). Under normal
// operation refcounting already removes a string's table entry the
// instant its count hits zero (drainRefzero); this phase exists to
// catch the rare case where an emergency cycle's inhibited resize left
// a stale zero-refcount entry in the table across cycles, and to free
// the backing DukString headers themselves once their table entry is
// gone.
func (h *Heap) sweepStringTable() {
	var stale []*DukString
	h.strtab.Each(func(s *DukString) {
		if s.Refcount == 0 {
			stale = append(stale, s)
		}
	})
	for _, s := range stale {
		h.strtab.remove(s)
		h.unlink(s.Head())
	}
}

// compact implements phase 5, run only at AggressivenessCompact: give
// every live object a chance to shrink its own backing storage to its
// exact current size. The heap side walks the list and invokes the
// Compactable hook on every object that implements it.
func (h *Heap) compact() {
	h.Each(func(t Traceable) bool {
		if c, ok := t.(Compactable); ok {
			c.Compact()
		}
		return true
	})
}

// Compactable is the hook for heap objects whose backing storage can be
// shrunk to fit. No type in this module implements it (object.Object
// included), so compaction leaves every object as it is. Compact is
// only ever called from Heap.compact, itself only reached at
// AggressivenessCompact.
type Compactable interface {
	Compact()
}

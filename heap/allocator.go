package heap

import "unsafe"

// Allocator is the three-entry-point facade a host embeds duk5 with
// (spec.md §4.1). Alloc(0) and Free(nil) are both legal no-ops; Realloc
// follows the realloc(3) convention where ptr==nil behaves like Alloc and
// size==0 behaves like Free. Each call reports failure by returning nil;
// allocators never suspend or retry on their own — that policy lives in
// Heap's GC-integrated wrappers below.
//
// Grounded on the teacher's memory.AllocatorWrapper, which unifies
// alloc/realloc/free behind a single cabi_realloc-style host call.
type Allocator interface {
	Alloc(size uint32) unsafe.Pointer
	Realloc(ptr unsafe.Pointer, oldSize, newSize uint32) unsafe.Pointer
	Free(ptr unsafe.Pointer, size uint32)
}

// goAllocator is the default Allocator backed by the Go runtime's own
// allocator. It never reports failure (Go's allocator panics on true OOM
// instead), which is sufficient for embedding duk5 in a Go host; a host
// that wants spec.md's alloc-failure behavior under a real memory cap
// supplies its own Allocator.
type goAllocator struct{}

// NewGoAllocator returns the default host allocator facade.
func NewGoAllocator() Allocator { return goAllocator{} }

func (goAllocator) Alloc(size uint32) unsafe.Pointer {
	if size == 0 {
		return nil
	}
	buf := make([]byte, size)
	return unsafe.Pointer(&buf[0])
}

func (a goAllocator) Realloc(ptr unsafe.Pointer, oldSize, newSize uint32) unsafe.Pointer {
	if ptr == nil {
		return a.Alloc(newSize)
	}
	if newSize == 0 {
		return nil
	}
	newBuf := make([]byte, newSize)
	n := oldSize
	if newSize < n {
		n = newSize
	}
	oldSlice := unsafe.Slice((*byte)(ptr), n)
	copy(newBuf, oldSlice)
	if newSize == 0 {
		return nil
	}
	return unsafe.Pointer(&newBuf[0])
}

func (goAllocator) Free(ptr unsafe.Pointer, size uint32) {}

// Aggressiveness selects how hard a GC-integrated allocation retry tries
// before giving up, per spec.md §4.1.
type Aggressiveness int

const (
	// AggressivenessNormal runs a full mark-and-sweep cycle.
	AggressivenessNormal Aggressiveness = iota
	// AggressivenessCompact additionally forces property-table compaction.
	AggressivenessCompact
	// AggressivenessEmergency skips finalizers, compaction, and string
	// table resize to recover the absolute minimum memory as fast as
	// possible; it is the last retry before reporting failure.
	AggressivenessEmergency
)

// maxAllocRetries bounds the escalating GC-retry loop in Alloc, Realloc
// and IndirectRealloc.
const maxAllocRetries = 3

// Alloc allocates size bytes, triggering increasingly aggressive GC cycles
// on failure before giving up and returning nil.
func (h *Heap) Alloc(size uint32) unsafe.Pointer {
	if p := h.alloc.Alloc(size); p != nil {
		return p
	}
	for attempt := 0; attempt < maxAllocRetries; attempt++ {
		h.GC(aggressivenessForAttempt(attempt))
		if p := h.alloc.Alloc(size); p != nil {
			return p
		}
	}
	return nil
}

// Realloc resizes a previously allocated block, retrying through GC on
// failure exactly like Alloc.
func (h *Heap) Realloc(ptr unsafe.Pointer, oldSize, newSize uint32) unsafe.Pointer {
	if p := h.alloc.Realloc(ptr, oldSize, newSize); p != nil || newSize == 0 {
		return p
	}
	for attempt := 0; attempt < maxAllocRetries; attempt++ {
		h.GC(aggressivenessForAttempt(attempt))
		if p := h.alloc.Realloc(ptr, oldSize, newSize); p != nil {
			return p
		}
	}
	return nil
}

// Free releases a previously allocated block.
func (h *Heap) Free(ptr unsafe.Pointer, size uint32) {
	h.alloc.Free(ptr, size)
}

func aggressivenessForAttempt(attempt int) Aggressiveness {
	switch attempt {
	case maxAllocRetries - 1:
		return AggressivenessEmergency
	case maxAllocRetries - 2:
		return AggressivenessCompact
	default:
		return AggressivenessNormal
	}
}

// Locate re-derives the current location of a pointer about to be
// reallocated. It exists because a GC triggered inside IndirectRealloc may
// run a finalizer that resizes the very structure (e.g. a thread's value
// stack) whose pointer the caller is about to update; Locate is invoked
// fresh before every retry rather than having the caller cache a pointer
// that GC may have already invalidated.
type Locate func() unsafe.Pointer

// IndirectRealloc resizes the block Locate currently identifies. Unlike
// Realloc, the pointer is not supplied directly: Locate is called again
// immediately before each retry so a finalizer that relocated the block
// during the previous attempt's GC cycle is observed, not raced.
func (h *Heap) IndirectRealloc(locate Locate, oldSize, newSize uint32) unsafe.Pointer {
	cur := locate()
	if p := h.alloc.Realloc(cur, oldSize, newSize); p != nil || newSize == 0 {
		return p
	}
	for attempt := 0; attempt < maxAllocRetries; attempt++ {
		h.GC(aggressivenessForAttempt(attempt))
		cur = locate()
		if p := h.alloc.Realloc(cur, oldSize, newSize); p != nil {
			return p
		}
	}
	return nil
}

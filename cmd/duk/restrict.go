package main

import (
	"unsafe"

	"github.com/goduk/duk5/heap"
)

// restrictedAllocator wraps the default Go allocator with a byte budget,
// the Go-side equivalent of the original cmdline tool's
// --restrict-memory rlimit: duk5 itself has no platform-specific rlimit
// support to drop into (spec.md's Allocator facade is plain Go), so the
// budget is enforced in the facade instead, failing Alloc/Realloc once
// the running total would exceed the limit and letting the heap's own
// GC-retry loop (heap.Alloc) react exactly as it would to real OS-level
// memory pressure.
type restrictedAllocator struct {
	inner heap.Allocator
	limit uint64
	used  uint64
}

func newRestrictedAllocator(limitBytes uint64) heap.Allocator {
	return &restrictedAllocator{inner: heap.NewGoAllocator(), limit: limitBytes}
}

func (a *restrictedAllocator) Alloc(size uint32) unsafe.Pointer {
	if a.used+uint64(size) > a.limit {
		return nil
	}
	p := a.inner.Alloc(size)
	if p != nil {
		a.used += uint64(size)
	}
	return p
}

func (a *restrictedAllocator) Realloc(ptr unsafe.Pointer, oldSize, newSize uint32) unsafe.Pointer {
	if newSize > oldSize && a.used+uint64(newSize-oldSize) > a.limit {
		return nil
	}
	p := a.inner.Realloc(ptr, oldSize, newSize)
	if p != nil || newSize == 0 {
		if newSize >= oldSize {
			a.used += uint64(newSize - oldSize)
		} else {
			a.used -= uint64(oldSize - newSize)
		}
	}
	return p
}

func (a *restrictedAllocator) Free(ptr unsafe.Pointer, size uint32) {
	a.inner.Free(ptr, size)
	if size > a.used {
		a.used = 0
	} else {
		a.used -= uint64(size)
	}
}

// restrictedMemoryLimit is the budget --restrict-memory applies,
// deliberately small the way the original test runner's low rlimit was,
// to make the stack/heap machinery's failure paths reachable from the
// command line rather than just from unit tests.
const restrictedMemoryLimit = 4 * 1024 * 1024

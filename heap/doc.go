// Package heap implements the duk5 managed heap: the allocator facade (C1),
// the heap-object header every allocation carries (C3), the string intern
// table (C4), reference counting (C6) and the mark-and-sweep cycle
// collector (C7).
//
// # Allocated list
//
// Every heap object embeds a Header as its first field and is linked into
// Heap's doubly linked allocated list on creation:
//
//	type DukString struct {
//		heap.Header
//		...
//	}
//
// A type becomes a heap citizen by implementing Traceable, which lets the
// mark phase and the refcounting driver visit its outgoing references
// without the heap package needing to know about object property tables,
// strings, or any other concrete representation (those live in the value
// and object packages; see §4.3-§4.5 of SPEC_FULL.md).
//
// # Reference counting and mark-and-sweep
//
// Heap.IncRef / Heap.DecRef implement C6: decrementing to zero enqueues the
// object on a FIFO work list drained iteratively (never recursively) by
// Heap.drainRefzero. Heap.GC runs the five-phase mark-and-sweep cycle of
// C7, covering the reference cycles refcounting cannot reclaim.
//
// # Allocator facade
//
// Heap.Alloc / Heap.Realloc / Heap.Free wrap a host-supplied Allocator.
// On a nil return Alloc and Realloc trigger GC with escalating
// aggressiveness (see Aggressiveness) and return nil if every retry
// fails; reporting alloc-failed is left to the caller. IndirectRealloc
// exists because a GC triggered mid-realloc may run a finalizer that
// resizes the very structure whose pointer the caller is about to update;
// the caller passes a callback that re-derives the current location
// immediately before each retry rather than caching a stale pointer.
package heap

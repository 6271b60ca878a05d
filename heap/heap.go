package heap

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the heap package's logger instance. It defaults to a
// no-op logger; a host configures it via SetLogger before creating heaps.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the heap package's logger. Must be called before
// any heap is created.
func SetLogger(l *zap.Logger) {
	logger = l
}

// Root is a GC root provider: something outside the allocated list that
// may hold strong references into the heap (a thread's value stack, the
// built-ins table, the heap stash, ...). Heap.GC calls Roots() to collect
// every Traceable a root currently references directly.
type Root interface {
	Roots() []Traceable
}

// FatalHandler is invoked when the heap reaches an unrecoverable state (a
// double fault with no protected-call pad left, per spec.md §4.7). It must
// not return; the heap panics if it does.
type FatalHandler func(err error)

// Config bundles the heap's tunable constants (spec.md §4.5 "M and A").
type Config struct {
	// GCTriggerMultiplier (M) and GCTriggerAddend (A): the soft GC
	// counter resets to usedCount*M + A after each cycle.
	GCTriggerMultiplier int
	GCTriggerAddend     int
	// StringTableMinEntries bounds how small the intern table can shrink.
	StringTableMinEntries int
}

// DefaultConfig matches the defaults spec.md §4.5 recommends for a heap
// running alongside reference counting.
func DefaultConfig() Config {
	return Config{
		GCTriggerMultiplier:   50,
		GCTriggerAddend:       1024,
		StringTableMinEntries: 17,
	}
}

// Heap owns the allocated list, the string intern table, the refzero work
// list, and the GC phase state. It is the only process-wide mutable state
// in duk5: everything else lives inside it (spec.md §9 "Global mutable
// state"). A Heap is owned by at most one host thread at a time.
type Heap struct {
	alloc  Allocator
	fatal  FatalHandler
	config Config

	// allocated list (spec.md invariant 1)
	head, tail *Header
	count      int

	strtab *StringTable

	roots []Root

	refzeroList        []Traceable
	refzeroFreeRunning bool

	gcPhase        Phase
	gcSoftCounter  int
	gcInhibitTable bool
	finalizeList   []Traceable

	userData any
}

// New creates a heap backed by alloc. fatal is invoked on unrecoverable
// errors (double faults) and must not return.
func New(alloc Allocator, fatal FatalHandler, config Config) *Heap {
	if alloc == nil {
		alloc = NewGoAllocator()
	}
	if fatal == nil {
		fatal = func(err error) { panic(err) }
	}
	h := &Heap{
		alloc:  alloc,
		fatal:  fatal,
		config: config,
	}
	h.strtab = newStringTable(h)
	h.resetSoftCounter(0)
	return h
}

// UserData returns the host-supplied opaque pointer attached at creation,
// mirroring the "user data" slot of a C embedding API.
func (h *Heap) UserData() any { return h.userData }

// SetUserData attaches a host-supplied opaque value to the heap.
func (h *Heap) SetUserData(v any) { h.userData = v }

// Fatal invokes the heap's fatal handler. Callers must treat this as
// non-returning.
func (h *Heap) Fatal(err error) {
	h.fatal(err)
	panic(err)
}

// AddRoot registers a GC root provider. Roots are consulted at the start
// of every mark phase.
func (h *Heap) AddRoot(r Root) {
	h.roots = append(h.roots, r)
}

// StringTable returns the heap's intern table (C4).
func (h *Heap) StringTable() *StringTable { return h.strtab }

// Count returns the number of objects on the allocated list.
func (h *Heap) Count() int { return h.count }

// link inserts t's header at the head of the allocated list and stamps
// its owner. Every allocation routine in the object/value packages calls
// this exactly once, right after constructing the Go value, per spec.md
// §3 "Lifecycle".
func (h *Heap) link(t Traceable) {
	hdr := t.Head()
	hdr.owner = h
	hdr.self = t
	hdr.Prev = nil
	hdr.Next = h.head
	if h.head != nil {
		h.head.Prev = hdr
	}
	h.head = hdr
	if h.tail == nil {
		h.tail = hdr
	}
	h.count++
}

// unlink removes hdr from the allocated list. Called by the refzero
// driver and by sweep; never while refzeroFreeRunning races a concurrent
// sweep (guarded by the caller).
func (h *Heap) unlink(hdr *Header) {
	if hdr.Prev != nil {
		hdr.Prev.Next = hdr.Next
	} else {
		h.head = hdr.Next
	}
	if hdr.Next != nil {
		hdr.Next.Prev = hdr.Prev
	} else {
		h.tail = hdr.Prev
	}
	hdr.Prev, hdr.Next = nil, nil
	h.count--
}

// Each walks the allocated list from its head, so the most recently
// linked object comes first. fn returning false
// stops iteration early. Mirrors the teacher's resource.LocalBackend.Each
// sweep idiom, generalized from a flat slice to the intrusive list.
func (h *Heap) Each(fn func(Traceable) bool) {
	for hdr := h.head; hdr != nil; {
		next := hdr.Next
		if !fn(hdr.self) {
			return
		}
		hdr = next
	}
}

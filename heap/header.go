package heap

// Tag identifies the concrete kind of a heap allocation (spec.md §3 "Heap
// object header").
type Tag uint8

const (
	TagString Tag = iota
	TagObject
	TagBuffer
	TagThread
	TagEnv
	TagCompiledFunction
	TagNativeFunction
)

func (t Tag) String() string {
	switch t {
	case TagString:
		return "string"
	case TagObject:
		return "object"
	case TagBuffer:
		return "buffer"
	case TagThread:
		return "thread"
	case TagEnv:
		return "env"
	case TagCompiledFunction:
		return "compiledfunction"
	case TagNativeFunction:
		return "nativefunction"
	default:
		return "unknown"
	}
}

// Flag holds the GC mark bits and per-type feature flags every header
// carries (spec.md §3).
type Flag uint16

const (
	// FlagReachable is set by the mark phase and cleared at the start of
	// the next mark phase.
	FlagReachable Flag = 1 << iota
	// FlagTemproot marks an object whose marking recursion hit the depth
	// limit; it is revisited in a later mark pass until none remain.
	FlagTemproot
	// FlagFinalizable marks an object that carries an unfired finalizer.
	FlagFinalizable
	// FlagFinalized marks an object whose finalizer has already run once.
	FlagFinalized
	// FlagFixedBuffer marks a buffer object with a stable, non-relocatable
	// backing array (as opposed to a dynamic, growable one).
	FlagFixedBuffer
)

// MaxRefcount is the saturation point: once reached, IncRef/DecRef become
// no-ops and the object is only reclaimable by mark-and-sweep.
const MaxRefcount = ^uint32(0)

// Header is the common prefix of every heap allocation: type tag, flag
// bits, refcount, and the allocated-list linkage (spec.md §3 invariant 1).
type Header struct {
	Prev, Next *Header
	Finalizer  func(Traceable)
	owner      *Heap
	self       Traceable
	Tag        Tag
	Flags      Flag
	Refcount   uint32
}

// Head lets Header satisfy Traceable trivially when embedded: a concrete
// type that embeds Header already has this method promoted, but defining
// it explicitly keeps Header usable as a standalone node (e.g. in tests).
func (h *Header) Head() *Header { return h }

// Reachable reports whether the mark phase has visited this header in the
// current cycle.
func (h *Header) Reachable() bool { return h.Flags&FlagReachable != 0 }

// Traceable is implemented by every concrete heap object (DukString,
// object.Object, Buffer, a thread, ...). It lets the heap package's GC and
// refcounting walk outgoing references without depending on their
// concrete representations.
type Traceable interface {
	// Head returns the object's common header.
	Head() *Header
	// Trace calls visit once for every other heap object this object
	// holds a strong reference to. Trace must not mutate refcounts; it is
	// only ever called from the mark phase (spec.md §4.5 invariant
	// "mark phase never mutates refcounts").
	Trace(visit func(Traceable))
}

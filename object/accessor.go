package object

import (
	"github.com/goduk/duk5/heap"
	"github.com/goduk/duk5/value"
)

// accessorPair is the heap-allocated payload a sparse-part slot points
// to when its AttrAccessor bit is set, boxing an ES5.1 [[Get]]/[[Set]]
// pair as a single refcounted reference so Object's parallel vals array
// stays a single Value per property regardless of whether that
// property is a data or an accessor property (spec.md §4.3 "parallel
// arrays of keys, values, and per-property attribute bytes"). Get and
// Set are ordinary tagged Values — function objects or Undefined if
// absent — so they participate in GC tracing and refcounting exactly
// like any other stored Value.
type accessorPair struct {
	heap.Header
	get value.Value
	set value.Value
}

func newAccessorPair(h *heap.Heap, get, set value.Value) *accessorPair {
	p := &accessorPair{get: get, set: set}
	p.Tag = heap.TagObject
	h.Register(p)
	if r := get.Heap(); r != nil {
		h.IncRef(r)
	}
	if r := set.Heap(); r != nil {
		h.IncRef(r)
	}
	return p
}

// Trace reports the getter/setter function values as outgoing strong
// references.
func (p *accessorPair) Trace(visit func(heap.Traceable)) {
	if r := p.get.Heap(); r != nil {
		visit(r)
	}
	if r := p.set.Heap(); r != nil {
		visit(r)
	}
}

// callFunctionValue invokes fn (expected to be a ClassFunction Object)
// with the given this/args, used by Object.resolveSlot/Put to invoke
// an accessor's getter/setter.
func callFunctionValue(fn value.Value, this value.Value, args []value.Value) (value.Value, error) {
	if fn.IsUndefined() {
		return value.Undefined(), nil
	}
	obj, ok := fn.Ref.(*Object)
	if !ok {
		return value.Undefined(), nil
	}
	return obj.Call(this, args)
}

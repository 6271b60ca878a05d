package object

import (
	"github.com/goduk/duk5/heap"
	"github.com/goduk/duk5/value"
)

// internalKeyPrefix opens every reserved internal property name (the
// variable map, formal parameter names, source text for error messages,
// the pc->line map, ...). 0xFF cannot begin an ECMAScript
// IdentifierName production, resolving spec.md §6's "reserved naming
// convention" (see DESIGN.md's Open Question log).
const internalKeyPrefix = 0xFF

// InternalKey prefixes name so it cannot collide with any script-
// reachable property.
func InternalKey(name string) string {
	return string([]byte{internalKeyPrefix}) + name
}

// FunctionTemplate is the shared, immutable data blob a compiled
// function's Object points to (spec.md §4.3 "Compiled functions hold a
// pointer to a shared immutable data blob"): three adjacent logical
// regions — constants, inner function references, and bytecode — with
// the two region boundaries recorded directly since Go slices carry
// their own bounds rather than needing "mid-pointers" into a single
// flat buffer the way a C embedding would.
type FunctionTemplate struct {
	heap.Header

	Constants  []value.Value
	InnerRefs  []*FunctionTemplate
	Bytecode   []uint32
	NRegs      uint16
	NArgs      uint16
	SourceName string
}

// NewFunctionTemplate allocates and registers a shared function data
// blob. It is refcounted independently of any CompiledFunction that
// points to it (spec.md §4.3 "refcounted independently so multiple
// closures over the same template share it").
func NewFunctionTemplate(h *heap.Heap, constants []value.Value, inner []*FunctionTemplate, bytecode []uint32, nregs, nargs uint16, sourceName string) *FunctionTemplate {
	t := &FunctionTemplate{
		Constants:  constants,
		InnerRefs:  inner,
		Bytecode:   bytecode,
		NRegs:      nregs,
		NArgs:      nargs,
		SourceName: sourceName,
	}
	t.Tag = heap.TagCompiledFunction
	h.Register(t)
	for _, c := range constants {
		if r := c.Heap(); r != nil {
			h.IncRef(r)
		}
	}
	for _, in := range inner {
		h.IncRef(in)
	}
	return t
}

// Trace reports the constant pool's heap references and the inner
// function templates as outgoing strong references.
func (t *FunctionTemplate) Trace(visit func(heap.Traceable)) {
	for _, c := range t.Constants {
		if r := c.Heap(); r != nil {
			visit(r)
		}
	}
	for _, in := range t.InnerRefs {
		visit(in)
	}
}

// CompiledFunction is the per-closure state an Object of class
// ClassFunction carries when it wraps script bytecode rather than a
// NativeFunc: the shared template plus the closure's captured lexical
// environment.
type CompiledFunction struct {
	heap.Header

	Template *FunctionTemplate
	Scope    *EnvRecord
}

// Trace reports the template and captured scope as outgoing strong
// references.
func (c *CompiledFunction) Trace(visit func(heap.Traceable)) {
	visit(c.Template)
	if c.Scope != nil {
		visit(c.Scope)
	}
}

// NewCompiledFunction allocates and registers a closure over template,
// capturing scope, and attaches it to obj as obj's function payload.
// obj must already be of ClassFunction.
func NewCompiledFunction(h *heap.Heap, obj *Object, tmpl *FunctionTemplate, scope *EnvRecord) *CompiledFunction {
	cf := &CompiledFunction{Template: tmpl, Scope: scope}
	cf.Tag = heap.TagCompiledFunction
	h.Register(cf)
	h.IncRef(tmpl)
	if scope != nil {
		h.IncRef(scope)
	}
	obj.compiled = cf
	h.IncRef(cf)
	return cf
}

// Compiled returns the object's compiled-function payload, or nil if
// it is a native function or not callable at all.
func (o *Object) Compiled() *CompiledFunction { return o.compiled }

// Native returns the object's native-function payload, or nil.
func (o *Object) Native() NativeFunc { return o.native }

// SetNative attaches a host-implemented function body to obj. obj must
// be of ClassFunction.
func (o *Object) SetNative(fn NativeFunc) { o.native = fn }

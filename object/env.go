package object

import (
	"github.com/goduk/duk5/heap"
	"github.com/goduk/duk5/value"
)

// EnvRecord implements ES5.1 10.2's Lexical Environment / Environment
// Record: a reference to an enclosing record and either a declarative
// variable map or a reference to a bound object (spec.md §3 "an
// environment record stores a reference to an enclosing record and
// either a variable map or a bound object").
type EnvRecord struct {
	heap.Header

	outer *EnvRecord

	// Declarative form: names map directly to slots.
	names []*heap.DukString
	slots []value.Value
	mut   []bool // mutable (var/catch) vs immutable (const-like internal bindings)

	// Object form (global environment / with-statement): bindings are
	// properties of a bound object instead of a private slot array.
	bound *Object
}

// NewDeclarativeEnv creates an environment record backed by a private
// variable map, capturing outer as its enclosing record.
func NewDeclarativeEnv(h *heap.Heap, outer *EnvRecord) *EnvRecord {
	e := &EnvRecord{outer: outer}
	e.Tag = heap.TagEnv
	h.Register(e)
	if outer != nil {
		h.IncRef(outer)
	}
	return e
}

// NewObjectEnv creates an environment record whose bindings are
// properties of bound (the global object, or a with-statement target).
func NewObjectEnv(h *heap.Heap, outer *EnvRecord, bound *Object) *EnvRecord {
	e := &EnvRecord{outer: outer, bound: bound}
	e.Tag = heap.TagEnv
	h.Register(e)
	if outer != nil {
		h.IncRef(outer)
	}
	h.IncRef(bound)
	return e
}

// Outer returns the enclosing environment record, or nil at the
// outermost (global) scope.
func (e *EnvRecord) Outer() *EnvRecord { return e.outer }

// trace reports the enclosing record, the bound object (object-form),
// and every captured slot value (declarative form) as outgoing strong
// references. Trace delegates to it: an EnvRecord is heap-registered
// with its own Header, and the mark phase reaches it through the
// CompiledFunction or thread activation that holds it as a Scope.
func (e *EnvRecord) trace(visit func(heap.Traceable)) {
	if e.outer != nil {
		visit(e.outer)
	}
	if e.bound != nil {
		visit(e.bound)
	}
	for _, v := range e.slots {
		if r := v.Heap(); r != nil {
			visit(r)
		}
	}
}

// Trace implements heap.Traceable.
func (e *EnvRecord) Trace(visit func(heap.Traceable)) { e.trace(visit) }

// HasBinding implements ES5.1 10.2.1's HasBinding for either record
// form.
func (e *EnvRecord) HasBinding(name *heap.DukString) bool {
	if e.bound != nil {
		return e.bound.HasProperty(name)
	}
	for _, n := range e.names {
		if n == name {
			return true
		}
	}
	return false
}

// CreateMutableBinding implements ES5.1 10.2.1's CreateMutableBinding
// for the declarative form (the object form creates bindings through
// ordinary property definition on the bound object instead).
func (e *EnvRecord) CreateMutableBinding(h *heap.Heap, name *heap.DukString) {
	if e.bound != nil {
		key := h.StringTable().Intern(name.Bytes())
		desc := PropertyDescriptor{Value: value.Undefined(), Attr: AttrWritable | AttrEnumerable}
		_ = e.bound.DefineOwnProperty(key, desc, false)
		h.DecRef(key)
		return
	}
	h.IncRef(name)
	e.names = append(e.names, name)
	e.slots = append(e.slots, value.Undefined())
	e.mut = append(e.mut, true)
}

// GetBindingValue implements ES5.1 10.2.1's GetBindingValue, walking
// only this record (callers walk the outer chain themselves via
// Outer(), matching how the bytecode executor resolves identifiers one
// scope at a time so it can distinguish "not found here, try outer"
// from "found but uninitialized").
func (e *EnvRecord) GetBindingValue(name *heap.DukString) (value.Value, bool) {
	if e.bound != nil {
		if !e.bound.HasProperty(name) {
			return value.Undefined(), false
		}
		v, _ := e.bound.Get(name, value.Ref(e.bound))
		return v, true
	}
	for i, n := range e.names {
		if n == name {
			return e.slots[i], true
		}
	}
	return value.Undefined(), false
}

// SetMutableBinding implements ES5.1 10.2.1's SetMutableBinding.
func (e *EnvRecord) SetMutableBinding(h *heap.Heap, name *heap.DukString, v value.Value, throwOnFailure bool) error {
	if e.bound != nil {
		return e.bound.Put(name, v, value.Ref(e.bound), throwOnFailure)
	}
	for i, n := range e.names {
		if n == name {
			h.Requeue(e.slots[i].Heap(), v.Heap())
			e.slots[i] = v
			return nil
		}
	}
	// Implicit global creation (non-strict assignment to an undeclared
	// name): ES5.1 10.2.1.2.6 step 3.
	e.CreateMutableBinding(h, name)
	return e.SetMutableBinding(h, name, v, throwOnFailure)
}

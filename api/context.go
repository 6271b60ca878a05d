// Package api implements duk5's public stack API (C10): the
// index-addressed surface a host embedder actually calls. Every
// operation names a value stack slot by integer index rather than by
// Go reference, mirroring the teacher's own offset-addressed memory
// API (linker/internal/memory.Wrapper's ReadU32/WriteU32, where the
// unit of reference into WASM linear memory is an integer offset, not
// a pointer) — here the "linear memory" is the thread's value stack
// and the offset is a stack index.
package api

import (
	"github.com/goduk/duk5/duthread"
	"github.com/goduk/duk5/errors"
	"github.com/goduk/duk5/heap"
	"github.com/goduk/duk5/object"
	"github.com/goduk/duk5/protect"
	"github.com/goduk/duk5/value"
)

// Context wraps a thread and its owning heap, the unit every exported
// operation in this package is a method on (spec.md §4.8 "All host
// operations reference values by integer index").
type Context struct {
	h  *heap.Heap
	th *duthread.Thread
}

// New wraps an existing thread for API-level access.
func New(h *heap.Heap, th *duthread.Thread) *Context {
	return &Context{h: h, th: th}
}

// Heap returns the owning heap.
func (c *Context) Heap() *heap.Heap { return c.h }

// Thread returns the underlying thread.
func (c *Context) Thread() *duthread.Thread { return c.th }

// normalizeIndex converts a possibly-negative index (relative to the
// current stack top, duktape's own convention) into an absolute index,
// erroring if it would fall outside [0, top).
func (c *Context) normalizeIndex(idx int) (int, error) {
	top := c.th.Top()
	abs := idx
	if idx < 0 {
		abs = top + idx
	}
	if abs < 0 || abs >= top {
		return 0, errors.OutOfBounds(errors.PhaseAPI, idx, top)
	}
	return abs, nil
}

// ---- push operations ----

// PushUndefined pushes the undefined value.
func (c *Context) PushUndefined() { c.th.Push(value.Undefined()) }

// PushNull pushes the null value.
func (c *Context) PushNull() { c.th.Push(value.Null()) }

// PushBoolean pushes a boolean.
func (c *Context) PushBoolean(b bool) { c.th.Push(value.Bool(b)) }

// PushNumber pushes a number.
func (c *Context) PushNumber(n float64) { c.th.Push(value.Number(n)) }

// PushString interns s and pushes a reference to it.
func (c *Context) PushString(s string) {
	str := c.h.StringTable().Intern([]byte(s))
	c.th.Push(value.Ref(str))
}

// PushObject pushes a reference to an existing object.
func (c *Context) PushObject(o *object.Object) { c.th.Push(value.Ref(o)) }

// ---- coercions (spec.md §4.8: in-place on the referenced slot) ----

// ToString coerces the value at idx to a string in place per ES5.1
// ToString, which may invoke toString/valueOf and thus throw.
func (c *Context) ToString(idx int) error {
	abs, err := c.normalizeIndex(idx)
	if err != nil {
		return err
	}
	v, err := value.ToString(c.th.Get(abs), c.h.StringTable())
	if err != nil {
		return err
	}
	c.th.Set(abs, v)
	return nil
}

// ToNumber coerces the value at idx to a number in place per ES5.1 ToNumber.
func (c *Context) ToNumber(idx int) error {
	abs, err := c.normalizeIndex(idx)
	if err != nil {
		return err
	}
	n, err := value.ToNumber(c.th.Get(abs))
	if err != nil {
		return err
	}
	c.th.Set(abs, value.Number(n))
	return nil
}

// ToBoolean coerces the value at idx to a boolean in place per ES5.1
// ToBoolean. Never throws (ToBoolean has no side effects).
func (c *Context) ToBoolean(idx int) error {
	abs, err := c.normalizeIndex(idx)
	if err != nil {
		return err
	}
	c.th.Set(abs, value.Bool(value.ToBoolean(c.th.Get(abs))))
	return nil
}

// ToObject coerces the value at idx to an object in place per ES5.1
// ToObject (9.9): undefined/null throw a TypeError; primitives are
// boxed using class as the wrapper's class tag and v as its internal
// value (the "[[PrimitiveValue]]" slot, spec.md §4.5 object header).
//
// Note that an ECMAScript string is itself a TagObject value (Ref
// pointing at a *heap.DukString, spec.md §3's "Value... heap
// reference" variant covers strings as well as objects) — it is not
// yet a String wrapper *object.Object, so IsObject alone can't decide
// whether boxing is needed; the type of Ref does.
func (c *Context) ToObject(idx int) error {
	abs, err := c.normalizeIndex(idx)
	if err != nil {
		return err
	}
	v := c.th.Get(abs)
	if v.IsNullOrUndefined() {
		return errors.TypeMismatch(errors.PhaseAPI, nil, "cannot convert null or undefined to an object")
	}
	if _, ok := v.Ref.(*object.Object); ok {
		return nil
	}
	class := object.ClassObject
	switch {
	case v.Tag == value.TagBoolean:
		class = object.ClassBoolean
	case v.Tag == value.TagNumber:
		class = object.ClassNumber
	case v.IsObject():
		// TagObject but not *object.Object and not reached the
		// *object.Object case above: a string primitive.
		class = object.ClassString
	}
	boxed := object.New(c.h, class, nil)
	boxed.SetPrimitive(v)
	c.th.Set(abs, value.Ref(boxed))
	return nil
}

// ---- property operations ----

// objectAt resolves idx to an *object.Object, raising a TypeError
// through the enclosing protected call if the slot doesn't hold one
// (spec.md §4.8 "operate on the object at the given index").
func (c *Context) objectAt(idx int) (*object.Object, error) {
	abs, err := c.normalizeIndex(idx)
	if err != nil {
		return nil, err
	}
	v := c.th.Get(abs)
	o, ok := v.Ref.(*object.Object)
	if !ok {
		return nil, errors.TypeMismatch(errors.PhaseAPI, nil, "value at index is not an object")
	}
	return o, nil
}

// GetProp looks up the property named by the string at top-of-stack on
// the object at objIdx, popping the key and pushing the result.
// Observes the full ES5.1 [[Get]] semantics (prototype walk, accessor
// invocation).
func (c *Context) GetProp(objIdx int) error {
	o, err := c.objectAt(objIdx)
	if err != nil {
		return err
	}
	key, err := c.popKey()
	if err != nil {
		return err
	}
	v, err := o.Get(key, value.Ref(o))
	if err != nil {
		return err
	}
	c.th.Push(v)
	return nil
}

// PutProp pops a value and a key (key below the value, duktape's own
// argument order) and stores the value under that key on the object at
// objIdx, observing [[Put]] (inherited accessor setter, or own
// data-property creation).
func (c *Context) PutProp(objIdx int) error {
	o, err := c.objectAt(objIdx)
	if err != nil {
		return err
	}
	v := c.th.Pop()
	key, err := c.popKey()
	if err != nil {
		return err
	}
	return o.Put(key, v, value.Ref(o), true)
}

// DelProp pops a key and deletes that property from the object at
// objIdx, pushing the boolean success result per [[Delete]].
func (c *Context) DelProp(objIdx int) error {
	o, err := c.objectAt(objIdx)
	if err != nil {
		return err
	}
	key, err := c.popKey()
	if err != nil {
		return err
	}
	ok, err := o.Delete(key, true)
	if err != nil {
		return err
	}
	c.th.Push(value.Bool(ok))
	return nil
}

// HasProp pops a key and pushes whether the object at objIdx has that
// property, own or inherited.
func (c *Context) HasProp(objIdx int) error {
	o, err := c.objectAt(objIdx)
	if err != nil {
		return err
	}
	key, err := c.popKey()
	if err != nil {
		return err
	}
	c.th.Push(value.Bool(o.HasProperty(key)))
	return nil
}

// popKey pops the top-of-stack value and coerces it to an interned
// string usable as a property key.
func (c *Context) popKey() (*heap.DukString, error) {
	v := c.th.Pop()
	sv, err := value.ToString(v, c.h.StringTable())
	if err != nil {
		return nil, err
	}
	return sv.Ref.(*heap.DukString), nil
}

// ---- calls ----

// Call pops nargs arguments plus the function, invokes it with `this`
// set to undefined, and pushes the result (spec.md §4.8 "pop N args ...
// and invoke").
func (c *Context) Call(nargs int) error {
	return c.call(nargs, value.Undefined(), false)
}

// CallMethod pops nargs arguments plus a receiver plus the function
// (in that order from the top), invoking the function with `this`
// bound to the receiver.
func (c *Context) CallMethod(nargs int) error {
	return c.call(nargs, value.Value{}, true)
}

func (c *Context) call(nargs int, this value.Value, methodStyle bool) error {
	args := make([]value.Value, nargs)
	for i := nargs - 1; i >= 0; i-- {
		args[i] = c.th.Pop()
	}
	if methodStyle {
		this = c.th.Pop()
	}
	fnVal := c.th.Pop()
	fn, ok := fnVal.Ref.(*object.Object)
	if !ok {
		return errors.TypeMismatch(errors.PhaseAPI, nil, "value is not callable")
	}
	result, err := fn.Call(this, args)
	if err != nil {
		return err
	}
	c.th.Push(result)
	return nil
}

// SafeCall is Call wrapped in a protected call (C9, spec.md §4.8
// "`safe_call` wraps the invocation in a protected call"): any throw
// raised while invoking the function is caught here instead of
// propagating past this point, and is reported back as a plain error
// rather than as an ECMAScript control-flow signal, via
// protect.SafeCall.
func (c *Context) SafeCall(nargs int) error {
	_, err := protect.SafeCall(c.h, c.th, func() (value.Value, error) {
		return value.Undefined(), c.Call(nargs)
	})
	return err
}

// ---- compile ----

// CompileFlags enumerate the compile-time modes spec.md §4.8 names.
type CompileFlags uint8

const (
	CompileEval CompileFlags = 1 << iota
	CompileStrict
	CompileFunctionExpression
)

// Compiler turns ECMAScript source text into a function template. A
// lexer/compiler is out of scope for this module (spec.md §1 Non-goals);
// Context.Compile is a thin host-facing entry point over a pluggable
// implementation the embedder supplies (e.g. a bytecode blob loader, or
// a full parser/compiler living in a separate module).
type Compiler interface {
	Compile(h *heap.Heap, source, filename string, flags CompileFlags) (*object.FunctionTemplate, error)
}

// Compile pops a filename and a source string (in that order, top of
// stack first) and pushes a compiled function object wrapping the
// resulting template, using compiler to do the actual source-to-
// bytecode work.
func (c *Context) Compile(compiler Compiler, flags CompileFlags) error {
	filenameVal := c.th.Pop()
	sourceVal := c.th.Pop()

	filename, err := value.ToString(filenameVal, c.h.StringTable())
	if err != nil {
		return err
	}
	source, err := value.ToString(sourceVal, c.h.StringTable())
	if err != nil {
		return err
	}

	tmpl, err := compiler.Compile(c.h, string(source.Ref.(*heap.DukString).Bytes()), string(filename.Ref.(*heap.DukString).Bytes()), flags)
	if err != nil {
		return errors.Wrap(errors.PhaseCompile, errors.KindSyntaxError, err, "compile failed")
	}

	fnObj := object.New(c.h, object.ClassFunction, nil)
	object.NewCompiledFunction(c.h, fnObj, tmpl, nil)
	c.th.Push(value.Ref(fnObj))
	return nil
}

package object

import (
	"math"

	"github.com/goduk/duk5/errors"
	"github.com/goduk/duk5/heap"
	"github.com/goduk/duk5/value"
)

// sparseMigrationFactor implements spec.md §4.3's "any integer key
// beyond a heuristic sparseness threshold (e.g. key > 8 × current
// length) triggers a one-way migration of the offending key into the
// sparse part".
const sparseMigrationFactor = 8

// sparseMigrationFloor bounds the migration check when the array part
// is still empty, where the `idx > len*factor` comparison would
// otherwise always be false (anything beyond zero) and never migrate:
// a first write at a huge index — `obj[1000000] = 5` on a fresh object
// — must still go straight to the sparse part instead of padding the
// array part with a million undefined slots.
const sparseMigrationFloor = 8

// Object is duk5's dual-part property store (C5, spec.md §3 "Object").
// Every ES5.1 object, array, function, arguments object, and wrapper
// object is represented by one Object, distinguished by Class and the
// optional sub-variant payloads (CompiledFunction/Native).
type Object struct {
	heap.Header

	h          *heap.Heap
	class      Class
	proto      *Object
	extensible bool

	// array part: compact vector for integer keys 0..len(arrayPart)-1.
	// A hole is `undefined` in this slice (spec.md invariant 4) — it is
	// never simultaneously represented in the sparse part.
	arrayPart []value.Value

	// sparse part: parallel key/value/attribute arrays plus an
	// open-addressed hash index over the keys (spec.md §4.3).
	keys  []*heap.DukString
	vals  []value.Value
	attrs []PropAttr
	index *sparseIndex

	// sub-variant payloads; at most one is non-nil, selected by class.
	// An environment record capture lives in compiled.Scope, not here:
	// EnvRecord is its own heap.Traceable with its own Header, not an
	// Object sub-variant.
	compiled *CompiledFunction
	native   NativeFunc

	// primitive is the internal [[PrimitiveValue]] slot ES5.1 15.6/15.7/
	// 15.5 attach to Boolean/Number/String wrapper objects (api.ToObject
	// boxing a primitive). Undefined for every other class.
	primitive value.Value
}

// NativeFunc is a Go-implemented ES5.1 function: a host builtin.
type NativeFunc func(this value.Value, args []value.Value) (value.Value, error)

// New allocates a plain object with the given prototype (may be nil)
// and registers it with h, per spec.md §3 "Lifecycle": returned with
// refcount 1.
func New(h *heap.Heap, class Class, proto *Object) *Object {
	o := &Object{
		h:          h,
		class:      class,
		proto:      proto,
		extensible: true,
		index:      newSparseIndex(),
		primitive:  value.Undefined(),
	}
	o.Tag = heap.TagObject
	h.Register(o)
	if proto != nil {
		h.IncRef(proto)
	}
	return o
}

// Class returns the object's internal [[Class]].
func (o *Object) Class() Class { return o.class }

// Prototype returns the object's internal prototype, or nil for null.
func (o *Object) Prototype() *Object { return o.proto }

// SetPrototype changes the object's internal prototype, maintaining
// the refcount invariant (spec.md invariant 2d: internal roots count).
func (o *Object) SetPrototype(proto *Object) {
	var old, new_ heap.Traceable
	if o.proto != nil {
		old = o.proto
	}
	if proto != nil {
		new_ = proto
	}
	o.h.Requeue(old, new_)
	o.proto = proto
}

// Primitive returns the object's internal [[PrimitiveValue]] (for
// Boolean/Number/String wrapper objects; Undefined otherwise).
func (o *Object) Primitive() value.Value { return o.primitive }

// SetPrimitive sets the internal [[PrimitiveValue]] slot, maintaining
// the refcount invariant for the outgoing reference.
func (o *Object) SetPrimitive(v value.Value) {
	o.h.Requeue(o.primitive.Heap(), v.Heap())
	o.primitive = v
}

// Extensible reports whether new own properties may be added.
func (o *Object) Extensible() bool { return o.extensible }

// PreventExtensions implements ES5.1 Object.preventExtensions.
func (o *Object) PreventExtensions() { o.extensible = false }

// Trace implements heap.Traceable: every tagged value held directly by
// the object (array part, sparse part, internal prototype) is an
// outgoing strong reference (spec.md invariant 2b).
func (o *Object) Trace(visit func(heap.Traceable)) {
	if o.proto != nil {
		visit(o.proto)
	}
	for _, v := range o.arrayPart {
		if r := v.Heap(); r != nil {
			visit(r)
		}
	}
	for i, k := range o.keys {
		visit(k)
		if r := o.vals[i].Heap(); r != nil {
			visit(r)
		}
	}
	if o.compiled != nil {
		visit(o.compiled)
	}
	if r := o.primitive.Heap(); r != nil {
		visit(r)
	}
}

// arrayIndex reports whether key names an ES5.1 array index (ToUint32
// round-trips and is not 2^32-1) and returns it.
func arrayIndex(key string) (uint32, bool) {
	if key == "" {
		return 0, false
	}
	if key == "0" {
		return 0, true
	}
	if key[0] == '0' {
		return 0, false // no leading zeros other than "0" itself
	}
	var n uint64
	for _, c := range key {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + uint64(c-'0')
		if n > math.MaxUint32 {
			return 0, false
		}
	}
	if n == math.MaxUint32 {
		return 0, false
	}
	return uint32(n), true
}

// ArrayLength reports the dense array part's current length (the
// number of contiguous index slots 0..n-1, not ES5.1's writable
// "length" property, which builtins layers separately on top).
func (o *Object) ArrayLength() uint32 { return uint32(len(o.arrayPart)) }

// EachOwnEnumerable calls fn once for every own enumerable property, in
// array-part-then-sparse-part order, resolving accessor properties via
// Get so fn always sees a current data value (ES5.1 12.6.4's
// for-in/JSON.stringify "enumerate own enumerable properties" walk).
// A hole in the array part (value.Undefined in that slot) is skipped,
// matching spec.md invariant 4's "array part holes read as undefined,
// but are not own properties".
func (o *Object) EachOwnEnumerable(fn func(key *heap.DukString, v value.Value) error) error {
	for i, v := range o.arrayPart {
		if v.IsUndefined() {
			continue
		}
		key := o.h.StringTable().Intern([]byte(itoa(uint32(i))))
		if err := fn(key, v); err != nil {
			return err
		}
	}
	for i, k := range o.keys {
		if o.attrs[i]&AttrEnumerable == 0 {
			continue
		}
		v, err := o.resolveSlot(i, value.Ref(o))
		if err != nil {
			return err
		}
		if err := fn(k, v); err != nil {
			return err
		}
	}
	return nil
}

// Get implements ES5.1 [[Get]] (8.12.3): own property lookup (array
// part first, then sparse part), falling back to the prototype chain,
// invoking an accessor's getter if the resolved property is one.
func (o *Object) Get(key *heap.DukString, this value.Value) (value.Value, error) {
	cur := o
	for cur != nil {
		if idx, ok := arrayIndex(string(key.Bytes())); ok && int(idx) < len(cur.arrayPart) {
			return cur.arrayPart[idx], nil
		}
		if slot := cur.index.find(key); slot >= 0 {
			return cur.resolveSlot(slot, this)
		}
		if v, ok := cur.stringCharAt(key); ok {
			return v, nil
		}
		cur = cur.proto
	}
	return value.Undefined(), nil
}

// stringCharAt implements the String exotic [[GetOwnProperty]] index
// behavior (ES5.1 15.5.5.2): a boxed String object reports its
// character at index n as an own property, backed by the primitive
// string's DukString.CharAt rather than by a materialized property.
func (o *Object) stringCharAt(key *heap.DukString) (value.Value, bool) {
	if o.class != ClassString {
		return value.Value{}, false
	}
	idx, ok := arrayIndex(string(key.Bytes()))
	if !ok {
		return value.Value{}, false
	}
	s, ok := o.primitive.Heap().(*heap.DukString)
	if !ok {
		return value.Value{}, false
	}
	ch, ok := s.CharAt(idx)
	if !ok {
		return value.Value{}, false
	}
	return value.Ref(o.h.StringTable().Intern(ch)), true
}

func (o *Object) resolveSlot(slot int, this value.Value) (value.Value, error) {
	if o.attrs[slot]&AttrAccessor != 0 {
		pair, ok := o.vals[slot].Ref.(*accessorPair)
		if !ok {
			return value.Undefined(), nil
		}
		return callFunctionValue(pair.get, this, nil)
	}
	return o.vals[slot], nil
}

// HasProperty implements ES5.1 [[HasProperty]] (8.12.6): true if own or
// inherited.
func (o *Object) HasProperty(key *heap.DukString) bool {
	cur := o
	for cur != nil {
		if cur.HasOwnProperty(key) {
			return true
		}
		cur = cur.proto
	}
	return false
}

// HasOwnProperty reports whether key names an own property.
func (o *Object) HasOwnProperty(key *heap.DukString) bool {
	if idx, ok := arrayIndex(string(key.Bytes())); ok {
		return int(idx) < len(o.arrayPart) && !o.arrayPart[idx].IsUndefined()
	}
	return o.index.find(key) >= 0
}

// Put implements ES5.1 [[Put]] (8.12.5): find-or-create an own data
// property through [[DefineOwnProperty]], honoring an inherited
// accessor's setter and the writable/extensible permission checks.
// throwOnFailure selects strict-mode semantics (return a TypeError
// instead of silently doing nothing).
func (o *Object) Put(key *heap.DukString, v value.Value, this value.Value, throwOnFailure bool) error {
	// With no own property, walk the prototype chain first: an inherited
	// accessor's setter takes precedence over creating a new own data
	// property.
	cur := o.proto
	if o.HasOwnProperty(key) {
		cur = nil
	}
	for cur != nil {
		if slot := cur.index.find(key); slot >= 0 && cur.attrs[slot]&AttrAccessor != 0 {
			pair, _ := cur.vals[slot].Ref.(*accessorPair)
			if pair != nil && !pair.set.IsUndefined() {
				_, err := callFunctionValue(pair.set, this, []value.Value{v})
				return err
			}
			if throwOnFailure {
				return errors.TypeMismatch(errors.PhaseProperty, []string{string(key.Bytes())}, "property has no setter")
			}
			return nil
		}
		cur = cur.proto
	}

	desc := PropertyDescriptor{Value: v, Attr: AttrDefault}
	if o.HasOwnProperty(key) {
		// Preserve existing attribute bits other than the value itself.
		if idx, ok := arrayIndex(string(key.Bytes())); ok && int(idx) < len(o.arrayPart) {
			desc.Attr = AttrDefault
		} else if slot := o.index.find(key); slot >= 0 {
			if o.attrs[slot]&AttrAccessor != 0 {
				pair, _ := o.vals[slot].Ref.(*accessorPair)
				if pair != nil && !pair.set.IsUndefined() {
					_, err := callFunctionValue(pair.set, this, []value.Value{v})
					return err
				}
				if throwOnFailure {
					return errors.TypeMismatch(errors.PhaseProperty, []string{string(key.Bytes())}, "property has no setter")
				}
				return nil
			}
			if o.attrs[slot]&AttrWritable == 0 {
				if throwOnFailure {
					return errors.TypeMismatch(errors.PhaseProperty, []string{string(key.Bytes())}, "property is not writable")
				}
				return nil
			}
			desc.Attr = o.attrs[slot]
		}
	} else if !o.extensible {
		if throwOnFailure {
			return errors.TypeMismatch(errors.PhaseProperty, []string{string(key.Bytes())}, "object is not extensible")
		}
		return nil
	}

	return o.DefineOwnProperty(key, desc, throwOnFailure)
}

// PropertyDescriptor is ES5.1's internal Property Descriptor record
// (8.10), restricted to the fields duk5's single [[DefineOwnProperty]]
// entry point needs at once; Get/Set are only meaningful when Attr has
// AttrAccessor set.
type PropertyDescriptor struct {
	Value value.Value
	Get   value.Value
	Set   value.Value
	Attr  PropAttr
}

// DefineOwnProperty implements ES5.1 8.12.9 as a single non-partial
// operation (spec.md §4.3 "the defining operation never partially
// succeeds"): either every permission check passes and the property is
// installed in one step, or none of the object's state changes (and a
// TypeError is returned when throwOnFailure is set). desc.Attr replaces
// an existing property's attributes as a whole; attributes are not
// merged from the current property.
func (o *Object) DefineOwnProperty(key *heap.DukString, desc PropertyDescriptor, throwOnFailure bool) error {
	if idx, ok := arrayIndex(string(key.Bytes())); ok && desc.Attr&AttrAccessor == 0 {
		return o.defineArrayIndex(idx, desc, throwOnFailure)
	}

	slot := o.index.find(key)
	if slot < 0 {
		if !o.extensible {
			if throwOnFailure {
				return errors.TypeMismatch(errors.PhaseProperty, []string{string(key.Bytes())}, "object is not extensible")
			}
			return nil
		}
		return o.appendSparse(key, desc)
	}

	if o.attrs[slot]&AttrConfigurable == 0 {
		// A non-configurable property may still have its value changed
		// if it is a writable data property (8.12.9 step 10), but
		// nothing else about it may change.
		if desc.Attr&AttrAccessor != o.attrs[slot]&AttrAccessor {
			if throwOnFailure {
				return errors.TypeMismatch(errors.PhaseProperty, []string{string(key.Bytes())}, "cannot redefine non-configurable property")
			}
			return nil
		}
		if o.attrs[slot]&AttrAccessor == 0 && o.attrs[slot]&AttrWritable == 0 {
			if throwOnFailure {
				return errors.TypeMismatch(errors.PhaseProperty, []string{string(key.Bytes())}, "cannot redefine non-writable, non-configurable property")
			}
			return nil
		}
	}

	o.setSlot(slot, desc)
	return nil
}

// setSlot commits desc into an already-existing sparse-part slot,
// requeuing refcounts on whatever heap reference it replaces.
func (o *Object) setSlot(slot int, desc PropertyDescriptor) {
	if desc.Attr&AttrAccessor != 0 {
		pair := newAccessorPair(o.h, desc.Get, desc.Set)
		old := o.vals[slot].Heap()
		o.h.Requeue(old, pair)
		o.vals[slot] = value.Ref(pair)
	} else {
		o.h.Requeue(o.vals[slot].Heap(), desc.Value.Heap())
		o.vals[slot] = desc.Value
	}
	o.attrs[slot] = desc.Attr
}

func (o *Object) appendSparse(key *heap.DukString, desc PropertyDescriptor) error {
	o.h.IncRef(key)
	slot := len(o.keys)
	o.keys = append(o.keys, key)
	if desc.Attr&AttrAccessor != 0 {
		pair := newAccessorPair(o.h, desc.Get, desc.Set)
		o.vals = append(o.vals, value.Ref(pair))
	} else {
		if r := desc.Value.Heap(); r != nil {
			o.h.IncRef(r)
		}
		o.vals = append(o.vals, desc.Value)
	}
	o.attrs = append(o.attrs, desc.Attr)
	o.index.insert(key, slot)
	return nil
}

// defineArrayIndex handles an integer-keyed data property definition,
// including the lazy array<->sparse migration threshold (spec.md
// §4.3).
func (o *Object) defineArrayIndex(idx uint32, desc PropertyDescriptor, throwOnFailure bool) error {
	if desc.Attr != AttrDefault {
		// Non-default attributes on an integer key cannot live in the
		// compact array part (which has no per-slot attribute storage);
		// migrate it to the sparse part instead.
		key := o.h.StringTable().Intern([]byte(itoa(idx)))
		defer o.h.DecRef(key)
		return o.defineSparseInt(key, desc, throwOnFailure)
	}

	if int(idx) < len(o.arrayPart) {
		o.h.Requeue(o.arrayPart[idx].Heap(), desc.Value.Heap())
		o.arrayPart[idx] = desc.Value
		return nil
	}

	if uint64(idx) > uint64(len(o.arrayPart))*sparseMigrationFactor+sparseMigrationFloor {
		key := o.h.StringTable().Intern([]byte(itoa(idx)))
		defer o.h.DecRef(key)
		return o.defineSparseInt(key, desc, throwOnFailure)
	}

	for int(idx) > len(o.arrayPart) {
		o.arrayPart = append(o.arrayPart, value.Undefined())
	}
	if r := desc.Value.Heap(); r != nil {
		o.h.IncRef(r)
	}
	o.arrayPart = append(o.arrayPart, desc.Value)
	return nil
}

func (o *Object) defineSparseInt(key *heap.DukString, desc PropertyDescriptor, throwOnFailure bool) error {
	slot := o.index.find(key)
	if slot >= 0 {
		o.setSlot(slot, desc)
		return nil
	}
	if !o.extensible {
		if throwOnFailure {
			return errors.TypeMismatch(errors.PhaseProperty, []string{string(key.Bytes())}, "object is not extensible")
		}
		return nil
	}
	return o.appendSparse(key, desc)
}

// Delete implements ES5.1 [[Delete]] (8.12.7).
func (o *Object) Delete(key *heap.DukString, throwOnFailure bool) (bool, error) {
	if idx, ok := arrayIndex(string(key.Bytes())); ok && int(idx) < len(o.arrayPart) {
		if r := o.arrayPart[idx].Heap(); r != nil {
			o.h.DecRef(r)
		}
		o.arrayPart[idx] = value.Undefined()
		return true, nil
	}

	slot := o.index.find(key)
	if slot < 0 {
		return true, nil
	}
	if o.attrs[slot]&AttrConfigurable == 0 {
		if throwOnFailure {
			return false, errors.TypeMismatch(errors.PhaseProperty, []string{string(key.Bytes())}, "cannot delete non-configurable property")
		}
		return false, nil
	}

	o.h.DecRef(o.keys[slot])
	if r := o.vals[slot].Heap(); r != nil {
		o.h.DecRef(r)
	}
	o.index.remove(o.keys[slot])
	o.index.shiftSlotsFrom(slot)
	o.keys = append(o.keys[:slot], o.keys[slot+1:]...)
	o.vals = append(o.vals[:slot], o.vals[slot+1:]...)
	o.attrs = append(o.attrs[:slot], o.attrs[slot+1:]...)
	return true, nil
}

// DefaultValue implements ES5.1 8.12.8 / 9.1, letting Object satisfy
// value.Primitiver so value.ToPrimitive can reduce an object reference
// without the value package importing object.
func (o *Object) DefaultValue(hint string) (value.Value, error) {
	order := []string{"valueOf", "toString"}
	if hint == "string" {
		order = []string{"toString", "valueOf"}
	}
	this := value.Ref(o)
	for _, name := range order {
		key := o.h.StringTable().Intern([]byte(name))
		fnVal, err := o.Get(key, this)
		o.h.DecRef(key)
		if err != nil {
			return value.Undefined(), err
		}
		fn, ok := fnVal.Ref.(*Object)
		if !ok || fn.class != ClassFunction {
			continue
		}
		result, err := fn.Call(this, nil)
		if err != nil {
			return value.Undefined(), err
		}
		if result.Tag != value.TagObject {
			return result, nil
		}
	}
	return value.Undefined(), errors.TypeMismatch(errors.PhaseProperty, nil, "no [[DefaultValue]] candidate returned a primitive")
}

// Call invokes the object as a function: a native function runs
// directly; a compiled function must be stepped by the thread/protect
// machinery (duthread/protect packages), which is outside object's
// scope — Call only handles the NativeFunc case and returns an
// Unsupported error for a compiled function. api.Context.Call reaches
// this same method, so a compiled function cannot be run through it
// either.
func (o *Object) Call(this value.Value, args []value.Value) (value.Value, error) {
	if o.native != nil {
		return o.native(this, args)
	}
	return value.Undefined(), errors.Unsupported(errors.PhaseProperty, "calling a compiled function outside the thread executor")
}

func itoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}

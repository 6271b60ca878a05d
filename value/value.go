// Package value implements duk5's tagged Value representation (C2):
// undefined, null, boolean, number, and heap reference, in a two-word
// tag+payload layout chosen over NaN-boxing for portability and
// readability.
package value

import (
	"math"

	"github.com/goduk/duk5/heap"
)

// Tag identifies which variant a Value currently holds.
type Tag uint8

const (
	TagUndefined Tag = iota
	TagNull
	TagBoolean
	TagNumber
	TagObject
)

func (t Tag) String() string {
	switch t {
	case TagUndefined:
		return "undefined"
	case TagNull:
		return "null"
	case TagBoolean:
		return "boolean"
	case TagNumber:
		return "number"
	case TagObject:
		return "object"
	default:
		return "unknown"
	}
}

// Value is duk5's tagged union (spec.md §3 "Value (C2)"): a two-word
// tag+payload layout, matching the teacher's own preference for
// explicit tagged structs (arena.ValType, arena.AnyTypeID) over bit
// packing. Num holds both the boolean payload (0/1) and the IEEE-754
// double payload; Ref holds the heap reference payload. The zero Value
// is TagUndefined, matching ECMAScript's default "not yet assigned"
// state.
type Value struct {
	Tag Tag
	Num float64
	Ref heap.Traceable
}

// Undefined returns the ECMAScript `undefined` value.
func Undefined() Value { return Value{Tag: TagUndefined} }

// Null returns the ECMAScript `null` value.
func Null() Value { return Value{Tag: TagNull} }

// Bool wraps a Go bool as an ECMAScript boolean value.
func Bool(b bool) Value {
	n := 0.0
	if b {
		n = 1.0
	}
	return Value{Tag: TagBoolean, Num: n}
}

// Number wraps a float64 as an ECMAScript number value.
func Number(n float64) Value { return Value{Tag: TagNumber, Num: n} }

// Int is a convenience constructor for integer-valued numbers; ES5.1
// numbers have no separate integer representation, but duk5's value
// stack and bytecode operands frequently need one, per spec.md §3's
// "integer fast-cases allowed".
func Int(n int) Value { return Value{Tag: TagNumber, Num: float64(n)} }

// Ref wraps a heap reference (string, object, buffer, thread, ...) as
// an ECMAScript value. The caller must already hold a counted reference
// to ref; Ref does not incref on its own — callers store values through
// heap.Heap.Requeue/IncRef at the point of assignment, not at
// construction, so a Value can be built and discarded without heap
// side effects (e.g. as a temporary during arithmetic).
func Ref(ref heap.Traceable) Value { return Value{Tag: TagObject, Ref: ref} }

// IsUndefined reports whether v is the `undefined` value.
func (v Value) IsUndefined() bool { return v.Tag == TagUndefined }

// IsNull reports whether v is the `null` value.
func (v Value) IsNull() bool { return v.Tag == TagNull }

// IsNullOrUndefined reports whether v is either of ES5.1's two "no
// value" values (used throughout the spec's coercion algorithms).
func (v Value) IsNullOrUndefined() bool { return v.Tag == TagUndefined || v.Tag == TagNull }

// IsBoolean reports whether v holds a boolean.
func (v Value) IsBoolean() bool { return v.Tag == TagBoolean }

// IsNumber reports whether v holds a number.
func (v Value) IsNumber() bool { return v.Tag == TagNumber }

// IsObject reports whether v holds a heap reference.
func (v Value) IsObject() bool { return v.Tag == TagObject }

// Bool extracts the boolean payload; callers must check IsBoolean first.
func (v Value) Bool() bool { return v.Num != 0 }

// Float extracts the number payload; callers must check IsNumber first.
func (v Value) Float() float64 { return v.Num }

// Object extracts the heap reference payload; callers must check
// IsObject first.
func (v Value) Object() heap.Traceable { return v.Ref }

// Heap returns the Traceable payload for GC tracing purposes regardless
// of tag, or nil for non-reference values. Object/Thread/Buffer Trace
// implementations call this on every stored Value to discover their
// outgoing heap references without needing a type switch.
func (v Value) Heap() heap.Traceable {
	if v.Tag == TagObject {
		return v.Ref
	}
	return nil
}

// SameValue implements the ES5.1 SameValue algorithm (the "===" used by
// Object.is-style internal comparisons): NaN equals NaN, but +0 and -0
// are distinct. Strict equality ("===" the operator) instead uses
// StrictEquals, which treats +0 and -0 as equal and NaN as unequal to
// itself, matching the two ES5.1 sections this spec doesn't merge.
func SameValue(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case TagUndefined, TagNull:
		return true
	case TagBoolean:
		return a.Bool() == b.Bool()
	case TagNumber:
		if a.Num != a.Num && b.Num != b.Num {
			return true // both NaN
		}
		if a.Num == 0 && b.Num == 0 {
			return isNegZero(a.Num) == isNegZero(b.Num)
		}
		return a.Num == b.Num
	case TagObject:
		return a.Ref == b.Ref
	default:
		return false
	}
}

// StrictEquals implements the ES5.1 "===" operator (11.9.6): like
// SameValue except +0 === -0 is true and NaN === NaN is false.
func StrictEquals(a, b Value) bool {
	if a.Tag != b.Tag {
		return false
	}
	switch a.Tag {
	case TagUndefined, TagNull:
		return true
	case TagBoolean:
		return a.Bool() == b.Bool()
	case TagNumber:
		return a.Num == b.Num
	case TagObject:
		return a.Ref == b.Ref
	default:
		return false
	}
}

func isNegZero(f float64) bool {
	return f == 0 && math.Signbit(f)
}

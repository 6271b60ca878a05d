package value

import (
	"math"
	"strconv"
	"strings"

	"github.com/goduk/duk5/errors"
	"github.com/goduk/duk5/heap"
)

// Stringer is implemented by heap references that know how to render
// themselves as an extended-UTF-8 byte body — currently only
// *heap.DukString, but kept as an interface so value never needs to
// import a concrete string type directly from another package that in
// turn imports value (it doesn't here, but object.Object's
// [[DefaultValue]] below establishes the same layering discipline).
type Stringer interface {
	Bytes() []byte
}

// Primitiver is implemented by heap references that carry ES5.1's
// [[DefaultValue]] internal method (object.Object). value intentionally
// does not import the object package — object imports value instead —
// so ToPrimitive reaches into a heap reference through this interface
// rather than a concrete type switch.
type Primitiver interface {
	DefaultValue(hint string) (Value, error)
}

// ToBoolean implements ES5.1 9.2: every value coerces to a boolean,
// never fails.
func ToBoolean(v Value) bool {
	switch v.Tag {
	case TagUndefined, TagNull:
		return false
	case TagBoolean:
		return v.Bool()
	case TagNumber:
		return v.Num != 0 && v.Num == v.Num // false for 0, -0, NaN
	case TagObject:
		if s, ok := v.Ref.(Stringer); ok {
			return len(s.Bytes()) != 0
		}
		return true
	default:
		return false
	}
}

// ToPrimitive implements ES5.1 9.1: objects are reduced to a primitive
// via [[DefaultValue]]; every other value is already primitive and is
// returned unchanged. hint is "string", "number", or "" (no preference,
// defaults to "number" per 8.12.8).
func ToPrimitive(v Value, hint string) (Value, error) {
	if v.Tag != TagObject {
		return v, nil
	}
	p, ok := v.Ref.(Primitiver)
	if !ok {
		return Undefined(), errors.TypeMismatch(errors.PhaseBuiltin, nil, "value has no [[DefaultValue]]")
	}
	return p.DefaultValue(hint)
}

// ToNumber implements ES5.1 9.3.
func ToNumber(v Value) (float64, error) {
	switch v.Tag {
	case TagUndefined:
		return math.NaN(), nil
	case TagNull:
		return 0, nil
	case TagBoolean:
		if v.Bool() {
			return 1, nil
		}
		return 0, nil
	case TagNumber:
		return v.Num, nil
	case TagObject:
		prim, err := ToPrimitive(v, "number")
		if err != nil {
			return math.NaN(), err
		}
		if prim.Tag == TagObject {
			return math.NaN(), errors.InvalidData(errors.PhaseBuiltin, "[[DefaultValue]] did not return a primitive")
		}
		if s, ok := prim.Ref.(Stringer); ok {
			return stringToNumber(string(s.Bytes())), nil
		}
		return ToNumber(prim)
	default:
		return math.NaN(), nil
	}
}

// stringToNumber implements ES5.1 9.3.1's StringNumericLiteral grammar,
// trimmed to the subset strconv.ParseFloat already accepts plus the
// empty-string and whitespace-only special case (=> 0) and hex literals
// (0x.../0X...).
func stringToNumber(s string) float64 {
	t := strings.TrimSpace(s)
	if t == "" {
		return 0
	}
	if strings.HasPrefix(t, "0x") || strings.HasPrefix(t, "0X") {
		n, err := strconv.ParseUint(t[2:], 16, 64)
		if err != nil {
			return math.NaN()
		}
		return float64(n)
	}
	switch t {
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	f, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return math.NaN()
	}
	return f
}

// ToInt32 implements ES5.1 9.5: ToNumber, then wrap modulo 2^32 into a
// signed 32-bit range. Unlike the teacher's CoerceToInt32 (which fails
// on out-of-range input because it is validating already-typed host
// data), ES5.1 coercion always succeeds by wrapping.
func ToInt32(v Value) (int32, error) {
	n, err := ToNumber(v)
	if err != nil {
		return 0, err
	}
	return int32(toUint32Bits(n)), nil
}

// ToUint32 implements ES5.1 9.6.
func ToUint32(v Value) (uint32, error) {
	n, err := ToNumber(v)
	if err != nil {
		return 0, err
	}
	return toUint32Bits(n), nil
}

func toUint32Bits(n float64) uint32 {
	if math.IsNaN(n) || math.IsInf(n, 0) || n == 0 {
		return 0
	}
	n = math.Trunc(n)
	m := math.Mod(n, 4294967296)
	if m < 0 {
		m += 4294967296
	}
	return uint32(m)
}

// ToUint16 implements ES5.1 9.7.
func ToUint16(v Value) (uint16, error) {
	n, err := ToNumber(v)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(n) || math.IsInf(n, 0) || n == 0 {
		return 0, nil
	}
	n = math.Trunc(n)
	m := math.Mod(n, 65536)
	if m < 0 {
		m += 65536
	}
	return uint16(m), nil
}

// Interner is implemented by the heap's string table; value.ToString
// needs it to produce interned *heap.DukString results so every
// ToString result participates in the identity-comparison guarantee
// C4 provides.
type Interner interface {
	Intern(b []byte) *heap.DukString
}

// ToString implements ES5.1 9.8, returning an interned string reference
// as a Value. h is the target heap's string table (ToString always
// allocates into the heap the calling thread belongs to).
func ToString(v Value, h Interner) (Value, error) {
	switch v.Tag {
	case TagUndefined:
		return Ref(h.Intern([]byte("undefined"))), nil
	case TagNull:
		return Ref(h.Intern([]byte("null"))), nil
	case TagBoolean:
		if v.Bool() {
			return Ref(h.Intern([]byte("true"))), nil
		}
		return Ref(h.Intern([]byte("false"))), nil
	case TagNumber:
		return Ref(h.Intern([]byte(NumberToString(v.Num)))), nil
	case TagObject:
		if _, ok := v.Ref.(Stringer); ok {
			return v, nil // already a string reference
		}
		prim, err := ToPrimitive(v, "string")
		if err != nil {
			return Undefined(), err
		}
		if prim.Tag == TagObject {
			return Undefined(), errors.InvalidData(errors.PhaseBuiltin, "[[DefaultValue]] did not return a primitive")
		}
		return ToString(prim, h)
	default:
		return Undefined(), nil
	}
}

// NumberToString implements ES5.1 9.8.1's ToString-for-Number
// algorithm via Go's shortest round-tripping float formatting, which
// satisfies the same "shortest decimal that round-trips" requirement
// the spec imposes: fixed notation for 1e-6 <= |n| < 1e21, exponent
// notation otherwise, with NaN/Infinity spelled the ECMAScript way.
func NumberToString(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		if math.Signbit(n) {
			return "0" // ES5.1 9.8.1 step 5: -0 stringifies as "0"
		}
		return "0"
	}
	if abs := math.Abs(n); abs >= 1e-6 && abs < 1e21 {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	// Go pads the exponent to two digits ("1e-07"); ES5.1 does not.
	mant, exp, _ := strings.Cut(strconv.FormatFloat(n, 'e', -1, 64), "e")
	return mant + "e" + exp[:1] + strings.TrimLeft(exp[1:], "0")
}

// TypeOf implements the `typeof` operator (ES5.1 11.4.3). fn reports
// whether an object reference is callable (a function), since value
// itself has no notion of callability.
func TypeOf(v Value, fn func(heap.Traceable) bool) string {
	switch v.Tag {
	case TagUndefined:
		return "undefined"
	case TagNull:
		return "object"
	case TagBoolean:
		return "boolean"
	case TagNumber:
		return "number"
	case TagObject:
		if fn != nil && fn(v.Ref) {
			return "function"
		}
		return "object"
	default:
		return "undefined"
	}
}

package value

import (
	"math"
	"testing"

	"github.com/goduk/duk5/heap"
)

func TestToBoolean(t *testing.T) {
	cases := []struct {
		v    Value
		want bool
	}{
		{Undefined(), false},
		{Null(), false},
		{Bool(false), false},
		{Bool(true), true},
		{Number(0), false},
		{Number(math.NaN()), false},
		{Number(1), true},
	}
	for _, c := range cases {
		if got := ToBoolean(c.v); got != c.want {
			t.Errorf("ToBoolean(%v) = %v, want %v", c.v, got, c.want)
		}
	}
}

func TestToNumber_Primitives(t *testing.T) {
	cases := []struct {
		v    Value
		want float64
	}{
		{Null(), 0},
		{Bool(true), 1},
		{Bool(false), 0},
		{Number(42), 42},
	}
	for _, c := range cases {
		got, err := ToNumber(c.v)
		if err != nil {
			t.Fatalf("ToNumber(%v) returned error: %v", c.v, err)
		}
		if got != c.want {
			t.Errorf("ToNumber(%v) = %v, want %v", c.v, got, c.want)
		}
	}

	n, err := ToNumber(Undefined())
	if err != nil {
		t.Fatalf("ToNumber(undefined) returned error: %v", err)
	}
	if !math.IsNaN(n) {
		t.Fatalf("ToNumber(undefined) = %v, want NaN", n)
	}
}

func TestStringToNumber(t *testing.T) {
	cases := []struct {
		s    string
		want float64
	}{
		{"", 0},
		{"   ", 0},
		{"42", 42},
		{"  3.5  ", 3.5},
		{"0x1F", 31},
		{"Infinity", math.Inf(1)},
		{"-Infinity", math.Inf(-1)},
	}
	for _, c := range cases {
		if got := stringToNumber(c.s); got != c.want {
			t.Errorf("stringToNumber(%q) = %v, want %v", c.s, got, c.want)
		}
	}
	if n := stringToNumber("not a number"); !math.IsNaN(n) {
		t.Errorf("stringToNumber(%q) = %v, want NaN", "not a number", n)
	}
}

func TestToInt32_Wraps(t *testing.T) {
	got, err := ToInt32(Number(4294967296 + 5)) // 2^32 + 5
	if err != nil {
		t.Fatal(err)
	}
	if got != 5 {
		t.Fatalf("ToInt32(2^32+5) = %d, want 5", got)
	}

	got, err = ToInt32(Number(-1))
	if err != nil {
		t.Fatal(err)
	}
	if got != -1 {
		t.Fatalf("ToInt32(-1) = %d, want -1", got)
	}

	got, err = ToInt32(Number(math.NaN()))
	if err != nil {
		t.Fatal(err)
	}
	if got != 0 {
		t.Fatalf("ToInt32(NaN) = %d, want 0", got)
	}
}

func TestToUint32_Wraps(t *testing.T) {
	got, err := ToUint32(Number(-1))
	if err != nil {
		t.Fatal(err)
	}
	if got != 0xFFFFFFFF {
		t.Fatalf("ToUint32(-1) = %d, want 0xFFFFFFFF", got)
	}
}

func TestNumberToString(t *testing.T) {
	cases := []struct {
		n    float64
		want string
	}{
		{0, "0"},
		{math.NaN(), "NaN"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{42, "42"},
		{3.5, "3.5"},
	}
	for _, c := range cases {
		if got := NumberToString(c.n); got != c.want {
			t.Errorf("NumberToString(%v) = %q, want %q", c.n, got, c.want)
		}
	}
}

func TestToString_UsesInternTable(t *testing.T) {
	h := heap.New(nil, nil, heap.DefaultConfig())

	v, err := ToString(Number(42), h.StringTable())
	if err != nil {
		t.Fatal(err)
	}
	s, ok := v.Ref.(*heap.DukString)
	if !ok {
		t.Fatalf("expected ToString to return a *heap.DukString reference, got %T", v.Ref)
	}
	if string(s.Bytes()) != "42" {
		t.Fatalf("ToString(42) = %q, want %q", s.Bytes(), "42")
	}

	v2, err := ToString(Number(42), h.StringTable())
	if err != nil {
		t.Fatal(err)
	}
	if v.Ref != v2.Ref {
		t.Fatal("expected repeated ToString of the same number to intern to the same reference")
	}
}

func TestTypeOf(t *testing.T) {
	isFn := func(heap.Traceable) bool { return false }
	cases := []struct {
		v    Value
		want string
	}{
		{Undefined(), "undefined"},
		{Null(), "object"},
		{Bool(true), "boolean"},
		{Number(1), "number"},
	}
	for _, c := range cases {
		if got := TypeOf(c.v, isFn); got != c.want {
			t.Errorf("TypeOf(%v) = %q, want %q", c.v, got, c.want)
		}
	}
}

package value

import "testing"

func TestSameValue_NaN(t *testing.T) {
	nan := Number(nanValue())
	if !SameValue(nan, nan) {
		t.Fatal("expected SameValue(NaN, NaN) to be true")
	}
	if StrictEquals(nan, nan) {
		t.Fatal("expected StrictEquals(NaN, NaN) to be false")
	}
}

func TestSameValue_ZeroSigns(t *testing.T) {
	pos := Number(0)
	neg := Number(negZero())
	if SameValue(pos, neg) {
		t.Fatal("expected SameValue(+0, -0) to be false")
	}
	if !StrictEquals(pos, neg) {
		t.Fatal("expected StrictEquals(+0, -0) to be true")
	}
}

func TestValue_TagPredicates(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		tag  Tag
	}{
		{"undefined", Undefined(), TagUndefined},
		{"null", Null(), TagNull},
		{"bool", Bool(true), TagBoolean},
		{"number", Number(1), TagNumber},
	}
	for _, c := range cases {
		if c.v.Tag != c.tag {
			t.Errorf("%s: expected tag %v, got %v", c.name, c.tag, c.v.Tag)
		}
	}
}

func TestValue_IsNullOrUndefined(t *testing.T) {
	if !Undefined().IsNullOrUndefined() {
		t.Error("expected undefined to be IsNullOrUndefined")
	}
	if !Null().IsNullOrUndefined() {
		t.Error("expected null to be IsNullOrUndefined")
	}
	if Number(0).IsNullOrUndefined() {
		t.Error("expected 0 to not be IsNullOrUndefined")
	}
}

func nanValue() float64 {
	var z float64
	return z / z
}

func negZero() float64 {
	var z float64
	return -z
}

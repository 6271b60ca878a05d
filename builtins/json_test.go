package builtins

import (
	"testing"

	"github.com/goduk/duk5/heap"
	"github.com/goduk/duk5/object"
	"github.com/goduk/duk5/value"
)

func newTestHeap(t *testing.T) *heap.Heap {
	t.Helper()
	return heap.New(nil, nil, heap.DefaultConfig())
}

func TestJSONStringify_Primitives(t *testing.T) {
	h := newTestHeap(t)
	cases := []struct {
		v    value.Value
		want string
	}{
		{value.Null(), "null"},
		{value.Bool(true), "true"},
		{value.Number(3.5), "3.5"},
	}
	for _, c := range cases {
		got, ok, err := JSONStringify(h, c.v)
		if err != nil {
			t.Fatal(err)
		}
		if !ok || got != c.want {
			t.Fatalf("got %q/%v, want %q", got, ok, c.want)
		}
	}
}

func TestJSONStringify_UndefinedNotRepresentable(t *testing.T) {
	h := newTestHeap(t)
	_, ok, err := JSONStringify(h, value.Undefined())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("expected undefined to be non-representable")
	}
}

func TestJSONStringify_Object(t *testing.T) {
	h := newTestHeap(t)
	o := object.New(h, object.ClassObject, nil)
	k := h.StringTable().Intern([]byte("a"))
	if err := o.Put(k, value.Number(1), value.Ref(o), true); err != nil {
		t.Fatal(err)
	}

	got, ok, err := JSONStringify(h, value.Ref(o))
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != `{"a":1}` {
		t.Fatalf("got %q", got)
	}
}

func TestJSONStringify_SkipsNonRepresentableProperty(t *testing.T) {
	h := newTestHeap(t)
	o := object.New(h, object.ClassObject, nil)
	fn := object.New(h, object.ClassFunction, nil)
	if err := o.Put(h.StringTable().Intern([]byte("f")), value.Ref(fn), value.Ref(o), true); err != nil {
		t.Fatal(err)
	}
	if err := o.Put(h.StringTable().Intern([]byte("n")), value.Number(2), value.Ref(o), true); err != nil {
		t.Fatal(err)
	}

	got, ok, err := JSONStringify(h, value.Ref(o))
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != `{"n":2}` {
		t.Fatalf("got %q, expected function property omitted", got)
	}
}

func TestJSONStringify_Array(t *testing.T) {
	h := newTestHeap(t)
	arr := object.New(h, object.ClassArray, nil)
	for i := 0; i < 3; i++ {
		k := h.StringTable().Intern([]byte(itoaForTest(i)))
		if err := arr.Put(k, value.Number(float64(i)), value.Ref(arr), true); err != nil {
			t.Fatal(err)
		}
	}
	got, ok, err := JSONStringify(h, value.Ref(arr))
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != "[0,1,2]" {
		t.Fatalf("got %q", got)
	}
}

func TestJSONStringify_DetectsCircular(t *testing.T) {
	h := newTestHeap(t)
	o := object.New(h, object.ClassObject, nil)
	if err := o.Put(h.StringTable().Intern([]byte("self")), value.Ref(o), value.Ref(o), true); err != nil {
		t.Fatal(err)
	}
	_, _, err := JSONStringify(h, value.Ref(o))
	if err == nil {
		t.Fatal("expected a circular-structure error")
	}
}

func TestJSONParse_RoundTrip(t *testing.T) {
	h := newTestHeap(t)
	src := `{"a":1,"b":[true,false,null,"hi"],"c":{"d":2.5}}`
	v, err := JSONParse(h, src)
	if err != nil {
		t.Fatal(err)
	}
	got, ok, err := JSONStringify(h, v)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected representable result")
	}
	if got != src {
		t.Fatalf("round-trip mismatch: got %q want %q", got, src)
	}
}

func TestJSONParse_RejectsTrailingGarbage(t *testing.T) {
	h := newTestHeap(t)
	_, err := JSONParse(h, `{"a":1} garbage`)
	if err == nil {
		t.Fatal("expected an error for trailing data")
	}
}

func TestJSONParse_RejectsMalformed(t *testing.T) {
	h := newTestHeap(t)
	if _, err := JSONParse(h, `{a:1}`); err == nil {
		t.Fatal("expected an error for an unquoted key")
	}
}

func itoaForTest(n int) string {
	if n == 0 {
		return "0"
	}
	digits := []byte{}
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

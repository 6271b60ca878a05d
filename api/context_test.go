package api

import (
	"testing"

	"github.com/goduk/duk5/duthread"
	"github.com/goduk/duk5/heap"
	"github.com/goduk/duk5/object"
	"github.com/goduk/duk5/value"
)

func newTestContext(t *testing.T) *Context {
	t.Helper()
	h := heap.New(nil, nil, heap.DefaultConfig())
	th := duthread.New(h)
	return New(h, th)
}

func TestContext_PushAndCoerce(t *testing.T) {
	c := newTestContext(t)

	c.PushNumber(42)
	if err := c.ToString(-1); err != nil {
		t.Fatal(err)
	}
	if got := c.th.Get(0); got.Ref.(*heap.DukString).Bytes() == nil {
		t.Fatal("expected a string at top of stack")
	} else if string(got.Ref.(*heap.DukString).Bytes()) != "42" {
		t.Fatalf("expected \"42\", got %q", got.Ref.(*heap.DukString).Bytes())
	}
}

func TestContext_ToBoolean(t *testing.T) {
	c := newTestContext(t)
	c.PushNumber(0)
	if err := c.ToBoolean(-1); err != nil {
		t.Fatal(err)
	}
	if c.th.Get(0).Bool() != false {
		t.Fatal("expected ToBoolean(0) = false")
	}
}

func TestContext_ToObjectBoxesPrimitive(t *testing.T) {
	c := newTestContext(t)
	c.PushNumber(7)
	if err := c.ToObject(-1); err != nil {
		t.Fatal(err)
	}
	v := c.th.Get(0)
	o, ok := v.Ref.(*object.Object)
	if !ok {
		t.Fatalf("expected an object, got %v", v)
	}
	if o.Class() != object.ClassNumber {
		t.Fatalf("expected ClassNumber wrapper, got %v", o.Class())
	}
	if o.Primitive().Float() != 7 {
		t.Fatalf("expected boxed primitive 7, got %v", o.Primitive())
	}
}

func TestContext_ToObjectRejectsUndefined(t *testing.T) {
	c := newTestContext(t)
	c.PushUndefined()
	if err := c.ToObject(-1); err == nil {
		t.Fatal("expected ToObject(undefined) to fail")
	}
}

func TestContext_GetPutHasDelProp(t *testing.T) {
	c := newTestContext(t)
	o := object.New(c.h, object.ClassObject, nil)
	c.PushObject(o)

	c.PushString("x")
	c.PushNumber(10)
	if err := c.PutProp(0); err != nil {
		t.Fatal(err)
	}

	c.PushString("x")
	if err := c.GetProp(0); err != nil {
		t.Fatal(err)
	}
	if c.th.Get(1).Float() != 10 {
		t.Fatalf("expected GetProp to push 10, got %v", c.th.Get(1))
	}
	c.th.Pop()

	c.PushString("x")
	if err := c.HasProp(0); err != nil {
		t.Fatal(err)
	}
	if !c.th.Pop().Bool() {
		t.Fatal("expected HasProp(x) = true")
	}

	c.PushString("x")
	if err := c.DelProp(0); err != nil {
		t.Fatal(err)
	}
	if !c.th.Pop().Bool() {
		t.Fatal("expected DelProp(x) = true")
	}

	c.PushString("x")
	if err := c.HasProp(0); err != nil {
		t.Fatal(err)
	}
	if c.th.Pop().Bool() {
		t.Fatal("expected HasProp(x) = false after delete")
	}
}

func TestContext_Call(t *testing.T) {
	c := newTestContext(t)
	fn := object.New(c.h, object.ClassFunction, nil)
	fn.SetNative(func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Number(args[0].Float() + args[1].Float()), nil
	})

	c.PushObject(fn)
	c.PushNumber(2)
	c.PushNumber(3)
	if err := c.Call(2); err != nil {
		t.Fatal(err)
	}
	if got := c.th.Pop(); got.Float() != 5 {
		t.Fatalf("expected 5, got %v", got)
	}
}

func TestContext_SafeCallCatchesThrow(t *testing.T) {
	c := newTestContext(t)
	fn := object.New(c.h, object.ClassFunction, nil)
	fn.SetNative(func(this value.Value, args []value.Value) (value.Value, error) {
		return value.Undefined(), errTestThrow
	})

	c.PushObject(fn)
	if err := c.SafeCall(0); err != errTestThrow {
		t.Fatalf("expected errTestThrow to come back out, got %v", err)
	}
}

type testThrowError struct{}

func (testThrowError) Error() string { return "script threw" }

var errTestThrow error = testThrowError{}

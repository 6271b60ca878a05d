package main

import (
	"testing"

	"github.com/goduk/duk5/api"
	"github.com/goduk/duk5/duthread"
	"github.com/goduk/duk5/heap"
)

func newTestContext(t *testing.T) (*api.Context, *globals) {
	t.Helper()
	h := heap.New(nil, nil, heap.DefaultConfig())
	th := duthread.New(h)
	h.AddRoot(th)
	return api.New(h, th), newGlobals(h)
}

func TestEvalToString_Arithmetic(t *testing.T) {
	ctx, g := newTestContext(t)
	cases := map[string]string{
		"1 + 2 * 3":   "7",
		"(1 + 2) * 3": "9",
		"10 / 4":      "2.5",
		"-5 + 2":      "-3",
	}
	for src, want := range cases {
		got, err := evalToString(ctx, g, src)
		if err != nil {
			t.Fatalf("%s: %v", src, err)
		}
		if got != want {
			t.Fatalf("%s: got %q, want %q", src, got, want)
		}
	}
}

func TestEvalToString_StringConcatenation(t *testing.T) {
	ctx, g := newTestContext(t)
	got, err := evalToString(ctx, g, `"foo" + "bar"`)
	if err != nil {
		t.Fatal(err)
	}
	if got != "foobar" {
		t.Fatalf("got %q", got)
	}
}

func TestEvalToString_NumberPlusStringCoerces(t *testing.T) {
	ctx, g := newTestContext(t)
	got, err := evalToString(ctx, g, `1 + "2"`)
	if err != nil {
		t.Fatal(err)
	}
	if got != "12" {
		t.Fatalf("got %q, want \"12\"", got)
	}
}

func TestEvalToString_Literals(t *testing.T) {
	ctx, g := newTestContext(t)
	cases := map[string]string{
		"true":      "true",
		"false":     "false",
		"null":      "null",
		"undefined": "undefined",
	}
	for src, want := range cases {
		got, err := evalToString(ctx, g, src)
		if err != nil {
			t.Fatalf("%s: %v", src, err)
		}
		if got != want {
			t.Fatalf("%s: got %q, want %q", src, got, want)
		}
	}
}

func TestEvalToString_BuiltinCall(t *testing.T) {
	ctx, g := newTestContext(t)
	got, err := evalToString(ctx, g, `encodeURIComponent("a b")`)
	if err != nil {
		t.Fatal(err)
	}
	if got != "a%20b" {
		t.Fatalf("got %q", got)
	}
}

func TestEvalToString_UndefinedReferenceIsError(t *testing.T) {
	ctx, g := newTestContext(t)
	if _, err := evalToString(ctx, g, "nope()"); err == nil {
		t.Fatal("expected an error calling an undefined function")
	}
}

func TestEvalToString_SyntaxErrorRestoresStackDepth(t *testing.T) {
	ctx, g := newTestContext(t)
	top := ctx.Thread().Top()
	if _, err := evalToString(ctx, g, "1 +"); err == nil {
		t.Fatal("expected a syntax error")
	}
	if ctx.Thread().Top() != top {
		t.Fatalf("stack depth leaked: got %d, want %d", ctx.Thread().Top(), top)
	}
}

func TestEvalToString_JSONRoundTrip(t *testing.T) {
	ctx, g := newTestContext(t)
	got, err := evalToString(ctx, g, `jsonStringify(jsonParse("[1,2,3]"))`)
	if err != nil {
		t.Fatal(err)
	}
	if got != "[1,2,3]" {
		t.Fatalf("got %q", got)
	}
}

package main

// globals is the CLI's stand-in for duk5's global object: a small
// name -> NativeFunc table wired to the builtins package so `-e`/`-i`
// expressions can exercise encodeURIComponent/decodeURIComponent and
// the JSON-lite pair, the same functions a real global-object
// implementation would expose to script, just looked up directly by
// name here instead of through [[Get]] on an actual Object.
//
// Grounded on the teacher's runtime.Instance host-function registration
// idiom (a name-keyed table of Go functions the guest can call),
// adapted from WASM imports to ECMAScript native globals.

import (
	"fmt"

	"github.com/goduk/duk5/builtins"
	"github.com/goduk/duk5/errors"
	"github.com/goduk/duk5/heap"
	"github.com/goduk/duk5/object"
	"github.com/goduk/duk5/value"
)

type globals struct {
	h     *heap.Heap
	funcs map[string]*object.Object
}

func newGlobals(h *heap.Heap) *globals {
	g := &globals{h: h, funcs: make(map[string]*object.Object)}
	g.register("print", g.nativePrint)
	g.register("encodeURIComponent", g.nativeEncodeURIComponent)
	g.register("decodeURIComponent", g.nativeDecodeURIComponent)
	g.register("encodeURI", g.nativeEncodeURI)
	g.register("decodeURI", g.nativeDecodeURI)
	g.register("escape", g.nativeEscape)
	g.register("unescape", g.nativeUnescape)
	g.register("jsonStringify", g.nativeJSONStringify)
	g.register("jsonParse", g.nativeJSONParse)
	return g
}

func (g *globals) register(name string, fn object.NativeFunc) {
	obj := object.New(g.h, object.ClassFunction, nil)
	obj.SetNative(fn)
	g.funcs[name] = obj
}

func (g *globals) lookup(name string) (*object.Object, bool) {
	fn, ok := g.funcs[name]
	return fn, ok
}

func (g *globals) names() []string {
	names := make([]string, 0, len(g.funcs))
	for n := range g.funcs {
		names = append(names, n)
	}
	return names
}

func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined()
}

func argString(h *heap.Heap, args []value.Value, i int) (string, error) {
	sv, err := value.ToString(arg(args, i), h.StringTable())
	if err != nil {
		return "", err
	}
	return string(sv.Ref.(*heap.DukString).Bytes()), nil
}

func (g *globals) nativePrint(this value.Value, args []value.Value) (value.Value, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		sv, err := value.ToString(a, g.h.StringTable())
		if err != nil {
			return value.Undefined(), err
		}
		parts[i] = string(sv.Ref.(*heap.DukString).Bytes())
	}
	for i, p := range parts {
		if i > 0 {
			fmt.Print(" ")
		}
		fmt.Print(p)
	}
	fmt.Println()
	return value.Undefined(), nil
}

func (g *globals) nativeEncodeURIComponent(this value.Value, args []value.Value) (value.Value, error) {
	s, err := argString(g.h, args, 0)
	if err != nil {
		return value.Undefined(), err
	}
	out, err := builtins.EncodeURIComponent(s)
	if err != nil {
		return value.Undefined(), err
	}
	return g.pushResult(out), nil
}

func (g *globals) nativeDecodeURIComponent(this value.Value, args []value.Value) (value.Value, error) {
	s, err := argString(g.h, args, 0)
	if err != nil {
		return value.Undefined(), err
	}
	out, err := builtins.DecodeURIComponent(s)
	if err != nil {
		return value.Undefined(), err
	}
	return g.pushResult(out), nil
}

func (g *globals) nativeEncodeURI(this value.Value, args []value.Value) (value.Value, error) {
	s, err := argString(g.h, args, 0)
	if err != nil {
		return value.Undefined(), err
	}
	out, err := builtins.EncodeURI(s)
	if err != nil {
		return value.Undefined(), err
	}
	return g.pushResult(out), nil
}

func (g *globals) nativeDecodeURI(this value.Value, args []value.Value) (value.Value, error) {
	s, err := argString(g.h, args, 0)
	if err != nil {
		return value.Undefined(), err
	}
	out, err := builtins.DecodeURI(s)
	if err != nil {
		return value.Undefined(), err
	}
	return g.pushResult(out), nil
}

func (g *globals) nativeEscape(this value.Value, args []value.Value) (value.Value, error) {
	s, err := argString(g.h, args, 0)
	if err != nil {
		return value.Undefined(), err
	}
	return g.pushResult(builtins.Escape(s)), nil
}

func (g *globals) nativeUnescape(this value.Value, args []value.Value) (value.Value, error) {
	s, err := argString(g.h, args, 0)
	if err != nil {
		return value.Undefined(), err
	}
	out, err := builtins.Unescape(s)
	if err != nil {
		return value.Undefined(), err
	}
	return g.pushResult(out), nil
}

func (g *globals) nativeJSONStringify(this value.Value, args []value.Value) (value.Value, error) {
	out, ok, err := builtins.JSONStringify(g.h, arg(args, 0))
	if err != nil {
		return value.Undefined(), err
	}
	if !ok {
		return value.Undefined(), nil
	}
	return g.pushResult(out), nil
}

func (g *globals) nativeJSONParse(this value.Value, args []value.Value) (value.Value, error) {
	s, err := argString(g.h, args, 0)
	if err != nil {
		return value.Undefined(), err
	}
	v, err := builtins.JSONParse(g.h, s)
	if err != nil {
		return value.Undefined(), errors.Wrap(errors.PhaseBuiltin, errors.KindSyntaxError, err, "JSON.parse failed")
	}
	return v, nil
}

func (g *globals) pushResult(s string) value.Value {
	return value.Ref(g.h.StringTable().Intern([]byte(s)))
}

// Package protect implements duk5's protected-call mechanism (C9): a
// typed non-local exit that ties thrown errors, returns, and
// break/continue/yield/resume targets to the protected-call boundary
// that must observe them, without using Go panic/recover as a literal
// setjmp/longjmp stand-in for anything the caller is meant to inspect
// structurally.
//
// Grounded directly on the teacher's runtime.CallSession.Step, which
// returns a typed engine.StepResult (plus an engine.YieldResult on
// suspend) instead of letting a WASM trap propagate as a bare Go
// error — the teacher's own "typed exit reason" protocol for
// suspending and resuming calls across a host boundary, generalized
// here from a single WASM call to duk5's five-way ECMAScript control
// transfer.
package protect

import (
	"github.com/goduk/duk5/duthread"
	"github.com/goduk/duk5/errors"
	"github.com/goduk/duk5/heap"
	"github.com/goduk/duk5/value"
)

// ExitKind identifies why a protected call returned.
type ExitKind uint8

const (
	// ExitNormal: the callback completed without throwing or using any
	// other non-local exit.
	ExitNormal ExitKind = iota
	// ExitReturn: a `return` statement unwound to this pad.
	ExitReturn
	// ExitThrow: a `throw` statement (or an internal error) unwound to
	// this pad.
	ExitThrow
	// ExitBreak: an unlabeled or labeled `break` unwound past a loop or
	// switch boundary to this pad.
	ExitBreak
	// ExitContinue: likewise for `continue`.
	ExitContinue
	// ExitYield: a generator/coroutine `yield` suspended execution;
	// Value holds the yielded value, and the pad remains resumable.
	ExitYield
	// ExitResume: a suspended thread was resumed with a value to hand
	// back to the point it yielded from.
	ExitResume
)

func (k ExitKind) String() string {
	switch k {
	case ExitNormal:
		return "normal"
	case ExitReturn:
		return "return"
	case ExitThrow:
		return "throw"
	case ExitBreak:
		return "break"
	case ExitContinue:
		return "continue"
	case ExitYield:
		return "yield"
	case ExitResume:
		return "resume"
	default:
		return "unknown"
	}
}

// Exit is the structured non-local exit a protected call resolves to.
// Up to two payload values are carried (e.g. a labeled break's target
// label plus nothing, or a throw's error value plus nothing, or a
// yield's value plus an optional second value some coroutine protocols
// use for metadata).
type Exit struct {
	Kind   ExitKind
	Value  value.Value
	Value2 value.Value
	Label  string // break/continue target label, empty for unlabeled
	Err    error  // populated for ExitThrow
}

// Pad is a protected-call boundary, recording the stack depths to
// restore to on any non-local exit (spec.md §4.7). Call keeps its Pad
// as a local for the duration of the call; the thread holds no list of
// pads.
type Pad struct {
	thread *duthread.Thread
	mark   duthread.Mark
}

// exitSignal is the Go value protect.raise panics with; Call's
// recover type-asserts for it specifically so an unrelated Go panic
// (a genuine programming error, not an ECMAScript control transfer)
// propagates instead of being swallowed.
type exitSignal struct{ exit Exit }

// Raise performs the non-local exit itself: control does not return
// from the point Raise is called. It must only ever be invoked from
// inside the callback passed to Call (directly, or transitively through
// the bytecode executor / builtins the callback invokes).
func Raise(exit Exit) {
	panic(exitSignal{exit})
}

// Throw is a convenience wrapper around Raise for the common ExitThrow
// case.
func Throw(errVal value.Value, err error) {
	Raise(Exit{Kind: ExitThrow, Value: errVal, Err: err})
}

// Call runs fn under a fresh protection boundary on th: a Raise from
// anywhere inside fn (or anything it calls) is caught here rather than
// unwinding past this point, and the thread's stacks are restored to
// their depth at entry. A normal return from fn (fn returning nil)
// is reported as ExitNormal.
//
// A throw occurring on a thread that is already unwinding from a prior
// throw (th.Faulting already set — a finally clause running as a nested
// protected call on the same thread, itself throwing) is a double
// fault: per spec.md §4.7 it is routed to h.Fatal, which does not
// return.
func Call(h *heap.Heap, th *duthread.Thread, fn func() error) (exit Exit) {
	pad := Pad{thread: th, mark: th.Mark()}

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		sig, ok := r.(exitSignal)
		if !ok {
			// Not our signal: a real Go-level bug. Let it propagate
			// rather than miscategorizing it as an ECMAScript exit.
			panic(r)
		}
		if sig.exit.Kind == ExitThrow && th.Faulting {
			h.Fatal(errors.DoubleFault(sig.exit.Err))
			return
		}
		if sig.exit.Kind == ExitThrow {
			th.Faulting = true
			defer func() { th.Faulting = false }()
		}
		th.Unwind(pad.mark)
		exit = sig.exit
	}()

	if err := fn(); err != nil {
		if th.Faulting {
			h.Fatal(errors.DoubleFault(err))
			return
		}
		th.Faulting = true
		th.Unwind(pad.mark)
		th.Faulting = false
		return Exit{Kind: ExitThrow, Err: err}
	}
	return Exit{Kind: ExitNormal}
}

// SafeCall is Call's host-facing convenience form (spec.md §6 "protected-
// call wrapper"): fn's return value becomes the Normal-exit result; any
// other exit kind is reported back as a plain Go error so host code
// that doesn't care about ECMAScript control-flow distinctions (break/
// continue/yield only make sense inside script) can treat a protected
// call as an ordinary fallible function call.
func SafeCall(h *heap.Heap, th *duthread.Thread, fn func() (value.Value, error)) (value.Value, error) {
	var result value.Value
	var fnErr error
	exit := Call(h, th, func() error {
		result, fnErr = fn()
		return fnErr
	})
	switch exit.Kind {
	case ExitNormal:
		return result, nil
	case ExitThrow:
		return value.Undefined(), exit.Err
	default:
		return value.Undefined(), errors.Unsupported(errors.PhaseProtect,
			"non-local exit ("+exit.Kind.String()+") escaped to a host-level SafeCall")
	}
}

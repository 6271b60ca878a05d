package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the runtime's processing an error occurred.
type Phase string

const (
	PhaseAlloc    Phase = "alloc"    // C1 allocator facade
	PhaseIntern   Phase = "intern"   // C4 string table
	PhaseProperty Phase = "property" // C5 object store
	PhaseGC       Phase = "gc"       // C7 mark-and-sweep
	PhaseStack    Phase = "stack"    // C8 thread state
	PhaseProtect  Phase = "protect"  // C9 protected call
	PhaseAPI      Phase = "api"      // C10 public stack API
	PhaseCompile  Phase = "compile"  // compiler -> runtime contract
	PhaseBuiltin  Phase = "builtin"  // global object / URI / JSON / require
)

// Kind categorizes the error. Kinds map onto ECMAScript error classes via
// Kind.ErrorClass; internal-only kinds map to their closest standard class
// (out_of_bounds and alloc_failed to RangeError) or else to plain Error.
type Kind string

const (
	KindRangeError     Kind = "range_error"
	KindReferenceError Kind = "reference_error"
	KindSyntaxError    Kind = "syntax_error"
	KindTypeError      Kind = "type_error"
	KindURIError       Kind = "uri_error"
	KindEvalError      Kind = "eval_error"

	KindAllocFailed    Kind = "alloc_failed"
	KindOutOfBounds    Kind = "out_of_bounds"
	KindInvalidData    Kind = "invalid_data"
	KindUnsupported    Kind = "unsupported"
	KindNotFound       Kind = "not_found"
	KindNotInitialized Kind = "not_initialized"
	KindInternal       Kind = "internal_error"
	KindDoubleFault    Kind = "double_fault"
)

// ErrorClass returns the ECMAScript built-in error constructor name this
// Kind surfaces as when converted to a script-visible Error instance.
func (k Kind) ErrorClass() string {
	switch k {
	case KindRangeError:
		return "RangeError"
	case KindReferenceError:
		return "ReferenceError"
	case KindSyntaxError:
		return "SyntaxError"
	case KindTypeError:
		return "TypeError"
	case KindURIError:
		return "URIError"
	case KindEvalError:
		return "EvalError"
	case KindOutOfBounds:
		return "RangeError"
	case KindAllocFailed:
		return "RangeError"
	default:
		return "Error"
	}
}

// Error is the structured error type used throughout the runtime.
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Builder provides structured error construction.
type Builder struct {
	err Error
}

// New creates a new error builder.
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field/property path.
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Value sets the offending value.
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error.
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message.
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error.
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns.

// AllocFailed creates an allocator-failure error (C1).
func AllocFailed(size uint32) *Error {
	return &Error{
		Phase:  PhaseAlloc,
		Kind:   KindAllocFailed,
		Detail: fmt.Sprintf("failed to allocate %d bytes", size),
	}
}

// OutOfBounds creates an out-of-bounds error (stack slot index, array index, ...).
func OutOfBounds(phase Phase, index, length int) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("index %d out of bounds (length %d)", index, length),
		Value:  index,
	}
}

// TypeMismatch creates a TypeError for a coercion or call that requires a
// different kind of value than it received.
func TypeMismatch(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindTypeError,
		Path:   path,
		Detail: detail,
	}
}

// NotFound creates a not-found error (property absent after prototype walk,
// module id unresolved, ...).
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// NotInitialized creates a not-initialized error for a heap/thread/context
// used before setup completed.
func NotInitialized(phase Phase, component string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s not initialized", component),
	}
}

// InvalidData creates a generic invalid-data error (malformed bytecode blob,
// malformed percent-encoding, malformed JSON, ...).
func InvalidData(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Detail: detail,
	}
}

// URIErrorf creates a URIError per ES5.1 Annex B / 15.1.3.
func URIErrorf(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseBuiltin,
		Kind:   KindURIError,
		Detail: fmt.Sprintf(detail, args...),
	}
}

// Wrap wraps an existing error with additional context.
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// Unsupported creates an unsupported-operation error.
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// DoubleFault creates the fatal error raised when a throw occurs while
// unwinding a previous throw with no protected-call pad left (§4.7).
func DoubleFault(cause error) *Error {
	return &Error{
		Phase:  PhaseProtect,
		Kind:   KindDoubleFault,
		Detail: "error thrown while no protected call pad is active",
		Cause:  cause,
	}
}

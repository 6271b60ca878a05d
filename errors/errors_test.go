package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseProperty,
				Kind:   KindTypeError,
				Path:   []string{"user", "address", "zip"},
				Detail: "cannot convert",
			},
			contains: []string{"[property]", "type_error", "user.address.zip", "cannot convert"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseStack,
				Kind:  KindOutOfBounds,
			},
			contains: []string{"[stack]", "out_of_bounds"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseAlloc,
				Kind:   KindAllocFailed,
				Detail: "memory full",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[alloc]", "alloc_failed", "memory full", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := &Error{
		Phase: PhaseAPI,
		Kind:  KindInvalidData,
		Cause: cause,
	}

	if !errors.Is(err.Unwrap(), cause) {
		t.Error("Unwrap did not return cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := &Error{
		Phase: PhaseAPI,
		Kind:  KindTypeError,
		Path:  []string{"foo"},
	}

	if !err.Is(&Error{Phase: PhaseAPI, Kind: KindTypeError}) {
		t.Error("Is should match same phase and kind")
	}
	if err.Is(&Error{Phase: PhaseStack, Kind: KindTypeError}) {
		t.Error("Is should not match different phase")
	}
	if err.Is(&Error{Phase: PhaseAPI, Kind: KindOutOfBounds}) {
		t.Error("Is should not match different kind")
	}

	target := &Error{Phase: PhaseAPI, Kind: KindTypeError}
	if !errors.Is(err, target) {
		t.Error("errors.Is should match")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseAPI, KindTypeError).
		Path("user", "name").
		Value(42).
		Cause(cause).
		Detail("expected %s, got %s", "string", "int").
		Build()

	if err.Phase != PhaseAPI {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseAPI)
	}
	if err.Kind != KindTypeError {
		t.Errorf("Kind = %v, want %v", err.Kind, KindTypeError)
	}
	if len(err.Path) != 2 || err.Path[0] != "user" || err.Path[1] != "name" {
		t.Errorf("Path = %v, want [user name]", err.Path)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err.Cause, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "expected string, got int" {
		t.Errorf("Detail = %v, want 'expected string, got int'", err.Detail)
	}
}

func TestKind_ErrorClass(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{KindRangeError, "RangeError"},
		{KindReferenceError, "ReferenceError"},
		{KindSyntaxError, "SyntaxError"},
		{KindTypeError, "TypeError"},
		{KindURIError, "URIError"},
		{KindEvalError, "EvalError"},
		{KindOutOfBounds, "RangeError"},
		{KindAllocFailed, "RangeError"},
		{KindInternal, "Error"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			if got := tt.kind.ErrorClass(); got != tt.want {
				t.Errorf("ErrorClass() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConvenienceConstructors(t *testing.T) {
	t.Run("AllocFailed", func(t *testing.T) {
		err := AllocFailed(1024)
		if err.Kind != KindAllocFailed {
			t.Errorf("Kind = %v, want %v", err.Kind, KindAllocFailed)
		}
		if !strings.Contains(err.Detail, "1024") {
			t.Errorf("Detail = %v, should contain size", err.Detail)
		}
	})

	t.Run("OutOfBounds", func(t *testing.T) {
		err := OutOfBounds(PhaseStack, 10, 5)
		if err.Kind != KindOutOfBounds {
			t.Errorf("Kind = %v, want %v", err.Kind, KindOutOfBounds)
		}
		if err.Value != 10 {
			t.Errorf("Value = %v, want 10", err.Value)
		}
	})

	t.Run("TypeMismatch", func(t *testing.T) {
		err := TypeMismatch(PhaseAPI, []string{"field"}, "expected number")
		if err.Kind != KindTypeError {
			t.Errorf("Kind = %v, want %v", err.Kind, KindTypeError)
		}
	})

	t.Run("NotFound", func(t *testing.T) {
		err := NotFound(PhaseProperty, "property", "length")
		if err.Kind != KindNotFound {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotFound)
		}
	})

	t.Run("NotInitialized", func(t *testing.T) {
		err := NotInitialized(PhaseAPI, "heap")
		if err.Kind != KindNotInitialized {
			t.Errorf("Kind = %v, want %v", err.Kind, KindNotInitialized)
		}
	})

	t.Run("InvalidData", func(t *testing.T) {
		err := InvalidData(PhaseCompile, "bytecode truncated")
		if err.Kind != KindInvalidData {
			t.Errorf("Kind = %v, want %v", err.Kind, KindInvalidData)
		}
	})

	t.Run("URIErrorf", func(t *testing.T) {
		err := URIErrorf("invalid escape %q", "%zz")
		if err.Kind != KindURIError {
			t.Errorf("Kind = %v, want %v", err.Kind, KindURIError)
		}
		if !strings.Contains(err.Detail, "%zz") {
			t.Errorf("Detail = %v, should contain escape", err.Detail)
		}
	})

	t.Run("Unsupported", func(t *testing.T) {
		err := Unsupported(PhaseCompile, "memory64")
		if err.Kind != KindUnsupported {
			t.Errorf("Kind = %v, want %v", err.Kind, KindUnsupported)
		}
	})

	t.Run("DoubleFault", func(t *testing.T) {
		cause := errors.New("inner throw")
		err := DoubleFault(cause)
		if err.Kind != KindDoubleFault {
			t.Errorf("Kind = %v, want %v", err.Kind, KindDoubleFault)
		}
		if !errors.Is(err.Cause, cause) {
			t.Errorf("Cause = %v, want %v", err.Cause, cause)
		}
	})
}

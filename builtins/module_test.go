package builtins

import (
	stderrors "errors"
	"testing"

	duerrors "github.com/goduk/duk5/errors"
	"github.com/goduk/duk5/heap"
	"github.com/goduk/duk5/object"
	"github.com/goduk/duk5/value"
)

func TestModuleRegistry_LoadsAndCaches(t *testing.T) {
	h := newTestHeap(t)
	loadCount := 0
	loader := func(id, from string) (string, string, error) {
		loadCount++
		return id, "exports.value = 42", nil
	}
	eval := func(h *heap.Heap, source, filename string, exports *object.Object) (*object.Object, error) {
		key := h.StringTable().Intern([]byte("value"))
		if err := exports.Put(key, value.Number(42), value.Ref(exports), true); err != nil {
			return nil, err
		}
		return exports, nil
	}
	reg := NewModuleRegistry(loader)

	m1, err := reg.Require(h, "./a", "", eval)
	if err != nil {
		t.Fatal(err)
	}
	m2, err := reg.Require(h, "./a", "", eval)
	if err != nil {
		t.Fatal(err)
	}
	if m1 != m2 {
		t.Fatal("expected the same cached exports object on a second require")
	}
	if loadCount != 1 {
		t.Fatalf("expected the loader to run once, ran %d times", loadCount)
	}
}

func TestModuleRegistry_CircularRequireReturnsInProgress(t *testing.T) {
	h := newTestHeap(t)
	var reg *ModuleRegistry
	loader := func(id, from string) (string, string, error) { return id, "", nil }
	var eval Evaluator
	eval = func(h *heap.Heap, source, filename string, exports *object.Object) (*object.Object, error) {
		// Simulate module "a" requiring itself mid-evaluation.
		again, err := reg.Require(h, filename, filename, eval)
		if err != nil {
			t.Fatal(err)
		}
		if again != exports {
			t.Fatal("expected circular require to return the in-progress exports object")
		}
		return exports, nil
	}
	reg = NewModuleRegistry(loader)

	if _, err := reg.Require(h, "a", "", eval); err != nil {
		t.Fatal(err)
	}
}

func TestModuleRegistry_LoaderErrorBecomesNotFound(t *testing.T) {
	h := newTestHeap(t)
	reg := NewModuleRegistry(func(id, from string) (string, string, error) {
		return "", "", errModuleMissing
	})
	_, err := reg.Require(h, "./missing", "", nil)
	if err == nil {
		t.Fatal("expected an error for a missing module")
	}
}

func TestResolve_RelativeDotDotCollapsesAgainstCurrentModule(t *testing.T) {
	got, err := resolve("a/b", "../c/./d")
	if err != nil {
		t.Fatal(err)
	}
	if got != "c/d" {
		t.Fatalf("resolve(a/b, ../c/./d) = %q, want c/d", got)
	}
}

func TestResolve_BareDotThrowsTypeError(t *testing.T) {
	_, err := resolve("a/b", ".")
	if !isTypeError(err) {
		t.Fatalf("expected a TypeError for requiring '.', got %v", err)
	}
}

func TestResolve_LeadingSlashThrowsTypeError(t *testing.T) {
	_, err := resolve("a/b", "/x")
	if !isTypeError(err) {
		t.Fatalf("expected a TypeError for requiring /x, got %v", err)
	}
}

func isTypeError(err error) bool {
	var de *duerrors.Error
	if !stderrors.As(err, &de) {
		return false
	}
	return de.Kind == duerrors.KindTypeError
}

type moduleMissingError struct{}

func (moduleMissingError) Error() string { return "not found" }

var errModuleMissing error = moduleMissingError{}

package builtins

import (
	"strings"
	"sync"

	"github.com/goduk/duk5/errors"
	"github.com/goduk/duk5/heap"
	"github.com/goduk/duk5/object"
)

// Loader resolves a module id to its ECMAScript source text and a
// canonical id used for caching (so "./a" and "./a.js" from the same
// directory resolve to one cache entry, the way Node's own resolver
// canonicalizes before caching). Returning an error means the module
// could not be found or read.
type Loader func(id string, fromID string) (canonicalID string, source string, err error)

// ModuleRegistry is duk5's `require` implementation: a name -> module
// cache with a pluggable Loader fallback on cache miss, compile-and-run
// handled by the caller (Registry only tracks identity and the
// `module.exports` object each id resolved to).
//
// Grounded on linker.Namespace / linker/internal/resolve.VirtualInstance's
// "resolve a requested name against a cache before falling back to a
// loader" idiom (resolve/virtual.go's Define/Get over an
// entities map keyed by name), generalized from WASM import names to
// CommonJS module ids. A module mid-load is tracked separately
// (loading) so a circular require returns the in-progress (possibly
// incomplete) exports object instead of recursing forever, matching
// Node's own documented circular-require behavior.
type ModuleRegistry struct {
	mu      sync.Mutex
	loader  Loader
	cache   map[string]*object.Object
	loading map[string]*object.Object
}

// NewModuleRegistry creates an empty registry backed by loader.
func NewModuleRegistry(loader Loader) *ModuleRegistry {
	return &ModuleRegistry{
		loader:  loader,
		cache:   make(map[string]*object.Object),
		loading: make(map[string]*object.Object),
	}
}

// Get returns the cached exports object for a canonical module id, or
// nil if it has never been loaded (and is not currently loading).
func (r *ModuleRegistry) Get(canonicalID string) *object.Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m, ok := r.cache[canonicalID]; ok {
		return m
	}
	return r.loading[canonicalID]
}

// Evaluator runs a module's source text against a freshly created
// `module.exports` object, returning the (possibly replaced) exports
// object. Supplied by the embedder so ModuleRegistry stays independent
// of the bytecode compiler/executor (both out of scope for this
// package per spec.md §1's lexer/compiler Non-goal).
type Evaluator func(h *heap.Heap, source, filename string, exports *object.Object) (*object.Object, error)

// resolve implements CommonJS module id resolution: a relative id (one
// beginning with ".") is resolved against fromID by splicing it in
// place of fromID's own last path component, the way a filesystem
// resolver replaces a file with a sibling; an absolute (non-relative)
// id passes through untouched. fromID == "" means there is no current
// module (a top-level require), matching mod_id == NULL in the
// original resolver.
//
// Grounded on duk_bi_global.c's duk__bi_global_resolve_module_id: "."
// terms are dropped, ".." pops the previous resolved term (erroring if
// there is nothing to pop), and any term beginning with "." other than
// exactly "." or ".." is rejected. A "." or ".." term must be followed
// by another term to be recognized at all, so one that lands last
// (nothing after it to apply it to) is also rejected — this is why
// requiring "." always throws rather than resolving to "the current
// directory".
func resolve(fromID, requestedID string) (string, error) {
	input := requestedID
	if fromID != "" && strings.HasPrefix(requestedID, ".") {
		input = fromID + "/../" + requestedID
	}

	if input == "" || strings.HasPrefix(input, "/") || strings.HasSuffix(input, "/") {
		return "", errors.New(errors.PhaseBuiltin, errors.KindTypeError).
			Detail("cannot resolve module id: %q", requestedID).Build()
	}

	terms := strings.FieldsFunc(input, func(r rune) bool { return r == '/' })

	var resolved []string
	for i, term := range terms {
		last := i == len(terms)-1
		switch {
		case !strings.HasPrefix(term, "."):
			resolved = append(resolved, term)
		case last:
			return "", errors.New(errors.PhaseBuiltin, errors.KindTypeError).
				Detail("cannot resolve module id: %q", requestedID).Build()
		case term == ".":
			// eaten entirely
		case term == "..":
			if len(resolved) == 0 {
				return "", errors.New(errors.PhaseBuiltin, errors.KindTypeError).
					Detail("cannot resolve module id: %q (nothing to backtrack)", requestedID).Build()
			}
			resolved = resolved[:len(resolved)-1]
		default:
			return "", errors.New(errors.PhaseBuiltin, errors.KindTypeError).
				Detail("cannot resolve module id: %q", requestedID).Build()
		}
	}

	return strings.Join(resolved, "/"), nil
}

// Require resolves id (relative to fromID, empty for a top-level
// require) via loader, evaluates it at most once, and returns its
// exports object. A require cycle returns the partially-populated
// exports object already registered for that id rather than
// re-entering evaluation.
func (r *ModuleRegistry) Require(h *heap.Heap, id, fromID string, eval Evaluator) (*object.Object, error) {
	r.mu.Lock()
	if r.loader == nil {
		r.mu.Unlock()
		return nil, errors.NotInitialized(errors.PhaseBuiltin, "module loader")
	}
	r.mu.Unlock()

	resolvedID, err := resolve(fromID, id)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if m, ok := r.cache[resolvedID]; ok {
		r.mu.Unlock()
		return m, nil
	}
	if m, ok := r.loading[resolvedID]; ok {
		r.mu.Unlock()
		return m, nil // circular require: hand back the in-progress exports
	}
	r.mu.Unlock()

	canonicalID, source, err := r.loader(resolvedID, fromID)
	if err != nil {
		return nil, errors.NotFound(errors.PhaseBuiltin, "module", id)
	}

	r.mu.Lock()
	if m, ok := r.cache[canonicalID]; ok {
		r.mu.Unlock()
		return m, nil
	}
	if m, ok := r.loading[canonicalID]; ok {
		r.mu.Unlock()
		return m, nil // circular require: hand back the in-progress exports
	}
	exports := object.New(h, object.ClassObject, nil)
	r.loading[canonicalID] = exports
	r.mu.Unlock()

	final, err := eval(h, source, canonicalID, exports)

	r.mu.Lock()
	delete(r.loading, canonicalID)
	if err != nil {
		r.mu.Unlock()
		return nil, errors.Wrap(errors.PhaseBuiltin, errors.KindInternal, err, "module evaluation failed: "+canonicalID)
	}
	r.cache[canonicalID] = final
	r.cache[resolvedID] = final
	r.mu.Unlock()

	return final, nil
}

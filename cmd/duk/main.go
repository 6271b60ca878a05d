// Command duk is the thin CLI front end over the duk5 runtime core,
// grounded on the teacher's cmd/run/main.go flag-based dispatch (and,
// for -i, cmd/run/interactive.go's bubbletea TUI). It is deliberately
// thin per spec.md §1's Non-goals ("CLI front-end internals beyond the
// thin wrapper"): the real work happens in heap/value/object/duthread/
// protect/api/builtins, this file only wires flags to them.
package main

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/goduk/duk5/api"
	"github.com/goduk/duk5/duthread"
	"github.com/goduk/duk5/heap"
	"github.com/goduk/duk5/protect"
	"github.com/goduk/duk5/value"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: duk [options] [<filenames>]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "   -i                 enter interactive mode after evaluating argument file(s)/code")
	fmt.Fprintln(os.Stderr, "   -e CODE            evaluate an expression")
	fmt.Fprintln(os.Stderr, "   --restrict-memory  use a lower heap memory budget")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "If <filename> is omitted and -e is not given, interactive mode starts automatically.")
}

func main() {
	var (
		evalCode    string
		haveEval    bool
		interactive bool
		restrict    bool
		files       []string
	)

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch arg := args[i]; {
		case arg == "--restrict-memory":
			restrict = true
		case arg == "-i":
			interactive = true
		case arg == "-e":
			if i == len(args)-1 {
				usage()
				os.Exit(1)
			}
			i++
			evalCode = args[i]
			haveEval = true
		case len(arg) > 0 && arg[0] == '-':
			usage()
			os.Exit(1)
		default:
			files = append(files, arg)
		}
	}

	if len(files) == 0 && !haveEval {
		interactive = true
	}

	var alloc heap.Allocator
	if restrict {
		alloc = newRestrictedAllocator(restrictedMemoryLimit)
	}

	h := heap.New(alloc, nil, heap.DefaultConfig())
	th := duthread.New(h)
	h.AddRoot(th)
	ctx := api.New(h, th)
	g := newGlobals(h)

	status := 0

	for _, f := range files {
		src, err := os.ReadFile(f)
		if err != nil {
			fmt.Fprintf(os.Stderr, "duk: %v\n", err)
			status = 1
			continue
		}
		if err := evalAndPrint(ctx, g, string(src)); err != nil {
			fmt.Fprintf(os.Stderr, "duk: %v\n", err)
			status = 1
		}
	}

	if haveEval {
		if err := evalAndPrint(ctx, g, evalCode); err != nil {
			fmt.Fprintf(os.Stderr, "duk: %v\n", err)
			status = 1
		}
	}

	if interactive && !term.IsTerminal(int(os.Stdin.Fd())) {
		fmt.Fprintln(os.Stderr, "duk: stdin is not a terminal, skipping interactive mode")
		interactive = false
	}

	if interactive {
		if err := runInteractive(ctx, g); err != nil {
			fmt.Fprintf(os.Stderr, "duk: %v\n", err)
			status = 1
		}
	}

	os.Exit(status)
}

// evalToString parses and evaluates src as a single expression inside a
// protected call (C9), so a thrown or malformed-input error is reported
// rather than crashing the process, matching the protected top-level
// call the original cmdline tool wraps file/eval execution in. The
// result is returned as its ToString representation; the stack is
// restored to its pre-evaluation depth either way.
func evalToString(ctx *api.Context, g *globals, src string) (string, error) {
	top := ctx.Thread().Top()
	result, err := protect.SafeCall(ctx.Heap(), ctx.Thread(), func() (value.Value, error) {
		r, err := newExprReader(ctx, g, src)
		if err != nil {
			return value.Undefined(), err
		}
		if err := r.Eval(); err != nil {
			return value.Undefined(), err
		}
		return ctx.Thread().Pop(), nil
	})
	ctx.Thread().SetTop(top)
	if err != nil {
		return "", err
	}
	return toGoString(ctx, result)
}

func evalAndPrint(ctx *api.Context, g *globals, src string) error {
	s, err := evalToString(ctx, g, src)
	if err != nil {
		return err
	}
	fmt.Println(s)
	return nil
}

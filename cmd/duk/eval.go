package main

// This file implements a tiny recursive-descent expression reader: the
// "thin wrapper" SPEC_FULL.md §1 allows in cmd/duk, standing in for the
// real ES5.1 lexer/compiler that is out of scope for the module itself
// (see DESIGN.md). It understands just enough of an expression grammar
// to exercise duk5's value/heap/object/api machinery end to end from the
// command line: numeric/string/boolean/null/undefined literals, the
// arithmetic and string-concatenation binary operators, unary minus, and
// calls into the small global function table registered in global.go.
//
// Grounded on the teacher's byte-level walk/classify/emit idiom
// (transcoder/encoder.go), already reused once for the URI codecs in
// builtins/uri.go: here the same idiom drives a scanner over source
// text instead of over binary payload bytes.

import (
	"strconv"
	"strings"

	"github.com/goduk/duk5/api"
	"github.com/goduk/duk5/errors"
	"github.com/goduk/duk5/heap"
	"github.com/goduk/duk5/value"
)

// isStringValue reports whether v holds an ECMAScript string primitive:
// TagObject but referencing a *heap.DukString rather than an
// *object.Object (the same distinction api.Context.ToObject draws).
func isStringValue(v value.Value) bool {
	if v.Tag != value.TagObject {
		return false
	}
	_, ok := v.Ref.(*heap.DukString)
	return ok
}

func toGoString(ctx *api.Context, v value.Value) (string, error) {
	sv, err := value.ToString(v, ctx.Heap().StringTable())
	if err != nil {
		return "", err
	}
	return string(sv.Ref.(*heap.DukString).Bytes()), nil
}

func toGoNumber(v value.Value) (float64, error) {
	return value.ToNumber(v)
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokNumber
	tokString
	tokIdent
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	num  float64
}

type scanner struct {
	src []byte
	pos int
}

func newScanner(src string) *scanner { return &scanner{src: []byte(src)} }

func (s *scanner) skipSpace() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\t', '\n', '\r':
			s.pos++
		default:
			return
		}
	}
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

// next scans and consumes the next token.
func (s *scanner) next() (token, error) {
	s.skipSpace()
	if s.pos >= len(s.src) {
		return token{kind: tokEOF}, nil
	}
	c := s.src[s.pos]

	switch {
	case isDigit(c):
		start := s.pos
		for s.pos < len(s.src) && (isDigit(s.src[s.pos]) || s.src[s.pos] == '.') {
			s.pos++
		}
		text := string(s.src[start:s.pos])
		n, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return token{}, errors.New(errors.PhaseCompile, errors.KindSyntaxError).
				Detail("invalid number literal: " + text).Build()
		}
		return token{kind: tokNumber, text: text, num: n}, nil

	case c == '"' || c == '\'':
		quote := c
		s.pos++
		var b strings.Builder
		for {
			if s.pos >= len(s.src) {
				return token{}, errors.New(errors.PhaseCompile, errors.KindSyntaxError).
					Detail("unterminated string literal").Build()
			}
			ch := s.src[s.pos]
			if ch == quote {
				s.pos++
				break
			}
			if ch == '\\' && s.pos+1 < len(s.src) {
				s.pos++
				switch s.src[s.pos] {
				case 'n':
					b.WriteByte('\n')
				case 't':
					b.WriteByte('\t')
				case 'r':
					b.WriteByte('\r')
				default:
					b.WriteByte(s.src[s.pos])
				}
				s.pos++
				continue
			}
			b.WriteByte(ch)
			s.pos++
		}
		return token{kind: tokString, text: b.String()}, nil

	case isIdentStart(c):
		start := s.pos
		for s.pos < len(s.src) && isIdentPart(s.src[s.pos]) {
			s.pos++
		}
		return token{kind: tokIdent, text: string(s.src[start:s.pos])}, nil

	case strings.ContainsRune("+-*/()," , rune(c)):
		s.pos++
		return token{kind: tokPunct, text: string(c)}, nil

	default:
		return token{}, errors.New(errors.PhaseCompile, errors.KindSyntaxError).
			Detail("unexpected character: " + string(c)).Build()
	}
}

// exprReader parses one full expression from a token stream with a
// single token of lookahead, pushing results directly onto the API
// context's value stack rather than building an AST: an expression
// evaluator has no need for one, and this keeps the demo's shape close
// to the stack-machine style the rest of the runtime already uses.
type exprReader struct {
	sc  *scanner
	cur token
	ctx *api.Context
	g   *globals
}

func newExprReader(ctx *api.Context, g *globals, src string) (*exprReader, error) {
	r := &exprReader{sc: newScanner(src), ctx: ctx, g: g}
	if err := r.advance(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *exprReader) advance() error {
	t, err := r.sc.next()
	if err != nil {
		return err
	}
	r.cur = t
	return nil
}

func (r *exprReader) expectPunct(p string) error {
	if r.cur.kind != tokPunct || r.cur.text != p {
		return errors.New(errors.PhaseCompile, errors.KindSyntaxError).
			Detail("expected '" + p + "'").Build()
	}
	return r.advance()
}

// Eval parses and evaluates the whole input as one expression, pushing
// its result as the single value on top of the context's stack.
func (r *exprReader) Eval() error {
	if err := r.parseAdditive(); err != nil {
		return err
	}
	if r.cur.kind != tokEOF {
		return errors.New(errors.PhaseCompile, errors.KindSyntaxError).
			Detail("unexpected trailing input").Build()
	}
	return nil
}

func (r *exprReader) parseAdditive() error {
	if err := r.parseMultiplicative(); err != nil {
		return err
	}
	for r.cur.kind == tokPunct && (r.cur.text == "+" || r.cur.text == "-") {
		op := r.cur.text
		if err := r.advance(); err != nil {
			return err
		}
		if err := r.parseMultiplicative(); err != nil {
			return err
		}
		if err := r.applyBinary(op); err != nil {
			return err
		}
	}
	return nil
}

func (r *exprReader) parseMultiplicative() error {
	if err := r.parseUnary(); err != nil {
		return err
	}
	for r.cur.kind == tokPunct && (r.cur.text == "*" || r.cur.text == "/") {
		op := r.cur.text
		if err := r.advance(); err != nil {
			return err
		}
		if err := r.parseUnary(); err != nil {
			return err
		}
		if err := r.applyBinary(op); err != nil {
			return err
		}
	}
	return nil
}

func (r *exprReader) parseUnary() error {
	if r.cur.kind == tokPunct && r.cur.text == "-" {
		if err := r.advance(); err != nil {
			return err
		}
		if err := r.parseUnary(); err != nil {
			return err
		}
		if err := r.ctx.ToNumber(-1); err != nil {
			return err
		}
		top := r.ctx.Thread().Pop()
		r.ctx.PushNumber(-top.Num)
		return nil
	}
	return r.parsePrimary()
}

// applyBinary pops the two top-of-stack operands (left below right) and
// pushes the result of applying op, following ES5.1 11.6's "either
// operand a string means string concatenation" rule for '+'.
func (r *exprReader) applyBinary(op string) error {
	th := r.ctx.Thread()
	right := th.Pop()
	left := th.Pop()

	if op == "+" && (isStringValue(left) || isStringValue(right)) {
		ls, err := toGoString(r.ctx, left)
		if err != nil {
			return err
		}
		rs, err := toGoString(r.ctx, right)
		if err != nil {
			return err
		}
		r.ctx.PushString(ls + rs)
		return nil
	}

	ln, err := toGoNumber(left)
	if err != nil {
		return err
	}
	rn, err := toGoNumber(right)
	if err != nil {
		return err
	}

	switch op {
	case "+":
		r.ctx.PushNumber(ln + rn)
	case "-":
		r.ctx.PushNumber(ln - rn)
	case "*":
		r.ctx.PushNumber(ln * rn)
	case "/":
		r.ctx.PushNumber(ln / rn)
	}
	return nil
}

func (r *exprReader) parsePrimary() error {
	switch {
	case r.cur.kind == tokNumber:
		r.ctx.PushNumber(r.cur.num)
		return r.advance()

	case r.cur.kind == tokString:
		r.ctx.PushString(r.cur.text)
		return r.advance()

	case r.cur.kind == tokPunct && r.cur.text == "(":
		if err := r.advance(); err != nil {
			return err
		}
		if err := r.parseAdditive(); err != nil {
			return err
		}
		return r.expectPunct(")")

	case r.cur.kind == tokIdent:
		name := r.cur.text
		if err := r.advance(); err != nil {
			return err
		}
		switch name {
		case "true":
			r.ctx.PushBoolean(true)
			return nil
		case "false":
			r.ctx.PushBoolean(false)
			return nil
		case "null":
			r.ctx.PushNull()
			return nil
		case "undefined":
			r.ctx.PushUndefined()
			return nil
		}
		if r.cur.kind == tokPunct && r.cur.text == "(" {
			return r.parseCall(name)
		}
		return errors.New(errors.PhaseCompile, errors.KindReferenceError).
			Detail(name + " is not defined").Build()

	default:
		return errors.New(errors.PhaseCompile, errors.KindSyntaxError).
			Detail("unexpected token").Build()
	}
}

// parseCall handles name(arg, arg, ...): it evaluates each argument
// left to right onto the stack and invokes the matching global through
// api.Context.Call, the same entry point a host embedder would use.
func (r *exprReader) parseCall(name string) error {
	fn, ok := r.g.lookup(name)
	if !ok {
		return errors.NotFound(errors.PhaseBuiltin, "function", name)
	}
	if err := r.advance(); err != nil { // consume '('
		return err
	}
	r.ctx.PushObject(fn)
	nargs := 0
	if !(r.cur.kind == tokPunct && r.cur.text == ")") {
		for {
			if err := r.parseAdditive(); err != nil {
				return err
			}
			nargs++
			if r.cur.kind == tokPunct && r.cur.text == "," {
				if err := r.advance(); err != nil {
					return err
				}
				continue
			}
			break
		}
	}
	if err := r.expectPunct(")"); err != nil {
		return err
	}
	return r.ctx.Call(nargs)
}

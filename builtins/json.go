package builtins

import (
	"strconv"
	"strings"

	"github.com/goduk/duk5/errors"
	"github.com/goduk/duk5/heap"
	"github.com/goduk/duk5/object"
	"github.com/goduk/duk5/value"
)

// JSONStringify implements a restricted JSON.stringify (ES5.1 15.12.3):
// only JSON-clean values round-trip (undefined, functions, and — once
// duk5 gains a Symbol type — symbols are not representable and are
// either skipped as an object property or serialized as the literal
// `null` in an array slot, per the spec's testable round-trip law).
// Grounded on the teacher's per-shape-kind dispatch over a
// CompiledType in transcoder/encoder.go: here the "shape kind" is an
// object's Class instead of a WIT type, walked the same
// one-function-per-kind way.
func JSONStringify(h *heap.Heap, v value.Value) (string, bool, error) {
	var b strings.Builder
	ok, err := stringifyValue(h, v, &b, make(map[*object.Object]bool))
	if err != nil {
		return "", false, err
	}
	return b.String(), ok, nil
}

func stringifyValue(h *heap.Heap, v value.Value, b *strings.Builder, seen map[*object.Object]bool) (bool, error) {
	switch {
	case v.IsUndefined():
		return false, nil
	case v.IsNull():
		b.WriteString("null")
		return true, nil
	case v.IsBoolean():
		if v.Bool() {
			b.WriteString("true")
		} else {
			b.WriteString("false")
		}
		return true, nil
	case v.IsNumber():
		n := v.Float()
		if n != n || n > 1.7976931348623157e+308 || n < -1.7976931348623157e+308 {
			b.WriteString("null") // NaN/Infinity serialize as null, ES5.1 15.12.3 step 4.d
			return true, nil
		}
		b.WriteString(value.NumberToString(n))
		return true, nil
	}

	if s, ok := v.Ref.(*heap.DukString); ok {
		writeJSONString(b, string(s.Bytes()))
		return true, nil
	}

	o, ok := v.Ref.(*object.Object)
	if !ok {
		return false, errors.Unsupported(errors.PhaseBuiltin, "value is not JSON-stringifiable")
	}
	if o.Class() == object.ClassFunction {
		return false, nil // functions are never JSON-representable
	}
	if seen[o] {
		return false, errors.InvalidData(errors.PhaseBuiltin, "converting circular structure to JSON")
	}
	seen[o] = true
	defer delete(seen, o)

	if o.Class() == object.ClassArray {
		return stringifyArray(h, o, b, seen)
	}
	return stringifyObject(h, o, b, seen)
}

func stringifyArray(h *heap.Heap, o *object.Object, b *strings.Builder, seen map[*object.Object]bool) (bool, error) {
	length := o.ArrayLength()
	b.WriteByte('[')
	for i := uint32(0); i < length; i++ {
		if i > 0 {
			b.WriteByte(',')
		}
		key := h.StringTable().Intern([]byte(strconv.FormatUint(uint64(i), 10)))
		elem, err := o.Get(key, value.Ref(o))
		if err != nil {
			return false, err
		}
		ok, err := stringifyValue(h, elem, b, seen)
		if err != nil {
			return false, err
		}
		if !ok {
			b.WriteString("null") // a hole or non-representable element serializes as null in an array
		}
	}
	b.WriteByte(']')
	return true, nil
}

func stringifyObject(h *heap.Heap, o *object.Object, b *strings.Builder, seen map[*object.Object]bool) (bool, error) {
	b.WriteByte('{')
	first := true
	err := o.EachOwnEnumerable(func(key *heap.DukString, v value.Value) error {
		return stringifyOneProperty(h, key, v, b, seen, &first)
	})
	if err != nil {
		return false, err
	}
	b.WriteByte('}')
	return true, nil
}

func stringifyOneProperty(h *heap.Heap, key *heap.DukString, v value.Value, b *strings.Builder, seen map[*object.Object]bool, first *bool) error {
	var tmp strings.Builder
	ok, err := stringifyValue(h, v, &tmp, seen)
	if err != nil {
		return err
	}
	if !ok {
		return nil // property value not representable: omitted, not `null`
	}
	if !*first {
		b.WriteByte(',')
	}
	*first = false
	writeJSONString(b, string(key.Bytes()))
	b.WriteByte(':')
	b.WriteString(tmp.String())
	return nil
}

func writeJSONString(b *strings.Builder, s string) {
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if r < 0x20 {
				b.WriteString(`\u`)
				hex := strconv.FormatInt(int64(r), 16)
				for i := len(hex); i < 4; i++ {
					b.WriteByte('0')
				}
				b.WriteString(hex)
			} else {
				b.WriteRune(r)
			}
		}
	}
	b.WriteByte('"')
}

// JSONParse implements a restricted JSON.parse (ES5.1 15.12.2): a
// hand-rolled recursive-descent reader matching the JSON grammar
// exactly (no reviver function — that belongs to a higher builtins
// layer that can call back into script, out of scope here), grounded
// on the same Encoder/Decoder pairing idiom as JSONStringify: this is
// JSONStringify's Decoder-shaped sibling, reading the wire form back
// into value.Value instead of writing it out.
func JSONParse(h *heap.Heap, src string) (value.Value, error) {
	p := &jsonParser{src: src}
	p.skipWS()
	v, err := p.parseValue(h)
	if err != nil {
		return value.Undefined(), err
	}
	p.skipWS()
	if p.pos != len(p.src) {
		return value.Undefined(), errors.InvalidData(errors.PhaseBuiltin, "unexpected trailing data in JSON text")
	}
	return v, nil
}

type jsonParser struct {
	src string
	pos int
}

func (p *jsonParser) skipWS() {
	for p.pos < len(p.src) {
		switch p.src[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *jsonParser) parseValue(h *heap.Heap) (value.Value, error) {
	if p.pos >= len(p.src) {
		return value.Undefined(), errors.InvalidData(errors.PhaseBuiltin, "unexpected end of JSON text")
	}
	switch c := p.src[p.pos]; {
	case c == '{':
		return p.parseObject(h)
	case c == '[':
		return p.parseArray(h)
	case c == '"':
		s, err := p.parseString()
		if err != nil {
			return value.Undefined(), err
		}
		return value.Ref(h.StringTable().Intern([]byte(s))), nil
	case c == 't':
		return p.parseLiteral("true", value.Bool(true))
	case c == 'f':
		return p.parseLiteral("false", value.Bool(false))
	case c == 'n':
		return p.parseLiteral("null", value.Null())
	case c == '-' || (c >= '0' && c <= '9'):
		return p.parseNumber()
	default:
		return value.Undefined(), errors.InvalidData(errors.PhaseBuiltin, "unexpected character in JSON text")
	}
}

func (p *jsonParser) parseLiteral(lit string, v value.Value) (value.Value, error) {
	if p.pos+len(lit) > len(p.src) || p.src[p.pos:p.pos+len(lit)] != lit {
		return value.Undefined(), errors.InvalidData(errors.PhaseBuiltin, "invalid JSON literal")
	}
	p.pos += len(lit)
	return v, nil
}

func (p *jsonParser) parseNumber() (value.Value, error) {
	start := p.pos
	if p.src[p.pos] == '-' {
		p.pos++
	}
	for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
		p.pos++
	}
	if p.pos < len(p.src) && p.src[p.pos] == '.' {
		p.pos++
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
	}
	if p.pos < len(p.src) && (p.src[p.pos] == 'e' || p.src[p.pos] == 'E') {
		p.pos++
		if p.pos < len(p.src) && (p.src[p.pos] == '+' || p.src[p.pos] == '-') {
			p.pos++
		}
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
	}
	n, err := strconv.ParseFloat(p.src[start:p.pos], 64)
	if err != nil {
		return value.Undefined(), errors.InvalidData(errors.PhaseBuiltin, "invalid JSON number")
	}
	return value.Number(n), nil
}

func (p *jsonParser) parseString() (string, error) {
	p.pos++ // opening quote
	var b strings.Builder
	for {
		if p.pos >= len(p.src) {
			return "", errors.InvalidData(errors.PhaseBuiltin, "unterminated JSON string")
		}
		c := p.src[p.pos]
		if c == '"' {
			p.pos++
			return b.String(), nil
		}
		if c == '\\' {
			p.pos++
			if p.pos >= len(p.src) {
				return "", errors.InvalidData(errors.PhaseBuiltin, "unterminated JSON escape")
			}
			switch p.src[p.pos] {
			case '"':
				b.WriteByte('"')
			case '\\':
				b.WriteByte('\\')
			case '/':
				b.WriteByte('/')
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			case 'r':
				b.WriteByte('\r')
			case 'b':
				b.WriteByte('\b')
			case 'f':
				b.WriteByte('\f')
			case 'u':
				if p.pos+4 >= len(p.src) {
					return "", errors.InvalidData(errors.PhaseBuiltin, "truncated \\u escape")
				}
				v, ok := hex4(p.src[p.pos+1 : p.pos+5])
				if !ok {
					return "", errors.InvalidData(errors.PhaseBuiltin, "invalid \\u escape")
				}
				b.WriteRune(rune(v))
				p.pos += 4
			default:
				return "", errors.InvalidData(errors.PhaseBuiltin, "invalid JSON escape")
			}
			p.pos++
			continue
		}
		b.WriteByte(c)
		p.pos++
	}
}

func (p *jsonParser) parseArray(h *heap.Heap) (value.Value, error) {
	p.pos++ // '['
	arr := object.New(h, object.ClassArray, nil)
	p.skipWS()
	idx := uint32(0)
	if p.pos < len(p.src) && p.src[p.pos] == ']' {
		p.pos++
		return value.Ref(arr), nil
	}
	for {
		p.skipWS()
		elem, err := p.parseValue(h)
		if err != nil {
			return value.Undefined(), err
		}
		key := h.StringTable().Intern([]byte(strconv.FormatUint(uint64(idx), 10)))
		if err := arr.Put(key, elem, value.Ref(arr), true); err != nil {
			return value.Undefined(), err
		}
		idx++
		p.skipWS()
		if p.pos >= len(p.src) {
			return value.Undefined(), errors.InvalidData(errors.PhaseBuiltin, "unterminated JSON array")
		}
		if p.src[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.src[p.pos] == ']' {
			p.pos++
			return value.Ref(arr), nil
		}
		return value.Undefined(), errors.InvalidData(errors.PhaseBuiltin, "expected ',' or ']' in JSON array")
	}
}

func (p *jsonParser) parseObject(h *heap.Heap) (value.Value, error) {
	p.pos++ // '{'
	obj := object.New(h, object.ClassObject, nil)
	p.skipWS()
	if p.pos < len(p.src) && p.src[p.pos] == '}' {
		p.pos++
		return value.Ref(obj), nil
	}
	for {
		p.skipWS()
		if p.pos >= len(p.src) || p.src[p.pos] != '"' {
			return value.Undefined(), errors.InvalidData(errors.PhaseBuiltin, "expected string key in JSON object")
		}
		key, err := p.parseString()
		if err != nil {
			return value.Undefined(), err
		}
		p.skipWS()
		if p.pos >= len(p.src) || p.src[p.pos] != ':' {
			return value.Undefined(), errors.InvalidData(errors.PhaseBuiltin, "expected ':' in JSON object")
		}
		p.pos++
		p.skipWS()
		v, err := p.parseValue(h)
		if err != nil {
			return value.Undefined(), err
		}
		if err := obj.Put(h.StringTable().Intern([]byte(key)), v, value.Ref(obj), true); err != nil {
			return value.Undefined(), err
		}
		p.skipWS()
		if p.pos >= len(p.src) {
			return value.Undefined(), errors.InvalidData(errors.PhaseBuiltin, "unterminated JSON object")
		}
		if p.src[p.pos] == ',' {
			p.pos++
			continue
		}
		if p.src[p.pos] == '}' {
			p.pos++
			return value.Ref(obj), nil
		}
		return value.Undefined(), errors.InvalidData(errors.PhaseBuiltin, "expected ',' or '}' in JSON object")
	}
}

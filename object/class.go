// Package object implements duk5's property store (C5): the dual-part
// array/sparse object representation, ES5.1 [[DefineOwnProperty]]
// semantics, and the compiled-function/environment-record sub-variants
// spec.md §3 and §4.3 describe.
package object

// Class is the internal [[Class]] tag ES5.1 8.6.2 attaches to every
// object, used by Object.prototype.toString and by a handful of
// built-ins that behave differently per class (Array.isArray, the
// RegExp/Date/Error constructors' own methods, ...).
type Class uint8

const (
	ClassObject Class = iota
	ClassArray
	ClassFunction
	ClassArguments
	ClassRegExp
	ClassString
	ClassNumber
	ClassBoolean
	ClassDate
	ClassError
	ClassJSON
	ClassMath
	ClassGlobal
)

func (c Class) String() string {
	switch c {
	case ClassObject:
		return "Object"
	case ClassArray:
		return "Array"
	case ClassFunction:
		return "Function"
	case ClassArguments:
		return "Arguments"
	case ClassRegExp:
		return "RegExp"
	case ClassString:
		return "String"
	case ClassNumber:
		return "Number"
	case ClassBoolean:
		return "Boolean"
	case ClassDate:
		return "Date"
	case ClassError:
		return "Error"
	case ClassJSON:
		return "JSON"
	case ClassMath:
		return "Math"
	case ClassGlobal:
		return "global"
	default:
		return "Object"
	}
}

// PropAttr holds the writable/enumerable/configurable/accessor bits
// ES5.1 8.6.1 attaches to every own property.
type PropAttr uint8

const (
	AttrWritable PropAttr = 1 << iota
	AttrEnumerable
	AttrConfigurable
	AttrAccessor
)

// AttrDefault is the attribute set ES5.1 assigns to a property created
// by a plain assignment ("writable, enumerable, configurable" all set,
// data not accessor).
const AttrDefault = AttrWritable | AttrEnumerable | AttrConfigurable

// Package value implements the canonical JSON value used for input records and
// split outputs: a tagged variant over null, bool, number, string, array and an
// insertion-ordered object.
package value

import (
	"strconv"
)

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// Kind identifies which variant a Value holds.
type Kind uint8

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a JSON value. The zero Value is null.
//
// Numbers keep their literal text so that values such as DynamoDB numbers or
// large integers are emitted exactly as they were received.
type Value struct {
	kind Kind
	b    bool
	s    string // string content or number literal
	arr  []Value
	obj  *Object
}

func Null() Value {
	return Value{}
}

func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Number wraps a JSON number literal. The literal is not validated; use
// ParseNumber for untrusted input.
func Number(literal string) Value {
	return Value{kind: KindNumber, s: literal}
}

// ParseNumber validates literal against the JSON number grammar.
func ParseNumber(literal string) (Value, bool) {
	if !validNumber(literal) {
		return Value{}, false
	}
	return Number(literal), true
}

func Int(n int64) Value {
	return Number(strconv.FormatInt(n, 10))
}

func Float(f float64) Value {
	return Number(strconv.FormatFloat(f, 'g', -1, 64))
}

func String(s string) Value {
	return Value{kind: KindString, s: s}
}

// Array builds an array value. The slice is retained, not copied.
func Array(items ...Value) Value {
	if items == nil {
		items = []Value{}
	}
	return Value{kind: KindArray, arr: items}
}

// FromObject wraps o; a nil object becomes an empty object.
func FromObject(o *Object) Value {
	if o == nil {
		o = NewObject()
	}
	return Value{kind: KindObject, obj: o}
}

func (v Value) Kind() Kind {
	return v.kind
}

func (v Value) IsNull() bool {
	return v.kind == KindNull
}

func (v Value) AsBool() (bool, bool) {
	return v.b, v.kind == KindBool
}

func (v Value) AsString() (string, bool) {
	return v.s, v.kind == KindString
}

// AsNumber returns the number literal.
func (v Value) AsNumber() (string, bool) {
	return v.s, v.kind == KindNumber
}

func (v Value) Float64() (float64, bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	f, err := strconv.ParseFloat(v.s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// Items returns the elements of an array value. Callers must not modify the
// returned slice.
func (v Value) Items() ([]Value, bool) {
	return v.arr, v.kind == KindArray
}

// Object returns the object of an object value, or nil.
func (v Value) Object() *Object {
	if v.kind != KindObject {
		return nil
	}
	return v.obj
}

// Len reports the number of elements of an array or members of an object.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.arr)
	case KindObject:
		return v.obj.Len()
	case KindString:
		return len(v.s)
	default:
		return 0
	}
}

// String renders v as compact JSON.
func (v Value) String() string {
	return string(v.AppendJSON(nil))
}

func validNumber(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}
	if i >= len(s) {
		return false
	}

	switch {
	case s[i] == '0':
		i++
	case s[i] >= '1' && s[i] <= '9':
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	default:
		return false
	}

	if i < len(s) && s[i] == '.' {
		i++
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return false
		}
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		start := i
		for i < len(s) && isDigit(s[i]) {
			i++
		}
		if i == start {
			return false
		}
	}

	return i == len(s)
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

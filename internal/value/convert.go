package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"
)

// ErrUnsupportedType indicates a Go value that has no JSON equivalent.
var ErrUnsupportedType = errors.New("value: unsupported type")

// Any converts v to the representation produced by encoding/json with
// UseNumber: map[string]any, []any, json.Number, string, bool and nil.
func (v Value) Any() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return json.Number(v.s)
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.Any()
		}
		return out
	case KindObject:
		out := make(map[string]any, v.obj.Len())
		for k, member := range v.obj.All() {
			out[k] = member.Any()
		}
		return out
	default:
		return nil
	}
}

// FromAny converts decoded Go data into a Value. Map keys are sorted since Go
// maps carry no order.
func FromAny(x any) (Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case *Object:
		return FromObject(t), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		n, ok := ParseNumber(string(t))
		if !ok {
			return Value{}, fmt.Errorf("%w: invalid number %q", ErrUnsupportedType, t)
		}
		return n, nil
	case int:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case float64:
		return Float(t), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			converted, err := FromAny(item)
			if err != nil {
				return Value{}, err
			}
			items[i] = converted
		}
		return Array(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		slices.Sort(keys)

		obj := NewObjectWithCapacity(len(keys))
		for _, k := range keys {
			converted, err := FromAny(t[k])
			if err != nil {
				return Value{}, err
			}
			obj.Set(k, converted)
		}
		return FromObject(obj), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedType, x)
	}
}

// MarshalYAML renders objects as ordered mappings.
func (v Value) MarshalYAML() (any, error) {
	return v.yamlValue(), nil
}

func (v Value) yamlValue() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return yamlNumber(v.s)
	case KindString:
		return v.s
	case KindArray:
		out := make([]any, len(v.arr))
		for i, item := range v.arr {
			out[i] = item.yamlValue()
		}
		return out
	case KindObject:
		out := make(yaml.MapSlice, 0, v.obj.Len())
		for k, member := range v.obj.All() {
			out = append(out, yaml.MapItem{Key: k, Value: member.yamlValue()})
		}
		return out
	default:
		return nil
	}
}

func yamlNumber(literal string) any {
	if n, err := strconv.ParseInt(literal, 10, 64); err == nil {
		return n
	}
	if n, err := strconv.ParseUint(literal, 10, 64); err == nil {
		return n
	}
	if strings.ContainsAny(literal, ".eE") {
		if f, err := strconv.ParseFloat(literal, 64); err == nil {
			return f
		}
	}
	// integers wider than 64 bits keep their text
	return literal
}

// Equal reports deep equality. Numbers are equal when their literals match or
// they parse to the same float64.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}

	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindString:
		return a.s == b.s
	case KindNumber:
		if a.s == b.s {
			return true
		}
		fa, okA := a.Float64()
		fb, okB := b.Float64()
		return okA && okB && fa == fb
	case KindArray:
		if len(a.arr) != len(b.arr) {
			return false
		}
		for i := range a.arr {
			if !Equal(a.arr[i], b.arr[i]) {
				return false
			}
		}
		return true
	case KindObject:
		if a.obj.Len() != b.obj.Len() {
			return false
		}
		for k, av := range a.obj.All() {
			bv, ok := b.obj.Get(k)
			if !ok || !Equal(av, bv) {
				return false
			}
		}
		return true
	}
	return false
}

// EqualOrdered is Equal that also requires object members in the same order.
func EqualOrdered(a, b Value) bool {
	if !Equal(a, b) {
		return false
	}

	switch a.kind {
	case KindArray:
		for i := range a.arr {
			if !EqualOrdered(a.arr[i], b.arr[i]) {
				return false
			}
		}
	case KindObject:
		if !slices.Equal(a.obj.keys, b.obj.keys) {
			return false
		}
		for i := range a.obj.vals {
			if !EqualOrdered(a.obj.vals[i], b.obj.vals[i]) {
				return false
			}
		}
	}
	return true
}

package value

import (
	"iter"
	"slices"
)

// Object is a string-keyed map that remembers insertion order.
// Keys are unique; setting an existing key replaces its value in place.
type Object struct {
	keys  []string
	vals  []Value
	index map[string]int
}

func NewObject() *Object {
	return &Object{index: make(map[string]int)}
}

// NewObjectWithCapacity preallocates room for n members.
func NewObjectWithCapacity(n int) *Object {
	return &Object{
		keys:  make([]string, 0, n),
		vals:  make([]Value, 0, n),
		index: make(map[string]int, n),
	}
}

func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

func (o *Object) Get(key string) (Value, bool) {
	if o == nil {
		return Value{}, false
	}
	i, ok := o.index[key]
	if !ok {
		return Value{}, false
	}
	return o.vals[i], true
}

// Set appends key, or overwrites its value keeping the original position.
func (o *Object) Set(key string, v Value) {
	if i, ok := o.index[key]; ok {
		o.vals[i] = v
		return
	}
	o.index[key] = len(o.keys)
	o.keys = append(o.keys, key)
	o.vals = append(o.vals, v)
}

// Keys returns a copy of the keys in insertion order.
func (o *Object) Keys() []string {
	if o == nil {
		return nil
	}
	return slices.Clone(o.keys)
}

// All iterates members in insertion order.
func (o *Object) All() iter.Seq2[string, Value] {
	return func(yield func(string, Value) bool) {
		if o == nil {
			return
		}
		for i, k := range o.keys {
			if !yield(k, o.vals[i]) {
				return
			}
		}
	}
}

// Clone returns a shallow copy; member values are shared.
func (o *Object) Clone() *Object {
	c := NewObjectWithCapacity(o.Len())
	for k, v := range o.All() {
		c.Set(k, v)
	}
	return c
}

// Merge copies every member of src onto dst in src order.
// Members of src win on key collision.
func Merge(dst, src *Object) {
	for k, v := range src.All() {
		dst.Set(k, v)
	}
}

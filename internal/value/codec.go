package value

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"

	"github.com/jacoelho/eventsplit/internal/stack"
)

var (
	// ErrMalformed indicates the JSON input is structurally invalid.
	ErrMalformed = errors.New("value: malformed JSON")

	// ErrTrailingData indicates extra content after the first JSON value.
	ErrTrailingData = errors.New("value: trailing data after JSON value")
)

const (
	frameObject frameKind = iota
	frameArray
)

type frameKind uint8

// frame tracks an open container while decoding.
type frame struct {
	kind    frameKind
	obj     *Object
	arr     []Value
	key     string
	needKey bool
}

func (f *frame) add(v Value) {
	if f.kind == frameArray {
		f.arr = append(f.arr, v)
		return
	}
	f.obj.Set(f.key, v)
	f.needKey = true
}

func (f *frame) value() Value {
	if f.kind == frameArray {
		return Array(f.arr...)
	}
	return FromObject(f.obj)
}

// Decoder reads a stream of JSON values, keeping object member order.
type Decoder struct {
	dec *gojson.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	return &Decoder{dec: dec}
}

// Decode reads the next value. It returns io.EOF when the stream is exhausted.
// Duplicate keys keep their first position and the last value.
func (d *Decoder) Decode() (Value, error) {
	frames := stack.NewWithCapacity[frame](8)

	for {
		tok, err := d.dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) && !frames.IsEmpty() {
				return Value{}, fmt.Errorf("%w: unexpected end of input", ErrMalformed)
			}
			if errors.Is(err, io.EOF) {
				return Value{}, io.EOF
			}
			return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}

		top := frames.PeekRef()

		if s, ok := tok.(string); ok && top != nil && top.kind == frameObject && top.needKey {
			top.key = s
			top.needKey = false
			continue
		}

		if delim, ok := tok.(gojson.Delim); ok && (delim == '}' || delim == ']') {
			if top == nil {
				return Value{}, fmt.Errorf("%w: unexpected %q", ErrMalformed, rune(delim))
			}
			if (delim == '}') != (top.kind == frameObject) || (top.kind == frameObject && !top.needKey) {
				return Value{}, fmt.Errorf("%w: mismatched %q", ErrMalformed, rune(delim))
			}
			closed, _ := frames.Pop()
			v := closed.value()
			if frames.IsEmpty() {
				return v, nil
			}
			frames.PeekRef().add(v)
			continue
		}

		if top != nil && top.kind == frameObject && top.needKey {
			return Value{}, fmt.Errorf("%w: object key must be a string", ErrMalformed)
		}

		var v Value
		switch t := tok.(type) {
		case gojson.Delim:
			switch t {
			case '{':
				frames.Push(frame{kind: frameObject, obj: NewObject(), needKey: true})
				continue
			case '[':
				frames.Push(frame{kind: frameArray, arr: []Value{}})
				continue
			default:
				return Value{}, fmt.Errorf("%w: unexpected delimiter %q", ErrMalformed, rune(t))
			}
		case string:
			v = String(t)
		case gojson.Number:
			v = Number(string(t))
		case float64:
			v = Float(t)
		case bool:
			v = Bool(t)
		case nil:
			v = Null()
		default:
			return Value{}, fmt.Errorf("%w: unexpected token %T", ErrMalformed, tok)
		}

		if top == nil {
			return v, nil
		}
		top.add(v)
	}
}

// Decode reads exactly one JSON value from r.
func Decode(r io.Reader) (Value, error) {
	d := NewDecoder(r)
	v, err := d.Decode()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, fmt.Errorf("%w: empty input", ErrMalformed)
		}
		return Value{}, err
	}

	if _, err := d.dec.Token(); !errors.Is(err, io.EOF) {
		if err != nil {
			return Value{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return Value{}, ErrTrailingData
	}

	return v, nil
}

func DecodeBytes(data []byte) (Value, error) {
	return Decode(bytes.NewReader(data))
}

func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeBytes(data)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func (v Value) MarshalJSON() ([]byte, error) {
	return v.AppendJSON(nil), nil
}

func (o *Object) MarshalJSON() ([]byte, error) {
	return FromObject(o).AppendJSON(nil), nil
}

// AppendJSON appends the compact JSON encoding of v to dst.
func (v Value) AppendJSON(dst []byte) []byte {
	switch v.kind {
	case KindBool:
		if v.b {
			return append(dst, "true"...)
		}
		return append(dst, "false"...)
	case KindNumber:
		return append(dst, v.s...)
	case KindString:
		return appendString(dst, v.s)
	case KindArray:
		dst = append(dst, '[')
		for i, item := range v.arr {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = item.AppendJSON(dst)
		}
		return append(dst, ']')
	case KindObject:
		dst = append(dst, '{')
		i := 0
		for k, member := range v.obj.All() {
			if i > 0 {
				dst = append(dst, ',')
			}
			dst = appendString(dst, k)
			dst = append(dst, ':')
			dst = member.AppendJSON(dst)
			i++
		}
		return append(dst, '}')
	default:
		return append(dst, "null"...)
	}
}

func appendString(dst []byte, s string) []byte {
	encoded, err := gojson.Marshal(s)
	if err != nil {
		// strings always encode; invalid UTF-8 is replaced by the encoder
		return append(dst, `""`...)
	}
	return append(dst, encoded...)
}

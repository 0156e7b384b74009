// Package normalize turns source envelopes into canonical records.
package normalize

import (
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"

	"github.com/jacoelho/eventsplit/internal/batch"
	"github.com/jacoelho/eventsplit/internal/value"
)

// ErrUnknownImage indicates an image name other than NewImage or OldImage.
var ErrUnknownImage = errors.New("unknown stream image")

// Image selects which item image of a stream record is normalized.
type Image string

const (
	NewImage Image = "NewImage"
	OldImage Image = "OldImage"
)

// ParseImage accepts NewImage or OldImage; empty means NewImage.
func ParseImage(s string) (Image, error) {
	switch Image(s) {
	case "", NewImage:
		return NewImage, nil
	case OldImage:
		return OldImage, nil
	default:
		return "", fmt.Errorf("%w: %q (want %s or %s)", ErrUnknownImage, s, NewImage, OldImage)
	}
}

// DynamoDB attribute type tags.
const (
	tagString    = "S"
	tagNumber    = "N"
	tagBinary    = "B"
	tagBool      = "BOOL"
	tagNull      = "NULL"
	tagMap       = "M"
	tagList      = "L"
	tagStringSet = "SS"
	tagNumberSet = "NS"
	tagBinarySet = "BS"
)

// DynamoDB normalizes DynamoDB stream records. Attribute order of the image is
// kept as it appears on the wire.
type DynamoDB struct {
	Image Image
}

// Normalize returns the unmarshalled image, or an empty object when the
// envelope has no usable image.
func (d DynamoDB) Normalize(env batch.Envelope) value.Value {
	record, ok := decodeObject(env)
	if !ok {
		return value.FromObject(nil)
	}

	change, _ := record.Get("dynamodb")
	image, _ := change.Object().Get(string(d.image()))

	return Unmarshal(image)
}

func (d DynamoDB) image() Image {
	if d.Image == "" {
		return NewImage
	}
	return d.Image
}

// Unmarshal converts a DynamoDB attribute map into a plain object. Attributes
// with unknown or malformed type descriptors are skipped.
func Unmarshal(item value.Value) value.Value {
	attrs := item.Object()
	out := value.NewObjectWithCapacity(attrs.Len())

	for name, av := range attrs.All() {
		if v, ok := attribute(av); ok {
			out.Set(name, v)
		}
	}

	return value.FromObject(out)
}

// attribute converts one typed attribute value such as {"S":"x"}.
func attribute(av value.Value) (value.Value, bool) {
	desc := av.Object()
	if desc.Len() != 1 {
		return value.Value{}, false
	}

	tag := desc.Keys()[0]
	raw, _ := desc.Get(tag)
	return typed(tag, raw)
}

func typed(tag string, raw value.Value) (value.Value, bool) {
	switch tag {
	case tagString, tagBinary:
		if _, ok := raw.AsString(); !ok {
			return value.Value{}, false
		}
		return raw, true
	case tagNumber:
		return number(raw)
	case tagBool:
		if _, ok := raw.AsBool(); !ok {
			return value.Value{}, false
		}
		return raw, true
	case tagNull:
		return value.Null(), true
	case tagMap:
		if raw.Kind() != value.KindObject {
			return value.Value{}, false
		}
		return Unmarshal(raw), true
	case tagList:
		items, ok := raw.Items()
		if !ok {
			return value.Value{}, false
		}
		out := make([]value.Value, 0, len(items))
		for _, item := range items {
			if v, ok := attribute(item); ok {
				out = append(out, v)
			}
		}
		return value.Array(out...), true
	case tagStringSet, tagBinarySet:
		return set(raw, func(v value.Value) (value.Value, bool) {
			_, ok := v.AsString()
			return v, ok
		})
	case tagNumberSet:
		return set(raw, number)
	default:
		return value.Value{}, false
	}
}

// number accepts the string form used on the wire and bare JSON numbers.
func number(raw value.Value) (value.Value, bool) {
	if s, ok := raw.AsString(); ok {
		return value.ParseNumber(s)
	}
	if raw.Kind() == value.KindNumber {
		return raw, true
	}
	return value.Value{}, false
}

func set(raw value.Value, member func(value.Value) (value.Value, bool)) (value.Value, bool) {
	items, ok := raw.Items()
	if !ok {
		return value.Value{}, false
	}
	out := make([]value.Value, 0, len(items))
	for _, item := range items {
		if v, ok := member(item); ok {
			out = append(out, v)
		}
	}
	return value.Array(out...), true
}

// EventName returns the change kind of a stream record.
func EventName(env batch.Envelope) (events.DynamoDBOperationType, bool) {
	record, ok := decodeObject(env)
	if !ok {
		return "", false
	}

	name, ok := record.Get("eventName")
	if !ok {
		return "", false
	}
	s, ok := name.AsString()
	if !ok {
		return "", false
	}
	return events.DynamoDBOperationType(s), true
}

// ParseOperationType validates a change kind name.
func ParseOperationType(s string) (events.DynamoDBOperationType, error) {
	switch op := events.DynamoDBOperationType(s); op {
	case events.DynamoDBOperationTypeInsert, events.DynamoDBOperationTypeModify, events.DynamoDBOperationTypeRemove:
		return op, nil
	default:
		return "", fmt.Errorf("unknown event name %q (want %s, %s or %s)", s,
			events.DynamoDBOperationTypeInsert, events.DynamoDBOperationTypeModify, events.DynamoDBOperationTypeRemove)
	}
}

func decodeObject(env batch.Envelope) (*value.Object, bool) {
	if len(env) == 0 {
		return nil, false
	}
	v, err := value.DecodeBytes(env)
	if err != nil {
		return nil, false
	}
	obj := v.Object()
	return obj, obj != nil
}

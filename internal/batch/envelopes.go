package batch

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"
)

// ErrInvalidBatch indicates a payload that is not a recognised batch shape.
var ErrInvalidBatch = errors.New("invalid batch payload")

// ParseEnvelopes splits an invocation payload into envelopes. Accepted shapes
// are a JSON array of records (pipe enrichment), an object with a Records
// array (stream event source), and newline-delimited records.
func ParseEnvelopes(payload []byte) ([]Envelope, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 {
		return []Envelope{}, nil
	}

	switch trimmed[0] {
	case '[':
		var records []gojson.RawMessage
		if err := gojson.Unmarshal(trimmed, &records); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
		}
		return toEnvelopes(records), nil
	case '{':
		return parseObjects(trimmed)
	default:
		return nil, fmt.Errorf("%w: expected JSON array or object, got %q", ErrInvalidBatch, trimmed[0])
	}
}

// parseObjects handles a single stream event or a sequence of records.
func parseObjects(data []byte) ([]Envelope, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))

	var records []gojson.RawMessage
	for {
		var raw gojson.RawMessage
		err := dec.Decode(&raw)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrInvalidBatch, len(records), err)
		}
		records = append(records, raw)
	}

	if len(records) == 1 {
		return parseStreamEvent(records[0])
	}

	return toEnvelopes(records), nil
}

// parseStreamEvent unwraps {"Records":[...]}. An object without a Records key
// is a single record; a Records key holding anything but an array is invalid.
func parseStreamEvent(record gojson.RawMessage) ([]Envelope, error) {
	var members map[string]gojson.RawMessage
	if err := gojson.Unmarshal(record, &members); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}

	raw, ok := members["Records"]
	if !ok {
		return []Envelope{Envelope(record)}, nil
	}

	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return nil, fmt.Errorf("%w: Records must be an array", ErrInvalidBatch)
	}

	var records []gojson.RawMessage
	if err := gojson.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBatch, err)
	}
	return toEnvelopes(records), nil
}

func toEnvelopes(records []gojson.RawMessage) []Envelope {
	out := make([]Envelope, len(records))
	for i, r := range records {
		out[i] = Envelope(r)
	}
	return out
}

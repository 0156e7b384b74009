// Package batch runs the normalizer and splitter over every record of an
// invocation batch and concatenates the outputs in order.
package batch

import (
	"context"

	"github.com/jacoelho/eventsplit/internal/pathexpr"
	"github.com/jacoelho/eventsplit/internal/splitter"
	"github.com/jacoelho/eventsplit/internal/value"
)

// Envelope is the raw JSON of one source record as delivered by the host.
type Envelope []byte

// Normalizer converts a source-specific envelope into a canonical record.
// Implementations return an empty object for missing or unusable payloads
// instead of failing.
type Normalizer interface {
	Normalize(env Envelope) value.Value
}

// NormalizerFunc adapts a function to the Normalizer interface.
type NormalizerFunc func(env Envelope) value.Value

func (f NormalizerFunc) Normalize(env Envelope) value.Value {
	return f(env)
}

// Stats summarises one processed batch.
type Stats struct {
	Records     int
	Outputs     int
	EmptySplits int // records that produced no output
}

// Processor applies a Normalizer and a Splitter to whole batches.
type Processor struct {
	splitter   *splitter.Splitter
	normalizer Normalizer
}

func NewProcessor(s *splitter.Splitter, n Normalizer) *Processor {
	return &Processor{splitter: s, normalizer: n}
}

// Process returns the concatenated outputs of every envelope, preserving batch
// order and then split order. It never fails: records that yield nothing
// contribute nothing.
func (p *Processor) Process(ctx context.Context, envelopes []Envelope) []value.Value {
	out, _ := p.ProcessWithStats(ctx, envelopes)
	return out
}

func (p *Processor) ProcessWithStats(ctx context.Context, envelopes []Envelope) ([]value.Value, Stats) {
	out := make([]value.Value, 0, len(envelopes))
	stats := Stats{Records: len(envelopes)}

	for _, env := range envelopes {
		record := p.normalizer.Normalize(env)
		parts := p.splitter.Split(ctx, record)
		if len(parts) == 0 {
			stats.EmptySplits++
		}
		out = append(out, parts...)
	}

	stats.Outputs = len(out)
	return out, stats
}

// Process is the stateless form of Processor.Process.
func Process(envelopes []Envelope, normalizer Normalizer, splitPath *pathexpr.Path, spec splitter.Spec) []value.Value {
	out := make([]value.Value, 0, len(envelopes))
	for _, env := range envelopes {
		out = append(out, splitter.Split(normalizer.Normalize(env), splitPath, spec)...)
	}
	return out
}

// Package handler adapts the batch processor to a single host invocation.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jacoelho/eventsplit/internal/batch"
	"github.com/jacoelho/eventsplit/internal/config"
	"github.com/jacoelho/eventsplit/internal/logging"
	"github.com/jacoelho/eventsplit/internal/normalize"
	"github.com/jacoelho/eventsplit/internal/splitter"
	"github.com/jacoelho/eventsplit/internal/value"
)

const (
	tracerName = "github.com/jacoelho/eventsplit/internal/handler"
	spanName   = "eventsplit.process"
)

// Flusher exports buffered telemetry before the host freezes the process.
type Flusher interface {
	Flush(ctx context.Context) error
}

type Option func(*Handler)

func WithLogger(logger *slog.Logger) Option {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(h *Handler) {
		if tp != nil {
			h.tracer = tp.Tracer(tracerName)
		}
	}
}

// WithNormalizer replaces the DynamoDB stream normalizer.
func WithNormalizer(n batch.Normalizer) Option {
	return func(h *Handler) {
		if n != nil {
			h.normalizer = n
		}
	}
}

// WithFlusher flushes f after every invocation.
func WithFlusher(f Flusher) Option {
	return func(h *Handler) {
		h.flusher = f
	}
}

// Handler processes one batch per call. It is safe for concurrent use.
type Handler struct {
	settings   *config.Settings
	normalizer batch.Normalizer
	processor  *batch.Processor
	logger     *slog.Logger
	tracer     trace.Tracer
	flusher    Flusher
	newID      func() string
}

func New(settings *config.Settings, opts ...Option) *Handler {
	h := &Handler{
		settings:   settings,
		normalizer: normalize.DynamoDB{Image: settings.Image},
		logger:     logging.Discard(),
		tracer:     otel.Tracer(tracerName),
		newID:      uuid.NewString,
	}

	for _, opt := range opts {
		opt(h)
	}

	s := splitter.New(settings.SplitPath, settings.Spec, h.logger)
	h.processor = batch.NewProcessor(s, h.normalizer)

	return h
}

// Handle accepts a pipe batch (JSON array of records) or a stream event
// ({"Records":[...]}) and returns the outputs of every record in order.
// Only a payload of the wrong shape is an error; per-record problems yield no
// outputs for that record.
func (h *Handler) Handle(ctx context.Context, payload json.RawMessage) ([]value.Value, error) {
	out, err := h.process(ctx, payload)

	if h.flusher != nil {
		if ferr := h.flusher.Flush(ctx); ferr != nil {
			h.logger.WarnContext(ctx, "telemetry flush failed", "error", ferr)
		}
	}

	return out, err
}

func (h *Handler) process(ctx context.Context, payload json.RawMessage) ([]value.Value, error) {
	id := h.newID()

	ctx, span := h.tracer.Start(ctx, spanName,
		trace.WithAttributes(
			attribute.String("eventsplit.invocation_id", id),
			attribute.String("eventsplit.split_path", h.settings.SplitPath.String()),
		),
	)
	defer span.End()

	envelopes, err := batch.ParseEnvelopes(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		h.logger.ErrorContext(ctx, "rejected batch", "invocation_id", id, "error", err)
		return nil, fmt.Errorf("invocation %s: %w", id, err)
	}

	accepted := h.filter(envelopes)
	out, stats := h.processor.ProcessWithStats(ctx, accepted)

	span.SetAttributes(
		attribute.Int("eventsplit.records", len(envelopes)),
		attribute.Int("eventsplit.filtered", len(envelopes)-len(accepted)),
		attribute.Int("eventsplit.outputs", stats.Outputs),
		attribute.Int("eventsplit.empty_splits", stats.EmptySplits),
	)

	h.logger.InfoContext(ctx, "processed batch",
		"invocation_id", id,
		"records", len(envelopes),
		"filtered", len(envelopes)-len(accepted),
		"outputs", stats.Outputs,
		"empty_splits", stats.EmptySplits,
	)

	return out, nil
}

// filter drops records whose change kind is not accepted. Records without a
// change kind are dropped while a filter is configured.
func (h *Handler) filter(envelopes []batch.Envelope) []batch.Envelope {
	if len(h.settings.EventNames) == 0 {
		return envelopes
	}

	out := make([]batch.Envelope, 0, len(envelopes))
	for _, env := range envelopes {
		name, ok := normalize.EventName(env)
		if ok && h.settings.AcceptsEvent(name) {
			out = append(out, env)
		}
	}
	return out
}

// Package splitter fans one record out into one output per element of a
// selected array, copying a fixed set of propagated fields into every output.
package splitter

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/jacoelho/eventsplit/internal/logging"
	"github.com/jacoelho/eventsplit/internal/pathexpr"
	"github.com/jacoelho/eventsplit/internal/value"
)

// Spec lists the fields copied into every split item. Each field is stored
// under Prefix followed by the property name its path resolves to.
type Spec struct {
	Paths  []*pathexpr.Path
	Prefix string
}

// PathStrings returns the source expressions of the propagate paths.
func (s Spec) PathStrings() []string {
	out := make([]string, len(s.Paths))
	for i, p := range s.Paths {
		out[i] = p.String()
	}
	return out
}

// CommonFields resolves every propagate path against record. Paths that match
// nothing, or whose final segment is not a named property, are skipped. When
// two paths produce the same field name the later one wins.
//
// A path matching several locations propagates an array of all matched values
// under the name of the first match.
func CommonFields(record value.Value, spec Spec) *value.Object {
	common := value.NewObjectWithCapacity(len(spec.Paths))

	for _, p := range spec.Paths {
		name, ok := p.PropertyName(record)
		if !ok {
			continue
		}

		values := p.Select(record)
		switch len(values) {
		case 0:
			continue
		case 1:
			common.Set(spec.Prefix+name, values[0])
		default:
			common.Set(spec.Prefix+name, value.Array(values...))
		}
	}

	return common
}

// Items resolves the split collection. A single match must be an array and its
// elements are the items, except that a multi-select path (wildcard, slice,
// union or descendant) matching one non-array value yields that value as the
// only item. Several matches are the items themselves.
func Items(record value.Value, splitPath *pathexpr.Path) []value.Value {
	matches := splitPath.Select(record)

	switch len(matches) {
	case 0:
		return nil
	case 1:
		if items, ok := matches[0].Items(); ok {
			return items
		}
		if splitPath.MultiSelect() {
			return matches
		}
		return nil
	default:
		return matches
	}
}

// Split produces one output per split item, in item order. Each output is the
// item's own members followed by the common fields; common fields overwrite
// same-named item members.
func Split(record value.Value, splitPath *pathexpr.Path, spec Spec) []value.Value {
	items := Items(record, splitPath)
	if len(items) == 0 {
		return []value.Value{}
	}

	common := CommonFields(record, spec)

	out := make([]value.Value, len(items))
	for i, item := range items {
		merged := base(item, common.Len())
		value.Merge(merged, common)
		out[i] = value.FromObject(merged)
	}

	return out
}

// base copies the members of item into a new object. Arrays spread into
// index-keyed members and strings into one member per rune; other scalars
// contribute nothing.
func base(item value.Value, extra int) *value.Object {
	switch item.Kind() {
	case value.KindObject:
		src := item.Object()
		obj := value.NewObjectWithCapacity(src.Len() + extra)
		value.Merge(obj, src)
		return obj
	case value.KindArray:
		elems, _ := item.Items()
		obj := value.NewObjectWithCapacity(len(elems) + extra)
		for i, elem := range elems {
			obj.Set(strconv.Itoa(i), elem)
		}
		return obj
	case value.KindString:
		s, _ := item.AsString()
		obj := value.NewObjectWithCapacity(len(s) + extra)
		i := 0
		for _, r := range s {
			obj.Set(strconv.Itoa(i), value.String(string(r)))
			i++
		}
		return obj
	default:
		return value.NewObjectWithCapacity(extra)
	}
}

// Splitter applies a fixed split path and propagation spec. It holds no
// mutable state and is safe for concurrent use.
type Splitter struct {
	splitPath *pathexpr.Path
	spec      Spec
	logger    *slog.Logger
}

// New returns a Splitter; a nil logger discards diagnostics.
func New(splitPath *pathexpr.Path, spec Spec, logger *slog.Logger) *Splitter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Splitter{
		splitPath: splitPath,
		spec:      spec,
		logger:    logger,
	}
}

func (s *Splitter) SplitPath() *pathexpr.Path {
	return s.splitPath
}

// Split splits record and logs the configuration and result at debug level.
func (s *Splitter) Split(ctx context.Context, record value.Value) []value.Value {
	out := Split(record, s.splitPath, s.spec)

	if s.logger.Enabled(ctx, slog.LevelDebug) {
		s.logger.DebugContext(ctx, "split record",
			slog.String("split_path", s.splitPath.String()),
			slog.Any("propagate", s.spec.PathStrings()),
			slog.String("prefix", s.spec.Prefix),
			slog.Int("outputs", len(out)),
			slog.String("result", value.Array(out...).String()),
		)
	}

	return out
}

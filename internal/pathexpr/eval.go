package pathexpr

import (
	"slices"

	"github.com/jacoelho/eventsplit/internal/value"
)

// Path is a compiled expression. It is immutable and safe for concurrent use.
type Path struct {
	expr string
	segs []segment
}

// String returns the expression the path was compiled from.
func (p *Path) String() string {
	return p.expr
}

// Locate returns every match in document order.
func (p *Path) Locate(root value.Value) []Match {
	var matches []Match
	loc := make(Location, 0, len(p.segs))

	p.walk(root, 0, loc, func(m Match) {
		matches = append(matches, m)
	})

	return matches
}

// Select returns the matched values in document order; empty when nothing matches.
func (p *Path) Select(root value.Value) []value.Value {
	matches := p.Locate(root)
	values := make([]value.Value, len(matches))
	for i, m := range matches {
		values[i] = m.Value
	}
	return values
}

// Single unwraps a result of exactly one match. Zero or several matches report
// false; a matched null is returned as a present null.
func (p *Path) Single(root value.Value) (value.Value, bool) {
	values := p.Select(root)
	if len(values) != 1 {
		return value.Value{}, false
	}
	return values[0], true
}

// PropertyName returns the member name of the first match when the final
// segment selects named members. Index and wildcard segments have no name.
func (p *Path) PropertyName(root value.Value) (string, bool) {
	if !p.Named() {
		return "", false
	}

	matches := p.Locate(root)
	if len(matches) == 0 {
		return "", false
	}

	return matches[0].Location.PropertyName()
}

// Named reports whether the final segment consists only of name selectors.
func (p *Path) Named() bool {
	if len(p.segs) == 0 {
		return false
	}

	last := p.segs[len(p.segs)-1]
	for _, sel := range last.sels {
		if _, ok := sel.(nameSel); !ok {
			return false
		}
	}
	return len(last.sels) > 0
}

// MultiSelect reports whether the path may produce more than one match:
// it contains a wildcard, slice, union or descendant segment.
func (p *Path) MultiSelect() bool {
	return slices.ContainsFunc(p.segs, func(seg segment) bool {
		if seg.deep || len(seg.sels) > 1 {
			return true
		}
		switch seg.sels[0].(type) {
		case wildcardSel, sliceSel:
			return true
		}
		return false
	})
}

// walk applies segment segIdx to node. loc is shared along the current branch
// and copied when a match is emitted.
func (p *Path) walk(node value.Value, segIdx int, loc Location, emit func(Match)) {
	if segIdx == len(p.segs) {
		emit(Match{Location: slices.Clone(loc), Value: node})
		return
	}

	seg := p.segs[segIdx]
	if seg.deep {
		p.walkDeep(node, seg, segIdx, loc, emit)
		return
	}

	for _, sel := range seg.sels {
		sel.selectFrom(node, func(step Step, child value.Value) {
			p.walk(child, segIdx+1, append(loc, step), emit)
		})
	}
}

// walkDeep applies a descendant segment to node and then to each of its
// descendants, visiting parents before children.
func (p *Path) walkDeep(node value.Value, seg segment, segIdx int, loc Location, emit func(Match)) {
	for _, sel := range seg.sels {
		sel.selectFrom(node, func(step Step, child value.Value) {
			p.walk(child, segIdx+1, append(loc, step), emit)
		})
	}

	wildcardSel{}.selectFrom(node, func(step Step, child value.Value) {
		p.walkDeep(child, seg, segIdx, append(loc, step), emit)
	})
}

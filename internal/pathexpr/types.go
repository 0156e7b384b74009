package pathexpr

import (
	"strconv"
	"strings"

	"github.com/jacoelho/eventsplit/internal/value"
)

// visitFunc receives each child selected from a node together with the step
// that reached it.
type visitFunc func(step Step, child value.Value)

// selector picks children of a single node.
type selector interface {
	selectFrom(node value.Value, visit visitFunc)
}

type segment struct {
	deep bool       // true for '..' descendant segment
	sels []selector // union of selectors, applied in order
}

type (
	nameSel     string
	wildcardSel struct{}
	indexSel    int
)

type sliceSel struct {
	start, end, step int
	hasEnd           bool
}

func (n nameSel) selectFrom(node value.Value, visit visitFunc) {
	obj := node.Object()
	if obj == nil {
		return
	}
	if child, ok := obj.Get(string(n)); ok {
		visit(Step{Name: string(n)}, child)
	}
}

func (wildcardSel) selectFrom(node value.Value, visit visitFunc) {
	switch node.Kind() {
	case value.KindObject:
		for k, child := range node.Object().All() {
			visit(Step{Name: k}, child)
		}
	case value.KindArray:
		items, _ := node.Items()
		for i, child := range items {
			visit(Step{Index: i, IsIndex: true}, child)
		}
	}
}

func (i indexSel) selectFrom(node value.Value, visit visitFunc) {
	items, ok := node.Items()
	if !ok {
		return
	}
	idx := int(i)
	if idx < len(items) {
		visit(Step{Index: idx, IsIndex: true}, items[idx])
	}
}

func (s sliceSel) selectFrom(node value.Value, visit visitFunc) {
	items, ok := node.Items()
	if !ok {
		return
	}

	end := len(items)
	if s.hasEnd {
		end = min(s.end, len(items))
	}

	for i := s.start; i < end; i += s.step {
		visit(Step{Index: i, IsIndex: true}, items[i])
	}
}

// Step is one element of a resolved location: an object member name or an
// array index.
type Step struct {
	Name    string
	Index   int
	IsIndex bool
}

// Location addresses a matched node from the root.
type Location []Step

// String renders the location as `$.name[0]`, bracket-quoting names that are
// not plain identifiers.
func (l Location) String() string {
	var b strings.Builder
	b.WriteByte('$')
	for _, step := range l {
		switch {
		case step.IsIndex:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(step.Index))
			b.WriteByte(']')
		case plainName(step.Name):
			b.WriteByte('.')
			b.WriteString(step.Name)
		default:
			b.WriteString("['")
			b.WriteString(strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(step.Name))
			b.WriteString("']")
		}
	}
	return b.String()
}

// PropertyName returns the member name of the last step, if it is a name.
func (l Location) PropertyName() (string, bool) {
	if len(l) == 0 {
		return "", false
	}
	last := l[len(l)-1]
	if last.IsIndex {
		return "", false
	}
	return last.Name, true
}

// Match is a value found by a path together with where it was found.
type Match struct {
	Location Location
	Value    value.Value
}

func plainName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !idRune(name[i]) {
			return false
		}
	}
	return true
}

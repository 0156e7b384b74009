package splitter

import (
	"bytes"
	"context"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/jacoelho/eventsplit/internal/pathexpr"
	"github.com/jacoelho/eventsplit/internal/value"
)

func decode(t *testing.T, input string) value.Value {
	t.Helper()
	v, err := value.DecodeBytes([]byte(input))
	if err != nil {
		t.Fatalf("decode %s: %v", input, err)
	}
	return v
}

func spec(prefix string, paths ...string) Spec {
	s := Spec{Prefix: prefix}
	for _, p := range paths {
		s.Paths = append(s.Paths, pathexpr.MustCompile(p))
	}
	return s
}

func render(values []value.Value) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = v.String()
	}
	return out
}

func TestSplit(t *testing.T) {
	const order = `{"id":"o1","userId":"u1","tickets":[{"seat":"A1"},{"seat":"A2"}]}`

	tests := []struct {
		name      string
		record    string
		splitPath string
		spec      Spec
		expect    []string
	}{
		{
			name:      "propagates_common_fields",
			record:    order,
			splitPath: "$.tickets",
			spec:      spec("common_", "$.id", "$.userId"),
			expect: []string{
				`{"seat":"A1","common_id":"o1","common_userId":"u1"}`,
				`{"seat":"A2","common_id":"o1","common_userId":"u1"}`,
			},
		},
		{
			name:      "string_item_spreads_per_rune",
			record:    `{"id":"o1","tickets":["aé😀"]}`,
			splitPath: "$.tickets",
			spec:      spec("c_", "$.id"),
			expect: []string{
				`{"0":"a","1":"é","2":"😀","c_id":"o1"}`,
			},
		},
		{
			name:      "split_field_absent",
			record:    `{"id":"o1","userId":"u1"}`,
			splitPath: "$.tickets",
			spec:      spec("common_", "$.id", "$.userId"),
			expect:    []string{},
		},
		{
			name:      "missing_propagate_field_is_omitted",
			record:    order,
			splitPath: "$.tickets",
			spec:      spec("common_", "$.missing", "$.id"),
			expect: []string{
				`{"seat":"A1","common_id":"o1"}`,
				`{"seat":"A2","common_id":"o1"}`,
			},
		},
		{
			name:      "common_field_overwrites_item_field",
			record:    `{"id":"o1","tickets":[{"id":"t1","seat":"A1"},{"seat":"A2"}]}`,
			splitPath: "$.tickets",
			spec:      spec("", "$.id"),
			expect: []string{
				`{"id":"o1","seat":"A1"}`,
				`{"seat":"A2","id":"o1"}`,
			},
		},
		{
			name:      "split_path_not_array",
			record:    `{"id":"o1","tickets":{"seat":"A1"}}`,
			splitPath: "$.tickets",
			spec:      spec("common_", "$.id"),
			expect:    []string{},
		},
		{
			name:      "empty_array",
			record:    `{"id":"o1","tickets":[]}`,
			splitPath: "$.tickets",
			spec:      spec("common_", "$.id"),
			expect:    []string{},
		},
		{
			name:      "no_propagation",
			record:    order,
			splitPath: "$.tickets",
			spec:      Spec{},
			expect:    []string{`{"seat":"A1"}`, `{"seat":"A2"}`},
		},
		{
			name:      "nested_propagate_path",
			record:    `{"order":{"ref":{"code":"X9"}},"lines":[{"sku":"a"}]}`,
			splitPath: "$.lines",
			spec:      spec("p_", "$.order.ref.code"),
			expect:    []string{`{"sku":"a","p_code":"X9"}`},
		},
		{
			name:      "propagated_object_and_null_values",
			record:    `{"meta":{"a":1},"note":null,"lines":[{"sku":"a"}]}`,
			splitPath: "$.lines",
			spec:      spec("c_", "$.meta", "$.note"),
			expect:    []string{`{"sku":"a","c_meta":{"a":1},"c_note":null}`},
		},
		{
			name:      "index_propagate_path_is_dropped",
			record:    `{"codes":["x","y"],"lines":[{"sku":"a"}]}`,
			splitPath: "$.lines",
			spec:      spec("c_", "$.codes[0]"),
			expect:    []string{`{"sku":"a"}`},
		},
		{
			name:      "duplicate_field_name_last_wins",
			record:    `{"id":"o1","ref":{"id":"r1"},"lines":[{"sku":"a"}]}`,
			splitPath: "$.lines",
			spec:      spec("c_", "$.id", "$.ref.id"),
			expect:    []string{`{"sku":"a","c_id":"r1"}`},
		},
		{
			name:      "multi_match_propagates_array",
			record:    `{"lines":[{"sku":"a"},{"sku":"b"}]}`,
			splitPath: "$.lines",
			spec:      spec("all_", "$.lines[*].sku"),
			expect: []string{
				`{"sku":"a","all_sku":["a","b"]}`,
				`{"sku":"b","all_sku":["a","b"]}`,
			},
		},
		{
			name:      "wildcard_split_path",
			record:    order,
			splitPath: "$.tickets[*]",
			spec:      spec("common_", "$.id"),
			expect: []string{
				`{"seat":"A1","common_id":"o1"}`,
				`{"seat":"A2","common_id":"o1"}`,
			},
		},
		{
			name:      "wildcard_split_path_single_element",
			record:    `{"id":"o1","tickets":[{"seat":"A1"}]}`,
			splitPath: "$.tickets[*]",
			spec:      spec("common_", "$.id"),
			expect:    []string{`{"seat":"A1","common_id":"o1"}`},
		},
		{
			name:      "descendant_split_path",
			record:    `{"id":"o1","orders":{"tickets":[{"seat":"A1"},{"seat":"B1"}]}}`,
			splitPath: "$..tickets",
			spec:      spec("common_", "$.id"),
			expect: []string{
				`{"seat":"A1","common_id":"o1"}`,
				`{"seat":"B1","common_id":"o1"}`,
			},
		},
		{
			name:      "scalar_items",
			record:    `{"id":"o1","codes":[7,"ab",null,["x"]]}`,
			splitPath: "$.codes",
			spec:      spec("c_", "$.id"),
			expect: []string{
				`{"c_id":"o1"}`,
				`{"0":"a","1":"b","c_id":"o1"}`,
				`{"c_id":"o1"}`,
				`{"0":"x","c_id":"o1"}`,
			},
		},
		{
			name:      "empty_record",
			record:    `{}`,
			splitPath: "$.tickets",
			spec:      spec("common_", "$.id"),
			expect:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record := decode(t, tt.record)
			got := render(Split(record, pathexpr.MustCompile(tt.splitPath), tt.spec))
			if !reflect.DeepEqual(got, tt.expect) {
				t.Errorf("Split() = %v, want %v", got, tt.expect)
			}
		})
	}
}

func TestSplitCountMatchesArrayLength(t *testing.T) {
	for _, n := range []int{0, 1, 2, 17} {
		items := make([]value.Value, n)
		for i := range items {
			o := value.NewObject()
			o.Set("n", value.Int(int64(i)))
			items[i] = value.FromObject(o)
		}

		record := value.NewObject()
		record.Set("id", value.String("o1"))
		record.Set("items", value.Array(items...))

		out := Split(value.FromObject(record), pathexpr.MustCompile("$.items"), spec("c_", "$.id"))
		if len(out) != n {
			t.Fatalf("Split() returned %d outputs for %d items", len(out), n)
		}

		for i, v := range out {
			got, _ := v.Object().Get("n")
			if !value.Equal(got, value.Int(int64(i))) {
				t.Errorf("output %d derived from item %s", i, got)
			}
			id, _ := v.Object().Get("c_id")
			if s, _ := id.AsString(); s != "o1" {
				t.Errorf("output %d c_id = %s, want o1", i, id)
			}
		}
	}
}

func TestSplitDoesNotMutateRecord(t *testing.T) {
	record := decode(t, `{"id":"o1","tickets":[{"seat":"A1","id":"t1"}]}`)
	before := record.String()

	_ = Split(record, pathexpr.MustCompile("$.tickets"), spec("", "$.id"))

	if after := record.String(); after != before {
		t.Errorf("record changed: before %s, after %s", before, after)
	}
}

func TestCommonFields(t *testing.T) {
	record := decode(t, `{"id":"o1","userId":"u1","tags":["a"]}`)

	common := CommonFields(record, spec("x_", "$.userId", "$.missing", "$.id", "$.tags[0]"))

	if got := common.Keys(); !reflect.DeepEqual(got, []string{"x_userId", "x_id"}) {
		t.Errorf("CommonFields() keys = %v, want [x_userId x_id]", got)
	}
}

func TestSplitterLogsAtDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	s := New(pathexpr.MustCompile("$.tickets"), spec("common_", "$.id"), logger)
	out := s.Split(context.Background(), decode(t, `{"id":"o1","tickets":[{"seat":"A1"}]}`))

	if len(out) != 1 {
		t.Fatalf("Split() returned %d outputs, want 1", len(out))
	}

	line := buf.String()
	for _, want := range []string{`"split_path":"$.tickets"`, `"prefix":"common_"`, `"outputs":1`, `common_id`} {
		if !strings.Contains(line, want) {
			t.Errorf("log line missing %s: %s", want, line)
		}
	}
}

func TestSplitterNilLogger(t *testing.T) {
	s := New(pathexpr.MustCompile("$.tickets"), Spec{}, nil)
	out := s.Split(context.Background(), decode(t, `{"tickets":[{"a":1}]}`))
	if len(out) != 1 {
		t.Errorf("Split() returned %d outputs, want 1", len(out))
	}
	if s.SplitPath().String() != "$.tickets" {
		t.Errorf("SplitPath() = %s", s.SplitPath())
	}
}

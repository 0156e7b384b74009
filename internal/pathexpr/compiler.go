package pathexpr

import (
	"fmt"
	"strconv"
	"strings"
)

// Compile parses expr into an immutable Path.
func Compile(expr string) (*Path, error) {
	normalized, err := normalizeExpression(expr)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, err)
	}

	segs, err := compile(normalized)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, err)
	}

	return &Path{expr: strings.TrimSpace(expr), segs: segs}, nil
}

// MustCompile is Compile for expressions known to be valid; it panics otherwise.
func MustCompile(expr string) *Path {
	p, err := Compile(expr)
	if err != nil {
		panic(err)
	}
	return p
}

// normalizeExpression anchors relative expressions such as `tickets` or
// `[0].id` at the root.
func normalizeExpression(expr string) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "", fmt.Errorf("%w: expression cannot be empty", ErrSyntax)
	}

	switch {
	case expr[0] == '$':
		if len(expr) > 1 && expr[1] != '.' && expr[1] != '[' {
			return "", fmt.Errorf("%w: expression must start with '$', '$.', or '$['", ErrSyntax)
		}
		return expr, nil
	case expr[0] == '[':
		return "$" + expr, nil
	case idRune(expr[0]):
		return "$." + expr, nil
	default:
		return "", fmt.Errorf("%w: unexpected token '%c' at start of expression", ErrSyntax, expr[0])
	}
}

func compile(expr string) ([]segment, error) {
	i := 1 // after '$'
	var segs []segment

	for i < len(expr) {
		seg, next, err := parseSegment(expr, i)
		if err != nil {
			return nil, err
		}
		segs = append(segs, seg)
		i = next
	}

	return segs, nil
}

func parseSegment(expr string, i int) (segment, int, error) {
	switch expr[i] {
	case '.':
		return parseDotSegment(expr, i)
	case '[':
		return parseBracketSegment(expr, i)
	default:
		return segment{}, i, fmt.Errorf("%w: unexpected token '%c' at position %d, expected '.' or '['", ErrSyntax, expr[i], i)
	}
}

func parseDotSegment(expr string, i int) (segment, int, error) {
	seg := segment{}

	if i+1 < len(expr) && expr[i+1] == '.' {
		seg.deep = true
		i += 2
	} else {
		i++
	}

	if i >= len(expr) {
		return segment{}, i, fmt.Errorf("%w: path segment cannot end with '.' or '..'", ErrSyntax)
	}

	switch {
	case expr[i] == '*':
		seg.sels = append(seg.sels, wildcardSel{})
		return seg, i + 1, nil
	case expr[i] == '[' && seg.deep:
		bracket, next, err := parseBracketSegment(expr, i)
		if err != nil {
			return segment{}, next, err
		}
		bracket.deep = true
		return bracket, next, nil
	}

	name, next, err := parseName(expr, i)
	if err != nil {
		return segment{}, i, err
	}
	seg.sels = append(seg.sels, nameSel(name))
	return seg, next, nil
}

func parseName(expr string, i int) (string, int, error) {
	start := i
	for i < len(expr) && idRune(expr[i]) {
		i++
	}
	if start == i {
		return "", i, fmt.Errorf("%w: name selector cannot be empty after '.'", ErrSyntax)
	}
	return expr[start:i], i, nil
}

func parseBracketSegment(expr string, i int) (segment, int, error) {
	end := findClosingBracket(expr, i)
	if end == -1 {
		return segment{}, i, fmt.Errorf("%w: unterminated bracket selector, missing ']' for content starting at '%s'", ErrSyntax, expr[i:])
	}

	content := strings.TrimSpace(expr[i+1 : end])
	next := end + 1

	if content == "" {
		return segment{}, next, fmt.Errorf("%w: empty bracket selector '[]'", ErrSyntax)
	}
	if content[0] == '?' {
		return segment{}, next, fmt.Errorf("%w: filter expression '[%s]'", ErrNotSupported, content)
	}
	if content[0] == '(' {
		return segment{}, next, fmt.Errorf("%w: script expression '[%s]'", ErrNotSupported, content)
	}

	seg := segment{}
	for _, part := range splitUnion(content) {
		sel, err := parseUnionPart(part)
		if err != nil {
			return segment{}, next, err
		}
		seg.sels = append(seg.sels, sel)
	}

	return seg, next, nil
}

func parseUnionPart(part string) (selector, error) {
	p := strings.TrimSpace(part)
	if p == "" {
		return nil, fmt.Errorf("%w: empty part in union selector", ErrSyntax)
	}

	if p == "*" {
		return wildcardSel{}, nil
	}

	if isQuoted(p) {
		name, err := unquote(p)
		if err != nil {
			return nil, err
		}
		return nameSel(name), nil
	}

	if strings.Contains(p, ":") {
		return parseSlice(p)
	}

	idx, err := strconv.Atoi(p)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid content '%s' in bracket selector", ErrSyntax, p)
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: negative array index (%d)", ErrNotSupported, idx)
	}
	return indexSel(idx), nil
}

func isQuoted(s string) bool {
	return len(s) >= 2 && (s[0] == '\'' || s[0] == '"') && s[len(s)-1] == s[0]
}

func unquote(s string) (string, error) {
	body := s[1 : len(s)-1]
	if !strings.ContainsRune(body, '\\') {
		return body, nil
	}

	var b strings.Builder
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		i++
		if i >= len(body) {
			return "", fmt.Errorf("%w: dangling escape in %s", ErrSyntax, s)
		}
		switch body[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		default:
			b.WriteByte(body[i])
		}
	}
	return b.String(), nil
}

func parseSlice(p string) (selector, error) {
	bounds := strings.Split(p, ":")
	if len(bounds) > 3 {
		return nil, fmt.Errorf("%w: too many colons in slice '%s'", ErrSyntax, p)
	}

	s := sliceSel{step: 1}

	if err := parseSliceBound(&s.start, bounds[0], "start", p); err != nil {
		return nil, err
	}

	if strings.TrimSpace(bounds[1]) != "" {
		if err := parseSliceBound(&s.end, bounds[1], "end", p); err != nil {
			return nil, err
		}
		s.hasEnd = true
	}

	if len(bounds) == 3 {
		if err := parseSliceBound(&s.step, bounds[2], "step", p); err != nil {
			return nil, err
		}
		if s.step == 0 {
			return nil, fmt.Errorf("%w: slice step cannot be zero in '%s'", ErrSyntax, p)
		}
	}

	if s.start < 0 || s.end < 0 || s.step < 0 {
		return nil, fmt.Errorf("%w: negative slice bounds in '%s'", ErrNotSupported, p)
	}

	return s, nil
}

func parseSliceBound(target *int, raw, boundType, fullSlice string) error {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}

	v, err := strconv.Atoi(trimmed)
	if err != nil {
		return fmt.Errorf("%w: slice %s '%s' in '%s' is not a number", ErrSyntax, boundType, trimmed, fullSlice)
	}

	*target = v
	return nil
}

// findClosingBracket returns the index of the ']' matching the '[' at start,
// skipping brackets inside quoted names.
func findClosingBracket(expr string, start int) int {
	var quote byte

	for i := start + 1; i < len(expr); i++ {
		c := expr[i]

		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}

		switch c {
		case '\'', '"':
			quote = c
		case ']':
			return i
		}
	}

	return -1
}

// splitUnion splits bracket content on commas outside quoted names.
func splitUnion(content string) []string {
	var parts []string
	var quote byte
	start := 0

	for i := 0; i < len(content); i++ {
		c := content[i]

		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}

		switch c {
		case '\'', '"':
			quote = c
		case ',':
			parts = append(parts, content[start:i])
			start = i + 1
		}
	}

	return append(parts, content[start:])
}

// idRune reports whether b may appear in an unquoted name after '.'.
// Bytes of multi-byte UTF-8 sequences are accepted so non-ASCII names work.
func idRune(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z') || (b >= '0' && b <= '9') || b == '_' || b == '-' || b >= 0x80
}

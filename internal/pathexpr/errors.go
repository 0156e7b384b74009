package pathexpr

import "errors"

var (
	// ErrSyntax indicates a path expression syntax error during compilation.
	ErrSyntax = errors.New("pathexpr: syntax error")

	// ErrNotSupported indicates valid JSONPath syntax outside the supported subset.
	ErrNotSupported = errors.New("pathexpr: feature not supported")
)

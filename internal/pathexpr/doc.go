// Package pathexpr compiles JSONPath-style expressions once and evaluates them
// against value.Value trees.
//
// Supported syntax (RFC 9535 terminology):
//   - Root `$`; a leading name without `$` is read relative to the root
//   - Child `.name`, `['name']`, `["name"]`
//   - Array index `[n]`, slices `[start:end:step]` with non-negative bounds and step
//   - Wildcard `.*` and `[*]`, unions `[a,'b',2]`
//   - Descendant segments `..name`, `..*`, `..[n]`
//
// Filters, script expressions and negative indices raise ErrNotSupported at
// compile time. Evaluation never mutates the queried value and never fails:
// a path that finds nothing yields no matches.
package pathexpr

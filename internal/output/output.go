// Package output encodes split results for the command line.
package output

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	gojson "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"

	"github.com/jacoelho/eventsplit/internal/value"
)

var ErrInvalidFormat = errors.New("--format must be one of: json, ndjson, yaml")

// Format determines how results are printed.
type Format string

const (
	FormatJSON   Format = "json"
	FormatNDJSON Format = "ndjson"
	FormatYAML   Format = "yaml"
)

// ParseFormat accepts json, ndjson or yaml. Empty means json.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatNDJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("%w, got: %s", ErrInvalidFormat, s)
	}
}

// Write encodes values to w in the given format.
func Write(w io.Writer, format Format, values []value.Value) error {
	switch format {
	case FormatJSON, "":
		return writeJSON(w, values)
	case FormatNDJSON:
		return writeNDJSON(w, values)
	case FormatYAML:
		return writeYAML(w, values)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

func writeJSON(w io.Writer, values []value.Value) error {
	compact := value.Array(values...).AppendJSON(nil)

	var buf bytes.Buffer
	if err := gojson.Indent(&buf, compact, "", "  "); err != nil {
		return fmt.Errorf("indent output: %w", err)
	}
	buf.WriteByte('\n')

	_, err := buf.WriteTo(w)
	return err
}

func writeNDJSON(w io.Writer, values []value.Value) error {
	bw := bufio.NewWriter(w)

	var line []byte
	for _, v := range values {
		line = v.AppendJSON(line[:0])
		line = append(line, '\n')
		if _, err := bw.Write(line); err != nil {
			return err
		}
	}

	return bw.Flush()
}

func writeYAML(w io.Writer, values []value.Value) error {
	if len(values) == 0 {
		_, err := io.WriteString(w, "[]\n")
		return err
	}

	doc, err := value.Array(values...).MarshalYAML()
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}

	_, err = w.Write(data)
	return err
}

package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/jacoelho/eventsplit/internal/exit"
	"github.com/jacoelho/eventsplit/internal/output"
)

var (
	ErrNoArguments   = errors.New("no arguments provided")
	ErrInvalidSource = errors.New("--source must be one of: dynamodb, json")
	ErrTooManyInputs = errors.New("at most one input file may be given")
)

// Source selects how input records are normalized.
type Source string

const (
	SourceDynamoDB Source = "dynamodb"
	SourceJSON     Source = "json"
)

// CLI is the configuration of the eventsplit command.
type CLI struct {
	Config

	ConfigFile string
	Source     Source
	Format     output.Format
	Input      string // empty or "-" reads stdin
}

// ParseArgs builds the command configuration. Precedence, lowest first:
// defaults, environment, --config file, flags.
// If parsing fails or help is requested, returns nil config and exit result.
func ParseArgs(args []string) (*CLI, *exit.Result) {
	if len(args) == 0 {
		return nil, exit.Errorf("Error: %v\n\n%s", ErrNoArguments, Usage())
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.Usage = func() {}
	fs.SetOutput(io.Discard)

	var (
		configFile = fs.String("config", "", "Path to YAML configuration file")
		split      = fs.String("split", "", "Path expression selecting the items to split")
		propagate  = fs.String("propagate", "", "Path expressions to copy into every part, ;-separated")
		prefix     = fs.String("prefix", "", "Prefix for propagated field names")
		image      = fs.String("image", "", "Stream image to read: NewImage or OldImage")
		eventNames = fs.String("event-names", "", "Comma-separated change kinds to accept")
		source     = fs.String("source", string(SourceDynamoDB), "Input record shape: dynamodb or json")
		format     = fs.String("format", string(output.FormatJSON), "Output format: json, ndjson or yaml")
		logLevel   = fs.String("log-level", "", "Log level: debug, info, warn or error")
		logFormat  = fs.String("log-format", "", "Log format: json or text")
	)

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, exit.Success(Usage())
		}
		return nil, exit.Errorf("Error: failed to parse arguments: %v\n\n%s", err, Usage())
	}

	if fs.NArg() > 1 {
		return nil, exit.Errorf("Error: %v\n\n%s", ErrTooManyInputs, Usage())
	}

	base, err := FromEnv()
	if err != nil {
		return nil, exit.Errorf("Error: %v", err)
	}

	if *configFile != "" {
		if err := base.LoadFile(*configFile); err != nil {
			return nil, exit.Errorf("Error: %v", err)
		}
	}

	// Only flags given on the command line override lower layers.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "split":
			base.SplitPath = *split
		case "propagate":
			base.Propagate = ParsePathList(*propagate)
		case "prefix":
			base.Prefix = *prefix
		case "image":
			base.Image = *image
		case "event-names":
			base.EventNames = splitList(*eventNames)
		case "log-level":
			base.LogLevel = *logLevel
		case "log-format":
			base.LogFormat = *logFormat
		}
	})

	if err := base.Validate(); err != nil {
		return nil, exit.Errorf("Error: %v\n\n%s", err, Usage())
	}

	src, err := parseSource(*source)
	if err != nil {
		return nil, exit.Errorf("Error: %v\n\n%s", err, Usage())
	}

	outFormat, err := output.ParseFormat(*format)
	if err != nil {
		return nil, exit.Errorf("Error: %v\n\n%s", err, Usage())
	}

	return &CLI{
		Config:     *base,
		ConfigFile: *configFile,
		Source:     src,
		Format:     outFormat,
		Input:      fs.Arg(0),
	}, nil
}

func parseSource(input string) (Source, error) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "", string(SourceDynamoDB):
		return SourceDynamoDB, nil
	case string(SourceJSON):
		return SourceJSON, nil
	default:
		return "", fmt.Errorf("%w, got: %s", ErrInvalidSource, input)
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Usage returns a usage string for the CLI tool.
func Usage() string {
	return `eventsplit - split records into one output per item

Usage: eventsplit [options] [file]

Reads a batch (JSON array, {"Records":[...]} stream event, or newline-delimited
records) from file or stdin and writes the split results to stdout.

Options:
  --config FILE           Path to YAML configuration file
  --split PATH            Path expression selecting the items to split (SPLIT_PATH)
  --propagate P1;P2       Path expressions copied into every part (PROPAGATE)
  --prefix STR            Prefix for propagated field names (PREFIX)
  --image NAME            Stream image to read: NewImage or OldImage (default: NewImage)
  --event-names LIST      Comma-separated change kinds to accept: INSERT, MODIFY, REMOVE
  --source KIND           Input record shape: dynamodb or json (default: dynamodb)
  --format FORMAT         Output format: json, ndjson or yaml (default: json)
  --log-level LEVEL       Log level: debug, info, warn or error (default: info)
  --log-format FORMAT     Log format: json or text (default: json)
  -h, --help              Show this help message

Examples:
  eventsplit --split '$.tickets' --propagate '$.id;$.userId' --prefix common_ batch.json
  eventsplit --source json --format ndjson --split '$.items' < records.ndjson
  eventsplit --config eventsplit.yaml batch.json`
}

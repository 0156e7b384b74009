package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/caarlos0/env/v11"

	"github.com/jacoelho/eventsplit/internal/logging"
	"github.com/jacoelho/eventsplit/internal/normalize"
	"github.com/jacoelho/eventsplit/internal/pathexpr"
	"github.com/jacoelho/eventsplit/internal/splitter"
)

// PropagateSeparator separates entries of PROPAGATE.
const PropagateSeparator = ";"

var (
	ErrMissingSplitPath = errors.New("SPLIT_PATH is required")
	ErrInvalidPath      = errors.New("invalid path expression")
)

// Config is the raw, uncompiled configuration of the splitter.
type Config struct {
	SplitPath string   `env:"SPLIT_PATH"`
	Propagate PathList `env:"PROPAGATE" envSeparator:";"`
	Prefix    string   `env:"PREFIX"`

	Image      string   `env:"EVENTSPLIT_IMAGE"       envDefault:"NewImage"`
	EventNames []string `env:"EVENTSPLIT_EVENT_NAMES" envSeparator:","`

	LogLevel  string `env:"EVENTSPLIT_LOG_LEVEL"  envDefault:"info"`
	LogFormat string `env:"EVENTSPLIT_LOG_FORMAT" envDefault:"json"`

	OTelEndpoint string `env:"EVENTSPLIT_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"EVENTSPLIT_OTEL_ENABLED" envDefault:"true"`
}

// Settings is the compiled configuration. It is read-only after Compile and
// safe to share between concurrent invocations.
type Settings struct {
	SplitPath  *pathexpr.Path
	Spec       splitter.Spec
	Image      normalize.Image
	EventNames []events.DynamoDBOperationType
}

// AcceptsEvent reports whether records of the given change kind are processed.
// An empty filter accepts everything.
func (s *Settings) AcceptsEvent(name events.DynamoDBOperationType) bool {
	return len(s.EventNames) == 0 || slices.Contains(s.EventNames, name)
}

// FromEnv loads configuration from environment variables.
func FromEnv() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return &cfg, nil
}

// Validate checks every setting that does not involve path compilation.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.SplitPath) == "" {
		return ErrMissingSplitPath
	}
	if _, err := normalize.ParseImage(c.Image); err != nil {
		return err
	}
	if _, err := c.operationTypes(); err != nil {
		return err
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		return err
	}
	return nil
}

// Compile validates the configuration and parses every path expression once.
func (c *Config) Compile() (*Settings, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	splitPath, err := pathexpr.Compile(strings.TrimSpace(c.SplitPath))
	if err != nil {
		return nil, fmt.Errorf("%w: SPLIT_PATH: %w", ErrInvalidPath, err)
	}

	entries := c.Propagate.Entries()
	paths := make([]*pathexpr.Path, 0, len(entries))
	for i, expr := range entries {
		p, err := pathexpr.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("%w: PROPAGATE entry %d: %w", ErrInvalidPath, i+1, err)
		}
		paths = append(paths, p)
	}

	image, _ := normalize.ParseImage(c.Image)
	names, _ := c.operationTypes()

	return &Settings{
		SplitPath:  splitPath,
		Spec:       splitter.Spec{Paths: paths, Prefix: c.Prefix},
		Image:      image,
		EventNames: names,
	}, nil
}

func (c *Config) operationTypes() ([]events.DynamoDBOperationType, error) {
	var out []events.DynamoDBOperationType
	for _, name := range splitList(strings.Join(c.EventNames, ",")) {
		op, err := normalize.ParseOperationType(name)
		if err != nil {
			return nil, err
		}
		out = append(out, op)
	}
	return out, nil
}

// PathList is an ordered list of path expressions.
type PathList []string

// ParsePathList splits s on PropagateSeparator.
func ParsePathList(s string) PathList {
	if s == "" {
		return nil
	}
	return PathList(strings.Split(s, PropagateSeparator))
}

// Entries returns the trimmed, non-empty expressions in order.
func (p PathList) Entries() []string {
	out := make([]string, 0, len(p))
	for _, expr := range p {
		if expr = strings.TrimSpace(expr); expr != "" {
			out = append(out, expr)
		}
	}
	return out
}

func (p PathList) String() string {
	return strings.Join(p, PropagateSeparator)
}

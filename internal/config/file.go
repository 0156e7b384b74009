package config

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// fileConfig is the YAML form of Config. Absent keys leave the current value
// untouched.
type fileConfig struct {
	SplitPath  *string  `yaml:"split_path"`
	Propagate  PathList `yaml:"propagate"`
	Prefix     *string  `yaml:"prefix"`
	Image      *string  `yaml:"image"`
	EventNames []string `yaml:"event_names"`
	Log        struct {
		Level  *string `yaml:"level"`
		Format *string `yaml:"format"`
	} `yaml:"log"`
	OTel struct {
		Endpoint *string `yaml:"endpoint"`
		Enabled  *bool   `yaml:"enabled"`
	} `yaml:"otel"`
}

// UnmarshalYAML accepts either a sequence of expressions or a single
// ;-separated string.
func (p *PathList) UnmarshalYAML(data []byte) error {
	var list []string
	if err := yaml.Unmarshal(data, &list); err == nil {
		*p = list
		return nil
	}

	var s string
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("propagate must be a string or a list of strings: %w", err)
	}
	*p = ParsePathList(s)
	return nil
}

// LoadFile overlays the YAML file at path onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return c.apply(data)
}

func (c *Config) apply(data []byte) error {
	var fc fileConfig
	if err := yaml.UnmarshalWithOptions(data, &fc, yaml.DisallowUnknownField()); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	setString(&c.SplitPath, fc.SplitPath)
	setString(&c.Prefix, fc.Prefix)
	setString(&c.Image, fc.Image)
	setString(&c.LogLevel, fc.Log.Level)
	setString(&c.LogFormat, fc.Log.Format)
	setString(&c.OTelEndpoint, fc.OTel.Endpoint)

	if fc.Propagate != nil {
		c.Propagate = fc.Propagate
	}
	if fc.EventNames != nil {
		c.EventNames = fc.EventNames
	}
	if fc.OTel.Enabled != nil {
		c.OTelEnabled = *fc.OTel.Enabled
	}

	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}

// Package config holds the job configuration: built-in defaults that
// reproduce the stock batch behaviour, an optional YAML file, and
// overrides applied by the command line.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"stationcsv/internal/etl"
)

const (
	DefaultInput  = "garbage_station.csv"
	DefaultOutput = "test.csv"
	DefaultJob    = "garbage_station"
)

// Config is the on-disk shape of a job file.
type Config struct {
	Name        string      `yaml:"name"`
	Source      Source      `yaml:"source"`
	Destination Destination `yaml:"destination"`
	// StateDB is the SQLite run-history file; empty disables history.
	StateDB string `yaml:"stateDB"`
	// Schedule is a cron expression used by the schedule command.
	Schedule string `yaml:"schedule"`
	// Echo prints every source row while running.
	Echo bool `yaml:"echo"`
}

type Source struct {
	Type      string `yaml:"type"`
	Path      string `yaml:"path"`
	Delimiter string `yaml:"delimiter"`
	HasHeader *bool  `yaml:"hasHeader"`
}

type Destination struct {
	Type    string         `yaml:"type"`
	Path    string         `yaml:"path"`
	Mode    string         `yaml:"mode"`
	Options map[string]any `yaml:"options"`
}

// Default returns the stock configuration:
// garbage_station.csv appended to test.csv, rows echoed, no history.
func Default() *Config {
	return &Config{
		Name:        DefaultJob,
		Source:      Source{Type: "csv_file", Path: DefaultInput},
		Destination: Destination{Type: "csv_file", Path: DefaultOutput, Mode: string(etl.WriteAppend)},
		Echo:        true,
	}
}

// Load reads a YAML file over the defaults. Keys missing from the file
// keep their default value.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the fields that can be checked without touching the
// source or destination.
func (c *Config) Validate() error {
	if c.Source.Type == "" {
		return fmt.Errorf("source.type is required")
	}
	if c.Destination.Type == "" {
		return fmt.Errorf("destination.type is required")
	}
	if _, err := etl.ParseWriteMode(c.Destination.Mode); err != nil {
		return fmt.Errorf("destination.mode: %w", err)
	}
	return nil
}

// Job converts the configuration into an etl.Job. The column mapping is
// always the built-in one.
func (c *Config) Job() (*etl.Job, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	mode, _ := etl.ParseWriteMode(c.Destination.Mode)

	srcCfg := etl.SourceConfig{"filePath": c.Source.Path}
	if c.Source.Delimiter != "" {
		srcCfg["delimiter"] = c.Source.Delimiter
	}
	if c.Source.HasHeader != nil {
		srcCfg["hasHeader"] = *c.Source.HasHeader
	}

	destCfg := etl.DestinationConfig{}
	for k, v := range c.Destination.Options {
		destCfg[k] = v
	}
	if c.Destination.Path != "" {
		destCfg["filePath"] = c.Destination.Path
	}

	name := c.Name
	if name == "" {
		name = DefaultJob
	}
	return &etl.Job{
		Name:       name,
		SourceType: c.Source.Type,
		SourceCfg:  srcCfg,
		DestType:   c.Destination.Type,
		DestCfg:    destCfg,
		Mode:       mode,
		Mapping:    etl.DefaultMapping,
	}, nil
}

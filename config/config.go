// Package config holds the settings of a fabtopo run. Settings come from an
// optional TOML file, FABTOPO_* environment variables and command-line
// flags, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"
)

// Config is the configuration of a run.
type Config struct {
	// OutputDir receives all written files.
	OutputDir string `toml:"output_dir"`

	// TopologyFile names the merged topology document.
	TopologyFile string `toml:"topology_file"`

	// File name extensions of per-snapshot outputs and of history files
	// picked up from a directory.
	CountersExt string `toml:"counters_ext"`
	RoutingExt  string `toml:"routing_ext"`
	HistoryExt  string `toml:"history_ext"`

	// PrefixOutputs prefixes per-snapshot files with the tag guessed from
	// the history file name.
	PrefixOutputs bool `toml:"prefix_outputs"`

	// DedupRouting suppresses routing tables identical to the previously
	// written one.
	DedupRouting bool `toml:"dedup_routing"`

	// Optional outputs; empty disables.
	DOTFile     string `toml:"dot_file"`
	StateDB     string `toml:"state_db"`
	MetricsFile string `toml:"metrics_file"`

	LogLevel string `toml:"log_level"`
}

// Default returns the builtin configuration.
func Default() Config {
	return Config{
		OutputDir:    ".",
		TopologyFile: "network.topo",
		CountersExt:  ".count",
		RoutingExt:   ".rtable",
		HistoryExt:   ".his",
		LogLevel:     "info",
	}
}

// Load returns the builtin defaults overlaid with the TOML file at path.
// Keys not known to Config are an error.
func Load(path string) (*Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing config file %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config file %s: unknown keys: %s",
			path, strings.Join(keys, ", "))
	}
	return &cfg, nil
}

// ApplyEnv overrides settings from FABTOPO_* variables looked up with
// getenv. Empty variables are ignored.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"FABTOPO_OUTPUT_DIR", &c.OutputDir},
		{"FABTOPO_TOPOLOGY_FILE", &c.TopologyFile},
		{"FABTOPO_COUNTERS_EXT", &c.CountersExt},
		{"FABTOPO_ROUTING_EXT", &c.RoutingExt},
		{"FABTOPO_HISTORY_EXT", &c.HistoryExt},
		{"FABTOPO_DOT_FILE", &c.DOTFile},
		{"FABTOPO_STATE_DB", &c.StateDB},
		{"FABTOPO_METRICS_FILE", &c.MetricsFile},
		{"FABTOPO_LOG_LEVEL", &c.LogLevel},
	}
	for _, s := range strs {
		if v := getenv(s.key); v != "" {
			*s.dst = v
		}
	}

	bools := []struct {
		key string
		dst *bool
	}{
		{"FABTOPO_PREFIX_OUTPUTS", &c.PrefixOutputs},
		{"FABTOPO_DEDUP_ROUTING", &c.DedupRouting},
	}
	for _, b := range bools {
		v := getenv(b.key)
		if v == "" {
			continue
		}
		x, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", b.key, err)
		}
		*b.dst = x
	}
	return nil
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	var errs []error
	if c.OutputDir == "" {
		errs = append(errs, errors.New("output_dir must not be empty"))
	}
	if c.TopologyFile == "" {
		errs = append(errs, errors.New("topology_file must not be empty"))
	}
	for _, ext := range []struct{ name, v string }{
		{"counters_ext", c.CountersExt},
		{"routing_ext", c.RoutingExt},
		{"history_ext", c.HistoryExt},
	} {
		if !strings.HasPrefix(ext.v, ".") || len(ext.v) < 2 {
			errs = append(errs, fmt.Errorf("%s %q: must start with a dot", ext.name, ext.v))
		}
	}
	if c.CountersExt == c.RoutingExt {
		errs = append(errs, fmt.Errorf("counters_ext and routing_ext are both %q", c.CountersExt))
	}
	if _, err := c.Level(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Level returns the configured log level. An empty level means info.
func (c *Config) Level() (zerolog.Level, error) {
	if c.LogLevel == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return lvl, nil
}

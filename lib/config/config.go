// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path
// from.
const EnvironmentVariable = "AGENTPLATFORM_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	// Development is for local runs and simulations.
	Development Environment = "development"
	// Production is for long-running deployments.
	Production Environment = "production"
)

// Engine kinds.
const (
	EngineRealtime  = "realtime"
	EngineSimulated = "simulated"
)

// Config is the complete agentplatform configuration.
type Config struct {
	Environment Environment `yaml:"environment" json:"environment" toml:"environment"`

	Engine     EngineConfig      `yaml:"engine" json:"engine" toml:"engine"`
	Network    NetworkConfig     `yaml:"network" json:"network" toml:"network"`
	Logging    LoggingConfig     `yaml:"logging" json:"logging" toml:"logging"`
	Trace      TraceConfig       `yaml:"trace" json:"trace" toml:"trace"`
	Containers []ContainerConfig `yaml:"containers" json:"containers" toml:"containers"`

	// Per-environment overrides, applied after the file is merged.
	Development *Overrides `yaml:"development,omitempty" json:"development,omitempty" toml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty" json:"production,omitempty" toml:"production,omitempty"`
}

// Overrides holds the sections an environment may override. Empty
// string fields and a zero port leave the base value alone.
type Overrides struct {
	Logging *LoggingConfig `yaml:"logging,omitempty" json:"logging,omitempty" toml:"logging,omitempty"`
	Network *NetworkConfig `yaml:"network,omitempty" json:"network,omitempty" toml:"network,omitempty"`
}

// EngineConfig selects and tunes the scheduling engine.
type EngineConfig struct {
	// Kind is "realtime" or "simulated".
	Kind string `yaml:"kind" json:"kind" toml:"kind"`

	// StartMillis is the simulated engine's initial logical time.
	StartMillis int64 `yaml:"start_ms" json:"start_ms" toml:"start_ms"`

	// Speed paces a simulated engine against the wall clock; 0 runs
	// unpaced.
	Speed float64 `yaml:"speed" json:"speed" toml:"speed"`

	// Duration bounds a run, as a Go duration string ("90s"). For a
	// simulated engine it is logical time. Empty means unbounded for
	// the real-time engine; the simulated engine requires it.
	Duration string `yaml:"duration" json:"duration" toml:"duration"`
}

// RunDuration parses Duration. An empty Duration yields zero.
func (e EngineConfig) RunDuration() (time.Duration, error) {
	if strings.TrimSpace(e.Duration) == "" {
		return 0, nil
	}
	duration, err := time.ParseDuration(strings.TrimSpace(e.Duration))
	if err != nil {
		return 0, fmt.Errorf("engine.duration: %w", err)
	}
	return duration, nil
}

// NetworkConfig sets the platform's network identity.
type NetworkConfig struct {
	// Hostname overrides hostname resolution when set.
	Hostname string `yaml:"hostname" json:"hostname" toml:"hostname"`

	// Port is the remote connection port.
	Port int `yaml:"port" json:"port" toml:"port"`

	// Interface binds hostname resolution to a network interface.
	Interface string `yaml:"interface" json:"interface" toml:"interface"`

	// Remote enables remote connections. When false the platform has
	// no port.
	Remote bool `yaml:"remote" json:"remote" toml:"remote"`
}

// LoggingConfig configures the process logger.
type LoggingConfig struct {
	// Level is debug, info, warn or error.
	Level string `yaml:"level" json:"level" toml:"level"`
}

// SlogLevel parses Level.
func (l LoggingConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

// TraceConfig configures dispatch trace output.
type TraceConfig struct {
	// Path is where the trace is written. Empty disables tracing.
	Path string `yaml:"path" json:"path" toml:"path"`

	// Compression is none, lz4 or zstd.
	Compression string `yaml:"compression" json:"compression" toml:"compression"`
}

// ContainerConfig declares one heartbeat container.
type ContainerConfig struct {
	Name string `yaml:"name" json:"name" toml:"name"`

	// Period is the heartbeat interval as a Go duration string.
	Period string `yaml:"period" json:"period" toml:"period"`
}

// PeriodDuration parses Period.
func (c ContainerConfig) PeriodDuration() (time.Duration, error) {
	period, err := time.ParseDuration(strings.TrimSpace(c.Period))
	if err != nil {
		return 0, fmt.Errorf("container %q: period: %w", c.Name, err)
	}
	return period, nil
}

// Default returns the configuration every file is merged over.
func Default() *Config {
	return &Config{
		Environment: Development,
		Engine: EngineConfig{
			Kind: EngineRealtime,
		},
		Network: NetworkConfig{
			Port:   1099,
			Remote: true,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
		Trace: TraceConfig{
			Compression: "zstd",
		},
	}
}

// Load loads the file named by AGENTPLATFORM_CONFIG. It fails when the
// variable is unset.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your config file, or use --config", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile loads and validates configuration from path.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// loadFile merges the file at path into c, decoding by extension.
// Every format rejects keys that do not map to a field.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		decoder := yaml.NewDecoder(bytes.NewReader(data))
		decoder.KnownFields(true)
		if err := decoder.Decode(c); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	case ".json", ".jsonc":
		decoder := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(c); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if decoder.More() {
			return errors.New("unexpected data after the top-level object")
		}
		return nil
	case ".toml":
		meta, err := toml.Decode(string(data), c)
		if err != nil {
			return err
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, key := range undecoded {
				keys[i] = key.String()
			}
			return fmt.Errorf("unknown keys: %s", strings.Join(keys, ", "))
		}
		return nil
	default:
		return fmt.Errorf("unsupported config format %q (want .yaml, .yml, .json, .jsonc or .toml)", filepath.Ext(path))
	}
}

// applyEnvironmentOverrides applies the section matching Environment.
func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
		// Production without an explicit section keeps debug output
		// out of long-running logs.
		if overrides == nil && c.Logging.Level == "debug" {
			overrides = &Overrides{Logging: &LoggingConfig{Level: "info"}}
		}
	}
	if overrides == nil {
		return
	}

	if overrides.Logging != nil && overrides.Logging.Level != "" {
		c.Logging.Level = overrides.Logging.Level
	}
	if overrides.Network != nil {
		if overrides.Network.Hostname != "" {
			c.Network.Hostname = overrides.Network.Hostname
		}
		if overrides.Network.Port != 0 {
			c.Network.Port = overrides.Network.Port
		}
		if overrides.Network.Interface != "" {
			c.Network.Interface = overrides.Network.Interface
		}
	}
}

// expandVariables expands ${VAR} and ${VAR:-default} in paths.
func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	c.Trace.Path = expandVars(c.Trace.Path, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}. vars is consulted
// before the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate checks the configuration, reporting every problem at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %q", c.Environment))
	}

	switch c.Engine.Kind {
	case EngineRealtime, EngineSimulated:
	default:
		errs = append(errs, fmt.Errorf("engine.kind must be %q or %q, got %q", EngineRealtime, EngineSimulated, c.Engine.Kind))
	}
	if c.Engine.Speed < 0 {
		errs = append(errs, fmt.Errorf("engine.speed must not be negative"))
	}
	if c.Engine.StartMillis < 0 {
		errs = append(errs, fmt.Errorf("engine.start_ms must not be negative"))
	}
	duration, err := c.Engine.RunDuration()
	switch {
	case err != nil:
		errs = append(errs, err)
	case duration < 0:
		errs = append(errs, fmt.Errorf("engine.duration must not be negative"))
	case duration == 0 && c.Engine.Kind == EngineSimulated:
		errs = append(errs, fmt.Errorf("engine.duration is required for the simulated engine"))
	}

	if c.Network.Remote && (c.Network.Port < 1 || c.Network.Port > 65535) {
		errs = append(errs, fmt.Errorf("network.port must be in 1-65535, got %d", c.Network.Port))
	}

	if _, err := c.Logging.SlogLevel(); err != nil {
		errs = append(errs, err)
	}

	if !slices.Contains([]string{"none", "lz4", "zstd"}, c.Trace.Compression) {
		errs = append(errs, fmt.Errorf("trace.compression must be one of none, lz4, zstd, got %q", c.Trace.Compression))
	}

	seen := make(map[string]bool)
	for index, container := range c.Containers {
		if container.Name == "" {
			errs = append(errs, fmt.Errorf("containers[%d].name is required", index))
		} else if seen[container.Name] {
			errs = append(errs, fmt.Errorf("containers[%d]: duplicate name %q", index, container.Name))
		}
		seen[container.Name] = true
		period, err := container.PeriodDuration()
		if err != nil {
			errs = append(errs, err)
		} else if period <= 0 {
			errs = append(errs, fmt.Errorf("container %q: period must be positive", container.Name))
		}
	}

	return errors.Join(errs...)
}

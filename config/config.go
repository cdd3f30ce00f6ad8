// ABOUTME: Runtime configuration loaded from an optional YAML file with environment overrides.
// ABOUTME: Covers batch policy, log level, worker count, undo depth, session limits, and render format.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/2389-research/graphdelta/interp"
	"github.com/2389-research/graphdelta/render"
)

// Environment variables that override file values.
const (
	EnvPolicy   = "GRAPHDELTA_POLICY"
	EnvLogLevel = "GRAPHDELTA_LOG_LEVEL"
	EnvWorkers  = "GRAPHDELTA_WORKERS"
)

// Config holds every tunable the CLI and library wiring read.
type Config struct {
	Policy    string   `yaml:"policy"`
	LogLevel  string   `yaml:"log_level"`
	Workers   int      `yaml:"workers"`
	UndoDepth int      `yaml:"undo_depth"`
	Sessions  Sessions `yaml:"sessions"`
	Render    Render   `yaml:"render"`
}

// Sessions configures session.Store.
type Sessions struct {
	Max int           `yaml:"max"`
	TTL time.Duration `yaml:"ttl"`
}

// Render configures output rendering.
type Render struct {
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Policy:    "abort",
		LogLevel:  "info",
		Workers:   4,
		UndoDepth: 50,
		Sessions:  Sessions{Max: 100, TTL: time.Hour},
		Render:    Render{Format: "svg"},
	}
}

// Load reads path over the defaults, applies environment overrides, and
// validates the result. An empty path skips the file; a missing file is an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvPolicy); ok && v != "" {
		c.Policy = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.LogLevel = v
	}
	if v, ok := lookup(EnvWorkers); ok && v != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %w", EnvWorkers, err)
		}
		c.Workers = n
	}
	return nil
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if _, err := interp.ParsePolicy(c.Policy); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("unknown log level %q", c.LogLevel))
	}
	if c.Workers < 1 {
		errs = append(errs, fmt.Errorf("workers must be at least 1, got %d", c.Workers))
	}
	if c.UndoDepth < 1 {
		errs = append(errs, fmt.Errorf("undo_depth must be at least 1, got %d", c.UndoDepth))
	}
	if c.Sessions.Max < 1 {
		errs = append(errs, fmt.Errorf("sessions.max must be at least 1, got %d", c.Sessions.Max))
	}
	if c.Sessions.TTL <= 0 {
		errs = append(errs, fmt.Errorf("sessions.ttl must be positive, got %s", c.Sessions.TTL))
	}
	if _, err := render.ParseFormat(c.Render.Format); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// InterpPolicy returns the parsed batch policy. Call after Validate.
func (c Config) InterpPolicy() interp.Policy {
	p, _ := interp.ParsePolicy(c.Policy)
	return p
}

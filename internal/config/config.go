// Package config loads and persists sorta project configuration from
// .sorta.yaml, with environment overrides layered on top of the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"sorta/internal/loops"
	"sorta/internal/personality"
)

// DefaultPath is where the CLI looks for project configuration.
const DefaultPath = ".sorta.yaml"

// Config holds all sorta configuration.
type Config struct {
	// Personality context installed before a program runs
	Personality PersonalityConfig `yaml:"personality"`

	// Loop runaway protection
	Limits LimitsConfig `yaml:"limits"`

	// Transform pipeline settings
	Transform TransformConfig `yaml:"transform"`

	// Run-history persistence
	Chronicle ChronicleConfig `yaml:"chronicle"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// PersonalityConfig selects the startup personality context.
type PersonalityConfig struct {
	Mood  string `yaml:"mood"`  // reliable, cautious, playful, chaotic
	Chaos int    `yaml:"chaos"` // 1..10, 5 is neutral
	Seed  int64  `yaml:"seed"`  // 0 draws a fresh entropy seed
}

// LimitsConfig bounds the loop runaway protection.
type LimitsConfig struct {
	MaxWhileCycles int `yaml:"max_while_cycles"`
	SampleWindow   int `yaml:"sample_window"`
	MinSamples     int `yaml:"min_samples"`
	MaxEvaluations int `yaml:"max_evaluations"`
}

// TransformConfig configures the batch pipeline and the watcher.
type TransformConfig struct {
	Workers  int    `yaml:"workers"`
	Debounce string `yaml:"debounce"`
}

// ChronicleConfig configures run-history persistence.
type ChronicleConfig struct {
	Enabled      bool   `yaml:"enabled"`
	DatabasePath string `yaml:"database_path"`
	RecentEvents int    `yaml:"recent_events"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Personality: PersonalityConfig{
			Mood:  string(personality.DefaultMood),
			Chaos: personality.DefaultChaos,
			Seed:  0,
		},

		Limits: LimitsConfig{
			MaxWhileCycles: loops.DefaultMaxWhileCycles,
			SampleWindow:   loops.DefaultSampleWindow,
			MinSamples:     loops.DefaultMinSamples,
			MaxEvaluations: loops.DefaultMaxEvaluations,
		},

		Transform: TransformConfig{
			Workers:  8,
			Debounce: "500ms",
		},

		Chronicle: ChronicleConfig{
			Enabled:      true,
			DatabasePath: ".sorta/chronicle.db",
			RecentEvents: 50,
		},

		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file. A missing file is not an
// error: the defaults apply, environment overrides included.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides. Values that
// do not parse keep the file (or default) value; Validate reports on
// whatever survives.
func (c *Config) applyEnvOverrides() {
	if mood := os.Getenv("SORTA_MOOD"); mood != "" {
		c.Personality.Mood = mood
	}
	if raw := os.Getenv("SORTA_CHAOS"); raw != "" {
		if chaos, err := strconv.Atoi(raw); err == nil {
			c.Personality.Chaos = chaos
		}
	}
	if raw := os.Getenv("SORTA_SEED"); raw != "" {
		if seed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			c.Personality.Seed = seed
		}
	}

	// SORTA_CHRONICLE points at an alternate database, or "off" disables
	// persistence entirely.
	if path := os.Getenv("SORTA_CHRONICLE"); path != "" {
		if path == "off" {
			c.Chronicle.Enabled = false
		} else {
			c.Chronicle.Enabled = true
			c.Chronicle.DatabasePath = path
		}
	}
}

// LoopLimits renders the limits section for the loop runner.
func (c *Config) LoopLimits() loops.Limits {
	return loops.Limits{
		MaxWhileCycles: c.Limits.MaxWhileCycles,
		SampleWindow:   c.Limits.SampleWindow,
		MinSamples:     c.Limits.MinSamples,
		MaxEvaluations: c.Limits.MaxEvaluations,
	}
}

// GetDebounce returns the watcher debounce as a duration.
func (c *Config) GetDebounce() time.Duration {
	d, err := time.ParseDuration(c.Transform.Debounce)
	if err != nil || d <= 0 {
		return 500 * time.Millisecond
	}
	return d
}

// Validate checks the configuration. Personality settings fail with the
// same sentinels the resolver uses, so a bad config file reads exactly
// like a bad SetContext call.
func (c *Config) Validate() error {
	if !personality.Mood(c.Personality.Mood).IsValid() {
		return fmt.Errorf("%w: %q (valid: %v)",
			personality.ErrUnknownMood, c.Personality.Mood, personality.AllMoods())
	}
	if c.Personality.Chaos < personality.MinChaos || c.Personality.Chaos > personality.MaxChaos {
		return fmt.Errorf("%w: %d (valid: %d..%d)",
			personality.ErrChaosRange, c.Personality.Chaos, personality.MinChaos, personality.MaxChaos)
	}
	if c.Transform.Debounce != "" {
		if _, err := time.ParseDuration(c.Transform.Debounce); err != nil {
			return fmt.Errorf("invalid transform debounce %q: %w", c.Transform.Debounce, err)
		}
	}
	if c.Chronicle.Enabled && c.Chronicle.DatabasePath == "" {
		return fmt.Errorf("chronicle enabled without a database path")
	}
	return nil
}

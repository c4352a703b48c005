// Package config loads the habitr configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sadopc/habitr/internal/persist"
	"github.com/sadopc/habitr/internal/phase"
)

// Config represents the root configuration structure
type Config struct {
	// Database is the SQLite file. Empty means the default location.
	Database    string            `yaml:"database,omitempty"`
	Log         LogConfig         `yaml:"log"`
	Timer       TimerConfig       `yaml:"timer"`
	Persistence PersistenceConfig `yaml:"persistence"`
	Breathing   BreathingConfig   `yaml:"breathing"`
}

type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level"`

	// File receives log output. The TUI needs one since it owns the terminal.
	File string `yaml:"file,omitempty"`
}

type TimerConfig struct {
	// Tick is the elapsed clock period
	Tick time.Duration `yaml:"tick"`
	// Refresh is how often the visible UI view reloads. Zero disables.
	Refresh time.Duration `yaml:"refresh"`
}

type PersistenceConfig struct {
	// Debounce is the quiet window before a changed value is written
	Debounce time.Duration `yaml:"debounce"`

	// FlushOnClose writes pending values on shutdown instead of dropping them
	FlushOnClose bool `yaml:"flushOnClose"`

	// Encoding is json or cbor
	Encoding string `yaml:"encoding"`
}

// BreathingConfig is the default exercise, used until the user saves one
// from the settings view.
type BreathingConfig struct {
	Preset       string   `yaml:"preset,omitempty"`
	Phases       []string `yaml:"phases,omitempty"`
	PhaseSeconds int      `yaml:"phaseSeconds,omitempty"`
	Cycles       int      `yaml:"cycles,omitempty"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Log:         LogConfig{Level: "info"},
		Timer:       TimerConfig{Tick: 100 * time.Millisecond, Refresh: 30 * time.Second},
		Persistence: PersistenceConfig{Debounce: persist.DefaultWindow, FlushOnClose: true, Encoding: "json"},
		Breathing:   BreathingConfig{Preset: "box"},
	}
}

// DefaultPath returns ~/.config/habitr/config.yaml
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "habitr", "config.yaml"), nil
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate fails on the first bad field.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}
	if c.Timer.Tick <= 0 {
		return fmt.Errorf("timer.tick must be positive, got %s", c.Timer.Tick)
	}
	if c.Timer.Refresh < 0 {
		return fmt.Errorf("timer.refresh must not be negative, got %s", c.Timer.Refresh)
	}
	if c.Persistence.Debounce <= 0 {
		return fmt.Errorf("persistence.debounce must be positive, got %s", c.Persistence.Debounce)
	}
	if _, err := persist.CodecByName(c.Persistence.Encoding); err != nil {
		return fmt.Errorf("persistence.encoding: %w", err)
	}
	if _, err := c.Phase(); err != nil {
		return fmt.Errorf("breathing: %w", err)
	}
	return nil
}

// Phase resolves the breathing section: the named preset with any explicit
// fields laid over it.
func (c *Config) Phase() (phase.Config, error) {
	name := c.Breathing.Preset
	if name == "" {
		name = "box"
	}
	cfg, err := phase.Preset(name)
	if err != nil {
		// A custom exercise needs its own phases.
		if len(c.Breathing.Phases) == 0 {
			return phase.Config{}, err
		}
		cfg = phase.Box
		cfg.Name = name
	}
	if len(c.Breathing.Phases) > 0 {
		cfg.Phases = c.Breathing.Phases
	}
	if c.Breathing.PhaseSeconds != 0 {
		cfg.Length = time.Duration(c.Breathing.PhaseSeconds) * time.Second
	}
	if c.Breathing.Cycles != 0 {
		cfg.Cycles = c.Breathing.Cycles
	}
	if err := cfg.Validate(c.Timer.Tick); err != nil {
		return phase.Config{}, err
	}
	return cfg, nil
}

// DatabasePath returns the configured database or the default one.
func (c *Config) DatabasePath(defaultPath func() (string, error)) (string, error) {
	if c.Database != "" {
		return c.Database, nil
	}
	return defaultPath()
}

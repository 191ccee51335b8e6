// Package config provides YAML-based configuration for hosts embedding the
// scheduling core: reload mode, the displayed day window, calendar sources
// and render geometry.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ICSSourceConfig describes one iCalendar source file.
type ICSSourceConfig struct {
	// Path is the .ics file location on disk.
	Path string `yaml:"path"`
	// Name is a human-friendly label used in logs.
	Name string `yaml:"name"`
}

// RenderConfig controls the SVG render geometry.
type RenderConfig struct {
	// Width is the total image width in pixels.
	Width int `yaml:"width"`
	// HourHeight is the vertical size of one hour in pixels.
	HourHeight int `yaml:"hour_height"`
}

// Config is the top-level host configuration.
type Config struct {
	// Timezone is the IANA timezone used for the day window (e.g.
	// "Europe/Madrid").
	Timezone string `yaml:"timezone"`

	// AsynchronousReloads selects the manager's asynchronous reload mode.
	AsynchronousReloads bool `yaml:"asynchronous_reloads"`

	// DayStartHour and DayEndHour delimit the displayed day window
	// [DayStartHour, DayEndHour) in local hours.
	DayStartHour int `yaml:"day_start_hour"`
	DayEndHour   int `yaml:"day_end_hour"`

	// ICS lists the subscribed calendar files.
	ICS []ICSSourceConfig `yaml:"ics,omitempty"`

	// Render holds the SVG output geometry.
	Render RenderConfig `yaml:"render"`
}

// Default returns the in-memory default configuration.
func Default() *Config {
	return &Config{
		Timezone:     "UTC",
		DayStartHour: 8,
		DayEndHour:   20,
		Render: RenderConfig{
			Width:      448,
			HourHeight: 60,
		},
	}
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.DayStartHour < 0 || c.DayStartHour > 23 {
		return fmt.Errorf("day_start_hour %d out of range [0, 23]", c.DayStartHour)
	}
	if c.DayEndHour < 1 || c.DayEndHour > 24 {
		return fmt.Errorf("day_end_hour %d out of range [1, 24]", c.DayEndHour)
	}
	if c.DayEndHour <= c.DayStartHour {
		return fmt.Errorf("day window [%d, %d) is empty", c.DayStartHour, c.DayEndHour)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	for i, src := range c.ICS {
		if src.Path == "" {
			return fmt.Errorf("ics source %d has no path", i)
		}
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

// Load reads the configuration from path. On first run, when the file does
// not exist yet, the default configuration is written there with 0600
// permissions and returned.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		if saveErr := cfg.Save(path); saveErr != nil {
			return nil, fmt.Errorf("create default config: %w", saveErr)
		}
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to path with 0600 permissions, creating
// parent directories as needed.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return err
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

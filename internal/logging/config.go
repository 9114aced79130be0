package logging

import (
	"os"
	"strconv"
)

// Environment variables that override the [logging] section.
const (
	EnvLevel  = "AUTOROUTE_LOG_LEVEL"
	EnvFormat = "AUTOROUTE_LOG_FORMAT"
	EnvSource = "AUTOROUTE_LOG_SOURCE"
)

// Config is the [logging] section of autoroute.toml.
type Config struct {
	Level  Level  `toml:"level"`
	Format Format `toml:"format"`

	// Source adds the file and line of each log call. A pointer so an
	// overlay can turn it back off.
	Source *bool `toml:"source"`
}

// Finalize applies defaults, then the AUTOROUTE_LOG_* variables, then
// validates.
func (c *Config) Finalize() error {
	if c.Level == "" {
		c.Level = LevelInfo
	}
	if c.Format == "" {
		c.Format = FormatText
	}

	if v := os.Getenv(EnvLevel); v != "" {
		c.Level = ParseLevel(v)
	}
	if v := os.Getenv(EnvFormat); v != "" {
		c.Format = Format(v)
	}
	if v := os.Getenv(EnvSource); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			c.Source = &on
		}
	}

	if err := c.Level.Validate(); err != nil {
		return err
	}
	return c.Format.Validate()
}

// Merge applies the values an overlay sets.
func (c *Config) Merge(overlay *Config) {
	if overlay.Level != "" {
		c.Level = overlay.Level
	}
	if overlay.Format != "" {
		c.Format = overlay.Format
	}
	if overlay.Source != nil {
		c.Source = overlay.Source
	}
}

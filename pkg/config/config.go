// Package config loads export settings and instrument sets from YAML
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/timecode"
	"github.com/jhrper1-blip/audio-structure-analyzer2/pkg/tracks"
)

// ErrConfig is returned for unreadable or inconsistent configuration
var ErrConfig = errors.New("invalid configuration")

// Config is the on-disk export configuration. Every field is optional.
type Config struct {
	Resolution  uint16       `yaml:"resolution,omitempty"`
	Compression *int         `yaml:"compression,omitempty"`
	Instruments []Instrument `yaml:"instruments,omitempty"`
}

// Instrument describes one template track. Steps, when given, replace the
// built-in pattern; otherwise Pattern (or the lowercased Name) selects one.
type Instrument struct {
	Name    string        `yaml:"name"`
	Channel int           `yaml:"channel"`
	Program int           `yaml:"program"`
	Pattern string        `yaml:"pattern,omitempty"`
	Steps   []tracks.Step `yaml:"steps,omitempty"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{Resolution: timecode.Resolution}
}

// Load reads a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration and fills defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	if cfg.Resolution == 0 {
		cfg.Resolution = timecode.Resolution
	}
	if cfg.Resolution > 0x7FFF {
		return nil, fmt.Errorf("%w: resolution %d out of range", ErrConfig, cfg.Resolution)
	}
	if cfg.Compression != nil && (*cfg.Compression < -2 || *cfg.Compression > 9) {
		return nil, fmt.Errorf("%w: compression level %d out of range", ErrConfig, *cfg.Compression)
	}
	if _, err := cfg.InstrumentSet(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InstrumentSet resolves the configured instruments, falling back to the
// default set when none are listed
func (c *Config) InstrumentSet() ([]tracks.Instrument, error) {
	if len(c.Instruments) == 0 {
		return tracks.DefaultInstruments(), nil
	}

	out := make([]tracks.Instrument, 0, len(c.Instruments))
	for i, ic := range c.Instruments {
		if ic.Channel < 0 || ic.Channel > 15 {
			return nil, fmt.Errorf("%w: instrument %d (%s): channel %d, want 0-15", ErrConfig, i+1, ic.Name, ic.Channel)
		}
		if ic.Program < 0 || ic.Program > 127 {
			return nil, fmt.Errorf("%w: instrument %d (%s): program %d, want 0-127", ErrConfig, i+1, ic.Name, ic.Program)
		}

		pattern := tracks.Pattern{Steps: ic.Steps}
		if len(ic.Steps) == 0 {
			name := ic.Pattern
			if name == "" {
				name = ic.Name
			}
			p, ok := tracks.PatternByName(name)
			if !ok {
				return nil, fmt.Errorf("%w: instrument %d (%s): unknown pattern %q", ErrConfig, i+1, ic.Name, name)
			}
			pattern = p
		}

		out = append(out, tracks.Instrument{
			Name:    ic.Name,
			Channel: uint8(ic.Channel),
			Program: uint8(ic.Program),
			Pattern: pattern,
		})
	}

	if err := tracks.ValidateInstruments(out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfig, err)
	}
	return out, nil
}

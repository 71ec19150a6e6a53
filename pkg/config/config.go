package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/trustflow/pkg/frames"
)

// Config holds all configuration for the application
type Config struct {
	Scenario       string  `koanf:"scenario"`
	OutDir         string  `koanf:"out"`
	Decay          float64 `koanf:"decay"`
	Damping        float64 `koanf:"damping"`
	ExpertFraction float64 `koanf:"expert-fraction"`
	Iterations     int     `koanf:"iterations"`
	MaxTime        int     `koanf:"max-time"`
	WebMode        bool    `koanf:"web"`
	Port           int     `koanf:"port"`
	Watch          bool    `koanf:"watch"`
	OpenBrowser    bool    `koanf:"open"`
	Verbosity      string  `koanf:"verbosity"`
	VerboseCnt     int     `koanf:"verbose"`
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults, matching the built-in example run
	d := frames.Defaults()
	defaults := map[string]interface{}{
		"scenario":        "",
		"out":             d.OutDir,
		"decay":           d.Decay,
		"damping":         d.Damping,
		"expert-fraction": d.ExpertFraction,
		"iterations":      d.Iterations,
		"max-time":        d.MaxTime,
		"web":             false,
		"port":            8080,
		"watch":           false,
		"open":            true,
		"verbosity":       "",
		"verbose":         0,
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - trustflow.toml
	// We ignore errors here as the file might not exist
	_ = k.Load(file.Provider("trustflow.toml"), toml.Parser())

	// 3. Environment Variables
	// Prefix: TRUSTFLOW_ (e.g., TRUSTFLOW_MAX_TIME=40)
	if err := k.Load(env.Provider("TRUSTFLOW_", ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(
			strings.TrimPrefix(s, "TRUSTFLOW_")), "_", "-")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.Provider(f, ".", k), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// FrameOptions maps the configuration onto one animation run.
func (c *Config) FrameOptions() frames.Options {
	return frames.Options{
		OutDir:         c.OutDir,
		MaxTime:        c.MaxTime,
		Iterations:     c.Iterations,
		Damping:        c.Damping,
		Decay:          c.Decay,
		ExpertFraction: c.ExpertFraction,
	}
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

func (p *mapProvider) Read() (map[string]interface{}, error) {
	return p.m, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}

// Package config loads the application settings of the particle tools.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Window     WindowConfig     `toml:"window"`
	Simulation SimulationConfig `toml:"simulation"`
	Library    LibraryConfig    `toml:"library"`
	Terminal   TerminalConfig   `toml:"terminal"`
	Logging    LoggingConfig    `toml:"logging"`
}

type WindowConfig struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	Title  string `toml:"title"`
	TPS    int    `toml:"tps"` // ticks per second, also the simulation step
}

type SimulationConfig struct {
	Seed        uint64 `toml:"seed"`        // 0 = random per run
	Definitions string `toml:"definitions"` // YAML definition file; empty = built-in declarations
	MaxSystems  int    `toml:"max_systems"` // 0 = unlimited
}

type LibraryConfig struct {
	Enabled bool   `toml:"enabled"`
	AppName string `toml:"app_name"` // gdata storage namespace
}

type TerminalConfig struct {
	CellWidth  float64 `toml:"cell_width"`  // world pixels per terminal column
	CellHeight float64 `toml:"cell_height"` // world pixels per terminal row
	FPS        int     `toml:"fps"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
	File   string `toml:"file"`   // output path; empty = stderr
}

// Load reads a TOML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects settings the tools cannot run with.
func (c *Config) Validate() error {
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("window size %dx%d must be positive", c.Window.Width, c.Window.Height)
	}
	if c.Window.TPS <= 0 {
		return fmt.Errorf("window tps %d must be positive", c.Window.TPS)
	}
	if c.Simulation.MaxSystems < 0 {
		return fmt.Errorf("simulation max_systems %d must not be negative", c.Simulation.MaxSystems)
	}
	if c.Terminal.CellWidth <= 0 || c.Terminal.CellHeight <= 0 {
		return fmt.Errorf("terminal cell %vx%v must be positive", c.Terminal.CellWidth, c.Terminal.CellHeight)
	}
	if c.Terminal.FPS <= 0 {
		return fmt.Errorf("terminal fps %d must be positive", c.Terminal.FPS)
	}
	if c.Library.Enabled && c.Library.AppName == "" {
		return fmt.Errorf("library app_name is required when the library is enabled")
	}
	return nil
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		Window: WindowConfig{
			Width:  800,
			Height: 600,
			Title:  "Particle Viewer",
			TPS:    60,
		},
		Simulation: SimulationConfig{
			MaxSystems: 512,
		},
		Library: LibraryConfig{
			Enabled: true,
			AppName: "particlefx",
		},
		Terminal: TerminalConfig{
			CellWidth:  8,
			CellHeight: 16,
			FPS:        30,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

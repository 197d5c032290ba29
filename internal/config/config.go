// Package config loads the runner and viewer settings from TOML.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/koteyur/physac2d/dynamics"
	"github.com/koteyur/physac2d/geom"
)

type Config struct {
	World   WorldConfig   `toml:"world"`
	Runner  RunnerConfig  `toml:"runner"`
	Viewer  ViewerConfig  `toml:"viewer"`
	Logging LoggingConfig `toml:"logging"`
}

type WorldConfig struct {
	Gravity            [2]float64 `toml:"gravity"`
	VelocityIterations int        `toml:"velocity_iterations"`
	PositionIterations int        `toml:"position_iterations"`
	AllowSleep         bool       `toml:"allow_sleep"`
	WarmStarting       bool       `toml:"warm_starting"`
	Continuous         bool       `toml:"continuous"`
	SubStepping        bool       `toml:"sub_stepping"`
}

type RunnerConfig struct {
	Hz    float64 `toml:"hz"`
	Steps int     `toml:"steps"`
	Scene string  `toml:"scene"`
	// CompareChipmunk replays the scene in Chipmunk alongside the engine.
	CompareChipmunk bool `toml:"compare_chipmunk"`
	ReportEvery     int  `toml:"report_every"`
}

type ViewerConfig struct {
	Width     int     `toml:"width"`
	Height    int     `toml:"height"`
	Scale     float64 `toml:"scale"` // pixels per meter
	HotReload bool    `toml:"hot_reload"`
	Debug     bool    `toml:"debug"`
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
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
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch {
	case c.Runner.Hz <= 0:
		return fmt.Errorf("runner.hz must be positive, got %v", c.Runner.Hz)
	case c.World.VelocityIterations < 1:
		return fmt.Errorf("world.velocity_iterations must be at least 1, got %d", c.World.VelocityIterations)
	case c.World.PositionIterations < 0:
		return fmt.Errorf("world.position_iterations must not be negative, got %d", c.World.PositionIterations)
	case c.Viewer.Scale <= 0:
		return fmt.Errorf("viewer.scale must be positive, got %v", c.Viewer.Scale)
	}
	return nil
}

// GravityVec returns the configured gravity.
func (w WorldConfig) GravityVec() geom.Vec2 {
	return geom.V(w.Gravity[0], w.Gravity[1])
}

// Settings maps the world section onto the engine defaults.
func (w WorldConfig) Settings() dynamics.Settings {
	s := dynamics.DefaultSettings()
	s.VelocityIterations = w.VelocityIterations
	s.PositionIterations = w.PositionIterations
	s.AllowSleep = w.AllowSleep
	s.WarmStarting = w.WarmStarting
	s.ContinuousPhysics = w.Continuous
	s.EnableSubStepping = w.SubStepping
	return s
}

func defaults() *Config {
	s := dynamics.DefaultSettings()
	return &Config{
		World: WorldConfig{
			Gravity:            [2]float64{0, -10},
			VelocityIterations: s.VelocityIterations,
			PositionIterations: s.PositionIterations,
			AllowSleep:         s.AllowSleep,
			WarmStarting:       s.WarmStarting,
			Continuous:         s.ContinuousPhysics,
			SubStepping:        s.EnableSubStepping,
		},
		Runner: RunnerConfig{
			Hz:          60,
			Steps:       600,
			ReportEvery: 60,
		},
		Viewer: ViewerConfig{
			Width:     800,
			Height:    450,
			Scale:     20,
			HotReload: true,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

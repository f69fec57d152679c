package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/l1jgo/mars/internal/core/status"
)

type Config struct {
	Engine    EngineConfig    `toml:"engine"`
	Table     TableConfig     `toml:"table"`
	Logging   LoggingConfig   `toml:"logging"`
	Scene     SceneConfig     `toml:"scene"`
	Scripting ScriptingConfig `toml:"scripting"`
}

type EngineConfig struct {
	DT         float64       `toml:"dt"`          // fixed tick length in seconds
	Seed       uint32        `toml:"seed"`        // 0 = default id generator state
	MaxTicks   uint64        `toml:"max_ticks"`   // 0 = run until stopped
	FrameDelay time.Duration `toml:"frame_delay"` // sleep between frames
}

type TableConfig struct {
	InitialCapacity int     `toml:"initial_capacity"`
	LoadFactor      float64 `toml:"load_factor"`
}

type LoggingConfig struct {
	Level     string `toml:"level"`
	Format    string `toml:"format"`    // "json" or "console"
	Verbosity uint8  `toml:"verbosity"` // 1=error 2=warning 4=notice
}

type SceneConfig struct {
	Path string `toml:"path"`
}

type ScriptingConfig struct {
	Dir   string `toml:"dir"`
	Watch bool   `toml:"watch"`
}

// Load reads path over the defaults. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
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

func (c *Config) Validate() error {
	if !(c.Engine.DT > 0) {
		return fmt.Errorf("engine.dt %v must be positive: %w", c.Engine.DT, status.InvalidArgument)
	}
	if c.Table.InitialCapacity < 0 {
		return fmt.Errorf("table.initial_capacity %d: %w", c.Table.InitialCapacity, status.InvalidArgument)
	}
	if !(c.Table.LoadFactor > 0 && c.Table.LoadFactor <= 1) {
		return fmt.Errorf("table.load_factor %v outside (0, 1]: %w", c.Table.LoadFactor, status.InvalidArgument)
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging.format %q: %w", c.Logging.Format, status.InvalidArgument)
	}
	return nil
}

func defaults() *Config {
	return &Config{
		Engine: EngineConfig{
			DT: 0.5,
		},
		Table: TableConfig{
			InitialCapacity: 32,
			LoadFactor:      0.875,
		},
		Logging: LoggingConfig{
			Level:     "info",
			Format:    "console",
			Verbosity: 1 | 2 | 4,
		},
		Scene: SceneConfig{
			Path: "scenes/demo.yaml",
		},
		Scripting: ScriptingConfig{
			Dir: "scripts",
		},
	}
}

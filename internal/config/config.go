package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/openkin/arbor/internal/dedupe"
)

// Config holds all arbor configuration.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Dedupe   dedupe.Config  `toml:"dedupe"`
	Layout   LayoutConfig   `toml:"layout"`
}

type ServerConfig struct {
	Bind string `toml:"bind"`
	Port int    `toml:"port"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

type LayoutConfig struct {
	CacheSize int     `toml:"cache_size"`
	SpacingX  float64 `toml:"spacing_x"`
	SpacingY  float64 `toml:"spacing_y"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Bind: "127.0.0.1",
			Port: 38585,
		},
		Database: DatabaseConfig{
			Path: "", // resolved at runtime via store.DefaultDBPath()
		},
		Dedupe: dedupe.DefaultConfig(),
		Layout: LayoutConfig{
			CacheSize: 128,
			SpacingX:  120,
			SpacingY:  140,
		},
	}
}

// Load reads a TOML config file over the defaults. A missing file is not an
// error; the defaults simply apply.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ListenAddr returns the bind:port address string.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Bind, c.Server.Port)
}

package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

type Config struct {
	Server   ServerConfig  `yaml:"server"`
	Storage  StorageConfig `yaml:"storage"`
	Sampler  SamplerConfig `yaml:"sampler"`
	Log      LogConfig     `yaml:"log"`
	Timezone string        `yaml:"timezone"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type StorageConfig struct {
	Type string `yaml:"type"`
	Path string `yaml:"path"`
}

type SamplerConfig struct {
	Interval       time.Duration `yaml:"interval"`
	WarmupCount    int           `yaml:"warmup_count"`
	WarmupInterval time.Duration `yaml:"warmup_interval"`
	// ReadWindow > 0 makes every reading block and measure over the window.
	ReadWindow time.Duration `yaml:"read_window"`
}

type LogConfig struct {
	Dir     string `yaml:"dir"`
	File    string `yaml:"file"`
	Level   int    `yaml:"level"`
	Console bool   `yaml:"console"`
}

// Load reads a YAML file. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	var cfg Config

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 25 * time.Second
	}
	if c.Storage.Type == "" {
		c.Storage.Type = StorageSQLite
	}
	if c.Storage.Path == "" {
		c.Storage.Path = "../db/cpu_usage.db"
	}
	if c.Sampler.Interval == 0 {
		c.Sampler.Interval = time.Minute
	}
	if c.Sampler.WarmupCount == 0 {
		c.Sampler.WarmupCount = 5
	}
	if c.Sampler.WarmupInterval == 0 {
		c.Sampler.WarmupInterval = time.Second
	}
	if c.Log.Dir == "" {
		c.Log.Dir = "../log"
	}
	if c.Log.File == "" {
		c.Log.File = "webService.log"
	}
	if c.Log.Level == 0 {
		c.Log.Level = 3
	}
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
}

func (c *Config) validate() error {
	switch c.Storage.Type {
	case StorageSQLite, StorageMemory:
	default:
		return fmt.Errorf("storage.type must be %q or %q, got %q", StorageSQLite, StorageMemory, c.Storage.Type)
	}
	if c.Sampler.Interval < time.Second {
		return fmt.Errorf("sampler.interval must be at least 1s, got %s", c.Sampler.Interval)
	}
	if c.Sampler.WarmupCount < 0 {
		return fmt.Errorf("sampler.warmup_count cannot be negative")
	}
	if c.Sampler.ReadWindow < 0 || c.Sampler.ReadWindow >= c.Sampler.Interval {
		return fmt.Errorf("sampler.read_window must be in [0, interval)")
	}
	if c.Log.Level < 1 || c.Log.Level > 4 {
		return fmt.Errorf("log.level must be between 1 and 4, got %d", c.Log.Level)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("timezone: %w", err)
	}
	return nil
}

func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

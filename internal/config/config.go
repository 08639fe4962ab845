// Package config loads the reference CLI's configuration from a YAML
// file, with SERIALIO_* environment variables overriding whatever the
// file set. The library package (root serialio) is never configured this
// way — it takes functional Option values — this package exists only to
// drive cmd/serialio.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the reference CLI's configuration surface.
type Config struct {
	Port struct {
		Path     string `yaml:"path"`
		BaudRate int    `yaml:"baud_rate"`
	} `yaml:"port"`

	Timeouts struct {
		Default time.Duration `yaml:"default"`
		Ping    time.Duration `yaml:"ping"`
		Reopen  time.Duration `yaml:"reopen"`
	} `yaml:"timeouts"`

	ChunkSize int `yaml:"chunk_size"`

	Log struct {
		Level string `yaml:"level"` // debug|info|warn|error
	} `yaml:"log"`

	Metrics struct {
		Enabled bool   `yaml:"enabled"`
		Addr    string `yaml:"addr"`
	} `yaml:"metrics"`
}

// Default returns a Config populated with the library's own defaults, for
// callers that have no config file at all.
func Default() *Config {
	var c Config
	c.Port.BaudRate = 115200
	c.Timeouts.Default = 5 * time.Second
	c.Timeouts.Ping = 500 * time.Millisecond
	c.Timeouts.Reopen = 1 * time.Second
	c.ChunkSize = 64 * 1024
	c.Log.Level = "info"
	c.Metrics.Addr = ":9090"
	return &c
}

// Load reads and parses the YAML file at path, starting from Default()
// so any field the file omits keeps its library default.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnvOverrides mutates cfg in place with any SERIALIO_* environment
// variables that are set, taking precedence over both the file and the
// defaults.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERIALIO_PORT_PATH"); v != "" {
		cfg.Port.Path = v
	}
	if v := os.Getenv("SERIALIO_BAUD_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Port.BaudRate = n
		}
	}
	if v := os.Getenv("SERIALIO_TIMEOUT_DEFAULT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeouts.Default = d
		}
	}
	if v := os.Getenv("SERIALIO_TIMEOUT_PING"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeouts.Ping = d
		}
	}
	if v := os.Getenv("SERIALIO_TIMEOUT_REOPEN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeouts.Reopen = d
		}
	}
	if v := os.Getenv("SERIALIO_CHUNK_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ChunkSize = n
		}
	}
	if v := os.Getenv("SERIALIO_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("SERIALIO_METRICS_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Metrics.Enabled = b
		}
	}
	if v := os.Getenv("SERIALIO_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}

// LoadEffective loads path if it exists, falling back to Default() if the
// file is simply absent (any other read error is returned), then applies
// environment overrides on top.
func LoadEffective(path string) (*Config, error) {
	var cfg *Config
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			loaded, err := Load(path)
			if err != nil {
				return nil, err
			}
			cfg = loaded
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("config: stat %s: %w", path, err)
		}
	}
	if cfg == nil {
		cfg = Default()
	}
	ApplyEnvOverrides(cfg)
	return cfg, nil
}

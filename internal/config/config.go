package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/daprwatch/internal/lister"
	"github.com/loykin/daprwatch/internal/logger"
	"github.com/loykin/daprwatch/internal/watcher"
)

// FileConfig represents the top-level TOML structure.
//
//	process_name = "daprd"
//	process_path = "/usr/local/bin/daprd"   # optional, overrides name matching
//	interval = "2s"
//
//	[log]
//	level = "info"
//	file = "/var/log/daprwatch.log"
//
//	[server]
//	listen = ":8080"
//	base_path = "/api"
//
//	[metrics]
//	enabled = true
//	listen = ":9090"
type FileConfig struct {
	ProcessName string         `toml:"process_name" mapstructure:"process_name"`
	ProcessPath string         `toml:"process_path" mapstructure:"process_path"`
	Interval    time.Duration  `toml:"interval" mapstructure:"interval"`
	Log         *logger.Config `toml:"log" mapstructure:"log"`
	Server      *ServerConfig  `toml:"server" mapstructure:"server"`
	Metrics     *MetricsConfig `toml:"metrics" mapstructure:"metrics"`
}

type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

type MetricsConfig struct {
	Enabled bool   `toml:"enabled" mapstructure:"enabled"`
	Listen  string `toml:"listen" mapstructure:"listen"`
}

// Load parses a TOML config file and applies defaults for anything the
// file leaves out.
func Load(path string) (*FileConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	fc := Default()
	if err := v.Unmarshal(fc); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if fc.ProcessName == "" {
		fc.ProcessName = watcher.DefaultProcessName
	}
	if fc.Interval <= 0 {
		fc.Interval = watcher.DefaultInterval
	}
	return fc, nil
}

// Default returns the configuration used when no file is given.
func Default() *FileConfig {
	return &FileConfig{
		ProcessName: watcher.DefaultProcessName,
		Interval:    watcher.DefaultInterval,
	}
}

// Filter builds the process filter for a scan.
func (c *FileConfig) Filter() lister.Filter {
	return lister.Filter{Name: c.ProcessName, Path: c.ProcessPath}
}

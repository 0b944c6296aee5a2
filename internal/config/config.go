package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// RunConfig holds configuration for one scheduler run.
type RunConfig struct {
	TestRoot     string        // directory walked for test cases
	Pattern      string        // test file glob (default "*_test.sh")
	Interpreter  string        // command used to run a test file
	TickInterval time.Duration // loop polling interval
	LogLevel     string        // debug, info, warn, error
	LogFormat    string        // text, json
	StatusAddr   string        // optional status API listen address
	DBPath       string        // run-history database path
}

// DefaultRunConfig returns sensible defaults.
func DefaultRunConfig() RunConfig {
	return RunConfig{
		TestRoot:     ".",
		Pattern:      "*_test.sh",
		Interpreter:  "/bin/sh",
		TickInterval: time.Second,
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// fileConfig is the YAML shape of a config file. Durations are strings
// ("250ms", "2s") and parsed explicitly.
type fileConfig struct {
	TestRoot     string `yaml:"test_root"`
	Pattern      string `yaml:"pattern"`
	Interpreter  string `yaml:"interpreter"`
	TickInterval string `yaml:"tick_interval"`
	LogLevel     string `yaml:"log_level"`
	LogFormat    string `yaml:"log_format"`
	StatusAddr   string `yaml:"status_addr"`
	DBPath       string `yaml:"db"`
}

// Load reads a YAML config file over the defaults. Fields absent from the
// file keep their default values.
func Load(path string) (RunConfig, error) {
	cfg := DefaultRunConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if file.TestRoot != "" {
		cfg.TestRoot = file.TestRoot
	}
	if file.Pattern != "" {
		cfg.Pattern = file.Pattern
	}
	if file.Interpreter != "" {
		cfg.Interpreter = file.Interpreter
	}
	if file.TickInterval != "" {
		d, err := time.ParseDuration(file.TickInterval)
		if err != nil {
			return cfg, fmt.Errorf("config %s: tick_interval: %w", path, err)
		}
		if d <= 0 {
			return cfg, fmt.Errorf("config %s: tick_interval must be positive", path)
		}
		cfg.TickInterval = d
	}
	if file.LogLevel != "" {
		cfg.LogLevel = file.LogLevel
	}
	if file.LogFormat != "" {
		cfg.LogFormat = file.LogFormat
	}
	if file.StatusAddr != "" {
		cfg.StatusAddr = file.StatusAddr
	}
	if file.DBPath != "" {
		cfg.DBPath = file.DBPath
	}

	return cfg, nil
}

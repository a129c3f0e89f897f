package config

import (
	"os"
	"strings"
	"time"

	"buildcap/internal/errors"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything a capture run needs besides the target path.
type Config struct {
	Driver struct {
		Command string   `yaml:"command"` // build driver executable
		Args    []string `yaml:"args"`    // leading arguments before the msbuild switches
		LogDir  string   `yaml:"log_dir"` // where temporary structured logs go
	} `yaml:"driver"`
	Build struct {
		Configuration string            `yaml:"configuration"`
		Platform      string            `yaml:"platform"`
		Properties    map[string]string `yaml:"properties"`
		Timeout       time.Duration     `yaml:"timeout"` // zero means no deadline
	} `yaml:"build"`
	Reader struct {
		Command string   `yaml:"command"` // converts a structured log to JSON lines; empty reads the log directly
		Args    []string `yaml:"args"`
	} `yaml:"reader"`
	Language string `yaml:"language"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	var cfg Config
	cfg.Driver.Command = "dotnet"
	cfg.Driver.Args = []string{"msbuild"}
	cfg.Build.Configuration = "Debug"
	cfg.Build.Platform = "Any CPU"
	cfg.Language = "C#"
	return &cfg
}

// LoadConfig reads the YAML file at path on top of the defaults. A missing
// file is not an error. Environment variables (optionally from .env) win
// over the file.
func LoadConfig(path string) (*Config, error) {
	// 1. Load .env if exists
	_ = godotenv.Load()

	cfg := Default()

	// 2. Load YAML config
	file, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(file, cfg); err != nil {
			return nil, errors.Wrapf(err, "failed to parse config %s", path)
		}
	case os.IsNotExist(err):
	default:
		return nil, errors.Wrapf(err, "failed to read config %s", path)
	}

	// 3. Override with Environment Variables if present
	if fields := strings.Fields(os.Getenv("BUILDCAP_DRIVER")); len(fields) > 0 {
		cfg.Driver.Command = fields[0]
		cfg.Driver.Args = fields[1:]
	}
	if v := os.Getenv("BUILDCAP_CONFIGURATION"); v != "" {
		cfg.Build.Configuration = v
	}
	if v := os.Getenv("BUILDCAP_PLATFORM"); v != "" {
		cfg.Build.Platform = v
	}
	if v := os.Getenv("BUILDCAP_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid BUILDCAP_TIMEOUT %q", v)
		}
		cfg.Build.Timeout = d
	}
	if fields := strings.Fields(os.Getenv("BUILDCAP_READER_COMMAND")); len(fields) > 0 {
		cfg.Reader.Command = fields[0]
		cfg.Reader.Args = fields[1:]
	}

	if cfg.Driver.Command == "" {
		return nil, errors.WithHint(errors.New("driver command is empty"), "set driver.command in the config file")
	}
	return cfg, nil
}

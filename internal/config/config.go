// Package config provides unified configuration loading for mina.
// It supports YAML or TOML files and environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/nvandessel/mina/internal/constants"
	"gopkg.in/yaml.v3"
)

// MinaConfig contains all mina configuration settings.
type MinaConfig struct {
	// Generator controls synthetic trace generation.
	Generator GeneratorConfig `json:"generator" yaml:"generator" toml:"generator"`

	// Fit controls cascade fitting.
	Fit FitConfig `json:"fit" yaml:"fit" toml:"fit"`

	// Store locates the model catalog.
	Store StoreConfig `json:"store" yaml:"store" toml:"store"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging" toml:"logging"`
}

// GeneratorConfig configures the arrival stream and its output.
type GeneratorConfig struct {
	// Seed is the 64-bit seed for the random source.
	Seed uint64 `json:"seed" yaml:"seed" toml:"seed" env:"MINA_SEED"`

	// Length is the default number of arrivals to generate.
	Length int `json:"length" yaml:"length" toml:"length" env:"MINA_LENGTH"`

	// Model selects the generator: "cascade" or "poisson".
	Model string `json:"model" yaml:"model" toml:"model" env:"MINA_MODEL"`

	// BatchSize is the refill size of the poisson generator.
	// The cascade generator always refills 2^L values.
	BatchSize int `json:"batch_size" yaml:"batch_size" toml:"batch_size" env:"MINA_BATCH_SIZE"`

	// Format is the output format: "text" or "arrow".
	Format string `json:"format" yaml:"format" toml:"format" env:"MINA_FORMAT"`
}

// FitConfig configures cascade fitting.
type FitConfig struct {
	// Strict requires a power-of-two number of increments instead of
	// leaving the remainder out of the fit.
	Strict bool `json:"strict" yaml:"strict" toml:"strict" env:"MINA_STRICT"`
}

// StoreConfig configures the model catalog.
type StoreConfig struct {
	// Path is the directory holding models.db. Empty means ~/.mina.
	// Supports ${VAR} and a leading ~.
	Path string `json:"path" yaml:"path" toml:"path" env:"MINA_STORE_PATH"`
}

// LoggingConfig configures mina's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables event logging to events.jsonl in the store directory.
	Level string `json:"level" yaml:"level" toml:"level" env:"MINA_LOG_LEVEL"`
}

// Default returns a MinaConfig with sensible defaults.
func Default() *MinaConfig {
	return &MinaConfig{
		Generator: GeneratorConfig{
			Seed:      constants.DefaultSeed,
			Length:    constants.DefaultLength,
			Model:     constants.ModelCascade,
			BatchSize: constants.DefaultPoissonBatch,
			Format:    constants.FormatText,
		},
		Fit: FitConfig{
			Strict: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Dir returns the global mina directory (~/.mina).
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, constants.DirName), nil
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.mina/config.yaml (or config.toml) -> environment variables
func Load() (*MinaConfig, error) {
	config := Default()

	if dir, err := Dir(); err == nil {
		for _, name := range []string{"config.yaml", "config.toml"} {
			configPath := filepath.Join(dir, name)
			if _, statErr := os.Stat(configPath); statErr != nil {
				continue
			}
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
			break
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadFromFile loads configuration from a specific YAML or TOML file.
// Files ending in .toml are parsed as TOML, everything else as YAML.
func LoadFromFile(path string) (*MinaConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return config, nil
}

// Save writes the configuration as YAML to path.
func Save(path string, c *MinaConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// StoreDir returns the resolved model catalog directory.
func (c *MinaConfig) StoreDir() (string, error) {
	if c.Store.Path == "" {
		return Dir()
	}
	p := expandEnvVars(c.Store.Path)
	if p == "~" || strings.HasPrefix(p, "~/") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		p = filepath.Join(homeDir, strings.TrimPrefix(p, "~"))
	}
	return p, nil
}

// Validate checks that the configuration is valid.
func (c *MinaConfig) Validate() error {
	if c.Generator.Length < 0 {
		return fmt.Errorf("length must be non-negative, got %d", c.Generator.Length)
	}

	if c.Generator.BatchSize < 0 {
		return fmt.Errorf("batch_size must be non-negative, got %d", c.Generator.BatchSize)
	}

	validModels := map[string]bool{constants.ModelCascade: true, constants.ModelPoisson: true}
	if !validModels[c.Generator.Model] {
		return fmt.Errorf("invalid model: %s (valid: cascade, poisson)", c.Generator.Model)
	}

	validFormats := map[string]bool{constants.FormatText: true, constants.FormatArrow: true}
	if !validFormats[c.Generator.Format] {
		return fmt.Errorf("invalid format: %s (valid: text, arrow)", c.Generator.Format)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// Keys lists the dot-notation keys accepted by Get and Set.
var Keys = []string{
	"generator.seed",
	"generator.length",
	"generator.model",
	"generator.batch_size",
	"generator.format",
	"fit.strict",
	"store.path",
	"logging.level",
}

// Get retrieves a configuration value by dot-notation key.
func (c *MinaConfig) Get(key string) (interface{}, bool) {
	switch key {
	case "generator.seed":
		return c.Generator.Seed, true
	case "generator.length":
		return c.Generator.Length, true
	case "generator.model":
		return c.Generator.Model, true
	case "generator.batch_size":
		return c.Generator.BatchSize, true
	case "generator.format":
		return c.Generator.Format, true
	case "fit.strict":
		return c.Fit.Strict, true
	case "store.path":
		return c.Store.Path, true
	case "logging.level":
		return c.Logging.Level, true
	default:
		return nil, false
	}
}

// Set sets a configuration value by dot-notation key and re-validates.
func (c *MinaConfig) Set(key, value string) error {
	next := *c
	switch key {
	case "generator.seed":
		seed, err := ParseSeed(value)
		if err != nil {
			return err
		}
		next.Generator.Seed = seed
	case "generator.length":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid length: %s", value)
		}
		next.Generator.Length = n
	case "generator.model":
		next.Generator.Model = value
	case "generator.batch_size":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid batch size: %s", value)
		}
		next.Generator.BatchSize = n
	case "generator.format":
		next.Generator.Format = value
	case "fit.strict":
		next.Fit.Strict = value == "true" || value == "1"
	case "store.path":
		next.Store.Path = value
	case "logging.level":
		next.Logging.Level = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

// ParseSeed parses a seed as an unsigned or signed 64-bit integer.
// Negative values keep their two's-complement bit pattern.
func ParseSeed(s string) (uint64, error) {
	if u, err := strconv.ParseUint(s, 0, 64); err == nil {
		return u, nil
	}
	i, err := strconv.ParseInt(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seed: %s (must be a 64-bit integer)", s)
	}
	return uint64(i), nil
}

// applyEnvOverrides applies MINA_* environment variable overrides.
func applyEnvOverrides(config *MinaConfig) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

// expandEnvVars expands ${VAR} patterns in a string with environment variable values.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}

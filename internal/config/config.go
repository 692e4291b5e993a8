package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lucamartinetti/split-resume/internal/progress"
)

// Config defines configuration for the carve CLI.
type Config struct {
	Source       string `yaml:"source"`
	OutputDir    string `yaml:"output_dir"`
	Prefix       string `yaml:"prefix"`
	ChunkSize    int64  `yaml:"chunk_size"`
	SafetyBuffer int64  `yaml:"safety_buffer"`
	Algorithm    string `yaml:"algorithm"`
	Bucket       string `yaml:"bucket"`
	RemotePrefix string `yaml:"remote_prefix"`
	Force        bool   `yaml:"force"`
	Verbose      bool   `yaml:"verbose"`
}

// Default returns a Config with sensible defaults.
func Default() Config {
	return Config{
		OutputDir:    ".",
		ChunkSize:    256 * 1024 * 1024, // 256MB
		SafetyBuffer: 64 * 1024 * 1024,  // 64MB
		Algorithm:    "sha1",
	}
}

// yamlConfig is used for YAML unmarshaling with string byte sizes.
type yamlConfig struct {
	Source       string `yaml:"source"`
	OutputDir    string `yaml:"output_dir"`
	Prefix       string `yaml:"prefix"`
	ChunkSize    string `yaml:"chunk_size"`
	SafetyBuffer string `yaml:"safety_buffer"`
	Algorithm    string `yaml:"algorithm"`
	Bucket       string `yaml:"bucket"`
	RemotePrefix string `yaml:"remote_prefix"`
	Force        bool   `yaml:"force"`
	Verbose      bool   `yaml:"verbose"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config file: %w", err)
	}

	var yc yamlConfig
	if err := yaml.Unmarshal(data, &yc); err != nil {
		return Config{}, fmt.Errorf("parse config file: %w", err)
	}

	cfg := Default()

	if yc.Source != "" {
		cfg.Source = yc.Source
	}
	if yc.OutputDir != "" {
		cfg.OutputDir = yc.OutputDir
	}
	if yc.Prefix != "" {
		cfg.Prefix = yc.Prefix
	}
	if yc.ChunkSize != "" {
		size, err := progress.ParseBytes(yc.ChunkSize)
		if err != nil {
			return Config{}, fmt.Errorf("parse chunk_size: %w", err)
		}
		cfg.ChunkSize = size
	}
	if yc.SafetyBuffer != "" {
		size, err := progress.ParseBytes(yc.SafetyBuffer)
		if err != nil {
			return Config{}, fmt.Errorf("parse safety_buffer: %w", err)
		}
		cfg.SafetyBuffer = size
	}
	if yc.Algorithm != "" {
		cfg.Algorithm = yc.Algorithm
	}
	if yc.Bucket != "" {
		cfg.Bucket = yc.Bucket
	}
	if yc.RemotePrefix != "" {
		cfg.RemotePrefix = yc.RemotePrefix
	}
	cfg.Force = yc.Force
	cfg.Verbose = yc.Verbose

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables.
// Environment variables use the CARVE_ prefix.
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("CARVE_SOURCE"); v != "" {
		c.Source = v
	}
	if v := os.Getenv("CARVE_OUTPUT_DIR"); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv("CARVE_PREFIX"); v != "" {
		c.Prefix = v
	}
	if v := os.Getenv("CARVE_CHUNK_SIZE"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse CARVE_CHUNK_SIZE: %w", err)
		}
		c.ChunkSize = size
	}
	if v := os.Getenv("CARVE_SAFETY_BUFFER"); v != "" {
		size, err := progress.ParseBytes(v)
		if err != nil {
			return fmt.Errorf("parse CARVE_SAFETY_BUFFER: %w", err)
		}
		c.SafetyBuffer = size
	}
	if v := os.Getenv("CARVE_ALGORITHM"); v != "" {
		c.Algorithm = v
	}
	if v := os.Getenv("CARVE_BUCKET"); v != "" {
		c.Bucket = v
	}
	if v := os.Getenv("CARVE_REMOTE_PREFIX"); v != "" {
		c.RemotePrefix = v
	}
	if v := os.Getenv("CARVE_FORCE"); v != "" {
		c.Force = v == "true" || v == "1"
	}
	if v := os.Getenv("CARVE_VERBOSE"); v != "" {
		c.Verbose = v == "true" || v == "1"
	}
	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Source == "" {
		return errors.New("config: source is required")
	}
	if c.OutputDir == "" {
		return errors.New("config: output_dir is required")
	}
	if c.Prefix == "" {
		return errors.New("config: prefix is required")
	}
	if c.ChunkSize <= 0 {
		return errors.New("config: chunk_size must be positive")
	}
	if c.SafetyBuffer < 0 {
		return errors.New("config: safety_buffer must be non-negative")
	}
	return nil
}

// ValidateSync validates the additional parameters sync mode needs.
func (c *Config) ValidateSync() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Bucket == "" {
		return errors.New("config: bucket is required for sync")
	}
	return nil
}

// Merge merges override values into c, returning a new Config.
// Zero values in override are ignored.
func (c Config) Merge(override Config) Config {
	if override.Source != "" {
		c.Source = override.Source
	}
	if override.OutputDir != "" {
		c.OutputDir = override.OutputDir
	}
	if override.Prefix != "" {
		c.Prefix = override.Prefix
	}
	if override.ChunkSize != 0 {
		c.ChunkSize = override.ChunkSize
	}
	if override.SafetyBuffer != 0 {
		c.SafetyBuffer = override.SafetyBuffer
	}
	if override.Algorithm != "" {
		c.Algorithm = override.Algorithm
	}
	if override.Bucket != "" {
		c.Bucket = override.Bucket
	}
	if override.RemotePrefix != "" {
		c.RemotePrefix = override.RemotePrefix
	}
	if override.Force {
		c.Force = override.Force
	}
	if override.Verbose {
		c.Verbose = override.Verbose
	}
	return c
}

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file used when none is given.
const DefaultPath = "postcrawl.yaml"

// Environment variables that override file settings.
const (
	EnvConfig      = "POSTCRAWL_CONFIG"
	EnvContentDir  = "POSTCRAWL_CONTENT_DIR"
	EnvImageDir    = "POSTCRAWL_IMAGE_DIR"
	EnvLedgerPath  = "POSTCRAWL_LEDGER_PATH"
	EnvMaxArticles = "POSTCRAWL_MAX_ARTICLES"
	EnvLogLevel    = "POSTCRAWL_LOG_LEVEL"
)

// LoadFile reads the YAML config at path on top of the defaults. Keys
// missing from the file keep their default values. A missing file yields
// the defaults, not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil // File doesn't exist -- not an error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides settings from the environment. getenv is usually
// os.Getenv.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv(EnvContentDir); v != "" {
		c.ContentDir = v
	}
	if v := getenv(EnvImageDir); v != "" {
		c.ImageDir = v
	}
	if v := getenv(EnvLedgerPath); v != "" {
		c.LedgerPath = v
	}
	if v := getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := getenv(EnvMaxArticles); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, EnvMaxArticles, err)
		}
		c.MaxArticlesPerRun = n
	}
	return nil
}

// Load reads the config file at path, applies environment overrides and
// validates the result.
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

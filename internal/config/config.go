// Package config loads SDK configuration from a YAML file with environment
// variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"virtusize/internal/api"
)

// Config holds all SDK configuration.
type Config struct {
	// APIKey identifies the client system's store.
	APIKey string `yaml:"api_key"`

	// Environment selects the regional server cluster.
	Environment string `yaml:"environment"`

	// ExternalUserID is the client system's ID for the signed-in user,
	// required for order reporting.
	ExternalUserID string `yaml:"external_user_id"`

	// Language selects the localization bundle.
	Language string `yaml:"language"`

	Storage StorageConfig `yaml:"storage"`
	Logging LoggingConfig `yaml:"logging"`
}

// StorageConfig configures local persistence of identity data.
type StorageConfig struct {
	// DatabasePath is the SQLite file holding the browser ID and session
	// tokens. Empty means in-memory only.
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Environment: string(api.EnvGlobal),
		Language:    "en",
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return defaults if config file doesn't exist
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if key := os.Getenv("VIRTUSIZE_API_KEY"); key != "" {
		c.APIKey = key
	}
	if env := os.Getenv("VIRTUSIZE_ENV"); env != "" {
		c.Environment = env
	}
	if id := os.Getenv("VIRTUSIZE_USER_ID"); id != "" {
		c.ExternalUserID = id
	}
}

// Env returns the typed environment for the configured name.
func (c *Config) Env() (api.Environment, error) {
	switch api.Environment(c.Environment) {
	case api.EnvTesting, api.EnvStaging, api.EnvGlobal, api.EnvJapan, api.EnvKorea:
		return api.Environment(c.Environment), nil
	case "":
		return api.EnvGlobal, nil
	default:
		return "", fmt.Errorf("unknown environment %q", c.Environment)
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}
	if _, err := c.Env(); err != nil {
		return err
	}
	return nil
}

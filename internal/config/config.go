// Package config provides application configuration management including
// loading, validation, and persistence of user settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

const (
	// Application metadata
	DefaultVersion = "1.0.0"
	AppVersion     = "1.0.0"

	// File paths
	DefaultConfigPath = ".g3/config.yaml"

	// DefaultQualityTarget is the default Config.QualityTarget, a fraction
	// in [0, 1] that Validate range-checks. The verification path does not
	// read it: write_envelope stamps only when no predicate fails.
	DefaultQualityTarget = 1.0
)

// Config holds the verification core's on-disk, user-editable settings:
// the repository root it operates against, a quality target (stored and
// range-checked, not read by the verification path), and the session identifier correlating a run's
// envelope, rulespec, and audit-ledger rows.
type Config struct {
	Version       string  `yaml:"version"`
	WorkingDir    string  `yaml:"working_dir"`
	QualityTarget float64 `yaml:"quality_target"`
	SessionID     string  `yaml:"session_id,omitempty"`
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.WorkingDir == "" {
		return fmt.Errorf("working directory is required")
	}

	if c.QualityTarget == 0 {
		c.QualityTarget = DefaultQualityTarget
	}
	if c.QualityTarget < 0 || c.QualityTarget > 1 {
		return fmt.Errorf("quality target %v must be between 0 and 1", c.QualityTarget)
	}

	return nil
}

// CheckVersion compares config version with app version.
func (c *Config) CheckVersion() error {
	if c.Version == "" {
		c.Version = AppVersion
		return nil
	}

	if c.Version != AppVersion {
		return fmt.Errorf("config version %s does not match app version %s", c.Version, AppVersion)
	}

	return nil
}

// GetConfigPath returns the default config file path.
func GetConfigPath() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, DefaultConfigPath), nil
}

// LoadConfig loads configuration from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// SaveConfig saves configuration to the specified path.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

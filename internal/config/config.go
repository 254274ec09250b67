package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fenilsonani/dupcleaner/internal/hasher"
	"github.com/fenilsonani/dupcleaner/internal/security"
	"github.com/fenilsonani/dupcleaner/pkg/utils"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	HashAlgorithm      string   `yaml:"hash_algorithm"`
	MinFileSize        string   `yaml:"min_file_size"` // e.g., "1B"
	MaxFileSize        string   `yaml:"max_file_size"` // empty = unlimited
	LockPatterns       []string `yaml:"lock_patterns"`
	ProtectedPaths     []string `yaml:"protected_paths"`
	DryRun             bool     `yaml:"dry_run"`
	TrashDir           string   `yaml:"trash_dir"` // empty = system trash
	LogFile            string   `yaml:"log_file"`
	EnumerationWorkers int      `yaml:"enumeration_workers"`
	ReportSampleSize   int      `yaml:"report_sample_size"`
	Verbose            bool     `yaml:"verbose"`
}

// Load loads configuration from a file. Keys missing from the file keep
// their default values.
func Load(configPath string) (*Config, error) {
	// If config doesn't exist, return default config
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return GetDefault(), nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := GetDefault()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Save saves configuration to a file
func Save(config *Config, configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if _, err := hasher.ParseAlgorithm(c.HashAlgorithm); err != nil {
		return err
	}

	minSize, maxSize, err := c.SizeLimits()
	if err != nil {
		return err
	}
	if maxSize != 0 && minSize > maxSize {
		return fmt.Errorf("min file size %s exceeds max file size %s", c.MinFileSize, c.MaxFileSize)
	}

	// Lock patterns are matched against file names
	for _, pattern := range c.LockPatterns {
		if err := security.ValidateGlobPattern(pattern); err != nil {
			return fmt.Errorf("invalid lock pattern '%s': %w", pattern, err)
		}
	}

	// Validate protected paths are absolute
	for _, path := range c.ProtectedPaths {
		if !filepath.IsAbs(path) {
			return fmt.Errorf("protected path must be absolute: %s", path)
		}
	}

	if c.TrashDir != "" && !filepath.IsAbs(c.TrashDir) {
		return fmt.Errorf("trash dir must be absolute: %s", c.TrashDir)
	}

	if c.EnumerationWorkers < 1 {
		return fmt.Errorf("enumeration workers must be >= 1")
	}
	if c.ReportSampleSize < 1 {
		return fmt.Errorf("report sample size must be >= 1")
	}

	return nil
}

// SizeLimits returns the parsed size window. A max of 0 means unlimited.
func (c *Config) SizeLimits() (minSize, maxSize uint64, err error) {
	lo, err := utils.ParseSize(c.MinFileSize)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid min file size: %w", err)
	}
	hi, err := utils.ParseSize(c.MaxFileSize)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid max file size: %w", err)
	}
	if lo < 0 || hi < 0 {
		return 0, 0, fmt.Errorf("file size limits must be >= 0")
	}
	return uint64(lo), uint64(hi), nil
}

// Algorithm returns the configured digest algorithm, falling back to MD5
func (c *Config) Algorithm() hasher.Algorithm {
	algo, err := hasher.ParseAlgorithm(c.HashAlgorithm)
	if err != nil {
		return hasher.AlgorithmMD5
	}
	return algo
}

// GetConfigPath returns the default config path
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	configDir := filepath.Join(homeDir, ".config", "dupcleaner")
	return filepath.Join(configDir, "config.yaml"), nil
}

// EnsureConfigExists creates a default config file if it doesn't exist
func EnsureConfigExists() (string, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return "", err
	}

	// Check if config exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return "", fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(configPath, []byte(GetExampleConfig()), 0644); err != nil {
			return "", fmt.Errorf("failed to write config file: %w", err)
		}
	}

	return configPath, nil
}

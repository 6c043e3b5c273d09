// Package config loads the optional YAML configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultReadmePath is the profile README of an organization's .github repository.
const DefaultReadmePath = "profile/README.md"

// Config holds defaults for the CLI commands. Flags take precedence.
type Config struct {
	User       string `yaml:"user"`
	Token      string `yaml:"token"` // Inline or ${ENV_VAR}
	TopCount   int    `yaml:"top_count"`
	NewDays    int    `yaml:"new_days"`
	NewLimit   int    `yaml:"new_limit"`
	ReadmePath string `yaml:"readme_path"`
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// Default returns the configuration used when no file is found.
func Default() *Config {
	return &Config{
		TopCount:   8,
		NewDays:    90,
		NewLimit:   5,
		ReadmePath: DefaultReadmePath,
	}
}

// Load reads and parses a configuration file on top of Default, expanding
// environment variable references in the token.
func Load(path string, logger logrus.FieldLogger) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	cfg := Default()
	if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}
	cfg.Token = expandEnv(cfg.Token, logger)

	if validateErr := cfg.Validate(); validateErr != nil {
		return nil, validateErr
	}
	return cfg, nil
}

// Validate rejects non-positive counts.
func (c *Config) Validate() error {
	var errs []error
	if c.TopCount <= 0 {
		errs = append(errs, fmt.Errorf("top_count must be positive, got %d", c.TopCount))
	}
	if c.NewDays <= 0 {
		errs = append(errs, fmt.Errorf("new_days must be positive, got %d", c.NewDays))
	}
	if c.NewLimit <= 0 {
		errs = append(errs, fmt.Errorf("new_limit must be positive, got %d", c.NewLimit))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// FindConfigFile searches for a configuration file in standard locations.
// Returns the path to the first file found or an error if none is found.
func FindConfigFile() (string, error) {
	locations := []string{".", ".config", "configs"}
	if homeDir, err := os.UserHomeDir(); err == nil {
		locations = append(locations, homeDir, filepath.Join(homeDir, ".config"))
	}

	patterns := []string{
		".profile-activity.yaml",
		".profile-activity.yml",
		"profile-activity.yaml",
		"profile-activity.yml",
	}

	for _, loc := range locations {
		for _, pat := range patterns {
			p := filepath.Join(loc, pat)
			if _, statErr := os.Stat(p); statErr == nil {
				return p, nil
			}
		}
	}

	return "", errors.New("config file not found in default locations")
}

func expandEnv(raw string, logger logrus.FieldLogger) string {
	if raw == "" {
		return raw
	}
	return envVarPattern.ReplaceAllStringFunc(raw, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if val := os.Getenv(varName); val != "" {
			return val
		}
		logger.Warnf("Environment variable %q is not set", varName)
		return ""
	})
}

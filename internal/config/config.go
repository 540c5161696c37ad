// Package config loads specsync settings from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration for specsync. Every field is optional:
// the repository and mapping path fall back to git-derived defaults, and
// authentication falls back to the gh CLI session.
type Config struct {
	// Repo is the owner/name slug to sync against. Empty means detect
	// from the current checkout via gh.
	Repo string

	// MappingPath overrides the mapping file location.
	MappingPath string

	// Server settings
	Port int

	// Token authenticates API reads when set. Otherwise the gh CLI
	// session token is reused.
	Token string

	// GitHub App settings, used together instead of Token when set.
	GitHubAppID      string
	GitHubPrivateKey string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Repo:             os.Getenv("SPECSYNC_REPO"),
		MappingPath:      os.Getenv("SPECSYNC_MAPPING_PATH"),
		Port:             getEnvInt("SPECSYNC_PORT", 8090),
		Token:            os.Getenv("GITHUB_TOKEN"),
		GitHubAppID:      os.Getenv("GITHUB_APP_ID"),
		GitHubPrivateKey: normalizePrivateKey(os.Getenv("GITHUB_PRIVATE_KEY")),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// HasAppAuth reports whether GitHub App credentials are fully configured.
func (c *Config) HasAppAuth() bool {
	return c.GitHubAppID != "" && c.GitHubPrivateKey != ""
}

// validate checks cross-field consistency. App credentials must come as
// a pair; a lone half is almost always a deployment mistake.
func (c *Config) validate() error {
	if c.GitHubAppID != "" && c.GitHubPrivateKey == "" {
		return fmt.Errorf("GITHUB_APP_ID is set but GITHUB_PRIVATE_KEY is missing")
	}
	if c.GitHubPrivateKey != "" && c.GitHubAppID == "" {
		return fmt.Errorf("GITHUB_PRIVATE_KEY is set but GITHUB_APP_ID is missing")
	}
	if c.Repo != "" && !strings.Contains(c.Repo, "/") {
		return fmt.Errorf("SPECSYNC_REPO must be owner/name, got %q", c.Repo)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("SPECSYNC_PORT must be between 1 and 65535")
	}
	return nil
}

// normalizePrivateKey unwraps quoting and escaped newlines that creep in
// when a PEM key travels through .env files or CI secret stores.
func normalizePrivateKey(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return ""
	}

	if strings.HasPrefix(trimmed, "\"") && strings.HasSuffix(trimmed, "\"") {
		trimmed = strings.TrimPrefix(trimmed, "\"")
		trimmed = strings.TrimSuffix(trimmed, "\"")
	}
	if strings.HasPrefix(trimmed, "'") && strings.HasSuffix(trimmed, "'") {
		trimmed = strings.TrimPrefix(trimmed, "'")
		trimmed = strings.TrimSuffix(trimmed, "'")
	}

	trimmed = strings.ReplaceAll(trimmed, "\r\n", "\n")
	trimmed = strings.ReplaceAll(trimmed, "\r", "\n")
	if strings.Contains(trimmed, "\\n") {
		trimmed = strings.ReplaceAll(trimmed, "\\r", "")
		trimmed = strings.ReplaceAll(trimmed, "\\n", "\n")
	}

	return trimmed
}

// getEnv gets environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets environment variable as int with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// Package config handles loading and validation of service configuration.
// Supports both development (env vars) and production (Secret Manager)
// modes.
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
)

// DefaultUpstreamTimeout bounds one provider round trip when the site
// config does not set its own.
const DefaultUpstreamTimeout = 30 * time.Second

// Config holds all service configuration. Environment determines whether
// site settings load from env vars (development) or Secret Manager
// (production).
type Config struct {
	// Server settings
	Port        string
	Environment string // "development" or "production"
	LogLevel    string // "debug", "info", "warn", "error"

	// GCP settings (required in production)
	GCPProject string
	SiteID     string

	// Site-specific configuration (loaded from secrets)
	Site SiteConfig
}

// SiteConfig contains per-site proxy settings. In production this is loaded
// from Secret Manager as JSON; in development from env vars or CONFIG_FILE.
type SiteConfig struct {
	// AllowedOrigin for CORS responses. Empty means "*": landing pages
	// are served from many throwaway domains, so the default is open.
	AllowedOrigin string `json:"allowed_origin,omitempty"`

	// ChromeTLS enables the Chrome-fingerprint transport for provider
	// calls. Needed for storefronts behind JA3-fingerprinting CDNs.
	ChromeTLS bool `json:"chrome_tls,omitempty"`

	// UpstreamTimeoutSeconds bounds one provider round trip.
	UpstreamTimeoutSeconds int `json:"upstream_timeout_seconds,omitempty"`
}

// Load reads configuration from file, environment, or Secret Manager.
// Priority: CONFIG_FILE (if set) → ENV vars / Secret Manager.
func Load(ctx context.Context) (*Config, error) {
	if configPath := os.Getenv("CONFIG_FILE"); configPath != "" {
		return loadFromFile(configPath)
	}

	cfg := &Config{
		Port:        envOrDefault("PORT", "8080"),
		Environment: envOrDefault("ENVIRONMENT", "development"),
		LogLevel:    envOrDefault("LOG_LEVEL", "info"),
		GCPProject:  os.Getenv("GCP_PROJECT"),
		SiteID:      os.Getenv("SITE_ID"),
	}

	var err error
	if cfg.Environment == "production" {
		if cfg.GCPProject == "" {
			return nil, fmt.Errorf("GCP_PROJECT required in production environment")
		}
		if cfg.SiteID == "" {
			return nil, fmt.Errorf("SITE_ID required in production environment")
		}
		err = cfg.loadFromSecretManager(ctx)
	} else {
		err = cfg.loadFromEnv()
	}
	if err != nil {
		return nil, fmt.Errorf("loading site config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromFile reads all configuration from a JSON file.
// Used for local development to avoid multiple ENV vars.
func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var fileConfig struct {
		Port        string     `json:"port"`
		Environment string     `json:"environment"`
		LogLevel    string     `json:"log_level"`
		SiteID      string     `json:"site_id"`
		Site        SiteConfig `json:"site"`
	}

	if err := json.Unmarshal(data, &fileConfig); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg := &Config{
		Port:        withDefault(fileConfig.Port, "8080"),
		Environment: withDefault(fileConfig.Environment, "development"),
		LogLevel:    withDefault(fileConfig.LogLevel, "info"),
		SiteID:      fileConfig.SiteID,
		Site:        fileConfig.Site,
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFromSecretManager fetches site config from GCP Secret Manager.
// Secret name format: projects/{project}/secrets/{site_id}/versions/latest
func (c *Config) loadFromSecretManager(ctx context.Context) error {
	client, err := secretmanager.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("creating secret manager client: %w", err)
	}
	defer client.Close()

	secretName := fmt.Sprintf("projects/%s/secrets/%s/versions/latest",
		c.GCPProject, c.SiteID)

	result, err := client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{
		Name: secretName,
	})
	if err != nil {
		return fmt.Errorf("accessing secret %s: %w", secretName, err)
	}

	if err := json.Unmarshal(result.Payload.Data, &c.Site); err != nil {
		return fmt.Errorf("parsing secret JSON: %w", err)
	}

	return nil
}

// loadFromEnv reads site config from individual environment variables.
// Used in development mode for local testing.
func (c *Config) loadFromEnv() error {
	c.Site = SiteConfig{
		AllowedOrigin: os.Getenv("ALLOWED_ORIGIN"),
		ChromeTLS:     os.Getenv("CHROME_TLS") == "true",
	}

	if raw := os.Getenv("UPSTREAM_TIMEOUT_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parsing UPSTREAM_TIMEOUT_SECONDS: %w", err)
		}
		c.Site.UpstreamTimeoutSeconds = seconds
	}

	return nil
}

// validate checks configuration consistency.
func (c *Config) validate() error {
	if c.Site.UpstreamTimeoutSeconds < 0 {
		return fmt.Errorf("upstream_timeout_seconds must not be negative")
	}
	if origin := c.Site.AllowedOrigin; origin != "" && origin != "*" {
		if !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			return fmt.Errorf("allowed_origin must be \"*\" or an absolute origin")
		}
	}
	return nil
}

// UpstreamTimeout returns the configured provider timeout or the default.
func (c *Config) UpstreamTimeout() time.Duration {
	if c.Site.UpstreamTimeoutSeconds > 0 {
		return time.Duration(c.Site.UpstreamTimeoutSeconds) * time.Second
	}
	return DefaultUpstreamTimeout
}

// withDefault returns val if non-empty, otherwise defaultVal.
func withDefault(val, defaultVal string) string {
	if val != "" {
		return val
	}
	return defaultVal
}

// envOrDefault returns the environment variable value or the default if not
// set.
func envOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

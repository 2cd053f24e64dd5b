// Package services implements the deployment orchestrator: the four store
// clients and the command layer that sequences them.
package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v9"
)

// Config holds configuration for all services. Every knob comes from the
// environment; nothing reads process globals after construction.
type Config struct {
	// AWS
	AWSRegion string `env:"AWS_REGION" envDefault:"us-east-1"`

	// Record store
	RecordTableName string `env:"SKIFF_USE_CASES_TABLE" envDefault:"skiff-use-cases"`
	ScanLimit       int32  `env:"SKIFF_SCAN_LIMIT" envDefault:"10"`

	// Soft-deleted records expire after this retention window.
	SoftDeleteRetention time.Duration `env:"SKIFF_SOFT_DELETE_RETENTION" envDefault:"240h"`

	// Stack provisioning
	TemplateBaseURL string `env:"SKIFF_TEMPLATE_BASE_URL"`
	DeployRoleARN   string `env:"SKIFF_DEPLOY_ROLE_ARN"`

	// Config store
	ConfigKeyPrefix string `env:"SKIFF_CONFIG_KEY_PREFIX" envDefault:"/skiff"`

	// HTTP server
	HTTPHost string `env:"SKIFF_HTTP_HOST" envDefault:"127.0.0.1"`
	HTTPPort int    `env:"SKIFF_HTTP_PORT" envDefault:"8080"`

	// Logging
	LogLevel string `env:"SKIFF_LOG_LEVEL" envDefault:"info"`
}

// NewConfig builds a Config from the environment and validates it.
func NewConfig() (*Config, error) {
	c := &Config{}
	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parsing configuration from environment: %w", err)
	}

	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return c, nil
}

func (c *Config) validate() error {
	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warning": true, "error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warning, or error)", c.LogLevel)
	}

	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d (must be 1-65535)", c.HTTPPort)
	}

	if c.RecordTableName == "" {
		return fmt.Errorf("use case table name cannot be empty")
	}

	if c.TemplateBaseURL == "" {
		return fmt.Errorf("template base URL is required - set SKIFF_TEMPLATE_BASE_URL")
	}

	if !strings.HasPrefix(c.ConfigKeyPrefix, "/") {
		return fmt.Errorf("config key prefix must start with '/', got: %s", c.ConfigKeyPrefix)
	}

	if c.ScanLimit < 1 {
		return fmt.Errorf("scan limit must be positive, got: %d", c.ScanLimit)
	}

	if c.SoftDeleteRetention <= 0 {
		return fmt.Errorf("soft delete retention must be positive, got: %v", c.SoftDeleteRetention)
	}

	return nil
}

// GetLogLevel returns the configured log level.
func (c *Config) GetLogLevel() string {
	return c.LogLevel
}

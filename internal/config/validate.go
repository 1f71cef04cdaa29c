package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"go.uber.org/zap/zapcore"
)

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	// Validate server configuration
	if c.Server.Addr == "" {
		return errors.New("server address cannot be empty")
	}

	// Validate address format and port
	if _, err := net.ResolveTCPAddr("tcp", c.Server.Addr); err != nil {
		return fmt.Errorf("invalid server address: %v", err)
	}

	for name, d := range map[string]string{
		"read_timeout":     c.Server.ReadTimeout,
		"write_timeout":    c.Server.WriteTimeout,
		"shutdown_timeout": c.Server.ShutdownTimeout,
	} {
		if d == "" {
			continue
		}
		if _, err := time.ParseDuration(d); err != nil {
			return fmt.Errorf("invalid server %s: %v", name, err)
		}
	}

	// Validate auth configuration
	if c.Auth.Token == "" {
		return errors.New("auth token cannot be empty")
	}

	if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("invalid log level: %v", err)
	}

	// Validate storage configuration
	if c.Storage.AssessmentDB == "" {
		return errors.New("storage assessment_db cannot be empty")
	}
	if c.Storage.AuditDB == "" {
		return errors.New("storage audit_db cannot be empty")
	}

	// Validate engine configuration
	if !c.Engines.Contract.Enabled && !c.Engines.Litigation.Enabled {
		return errors.New("at least one engine must be enabled")
	}
	if c.Engines.Contract.Enabled && c.Engines.Contract.CatalogPath != "" {
		if _, err := os.Stat(c.Engines.Contract.CatalogPath); err != nil {
			return fmt.Errorf("contract catalog_path: %v", err)
		}
	}
	if c.Engines.Batch.MaxParallel <= 0 {
		return errors.New("batch max_parallel must be positive")
	}
	if c.Engines.Batch.MaxItems <= 0 {
		return errors.New("batch max_items must be positive")
	}

	return nil
}

// Duration parses a configured duration, falling back to def when unset or invalid.
func Duration(value string, def time.Duration) time.Duration {
	if value == "" {
		return def
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return def
	}
	return d
}

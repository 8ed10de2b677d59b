package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateStore(); err != nil {
		return err
	}
	if err := c.validateReporting(); err != nil {
		return err
	}
	if err := c.validatePathResolver(); err != nil {
		return err
	}
	if err := c.validateScoring(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateStore() error {
	switch c.Store.Backend {
	case StoreBackendJSON, StoreBackendSQLite:
		return nil
	default:
		return fmt.Errorf("store.backend: unsupported value %q (use %q or %q)", c.Store.Backend, StoreBackendJSON, StoreBackendSQLite)
	}
}

func (c *Config) validateReporting() error {
	if c.Reporting.Endpoint == "" {
		return nil
	}
	parsed, err := url.Parse(c.Reporting.Endpoint)
	if err != nil {
		return fmt.Errorf("reporting.endpoint: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("reporting.endpoint must be an http(s) URL, got %q", c.Reporting.Endpoint)
	}
	return nil
}

func (c *Config) validatePathResolver() error {
	switch c.PathResolver.Mode {
	case ResolverLastSegments, ResolverRelative, ResolverNone:
		return nil
	default:
		return fmt.Errorf("path_resolver.mode: unsupported value %q", c.PathResolver.Mode)
	}
}

func (c *Config) validateScoring() error {
	s := c.Scoring
	if s.FingerprintWeight < 0 || s.TranscriptionWeight < 0 || s.SizeWeight < 0 {
		return errors.New("scoring weights must not be negative")
	}
	if s.Enabled && s.FingerprintWeight+s.TranscriptionWeight+s.SizeWeight == 0 {
		return errors.New("scoring is enabled but every weight is zero")
	}
	if s.Threshold < 0 {
		return errors.New("scoring.threshold must not be negative")
	}
	if s.SizeTolerance < 0 || s.SizeTolerance >= 1 {
		return errors.New("scoring.size_tolerance must be in [0, 1)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}

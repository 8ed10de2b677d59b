package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeCatalog(); err != nil {
		return err
	}
	if err := c.normalizeStore(); err != nil {
		return err
	}
	c.normalizeReporting()
	c.normalizePathResolver()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.SandboxDir) == "" {
		c.Paths.SandboxDir = defaultSandboxDir
	}
	if c.Paths.SandboxDir, err = expandPath(c.Paths.SandboxDir); err != nil {
		return fmt.Errorf("paths.sandbox_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeCatalog() error {
	c.Catalog.Path = strings.TrimSpace(c.Catalog.Path)
	if c.Catalog.Path == "" {
		return nil
	}
	var err error
	if c.Catalog.Path, err = expandPath(c.Catalog.Path); err != nil {
		return fmt.Errorf("catalog.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeStore() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	if c.Store.Backend == "" {
		c.Store.Backend = defaultStoreBackend
	}
	c.Store.Path = strings.TrimSpace(c.Store.Path)
	if c.Store.Path == "" {
		return nil
	}
	var err error
	if c.Store.Path, err = expandPath(c.Store.Path); err != nil {
		return fmt.Errorf("store.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeReporting() {
	c.Reporting.Endpoint = strings.TrimSpace(c.Reporting.Endpoint)
	c.Reporting.Token = strings.TrimSpace(c.Reporting.Token)
	if c.Reporting.Token == "" {
		if value, ok := os.LookupEnv("MEDMATCH_REPORT_TOKEN"); ok {
			c.Reporting.Token = strings.TrimSpace(value)
		}
	}
	c.Reporting.User = strings.TrimSpace(c.Reporting.User)
	if c.Reporting.User == "" {
		c.Reporting.User = defaultReportUser
	}
	if c.Reporting.RequestTimeout <= 0 {
		c.Reporting.RequestTimeout = defaultReportTimeout
	}
}

func (c *Config) normalizePathResolver() {
	c.PathResolver.Mode = strings.ToLower(strings.TrimSpace(c.PathResolver.Mode))
	if c.PathResolver.Mode == "" {
		c.PathResolver.Mode = defaultResolverMode
	}
	if c.PathResolver.Segments <= 0 {
		c.PathResolver.Segments = defaultResolverSegments
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

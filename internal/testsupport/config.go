// Package testsupport holds fixtures shared by package and CLI tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"medmatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Reporting is disabled and metrics export is off unless an option enables
// them.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.SandboxDir = filepath.Join(base, "state", "files")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Reporting.Endpoint = ""
	cfgVal.Reporting.Token = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithBackend selects the mapping store backend.
func WithBackend(backend string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Backend = backend
	}
}

// WithVersionedStore makes the JSON store write the versioned envelope.
func WithVersionedStore() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Store.Versioned = true
	}
}

// WithReportingEndpoint enables unsupported-file reporting.
func WithReportingEndpoint(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Reporting.Endpoint = url
	}
}

// WithCatalogPath points the config at an external catalog file.
func WithCatalogPath(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Catalog.Path = path
	}
}

// WithMetricsTextfile enables the Prometheus textfile export under the base
// directory.
func WithMetricsTextfile() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Metrics.TextfilePath = filepath.Join(b.baseDir, "metrics", "medmatch.prom")
	}
}

// WithScoringDisabled turns off confidence rescue.
func WithScoringDisabled() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Scoring.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(filepath.Dir(cfg.Paths.SandboxDir))
}

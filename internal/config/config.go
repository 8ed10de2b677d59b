package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir   string `toml:"state_dir"`
	SandboxDir string `toml:"sandbox_dir"`
	LogDir     string `toml:"log_dir"`
}

// Catalog selects the meditation catalog source. An empty path uses the
// catalog embedded in the binary.
type Catalog struct {
	Path string `toml:"path"`
}

// Store selects the mapping persistence backend.
type Store struct {
	Backend string `toml:"backend"`
	Path    string `toml:"path"`
	// Versioned writes the mapping inside a {"version":N,"files":{...}} envelope
	// instead of the flat object. Readers accept both shapes.
	Versioned bool `toml:"versioned"`
}

// Reporting configures where unsupported files are submitted.
type Reporting struct {
	Endpoint       string `toml:"endpoint"`
	Token          string `toml:"token"`
	User           string `toml:"user"`
	RequestTimeout int    `toml:"request_timeout"`
}

// PathResolver selects how matched files map to stored relative paths.
type PathResolver struct {
	Mode     string `toml:"mode"`
	Segments int    `toml:"segments"`
}

// Scoring configures the confidence scoring engine.
type Scoring struct {
	Enabled             bool    `toml:"enabled"`
	FingerprintWeight   float64 `toml:"fingerprint_weight"`
	TranscriptionWeight float64 `toml:"transcription_weight"`
	SizeWeight          float64 `toml:"size_weight"`
	Threshold           float64 `toml:"threshold"`
	// SizeTolerance is the relative byte-length difference that still earns a
	// partial size score (0.02 = 2%).
	SizeTolerance float64 `toml:"size_tolerance"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Metrics configures the optional Prometheus textfile export.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Config encapsulates all configuration values for medmatch.
type Config struct {
	Paths        Paths        `toml:"paths"`
	Catalog      Catalog      `toml:"catalog"`
	Store        Store        `toml:"store"`
	Reporting    Reporting    `toml:"reporting"`
	PathResolver PathResolver `toml:"path_resolver"`
	Scoring      Scoring      `toml:"scoring"`
	Logging      Logging      `toml:"logging"`
	Metrics      Metrics      `toml:"metrics"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/medmatch/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if os.IsNotExist(err) {
				return "", false, fmt.Errorf("config file %s does not exist", expanded)
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("medmatch.toml")
	if err != nil {
		return "", false, err
	}
	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the state, sandbox, and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.SandboxDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StorePath returns the mapping store location, defaulting to a file in the
// state directory named after the backend.
func (c *Config) StorePath() string {
	if c.Store.Path != "" {
		return c.Store.Path
	}
	if c.Store.Backend == StoreBackendSQLite {
		return filepath.Join(c.Paths.StateDir, "matched_files.db")
	}
	return filepath.Join(c.Paths.StateDir, "matched_files.json")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

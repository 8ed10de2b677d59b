package preflight

import (
	"context"
	"path/filepath"

	"medmatch/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := Directories(cfg)
	results = append(results, CheckCatalog(cfg.Catalog.Path))
	results = append(results, CheckDirectoryAccess("Store directory", filepath.Dir(cfg.StorePath())))

	if cfg.Reporting.Endpoint != "" {
		results = append(results, CheckEndpoint(ctx, "Reporting endpoint", cfg.Reporting.Endpoint))
	}
	return results
}

// Directories checks the state, sandbox and (when set) log directories.
func Directories(cfg *config.Config) []Result {
	results := []Result{
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckDirectoryAccess("Sandbox directory", cfg.Paths.SandboxDir),
	}
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}

package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medmatch/internal/confidence"
	"medmatch/internal/preflight"
	"medmatch/internal/testsupport"
)

func TestClassifyHypotheticalFile(t *testing.T) {
	env := setupCLITestEnv(t)

	tests := []struct {
		name     string
		args     []string
		id       string
		strategy string
	}{
		{"exact size", []string{"--name", "anything.m4a", "--size", "41943040"}, "m-botec-1", "exact_size"},
		{"size prefix", []string{"--name", "anything.m4a", "--size", "47185999"}, "m-botec-2", "size_prefix"},
		{"file name", []string{"--name", "BOTEC-II.mp3", "--size", "10"}, "m-botec-2", "file_name"},
		{"no match", []string{"--name", "walk.m4a", "--size", "10"}, "-", "unsupported"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := runCLI(t, append([]string{"classify"}, tt.args...), env.configPath)
			if err != nil {
				t.Fatalf("classify: %v", err)
			}
			requireContains(t, out, tt.id)
			requireContains(t, out, tt.strategy)
		})
	}
}

func TestClassifyFileJSON(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "inbox", "track.m4a")
	testsupport.WriteSized(t, path, 41943040)

	out, _, err := runCLI(t, []string{"classify", "--json", path}, env.configPath)
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	var rows []classifyRow
	if err := json.Unmarshal([]byte(out), &rows); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != "m-botec-1" || rows[0].File.Name != "track.m4a" {
		t.Fatalf("unexpected rows %+v", rows)
	}
}

func TestClassifyRequiresInput(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"classify"}, env.configPath); err == nil {
		t.Fatal("expected error without paths or --name")
	}
}

func TestScoreRanksCandidates(t *testing.T) {
	env := setupCLITestEnv(t)
	size := int64(41943040)
	analysis := confidence.AnalyzedFile{Name: "walk.m4a", SizeBytes: &size}
	data, err := json.Marshal(analysis)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(env.baseDir, "walk.analysis.json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write analysis: %v", err)
	}

	out, _, err := runCLI(t, []string{"score", "--json", "--top", "1", path}, env.configPath)
	if err != nil {
		t.Fatalf("score: %v", err)
	}
	var results []confidence.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results) != 1 || results[0].CatalogID != "m-botec-1" {
		t.Fatalf("unexpected ranking %+v", results)
	}
	if results[0].Accepted {
		t.Fatalf("size alone should stay below the default threshold: %+v", results[0])
	}

	out, _, err = runCLI(t, []string{"score", path}, env.configPath)
	if err != nil {
		t.Fatalf("score table: %v", err)
	}
	requireContains(t, out, "none above threshold")
}

func TestScoreRejectsMissingSignals(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "empty.analysis.json")
	if err := os.WriteFile(path, []byte(`{"name":"x.m4a"}`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := runCLI(t, []string{"score", path}, env.configPath); err == nil {
		t.Fatal("expected error for analysis without signals")
	}
}

func TestCatalogListAndCheck(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"catalog", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("catalog list: %v", err)
	}
	requireContains(t, out, "Foundational")
	requireContains(t, out, "m-botec-1")

	out, _, err = runCLI(t, []string{"catalog", "check"}, env.configPath)
	if err != nil {
		t.Fatalf("catalog check: %v", err)
	}
	requireContains(t, out, "Catalog valid")
}

func TestCatalogCheckReportsCollisions(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "bad.toml")
	content := `version = "t"

[[entries]]
id = "a"
name = "A"
  [entries.signatures]
  exact_sizes = [100]

[[entries]]
id = "b"
name = "B"
  [entries.signatures]
  exact_sizes = [100]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	_, _, err := runCLI(t, []string{"catalog", "check", path}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "100") {
		t.Fatalf("expected exact size collision error, got %v", err)
	}
}

func TestCatalogCheckWarnsOnSharedPrefix(t *testing.T) {
	env := setupCLITestEnv(t)
	path := filepath.Join(env.baseDir, "shared.yaml")
	content := `version: "t"
entries:
  - id: a
    name: A
    signatures:
      size_prefixes: ["12345"]
  - id: b
    name: B
    signatures:
      size_prefixes: ["12345"]
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	out, _, err := runCLI(t, []string{"catalog", "check", path}, env.configPath)
	if err != nil {
		t.Fatalf("catalog check: %v", err)
	}
	requireContains(t, out, "12345 shared by a, b; a wins")
}

func TestMappingClear(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.SeedMapping(t, env.cfg, map[string]string{"m-botec-1": "files/a.m4a"})

	out, _, err := runCLI(t, []string{"mapping", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("mapping show: %v", err)
	}
	requireContains(t, out, "files/a.m4a")

	if _, _, err := runCLI(t, []string{"mapping", "clear"}, env.configPath); err != nil {
		t.Fatalf("mapping clear: %v", err)
	}
	out, _, err = runCLI(t, []string{"mapping", "show", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("mapping show: %v", err)
	}
	if strings.TrimSpace(out) != "{}" {
		t.Fatalf("expected empty mapping, got %q", out)
	}
}

func TestPreflightPasses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()
	env := setupCLITestEnv(t, testsupport.WithReportingEndpoint(srv.URL))

	out, _, err := runCLI(t, []string{"preflight", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("preflight: %v", err)
	}
	var results []preflight.Result
	if err := json.Unmarshal([]byte(out), &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	names := make([]string, 0, len(results))
	for _, r := range results {
		if !r.Passed {
			t.Fatalf("check %s failed: %s", r.Name, r.Detail)
		}
		names = append(names, r.Name)
	}
	requireContains(t, strings.Join(names, ","), "Reporting endpoint")
}

func TestPreflightFailsOnUnreachableEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()
	env := setupCLITestEnv(t, testsupport.WithReportingEndpoint(url))

	out, _, err := runCLI(t, []string{"preflight"}, env.configPath)
	if err == nil {
		t.Fatal("expected preflight failure")
	}
	requireContains(t, out, "[ERROR]")
}

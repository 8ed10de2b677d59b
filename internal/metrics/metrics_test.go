package metrics_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"medmatch/internal/metrics"
)

func TestWriteTextfile(t *testing.T) {
	m := metrics.New()
	m.Files.WithLabelValues("matched").Add(3)
	m.PersistenceFailures.Inc()

	path := filepath.Join(t.TempDir(), "textfile", "medmatch.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		`medmatch_import_files_total{disposition="matched"} 3`,
		"medmatch_store_failures_total 1",
	} {
		if !strings.Contains(string(data), want) {
			t.Fatalf("textfile missing %q:\n%s", want, data)
		}
	}
}

func TestNilMetricsWriteIsNoop(t *testing.T) {
	var m *metrics.Metrics
	if err := m.WriteTextfile("/nonexistent/x.prom"); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

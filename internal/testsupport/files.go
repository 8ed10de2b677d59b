package testsupport

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteSized creates a file of exactly size bytes. Large sizes are created
// sparse so catalog-sized fixtures (tens of megabytes) stay cheap. A size
// <= 0 writes a single byte.
func WriteSized(t testing.TB, path string, size int64) {
	t.Helper()

	if size <= 0 {
		size = 1
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	defer f.Close()

	if err := f.Truncate(size); err != nil {
		t.Fatalf("truncate %s: %v", path, err)
	}
}

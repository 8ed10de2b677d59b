package testsupport

import (
	"context"
	"testing"

	"medmatch/internal/batch"
	"medmatch/internal/catalog"
	"medmatch/internal/config"
	"medmatch/internal/signature"
	"medmatch/internal/store"
)

// MustOpenStore opens the configured mapping store and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) store.Backend {
	t.Helper()

	backend, err := store.Open(context.Background(), cfg, nil)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		backend.Close()
	})
	return backend
}

// SeedMapping stores m through the configured backend.
func SeedMapping(t testing.TB, cfg *config.Config, m batch.MatchedFileMap) {
	t.Helper()

	backend := MustOpenStore(t, cfg)
	if err := backend.Set(context.Background(), m); err != nil {
		t.Fatalf("seed mapping: %v", err)
	}
}

// MustDefaultIndex builds the signature index of the embedded catalog.
func MustDefaultIndex(t testing.TB) *signature.Index {
	t.Helper()

	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default: %v", err)
	}
	idx, err := signature.Build(cat)
	if err != nil {
		t.Fatalf("signature.Build: %v", err)
	}
	return idx
}

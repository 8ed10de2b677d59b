package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"medmatch/internal/batch"
	"medmatch/internal/config"
	"medmatch/internal/services"
)

// ErrPersistence marks failures reading or writing the mapping. Callers treat
// it as recoverable: the in-memory result stays valid.
var ErrPersistence = errors.New("persistence failure")

// Gateway is the durable home of the matched file map.
type Gateway interface {
	// Get returns the stored mapping. The boolean is false when nothing has
	// been stored yet.
	Get(ctx context.Context) (batch.MatchedFileMap, bool, error)
	// Set replaces the stored mapping.
	Set(ctx context.Context, m batch.MatchedFileMap) error
	// Remove deletes the stored mapping. Removing an absent mapping succeeds.
	Remove(ctx context.Context) error
}

// Backend is a Gateway that holds resources.
type Backend interface {
	Gateway
	io.Closer
	// Location describes where the mapping lives, for diagnostics.
	Location() string
}

// Open returns the backend selected by cfg.Store.Backend.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Backend, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "store", "open", "nil config", nil)
	}
	path := cfg.StorePath()
	switch cfg.Store.Backend {
	case "", config.StoreBackendJSON:
		return NewFileStore(path, cfg.Store.Versioned, logger), nil
	case config.StoreBackendSQLite:
		return OpenSQLite(ctx, path, logger)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "store", "open",
			fmt.Sprintf("unknown backend %q", cfg.Store.Backend), nil)
	}
}

func wrap(operation, message string, err error) error {
	return services.Wrap(ErrPersistence, "store", operation, message, err)
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"medmatch/internal/batch"
	"medmatch/internal/logging"
)

// EnvelopeVersion is the current version written inside the envelope.
const EnvelopeVersion = 1

const lockRetryDelay = 50 * time.Millisecond

type envelope struct {
	Version *int              `json:"version"`
	Files   map[string]string `json:"files"`
}

// FileStore persists the mapping as JSON on disk.
type FileStore struct {
	path      string
	versioned bool
	lock      *flock.Flock
	logger    *slog.Logger
}

// NewFileStore returns a store at path. With versioned set, writes use the
// {"version":1,"files":{...}} envelope; reads accept either shape.
func NewFileStore(path string, versioned bool, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &FileStore{
		path:      path,
		versioned: versioned,
		lock:      flock.New(path + ".lock"),
		logger:    logging.NewComponentLogger(logger, "store"),
	}
}

// Location returns the JSON file path.
func (s *FileStore) Location() string { return s.path }

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

// Get reads the mapping. A missing or empty file reports absent.
func (s *FileStore) Get(ctx context.Context) (batch.MatchedFileMap, bool, error) {
	ctx = ensureContext(ctx)
	if err := s.acquire(ctx, true); err != nil {
		return nil, false, err
	}
	defer s.release()

	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, wrap("get", "read mapping", err)
	}
	if len(data) == 0 {
		return nil, false, nil
	}
	m, err := Decode(data)
	if err != nil {
		return nil, false, wrap("get", "parse "+s.path, err)
	}
	s.logger.Debug("loaded matched file map",
		logging.Int("entry_count", len(m)),
		logging.String("path", s.path))
	return m, true, nil
}

// Set writes the mapping atomically via a temp file and rename.
func (s *FileStore) Set(ctx context.Context, m batch.MatchedFileMap) error {
	ctx = ensureContext(ctx)
	data, err := Encode(m, s.versioned)
	if err != nil {
		return wrap("set", "marshal mapping", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return wrap("set", "create store directory", err)
	}
	if err := s.acquire(ctx, false); err != nil {
		return err
	}
	defer s.release()

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return wrap("set", "write temp file", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return wrap("set", "rename temp file", err)
	}
	s.logger.Debug("stored matched file map",
		logging.Int("entry_count", len(m)),
		logging.String("path", s.path))
	return nil
}

// Remove deletes the mapping file.
func (s *FileStore) Remove(ctx context.Context) error {
	ctx = ensureContext(ctx)
	if err := s.acquire(ctx, false); err != nil {
		return err
	}
	defer s.release()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return wrap("remove", "delete mapping", err)
	}
	return nil
}

func (s *FileStore) acquire(ctx context.Context, shared bool) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return wrap("lock", "create store directory", err)
	}
	var (
		ok  bool
		err error
	)
	if shared {
		ok, err = s.lock.TryRLockContext(ctx, lockRetryDelay)
	} else {
		ok, err = s.lock.TryLockContext(ctx, lockRetryDelay)
	}
	if err != nil {
		return wrap("lock", "acquire "+s.lock.Path(), err)
	}
	if !ok {
		return wrap("lock", "acquire "+s.lock.Path(), errors.New("lock not acquired"))
	}
	return nil
}

func (s *FileStore) release() {
	if err := s.lock.Unlock(); err != nil {
		logging.WarnWithContext(s.logger, "failed to release store lock", "store_unlock_failed",
			logging.Error(err),
			logging.String("lock_path", s.lock.Path()),
			logging.String(logging.FieldErrorHint, "remove the stale lock file if no other medmatch process is running"),
		)
	}
}

// Decode parses either the flat object or the versioned envelope.
func Decode(data []byte) (batch.MatchedFileMap, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err == nil && env.Version != nil && env.Files != nil {
		if *env.Version > EnvelopeVersion || *env.Version < 1 {
			return nil, fmt.Errorf("unsupported mapping version %d", *env.Version)
		}
		return batch.MatchedFileMap(env.Files), nil
	}
	var flat map[string]string
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, fmt.Errorf("decode mapping: %w", err)
	}
	if flat == nil {
		flat = map[string]string{}
	}
	return batch.MatchedFileMap(flat), nil
}

// Encode renders m as the flat object, or inside the envelope when versioned.
// Keys are sorted.
func Encode(m batch.MatchedFileMap, versioned bool) ([]byte, error) {
	files := map[string]string(m)
	if files == nil {
		files = map[string]string{}
	}
	if !versioned {
		return json.MarshalIndent(files, "", "  ")
	}
	v := EnvelopeVersion
	return json.MarshalIndent(envelope{Version: &v, Files: files}, "", "  ")
}

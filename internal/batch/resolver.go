package batch

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"medmatch/internal/classify"
)

// ErrNoPathResolver is returned when the platform supplies no way to derive
// storage-relative paths.
var ErrNoPathResolver = errors.New("no path resolver available")

// PathResolver derives the storage-relative path recorded for a matched file.
type PathResolver interface {
	Resolve(classify.PickedFile) (string, error)
}

// NoResolver rejects every file with ErrNoPathResolver.
type NoResolver struct{}

func (NoResolver) Resolve(classify.PickedFile) (string, error) {
	return "", ErrNoPathResolver
}

// LastSegments keeps the last N path segments of the sandboxed copy URI,
// falling back to the source URI. The sandbox container path changes between
// installs, so only the tail is stable.
type LastSegments struct {
	N int
}

func (r LastSegments) Resolve(file classify.PickedFile) (string, error) {
	raw := firstNonEmpty(file.CopiedURI, file.SourceURI)
	if raw == "" {
		return "", fmt.Errorf("file %q has no uri", file.Name)
	}
	p, err := LocalPath(raw)
	if err != nil {
		return "", err
	}
	segments := strings.FieldsFunc(p, func(r rune) bool { return r == '/' })
	if len(segments) == 0 {
		return "", fmt.Errorf("uri %q has no path segments", raw)
	}
	n := r.N
	if n <= 0 {
		n = 2
	}
	if n > len(segments) {
		n = len(segments)
	}
	return strings.Join(segments[len(segments)-n:], "/"), nil
}

// RelativeTo records the copy's path relative to Root. Files outside Root
// cannot be resolved.
type RelativeTo struct {
	Root string
}

func (r RelativeTo) Resolve(file classify.PickedFile) (string, error) {
	if strings.TrimSpace(r.Root) == "" {
		return "", ErrNoPathResolver
	}
	raw := firstNonEmpty(file.CopiedURI, file.SourceURI)
	if raw == "" {
		return "", fmt.Errorf("file %q has no uri", file.Name)
	}
	p, err := LocalPath(raw)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(r.Root, p)
	if err != nil {
		return "", fmt.Errorf("relative path for %q: %w", p, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%q is outside %q", p, r.Root)
	}
	return filepath.ToSlash(rel), nil
}

// LocalPath returns the filesystem path of a plain path or file:// URI.
func LocalPath(raw string) (string, error) {
	if !strings.Contains(raw, "://") {
		return raw, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse uri %q: %w", raw, err)
	}
	return u.Path, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

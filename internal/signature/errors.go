package signature

import (
	"errors"
	"fmt"
)

// ErrCatalogIntegrity marks static catalog data that cannot be indexed.
var ErrCatalogIntegrity = errors.New("catalog integrity error")

// CatalogIntegrityError describes which signature broke the index.
type CatalogIntegrityError struct {
	Kind     string // exact_size, size_prefix, file_name_pattern
	Value    string
	EntryID  string
	Conflict string // id already owning the value, when Kind is exact_size
	Err      error
}

func (e *CatalogIntegrityError) Error() string {
	switch {
	case e.Conflict != "":
		return fmt.Sprintf("catalog integrity error: %s %s claimed by both %q and %q", e.Kind, e.Value, e.Conflict, e.EntryID)
	case e.Err != nil:
		return fmt.Sprintf("catalog integrity error: entry %q %s %q: %v", e.EntryID, e.Kind, e.Value, e.Err)
	default:
		return fmt.Sprintf("catalog integrity error: entry %q has invalid %s %q", e.EntryID, e.Kind, e.Value)
	}
}

func (e *CatalogIntegrityError) Is(target error) bool {
	return target == ErrCatalogIntegrity
}

func (e *CatalogIntegrityError) Unwrap() error {
	return e.Err
}

package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.toml
var embeddedCatalog []byte

// Format names a catalog encoding.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
)

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	cat, err := Parse(embeddedCatalog, FormatTOML)
	if err != nil {
		return nil, fmt.Errorf("embedded catalog: %w", err)
	}
	return cat, nil
}

// LoadFile reads a catalog from disk, choosing the decoder by extension.
func LoadFile(path string) (*Catalog, error) {
	var format Format
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		format = FormatTOML
	case ".yaml", ".yml":
		format = FormatYAML
	default:
		return nil, fmt.Errorf("catalog %s: unsupported extension (use .toml, .yaml or .yml)", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	cat, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("catalog %s: %w", path, err)
	}
	return cat, nil
}

// Load returns the catalog at path, or the embedded catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Default()
	}
	return LoadFile(path)
}

// Parse decodes and validates a catalog document.
func Parse(data []byte, format Format) (*Catalog, error) {
	var cat Catalog
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cat); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cat); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", format)
	}
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	return &cat, nil
}

// ErrInvalidEntry marks structural problems with an entry (missing id or name,
// duplicate id). Signature conflicts are reported by the signature package.
var ErrInvalidEntry = errors.New("invalid catalog entry")

// Validate checks that every entry has a unique, non-empty id and a name.
func (c *Catalog) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil catalog", ErrInvalidEntry)
	}
	seen := make(map[string]int, len(c.Entries))
	for i, entry := range c.Entries {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			return fmt.Errorf("%w: entry %d has no id", ErrInvalidEntry, i)
		}
		if id != entry.ID {
			return fmt.Errorf("%w: id %q has surrounding whitespace", ErrInvalidEntry, entry.ID)
		}
		if strings.TrimSpace(entry.Name) == "" {
			return fmt.Errorf("%w: entry %q has no name", ErrInvalidEntry, id)
		}
		if prev, ok := seen[id]; ok {
			return fmt.Errorf("%w: id %q declared at entries %d and %d", ErrInvalidEntry, id, prev, i)
		}
		seen[id] = i
	}
	return nil
}

// Lookup returns the entry with the given id.
func (c *Catalog) Lookup(id string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	for _, entry := range c.Entries {
		if entry.ID == id {
			return entry, true
		}
	}
	return Entry{}, false
}

// Group is a display section of the catalog.
type Group struct {
	ID      string
	Entries []Entry
}

// Groups returns entries sectioned by GroupID, in order of first appearance.
func (c *Catalog) Groups() []Group {
	if c == nil {
		return nil
	}
	index := make(map[string]int)
	var groups []Group
	for _, entry := range c.Entries {
		pos, ok := index[entry.GroupID]
		if !ok {
			pos = len(groups)
			index[entry.GroupID] = pos
			groups = append(groups, Group{ID: entry.GroupID})
		}
		groups[pos].Entries = append(groups[pos].Entries, entry)
	}
	return groups
}

// WithAnalysis returns the entries that carry fingerprint or transcript data,
// in declaration order.
func (c *Catalog) WithAnalysis() []Entry {
	if c == nil {
		return nil
	}
	out := make([]Entry, 0, len(c.Entries))
	for _, entry := range c.Entries {
		if entry.HasAnalysis() {
			out = append(out, entry)
		}
	}
	return out
}

package signature

import (
	"regexp"
	"strconv"

	"medmatch/internal/catalog"
)

// PrefixLength is the number of leading decimal digits used for size-prefix
// matching.
const PrefixLength = 5

type compiledPattern struct {
	re *regexp.Regexp
	id string
}

// Index holds the lookup structures derived from one catalog.
type Index struct {
	exactSizeToID map[int64]string
	prefixToIDs   map[string][]string
	patterns      []compiledPattern
	catalog       *catalog.Catalog
}

// Stats summarizes an index for diagnostics.
type Stats struct {
	Entries       int
	ExactSizes    int
	Prefixes      int
	SharedPrefix  int
	Patterns      int
	AnalysisReady int
}

// Build indexes every signature in cat. It fails on the first exact-size
// collision, malformed size prefix, or invalid regular expression.
func Build(cat *catalog.Catalog) (*Index, error) {
	if err := cat.Validate(); err != nil {
		return nil, err
	}
	idx := &Index{
		exactSizeToID: make(map[int64]string),
		prefixToIDs:   make(map[string][]string),
		catalog:       cat,
	}
	for _, entry := range cat.Entries {
		if err := idx.addExactSizes(entry); err != nil {
			return nil, err
		}
		if err := idx.addPrefixes(entry); err != nil {
			return nil, err
		}
		if err := idx.addPatterns(entry); err != nil {
			return nil, err
		}
	}
	return idx, nil
}

// MustBuild is Build for static catalogs known to be valid; it panics on error.
func MustBuild(cat *catalog.Catalog) *Index {
	idx, err := Build(cat)
	if err != nil {
		panic(err)
	}
	return idx
}

func (idx *Index) addExactSizes(entry catalog.Entry) error {
	for _, size := range entry.Signatures.ExactSizes {
		if size <= 0 {
			return &CatalogIntegrityError{Kind: "exact_size", Value: strconv.FormatInt(size, 10), EntryID: entry.ID}
		}
		if owner, ok := idx.exactSizeToID[size]; ok {
			if owner == entry.ID {
				continue
			}
			return &CatalogIntegrityError{
				Kind:     "exact_size",
				Value:    strconv.FormatInt(size, 10),
				EntryID:  entry.ID,
				Conflict: owner,
			}
		}
		idx.exactSizeToID[size] = entry.ID
	}
	return nil
}

func (idx *Index) addPrefixes(entry catalog.Entry) error {
	for _, prefix := range entry.Signatures.SizePrefixes {
		if !validPrefix(prefix) {
			return &CatalogIntegrityError{Kind: "size_prefix", Value: prefix, EntryID: entry.ID}
		}
		ids := idx.prefixToIDs[prefix]
		if containsID(ids, entry.ID) {
			continue
		}
		idx.prefixToIDs[prefix] = append(ids, entry.ID)
	}
	return nil
}

func (idx *Index) addPatterns(entry catalog.Entry) error {
	for _, pattern := range entry.Signatures.FileNamePatterns {
		re, err := regexp.Compile(pattern)
		if err != nil {
			return &CatalogIntegrityError{Kind: "file_name_pattern", Value: pattern, EntryID: entry.ID, Err: err}
		}
		idx.patterns = append(idx.patterns, compiledPattern{re: re, id: entry.ID})
	}
	return nil
}

func validPrefix(prefix string) bool {
	if prefix == "" || len(prefix) > PrefixLength {
		return false
	}
	for _, r := range prefix {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func containsID(ids []string, id string) bool {
	for _, existing := range ids {
		if existing == id {
			return true
		}
	}
	return false
}

// SizePrefix returns the first PrefixLength characters of the decimal byte
// length, or the whole string when it is shorter.
func SizePrefix(size int64) string {
	s := strconv.FormatInt(size, 10)
	if len(s) > PrefixLength {
		return s[:PrefixLength]
	}
	return s
}

// ExactSize returns the id owning size.
func (idx *Index) ExactSize(size int64) (string, bool) {
	id, ok := idx.exactSizeToID[size]
	return id, ok
}

// Prefix returns the ids registered for prefix in declaration order. The
// returned slice must not be modified.
func (idx *Index) Prefix(prefix string) []string {
	return idx.prefixToIDs[prefix]
}

// MatchName returns the id of the first pattern, in declaration order, that
// matches name.
func (idx *Index) MatchName(name string) (string, string, bool) {
	for _, p := range idx.patterns {
		if p.re.MatchString(name) {
			return p.id, p.re.String(), true
		}
	}
	return "", "", false
}

// Catalog returns the catalog the index was built from.
func (idx *Index) Catalog() *catalog.Catalog {
	return idx.catalog
}

// Stats reports index sizes.
func (idx *Index) Stats() Stats {
	s := Stats{
		ExactSizes: len(idx.exactSizeToID),
		Prefixes:   len(idx.prefixToIDs),
		Patterns:   len(idx.patterns),
	}
	if idx.catalog != nil {
		s.Entries = len(idx.catalog.Entries)
		s.AnalysisReady = len(idx.catalog.WithAnalysis())
	}
	for _, ids := range idx.prefixToIDs {
		if len(ids) > 1 {
			s.SharedPrefix++
		}
	}
	return s
}

// SharedPrefixes lists prefixes claimed by more than one entry, with the
// winning id first. Useful for reviewing catalog ambiguity.
func (idx *Index) SharedPrefixes() map[string][]string {
	out := make(map[string][]string)
	for prefix, ids := range idx.prefixToIDs {
		if len(ids) > 1 {
			out[prefix] = append([]string(nil), ids...)
		}
	}
	return out
}

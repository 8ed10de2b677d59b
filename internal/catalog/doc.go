// Package catalog describes the fixed set of meditations medmatch can
// recognise.
//
// A Catalog is an explicit value: callers load it once (the embedded default
// or an external TOML/YAML file) and hand it to signature.Build. Entries keep
// their declaration order, which is the tie-break order for every ambiguous
// signature.
package catalog

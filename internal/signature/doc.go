// Package signature precomputes lookup structures from a catalog's matching
// signatures so classification is a map lookup or a short ordered regex scan
// instead of a walk over every entry.
//
// Build is a pure function of the catalog. Exact sizes must be unambiguous
// catalog-wide; a collision is reported as a CatalogIntegrityError and no
// index is produced. Size prefixes and filename patterns may be shared across
// entries; declaration order decides which id wins.
package signature

// Package store persists the catalog id to relative path mapping between
// runs.
//
// Two backends implement Gateway. FileStore keeps the mapping as a flat JSON
// object (optionally inside a versioned envelope) written atomically under a
// cross-process file lock. SQLiteStore keeps one row per catalog id and
// replaces the whole mapping in a single transaction. Either way a Set either
// lands completely or leaves the previous mapping untouched.
package store

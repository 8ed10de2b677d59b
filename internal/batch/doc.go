// Package batch classifies a list of picked files and merges the matches
// into a previously stored id to path mapping.
//
// Match is pure. It never mutates the caller's map, it preserves input order
// for the unsupported list, and it never aborts because of a single file:
// invalid input and unresolvable paths become unsupported entries with a
// reason code. Persistence and reporting are left to the caller.
package batch

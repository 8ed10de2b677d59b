// Package importer runs one import: pick files, classify them, merge with
// the stored mapping, optionally rescue unmatched files through confidence
// scoring, report what is left and persist the result.
//
// Only picker cancellation stops an import early. Reporting failures are
// logged and swallowed. A persistence failure is returned as a recoverable
// error together with the complete in-memory Report so callers can still
// show what matched. When the stored mapping cannot be read the store is not
// written at all. Sandbox copies of files that did not match are removed.
package importer

// Package picker supplies picked files to the import workflow.
//
// A Picker either completes with a (possibly empty) list of files or reports
// that the user cancelled; the two are distinct and only cancellation stops
// an import before classification. FSPicker reads files from disk, sniffs
// their MIME type, copies them into the sandbox and loads optional
// "<file>.analysis.json" sidecars for confidence scoring.
package picker

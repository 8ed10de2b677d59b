// Package preflight provides readiness checks for the filesystem paths,
// catalog and collaborators medmatch depends on.
//
// The CLI "medmatch preflight" command runs RunAll; "medmatch import" runs
// the directory checks before touching the sandbox. Checks for optional
// features are skipped when the feature is not configured.
package preflight

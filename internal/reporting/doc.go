// Package reporting submits unsupported files to a support endpoint so they
// can be added to the catalog.
//
// NewReporter returns an HTTP reporter when an endpoint is configured and a
// noop reporter otherwise. Failures are returned wrapped in ErrReporting;
// callers log them and move on.
package reporting

// Package config loads, normalizes, and validates medmatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// MEDMATCH_REPORT_TOKEN. The Config type centralizes every knob the CLI and the
// import workflow need: state and sandbox directories, catalog source, mapping
// store backend, reporting endpoint, and scoring weights.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config

// Package main hosts the medmatch CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging, the catalog's
// signature index and the mapping store into the internal packages: import
// runs the full workflow, classify and score expose the two matching paths
// for a single file, and catalog, mapping, config and preflight cover
// inspection and maintenance.
//
// Keep this package lean: add new functionality by extending the internal
// packages first, then surface it through dedicated commands or flags here.
package main

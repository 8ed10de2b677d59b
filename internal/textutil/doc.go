// Package textutil provides text processing utilities for transcript
// comparison and filename handling.
//
// The primary use cases are:
//   - Folding text to a case- and accent-insensitive form
//   - Building term-frequency vectors from transcripts and comparing them
//   - Splitting filenames into whole-word tokens
//   - Sanitizing filenames for safe sandbox copies
//
// Term vectors lowercase and fold text, split on non-alphanumeric characters,
// and drop tokens shorter than 3 characters.
package textutil

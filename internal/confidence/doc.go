// Package confidence ranks catalog candidates for an analyzed file by a
// weighted sum of independent similarity signals.
//
// Each signal (fingerprint, transcription, size) yields a score in [0, 1].
// The combined score is the raw weighted sum; weights need not add up to 1,
// in which case the engine warns but still scores. A result is accepted only
// when its combined score reaches the policy threshold. Similarity functions
// are pluggable; the defaults compare precomputed fingerprints and
// transcript term vectors and never touch audio.
package confidence

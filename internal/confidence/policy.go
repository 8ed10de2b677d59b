package confidence

import (
	"fmt"
	"math"
)

// Weights scale each signal in the combined score. A zero weight disables
// the signal.
type Weights struct {
	Fingerprint   float64 `json:"fingerprint"`
	Transcription float64 `json:"transcription"`
	Size          float64 `json:"size"`
}

// Sum returns the total weight.
func (w Weights) Sum() float64 {
	return w.Fingerprint + w.Transcription + w.Size
}

func (w Weights) zero() bool {
	return w.Fingerprint == 0 && w.Transcription == 0 && w.Size == 0
}

// Policy centralizes scoring weights and acceptance rules.
type Policy struct {
	Weights Weights
	// Threshold applies to the raw weighted sum.
	Threshold float64
	// SizeTolerance is the relative size difference still credited by the
	// size signal, e.g. 0.02 for two percent.
	SizeTolerance float64
}

const weightSumEpsilon = 1e-9

// DefaultPolicy favours fingerprints over transcripts and uses size as a
// tie-breaker.
func DefaultPolicy() Policy {
	return Policy{
		Weights:       Weights{Fingerprint: 0.5, Transcription: 0.3, Size: 0.2},
		Threshold:     0.6,
		SizeTolerance: 0.02,
	}
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()

	if p.Weights.zero() {
		p.Weights = d.Weights
	}
	if p.Threshold < 0 {
		p.Threshold = d.Threshold
	}
	if p.SizeTolerance < 0 || p.SizeTolerance >= 1 {
		p.SizeTolerance = d.SizeTolerance
	}
	return p
}

// Validate rejects policies that cannot produce meaningful rankings.
func (p Policy) Validate() error {
	w := p.Weights
	named := []struct {
		name  string
		value float64
	}{
		{"fingerprint", w.Fingerprint},
		{"transcription", w.Transcription},
		{"size", w.Size},
	}
	for _, n := range named {
		if n.value < 0 || math.IsNaN(n.value) || math.IsInf(n.value, 0) {
			return fmt.Errorf("%s weight must be a finite non-negative number, got %v", n.name, n.value)
		}
	}
	if w.zero() {
		return fmt.Errorf("at least one weight must be positive")
	}
	if p.Threshold < 0 || p.Threshold > w.Sum()+weightSumEpsilon {
		return fmt.Errorf("threshold %.3f must be within [0, %.3f]", p.Threshold, w.Sum())
	}
	if p.SizeTolerance < 0 || p.SizeTolerance >= 1 {
		return fmt.Errorf("size tolerance %.3f must be within [0, 1)", p.SizeTolerance)
	}
	return nil
}

// Warnings lists soft problems that do not block scoring.
func (p Policy) Warnings() []string {
	var out []string
	if sum := p.Weights.Sum(); math.Abs(sum-1) > weightSumEpsilon {
		out = append(out, fmt.Sprintf("scoring weights sum to %.3f, not 1; combined scores are not on a 0-1 scale", sum))
	}
	return out
}

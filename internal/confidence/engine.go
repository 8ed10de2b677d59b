package confidence

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"medmatch/internal/catalog"
	"medmatch/internal/logging"
)

// Method records which signals contributed to a combined score.
type Method string

const (
	MethodFingerprint   Method = "fingerprint"
	MethodTranscription Method = "transcription"
	MethodSize          Method = "size"
	MethodCombined      Method = "combined"
	MethodNone          Method = "none"
)

// ErrNoSignals is returned when an analyzed file carries nothing to compare.
var ErrNoSignals = errors.New("analyzed file has no fingerprint, transcript, or size")

// AnalyzedFile is a file with precomputed analysis data.
type AnalyzedFile struct {
	Name        string               `json:"name"`
	SizeBytes   *int64               `json:"size_bytes,omitempty"`
	Fingerprint *catalog.Fingerprint `json:"fingerprint,omitempty"`
	Transcript  []catalog.Excerpt    `json:"transcript,omitempty"`
}

// HasAnalysis reports whether fingerprint or transcript data is present.
func (f AnalyzedFile) HasAnalysis() bool {
	return f.Fingerprint != nil || len(f.Transcript) > 0
}

// Result is the score of one candidate.
type Result struct {
	CatalogID          string  `json:"catalog_id"`
	FingerprintScore   float64 `json:"fingerprint_score"`
	TranscriptionScore float64 `json:"transcription_score"`
	SizeScore          float64 `json:"size_score"`
	CombinedScore      float64 `json:"combined_score"`
	Method             Method  `json:"method"`
	Accepted           bool    `json:"accepted"`
}

// Engine scores analyzed files against catalog candidates.
type Engine struct {
	policy      Policy
	fingerprint FingerprintSimilarity
	transcript  TextSimilarity
	logger      *slog.Logger
	warnings    []string
}

// Option configures an Engine.
type Option func(*Engine)

// WithFingerprintSimilarity replaces PeakCorrelation.
func WithFingerprintSimilarity(fn FingerprintSimilarity) Option {
	return func(e *Engine) {
		if fn != nil {
			e.fingerprint = fn
		}
	}
}

// WithTextSimilarity replaces TranscriptCosine.
func WithTextSimilarity(fn TextSimilarity) Option {
	return func(e *Engine) {
		if fn != nil {
			e.transcript = fn
		}
	}
}

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine validates policy and builds an engine. Weights that do not sum to
// 1 are logged once and reported by Warnings.
func NewEngine(policy Policy, opts ...Option) (*Engine, error) {
	policy = policy.normalized()
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("confidence policy: %w", err)
	}
	e := &Engine{
		policy:      policy,
		fingerprint: PeakCorrelation,
		transcript:  TranscriptCosine,
		logger:      logging.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = logging.NewComponentLogger(e.logger, "confidence")
	e.warnings = policy.Warnings()
	for _, w := range e.warnings {
		logging.WarnWithContext(e.logger, "scoring weights not normalized", "scoring_weights",
			logging.String("detail", w),
			logging.Float64("weight_sum", policy.Weights.Sum()),
			logging.Float64("threshold", policy.Threshold),
			logging.String(logging.FieldErrorHint, "adjust [scoring] weights to sum to 1 or tune threshold accordingly"),
			logging.String(logging.FieldImpact, "threshold is compared against the raw weighted sum"),
		)
	}
	return e, nil
}

// Policy returns the effective policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Warnings returns soft policy problems detected at construction.
func (e *Engine) Warnings() []string {
	return append([]string(nil), e.warnings...)
}

// Score ranks candidates for file, highest combined score first. Ties keep
// candidate order.
func (e *Engine) Score(file AnalyzedFile, candidates []catalog.Entry) ([]Result, error) {
	if !file.HasAnalysis() && (file.SizeBytes == nil || *file.SizeBytes <= 0) {
		return nil, ErrNoSignals
	}
	w := e.policy.Weights

	var textScores []float64
	if w.Transcription > 0 && len(file.Transcript) > 0 {
		texts := make([]string, len(candidates))
		for i, c := range candidates {
			texts[i] = JoinExcerpts(c.Signatures.Transcription)
		}
		textScores = e.transcript(JoinExcerpts(file.Transcript), texts)
		if len(textScores) != len(candidates) {
			return nil, fmt.Errorf("text similarity returned %d scores for %d candidates", len(textScores), len(candidates))
		}
	}

	results := make([]Result, 0, len(candidates))
	for i, c := range candidates {
		r := Result{CatalogID: c.ID}
		if w.Fingerprint > 0 {
			r.FingerprintScore = clamp(e.fingerprint(file.Fingerprint, c.Signatures.Fingerprint))
		}
		if textScores != nil {
			r.TranscriptionScore = clamp(textScores[i])
		}
		if w.Size > 0 {
			r.SizeScore = sizeSimilarity(file.SizeBytes, c.Signatures, e.policy.SizeTolerance)
		}
		r.CombinedScore = w.Fingerprint*r.FingerprintScore + w.Transcription*r.TranscriptionScore + w.Size*r.SizeScore
		r.Method = e.method(r)
		r.Accepted = r.CombinedScore > 0 && r.CombinedScore >= e.policy.Threshold
		results = append(results, r)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CombinedScore > results[j].CombinedScore
	})

	if len(results) > 0 {
		top := results[0]
		e.logger.Debug("confidence ranking",
			logging.Args(append(logging.DecisionAttrs("confidence_rank", string(top.Method), top.CatalogID),
				logging.String(logging.FieldFileName, file.Name),
				logging.Float64("combined_score", top.CombinedScore),
				logging.Bool("accepted", top.Accepted),
				logging.Int("candidates", len(candidates)),
			)...)...,
		)
	}
	return results, nil
}

func (e *Engine) method(r Result) Method {
	w := e.policy.Weights
	var contributing []Method
	if w.Fingerprint > 0 && r.FingerprintScore > 0 {
		contributing = append(contributing, MethodFingerprint)
	}
	if w.Transcription > 0 && r.TranscriptionScore > 0 {
		contributing = append(contributing, MethodTranscription)
	}
	if w.Size > 0 && r.SizeScore > 0 {
		contributing = append(contributing, MethodSize)
	}
	switch len(contributing) {
	case 0:
		return MethodNone
	case 1:
		return contributing[0]
	default:
		return MethodCombined
	}
}

// Best returns the highest accepted result from a ranking produced by Score.
func Best(results []Result) (Result, bool) {
	for _, r := range results {
		if r.Accepted {
			return r, true
		}
	}
	return Result{}, false
}

// Describe renders a one-line explanation of a result.
func Describe(r Result) string {
	parts := []string{fmt.Sprintf("%s %.3f via %s", r.CatalogID, r.CombinedScore, r.Method)}
	if !r.Accepted {
		parts = append(parts, "below threshold")
	}
	return strings.Join(parts, ", ")
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}

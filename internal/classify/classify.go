package classify

import (
	"errors"
	"fmt"
	"strings"

	"medmatch/internal/signature"
)

// Strategy names the step of the precedence chain that produced a result.
type Strategy string

const (
	StrategyExactSize   Strategy = "exact_size"
	StrategySizePrefix  Strategy = "size_prefix"
	StrategyFileName    Strategy = "file_name"
	StrategyUnsupported Strategy = "unsupported"
)

// Reason codes attached to unsupported results.
const (
	ReasonNoMatch      = "no_match"
	ReasonInvalidInput = "invalid_input"
)

// PickedFile describes a file handed over by the picker. SizeBytes is nil
// when the platform did not report a size.
type PickedFile struct {
	Name      string `json:"name"`
	SizeBytes *int64 `json:"size_bytes,omitempty"`
	MimeType  string `json:"mime_type,omitempty"`
	SourceURI string `json:"source_uri,omitempty"`
	CopiedURI string `json:"copied_uri,omitempty"`
}

// Size returns the reported size, or zero when unknown.
func (f PickedFile) Size() int64 {
	if f.SizeBytes == nil {
		return 0
	}
	return *f.SizeBytes
}

// SizeOf is a convenience for building PickedFile literals.
func SizeOf(n int64) *int64 {
	return &n
}

// Result is a classification decision.
type Result struct {
	ID       string   `json:"id,omitempty"`
	Strategy Strategy `json:"strategy"`
	// Reason explains the decision: the matched size, prefix or pattern for
	// matches, a reason code for unsupported files.
	Reason string `json:"reason"`
}

// Matched reports whether the result names a catalog entry.
func (r Result) Matched() bool {
	return r.Strategy != StrategyUnsupported && r.ID != ""
}

// ErrInvalidInput marks picked files that violate the classifier contract.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError names the offending field.
type InvalidInputError struct {
	Field string
	File  PickedFile
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: picked file missing %s", e.Field)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Classify runs the precedence chain for file against idx. A blank name is
// the only error; the accompanying result is unsupported with reason
// invalid_input so batch callers can keep going.
func Classify(file PickedFile, idx *signature.Index) (Result, error) {
	if strings.TrimSpace(file.Name) == "" {
		return Result{Strategy: StrategyUnsupported, Reason: ReasonInvalidInput}, &InvalidInputError{Field: "name", File: file}
	}
	if idx == nil {
		return Result{}, errors.New("classify: nil signature index")
	}

	if file.SizeBytes != nil {
		size := *file.SizeBytes
		if id, ok := idx.ExactSize(size); ok {
			return Result{ID: id, Strategy: StrategyExactSize, Reason: fmt.Sprintf("size=%d", size)}, nil
		}
		prefix := signature.SizePrefix(size)
		if ids := idx.Prefix(prefix); len(ids) > 0 {
			return Result{ID: ids[0], Strategy: StrategySizePrefix, Reason: "prefix=" + prefix}, nil
		}
	}

	if id, pattern, ok := idx.MatchName(file.Name); ok {
		return Result{ID: id, Strategy: StrategyFileName, Reason: "pattern=" + pattern}, nil
	}

	return Result{Strategy: StrategyUnsupported, Reason: ReasonNoMatch}, nil
}

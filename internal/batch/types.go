package batch

import (
	"maps"

	"medmatch/internal/classify"
)

// MatchedFileMap maps catalog ids to storage-relative file paths.
type MatchedFileMap map[string]string

// Clone returns an independent copy. A nil map clones to an empty map.
func (m MatchedFileMap) Clone() MatchedFileMap {
	out := make(MatchedFileMap, len(m))
	maps.Copy(out, m)
	return out
}

// Reason codes for unsupported files.
const (
	ReasonNoMatch        = classify.ReasonNoMatch
	ReasonInvalidInput   = classify.ReasonInvalidInput
	ReasonPathUnresolved = "path_unresolved"
	ReasonLowConfidence  = "low_confidence"
)

// UnsupportedFile is a picked file that needs manual resolution.
type UnsupportedFile struct {
	Name   string `json:"name"`
	Type   string `json:"type"`
	Size   int64  `json:"size"`
	URI    string `json:"uri"`
	Reason string `json:"reason,omitempty"`
}

// NewUnsupported builds the report shape for file.
func NewUnsupported(file classify.PickedFile, reason string) UnsupportedFile {
	uri := file.SourceURI
	if uri == "" {
		uri = file.CopiedURI
	}
	return UnsupportedFile{
		Name:   file.Name,
		Type:   file.MimeType,
		Size:   file.Size(),
		URI:    uri,
		Reason: reason,
	}
}

// Disposition names what happened to one file.
type Disposition string

const (
	DispositionMatched     Disposition = "matched"
	DispositionUnsupported Disposition = "unsupported"
	DispositionExcluded    Disposition = "excluded"
)

// Decision records the classification of one file, in input order.
type Decision struct {
	File        classify.PickedFile
	Result      classify.Result
	Disposition Disposition
	Path        string
	Reason      string
	Err         error
}

// Outcome is the partition produced by Match.
type Outcome struct {
	Matched     MatchedFileMap
	Unsupported []UnsupportedFile
	// Excluded counts files dropped by the exclusion filter. They are never
	// reported.
	Excluded  int
	Decisions []Decision
}

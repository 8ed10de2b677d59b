package batch

import (
	"path"
	"strings"

	"medmatch/internal/classify"
	"medmatch/internal/textutil"
)

// ExclusionFilter reports whether an unmatched file is structurally not
// meditation content and should be dropped silently.
type ExclusionFilter func(classify.PickedFile) bool

// DefaultExclusion drops intro tracks, images and PDFs.
func DefaultExclusion(file classify.PickedFile) bool {
	if textutil.HasWord(file.Name, "intro", "introduction") {
		return true
	}
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(file.MimeType)), "image/") {
		return true
	}
	return strings.EqualFold(path.Ext(file.Name), ".pdf")
}

// NoExclusion keeps every unmatched file.
func NoExclusion(classify.PickedFile) bool { return false }

package catalog

// Peak is one spectral peak of an audio fingerprint.
type Peak struct {
	Time float64 `toml:"time" yaml:"time" json:"time"`
	Freq float64 `toml:"freq" yaml:"freq" json:"freq"`
}

// Fingerprint is a precomputed audio fingerprint. medmatch never derives one
// from audio; it only compares stored values.
type Fingerprint struct {
	Hash         string `toml:"hash" yaml:"hash" json:"hash"`
	SpectralHash string `toml:"spectral_hash" yaml:"spectral_hash" json:"spectral_hash"`
	Peaks        []Peak `toml:"peaks" yaml:"peaks" json:"peaks"`
}

// Excerpt is a timed slice of a transcript, in seconds.
type Excerpt struct {
	Text  string  `toml:"text" yaml:"text" json:"text"`
	Start float64 `toml:"start" yaml:"start" json:"start"`
	End   float64 `toml:"end" yaml:"end" json:"end"`
}

// Signatures lists every way a file can be tied to an entry.
type Signatures struct {
	// ExactSizes are byte lengths owned by this entry alone.
	ExactSizes []int64 `toml:"exact_sizes" yaml:"exact_sizes" json:"exact_sizes,omitempty"`
	// SizePrefixes are the leading five digits of the decimal byte length.
	SizePrefixes []string `toml:"size_prefixes" yaml:"size_prefixes" json:"size_prefixes,omitempty"`
	// FileNamePatterns are Go regular expressions matched against the raw
	// file name, case-sensitive unless the pattern says otherwise.
	FileNamePatterns []string     `toml:"file_name_patterns" yaml:"file_name_patterns" json:"file_name_patterns,omitempty"`
	Fingerprint      *Fingerprint `toml:"fingerprint" yaml:"fingerprint" json:"fingerprint,omitempty"`
	Transcription    []Excerpt    `toml:"transcription" yaml:"transcription" json:"transcription,omitempty"`
}

// Entry is one known meditation.
type Entry struct {
	ID         string     `toml:"id" yaml:"id" json:"id"`
	Name       string     `toml:"name" yaml:"name" json:"name"`
	GroupID    string     `toml:"group" yaml:"group" json:"group"`
	Signatures Signatures `toml:"signatures" yaml:"signatures" json:"signatures"`
}

// HasAnalysis reports whether the entry carries fingerprint or transcript
// data usable by the confidence engine.
func (e Entry) HasAnalysis() bool {
	return e.Signatures.Fingerprint != nil || len(e.Signatures.Transcription) > 0
}

// Catalog is an ordered list of entries plus a version label.
type Catalog struct {
	Version string  `toml:"version" yaml:"version" json:"version"`
	Entries []Entry `toml:"entries" yaml:"entries" json:"entries"`
}

package confidence

import (
	"math"
	"strings"

	"medmatch/internal/catalog"
	"medmatch/internal/signature"
	"medmatch/internal/textutil"
)

// FingerprintSimilarity compares two precomputed fingerprints.
type FingerprintSimilarity func(file, candidate *catalog.Fingerprint) float64

// TextSimilarity scores a transcript against every candidate transcript at
// once so corpus statistics can be shared. The result has one score per
// candidate, in order.
type TextSimilarity func(transcript string, candidates []string) []float64

// Peak matching tolerances used by PeakCorrelation.
const (
	PeakTimeTolerance = 0.1  // seconds
	PeakFreqTolerance = 0.02 // relative
	spectralHashScore = 0.9
)

// PeakCorrelation scores identical hashes as 1, identical spectral hashes as
// 0.9, and otherwise the fraction of peaks that line up within tolerance.
func PeakCorrelation(file, candidate *catalog.Fingerprint) float64 {
	if file == nil || candidate == nil {
		return 0
	}
	if file.Hash != "" && strings.EqualFold(file.Hash, candidate.Hash) {
		return 1
	}
	if file.SpectralHash != "" && strings.EqualFold(file.SpectralHash, candidate.SpectralHash) {
		return spectralHashScore
	}
	if len(file.Peaks) == 0 || len(candidate.Peaks) == 0 {
		return 0
	}
	used := make([]bool, len(candidate.Peaks))
	matched := 0
	for _, p := range file.Peaks {
		for i, q := range candidate.Peaks {
			if used[i] || !peaksAlign(p, q) {
				continue
			}
			used[i] = true
			matched++
			break
		}
	}
	return float64(matched) / float64(max(len(file.Peaks), len(candidate.Peaks)))
}

func peaksAlign(a, b catalog.Peak) bool {
	if math.Abs(a.Time-b.Time) > PeakTimeTolerance {
		return false
	}
	ref := math.Max(math.Abs(a.Freq), math.Abs(b.Freq))
	if ref == 0 {
		return true
	}
	return math.Abs(a.Freq-b.Freq)/ref <= PeakFreqTolerance
}

// TranscriptCosine compares TF-IDF term vectors. IDF statistics come from
// the file transcript plus every candidate transcript.
func TranscriptCosine(transcript string, candidates []string) []float64 {
	scores := make([]float64, len(candidates))
	fileVec := textutil.NewTermVector(transcript)
	if fileVec == nil {
		return scores
	}
	corpus := textutil.NewCorpus()
	corpus.Add(fileVec)
	vectors := make([]*textutil.TermVector, len(candidates))
	for i, text := range candidates {
		vectors[i] = textutil.NewTermVector(text)
		corpus.Add(vectors[i])
	}
	idf := corpus.IDF()
	weighted := fileVec.WithIDF(idf)
	for i, v := range vectors {
		if v == nil {
			continue
		}
		scores[i] = textutil.CosineSimilarity(weighted, v.WithIDF(idf))
	}
	return scores
}

// JoinExcerpts concatenates excerpt text in order.
func JoinExcerpts(excerpts []catalog.Excerpt) string {
	parts := make([]string, 0, len(excerpts))
	for _, e := range excerpts {
		if t := strings.TrimSpace(e.Text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

// sizeSimilarity credits the closest exact size linearly within tolerance.
// Entries without exact sizes fall back to a half-score on a shared size
// prefix.
func sizeSimilarity(size *int64, sig catalog.Signatures, tolerance float64) float64 {
	if size == nil || *size <= 0 {
		return 0
	}
	best := 0.0
	for _, want := range sig.ExactSizes {
		if want <= 0 {
			continue
		}
		diff := math.Abs(float64(*size-want)) / float64(want)
		var s float64
		switch {
		case diff == 0:
			s = 1
		case tolerance > 0 && diff <= tolerance:
			s = 1 - diff/tolerance
		}
		best = math.Max(best, s)
	}
	if best > 0 || len(sig.ExactSizes) > 0 {
		return best
	}
	prefix := signature.SizePrefix(*size)
	for _, p := range sig.SizePrefixes {
		if p == prefix {
			return 0.5
		}
	}
	return 0
}

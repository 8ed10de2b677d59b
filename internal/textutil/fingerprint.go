package textutil

import "math"

// TermVector is a term-frequency vector for transcript comparison.
type TermVector struct {
	tokens map[string]float64
	norm   float64
}

// NewTermVector creates a vector from the provided text.
// Returns nil if the text produces no valid tokens.
func NewTermVector(text string) *TermVector {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	return newVector(counts)
}

func newVector(weights map[string]float64) *TermVector {
	var norm float64
	for _, w := range weights {
		norm += w * w
	}
	return &TermVector{tokens: weights, norm: math.Sqrt(norm)}
}

// Tokenize folds text and splits it into tokens of at least 3 characters.
func Tokenize(text string) []string {
	words := Words(text)
	terms := make([]string, 0, len(words))
	for _, token := range words {
		if len([]rune(token)) < 3 {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// TokenCount returns the number of unique tokens in the vector.
func (v *TermVector) TokenCount() int {
	if v == nil {
		return 0
	}
	return len(v.tokens)
}

// WithIDF returns a new vector with TF-IDF weights applied. Terms absent from
// the IDF map retain their original weight.
func (v *TermVector) WithIDF(idf map[string]float64) *TermVector {
	if v == nil || len(idf) == 0 {
		return v
	}
	weighted := make(map[string]float64, len(v.tokens))
	for token, count := range v.tokens {
		w := count
		if idfVal, ok := idf[token]; ok {
			w *= idfVal
		}
		if w == 0 {
			continue
		}
		weighted[token] = w
	}
	if len(weighted) == 0 {
		return nil
	}
	return newVector(weighted)
}

// Corpus collects document frequency statistics for IDF computation.
type Corpus struct {
	docCount int
	docFreq  map[string]int
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{docFreq: make(map[string]int)}
}

// Add registers a vector's unique terms in the corpus.
func (c *Corpus) Add(v *TermVector) {
	if c == nil || v == nil {
		return
	}
	c.docCount++
	for token := range v.tokens {
		c.docFreq[token]++
	}
}

// IDF computes smoothed inverse document frequency weights:
// 1 + log((N+1)/(1+df)). The leading 1 keeps terms shared by every document
// from vanishing, which matters when only one candidate is compared.
func (c *Corpus) IDF() map[string]float64 {
	if c == nil || c.docCount == 0 {
		return nil
	}
	idf := make(map[string]float64, len(c.docFreq))
	n := float64(c.docCount)
	for term, df := range c.docFreq {
		idf[term] = 1 + math.Log((n+1)/(1+float64(df)))
	}
	return idf
}

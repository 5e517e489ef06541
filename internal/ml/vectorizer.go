package ml

import (
	"math"
	"sort"
	"strings"
)

// SparseVector maps feature index to weight for a single document.
type SparseVector map[int]float64

// TfidfVectorizer is a unigram+bigram TF-IDF vectorizer with document
// frequency cutoffs and a bounded vocabulary, fit on the training split only.
// Exported fields make the fitted state gob-serializable.
type TfidfVectorizer struct {
	MaxFeatures int
	MinDF       int
	MaxDF       float64
	NgramMin    int
	NgramMax    int

	Vocabulary map[string]int
	IDF        []float64
}

func NewTfidfVectorizer() *TfidfVectorizer {
	return &TfidfVectorizer{
		MaxFeatures: 5000,
		MinDF:       2,
		MaxDF:       0.8,
		NgramMin:    1,
		NgramMax:    2,
	}
}

func (v *TfidfVectorizer) ngrams(doc string) []string {
	words := strings.Fields(doc)
	var grams []string
	for n := v.NgramMin; n <= v.NgramMax; n++ {
		for i := 0; i+n <= len(words); i++ {
			grams = append(grams, strings.Join(words[i:i+n], " "))
		}
	}
	return grams
}

// Fit builds the vocabulary and IDF table from the given documents.
func (v *TfidfVectorizer) Fit(docs []string) {
	nDocs := len(docs)
	docFreq := make(map[string]int)
	termFreq := make(map[string]int)

	for _, doc := range docs {
		seen := make(map[string]bool)
		for _, g := range v.ngrams(doc) {
			termFreq[g]++
			if !seen[g] {
				docFreq[g]++
				seen[g] = true
			}
		}
	}

	// Terms with df strictly above max_df*n are pruned; the cutoff stays a
	// float, so df=2 of 2 docs is above 1.6 and goes.
	maxDFCount := v.MaxDF * float64(nDocs)
	type term struct {
		gram  string
		count int
	}
	var kept []term
	for g, df := range docFreq {
		if df < v.MinDF {
			continue
		}
		if nDocs > 1 && float64(df) > maxDFCount {
			continue
		}
		kept = append(kept, term{gram: g, count: termFreq[g]})
	}

	// Bound the vocabulary by corpus frequency, then index alphabetically so
	// feature order is deterministic.
	if v.MaxFeatures > 0 && len(kept) > v.MaxFeatures {
		sort.Slice(kept, func(i, j int) bool {
			if kept[i].count != kept[j].count {
				return kept[i].count > kept[j].count
			}
			return kept[i].gram < kept[j].gram
		})
		kept = kept[:v.MaxFeatures]
	}
	sort.Slice(kept, func(i, j int) bool { return kept[i].gram < kept[j].gram })

	v.Vocabulary = make(map[string]int, len(kept))
	v.IDF = make([]float64, len(kept))
	for i, t := range kept {
		v.Vocabulary[t.gram] = i
		df := docFreq[t.gram]
		v.IDF[i] = math.Log(float64(1+nDocs)/float64(1+df)) + 1
	}
}

// Transform vectorizes one document with the fitted vocabulary and
// l2-normalizes the result. Unknown terms are ignored.
func (v *TfidfVectorizer) Transform(doc string) SparseVector {
	vec := make(SparseVector)
	for _, g := range v.ngrams(doc) {
		if idx, ok := v.Vocabulary[g]; ok {
			vec[idx] += v.IDF[idx]
		}
	}

	var norm float64
	for _, val := range vec {
		norm += val * val
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx := range vec {
			vec[idx] /= norm
		}
	}
	return vec
}

// NumFeatures reports the fitted vocabulary size.
func (v *TfidfVectorizer) NumFeatures() int {
	return len(v.Vocabulary)
}

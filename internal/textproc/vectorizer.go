// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package textproc

import (
	"errors"
	"math"
	"sort"
)

// ErrEmptyVocabulary is returned by Fit when no document yields a term.
var ErrEmptyVocabulary = errors.New("empty vocabulary")

// ErrNotFitted is returned by Transform on a vectorizer without a vocabulary.
var ErrNotFitted = errors.New("vectorizer not fitted")

// SparseVector is one TF-IDF row. Indices are ascending vocabulary indices.
type SparseVector struct {
	Indices []int
	Values  []float64
}

// Dot returns the inner product with a dense weight vector.
func (v SparseVector) Dot(dense []float64) float64 {
	var sum float64
	for i, idx := range v.Indices {
		sum += v.Values[i] * dense[idx]
	}
	return sum
}

// Vectorizer is a unigram+bigram TF-IDF model. Its exported fields are the
// fitted state and round-trip through encoding/gob.
type Vectorizer struct {
	MaxFeatures int
	Terms       []string // vocabulary in index order (lexical)
	IDF         []float64

	index map[string]int
}

// NewVectorizer creates an unfitted vectorizer keeping at most maxFeatures
// terms. maxFeatures <= 0 keeps every term.
func NewVectorizer(maxFeatures int) *Vectorizer {
	return &Vectorizer{MaxFeatures: maxFeatures}
}

// Fit learns the vocabulary and idf weights from docs.
//
// When the vocabulary is capped, the most frequent terms across the corpus
// are kept, ties broken by term. Indices are then assigned in lexical order.
func (v *Vectorizer) Fit(docs []string) error {
	type stat struct {
		freq int
		df   int
	}
	stats := make(map[string]*stat)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range Analyze(doc) {
			s := stats[term]
			if s == nil {
				s = &stat{}
				stats[term] = s
			}
			s.freq++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				s.df++
			}
		}
	}
	if len(stats) == 0 {
		return ErrEmptyVocabulary
	}

	terms := make([]string, 0, len(stats))
	for term := range stats {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		sort.SliceStable(terms, func(i, j int) bool {
			return stats[terms[i]].freq > stats[terms[j]].freq
		})
		terms = terms[:v.MaxFeatures]
		sort.Strings(terms)
	}

	n := float64(len(docs))
	idf := make([]float64, len(terms))
	for i, term := range terms {
		idf[i] = math.Log((1+n)/(1+float64(stats[term].df))) + 1
	}

	v.Terms = terms
	v.IDF = idf
	v.index = nil
	v.buildIndex()
	return nil
}

func (v *Vectorizer) buildIndex() {
	if v.index != nil {
		return
	}
	v.index = make(map[string]int, len(v.Terms))
	for i, term := range v.Terms {
		v.index[term] = i
	}
}

// Prepare rebuilds derived lookup state after the exported fields were
// decoded. It must be called before the vectorizer is shared.
func (v *Vectorizer) Prepare() {
	v.buildIndex()
}

// NumFeatures returns the vocabulary size.
func (v *Vectorizer) NumFeatures() int {
	return len(v.Terms)
}

// TransformOne returns the L2-normalized TF-IDF row of one document.
// A document without known terms yields an empty vector.
func (v *Vectorizer) TransformOne(doc string) SparseVector {
	counts := make(map[int]float64)
	for _, term := range Analyze(doc) {
		if idx, ok := v.index[term]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return SparseVector{}
	}

	row := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		row.Indices = append(row.Indices, idx)
	}
	sort.Ints(row.Indices)

	var norm float64
	for _, idx := range row.Indices {
		w := counts[idx] * v.IDF[idx]
		row.Values = append(row.Values, w)
		norm += w * w
	}
	norm = math.Sqrt(norm)
	for i := range row.Values {
		row.Values[i] /= norm
	}
	return row
}

// Transform vectorizes docs with the fitted vocabulary.
func (v *Vectorizer) Transform(docs []string) ([]SparseVector, error) {
	if len(v.Terms) == 0 {
		return nil, ErrNotFitted
	}
	v.buildIndex()
	rows := make([]SparseVector, len(docs))
	for i, doc := range docs {
		rows[i] = v.TransformOne(doc)
	}
	return rows, nil
}

// FitTransform fits on docs and returns their rows.
func (v *Vectorizer) FitTransform(docs []string) ([]SparseVector, error) {
	if err := v.Fit(docs); err != nil {
		return nil, err
	}
	return v.Transform(docs)
}

// TopTerms sums each term's weight over rows and returns the k terms with the
// largest totals, highest first. Equal totals keep vocabulary order.
func (v *Vectorizer) TopTerms(rows []SparseVector, k int) []string {
	if k <= 0 || len(v.Terms) == 0 {
		return []string{}
	}
	sums := make([]float64, len(v.Terms))
	for _, row := range rows {
		for i, idx := range row.Indices {
			sums[idx] += row.Values[i]
		}
	}

	order := make([]int, len(sums))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return sums[order[i]] > sums[order[j]]
	})

	k = min(k, len(order))
	out := make([]string, k)
	for i := range out {
		out[i] = v.Terms[order[i]]
	}
	return out
}

// TopKeywords cleans texts, fits a vectorizer capped at maxFeatures and
// returns the k highest-weighted terms. An empty input or vocabulary yields
// an empty list.
func TopKeywords(texts []string, maxFeatures, k int) []string {
	if len(texts) == 0 {
		return []string{}
	}
	cleaned := make([]string, len(texts))
	for i, t := range texts {
		cleaned[i] = Clean(t)
	}
	v := NewVectorizer(maxFeatures)
	rows, err := v.FitTransform(cleaned)
	if err != nil {
		return []string{}
	}
	return v.TopTerms(rows, k)
}

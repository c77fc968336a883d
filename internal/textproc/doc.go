// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

/*
Package textproc provides the text primitives shared by the keyword extractor
and the star classifier.

# Analysis

Documents are lower-cased and split into maximal runs of two or more word
characters. English stop words are dropped before n-grams are formed, so a
bigram never spans a removed stop word's position:

	"The food is great" -> [food great "food great"]

# TF-IDF

Vectorizer learns a vocabulary of unigrams and bigrams capped by corpus
frequency, then weights raw counts by the smoothed inverse document frequency

	idf(t) = ln((1 + n) / (1 + df(t))) + 1

and L2-normalizes each row. Rows are returned as SparseVector values.

# Lexicon Matching

Matcher is an Aho-Corasick automaton over a fixed set of lexicon groups. It
counts non-overlapping occurrences of each pattern in one pass over the text.

# Thread Safety

A fitted Vectorizer and a built Matcher are immutable and safe for concurrent
use without locking.
*/
package textproc

// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package textproc

import (
	"strings"
	"unicode"
)

// Clean removes every character that is not an ASCII letter, an ASCII digit
// or whitespace, lower-cases the result and trims surrounding whitespace.
func Clean(text string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case unicode.IsSpace(r):
			return r
		default:
			return -1
		}
	}, text)
	return strings.TrimSpace(strings.ToLower(cleaned))
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}

// Tokenize lower-cases text and returns its maximal runs of word characters
// that are at least two runes long.
func Tokenize(text string) []string {
	text = strings.ToLower(text)

	var tokens []string
	start, runes := -1, 0
	flush := func(end int) {
		if start >= 0 && runes >= 2 {
			tokens = append(tokens, text[start:end])
		}
		start, runes = -1, 0
	}
	for i, r := range text {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			runes++
			continue
		}
		flush(i)
	}
	flush(len(text))
	return tokens
}

// Analyze turns a document into its terms: tokens with stop words removed,
// followed by the bigrams of the remaining tokens.
func Analyze(text string) []string {
	tokens := Tokenize(text)
	kept := tokens[:0]
	for _, t := range tokens {
		if !IsStopWord(t) {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 {
		return nil
	}

	terms := make([]string, 0, 2*len(kept)-1)
	terms = append(terms, kept...)
	for i := 0; i+1 < len(kept); i++ {
		terms = append(terms, kept[i]+" "+kept[i+1])
	}
	return terms
}

// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package database

import (
	"math"
	"strconv"
	"strings"
)

// Business is a source business record. Read-only to the precompute jobs.
type Business struct {
	BusinessID  string  `json:"business_id"`
	Name        string  `json:"name"`
	Stars       float64 `json:"stars"`
	ReviewCount int64   `json:"review_count"`
	City        string  `json:"city"`
}

// Review is a source review record. Text is empty when the stored value is NULL.
type Review struct {
	ReviewID   string `json:"review_id"`
	BusinessID string `json:"business_id"`
	UserID     string `json:"user_id"`
	Stars      int    `json:"stars"`
	Text       string `json:"text"`
}

// User is a source user record with the behavioral counters used for clustering.
type User struct {
	UserID       string  `json:"user_id"`
	ReviewCount  int64   `json:"review_count"`
	Useful       int64   `json:"useful"`
	Funny        int64   `json:"funny"`
	Cool         int64   `json:"cool"`
	AverageStars float64 `json:"average_stars"`
}

// ReviewText is the slice of a review the sentiment job needs. HasText is
// false when the stored text is NULL, which excludes the review from keyword
// extraction but still counts it as "" for sentiment.
type ReviewText struct {
	Text    string
	HasText bool
	Stars   int
}

// UserFeatures holds one user's numeric features in a fixed order:
// review_count, useful, funny, cool, average_stars. Missing or
// non-numeric values are already coerced to 0.
type UserFeatures struct {
	UserID   string
	Features [5]float64
}

// FeatureNames lists the user feature columns in UserFeatures order.
var FeatureNames = [5]string{"review_count", "useful", "funny", "cool", "average_stars"}

// LabeledReview is a training example for the star classifier.
type LabeledReview struct {
	Text  string
	Stars int
}

// BusinessNLP is the precomputed sentiment row for one business.
type BusinessNLP struct {
	BusinessID       string
	PositivityScore  float64
	PositiveKeywords []string
	NegativeKeywords []string
}

// UserCluster assigns one user to a cluster.
type UserCluster struct {
	UserID string
	Label  int
}

// BusinessSummary is the first dashboard lookup: the business joined with its
// sentiment row. HasNLP is false when no sentiment row exists.
type BusinessSummary struct {
	Business
	HasNLP           bool
	PositivityScore  float64
	PositiveKeywords string
	NegativeKeywords string
}

// ArchetypeCount is one row of the second dashboard lookup.
type ArchetypeCount struct {
	Label int
	Count int64
}

// JoinKeywords stores a keyword list as a single comma-joined column.
func JoinKeywords(terms []string) string {
	return strings.Join(terms, ",")
}

// SplitKeywords is the inverse of JoinKeywords. An empty column is an empty list.
func SplitKeywords(joined string) []string {
	if joined == "" {
		return []string{}
	}
	return strings.Split(joined, ",")
}

// toFloat coerces a scanned column value to float64. NULLs and values that
// do not parse as numbers become 0.
func toFloat(v any) float64 {
	switch x := v.(type) {
	case nil:
		return 0
	case int64:
		return float64(x)
	case int32:
		return float64(x)
	case int:
		return float64(x)
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case bool:
		if x {
			return 1
		}
		return 0
	case []byte:
		return parseFloat(string(x))
	case string:
		return parseFloat(x)
	default:
		return 0
	}
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package classifier

import (
	"fmt"
	"strconv"
	"strings"
)

// ClassMetrics holds precision, recall and F1 for one class or average.
type ClassMetrics struct {
	Precision float64 `json:"precision" yaml:"precision"`
	Recall    float64 `json:"recall" yaml:"recall"`
	F1        float64 `json:"f1_score" yaml:"f1_score"`
	Support   int     `json:"support" yaml:"support"`
}

// Report is the held-out evaluation of a trained model.
type Report struct {
	Classes     map[string]ClassMetrics `json:"classes" yaml:"classes"`
	Accuracy    float64                 `json:"accuracy" yaml:"accuracy"`
	MacroAvg    ClassMetrics            `json:"macro_avg" yaml:"macro_avg"`
	WeightedAvg ClassMetrics            `json:"weighted_avg" yaml:"weighted_avg"`

	order []int
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// NewReport compares predictions with the true labels for the given classes.
// Precision or recall with a zero denominator is reported as 0.
func NewReport(classes []int, truth, predicted []int) *Report {
	r := &Report{Classes: make(map[string]ClassMetrics, len(classes)), order: classes}

	correct := 0
	for i := range truth {
		if truth[i] == predicted[i] {
			correct++
		}
	}
	r.Accuracy = ratio(correct, len(truth))

	for _, c := range classes {
		var tp, fp, fn, support int
		for i := range truth {
			switch {
			case truth[i] == c && predicted[i] == c:
				tp++
			case truth[i] != c && predicted[i] == c:
				fp++
			case truth[i] == c && predicted[i] != c:
				fn++
			}
			if truth[i] == c {
				support++
			}
		}
		m := ClassMetrics{
			Precision: ratio(tp, tp+fp),
			Recall:    ratio(tp, tp+fn),
			Support:   support,
		}
		if m.Precision+m.Recall > 0 {
			m.F1 = 2 * m.Precision * m.Recall / (m.Precision + m.Recall)
		}
		r.Classes[strconv.Itoa(c)] = m

		r.MacroAvg.Precision += m.Precision / float64(len(classes))
		r.MacroAvg.Recall += m.Recall / float64(len(classes))
		r.MacroAvg.F1 += m.F1 / float64(len(classes))
		if len(truth) > 0 {
			w := float64(support) / float64(len(truth))
			r.WeightedAvg.Precision += m.Precision * w
			r.WeightedAvg.Recall += m.Recall * w
			r.WeightedAvg.F1 += m.F1 * w
		}
	}
	r.MacroAvg.Support = len(truth)
	r.WeightedAvg.Support = len(truth)
	return r
}

// String renders the report as an aligned text table.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%14s %10s %10s %10s %10s\n\n", "", "precision", "recall", "f1-score", "support")
	for _, c := range r.order {
		m := r.Classes[strconv.Itoa(c)]
		fmt.Fprintf(&b, "%14d %10.2f %10.2f %10.2f %10d\n", c, m.Precision, m.Recall, m.F1, m.Support)
	}
	fmt.Fprintf(&b, "\n%14s %10s %10s %10.2f %10d\n", "accuracy", "", "", r.Accuracy, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%14s %10.2f %10.2f %10.2f %10d\n", "macro avg", r.MacroAvg.Precision, r.MacroAvg.Recall, r.MacroAvg.F1, r.MacroAvg.Support)
	fmt.Fprintf(&b, "%14s %10.2f %10.2f %10.2f %10d\n", "weighted avg", r.WeightedAvg.Precision, r.WeightedAvg.Recall, r.WeightedAvg.F1, r.WeightedAvg.Support)
	return b.String()
}

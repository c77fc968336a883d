// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package classifier

import (
	"math"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/tomtom215/reviewscope/internal/textproc"
)

// logisticProblem is the L2-regularized binary log-loss
//
//	C * sum_i [softplus(z_i) - y_i z_i] + 0.5 * ||w||^2,  z_i = w.x_i + b
//
// The intercept b is not regularized. Parameters are packed as [w..., b].
type logisticProblem struct {
	rows   []textproc.SparseVector
	labels []float64 // 0 or 1
	dim    int
	c      float64
	shards [][2]int
}

func newLogisticProblem(rows []textproc.SparseVector, labels []float64, dim int, c float64, workers int) *logisticProblem {
	workers = max(1, min(workers, len(rows)))
	size := (len(rows) + workers - 1) / workers
	shards := make([][2]int, 0, workers)
	for from := 0; from < len(rows); from += size {
		shards = append(shards, [2]int{from, min(from+size, len(rows))})
	}
	return &logisticProblem{rows: rows, labels: labels, dim: dim, c: c, shards: shards}
}

func softplus(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}

// Func evaluates the objective at x.
func (p *logisticProblem) Func(x []float64) float64 {
	w, b := x[:p.dim], x[p.dim]
	partial := make([]float64, len(p.shards))

	var g errgroup.Group
	for s, shard := range p.shards {
		g.Go(func() error {
			var loss float64
			for i := shard[0]; i < shard[1]; i++ {
				z := p.rows[i].Dot(w) + b
				loss += softplus(z) - p.labels[i]*z
			}
			partial[s] = loss
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // shard workers never fail

	return p.c*floats.Sum(partial) + 0.5*floats.Dot(w, w)
}

// Grad writes the gradient at x into grad.
func (p *logisticProblem) Grad(grad, x []float64) {
	w, b := x[:p.dim], x[p.dim]
	partial := make([][]float64, len(p.shards))

	var g errgroup.Group
	for s, shard := range p.shards {
		g.Go(func() error {
			local := make([]float64, p.dim+1)
			for i := shard[0]; i < shard[1]; i++ {
				row := p.rows[i]
				residual := sigmoid(row.Dot(w)+b) - p.labels[i]
				for k, idx := range row.Indices {
					local[idx] += residual * row.Values[k]
				}
				local[p.dim] += residual
			}
			partial[s] = local
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // shard workers never fail

	clear(grad)
	for _, local := range partial {
		floats.Add(grad, local)
	}
	floats.Scale(p.c, grad)
	floats.Add(grad[:p.dim], w)
}

// fitLogistic minimizes the objective with L-BFGS starting from zero.
// A non-nil result is returned even when the solver reports an error, so
// the caller can keep the last iterate.
func fitLogistic(rows []textproc.SparseVector, labels []float64, dim int, c float64, maxIter, workers int) (*optimize.Result, error) {
	p := newLogisticProblem(rows, labels, dim, c, workers)
	problem := optimize.Problem{
		Func: p.Func,
		Grad: p.Grad,
	}
	settings := &optimize.Settings{
		MajorIterations:   maxIter,
		GradientThreshold: 1e-4,
	}
	return optimize.Minimize(problem, make([]float64, dim+1), settings, &optimize.LBFGS{})
}

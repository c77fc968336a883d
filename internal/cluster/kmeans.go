// Reviewscope - Review Analytics Precomputation and Serving
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/reviewscope

package cluster

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ErrInsufficientData is returned when there are fewer points than clusters.
var ErrInsufficientData = errors.New("insufficient data for clustering")

// Config controls a k-means fit.
type Config struct {
	K         int
	Seed      int64
	NInit     int     // independent k-means++ initializations
	MaxIter   int     // Lloyd iterations per initialization
	Tolerance float64 // relative to the mean feature variance
	Workers   int     // concurrent initializations, 0 means NInit
}

// DefaultConfig returns k=5, seed 42, 10 inits, 300 iterations, tol 1e-4.
func DefaultConfig() Config {
	return Config{K: 5, Seed: 42, NInit: 10, MaxIter: 300, Tolerance: 1e-4}
}

// Result is the best of all initializations.
type Result struct {
	Labels     []int
	Centroids  [][]float64
	Inertia    float64
	Iterations int
	BestInit   int
}

// KMeans clusters points (already scaled) into cfg.K groups. Every label in
// 0..K-1 is used by at least one point. The same points, config and seed
// always produce the same labels.
func KMeans(ctx context.Context, points [][]float64, cfg Config) (*Result, error) {
	if cfg.K <= 0 {
		return nil, fmt.Errorf("k must be positive, got %d", cfg.K)
	}
	if len(points) < cfg.K {
		return nil, fmt.Errorf("%w: %d points for k=%d", ErrInsufficientData, len(points), cfg.K)
	}
	nInit := max(cfg.NInit, 1)
	maxIter := max(cfg.MaxIter, 1)
	tol := cfg.Tolerance * meanVariance(points)

	results := make([]*Result, nInit)
	g, gctx := errgroup.WithContext(ctx)
	workers := cfg.Workers
	if workers <= 0 {
		workers = nInit
	}
	g.SetLimit(workers)
	for run := 0; run < nInit; run++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(run))) //nolint:gosec // deterministic seeding is required
			res := lloyd(gctx, points, kmeansPlusPlus(points, cfg.K, rng), maxIter, tol)
			if res == nil {
				return gctx.Err()
			}
			res.BestInit = run
			results[run] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	best := results[0]
	for _, r := range results[1:] {
		if r.Inertia < best.Inertia {
			best = r
		}
	}
	return best, nil
}

// meanVariance is the average per-feature population variance.
func meanVariance(points [][]float64) float64 {
	dim := len(points[0])
	col := make([]float64, len(points))
	var total float64
	for j := 0; j < dim; j++ {
		for i, p := range points {
			col[i] = p[j]
		}
		_, std := stat.PopMeanStdDev(col, nil)
		total += std * std
	}
	return total / float64(dim)
}

func sqDist(a, b []float64) float64 {
	var d float64
	for i := range a {
		diff := a[i] - b[i]
		d += diff * diff
	}
	return d
}

// kmeansPlusPlus picks k seeds with greedy k-means++: each step samples
// 2+ln(k) candidates proportional to squared distance and keeps the one that
// lowers the potential most.
func kmeansPlusPlus(points [][]float64, k int, rng *rand.Rand) [][]float64 {
	n := len(points)
	trials := 2 + int(math.Log(float64(k)))

	centers := make([][]float64, 0, k)
	centers = append(centers, append([]float64(nil), points[rng.IntN(n)]...))

	closest := make([]float64, n)
	for i, p := range points {
		closest[i] = sqDist(p, centers[0])
	}
	potential := floats.Sum(closest)

	cumulative := make([]float64, n)
	candidateDist := make([]float64, n)
	for len(centers) < k {
		floats.CumSum(cumulative, closest)

		bestIdx, bestPot := -1, math.Inf(1)
		var bestDist []float64
		for t := 0; t < trials; t++ {
			idx := pickWeighted(cumulative, rng.Float64()*potential)
			var pot float64
			for i, p := range points {
				candidateDist[i] = math.Min(closest[i], sqDist(p, points[idx]))
				pot += candidateDist[i]
			}
			if pot < bestPot {
				bestIdx, bestPot = idx, pot
				bestDist = append(bestDist[:0], candidateDist...)
			}
		}
		centers = append(centers, append([]float64(nil), points[bestIdx]...))
		copy(closest, bestDist)
		potential = bestPot
	}
	return centers
}

// pickWeighted returns the first index whose cumulative weight exceeds r.
func pickWeighted(cumulative []float64, r float64) int {
	idx := sort.SearchFloat64s(cumulative, r)
	for idx < len(cumulative)-1 && cumulative[idx] <= r {
		idx++
	}
	return min(idx, len(cumulative)-1)
}

// lloyd refines centers until they move less than tol in total squared
// distance or maxIter is reached. It returns nil if ctx is canceled.
func lloyd(ctx context.Context, points [][]float64, centers [][]float64, maxIter int, tol float64) *Result {
	n, k, dim := len(points), len(centers), len(points[0])
	labels := make([]int, n)
	dist := make([]float64, n)
	counts := make([]int, k)
	next := make([][]float64, k)
	for c := range next {
		next[c] = make([]float64, dim)
	}

	iter := 0
	for iter < maxIter {
		if ctx.Err() != nil {
			return nil
		}
		iter++
		assign(points, centers, labels, dist)

		for c := range next {
			clear(next[c])
			counts[c] = 0
		}
		for i, p := range points {
			floats.Add(next[labels[i]], p)
			counts[labels[i]]++
		}
		relocateEmpty(points, labels, dist, counts, next)
		for c := range next {
			floats.Scale(1/float64(counts[c]), next[c])
		}

		var shift float64
		for c := range centers {
			shift += sqDist(centers[c], next[c])
			copy(centers[c], next[c])
		}
		if shift <= tol {
			break
		}
	}

	inertia := assign(points, centers, labels, dist)
	if densify(labels, dist, k) {
		inertia = refit(points, labels, centers)
	}
	return &Result{
		Labels:     labels,
		Centroids:  centers,
		Inertia:    inertia,
		Iterations: iter,
	}
}

// assign labels every point with its nearest center (lowest index on ties)
// and returns the total squared distance.
func assign(points, centers [][]float64, labels []int, dist []float64) float64 {
	var inertia float64
	for i, p := range points {
		best, bestD := 0, math.Inf(1)
		for c, center := range centers {
			if d := sqDist(p, center); d < bestD {
				best, bestD = c, d
			}
		}
		labels[i] = best
		dist[i] = bestD
		inertia += bestD
	}
	return inertia
}

// farthestOrder returns point indices by descending distance to their
// center, ties by index.
func farthestOrder(dist []float64) []int {
	order := make([]int, len(dist))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return dist[order[a]] > dist[order[b]] })
	return order
}

// relocateEmpty moves the farthest points into clusters that received none.
// sums and counts are updated in place.
func relocateEmpty(points [][]float64, labels []int, dist []float64, counts []int, sums [][]float64) {
	empty := 0
	for _, c := range counts {
		if c == 0 {
			empty++
		}
	}
	if empty == 0 {
		return
	}

	order := farthestOrder(dist)
	next := 0
	for c := range counts {
		if counts[c] != 0 {
			continue
		}
		for next < len(order) && counts[labels[order[next]]] <= 1 {
			next++
		}
		if next == len(order) {
			return
		}
		i := order[next]
		next++
		from := labels[i]
		floats.Sub(sums[from], points[i])
		counts[from]--
		copy(sums[c], points[i])
		counts[c] = 1
		labels[i] = c
		dist[i] = 0
	}
}

// refit moves every center to the mean of its labeled points and returns
// the squared distance of the points to those centers.
func refit(points [][]float64, labels []int, centers [][]float64) float64 {
	counts := make([]int, len(centers))
	for c := range centers {
		clear(centers[c])
	}
	for i, p := range points {
		floats.Add(centers[labels[i]], p)
		counts[labels[i]]++
	}
	for c := range centers {
		if counts[c] > 0 {
			floats.Scale(1/float64(counts[c]), centers[c])
		}
	}
	var inertia float64
	for i, p := range points {
		inertia += sqDist(p, centers[labels[i]])
	}
	return inertia
}

// densify reassigns the farthest points so every label 0..k-1 is used.
// It reports whether any label changed.
func densify(labels []int, dist []float64, k int) bool {
	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}
	order := farthestOrder(dist)
	next, moved := 0, false
	for c := range counts {
		if counts[c] != 0 {
			continue
		}
		for next < len(order) && counts[labels[order[next]]] <= 1 {
			next++
		}
		if next == len(order) {
			return moved
		}
		i := order[next]
		next++
		counts[labels[i]]--
		labels[i] = c
		counts[c] = 1
		moved = true
	}
	return moved
}

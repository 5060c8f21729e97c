// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package pricing

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"
)

// ForestConfig holds random forest hyperparameters.
type ForestConfig struct {
	NumTrees        int
	MaxDepth        int // 0 = grow until leaves are pure or too small
	MinSamplesSplit int
	MinSamplesLeaf  int
	MaxFeatures     int // features tried per split; 0 = all
	Bootstrap       bool
	Seed            int64
	Workers         int // 0 = GOMAXPROCS
}

// DefaultForestConfig returns 100 bootstrapped trees with seed 42.
func DefaultForestConfig() ForestConfig {
	return ForestConfig{
		NumTrees:        100,
		MaxDepth:        0,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		MaxFeatures:     0,
		Bootstrap:       true,
		Seed:            42,
	}
}

func (c ForestConfig) withDefaults() ForestConfig {
	if c.NumTrees <= 0 {
		c.NumTrees = 100
	}
	if c.MinSamplesSplit < 2 {
		c.MinSamplesSplit = 2
	}
	if c.MinSamplesLeaf < 1 {
		c.MinSamplesLeaf = 1
	}
	if c.Workers <= 0 {
		c.Workers = runtime.GOMAXPROCS(0)
	}
	return c
}

// Forest is a fitted bagged ensemble of regression trees. It is immutable
// after FitForest and safe for concurrent Predict calls.
type Forest struct {
	Config      ForestConfig
	NumFeatures int
	Trees       []Tree
	Importances []float64
}

// FitForest grows cfg.NumTrees trees in parallel. Tree i draws its bootstrap
// sample and feature subsets from a PCG stream seeded with (Seed, i), so the
// result does not depend on goroutine scheduling.
func FitForest(ctx context.Context, X [][]float64, y []float64, cfg ForestConfig) (*Forest, error) {
	if len(X) == 0 {
		return nil, schemaErrorf("cannot fit forest on an empty training set")
	}
	if len(X) != len(y) {
		return nil, schemaErrorf("feature rows (%d) and targets (%d) differ", len(X), len(y))
	}
	width := len(X[0])
	if width == 0 {
		return nil, schemaErrorf("feature vectors are empty")
	}
	for i, row := range X {
		if len(row) != width {
			return nil, schemaErrorf("row %d has %d features, want %d", i, len(row), width)
		}
	}

	cfg = cfg.withDefaults()
	f := &Forest{
		Config:      cfg,
		NumFeatures: width,
		Trees:       make([]Tree, cfg.NumTrees),
		Importances: make([]float64, width),
	}
	perTree := make([][]float64, cfg.NumTrees)

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(cfg.Workers, cfg.NumTrees); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				rng := rand.New(rand.NewPCG(uint64(cfg.Seed), uint64(i))) //nolint:gosec // deterministic model seeding
				b := newTreeBuilder(X, y, cfg, rng)
				f.Trees[i] = b.fit(sampleRows(rng, len(X), cfg.Bootstrap))
				perTree[i] = b.importance
			}
		}()
	}

	var cancelled error
	for i := 0; i < cfg.NumTrees; i++ {
		if err := ctx.Err(); err != nil {
			cancelled = err
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	if cancelled != nil {
		return nil, fmt.Errorf("fit forest: %w", cancelled)
	}

	f.Importances = averageImportances(perTree, width)
	return f, nil
}

// sampleRows draws n row indices with replacement, or returns 0..n-1.
func sampleRows(rng *rand.Rand, n int, bootstrap bool) []int {
	rows := make([]int, n)
	for i := range rows {
		if bootstrap {
			rows[i] = rng.IntN(n)
		} else {
			rows[i] = i
		}
	}
	return rows
}

// averageImportances normalises each tree's SSE reductions to sum to one and
// averages them across trees.
func averageImportances(perTree [][]float64, width int) []float64 {
	out := make([]float64, width)
	counted := 0
	for _, imp := range perTree {
		var total float64
		for _, v := range imp {
			total += v
		}
		if total <= 0 {
			continue
		}
		for j, v := range imp {
			out[j] += v / total
		}
		counted++
	}
	if counted > 0 {
		for j := range out {
			out[j] /= float64(counted)
		}
	}
	return out
}

// Predict returns the mean of the tree outputs for x.
func (f *Forest) Predict(x []float64) (float64, error) {
	if len(x) != f.NumFeatures {
		return 0, fmt.Errorf("feature vector has %d values, model expects %d", len(x), f.NumFeatures)
	}
	if len(f.Trees) == 0 {
		return 0, fmt.Errorf("model has no trees")
	}
	var sum float64
	for i := range f.Trees {
		sum += f.Trees[i].predict(x)
	}
	p := sum / float64(len(f.Trees))
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return 0, fmt.Errorf("model produced non-finite output %v", p)
	}
	return p, nil
}

// FeatureImportance pairs a feature name with its normalised importance.
type FeatureImportance struct {
	Feature    string  `json:"feature"`
	Importance float64 `json:"importance"`
}

// TopImportances returns the n most important features, highest first.
// names must come from Pipeline.FeatureNames.
func (f *Forest) TopImportances(names []string, n int) []FeatureImportance {
	out := make([]FeatureImportance, 0, len(f.Importances))
	for i, v := range f.Importances {
		name := fmt.Sprintf("f%d", i)
		if i < len(names) {
			name = names[i]
		}
		out = append(out, FeatureImportance{Feature: name, Importance: v})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Importance > out[b].Importance })
	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

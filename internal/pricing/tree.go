// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package pricing

import (
	"cmp"
	"math/rand/v2"
	"slices"
)

// minGain is the smallest SSE reduction accepted for a split.
const minGain = 1e-12

// Node is one node of a flattened regression tree. Feature is -1 for leaves.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
	Samples   int
}

// Tree is a CART regression tree stored as a node slice rooted at index 0.
type Tree struct {
	Nodes []Node
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Depth returns the number of edges on the longest root-to-leaf path.
func (t *Tree) Depth() int {
	var walk func(i int) int
	walk = func(i int) int {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return 0
		}
		return 1 + max(walk(n.Left), walk(n.Right))
	}
	if len(t.Nodes) == 0 {
		return 0
	}
	return walk(0)
}

// treeBuilder grows one tree on a bootstrap sample. It owns its rng and
// importance accumulator, so builders for different trees never share state.
type treeBuilder struct {
	X          [][]float64
	y          []float64
	cfg        ForestConfig
	rng        *rand.Rand
	nodes      []Node
	importance []float64
	order      []int // scratch buffer for sorting sample indices
}

type split struct {
	feature   int
	threshold float64
	gain      float64
	leftN     int
}

func newTreeBuilder(X [][]float64, y []float64, cfg ForestConfig, rng *rand.Rand) *treeBuilder {
	return &treeBuilder{
		X:          X,
		y:          y,
		cfg:        cfg,
		rng:        rng,
		importance: make([]float64, len(X[0])),
	}
}

func (b *treeBuilder) fit(samples []int) Tree {
	b.order = make([]int, len(samples))
	b.grow(samples, 0)
	return Tree{Nodes: b.nodes}
}

// grow appends the subtree for samples and returns its root index.
func (b *treeBuilder) grow(samples []int, depth int) int {
	mean, sse := b.stats(samples)
	id := len(b.nodes)
	b.nodes = append(b.nodes, Node{Feature: -1, Value: mean, Samples: len(samples)})

	if len(samples) < b.cfg.MinSamplesSplit || len(samples) < 2*b.cfg.MinSamplesLeaf {
		return id
	}
	if b.cfg.MaxDepth > 0 && depth >= b.cfg.MaxDepth {
		return id
	}
	if sse <= minGain {
		return id
	}

	best, ok := b.bestSplit(samples, sse)
	if !ok {
		return id
	}

	left := make([]int, 0, best.leftN)
	right := make([]int, 0, len(samples)-best.leftN)
	for _, s := range samples {
		if b.X[s][best.feature] <= best.threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return id
	}
	b.importance[best.feature] += best.gain

	l := b.grow(left, depth+1)
	r := b.grow(right, depth+1)
	b.nodes[id].Feature = best.feature
	b.nodes[id].Threshold = best.threshold
	b.nodes[id].Left = l
	b.nodes[id].Right = r
	return id
}

func (b *treeBuilder) stats(samples []int) (mean, sse float64) {
	var sum, sumSq float64
	for _, s := range samples {
		sum += b.y[s]
		sumSq += b.y[s] * b.y[s]
	}
	n := float64(len(samples))
	mean = sum / n
	sse = sumSq - sum*sum/n
	if sse < 0 {
		sse = 0
	}
	return mean, sse
}

// candidateFeatures returns the features examined at one node: all of them,
// or a random subset of MaxFeatures.
func (b *treeBuilder) candidateFeatures() []int {
	p := len(b.importance)
	if b.cfg.MaxFeatures <= 0 || b.cfg.MaxFeatures >= p {
		feats := make([]int, p)
		for i := range feats {
			feats[i] = i
		}
		return feats
	}
	return b.rng.Perm(p)[:b.cfg.MaxFeatures]
}

// bestSplit scans every candidate feature for the threshold with the largest
// SSE reduction. Thresholds sit halfway between adjacent distinct values.
func (b *treeBuilder) bestSplit(samples []int, parentSSE float64) (split, bool) {
	var best split
	found := false
	n := len(samples)
	order := b.order[:n]
	minLeaf := b.cfg.MinSamplesLeaf

	var total float64
	for _, s := range samples {
		total += b.y[s]
	}

	for _, f := range b.candidateFeatures() {
		copy(order, samples)
		slices.SortStableFunc(order, func(a, c int) int {
			return cmp.Compare(b.X[a][f], b.X[c][f])
		})

		var leftSum, leftSq float64
		var totalSq float64
		for _, s := range order {
			totalSq += b.y[s] * b.y[s]
		}
		for k := 1; k < n; k++ {
			prev := order[k-1]
			leftSum += b.y[prev]
			leftSq += b.y[prev] * b.y[prev]

			if k < minLeaf || n-k < minLeaf {
				continue
			}
			lo, hi := b.X[prev][f], b.X[order[k]][f]
			if lo == hi {
				continue
			}

			nl, nr := float64(k), float64(n-k)
			rightSum := total - leftSum
			rightSq := totalSq - leftSq
			sseL := leftSq - leftSum*leftSum/nl
			sseR := rightSq - rightSum*rightSum/nr
			gain := parentSSE - sseL - sseR
			if gain > minGain && (!found || gain > best.gain) {
				threshold := lo + (hi-lo)/2
				if threshold >= hi {
					threshold = lo
				}
				best = split{feature: f, threshold: threshold, gain: gain, leftN: k}
				found = true
			}
		}
	}
	return best, found
}

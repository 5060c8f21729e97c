// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package pricing

import (
	"math"
	"slices"
)

// UnseenCategory names the extra one-hot slot in FeatureNames.
const UnseenCategory = "<unseen>"

// Pipeline holds fitted preprocessing state. It is immutable after Fit and
// safe for concurrent Transform calls.
//
// Vector layout: one scaled value per numeric feature in schema order, then
// for each categorical feature a block of len(Vocab[i])+1 slots where the last
// slot is the unseen bucket.
type Pipeline struct {
	Schema FeatureSchema
	Means  []float64
	Stds   []float64
	Vocab  [][]string

	// index[i] maps a category of categorical feature i to its slot.
	index []map[string]int
}

// FitPipeline computes population mean and standard deviation for every
// numeric feature and the sorted vocabulary of every categorical feature.
// Missing values are skipped. An empty record set returns ErrSchema.
func FitPipeline(schema FeatureSchema, records []Record) (*Pipeline, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, schemaErrorf("cannot fit preprocessing on an empty record set")
	}

	p := &Pipeline{
		Schema: schema,
		Means:  make([]float64, len(schema.NumericFeatures)),
		Stds:   make([]float64, len(schema.NumericFeatures)),
		Vocab:  make([][]string, len(schema.CategoricalFeatures)),
	}

	for i, name := range schema.NumericFeatures {
		var sum, n float64
		for _, r := range records {
			if v, ok := r.Numeric[name]; ok {
				sum += v
				n++
			}
		}
		if n == 0 {
			return nil, schemaErrorf("numeric feature %q has no values", name)
		}
		mean := sum / n
		var ss float64
		for _, r := range records {
			if v, ok := r.Numeric[name]; ok {
				ss += (v - mean) * (v - mean)
			}
		}
		p.Means[i] = mean
		p.Stds[i] = math.Sqrt(ss / n)
	}

	for i, name := range schema.CategoricalFeatures {
		set := make(map[string]struct{})
		for _, r := range records {
			if v, ok := r.Categorical[name]; ok {
				set[v] = struct{}{}
			}
		}
		vocab := make([]string, 0, len(set))
		for v := range set {
			vocab = append(vocab, v)
		}
		slices.Sort(vocab)
		p.Vocab[i] = vocab
	}

	p.buildIndex()
	return p, nil
}

// buildIndex rebuilds lookup maps. Called after Fit and after decoding an
// artifact, since the maps are not persisted.
func (p *Pipeline) buildIndex() {
	p.index = make([]map[string]int, len(p.Vocab))
	for i, vocab := range p.Vocab {
		m := make(map[string]int, len(vocab))
		for j, v := range vocab {
			m[v] = j
		}
		p.index[i] = m
	}
}

// slot returns the one-hot position of v within categorical block i, or the
// unseen slot. Falls back to a scan when the index has not been built.
func (p *Pipeline) slot(i int, v string) int {
	if p.index != nil {
		if j, ok := p.index[i][v]; ok {
			return j
		}
		return len(p.Vocab[i])
	}
	if j := slices.Index(p.Vocab[i], v); j >= 0 {
		return j
	}
	return len(p.Vocab[i])
}

// Width is the length of a transformed vector.
func (p *Pipeline) Width() int {
	w := len(p.Schema.NumericFeatures)
	for _, vocab := range p.Vocab {
		w += len(vocab) + 1
	}
	return w
}

// Transform maps a record to a feature vector. It never fails on novel
// categories. A missing numeric value scales to 0 (the fit-time mean) and a
// missing categorical value sets the unseen slot.
func (p *Pipeline) Transform(r Record) []float64 {
	out := make([]float64, p.Width())
	p.transformInto(out, r)
	return out
}

func (p *Pipeline) transformInto(out []float64, r Record) {
	for i, name := range p.Schema.NumericFeatures {
		v, ok := r.Numeric[name]
		if !ok || p.Stds[i] == 0 {
			out[i] = 0
			continue
		}
		out[i] = (v - p.Means[i]) / p.Stds[i]
	}

	off := len(p.Schema.NumericFeatures)
	for i, name := range p.Schema.CategoricalFeatures {
		block := out[off : off+len(p.Vocab[i])+1]
		clear(block)
		slot := len(p.Vocab[i])
		if v, ok := r.Categorical[name]; ok {
			slot = p.slot(i, v)
		}
		block[slot] = 1
		off += len(block)
	}
}

// TransformAll transforms a batch into one contiguous backing array.
func (p *Pipeline) TransformAll(records []Record) [][]float64 {
	w := p.Width()
	backing := make([]float64, w*len(records))
	rows := make([][]float64, len(records))
	for i, r := range records {
		rows[i] = backing[i*w : (i+1)*w : (i+1)*w]
		p.transformInto(rows[i], r)
	}
	return rows
}

// FeatureNames returns one name per vector slot, e.g. "quantity",
// "crop_name=Rice" and "crop_name=<unseen>".
func (p *Pipeline) FeatureNames() []string {
	names := make([]string, 0, p.Width())
	names = append(names, p.Schema.NumericFeatures...)
	for i, name := range p.Schema.CategoricalFeatures {
		for _, v := range p.Vocab[i] {
			names = append(names, name+"="+v)
		}
		names = append(names, name+"="+UnseenCategory)
	}
	return names
}

// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package pricing

import (
	"math"
	"math/rand/v2"
	"slices"
)

// ImputeStats records the fill values used for each column and how many
// cells were filled.
type ImputeStats struct {
	NumericFill     map[string]float64 `json:"numeric_fill"`
	CategoricalFill map[string]string  `json:"categorical_fill"`
	Filled          map[string]int     `json:"filled"`
}

// Impute fills missing numeric values with the column median and missing
// categorical values with the column mode, computed over every record passed
// in. Mode ties resolve to the lexicographically smallest value. A column with
// no observed values returns ErrSchema. Records are updated in place.
func Impute(schema FeatureSchema, records []Record) (ImputeStats, error) {
	stats := ImputeStats{
		NumericFill:     map[string]float64{},
		CategoricalFill: map[string]string{},
		Filled:          map[string]int{},
	}
	if len(records) == 0 {
		return stats, schemaErrorf("cannot impute an empty record set")
	}

	for _, name := range schema.NumericFeatures {
		var observed []float64
		for _, r := range records {
			if v, ok := r.Numeric[name]; ok {
				observed = append(observed, v)
			}
		}
		if len(observed) == len(records) {
			continue
		}
		if len(observed) == 0 {
			return stats, schemaErrorf("numeric column %q has no values", name)
		}
		fill := median(observed)
		stats.NumericFill[name] = fill
		for _, r := range records {
			if _, ok := r.Numeric[name]; !ok {
				r.Numeric[name] = fill
				stats.Filled[name]++
			}
		}
	}

	for _, name := range schema.CategoricalFeatures {
		counts := map[string]int{}
		observed := 0
		for _, r := range records {
			if v, ok := r.Categorical[name]; ok {
				counts[v]++
				observed++
			}
		}
		if observed == len(records) {
			continue
		}
		if observed == 0 {
			return stats, schemaErrorf("categorical column %q has no values", name)
		}
		fill := mode(counts)
		stats.CategoricalFill[name] = fill
		for _, r := range records {
			if _, ok := r.Categorical[name]; !ok {
				r.Categorical[name] = fill
				stats.Filled[name]++
			}
		}
	}
	return stats, nil
}

func median(values []float64) float64 {
	s := slices.Clone(values)
	slices.Sort(s)
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

func mode(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	best := keys[0]
	for _, k := range keys[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return best
}

// splitIndices shuffles 0..n-1 with a PCG stream seeded by seed and returns
// the train and test partitions. The test size is ceil(n*testFraction).
func splitIndices(n int, testFraction float64, seed int64) (train, test []int, err error) {
	nTest := int(math.Ceil(float64(n)*testFraction - 1e-9))
	if nTest < 1 || nTest >= n {
		return nil, nil, schemaErrorf("cannot split %d rows with test fraction %v", n, testFraction)
	}
	rng := rand.New(rand.NewPCG(uint64(seed), 0x5eed)) //nolint:gosec // deterministic split
	perm := rng.Perm(n)
	return perm[nTest:], perm[:nTest], nil
}

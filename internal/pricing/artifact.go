// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package pricing

import (
	"fmt"
	"time"
)

// TrainingSummary is the evaluation record stored with an artifact.
type TrainingSummary struct {
	MAE         float64             `json:"mae"`
	TrainRows   int                 `json:"train_rows"`
	TestRows    int                 `json:"test_rows"`
	TrainedAt   time.Time           `json:"trained_at"`
	Imputation  ImputeStats         `json:"imputation"`
	TopFeatures []FeatureImportance `json:"top_features"`
}

// Artifact is the fitted pipeline and forest produced by one training run.
type Artifact struct {
	Schema   FeatureSchema
	Pipeline *Pipeline
	Forest   *Forest
	Summary  TrainingSummary

	// Version is set by the store on save and load.
	Version int
}

// check verifies that the decoded parts agree with each other. It does not
// modify the artifact.
func (a *Artifact) check() error {
	if a.Pipeline == nil || a.Forest == nil {
		return fmt.Errorf("artifact is incomplete")
	}
	if !a.Schema.Equal(a.Pipeline.Schema) {
		return fmt.Errorf("artifact schema does not match its pipeline")
	}
	if err := a.Schema.CheckServable(); err != nil {
		return err
	}
	if len(a.Pipeline.Means) != len(a.Schema.NumericFeatures) ||
		len(a.Pipeline.Stds) != len(a.Schema.NumericFeatures) ||
		len(a.Pipeline.Vocab) != len(a.Schema.CategoricalFeatures) {
		return fmt.Errorf("pipeline state does not match schema")
	}
	if w := a.Pipeline.Width(); w != a.Forest.NumFeatures {
		return fmt.Errorf("pipeline width %d does not match model width %d", w, a.Forest.NumFeatures)
	}
	return nil
}

// prepare checks a freshly decoded artifact and rebuilds the pipeline's
// lookup index. It must run before the artifact is shared.
func (a *Artifact) prepare() error {
	if err := a.check(); err != nil {
		return err
	}
	a.Pipeline.buildIndex()
	return nil
}

// Predict transforms r and runs the forest.
func (a *Artifact) Predict(r Record) (float64, error) {
	return a.Forest.Predict(a.Pipeline.Transform(r))
}

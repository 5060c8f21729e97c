// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package pricing

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kisaanconnect/internal/logging"
)

// topFeatureCount is how many importances a training run reports.
const topFeatureCount = 10

// ArtifactSaver persists a trained artifact and returns its version.
type ArtifactSaver interface {
	Save(ctx context.Context, a *Artifact, target string) (int, error)
}

// TrainerConfig controls one training run.
type TrainerConfig struct {
	Forest       ForestConfig
	TestFraction float64
	Seed         int64
}

// DefaultTrainerConfig holds out 20% with seed 42 and the default forest.
func DefaultTrainerConfig() TrainerConfig {
	return TrainerConfig{
		Forest:       DefaultForestConfig(),
		TestFraction: 0.2,
		Seed:         42,
	}
}

// Trainer fits and evaluates a price model.
type Trainer struct {
	cfg    TrainerConfig
	saver  ArtifactSaver
	logger zerolog.Logger
}

// NewTrainer creates a Trainer. saver may be nil, in which case Train only
// returns the artifact.
func NewTrainer(cfg TrainerConfig, saver ArtifactSaver) *Trainer {
	if cfg.TestFraction <= 0 || cfg.TestFraction >= 1 {
		cfg.TestFraction = 0.2
	}
	return &Trainer{
		cfg:    cfg,
		saver:  saver,
		logger: logging.With().Str("component", "pricing-trainer").Logger(),
	}
}

// Train imputes, splits, fits the pipeline on the train split, fits the
// forest, measures MAE on the test split and persists the result.
// The input dataset is not modified.
func (t *Trainer) Train(ctx context.Context, ds *Dataset) (*Artifact, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, schemaErrorf("training dataset is empty")
	}
	if len(ds.Targets) != ds.Len() {
		return nil, schemaErrorf("dataset has %d records but %d targets", ds.Len(), len(ds.Targets))
	}
	if err := ds.Schema.Validate(); err != nil {
		return nil, err
	}
	if err := ds.Schema.CheckServable(); err != nil {
		return nil, err
	}
	start := time.Now()

	records := make([]Record, ds.Len())
	for i, r := range ds.Records {
		records[i] = r.clone()
	}
	imputed, err := Impute(ds.Schema, records)
	if err != nil {
		return nil, err
	}
	for col, n := range imputed.Filled {
		t.logger.Info().Str("column", col).Int("filled", n).Msg("Imputed missing values")
	}

	trainIdx, testIdx, err := splitIndices(len(records), t.cfg.TestFraction, t.cfg.Seed)
	if err != nil {
		return nil, err
	}
	trainRecs, trainY := gather(records, ds.Targets, trainIdx)
	testRecs, testY := gather(records, ds.Targets, testIdx)

	pipe, err := FitPipeline(ds.Schema, trainRecs)
	if err != nil {
		return nil, err
	}

	forestCfg := t.cfg.Forest
	forestCfg.Seed = t.cfg.Seed
	forest, err := FitForest(ctx, pipe.TransformAll(trainRecs), trainY, forestCfg)
	if err != nil {
		return nil, err
	}

	var absErr float64
	for i, x := range pipe.TransformAll(testRecs) {
		p, err := forest.Predict(x)
		if err != nil {
			return nil, fmt.Errorf("evaluate test row %d: %w", i, err)
		}
		absErr += math.Abs(p - testY[i])
	}
	mae := absErr / float64(len(testY))

	a := &Artifact{
		Schema:   ds.Schema,
		Pipeline: pipe,
		Forest:   forest,
		Summary: TrainingSummary{
			MAE:         mae,
			TrainRows:   len(trainRecs),
			TestRows:    len(testRecs),
			TrainedAt:   time.Now().UTC(),
			Imputation:  imputed,
			TopFeatures: forest.TopImportances(pipe.FeatureNames(), topFeatureCount),
		},
	}

	t.logger.Info().
		Float64("mae", mae).
		Int("train_rows", a.Summary.TrainRows).
		Int("test_rows", a.Summary.TestRows).
		Int("trees", len(forest.Trees)).
		Dur("duration", time.Since(start)).
		Msg("Price model trained")
	for rank, fi := range a.Summary.TopFeatures {
		t.logger.Info().Int("rank", rank+1).Str("feature", fi.Feature).Float64("importance", fi.Importance).Msg("Feature importance")
	}

	if t.saver != nil {
		version, err := t.saver.Save(ctx, a, ds.Target)
		if err != nil {
			return nil, err
		}
		t.logger.Info().Int("version", version).Msg("Price model saved")
	}
	return a, nil
}

func gather(records []Record, targets []float64, idx []int) ([]Record, []float64) {
	rs := make([]Record, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		rs[i] = records[j]
		ys[i] = targets[j]
	}
	return rs, ys
}

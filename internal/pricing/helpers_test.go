// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package pricing

import (
	"context"
	"sync"
	"testing"
)

var (
	cropBase     = map[string]float64{"Rice": 2000, "Wheat": 1500, "Tomatoes": 800}
	seasonAdjust = map[string]float64{"Kharif": 100, "Rabi": -50}
	regionAdjust = map[string]float64{"North": 80, "South": -30}
)

// truePrice is the linear relationship the synthetic data follows.
func truePrice(crop, season, region string, quantity float64) float64 {
	return cropBase[crop] + seasonAdjust[season] + regionAdjust[region] + 0.1*quantity
}

func f64(v float64) *float64 { return &v }
func str(v string) *string { return &v }

// syntheticRows returns 3 crops x 2 seasons x 2 regions x 5 quantities, each
// row twice. Every tenth row has no rain_fall so imputation runs.
func syntheticRows() []TrainingRecord {
	var rows []TrainingRecord
	i := 0
	for _, crop := range []string{"Rice", "Wheat", "Tomatoes"} {
		for si, season := range []string{"Kharif", "Rabi"} {
			for ri, region := range []string{"North", "South"} {
				for _, q := range []float64{50, 100, 150, 200, 250} {
					for rep := 0; rep < 2; rep++ {
						row := TrainingRecord{
							CropName:    crop,
							Quantity:    f64(q),
							Season:      season,
							Region:      region,
							RainFall:    f64(100 + 50*float64(si)),
							Temperature: f64(25 + 3*float64(ri)),
							SoilQuality: str([]string{"High", "Medium"}[rep]),
							Price:       truePrice(crop, season, region, q),
						}
						if i%10 == 0 {
							row.RainFall = nil
						}
						rows = append(rows, row)
						i++
					}
				}
			}
		}
	}
	return rows
}

func testTrainerConfig() TrainerConfig {
	cfg := DefaultTrainerConfig()
	cfg.Forest.NumTrees = 30
	return cfg
}

var (
	sharedArtifactOnce sync.Once
	sharedArtifact     *Artifact
	sharedArtifactErr  error
)

// trainedArtifact trains once per test binary. Artifacts are immutable, so
// tests may share it.
func trainedArtifact(t *testing.T) *Artifact {
	t.Helper()
	sharedArtifactOnce.Do(func() {
		sharedArtifact, sharedArtifactErr = NewTrainer(testTrainerConfig(), nil).
			Train(context.Background(), NewDataset(syntheticRows()))
	})
	if sharedArtifactErr != nil {
		t.Fatalf("train: %v", sharedArtifactErr)
	}
	return sharedArtifact
}

// readyService returns a Service loaded with the shared artifact.
func readyService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	a := trainedArtifact(t)
	svc := NewService(LoaderFunc(func(context.Context) (*Artifact, error) { return a, nil }), opts...)
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	return svc
}

func fullRequest() PredictionRequest {
	return PredictionRequest{
		CropName:    "Rice",
		Quantity:    100,
		Season:      "Kharif",
		Region:      "North",
		RainFall:    f64(100),
		Temperature: f64(25),
		SoilQuality: str("High"),
	}
}

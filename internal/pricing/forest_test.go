// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package pricing

import (
	"context"
	"errors"
	"math"
	"testing"
)

// stepData is y = 10 for x < 5 and y = 20 otherwise, plus a noise column.
func stepData() ([][]float64, []float64) {
	var X [][]float64
	var y []float64
	for i := 0; i < 40; i++ {
		x := float64(i % 10)
		X = append(X, []float64{x, float64((i * 7) % 3)})
		if x < 5 {
			y = append(y, 10)
		} else {
			y = append(y, 20)
		}
	}
	return X, y
}

func TestFitForest_LearnsStep(t *testing.T) {
	X, y := stepData()
	cfg := DefaultForestConfig()
	cfg.NumTrees = 20
	f, err := FitForest(context.Background(), X, y, cfg)
	if err != nil {
		t.Fatalf("FitForest: %v", err)
	}

	tests := []struct {
		x    []float64
		want float64
	}{
		{[]float64{1, 0}, 10},
		{[]float64{8, 2}, 20},
	}
	for _, tt := range tests {
		got, err := f.Predict(tt.x)
		if err != nil {
			t.Fatalf("Predict(%v): %v", tt.x, err)
		}
		if math.Abs(got-tt.want) > 0.5 {
			t.Errorf("Predict(%v) = %v, want ~%v", tt.x, got, tt.want)
		}
	}

	if f.Importances[0] <= f.Importances[1] {
		t.Errorf("signal feature importance %v should exceed noise %v", f.Importances[0], f.Importances[1])
	}
	top := f.TopImportances([]string{"x", "noise"}, 1)
	if len(top) != 1 || top[0].Feature != "x" {
		t.Errorf("TopImportances = %+v, want x first", top)
	}
}

func TestFitForest_DeterministicAcrossWorkers(t *testing.T) {
	X, y := stepData()
	cfg := DefaultForestConfig()
	cfg.NumTrees = 16
	cfg.MaxFeatures = 1

	cfg.Workers = 1
	serial, err := FitForest(context.Background(), X, y, cfg)
	if err != nil {
		t.Fatalf("serial: %v", err)
	}
	cfg.Workers = 8
	parallel, err := FitForest(context.Background(), X, y, cfg)
	if err != nil {
		t.Fatalf("parallel: %v", err)
	}

	for i := 0; i < 10; i++ {
		x := []float64{float64(i) + 0.3, float64(i % 3)}
		a, _ := serial.Predict(x)
		b, _ := parallel.Predict(x)
		if a != b {
			t.Fatalf("Predict(%v): serial %v != parallel %v", x, a, b)
		}
	}
}

func TestFitForest_InputErrors(t *testing.T) {
	tests := []struct {
		name string
		X    [][]float64
		y    []float64
	}{
		{"empty", nil, nil},
		{"length mismatch", [][]float64{{1}, {2}}, []float64{1}},
		{"ragged rows", [][]float64{{1, 2}, {3}}, []float64{1, 2}},
		{"zero width", [][]float64{{}}, []float64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FitForest(context.Background(), tt.X, tt.y, DefaultForestConfig()); !errors.Is(err, ErrSchema) {
				t.Errorf("expected ErrSchema, got %v", err)
			}
		})
	}
}

func TestFitForest_Cancelled(t *testing.T) {
	X, y := stepData()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := FitForest(ctx, X, y, DefaultForestConfig()); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestForest_PredictWidthMismatch(t *testing.T) {
	X, y := stepData()
	cfg := DefaultForestConfig()
	cfg.NumTrees = 2
	f, err := FitForest(context.Background(), X, y, cfg)
	if err != nil {
		t.Fatalf("FitForest: %v", err)
	}
	if _, err := f.Predict([]float64{1}); err == nil {
		t.Error("expected error for short feature vector")
	}
}

func TestTree_MaxDepth(t *testing.T) {
	X, y := stepData()
	cfg := DefaultForestConfig()
	cfg.NumTrees = 5
	cfg.MaxDepth = 1
	f, err := FitForest(context.Background(), X, y, cfg)
	if err != nil {
		t.Fatalf("FitForest: %v", err)
	}
	for i, tree := range f.Trees {
		if d := tree.Depth(); d > 1 {
			t.Errorf("tree %d depth = %d, want <= 1", i, d)
		}
	}
}

// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package dataset

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/tomtom215/kisaanconnect/internal/pricing"
)

const sampleCSV = `crop_name,quantity,season,region,rain_fall,temperature,soil_quality,price
Rice,100,Kharif,North,120.5,28.1,High,2150.50
Wheat,80,Rabi,South,,22.0,Medium,1620.00
Tomatoes,40,Kharif,South,90.0,,,850.25
Rice,60,Rabi,North,110.0,24.5,Low,
`

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crops.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return path
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		in   string
		want pricing.ColumnKind
	}{
		{"BIGINT", pricing.KindNumeric},
		{"DOUBLE", pricing.KindNumeric},
		{"DECIMAL(10,2)", pricing.KindNumeric},
		{"integer", pricing.KindNumeric},
		{"VARCHAR", pricing.KindCategorical},
		{"DATE", pricing.KindCategorical},
		{"BOOLEAN", pricing.KindCategorical},
	}
	for _, tt := range tests {
		if got := KindOf(tt.in); got != tt.want {
			t.Errorf("KindOf(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoadCSV(t *testing.T) {
	ds, err := LoadCSV(context.Background(), writeCSV(t, sampleCSV))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}

	if !ds.Schema.Equal(pricing.CanonicalSchema()) {
		t.Errorf("schema = %+v, want canonical", ds.Schema)
	}
	if ds.Target != "price" {
		t.Errorf("target = %q", ds.Target)
	}
	// The last row has no price and is skipped.
	if ds.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", ds.Len())
	}
	if !slices.Equal(ds.Targets, []float64{2150.50, 1620.00, 850.25}) {
		t.Errorf("targets = %v", ds.Targets)
	}
	if _, ok := ds.Records[1].Numeric["rain_fall"]; ok {
		t.Error("empty rain_fall should be missing")
	}
	if _, ok := ds.Records[2].Categorical["soil_quality"]; ok {
		t.Error("empty soil_quality should be missing")
	}
	if ds.Records[0].Categorical["crop_name"] != "Rice" || ds.Records[0].Numeric["quantity"] != 100 {
		t.Errorf("row 0 = %+v", ds.Records[0])
	}
}

func TestLoadCSV_MissingFile(t *testing.T) {
	_, err := LoadCSV(context.Background(), filepath.Join(t.TempDir(), "nope.csv"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadCSV_NoTargetValues(t *testing.T) {
	content := "crop_name,quantity,price\nRice,10,\nWheat,20,\n"
	_, err := LoadCSV(context.Background(), writeCSV(t, content))
	if !errors.Is(err, pricing.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

func TestLoadCSV_TrainsEndToEnd(t *testing.T) {
	content := "crop_name,quantity,season,price\n"
	for i := 0; i < 30; i++ {
		crop := []string{"Rice", "Wheat", "Onions"}[i%3]
		season := []string{"Kharif", "Rabi"}[i%2]
		content += crop + "," + []string{"10", "20", "30", "40", "50"}[i%5] + "," + season + "," +
			[]string{"1000", "1500", "700"}[i%3] + "\n"
	}
	ds, err := LoadCSV(context.Background(), writeCSV(t, content))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}

	cfg := pricing.DefaultTrainerConfig()
	cfg.Forest.NumTrees = 5
	a, err := pricing.NewTrainer(cfg, nil).Train(context.Background(), ds)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	r := pricing.NewRecord()
	r.Categorical["crop_name"] = "Wheat"
	r.Categorical["season"] = "Rabi"
	r.Numeric["quantity"] = 20
	if _, err := a.Predict(r); err != nil {
		t.Errorf("Predict: %v", err)
	}
}

func TestLoadCSV_CapitalizedHeadersServeDistinctPrices(t *testing.T) {
	base := map[string]int{"Rice": 2000, "Wheat": 1500, "Tomatoes": 800}
	content := "Crop_Name,Quantity,Season,Region,Price\n"
	for _, crop := range []string{"Rice", "Wheat", "Tomatoes"} {
		for si, season := range []string{"Kharif", "Rabi"} {
			for ri, region := range []string{"North", "South"} {
				for _, q := range []int{50, 100, 150, 200} {
					price := base[crop] + 100*si - 50*ri + q/10
					content += fmt.Sprintf("%s,%d,%s,%s,%d\n", crop, q, season, region, price)
				}
			}
		}
	}
	ds, err := LoadCSV(context.Background(), writeCSV(t, content))
	if err != nil {
		t.Fatalf("LoadCSV: %v", err)
	}
	if !slices.Equal(ds.Schema.NumericFeatures, []string{"quantity"}) ||
		!slices.Equal(ds.Schema.CategoricalFeatures, []string{"crop_name", "season", "region"}) ||
		ds.Target != "price" {
		t.Fatalf("schema = %+v target %q, want normalized names", ds.Schema, ds.Target)
	}

	cfg := pricing.DefaultTrainerConfig()
	cfg.Forest.NumTrees = 10
	a, err := pricing.NewTrainer(cfg, nil).Train(context.Background(), ds)
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	svc := pricing.NewService(pricing.LoaderFunc(func(context.Context) (*pricing.Artifact, error) { return a, nil }))
	if err := svc.Reload(context.Background()); err != nil {
		t.Fatalf("Reload: %v", err)
	}

	predict := func(crop string) float64 {
		t.Helper()
		resp, err := svc.Predict(context.Background(), pricing.PredictionRequest{
			CropName: crop, Quantity: 100, Season: "Kharif", Region: "North",
		})
		if err != nil {
			t.Fatalf("Predict(%s): %v", crop, err)
		}
		return resp.PredictedPrice
	}
	rice, tomatoes := predict("Rice"), predict("Tomatoes")
	if rice-tomatoes < 500 {
		t.Errorf("Rice = %.2f, Tomatoes = %.2f: request features did not reach the model", rice, tomatoes)
	}
}

func TestLoadCSV_HeadersCollidingAfterNormalization(t *testing.T) {
	content := "Crop_Name,crop name,price\nRice,Rice,10\n"
	_, err := LoadCSV(context.Background(), writeCSV(t, content))
	if !errors.Is(err, pricing.ErrSchema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
}

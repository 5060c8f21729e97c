// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package main

import (
	"testing"

	"github.com/alecthomas/kong"

	"github.com/tomtom215/kisaanconnect/internal/config"
)

func basePricing() config.PricingConfig {
	return config.PricingConfig{
		Enabled:         true,
		DataDir:         "data/pricing",
		DatasetPath:     "data/crops.csv",
		NumTrees:        100,
		MaxDepth:        12,
		MinSamplesSplit: 2,
		MinSamplesLeaf:  1,
		Seed:            42,
		TestFraction:    0.2,
	}
}

func parseCLI(t *testing.T, args ...string) *CLI {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("train"))
	if err != nil {
		t.Fatalf("kong.New: %v", err)
	}
	if _, err := parser.Parse(args); err != nil {
		t.Fatalf("Parse(%v): %v", args, err)
	}
	return &cli
}

func TestCLI_Apply(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		check   func(t *testing.T, p config.PricingConfig)
		wantErr bool
	}{
		{
			name: "no flags keep config",
			args: nil,
			check: func(t *testing.T, p config.PricingConfig) {
				if p != basePricing() {
					t.Errorf("config changed: %+v", p)
				}
			},
		},
		{
			name: "explicit zero depth and seed override",
			args: []string{"--max-depth", "0", "--seed", "0"},
			check: func(t *testing.T, p config.PricingConfig) {
				if p.MaxDepth != 0 || p.Seed != 0 {
					t.Errorf("MaxDepth = %d, Seed = %d; want 0, 0", p.MaxDepth, p.Seed)
				}
				if p.NumTrees != 100 {
					t.Errorf("NumTrees = %d, want untouched 100", p.NumTrees)
				}
			},
		},
		{
			name: "paths and sizes",
			args: []string{"--dataset", "other.csv", "--data-dir", "/tmp/models", "--trees", "7", "--test-fraction", "0.3"},
			check: func(t *testing.T, p config.PricingConfig) {
				if p.DatasetPath != "other.csv" || p.DataDir != "/tmp/models" || p.NumTrees != 7 || p.TestFraction != 0.3 {
					t.Errorf("overrides not applied: %+v", p)
				}
			},
		},
		{name: "zero trees rejected", args: []string{"--trees", "0"}, wantErr: true},
		{name: "test fraction out of range", args: []string{"--test-fraction", "1"}, wantErr: true},
		{name: "negative depth rejected", args: []string{"--max-depth=-1"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := parseCLI(t, tt.args...)
			p := basePricing()
			err := cli.apply(&p)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected validation error")
				}
				return
			}
			if err != nil {
				t.Fatalf("apply: %v", err)
			}
			tt.check(t, p)
		})
	}
}

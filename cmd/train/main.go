// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

// Command train fits the crop price model from a CSV dataset and writes a
// new versioned artifact to the model directory, where a running server's
// reload watcher picks it up.
//
// Settings come from the same configuration as the server. Flags override
// individual values:
//
//	train --dataset data/crop_price_prediction.csv --data-dir data/pricing --trees 200
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/tomtom215/kisaanconnect/internal/config"
	"github.com/tomtom215/kisaanconnect/internal/logging"
	"github.com/tomtom215/kisaanconnect/internal/pricing"
	"github.com/tomtom215/kisaanconnect/internal/pricing/dataset"
)

// CLI holds the command-line overrides. A nil field keeps the configured
// setting, so an explicit --max-depth 0 or --seed 0 still overrides.
type CLI struct {
	Dataset      *string  `help:"CSV file to train on."`
	DataDir      *string  `help:"Pricing data directory; artifacts go to <data-dir>/models." name:"data-dir"`
	Trees        *int     `help:"Number of trees in the forest."`
	MaxDepth     *int     `help:"Maximum tree depth (0 = unbounded)." name:"max-depth"`
	Seed         *int64   `help:"Random seed for the split and the forest."`
	TestFraction *float64 `help:"Share of rows held out for evaluation." name:"test-fraction"`
	DryRun       bool     `help:"Train and evaluate without saving an artifact." name:"dry-run"`
	LogLevel     string   `help:"Log level override." name:"log-level"`
}

// apply copies every flag that was given onto p and validates the result.
func (c *CLI) apply(p *config.PricingConfig) error {
	set(&p.DatasetPath, c.Dataset)
	set(&p.DataDir, c.DataDir)
	set(&p.NumTrees, c.Trees)
	set(&p.MaxDepth, c.MaxDepth)
	set(&p.Seed, c.Seed)
	set(&p.TestFraction, c.TestFraction)
	return p.Validate()
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func main() {
	var cli CLI
	kong.Parse(&cli,
		kong.Name("train"),
		kong.Description("Train the KisaanConnect crop price model."),
		kong.UsageOnError(),
	)

	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	level := cfg.Logging.Level
	if cli.LogLevel != "" && logging.ValidLevel(cli.LogLevel) {
		level = cli.LogLevel
	}
	logging.Init(logging.Config{Level: level, Format: cfg.Logging.Format, Caller: cfg.Logging.Caller})
	if err := cli.apply(&cfg.Pricing); err != nil {
		logging.Fatal().Err(err).Msg("Invalid training settings")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := train(ctx, &cfg.Pricing, cli.DryRun); err != nil {
		logging.Error().Err(err).Msg("Training failed")
		stop()
		os.Exit(1)
	}
}

func train(ctx context.Context, p *config.PricingConfig, dryRun bool) error {
	ds, err := dataset.LoadCSV(ctx, p.DatasetPath)
	if err != nil {
		return fmt.Errorf("load dataset %s: %w", p.DatasetPath, err)
	}
	logging.Info().Str("path", p.DatasetPath).Int("rows", ds.Len()).Str("target", ds.Target).Msg("Dataset loaded")

	var saver pricing.ArtifactSaver
	if !dryRun {
		store, err := pricing.NewFileStore(p.ModelDir(), p.KeepVersions)
		if err != nil {
			return err
		}
		saver = store
	}

	tc := pricing.DefaultTrainerConfig()
	tc.Forest.NumTrees = p.NumTrees
	tc.Forest.MaxDepth = p.MaxDepth
	tc.Forest.MinSamplesSplit = p.MinSamplesSplit
	tc.Forest.MinSamplesLeaf = p.MinSamplesLeaf
	tc.Seed = p.Seed
	tc.TestFraction = p.TestFraction

	a, err := pricing.NewTrainer(tc, saver).Train(ctx, ds)
	if err != nil {
		return err
	}

	fmt.Printf("Mean Absolute Error: %.2f\n", a.Summary.MAE)
	fmt.Println("Top feature importances:")
	for i, fi := range a.Summary.TopFeatures {
		fmt.Printf("%2d. %-40s %.4f\n", i+1, fi.Feature, fi.Importance)
	}
	if dryRun {
		fmt.Println("Dry run: artifact not saved")
	}
	return nil
}

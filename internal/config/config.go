// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

// Package config loads KisaanConnect configuration from defaults, an optional
// YAML file and environment variables, in that order of precedence (lowest
// first). See LoadWithKoanf.
package config

import (
	"path/filepath"
	"time"
)

// Config is the root configuration for both the API server and the trainer.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Pricing  PricingConfig  `koanf:"pricing"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int           `koanf:"port"`
	Host            string        `koanf:"host"`
	Timeout         time.Duration `koanf:"timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	Environment     string        `koanf:"environment"` // development, staging, production
}

// DatabaseConfig holds marketplace DuckDB settings.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`   // 0 = runtime.NumCPU()
	SeedData  bool   `koanf:"seed_data"` // test users and sample crops
}

// PricingConfig controls training and serving of the crop price model.
type PricingConfig struct {
	Enabled         bool          `koanf:"enabled"`
	DataDir         string        `koanf:"data_dir"`     // artifacts live under DataDir/models
	DatasetPath     string        `koanf:"dataset_path"` // CSV consumed by cmd/train
	NumTrees        int           `koanf:"num_trees"`
	MaxDepth        int           `koanf:"max_depth"` // 0 = unbounded
	MinSamplesSplit int           `koanf:"min_samples_split"`
	MinSamplesLeaf  int           `koanf:"min_samples_leaf"`
	Seed            int64         `koanf:"seed"`
	TestFraction    float64       `koanf:"test_fraction"`
	KeepVersions    int           `koanf:"keep_versions"`
	CacheSize       int           `koanf:"cache_size"` // 0 disables the prediction cache
	CacheTTL        time.Duration `koanf:"cache_ttl"`
	ReloadInterval  time.Duration `koanf:"reload_interval"` // 0 disables the reload watcher
}

// ModelDir returns the directory holding versioned artifacts.
func (p PricingConfig) ModelDir() string {
	return filepath.Join(p.DataDir, "models")
}

// SecurityConfig holds authentication and HTTP hardening settings.
type SecurityConfig struct {
	SessionTTL        time.Duration `koanf:"session_ttl"`
	SessionStore      string        `koanf:"session_store"` // memory or badger
	SessionStorePath  string        `koanf:"session_store_path"`
	BcryptCost        int           `koanf:"bcrypt_cost"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// LoggingConfig mirrors logging.Config for the values that are configurable.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Load is the entry point used by both binaries.
func Load() (*Config, error) {
	return LoadWithKoanf()
}

// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	if cfg.Server.Port != 8000 {
		t.Errorf("Server.Port = %d, want 8000", cfg.Server.Port)
	}
	if cfg.Pricing.NumTrees != 100 {
		t.Errorf("Pricing.NumTrees = %d, want 100", cfg.Pricing.NumTrees)
	}
	if cfg.Pricing.Seed != 42 {
		t.Errorf("Pricing.Seed = %d, want 42", cfg.Pricing.Seed)
	}
	if cfg.Pricing.TestFraction != 0.2 {
		t.Errorf("Pricing.TestFraction = %v, want 0.2", cfg.Pricing.TestFraction)
	}
	if cfg.Security.SessionTTL != 24*time.Hour {
		t.Errorf("Security.SessionTTL = %v, want 24h", cfg.Security.SessionTTL)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		env  string
		want string
	}{
		{"HTTP_PORT", "server.port"},
		{"PRICING_NUM_TREES", "pricing.num_trees"},
		{"SESSION_STORE", "security.session_store"},
		{"log_level", "logging.level"},
		{"HOME", ""},
		{"PATH", ""},
	}
	for _, tt := range tests {
		if got := envTransformFunc(tt.env); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.env, got, tt.want)
		}
	}
}

func TestLoadWithKoanf_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := "server:\n  port: 9100\npricing:\n  num_trees: 25\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("PRICING_NUM_TREES", "50")
	t.Setenv("CORS_ORIGINS", "http://a.example, http://b.example")
	t.Setenv("PRICING_CACHE_TTL", "90s")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf: %v", err)
	}
	if cfg.Server.Port != 9100 {
		t.Errorf("Server.Port = %d, want 9100 from file", cfg.Server.Port)
	}
	if cfg.Pricing.NumTrees != 50 {
		t.Errorf("Pricing.NumTrees = %d, want 50 from env", cfg.Pricing.NumTrees)
	}
	if cfg.Pricing.CacheTTL != 90*time.Second {
		t.Errorf("Pricing.CacheTTL = %v, want 90s", cfg.Pricing.CacheTTL)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[1] != "http://b.example" {
		t.Errorf("CORSOrigins = %v", cfg.Security.CORSOrigins)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad port", func(c *Config) { c.Server.Port = 0 }, "HTTP_PORT"},
		{"bad environment", func(c *Config) { c.Server.Environment = "qa" }, "ENVIRONMENT"},
		{"no trees", func(c *Config) { c.Pricing.NumTrees = 0 }, "PRICING_NUM_TREES"},
		{"test fraction one", func(c *Config) { c.Pricing.TestFraction = 1 }, "PRICING_TEST_FRACTION"},
		{"pricing disabled skips checks", func(c *Config) { c.Pricing.Enabled = false; c.Pricing.NumTrees = 0 }, ""},
		{"unknown session store", func(c *Config) { c.Security.SessionStore = "redis" }, "SESSION_STORE"},
		{"bcrypt cost", func(c *Config) { c.Security.BcryptCost = 2 }, "BCRYPT_COST"},
		{"wildcard cors in production", func(c *Config) { c.Server.Environment = "production" }, "CORS_ORIGINS"},
		{"log level", func(c *Config) { c.Logging.Level = "chatty" }, "LOG_LEVEL"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error mentioning %s", err, tt.wantErr)
			}
		})
	}
}

func TestModelDir(t *testing.T) {
	p := PricingConfig{DataDir: "/srv/pricing"}
	if got := p.ModelDir(); got != filepath.Join("/srv/pricing", "models") {
		t.Errorf("ModelDir() = %q", got)
	}
}

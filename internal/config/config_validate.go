// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package config

import (
	"fmt"
	"strings"

	"github.com/tomtom215/kisaanconnect/internal/logging"
	"golang.org/x/crypto/bcrypt"
)

// Validate checks every section and returns the first problem found.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validatePricing(); err != nil {
		return err
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive")
	}
	switch c.Server.Environment {
	case "development", "staging", "production":
	default:
		return fmt.Errorf("ENVIRONMENT must be development, staging or production, got %q", c.Server.Environment)
	}
	return nil
}

func (c *Config) validateDatabase() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must not be negative")
	}
	return nil
}

func (c *Config) validatePricing() error {
	if !c.Pricing.Enabled {
		return nil
	}
	return c.Pricing.Validate()
}

// Validate checks the pricing settings regardless of Enabled. The training
// command calls it after applying flag overrides.
func (p *PricingConfig) Validate() error {
	if strings.TrimSpace(p.DataDir) == "" {
		return fmt.Errorf("PRICING_DATA_DIR is required when PRICING_ENABLED=true")
	}
	if p.NumTrees < 1 {
		return fmt.Errorf("PRICING_NUM_TREES must be at least 1, got %d", p.NumTrees)
	}
	if p.MaxDepth < 0 {
		return fmt.Errorf("PRICING_MAX_DEPTH must not be negative")
	}
	if p.MinSamplesSplit < 2 {
		return fmt.Errorf("PRICING_MIN_SAMPLES_SPLIT must be at least 2, got %d", p.MinSamplesSplit)
	}
	if p.MinSamplesLeaf < 1 {
		return fmt.Errorf("PRICING_MIN_SAMPLES_LEAF must be at least 1, got %d", p.MinSamplesLeaf)
	}
	if p.TestFraction <= 0 || p.TestFraction >= 1 {
		return fmt.Errorf("PRICING_TEST_FRACTION must be in (0, 1), got %v", p.TestFraction)
	}
	if p.CacheSize < 0 {
		return fmt.Errorf("PRICING_CACHE_SIZE must not be negative")
	}
	return nil
}

func (c *Config) validateSecurity() error {
	s := c.Security
	if s.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL must be positive")
	}
	switch s.SessionStore {
	case "memory":
	case "badger":
		if strings.TrimSpace(s.SessionStorePath) == "" {
			return fmt.Errorf("SESSION_STORE_PATH is required when SESSION_STORE=badger")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be memory or badger, got %q", s.SessionStore)
	}
	if s.BcryptCost < bcrypt.MinCost || s.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("BCRYPT_COST must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, s.BcryptCost)
	}
	if !s.RateLimitDisabled && (s.RateLimitReqs < 1 || s.RateLimitWindow <= 0) {
		return fmt.Errorf("RATE_LIMIT_REQUESTS and RATE_LIMIT_WINDOW must be positive unless DISABLE_RATE_LIMIT=true")
	}
	if c.Server.Environment == "production" {
		for _, o := range s.CORSOrigins {
			if o == "*" {
				return fmt.Errorf("CORS_ORIGINS must not contain * when ENVIRONMENT=production")
			}
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL %q is not a recognised level", c.Logging.Level)
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
	return nil
}

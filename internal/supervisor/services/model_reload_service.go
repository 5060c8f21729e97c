// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/kisaanconnect/internal/metrics"
	"github.com/tomtom215/kisaanconnect/internal/pricing"
)

// ModelVersionSource reports the newest artifact version on disk, 0 if none.
type ModelVersionSource interface {
	LatestVersion() (int, error)
}

// ModelReloader is the subset of *pricing.Service the watcher drives.
type ModelReloader interface {
	Reload(ctx context.Context) error
	Health() pricing.Health
}

// ModelReloadConfig configures the reload watcher.
type ModelReloadConfig struct {
	// Interval between version checks. Default: 1m
	Interval time.Duration

	// MaxConsecutiveFailures opens the breaker. Default: 3
	MaxConsecutiveFailures uint32

	// OpenTimeout is how long the breaker stays open before one trial
	// reload. Default: 5m
	OpenTimeout time.Duration
}

func (c *ModelReloadConfig) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = time.Minute
	}
	if c.MaxConsecutiveFailures == 0 {
		c.MaxConsecutiveFailures = 3
	}
	if c.OpenTimeout <= 0 {
		c.OpenTimeout = 5 * time.Minute
	}
}

const modelBreakerName = "price-model-reload"

// ModelReloadService polls the artifact directory and reloads the price
// model when a version newer than the serving one appears, or when no model
// is serving and one exists. Reloads go through a circuit breaker so a
// corrupt artifact is not decoded on every tick.
type ModelReloadService struct {
	source   ModelVersionSource
	reloader ModelReloader
	config   ModelReloadConfig
	cb       *gobreaker.CircuitBreaker[struct{}]
	logger   zerolog.Logger
	name     string
}

// NewModelReloadService creates the watcher.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewModelReloadService(source ModelVersionSource, reloader ModelReloader, cfg ModelReloadConfig, logger zerolog.Logger) *ModelReloadService {
	cfg.applyDefaults()
	s := &ModelReloadService{
		source:   source,
		reloader: reloader,
		config:   cfg,
		logger:   logger.With().Str("service", "model-reload").Logger(),
		name:     "model-reload",
	}

	metrics.CircuitBreakerState.WithLabelValues(modelBreakerName).Set(0)
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(modelBreakerName).Set(0)

	s.cb = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        modelBreakerName,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.MaxConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			s.logger.Warn().Str("from", from.String()).Str("to", to.String()).Msg("Model reload breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})
	return s
}

// Serve implements suture.Service.
func (s *ModelReloadService) Serve(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.config.Interval).Msg("Model reload watcher starting")

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

// Check runs one poll. It reports whether a reload was attempted.
func (s *ModelReloadService) Check(ctx context.Context) bool {
	latest, err := s.source.LatestVersion()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Cannot scan model directory")
		return false
	}
	h := s.reloader.Health()
	if latest == 0 || (h.ModelLoaded && latest <= h.Version) {
		return false
	}

	_, err = s.cb.Execute(func() (struct{}, error) {
		return struct{}{}, s.reloader.Reload(ctx)
	})
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.CircuitBreakerRequests.WithLabelValues(modelBreakerName, "rejected").Inc()
		s.logger.Debug().Int("version", latest).Msg("Model reload skipped, breaker open")
		return false
	case err != nil:
		metrics.CircuitBreakerRequests.WithLabelValues(modelBreakerName, "failure").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(modelBreakerName).
			Set(float64(s.cb.Counts().ConsecutiveFailures))
		s.logger.Warn().Err(err).Int("version", latest).Msg("Model reload failed")
	default:
		metrics.CircuitBreakerRequests.WithLabelValues(modelBreakerName, "success").Inc()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(modelBreakerName).Set(0)
		s.logger.Info().Int("version", latest).Msg("Model reloaded from disk")
	}
	return true
}

// BreakerState returns the breaker state.
func (s *ModelReloadService) BreakerState() gobreaker.State {
	return s.cb.State()
}

func (s *ModelReloadService) String() string {
	return s.name
}

func breakerStateValue(st gobreaker.State) float64 {
	switch st {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

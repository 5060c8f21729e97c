// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// DefaultSessionCleanupInterval is used for a non-positive interval.
const DefaultSessionCleanupInterval = 10 * time.Minute

// SessionCleaner removes expired login sessions.
type SessionCleaner interface {
	CleanupSessions(ctx context.Context) (int, error)
}

// SessionCleanupService periodically purges expired sessions. The Badger
// store also reclaims value-log space during cleanup.
type SessionCleanupService struct {
	cleaner  SessionCleaner
	interval time.Duration
	logger   zerolog.Logger
	name     string
}

// NewSessionCleanupService creates the service.
//
//nolint:gocritic // zerolog.Logger is passed by value
func NewSessionCleanupService(cleaner SessionCleaner, interval time.Duration, logger zerolog.Logger) *SessionCleanupService {
	if interval <= 0 {
		interval = DefaultSessionCleanupInterval
	}
	return &SessionCleanupService{
		cleaner:  cleaner,
		interval: interval,
		logger:   logger.With().Str("service", "session-cleanup").Logger(),
		name:     "session-cleanup",
	}
}

// Serve implements suture.Service. Cleanup errors are logged and retried on
// the next tick.
func (s *SessionCleanupService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			n, err := s.cleaner.CleanupSessions(ctx)
			if err != nil {
				s.logger.Warn().Err(err).Msg("Session cleanup failed")
				continue
			}
			if n > 0 {
				s.logger.Info().Int("removed", n).Msg("Expired sessions removed")
			}
		}
	}
}

func (s *SessionCleanupService) String() string {
	return s.name
}

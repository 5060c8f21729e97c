// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

// Package main is the KisaanConnect API server.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, optional YAML, environment)
//  2. Logging
//  3. DuckDB marketplace database, migrations and optional sample data
//  4. Session store (memory or Badger) and the auth service
//  5. Price model store and inference service, with an initial load
//  6. HTTP router
//  7. Supervisor tree: HTTP server, model reload watcher, session cleanup
//
// A missing or corrupt price model does not stop the server. The prediction
// endpoints answer 503 until a trained artifact appears in the model
// directory, which the reload watcher picks up without a restart.
//
// SIGINT and SIGTERM trigger a graceful shutdown.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/kisaanconnect/internal/api"
	"github.com/tomtom215/kisaanconnect/internal/auth"
	"github.com/tomtom215/kisaanconnect/internal/config"
	"github.com/tomtom215/kisaanconnect/internal/database"
	"github.com/tomtom215/kisaanconnect/internal/logging"
	"github.com/tomtom215/kisaanconnect/internal/pricing"
	"github.com/tomtom215/kisaanconnect/internal/supervisor"
	"github.com/tomtom215/kisaanconnect/internal/supervisor/services"
)

// seedPassword is the password of the seeded test accounts.
const seedPassword = "password123"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}
	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("db_path", cfg.Database.Path).
		Str("session_store", cfg.Security.SessionStore).
		Bool("pricing_enabled", cfg.Pricing.Enabled).
		Str("environment", cfg.Server.Environment).
		Msg("Starting KisaanConnect")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
	logging.Info().Msg("Application stopped gracefully")
}

//nolint:gocyclo // sequential setup steps
func run(cfg *config.Config) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	if cfg.Database.SeedData {
		hash, err := auth.HashPassword(seedPassword, cfg.Security.BcryptCost)
		if err != nil {
			return fmt.Errorf("hash seed password: %w", err)
		}
		if err := db.SeedSampleData(ctx, hash); err != nil {
			return fmt.Errorf("seed sample data: %w", err)
		}
	}

	sessions, err := auth.NewSessionStoreFactory(auth.SessionStoreType(cfg.Security.SessionStore), cfg.Security.SessionStorePath)
	if err != nil {
		return fmt.Errorf("initialize session store: %w", err)
	}
	defer func() {
		if err := sessions.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing session store")
		}
	}()
	if cfg.Security.SessionStore == string(auth.SessionStoreMemory) && cfg.Server.Environment == "production" {
		logging.Warn().Msg("Session store is 'memory': all users are logged out on restart. Set SESSION_STORE=badger.")
	}

	authSvc := auth.NewService(db, sessions.Store(), auth.ServiceConfig{
		SessionTTL: cfg.Security.SessionTTL,
		BcryptCost: cfg.Security.BcryptCost,
	})

	var (
		priceSvc   *pricing.Service
		modelStore *pricing.FileStore
	)
	if cfg.Pricing.Enabled {
		modelStore, err = pricing.NewFileStore(cfg.Pricing.ModelDir(), cfg.Pricing.KeepVersions)
		if err != nil {
			return fmt.Errorf("open model directory: %w", err)
		}
		var opts []pricing.Option
		if cfg.Pricing.CacheSize > 0 {
			opts = append(opts, pricing.WithPredictionCache(cfg.Pricing.CacheSize, cfg.Pricing.CacheTTL))
		}
		priceSvc = pricing.NewService(modelStore, opts...)
		if err := priceSvc.Reload(ctx); err != nil {
			logging.Warn().Err(err).Str("dir", modelStore.Dir()).
				Msg("No usable price model, predictions unavailable until one is trained")
		}
	} else {
		logging.Info().Msg("Price prediction disabled (PRICING_ENABLED=false)")
	}

	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("Rate limiting is DISABLED (DISABLE_RATE_LIMIT=true)")
	}
	for _, o := range cfg.Security.CORSOrigins {
		if o == "*" {
			logging.Warn().Msg("CORS allows any origin (CORS_ORIGINS=*). Restrict it in production.")
			break
		}
	}

	handler := api.NewHandler(db, authSvc, priceSvc, cfg)
	router := api.NewRouter(handler,
		auth.NewMiddleware(authSvc, api.WriteError),
		api.NewChiMiddleware(api.ChiMiddlewareConfigFromSecurity(&cfg.Security)),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		FailureThreshold: 5,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("create supervisor tree: %w", err)
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	tree.AddDataService(services.NewSessionCleanupService(authSvc, 0, logging.Logger()))
	if priceSvc != nil && cfg.Pricing.ReloadInterval > 0 {
		tree.AddModelService(services.NewModelReloadService(modelStore, priceSvc,
			services.ModelReloadConfig{Interval: cfg.Pricing.ReloadInterval}, logging.Logger()))
	}
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	errCh := tree.ServeBackground(ctx)
	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Waiting for supervisor to finish")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}

// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package api

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"golang.org/x/crypto/bcrypt"

	"github.com/tomtom215/kisaanconnect/internal/auth"
	"github.com/tomtom215/kisaanconnect/internal/config"
	"github.com/tomtom215/kisaanconnect/internal/database"
	"github.com/tomtom215/kisaanconnect/internal/models"
	"github.com/tomtom215/kisaanconnect/internal/pricing"
)

// testDBSemaphore serializes DuckDB usage across tests.
var testDBSemaphore = make(chan struct{}, 1)

const seedPassword = "password123"

type testServer struct {
	t       *testing.T
	db      *database.DB
	pricing *pricing.Service
	loader  *switchLoader
	handler http.Handler
}

// switchLoader serves a settable artifact or error.
type switchLoader struct {
	mu       sync.Mutex
	artifact *pricing.Artifact
	err      error
}

func (l *switchLoader) set(a *pricing.Artifact, err error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.artifact, l.err = a, err
}

func (l *switchLoader) LoadLatest(context.Context) (*pricing.Artifact, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.artifact, l.err
}

var errNoArtifact = errors.New("no artifact on disk")

var (
	artifactOnce sync.Once
	artifact     *pricing.Artifact
	artifactErr  error
)

func f64(v float64) *float64 { return &v }
func str(v string) *string { return &v }

// trainedArtifact trains a small model once per test binary.
func trainedArtifact(t *testing.T) *pricing.Artifact {
	t.Helper()
	artifactOnce.Do(func() {
		var rows []pricing.TrainingRecord
		base := map[string]float64{"Rice": 2000, "Wheat": 1500, "Tomatoes": 800}
		for crop, p := range base {
			for _, season := range []string{"Kharif", "Rabi"} {
				for _, region := range []string{"North", "South"} {
					for _, q := range []float64{50, 100, 150, 200} {
						rows = append(rows, pricing.TrainingRecord{
							CropName:    crop,
							Quantity:    f64(q),
							Season:      season,
							Region:      region,
							RainFall:    f64(120),
							Temperature: f64(26),
							SoilQuality: str("Medium"),
							Price:       p + 0.1*q,
						})
					}
				}
			}
		}
		cfg := pricing.DefaultTrainerConfig()
		cfg.Forest.NumTrees = 10
		artifact, artifactErr = pricing.NewTrainer(cfg, nil).Train(context.Background(), pricing.NewDataset(rows))
	})
	if artifactErr != nil {
		t.Fatalf("train artifact: %v", artifactErr)
	}
	return artifact
}

// newTestServer builds the full router over an in-memory database with
// seeded users. The price model starts unloaded.
func newTestServer(t *testing.T) *testServer {
	t.Helper()

	testDBSemaphore <- struct{}{}
	t.Cleanup(func() { <-testDBSemaphore })

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB", Threads: 2})
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	hash, err := auth.HashPassword(seedPassword, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword: %v", err)
	}
	if err := db.SeedSampleData(context.Background(), hash); err != nil {
		t.Fatalf("SeedSampleData: %v", err)
	}

	authSvc := auth.NewService(db, auth.NewMemorySessionStore(), auth.ServiceConfig{BcryptCost: bcrypt.MinCost})
	loader := &switchLoader{err: errNoArtifact}
	svc := pricing.NewService(loader, pricing.WithPredictionCache(16, 0))

	cfg := &config.Config{}
	handler := NewHandler(db, authSvc, svc, cfg)
	chiMW := NewChiMiddleware(&ChiMiddlewareConfig{
		CORSAllowedOrigins: []string{"*"},
		CORSAllowedMethods: []string{"GET", "POST", "PUT", "DELETE"},
		RateLimitDisabled:  true,
	})
	router := NewRouter(handler, auth.NewMiddleware(authSvc, WriteError), chiMW)

	return &testServer{
		t:       t,
		db:      db,
		pricing: svc,
		loader:  loader,
		handler: router.SetupChi(),
	}
}

// loadModel makes the trained artifact available and reloads.
func (s *testServer) loadModel() {
	s.t.Helper()
	s.loader.set(trainedArtifact(s.t), nil)
	if err := s.pricing.Reload(context.Background()); err != nil {
		s.t.Fatalf("Reload: %v", err)
	}
}

func (s *testServer) do(method, path, token string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) login(username, password string) string {
	s.t.Helper()
	form := url.Values{"username": {username}, "password": {password}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		s.t.Fatalf("login %s: status %d: %s", username, rec.Code, rec.Body.String())
	}
	var tok models.TokenResponse
	decodeData(s.t, rec, &tok)
	return tok.AccessToken
}

func (s *testServer) farmerToken() string {
	return s.login(database.SeedFarmerUsername, seedPassword)
}

func (s *testServer) consumerToken() string {
	return s.login(database.SeedConsumerUsername, seedPassword)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
	Meta    *APIMeta        `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode envelope: %v (body %q)", err, rec.Body.String())
	}
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	env := decodeEnvelope(t, rec)
	if !env.Success {
		t.Fatalf("response not successful: %s", rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, v); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

func expectErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	expectStatus(t, rec, status)
	env := decodeEnvelope(t, rec)
	if env.Success || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q (message %q)", env.Error.Code, code, env.Error.Message)
	}
}

// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package pricing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/kisaanconnect/internal/cache"
	"github.com/tomtom215/kisaanconnect/internal/logging"
	"github.com/tomtom215/kisaanconnect/internal/metrics"
)

// State is the lifecycle state of the inference service.
type State int32

// Service states. Unloaded is the zero value.
const (
	StateUnloaded State = iota
	StateLoading
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Health is the service health report. Only Status and ModelLoaded are part
// of the public JSON shape.
type Health struct {
	Status      string    `json:"status"`
	ModelLoaded bool      `json:"model_loaded"`
	State       State     `json:"-"`
	Version     int       `json:"-"`
	LoadedAt    time.Time `json:"-"`
	LastError   string    `json:"-"`
}

// Health status values.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

type cachedPrediction struct {
	artifact *Artifact
	resp     PredictionResponse
}

// Option configures a Service.
type Option func(*Service)

// WithPredictionCache memoises responses per normalized request. Entries are
// only served while the artifact that produced them is still loaded.
func WithPredictionCache(capacity int, ttl time.Duration) Option {
	return func(s *Service) {
		s.cache = cache.NewLRU[cachedPrediction](capacity, ttl)
	}
}

// Service serves price predictions from a loaded artifact.
//
// The artifact is swapped atomically by Reload. Predict takes a snapshot
// without locking, so requests in flight during a reload finish on the model
// they started with.
type Service struct {
	loader  ArtifactLoader
	current atomic.Pointer[Artifact]
	state   atomic.Int32

	reloadMu sync.Mutex // serializes Reload

	infoMu   sync.RWMutex
	loadedAt time.Time
	lastErr  error

	cache  *cache.LRU[cachedPrediction]
	logger zerolog.Logger

	// predict evaluates the artifact. Replaced in tests to observe calls.
	predict func(a *Artifact, r Record) (float64, error)
}

// NewService creates an Unloaded service. Call Reload to load the artifact.
func NewService(loader ArtifactLoader, opts ...Option) *Service {
	s := &Service{
		loader:  loader,
		logger:  logging.WithComponent("pricing"),
		predict: (*Artifact).Predict,
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.PriceModelState.Set(float64(StateUnloaded))
	return s
}

// State returns the current lifecycle state.
func (s *Service) State() State {
	return State(s.state.Load())
}

func (s *Service) setState(st State) {
	s.state.Store(int32(st))
	metrics.PriceModelState.Set(float64(st))
}

// Current returns the serving artifact, or nil.
func (s *Service) Current() *Artifact {
	return s.current.Load()
}

// Reload fetches the latest artifact and swaps it in.
//
// On failure with no artifact loaded the service enters Failed. If an earlier
// artifact is serving it keeps serving and the service returns to Ready; the
// error is still returned and reported by Health.
func (s *Service) Reload(ctx context.Context) error {
	s.reloadMu.Lock()
	defer s.reloadMu.Unlock()

	s.setState(StateLoading)
	start := time.Now()

	a, err := s.loader.LoadLatest(ctx)
	if err == nil && a == nil {
		err = errors.New("loader returned no artifact")
	}
	if err == nil {
		err = a.check()
	}
	if err != nil {
		metrics.RecordModelLoad(err, 0, 0)
		s.infoMu.Lock()
		s.lastErr = err
		s.infoMu.Unlock()

		if prev := s.current.Load(); prev != nil {
			s.setState(StateReady)
			s.logger.Warn().Err(err).Int("version", prev.Version).Msg("Price model reload failed, keeping current model")
		} else {
			s.setState(StateFailed)
			s.logger.Error().Err(err).Msg("Price model failed to load, predictions unavailable")
		}
		return fmt.Errorf("load price model: %w", err)
	}

	s.current.Store(a)
	if s.cache != nil {
		s.cache.Clear()
	}
	s.infoMu.Lock()
	s.loadedAt = time.Now()
	s.lastErr = nil
	s.infoMu.Unlock()
	s.setState(StateReady)

	metrics.RecordModelLoad(nil, a.Version, a.Summary.MAE)
	s.logger.Info().
		Int("version", a.Version).
		Float64("mae", a.Summary.MAE).
		Int("features", a.Forest.NumFeatures).
		Int("trees", len(a.Forest.Trees)).
		Dur("duration", time.Since(start)).
		Msg("Price model loaded")
	return nil
}

// Health reports healthy exactly when a model is serving.
func (s *Service) Health() Health {
	a := s.current.Load()
	h := Health{
		Status:      StatusUnhealthy,
		ModelLoaded: a != nil,
		State:       s.State(),
	}
	if a != nil {
		h.Status = StatusHealthy
		h.Version = a.Version
	}
	s.infoMu.RLock()
	h.LoadedAt = s.loadedAt
	if s.lastErr != nil {
		h.LastError = s.lastErr.Error()
	}
	s.infoMu.RUnlock()
	return h
}

// Predict validates req, runs the model and derives the response.
//
// Errors: ErrInvalidInput for a bad request (checked first, with no model
// access), ErrServiceUnavailable when no model is loaded, *PredictionError
// for a failure inside the pipeline or forest.
func (s *Service) Predict(ctx context.Context, req PredictionRequest) (*PredictionResponse, error) {
	if err := req.validate(); err != nil {
		metrics.RecordPrediction("invalid_input", 0)
		return nil, err
	}
	a := s.current.Load()
	if a == nil {
		metrics.RecordPrediction("unavailable", 0)
		return nil, ErrServiceUnavailable
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var key string
	if s.cache != nil {
		key = req.cacheKey()
		if hit, ok := s.cache.Get(key); ok && hit.artifact == a {
			metrics.RecordPredictionCache(true)
			metrics.RecordPrediction("ok", 0)
			resp := hit.resp
			return &resp, nil
		}
		metrics.RecordPredictionCache(false)
	}

	start := time.Now()
	price, err := s.evaluate(a, req.record())
	if err != nil {
		metrics.RecordPrediction("error", time.Since(start))
		logging.Ctx(ctx).Error().Err(err).Str("crop_name", req.CropName).Msg("Price prediction failed")
		return nil, err
	}
	resp := buildResponse(&req, price)
	metrics.RecordPrediction("ok", time.Since(start))

	if s.cache != nil {
		s.cache.Add(key, cachedPrediction{artifact: a, resp: resp})
	}
	return &resp, nil
}

// evaluate runs the model, converting errors and panics to *PredictionError.
func (s *Service) evaluate(a *Artifact, r Record) (price float64, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = &PredictionError{Cause: fmt.Errorf("panic: %v", rec)}
		}
	}()
	price, err = s.predict(a, r)
	if err != nil {
		return 0, &PredictionError{Cause: err}
	}
	return price, nil
}

// buildResponse derives every monetary field from the rounded prediction.
// The band is a fixed ±10%. MedianPrice is the midpoint of the rounded band,
// so it equals (MinPrice+MaxPrice)/2 exactly and may carry a half cent.
func buildResponse(req *PredictionRequest, price float64) PredictionResponse {
	p := round2(price)
	lo, hi := round2(p*0.9), round2(p*1.1)
	if lo > hi {
		lo, hi = hi, lo
	}
	return PredictionResponse{
		PredictedPrice: p,
		PricePerKg:     round2(p / req.Quantity),
		MinPrice:       lo,
		MaxPrice:       hi,
		MedianPrice:    (lo + hi) / 2,
		Confidence:     confidenceFor(req.missingOptional()),
		Factors:        req.factors(),
	}
}

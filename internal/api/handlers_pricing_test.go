// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/kisaanconnect/internal/pricing"
)

func validPrediction() map[string]any {
	return map[string]any{
		"crop_name":    "Rice",
		"quantity":     100,
		"season":       "Kharif",
		"region":       "North",
		"rain_fall":    120.0,
		"temperature":  26.0,
		"soil_quality": "Medium",
	}
}

func TestPredict_Success(t *testing.T) {
	s := newTestServer(t)
	s.loadModel()

	rec := s.do(http.MethodPost, "/api/price-prediction/predict", "", validPrediction())
	expectStatus(t, rec, http.StatusOK)

	var resp pricing.PredictionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.PredictedPrice <= 0 {
		t.Errorf("predicted_price = %v, want > 0", resp.PredictedPrice)
	}
	if !(resp.MinPrice <= resp.MedianPrice && resp.MedianPrice <= resp.MaxPrice) {
		t.Errorf("band out of order: min=%v median=%v max=%v", resp.MinPrice, resp.MedianPrice, resp.MaxPrice)
	}
	if resp.Confidence != pricing.ConfidenceHigh {
		t.Errorf("confidence = %q, want High", resp.Confidence)
	}
	if resp.Factors.CropType != "Rice" || resp.Factors.Region != "North" {
		t.Errorf("factors = %+v", resp.Factors)
	}

	// The bare body carries no envelope.
	var raw map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &raw)
	if _, ok := raw["success"]; ok {
		t.Error("predict response must not be wrapped in the envelope")
	}
}

func TestPredict_Errors(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/price-prediction/predict", "", validPrediction())
	expectErrorCode(t, rec, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)

	s.loadModel()

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"malformed json", `{"crop_name":`, http.StatusBadRequest, ErrCodeBadRequest},
		{"empty body", nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"zero quantity", func() map[string]any { b := validPrediction(); b["quantity"] = 0; return b }(), http.StatusUnprocessableEntity, ErrCodeValidationFailed},
		{"negative quantity", func() map[string]any { b := validPrediction(); b["quantity"] = -5; return b }(), http.StatusUnprocessableEntity, ErrCodeValidationFailed},
		{"blank crop", func() map[string]any { b := validPrediction(); b["crop_name"] = "  "; return b }(), http.StatusUnprocessableEntity, ErrCodeValidationFailed},
		{"missing region", func() map[string]any { b := validPrediction(); delete(b, "region"); return b }(), http.StatusUnprocessableEntity, ErrCodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/price-prediction/predict", "", tt.body)
			expectErrorCode(t, rec, tt.status, tt.code)
		})
	}
}

func TestPredict_CanceledRequest(t *testing.T) {
	s := newTestServer(t)
	s.loadModel()

	body, err := json.Marshal(validPrediction())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/api/price-prediction/predict", bytes.NewReader(body)).WithContext(ctx)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	expectErrorCode(t, rec, http.StatusServiceUnavailable, ErrCodeTimeout)
}

func TestPredict_UnseenCropAndPartialInputs(t *testing.T) {
	s := newTestServer(t)
	s.loadModel()

	body := map[string]any{"crop_name": "Saffron", "quantity": 10, "season": "Zaid", "region": "East"}
	rec := s.do(http.MethodPost, "/api/price-prediction/predict", "", body)
	expectStatus(t, rec, http.StatusOK)

	var resp pricing.PredictionResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Confidence != pricing.ConfidenceLow {
		t.Errorf("confidence = %q, want Low", resp.Confidence)
	}
	if resp.Factors.SoilQuality != nil || resp.Factors.WeatherConditions.RainFall != nil {
		t.Errorf("absent optional fields should echo as null: %+v", resp.Factors)
	}
}

func TestPricingHealth(t *testing.T) {
	s := newTestServer(t)

	check := func(wantStatus string, wantLoaded bool) {
		t.Helper()
		rec := s.do(http.MethodGet, "/api/price-prediction/health", "", nil)
		expectStatus(t, rec, http.StatusOK)
		var body map[string]any
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(body) != 2 {
			t.Errorf("health body has keys %v, want only status and model_loaded", body)
		}
		if body["status"] != wantStatus || body["model_loaded"] != wantLoaded {
			t.Errorf("health = %v, want status=%s model_loaded=%v", body, wantStatus, wantLoaded)
		}
	}

	check(pricing.StatusUnhealthy, false)
	s.loadModel()
	check(pricing.StatusHealthy, true)
}

func TestReloadModel(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/price-prediction/reload", "", nil)
	expectErrorCode(t, rec, http.StatusUnauthorized, ErrCodeUnauthorized)

	rec = s.do(http.MethodPost, "/api/price-prediction/reload", s.consumerToken(), nil)
	expectErrorCode(t, rec, http.StatusForbidden, ErrCodeForbidden)

	farmer := s.farmerToken()
	rec = s.do(http.MethodPost, "/api/price-prediction/reload", farmer, nil)
	expectErrorCode(t, rec, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
	if s.pricing.State() != pricing.StateFailed {
		t.Errorf("state = %v, want failed", s.pricing.State())
	}

	s.loader.set(trainedArtifact(t), nil)
	rec = s.do(http.MethodPost, "/api/price-prediction/reload", farmer, nil)
	expectStatus(t, rec, http.StatusOK)
	var resp ReloadResponse
	decodeData(t, rec, &resp)
	if resp.Status != pricing.StatusHealthy || resp.State != pricing.StateReady.String() {
		t.Errorf("reload response = %+v", resp)
	}
}

// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/tomtom215/kisaanconnect/internal/auth"
	"github.com/tomtom215/kisaanconnect/internal/database"
	"github.com/tomtom215/kisaanconnect/internal/pricing"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestRateLimitCustom(t *testing.T) {
	t.Parallel()

	m := NewChiMiddleware(nil)
	h := m.RateLimitCustom(RateLimitConfig{Requests: 2, Window: time.Minute})(okHandler)

	codes := make([]int, 3)
	for i := range codes {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes[i] = rec.Code
		if rec.Code == http.StatusTooManyRequests {
			expectErrorCode(t, rec, http.StatusTooManyRequests, ErrCodeTooManyRequests)
		}
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	t.Parallel()

	cfg := DefaultChiMiddlewareConfig()
	cfg.RateLimitDisabled = true
	h := NewChiMiddleware(cfg).RateLimitCustom(RateLimitConfig{Requests: 1, Window: time.Minute})(okHandler)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
}

func TestAPISecurityHeaders(t *testing.T) {
	t.Parallel()

	h := APISecurityHeaders()(okHandler)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	for k, v := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Cache-Control":          "no-store",
	} {
		if got := rec.Header().Get(k); got != v {
			t.Errorf("%s = %q, want %q", k, got, v)
		}
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS set on plain HTTP")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.TLS = &tls.ConnectionState{}
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Strict-Transport-Security") == "" {
		t.Error("HSTS missing over TLS")
	}
}

func TestWriteDomainError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"not found", database.ErrNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"username taken", database.ErrUsernameTaken, http.StatusBadRequest, ErrCodeConflict},
		{"empty cart", database.ErrEmptyCart, http.StatusBadRequest, ErrCodeBadRequest},
		{"crop unavailable", database.ErrCropUnavailable, http.StatusConflict, ErrCodeConflict},
		{"bad credentials", auth.ErrInvalidCredentials, http.StatusUnauthorized, ErrCodeUnauthorized},
		{"invalid input", pricing.ErrInvalidInput, http.StatusBadRequest, ErrCodeBadRequest},
		{"model unavailable", pricing.ErrServiceUnavailable, http.StatusServiceUnavailable, ErrCodeServiceUnavailable},
		{"prediction failure", &pricing.PredictionError{Cause: errors.New("bad width")}, http.StatusInternalServerError, ErrCodePredictionFailed},
		{"deadline", fmt.Errorf("predict: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, ErrCodeTimeout},
		{"canceled", context.Canceled, http.StatusServiceUnavailable, ErrCodeTimeout},
		{"anything else", errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeDatabaseError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec := httptest.NewRecorder()
			NewResponseWriter(rec, httptest.NewRequest(http.MethodGet, "/", nil)).writeDomainError(tt.err, "missing")
			expectErrorCode(t, rec, tt.status, tt.code)
		})
	}
}

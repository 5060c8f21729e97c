// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package api

import (
	"context"
	"net/http"
	"time"
)

// ServiceInfo describes one API area in the root listing.
type ServiceInfo struct {
	Name        string `json:"name"`
	Endpoint    string `json:"endpoint"`
	Description string `json:"description"`
}

// RootResponse is the body of GET /.
type RootResponse struct {
	Message  string        `json:"message"`
	Services []ServiceInfo `json:"services"`
}

var apiServices = []ServiceInfo{
	{Name: "Authentication", Endpoint: "/api/auth", Description: "User registration and login"},
	{Name: "Price Prediction", Endpoint: "/api/price-prediction", Description: "Crop price prediction from crop, season, region and weather"},
	{Name: "Farmer Dashboard", Endpoint: "/api/farmer", Description: "Crop listings and sales statistics for farmers"},
	{Name: "Consumer Dashboard", Endpoint: "/api/consumer", Description: "Marketplace, cart and orders for consumers"},
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status        string  `json:"status"`
	Database      string  `json:"database"`
	ModelLoaded   bool    `json:"model_loaded"`
	ModelState    string  `json:"model_state"`
	ModelVersion  int     `json:"model_version,omitempty"`
	Uptime        float64 `json:"uptime_seconds"`
	SchemaVersion int     `json:"schema_version,omitempty"`
}

// Root lists the API areas.
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Raw(http.StatusOK, RootResponse{
		Message:  "Welcome to KisaanConnect API",
		Services: apiServices,
	})
}

// Health reports overall status. A missing model degrades the service but
// does not make it unhealthy; the marketplace still works.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:     "healthy",
		Database:   "ok",
		ModelState: "disabled",
		Uptime:     time.Since(h.startTime).Seconds(),
	}
	status := http.StatusOK
	if err := h.db.Ping(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.Database = "unreachable"
		status = http.StatusServiceUnavailable
	} else if v, err := h.db.GetCurrentSchemaVersion(ctx); err == nil {
		resp.SchemaVersion = v
	}
	if h.pricing != nil {
		ph := h.pricing.Health()
		resp.ModelLoaded = ph.ModelLoaded
		resp.ModelState = ph.State.String()
		resp.ModelVersion = ph.Version
		if !ph.ModelLoaded && resp.Status == "healthy" {
			resp.Status = "degraded"
		}
	}
	NewResponseWriter(w, r).Raw(status, resp)
}

// HealthLive is the liveness probe.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Raw(http.StatusOK, map[string]string{"status": "alive"})
}

// HealthReady is the readiness probe: ready once the database answers.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := h.db.Ping(ctx); err != nil {
		NewResponseWriter(w, r).Raw(http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	NewResponseWriter(w, r).Raw(http.StatusOK, map[string]string{"status": "ready"})
}

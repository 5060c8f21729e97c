// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package api

import (
	"net/http"

	"github.com/tomtom215/kisaanconnect/internal/logging"
	"github.com/tomtom215/kisaanconnect/internal/pricing"
	"github.com/tomtom215/kisaanconnect/internal/validation"
)

// ReloadResponse is the body of a successful model reload.
type ReloadResponse struct {
	Status  string `json:"status"`
	Version int    `json:"version"`
	State   string `json:"state"`
}

// Predict returns a price prediction. The body is the bare
// pricing.PredictionResponse, without the envelope.
//
// Malformed JSON is a 400, a field that fails validation is a 422, a missing
// model is a 503 and a failure inside the model is a 500.
func (h *Handler) Predict(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.pricing == nil {
		rw.ServiceUnavailable("Price prediction is disabled")
		return
	}

	var req pricing.PredictionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		rw.writeValidationError(http.StatusUnprocessableEntity, verr)
		return
	}

	resp, err := h.pricing.Predict(r.Context(), req)
	if err != nil {
		rw.writeDomainError(err, "")
		return
	}
	rw.Raw(http.StatusOK, resp)
}

// PricingHealth returns the bare {status, model_loaded} report. It is 200
// even when no model is loaded so that callers can read model_loaded.
func (h *Handler) PricingHealth(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.pricing == nil {
		rw.Raw(http.StatusOK, pricing.Health{Status: pricing.StatusUnhealthy})
		return
	}
	rw.Raw(http.StatusOK, h.pricing.Health())
}

// ReloadModel loads the newest artifact from disk.
func (h *Handler) ReloadModel(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if h.pricing == nil {
		rw.ServiceUnavailable("Price prediction is disabled")
		return
	}
	if err := h.pricing.Reload(r.Context()); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Manual model reload failed")
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"Price model reload failed", map[string]any{"state": h.pricing.State().String()})
		return
	}
	hl := h.pricing.Health()
	rw.Success(ReloadResponse{Status: hl.Status, Version: hl.Version, State: hl.State.String()})
}

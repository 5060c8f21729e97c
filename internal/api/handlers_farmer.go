// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package api

import (
	"net/http"

	"github.com/tomtom215/kisaanconnect/internal/models"
)

const cropNotFound = "Crop not found"

// ListCrops returns the farmer's own listings, newest first.
func (h *Handler) ListCrops(w http.ResponseWriter, r *http.Request, u *models.User) {
	rw := NewResponseWriter(w, r)
	crops, err := h.db.ListCropsByFarmer(r.Context(), u.ID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.SuccessList(crops, len(crops))
}

// CreateCrop adds a listing for the farmer.
func (h *Handler) CreateCrop(w http.ResponseWriter, r *http.Request, u *models.User) {
	rw := NewResponseWriter(w, r)
	var in models.CropInput
	if err := decodeJSON(w, r, &in); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if !validate(rw, &in) {
		return
	}
	crop, err := h.db.CreateCrop(r.Context(), u.ID, &in)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Created(crop)
}

// GetCrop returns one of the farmer's listings.
func (h *Handler) GetCrop(w http.ResponseWriter, r *http.Request, u *models.User) {
	rw := NewResponseWriter(w, r)
	id, err := idParam(r, "id")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	crop, err := h.db.GetCrop(r.Context(), u.ID, id)
	if err != nil {
		rw.writeDomainError(err, cropNotFound)
		return
	}
	rw.Success(crop)
}

// UpdateCrop applies a partial update. Absent fields are left unchanged.
func (h *Handler) UpdateCrop(w http.ResponseWriter, r *http.Request, u *models.User) {
	rw := NewResponseWriter(w, r)
	id, err := idParam(r, "id")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	var upd models.CropUpdate
	if err := decodeJSON(w, r, &upd); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if !validate(rw, &upd) {
		return
	}
	crop, err := h.db.UpdateCrop(r.Context(), u.ID, id, &upd)
	if err != nil {
		rw.writeDomainError(err, cropNotFound)
		return
	}
	rw.Success(crop)
}

// DeleteCrop removes a listing.
func (h *Handler) DeleteCrop(w http.ResponseWriter, r *http.Request, u *models.User) {
	rw := NewResponseWriter(w, r)
	id, err := idParam(r, "id")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if err := h.db.DeleteCrop(r.Context(), u.ID, id); err != nil {
		rw.writeDomainError(err, cropNotFound)
		return
	}
	rw.NoContent()
}

// FarmerStats returns dashboard totals for the farmer.
func (h *Handler) FarmerStats(w http.ResponseWriter, r *http.Request, u *models.User) {
	rw := NewResponseWriter(w, r)
	stats, err := h.db.FarmerStats(r.Context(), u.ID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(stats)
}

// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/tomtom215/kisaanconnect/internal/auth"
	"github.com/tomtom215/kisaanconnect/internal/config"
	"github.com/tomtom215/kisaanconnect/internal/database"
	"github.com/tomtom215/kisaanconnect/internal/models"
	"github.com/tomtom215/kisaanconnect/internal/pricing"
)

// Handler serves every KisaanConnect endpoint.
type Handler struct {
	db        *database.DB
	auth      *auth.Service
	pricing   *pricing.Service
	config    *config.Config
	startTime time.Time
}

// NewHandler creates a Handler. svc may be nil when pricing is disabled; the
// prediction endpoints then answer 503.
func NewHandler(db *database.DB, authSvc *auth.Service, svc *pricing.Service, cfg *config.Config) *Handler {
	return &Handler{
		db:        db,
		auth:      authSvc,
		pricing:   svc,
		config:    cfg,
		startTime: time.Now(),
	}
}

// currentUser returns the user RequireAuth stored in the context. Routes that
// call it are always mounted behind RequireAuth.
func currentUser(ctx context.Context) *models.User {
	u, _ := auth.UserFromContext(ctx)
	return u
}

// withUser wraps handlers that need the authenticated user.
func withUser(fn func(w http.ResponseWriter, r *http.Request, u *models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u := currentUser(r.Context())
		if u == nil {
			NewResponseWriter(w, r).Unauthorized("Could not validate credentials")
			return
		}
		fn(w, r, u)
	}
}

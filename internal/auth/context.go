// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package auth

import (
	"context"

	"github.com/tomtom215/kisaanconnect/internal/logging"
	"github.com/tomtom215/kisaanconnect/internal/models"
)

type contextKey string

const userContextKey contextKey = "user"

// ContextWithUser stores u in ctx and tags the request logger with the
// username.
func ContextWithUser(ctx context.Context, u *models.User) context.Context {
	ctx = context.WithValue(ctx, userContextKey, u)
	return logging.ContextWithUser(ctx, u.Username)
}

// UserFromContext returns the authenticated user, if any.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userContextKey).(*models.User)
	return u, ok && u != nil
}

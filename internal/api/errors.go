// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/kisaanconnect/internal/auth"
	"github.com/tomtom215/kisaanconnect/internal/database"
	"github.com/tomtom215/kisaanconnect/internal/logging"
	"github.com/tomtom215/kisaanconnect/internal/pricing"
	"github.com/tomtom215/kisaanconnect/internal/validation"
)

// writeValidationError renders a validator failure with the given status.
func (rw *ResponseWriter) writeValidationError(status int, verr *validation.RequestValidationError) {
	apiErr := verr.ToAPIError()
	rw.ErrorWithDetails(status, apiErr.Code, apiErr.Message, apiErr.Details)
}

// validate runs struct validation and writes a 400 on failure.
func validate(rw *ResponseWriter, v any) bool {
	if verr := validation.ValidateStruct(v); verr != nil {
		rw.writeValidationError(http.StatusBadRequest, verr)
		return false
	}
	return true
}

// writeDomainError maps store and service errors to HTTP responses. notFound
// is the message used for database.ErrNotFound.
func (rw *ResponseWriter) writeDomainError(err error, notFound string) {
	var predErr *pricing.PredictionError
	switch {
	case errors.Is(err, database.ErrNotFound):
		rw.NotFound(notFound)
	case errors.Is(err, database.ErrUsernameTaken):
		rw.Error(http.StatusBadRequest, ErrCodeConflict, "Username already registered")
	case errors.Is(err, database.ErrEmptyCart):
		rw.BadRequest("Cart is empty")
	case errors.Is(err, database.ErrCropUnavailable):
		rw.Error(http.StatusConflict, ErrCodeConflict, "Crop is not available")
	case errors.Is(err, auth.ErrInvalidCredentials):
		rw.w.Header().Set("WWW-Authenticate", "Bearer")
		rw.Unauthorized("Incorrect username or password")
	case errors.Is(err, auth.ErrUnauthenticated):
		rw.w.Header().Set("WWW-Authenticate", "Bearer")
		rw.Unauthorized("Could not validate credentials")
	case errors.Is(err, pricing.ErrInvalidInput):
		rw.BadRequest(err.Error())
	case errors.Is(err, pricing.ErrServiceUnavailable):
		rw.ServiceUnavailable("Price prediction model is not loaded")
	case errors.Is(err, context.DeadlineExceeded):
		rw.Error(http.StatusGatewayTimeout, ErrCodeTimeout, "Request timed out")
	case errors.Is(err, context.Canceled):
		// The client is gone; the status is only seen by the access log.
		rw.Error(http.StatusServiceUnavailable, ErrCodeTimeout, "Request canceled")
	case errors.As(err, &predErr):
		logging.Ctx(rw.r.Context()).Error().Err(err).Msg("Prediction failed")
		rw.Error(http.StatusInternalServerError, ErrCodePredictionFailed, "Error predicting price")
	default:
		rw.DatabaseError(err)
	}
}

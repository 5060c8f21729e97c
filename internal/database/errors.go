// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package database

import (
	"errors"
	"io"
	"strings"
)

var (
	// ErrNotFound is returned when a row does not exist or is not visible to
	// the caller.
	ErrNotFound = errors.New("not found")

	// ErrUsernameTaken is returned when registering an existing username.
	ErrUsernameTaken = errors.New("username already registered")

	// ErrEmptyCart is returned when placing an order from an empty cart.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrCropUnavailable is returned when adding a crop that is not listed as
	// available.
	ErrCropUnavailable = errors.New("crop is not available")
)

func closeQuietly(closer io.Closer) {
	if closer != nil {
		_ = closer.Close()
	}
}

// isUniqueViolation reports whether err is a DuckDB constraint error on a
// primary key or unique index.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate key") || strings.Contains(msg, "violates unique constraint")
}

// nullable converts an optional value into a driver argument.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package pricing

import (
	"errors"
	"fmt"
)

var (
	// ErrSchema reports empty or malformed training data. Fatal for a training run.
	ErrSchema = errors.New("schema error")

	// ErrServiceUnavailable is returned while no artifact is loaded.
	ErrServiceUnavailable = errors.New("price model not loaded")

	// ErrInvalidInput reports a malformed or out-of-range request field.
	ErrInvalidInput = errors.New("invalid input")
)

// PredictionError wraps an unexpected failure inside transform or predict.
type PredictionError struct {
	Cause error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction error: %v", e.Cause)
}

func (e *PredictionError) Unwrap() error {
	return e.Cause
}

func schemaErrorf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrSchema, fmt.Sprintf(format, args...))
}

func invalidInputf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

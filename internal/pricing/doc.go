// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

// Package pricing trains and serves the crop price model.
//
// # Components
//
// The package is layered leaf-first:
//
//   - FeatureSchema: ordered numeric and categorical feature names shared by
//     training and inference.
//   - Pipeline: standard scaling of numeric features and one-hot encoding of
//     categorical features. Every categorical block ends with an unseen slot.
//   - Forest: a bagged ensemble of CART regression trees.
//   - Trainer: impute, split, fit, evaluate and persist an Artifact.
//   - Service: owns the loaded Artifact and answers prediction requests.
//
// # Service lifecycle
//
// A Service starts Unloaded. Each Reload moves it through Loading to
// either Ready or Failed. A Failed service stays up and rejects every
// prediction with ErrServiceUnavailable until a later Reload succeeds. The
// loaded artifact is immutable and swapped atomically, so predictions never
// take a lock.
//
// # Price band
//
// min_price and max_price are a fixed ±10% band around the predicted price.
// They are not a statistical prediction interval. confidence is a label
// derived from how many optional inputs the caller supplied.
package pricing

// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

// Package services adapts server components to suture.Service.
//
// Every service blocks in Serve until its context is canceled and returns
// ctx.Err() on a clean stop. Components are consumed through small
// interfaces so the services can be tested with fakes.
package services

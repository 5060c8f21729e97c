// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

/*
Package middleware provides HTTP middleware shared by every route.

  - RequestID: accepts or generates X-Request-ID and stores it in the context
  - PrometheusMetrics: request count, latency and in-flight gauge, labelled by
    chi route pattern to keep cardinality bounded
  - AccessLog: one zerolog line per request

Recommended order:

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog)
	r.Use(middleware.PrometheusMetrics)
*/
package middleware

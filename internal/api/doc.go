// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

/*
Package api provides the HTTP surface of KisaanConnect on a chi router.

Route groups:

	GET  /                              service listing
	GET  /health, /health/live, /health/ready
	GET  /metrics                       Prometheus

	/api/price-prediction               predict, health, reload (farmer)
	/api/auth                           register, login, login/user, me, logout
	/api/farmer                         crop CRUD and dashboard stats (farmer)
	/api/consumer                       marketplace, cart, orders, stats (consumer)

Responses use the APIResponse envelope:

	{"success": true, "data": {...}, "meta": {"request_id": "...", "timestamp": "..."}}
	{"success": false, "error": {"code": "NOT_FOUND", "message": "..."}}

The predict and health endpoints return bare JSON bodies so existing clients
of the prediction API keep working.

Middleware order is request ID, access log, panic recovery, CORS and
metrics, then per-group rate limits and authentication.
*/
package api

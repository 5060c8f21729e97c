// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

/*
Package supervisor runs the long-lived parts of the server under a suture v4
supervisor tree.

	kisaanconnect (root)
	├── data-layer    session cleanup
	├── model-layer   price model reload watcher
	└── api-layer     HTTP server

A failing service is restarted with backoff by its layer supervisor without
disturbing the other layers, so a corrupt model artifact never takes the
marketplace API down. Supervisor events are logged through sutureslog into
zerolog.
*/
package supervisor

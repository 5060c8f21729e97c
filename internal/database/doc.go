// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

/*
Package database provides marketplace persistence on DuckDB.

Tables:
  - users: accounts with a bcrypt password hash and a role
  - crops: farmer listings
  - cart_items: items keyed by an opaque cart ID
  - orders, order_items: placed orders with price snapshots

Schema changes are applied as versioned migrations recorded in
schema_migrations. IDs come from DuckDB sequences. Foreign keys are enforced
in Go rather than in the schema because DuckDB rejects updates to rows that
are referenced by a foreign key.

Multi-statement write paths (adding to a cart, placing an order) are
serialized with writeMu so that concurrent requests never hit DuckDB's
optimistic transaction conflicts.

Every query is timed into the kisaanconnect_db_* Prometheus metrics.

Testing:

	cfg := &config.DatabaseConfig{Path: ":memory:", MaxMemory: "256MB"}
	db, err := database.New(cfg)
*/
package database

// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

/*
Package auth provides account registration, login and bearer-token sessions
for farmers and consumers.

Tokens are opaque: 32 random bytes, hex encoded. They map to a Session held
in a SessionStore. Two stores are available:

  - MemorySessionStore: sessions are lost on restart (development, tests)
  - BadgerSessionStore: durable, entries expire through Badger TTLs

Passwords are hashed with bcrypt.

HTTP integration:

	mw := auth.NewMiddleware(svc, writeError)
	r.With(mw.RequireAuth, mw.RequireRole(models.RoleFarmer)).Get("/crops", h)

RequireAuth stores the authenticated user in the request context; handlers
read it with UserFromContext.
*/
package auth

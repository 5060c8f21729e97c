// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/tomtom215/kisaanconnect/internal/logging"
)

// Error codes written by the middleware.
const (
	ErrCodeUnauthorized = "UNAUTHORIZED"
	ErrCodeForbidden    = "FORBIDDEN"
)

// ErrorWriter renders an error response.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, code, message string)

// Middleware enforces bearer-token authentication and roles.
type Middleware struct {
	svc        *Service
	writeError ErrorWriter
}

// NewMiddleware creates a Middleware. A nil writeError falls back to
// http.Error.
func NewMiddleware(svc *Service, writeError ErrorWriter) *Middleware {
	if writeError == nil {
		writeError = func(w http.ResponseWriter, _ *http.Request, status int, _, message string) {
			http.Error(w, message, status)
		}
	}
	return &Middleware{svc: svc, writeError: writeError}
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
func BearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// RequireAuth rejects requests without a valid token and stores the user in
// the request context.
func (m *Middleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, err := m.svc.Authenticate(r.Context(), BearerToken(r))
		if err != nil {
			if !errors.Is(err, ErrUnauthenticated) {
				logging.Ctx(r.Context()).Error().Err(err).Msg("Authentication failed")
			}
			w.Header().Set("WWW-Authenticate", "Bearer")
			m.writeError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), u)))
	})
}

// RequireRole rejects authenticated users whose role differs from role. It
// must run after RequireAuth.
func (m *Middleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				m.writeError(w, r, http.StatusUnauthorized, ErrCodeUnauthorized, "Could not validate credentials")
				return
			}
			if u.Role != role {
				m.writeError(w, r, http.StatusForbidden, ErrCodeForbidden, "Access forbidden: "+role+" role required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

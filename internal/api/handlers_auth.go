// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package api

import (
	"net/http"
	"strings"

	"github.com/tomtom215/kisaanconnect/internal/auth"
	"github.com/tomtom215/kisaanconnect/internal/logging"
	"github.com/tomtom215/kisaanconnect/internal/models"
)

// UserResponse is the public view of an account.
type UserResponse struct {
	ID       int64   `json:"id"`
	Username string  `json:"username"`
	Role     string  `json:"role"`
	Name     *string `json:"name"`
	Email    *string `json:"email"`
}

// Register creates an account and returns a token for it.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req models.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if !validate(rw, &req) {
		return
	}
	tok, err := h.auth.Register(r.Context(), &req)
	if err != nil {
		rw.writeDomainError(err, "")
		return
	}
	rw.Created(tok)
}

// Login authenticates form fields username and password, as OAuth2 password
// clients send them.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		rw.BadRequest("Invalid form body")
		return
	}
	req := models.LoginRequest{
		Username: strings.TrimSpace(r.PostForm.Get("username")),
		Password: r.PostForm.Get("password"),
	}
	h.login(rw, r, &req)
}

// LoginJSON authenticates a JSON {username, password} body.
func (h *Handler) LoginJSON(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	var req models.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	h.login(rw, r, &req)
}

func (h *Handler) login(rw *ResponseWriter, r *http.Request, req *models.LoginRequest) {
	if !validate(rw, req) {
		return
	}
	tok, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		rw.writeDomainError(err, "")
		return
	}
	rw.Success(tok)
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request, u *models.User) {
	NewResponseWriter(w, r).Success(UserResponse{
		ID:       u.ID,
		Username: u.Username,
		Role:     u.Role,
		Name:     u.Name,
		Email:    u.Email,
	})
}

// Logout revokes the bearer token.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)
	if err := h.auth.Logout(r.Context(), auth.BearerToken(r)); err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Logout failed")
		rw.InternalError("Logout failed")
		return
	}
	rw.NoContent()
}

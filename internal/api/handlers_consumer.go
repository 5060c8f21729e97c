// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tomtom215/kisaanconnect/internal/logging"
	"github.com/tomtom215/kisaanconnect/internal/models"
)

const maxCartIDLen = 64

// NewCartResponse carries a freshly generated cart ID.
type NewCartResponse struct {
	CartID string `json:"cart_id"`
}

// cartIDParam returns the {cartID} URL parameter, or "" if it is unusable.
func cartIDParam(r *http.Request) string {
	id := strings.TrimSpace(chi.URLParam(r, "cartID"))
	if len(id) > maxCartIDLen {
		return ""
	}
	return id
}

// Marketplace lists every available crop.
func (h *Handler) Marketplace(w http.ResponseWriter, r *http.Request, _ *models.User) {
	rw := NewResponseWriter(w, r)
	crops, err := h.db.ListAvailableCrops(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.SuccessList(crops, len(crops))
}

// NewCart issues a cart ID. Carts exist implicitly once an item is added.
func (h *Handler) NewCart(w http.ResponseWriter, r *http.Request, _ *models.User) {
	NewResponseWriter(w, r).Created(NewCartResponse{CartID: uuid.NewString()})
}

// GetCart returns the cart's items and total. An unknown cart is empty.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request, _ *models.User) {
	rw := NewResponseWriter(w, r)
	cartID := cartIDParam(r)
	if cartID == "" {
		rw.BadRequest("Invalid cart ID")
		return
	}
	cart, err := h.db.GetCart(r.Context(), cartID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(cart)
}

// AddCartItem puts a crop into the cart, snapshotting its current price.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request, _ *models.User) {
	rw := NewResponseWriter(w, r)
	cartID := cartIDParam(r)
	if cartID == "" {
		rw.BadRequest("Invalid cart ID")
		return
	}
	var req models.AddCartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if !validate(rw, &req) {
		return
	}
	item, err := h.db.AddCartItem(r.Context(), cartID, req.CropID, req.Quantity)
	if err != nil {
		rw.writeDomainError(err, cropNotFound)
		return
	}
	rw.Created(item)
}

// RemoveCartItem deletes one item from the cart.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request, _ *models.User) {
	rw := NewResponseWriter(w, r)
	cartID := cartIDParam(r)
	if cartID == "" {
		rw.BadRequest("Invalid cart ID")
		return
	}
	itemID, err := idParam(r, "itemID")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if err := h.db.RemoveCartItem(r.Context(), cartID, itemID); err != nil {
		rw.writeDomainError(err, "Item not found in cart")
		return
	}
	rw.NoContent()
}

// CreateOrder turns the cart into a pending order and empties the cart.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request, u *models.User) {
	rw := NewResponseWriter(w, r)
	var req models.CreateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if !validate(rw, &req) {
		return
	}
	order, err := h.db.CreateOrder(r.Context(), u.ID, strings.TrimSpace(req.CartID), req.ShippingAddress)
	if err != nil {
		rw.writeDomainError(err, "")
		return
	}
	logging.Ctx(r.Context()).Info().
		Int64("order_id", order.ID).
		Float64("total", order.TotalAmount).
		Int("items", len(order.Items)).
		Msg("Order placed")
	rw.Created(order)
}

// ListOrders returns the consumer's orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request, u *models.User) {
	rw := NewResponseWriter(w, r)
	orders, err := h.db.ListOrdersByConsumer(r.Context(), u.ID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.SuccessList(orders, len(orders))
}

// GetOrder returns one of the consumer's orders with its items.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, u *models.User) {
	rw := NewResponseWriter(w, r)
	id, err := idParam(r, "id")
	if err != nil {
		rw.BadRequest(err.Error())
		return
	}
	order, err := h.db.GetOrder(r.Context(), u.ID, id)
	if err != nil {
		rw.writeDomainError(err, "Order not found")
		return
	}
	rw.Success(order)
}

// ConsumerStats returns dashboard totals for the consumer.
func (h *Handler) ConsumerStats(w http.ResponseWriter, r *http.Request, u *models.User) {
	rw := NewResponseWriter(w, r)
	stats, err := h.db.ConsumerStats(r.Context(), u.ID)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(stats)
}

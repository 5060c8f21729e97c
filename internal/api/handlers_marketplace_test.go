// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package api

import (
	"fmt"
	"math"
	"net/http"
	"testing"

	"github.com/tomtom215/kisaanconnect/internal/models"
)

func TestFarmerCrops_CRUD(t *testing.T) {
	s := newTestServer(t)
	token := s.farmerToken()

	rec := s.do(http.MethodGet, "/api/farmer/crops", token, nil)
	expectStatus(t, rec, http.StatusOK)
	var seeded []models.Crop
	decodeData(t, rec, &seeded)
	if len(seeded) != 5 {
		t.Fatalf("seeded crops = %d, want 5", len(seeded))
	}

	rec = s.do(http.MethodPost, "/api/farmer/crops", token, map[string]any{
		"name": "Maize", "quantity": 40, "price_per_unit": 22.5,
	})
	expectStatus(t, rec, http.StatusCreated)
	var crop models.Crop
	decodeData(t, rec, &crop)
	if crop.Unit != models.DefaultCropUnit || !crop.Available {
		t.Errorf("defaults not applied: %+v", crop)
	}

	path := fmt.Sprintf("/api/farmer/crops/%d", crop.ID)
	rec = s.do(http.MethodPut, path, token, map[string]any{"price_per_unit": 25, "available": false})
	expectStatus(t, rec, http.StatusOK)
	var updated models.Crop
	decodeData(t, rec, &updated)
	if updated.PricePerUnit != 25 || updated.Available || updated.Name != "Maize" {
		t.Errorf("updated = %+v", updated)
	}

	rec = s.do(http.MethodGet, path, token, nil)
	expectStatus(t, rec, http.StatusOK)

	rec = s.do(http.MethodDelete, path, token, nil)
	expectStatus(t, rec, http.StatusNoContent)

	rec = s.do(http.MethodGet, path, token, nil)
	expectErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)
	rec = s.do(http.MethodDelete, path, token, nil)
	expectErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)
}

func TestFarmerCrops_Validation(t *testing.T) {
	s := newTestServer(t)
	token := s.farmerToken()

	rec := s.do(http.MethodPost, "/api/farmer/crops", token, map[string]any{"quantity": 1, "price_per_unit": 1})
	expectErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidationFailed)

	rec = s.do(http.MethodPost, "/api/farmer/crops", token, map[string]any{"name": "Rice", "quantity": -1, "price_per_unit": 1})
	expectErrorCode(t, rec, http.StatusBadRequest, ErrCodeValidationFailed)

	rec = s.do(http.MethodGet, "/api/farmer/crops/abc", token, nil)
	expectErrorCode(t, rec, http.StatusBadRequest, ErrCodeBadRequest)
}

func TestFarmerCrops_OwnershipIsolation(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodPost, "/api/auth/register", "", map[string]any{"username": "farmer2", "password": "secret1", "role": "farmer"})
	expectStatus(t, rec, http.StatusCreated)
	var other models.TokenResponse
	decodeData(t, rec, &other)

	rec = s.do(http.MethodGet, "/api/farmer/crops", s.farmerToken(), nil)
	var crops []models.Crop
	decodeData(t, rec, &crops)

	path := fmt.Sprintf("/api/farmer/crops/%d", crops[0].ID)
	rec = s.do(http.MethodGet, path, other.AccessToken, nil)
	expectErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)
	rec = s.do(http.MethodDelete, path, other.AccessToken, nil)
	expectErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)
}

func TestFarmerStats(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(http.MethodGet, "/api/farmer/dashboard/stats", s.farmerToken(), nil)
	expectStatus(t, rec, http.StatusOK)
	var stats models.FarmerStats
	decodeData(t, rec, &stats)
	if stats.TotalCrops != 5 || len(stats.CropsByType) != 5 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.TotalValue <= 0 || stats.TotalQuantity <= 0 {
		t.Errorf("totals not computed: %+v", stats)
	}
}

func TestRoleGating(t *testing.T) {
	s := newTestServer(t)
	farmer, consumer := s.farmerToken(), s.consumerToken()

	tests := []struct {
		path   string
		token  string
		status int
	}{
		{"/api/farmer/crops", "", http.StatusUnauthorized},
		{"/api/farmer/crops", consumer, http.StatusForbidden},
		{"/api/consumer/marketplace", farmer, http.StatusForbidden},
		{"/api/consumer/marketplace", "", http.StatusUnauthorized},
		{"/api/consumer/dashboard/stats", consumer, http.StatusOK},
		{"/api/farmer/dashboard/stats", farmer, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := s.do(http.MethodGet, tt.path, tt.token, nil)
			expectStatus(t, rec, tt.status)
		})
	}
}

func TestConsumerCartAndOrders(t *testing.T) {
	s := newTestServer(t)
	token := s.consumerToken()

	rec := s.do(http.MethodGet, "/api/consumer/marketplace", token, nil)
	expectStatus(t, rec, http.StatusOK)
	var market []models.Crop
	decodeData(t, rec, &market)
	if len(market) != 5 {
		t.Fatalf("marketplace = %d crops, want 5", len(market))
	}
	for i := 1; i < len(market); i++ {
		if market[i-1].Name > market[i].Name {
			t.Errorf("marketplace not ordered by name: %q before %q", market[i-1].Name, market[i].Name)
		}
	}

	rec = s.do(http.MethodPost, "/api/consumer/cart", token, nil)
	expectStatus(t, rec, http.StatusCreated)
	var nc NewCartResponse
	decodeData(t, rec, &nc)
	if nc.CartID == "" {
		t.Fatal("empty cart id")
	}
	cartPath := "/api/consumer/cart/" + nc.CartID

	rec = s.do(http.MethodGet, cartPath, token, nil)
	expectStatus(t, rec, http.StatusOK)
	var cart models.Cart
	decodeData(t, rec, &cart)
	if len(cart.Items) != 0 || cart.Total != 0 {
		t.Errorf("new cart = %+v, want empty", cart)
	}

	first, second := market[0], market[1]
	for _, add := range []struct {
		id  int64
		qty float64
	}{{first.ID, 2}, {first.ID, 3}, {second.ID, 1}} {
		rec = s.do(http.MethodPost, cartPath+"/items", token, map[string]any{"crop_id": add.id, "quantity": add.qty})
		expectStatus(t, rec, http.StatusCreated)
	}

	rec = s.do(http.MethodGet, cartPath, token, nil)
	decodeData(t, rec, &cart)
	if len(cart.Items) != 2 {
		t.Fatalf("cart items = %d, want 2", len(cart.Items))
	}
	want := roundTo2(5*first.PricePerUnit + second.PricePerUnit)
	if cart.Total != want {
		t.Errorf("cart total = %v, want %v", cart.Total, want)
	}

	var secondItem int64
	for _, it := range cart.Items {
		if it.CropID == second.ID {
			secondItem = it.ID
		}
	}
	rec = s.do(http.MethodDelete, fmt.Sprintf("%s/items/%d", cartPath, secondItem), token, nil)
	expectStatus(t, rec, http.StatusNoContent)
	rec = s.do(http.MethodDelete, fmt.Sprintf("%s/items/%d", cartPath, secondItem), token, nil)
	expectErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)
	if env := decodeEnvelope(t, rec); env.Error.Message != "Item not found in cart" {
		t.Errorf("message = %q", env.Error.Message)
	}

	rec = s.do(http.MethodPost, "/api/consumer/orders", token, map[string]any{"cart_id": nc.CartID, "shipping_address": "12 Market Road"})
	expectStatus(t, rec, http.StatusCreated)
	var order models.Order
	decodeData(t, rec, &order)
	if order.Status != models.OrderStatusPending || len(order.Items) != 1 {
		t.Errorf("order = %+v", order)
	}
	if order.TotalAmount != roundTo2(5*first.PricePerUnit) {
		t.Errorf("order total = %v", order.TotalAmount)
	}

	rec = s.do(http.MethodGet, cartPath, token, nil)
	decodeData(t, rec, &cart)
	if len(cart.Items) != 0 {
		t.Errorf("cart not cleared after order: %+v", cart)
	}

	rec = s.do(http.MethodPost, "/api/consumer/orders", token, map[string]any{"cart_id": nc.CartID, "shipping_address": "12 Market Road"})
	expectErrorCode(t, rec, http.StatusBadRequest, ErrCodeBadRequest)

	rec = s.do(http.MethodGet, "/api/consumer/orders", token, nil)
	expectStatus(t, rec, http.StatusOK)
	var orders []models.Order
	decodeData(t, rec, &orders)
	if len(orders) != 1 || orders[0].ID != order.ID {
		t.Errorf("orders = %+v", orders)
	}

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/consumer/orders/%d", order.ID), token, nil)
	expectStatus(t, rec, http.StatusOK)
	rec = s.do(http.MethodGet, "/api/consumer/orders/999999", token, nil)
	expectErrorCode(t, rec, http.StatusNotFound, ErrCodeNotFound)

	rec = s.do(http.MethodGet, "/api/consumer/dashboard/stats", token, nil)
	var stats models.ConsumerStats
	decodeData(t, rec, &stats)
	if stats.TotalOrders != 1 || stats.TotalSpending != order.TotalAmount || stats.TotalProducts != 5 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestAddCartItem_Errors(t *testing.T) {
	s := newTestServer(t)
	farmer, consumer := s.farmerToken(), s.consumerToken()

	rec := s.do(http.MethodPost, "/api/farmer/crops", farmer, map[string]any{
		"name": "Garlic", "quantity": 5, "price_per_unit": 90, "available": false,
	})
	var hidden models.Crop
	decodeData(t, rec, &hidden)

	tests := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"unknown crop", map[string]any{"crop_id": 999999, "quantity": 1}, http.StatusNotFound, ErrCodeNotFound},
		{"unavailable crop", map[string]any{"crop_id": hidden.ID, "quantity": 1}, http.StatusConflict, ErrCodeConflict},
		{"zero quantity", map[string]any{"crop_id": hidden.ID, "quantity": 0}, http.StatusBadRequest, ErrCodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, "/api/consumer/cart/cart-1/items", consumer, tt.body)
			expectErrorCode(t, rec, tt.status, tt.code)
		})
	}
}

func roundTo2(v float64) float64 {
	return math.Round(v*100) / 100
}

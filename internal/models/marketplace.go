// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package models

import "time"

// User roles.
const (
	RoleFarmer   = "farmer"
	RoleConsumer = "consumer"
)

// OrderStatusPending is the status of a newly placed order.
const OrderStatusPending = "pending"

// DefaultCropUnit is applied when a listing does not name a unit.
const DefaultCropUnit = "kg"

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Name         *string   `json:"name"`
	Email        *string   `json:"email"`
	CreatedAt    time.Time `json:"created_at"`
}

// Crop is a farmer's listing.
type Crop struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Quantity     float64   `json:"quantity"`
	Unit         string    `json:"unit"`
	PricePerUnit float64   `json:"price_per_unit"`
	Description  *string   `json:"description"`
	Location     *string   `json:"location"`
	Available    bool      `json:"available"`
	FarmerID     int64     `json:"farmer_id"`
	CreatedAt    time.Time `json:"created_at"`
}

// CropInput creates a listing.
type CropInput struct {
	Name         string  `json:"name" validate:"required,max=100"`
	Quantity     float64 `json:"quantity" validate:"gte=0"`
	Unit         string  `json:"unit" validate:"omitempty,max=20"`
	PricePerUnit float64 `json:"price_per_unit" validate:"gte=0"`
	Description  *string `json:"description" validate:"omitempty,max=1000"`
	Location     *string `json:"location" validate:"omitempty,max=200"`
	Available    *bool   `json:"available"`
}

// CropUpdate changes the non-nil fields of a listing.
type CropUpdate struct {
	Name         *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Quantity     *float64 `json:"quantity" validate:"omitempty,gte=0"`
	Unit         *string  `json:"unit" validate:"omitempty,min=1,max=20"`
	PricePerUnit *float64 `json:"price_per_unit" validate:"omitempty,gte=0"`
	Description  *string  `json:"description" validate:"omitempty,max=1000"`
	Location     *string  `json:"location" validate:"omitempty,max=200"`
	Available    *bool    `json:"available"`
}

// CropTypeCount is one row of FarmerStats.CropsByType.
type CropTypeCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// FarmerStats summarises a farmer's listings.
type FarmerStats struct {
	TotalCrops    int64           `json:"total_crops"`
	TotalQuantity float64         `json:"total_quantity"`
	TotalValue    float64         `json:"total_value"`
	CropsByType   []CropTypeCount `json:"crops_by_type"`
}

// CartItem is one crop in a cart. UnitPrice and CropName are copied from the
// listing when the item is first added.
type CartItem struct {
	ID        int64     `json:"id"`
	CartID    string    `json:"cart_id"`
	CropID    int64     `json:"crop_id"`
	Quantity  float64   `json:"quantity"`
	UnitPrice float64   `json:"unit_price"`
	CropName  string    `json:"crop_name"`
	CreatedAt time.Time `json:"created_at"`
}

// Cart is the contents of one cart ID.
type Cart struct {
	CartID string     `json:"cart_id"`
	Items  []CartItem `json:"items"`
	Total  float64    `json:"total"`
}

// AddCartItemRequest adds a quantity of a crop to a cart.
type AddCartItemRequest struct {
	CropID   int64   `json:"crop_id" validate:"required,gt=0"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
}

// Order is a placed order.
type Order struct {
	ID              int64       `json:"id"`
	ConsumerID      int64       `json:"consumer_id"`
	TotalAmount     float64     `json:"total_amount"`
	Status          string      `json:"status"`
	ShippingAddress string      `json:"shipping_address"`
	CreatedAt       time.Time   `json:"created_at"`
	Items           []OrderItem `json:"items,omitempty"`
}

// OrderItem is one line of an order.
type OrderItem struct {
	ID        int64   `json:"id"`
	OrderID   int64   `json:"order_id"`
	CropID    int64   `json:"crop_id"`
	Quantity  float64 `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	CropName  string  `json:"crop_name"`
}

// CreateOrderRequest places an order from the contents of a cart.
type CreateOrderRequest struct {
	CartID          string `json:"cart_id" validate:"required,max=64"`
	ShippingAddress string `json:"shipping_address" validate:"required,max=500"`
}

// StatusCount is one row of ConsumerStats.OrdersByStatus.
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// ConsumerStats summarises a consumer's orders and the marketplace.
type ConsumerStats struct {
	TotalOrders    int64         `json:"total_orders"`
	TotalSpending  float64       `json:"total_spending"`
	OrdersByStatus []StatusCount `json:"orders_by_status"`
	TotalProducts  int64         `json:"total_products"`
}

// RegisterRequest creates an account.
type RegisterRequest struct {
	Username string  `json:"username" validate:"required,min=3,max=50"`
	Password string  `json:"password" validate:"required,min=6,max=72"`
	Role     string  `json:"role" validate:"required,oneof=farmer consumer"`
	Name     *string `json:"name" validate:"omitempty,max=100"`
	Email    *string `json:"email" validate:"omitempty,email"`
}

// LoginRequest authenticates an account.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Role        string `json:"role"`
	Username    string `json:"username"`
}

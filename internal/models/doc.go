// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

/*
Package models defines the marketplace data structures shared by the database
layer, the auth service and the HTTP handlers.

Database Models:
  - User: registered farmer or consumer
  - Crop: a farmer's listing
  - CartItem, Cart: items a consumer is about to order, keyed by cart ID
  - Order, OrderItem: placed orders with a snapshot of unit prices

Request Models:
  - RegisterRequest, LoginRequest
  - CropInput, CropUpdate
  - AddCartItemRequest, CreateOrderRequest

Request models carry go-playground/validator tags and are checked by
internal/validation before they reach a store.
*/
package models

// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/kisaanconnect/internal/models"
)

// AddCartItem adds quantity of cropID to cartID. Adding a crop that is
// already in the cart increases its quantity and keeps the original price
// snapshot.
func (db *DB) AddCartItem(ctx context.Context, cartID string, cropID int64, quantity float64) (item *models.CartItem, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("upsert", "cart_items", start, err) }()

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	var (
		cropName  string
		price     float64
		available bool
	)
	err = db.conn.QueryRowContext(ctx,
		`SELECT name, price_per_unit, available FROM crops WHERE id = ?`, cropID,
	).Scan(&cropName, &price, &available)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up crop: %w", err)
	}
	if !available {
		return nil, ErrCropUnavailable
	}

	item = &models.CartItem{}
	err = db.conn.QueryRowContext(ctx, `
		SELECT id, cart_id, crop_id, quantity, unit_price, crop_name, created_at
		FROM cart_items WHERE cart_id = ? AND crop_id = ?`, cartID, cropID,
	).Scan(&item.ID, &item.CartID, &item.CropID, &item.Quantity, &item.UnitPrice, &item.CropName, &item.CreatedAt)
	switch {
	case err == nil:
		item.Quantity += quantity
		if _, err = db.conn.ExecContext(ctx,
			`UPDATE cart_items SET quantity = ? WHERE id = ?`, item.Quantity, item.ID); err != nil {
			return nil, fmt.Errorf("failed to update cart item: %w", err)
		}
		return item, nil
	case !errors.Is(err, sql.ErrNoRows):
		return nil, fmt.Errorf("failed to look up cart item: %w", err)
	}

	item = &models.CartItem{
		CartID:    cartID,
		CropID:    cropID,
		Quantity:  quantity,
		UnitPrice: price,
		CropName:  cropName,
		CreatedAt: time.Now().UTC(),
	}
	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO cart_items (cart_id, crop_id, quantity, unit_price, crop_name, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id`,
		item.CartID, item.CropID, item.Quantity, item.UnitPrice, item.CropName, item.CreatedAt,
	).Scan(&item.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert cart item: %w", err)
	}
	return item, nil
}

// GetCart returns the items in cartID. An unknown cart is empty, not missing.
func (db *DB) GetCart(ctx context.Context, cartID string) (cart *models.Cart, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "cart_items", start, err) }()

	items, err := queryCartItems(ctx, db.conn, cartID)
	if err != nil {
		return nil, err
	}
	return &models.Cart{CartID: cartID, Items: items, Total: cartTotal(items)}, nil
}

// RemoveCartItem deletes one item from cartID.
func (db *DB) RemoveCartItem(ctx context.Context, cartID string, itemID int64) error {
	return db.execOwned(ctx, "delete", "cart_items",
		`DELETE FROM cart_items WHERE id = ? AND cart_id = ?`, itemID, cartID)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryCartItems(ctx context.Context, q queryer, cartID string) ([]models.CartItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, cart_id, crop_id, quantity, unit_price, crop_name, created_at
		FROM cart_items WHERE cart_id = ? ORDER BY id`, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}
	defer closeQuietly(rows)

	items := []models.CartItem{}
	for rows.Next() {
		var it models.CartItem
		if err := rows.Scan(&it.ID, &it.CartID, &it.CropID, &it.Quantity, &it.UnitPrice, &it.CropName, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func cartTotal(items []models.CartItem) float64 {
	var total float64
	for _, it := range items {
		total += it.Quantity * it.UnitPrice
	}
	return roundCents(total)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

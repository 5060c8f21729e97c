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
	"time"

	"github.com/tomtom215/kisaanconnect/internal/logging"
	"github.com/tomtom215/kisaanconnect/internal/metrics"
	"github.com/tomtom215/kisaanconnect/internal/models"
)

// CreateOrder turns the contents of cartID into a pending order for
// consumerID and empties the cart, all in one transaction.
func (db *DB) CreateOrder(ctx context.Context, consumerID int64, cartID, shippingAddress string) (order *models.Order, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("insert", "orders", start, err) }()

	db.writeMu.Lock()
	defer db.writeMu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				logging.Error().Err(rbErr).AnErr("original_error", err).Msg("Transaction rollback failed")
			}
		}
	}()

	items, err := queryCartItems(ctx, tx, cartID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	order = &models.Order{
		ConsumerID:      consumerID,
		TotalAmount:     cartTotal(items),
		Status:          models.OrderStatusPending,
		ShippingAddress: shippingAddress,
		CreatedAt:       time.Now().UTC(),
		Items:           make([]models.OrderItem, 0, len(items)),
	}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (consumer_id, total_amount, status, shipping_address, created_at)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`,
		order.ConsumerID, order.TotalAmount, order.Status, order.ShippingAddress, order.CreatedAt,
	).Scan(&order.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert order: %w", err)
	}

	for _, it := range items {
		oi := models.OrderItem{
			OrderID:   order.ID,
			CropID:    it.CropID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			CropName:  it.CropName,
		}
		err = tx.QueryRowContext(ctx, `
			INSERT INTO order_items (order_id, crop_id, quantity, unit_price, crop_name)
			VALUES (?, ?, ?, ?, ?)
			RETURNING id`,
			oi.OrderID, oi.CropID, oi.Quantity, oi.UnitPrice, oi.CropName,
		).Scan(&oi.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert order item: %w", err)
		}
		order.Items = append(order.Items, oi)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return nil, fmt.Errorf("failed to clear cart: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit order: %w", err)
	}

	metrics.RecordOrder(order.TotalAmount)
	return order, nil
}

// ListOrdersByConsumer returns consumerID's orders, newest first, without
// their items.
func (db *DB) ListOrdersByConsumer(ctx context.Context, consumerID int64) (orders []models.Order, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "orders", start, err) }()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, consumer_id, total_amount, status, shipping_address, created_at
		FROM orders WHERE consumer_id = ? ORDER BY created_at DESC, id DESC`, consumerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer closeQuietly(rows)

	orders = []models.Order{}
	for rows.Next() {
		var o models.Order
		if err = rows.Scan(&o.ID, &o.ConsumerID, &o.TotalAmount, &o.Status, &o.ShippingAddress, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// GetOrder returns one of consumerID's orders with its items.
func (db *DB) GetOrder(ctx context.Context, consumerID, orderID int64) (o *models.Order, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "orders", start, err) }()

	o = &models.Order{}
	err = db.conn.QueryRowContext(ctx, `
		SELECT id, consumer_id, total_amount, status, shipping_address, created_at
		FROM orders WHERE id = ? AND consumer_id = ?`, orderID, consumerID,
	).Scan(&o.ID, &o.ConsumerID, &o.TotalAmount, &o.Status, &o.ShippingAddress, &o.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, order_id, crop_id, quantity, unit_price, crop_name
		FROM order_items WHERE order_id = ? ORDER BY id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer closeQuietly(rows)

	o.Items = []models.OrderItem{}
	for rows.Next() {
		var oi models.OrderItem
		if err = rows.Scan(&oi.ID, &oi.OrderID, &oi.CropID, &oi.Quantity, &oi.UnitPrice, &oi.CropName); err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		o.Items = append(o.Items, oi)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return o, nil
}

// ConsumerStats summarises consumerID's orders. TotalProducts counts the
// crops currently available in the marketplace.
func (db *DB) ConsumerStats(ctx context.Context, consumerID int64) (stats *models.ConsumerStats, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("stats", "orders", start, err) }()

	stats = &models.ConsumerStats{OrdersByStatus: []models.StatusCount{}}
	err = db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(total_amount), 0) FROM orders WHERE consumer_id = ?`, consumerID,
	).Scan(&stats.TotalOrders, &stats.TotalSpending)
	if err != nil {
		return nil, fmt.Errorf("failed to query order totals: %w", err)
	}
	stats.TotalSpending = roundCents(stats.TotalSpending)

	if err = db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM crops WHERE available`).Scan(&stats.TotalProducts); err != nil {
		return nil, fmt.Errorf("failed to count products: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT status, COUNT(*) AS n FROM orders WHERE consumer_id = ?
		GROUP BY status ORDER BY n DESC, status`, consumerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders by status: %w", err)
	}
	defer closeQuietly(rows)
	for rows.Next() {
		var sc models.StatusCount
		if err = rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		stats.OrdersByStatus = append(stats.OrdersByStatus, sc)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

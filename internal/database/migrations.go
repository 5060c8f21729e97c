// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/kisaanconnect/internal/logging"
)

// Migration represents a versioned database migration.
type Migration struct {
	Version     int       // Unique version number (monotonically increasing)
	Name        string    // Human-readable migration name
	Description string    // Description of what this migration does
	Statements  []string  // SQL statements executed in order
	AppliedAt   time.Time // When the migration was applied (populated on query)
}

const schemaMigrationsTable = `
CREATE TABLE IF NOT EXISTS schema_migrations (
	version INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT,
	applied_at TIMESTAMP NOT NULL
);
`

// migrations is append-only. Never edit a migration that has shipped.
var migrations = []Migration{
	{
		Version:     1,
		Name:        "create_users",
		Description: "Accounts for farmers and consumers",
		Statements: []string{
			`CREATE SEQUENCE IF NOT EXISTS users_id_seq START 1`,
			`CREATE TABLE IF NOT EXISTS users (
				id BIGINT PRIMARY KEY DEFAULT nextval('users_id_seq'),
				username TEXT NOT NULL UNIQUE,
				password_hash TEXT NOT NULL,
				role TEXT NOT NULL,
				name TEXT,
				email TEXT,
				created_at TIMESTAMP NOT NULL
			)`,
		},
	},
	{
		Version:     2,
		Name:        "create_crops",
		Description: "Farmer crop listings",
		Statements: []string{
			`CREATE SEQUENCE IF NOT EXISTS crops_id_seq START 1`,
			`CREATE TABLE IF NOT EXISTS crops (
				id BIGINT PRIMARY KEY DEFAULT nextval('crops_id_seq'),
				name TEXT NOT NULL,
				quantity DOUBLE NOT NULL,
				unit TEXT NOT NULL DEFAULT 'kg',
				price_per_unit DOUBLE NOT NULL,
				description TEXT,
				location TEXT,
				available BOOLEAN NOT NULL DEFAULT TRUE,
				farmer_id BIGINT NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`,
		},
	},
	{
		Version:     3,
		Name:        "create_cart_items",
		Description: "Cart contents keyed by cart ID",
		Statements: []string{
			`CREATE SEQUENCE IF NOT EXISTS cart_items_id_seq START 1`,
			`CREATE TABLE IF NOT EXISTS cart_items (
				id BIGINT PRIMARY KEY DEFAULT nextval('cart_items_id_seq'),
				cart_id TEXT NOT NULL,
				crop_id BIGINT NOT NULL,
				quantity DOUBLE NOT NULL,
				unit_price DOUBLE NOT NULL,
				crop_name TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`,
		},
	},
	{
		Version:     4,
		Name:        "create_orders",
		Description: "Orders and their line items",
		Statements: []string{
			`CREATE SEQUENCE IF NOT EXISTS orders_id_seq START 1`,
			`CREATE TABLE IF NOT EXISTS orders (
				id BIGINT PRIMARY KEY DEFAULT nextval('orders_id_seq'),
				consumer_id BIGINT NOT NULL,
				total_amount DOUBLE NOT NULL,
				status TEXT NOT NULL DEFAULT 'pending',
				shipping_address TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL
			)`,
			`CREATE SEQUENCE IF NOT EXISTS order_items_id_seq START 1`,
			`CREATE TABLE IF NOT EXISTS order_items (
				id BIGINT PRIMARY KEY DEFAULT nextval('order_items_id_seq'),
				order_id BIGINT NOT NULL,
				crop_id BIGINT NOT NULL,
				quantity DOUBLE NOT NULL,
				unit_price DOUBLE NOT NULL,
				crop_name TEXT NOT NULL
			)`,
		},
	},
	{
		Version:     5,
		Name:        "add_lookup_indexes",
		Description: "Indexes for per-owner listing queries",
		Statements: []string{
			`CREATE INDEX IF NOT EXISTS idx_crops_farmer ON crops(farmer_id)`,
			`CREATE INDEX IF NOT EXISTS idx_cart_items_cart ON cart_items(cart_id)`,
			`CREATE INDEX IF NOT EXISTS idx_orders_consumer ON orders(consumer_id)`,
			`CREATE INDEX IF NOT EXISTS idx_order_items_order ON order_items(order_id)`,
		},
	},
}

func (db *DB) createMigrationsTable(ctx context.Context) error {
	_, err := db.conn.ExecContext(ctx, schemaMigrationsTable)
	return err
}

func (db *DB) getAppliedMigrations(ctx context.Context) (map[int]Migration, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT version, name, COALESCE(description, ''), applied_at FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer closeQuietly(rows)

	applied := make(map[int]Migration)
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, err
		}
		applied[m.Version] = m
	}
	return applied, rows.Err()
}

func (db *DB) runVersionedMigrations() error {
	ctx, cancel := schemaContext()
	defer cancel()

	if err := db.createMigrationsTable(ctx); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	applied, err := db.getAppliedMigrations(ctx)
	if err != nil {
		return fmt.Errorf("failed to get applied migrations: %w", err)
	}

	newMigrations := 0
	for _, m := range migrations {
		if _, exists := applied[m.Version]; exists {
			continue
		}
		for _, stmt := range m.Statements {
			if _, err := db.conn.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to execute migration v%d (%s): %w", m.Version, m.Name, err)
			}
		}
		_, err := db.conn.ExecContext(ctx,
			`INSERT INTO schema_migrations (version, name, description, applied_at) VALUES (?, ?, ?, ?)`,
			m.Version, m.Name, m.Description, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to record migration v%d: %w", m.Version, err)
		}
		newMigrations++
	}

	if newMigrations > 0 {
		logging.Info().Int("applied", newMigrations).Msg("Applied database migrations")
	}
	return nil
}

// GetCurrentSchemaVersion returns the highest applied migration version.
func (db *DB) GetCurrentSchemaVersion(ctx context.Context) (int, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	var version int
	err := db.conn.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get schema version: %w", err)
	}
	return version, nil
}

// GetMigrationHistory returns applied migrations in version order.
func (db *DB) GetMigrationHistory(ctx context.Context) ([]Migration, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT version, name, COALESCE(description, ''), applied_at FROM schema_migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("failed to query migration history: %w", err)
	}
	defer closeQuietly(rows)

	var history []Migration
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Version, &m.Name, &m.Description, &m.AppliedAt); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		history = append(history, m)
	}
	return history, rows.Err()
}

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
	"strings"
	"time"

	"github.com/tomtom215/kisaanconnect/internal/models"
)

const cropColumns = `id, name, quantity, unit, price_per_unit, description, location, available, farmer_id, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCrop(s rowScanner) (*models.Crop, error) {
	var c models.Crop
	err := s.Scan(&c.ID, &c.Name, &c.Quantity, &c.Unit, &c.PricePerUnit,
		&c.Description, &c.Location, &c.Available, &c.FarmerID, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateCrop lists a crop for farmerID.
func (db *DB) CreateCrop(ctx context.Context, farmerID int64, in *models.CropInput) (c *models.Crop, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("insert", "crops", start, err) }()

	c = &models.Crop{
		Name:         in.Name,
		Quantity:     in.Quantity,
		Unit:         in.Unit,
		PricePerUnit: in.PricePerUnit,
		Description:  in.Description,
		Location:     in.Location,
		Available:    true,
		FarmerID:     farmerID,
		CreatedAt:    time.Now().UTC(),
	}
	if c.Unit == "" {
		c.Unit = models.DefaultCropUnit
	}
	if in.Available != nil {
		c.Available = *in.Available
	}

	err = db.conn.QueryRowContext(ctx, `
		INSERT INTO crops (name, quantity, unit, price_per_unit, description, location, available, farmer_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`,
		c.Name, c.Quantity, c.Unit, c.PricePerUnit, nullable(c.Description), nullable(c.Location),
		c.Available, c.FarmerID, c.CreatedAt,
	).Scan(&c.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert crop: %w", err)
	}
	return c, nil
}

// GetCrop returns a crop owned by farmerID. A crop owned by someone else is
// reported as ErrNotFound.
func (db *DB) GetCrop(ctx context.Context, farmerID, cropID int64) (c *models.Crop, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "crops", start, err) }()

	c, err = scanCrop(db.conn.QueryRowContext(ctx,
		`SELECT `+cropColumns+` FROM crops WHERE id = ? AND farmer_id = ?`, cropID, farmerID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get crop: %w", err)
	}
	return c, nil
}

// ListCropsByFarmer returns farmerID's crops, newest first.
func (db *DB) ListCropsByFarmer(ctx context.Context, farmerID int64) ([]models.Crop, error) {
	return db.listCrops(ctx,
		`SELECT `+cropColumns+` FROM crops WHERE farmer_id = ? ORDER BY created_at DESC, id DESC`, farmerID)
}

// ListAvailableCrops returns every available crop ordered by name.
func (db *DB) ListAvailableCrops(ctx context.Context) ([]models.Crop, error) {
	return db.listCrops(ctx,
		`SELECT `+cropColumns+` FROM crops WHERE available ORDER BY name, id`)
}

func (db *DB) listCrops(ctx context.Context, query string, args ...any) (crops []models.Crop, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("select", "crops", start, err) }()

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query crops: %w", err)
	}
	defer closeQuietly(rows)

	crops = []models.Crop{}
	for rows.Next() {
		c, err := scanCrop(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan crop: %w", err)
		}
		crops = append(crops, *c)
	}
	return crops, rows.Err()
}

// UpdateCrop applies the non-nil fields of upd and returns the new row.
func (db *DB) UpdateCrop(ctx context.Context, farmerID, cropID int64, upd *models.CropUpdate) (*models.Crop, error) {
	var (
		sets []string
		args []any
	)
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Quantity != nil {
		add("quantity", *upd.Quantity)
	}
	if upd.Unit != nil {
		add("unit", *upd.Unit)
	}
	if upd.PricePerUnit != nil {
		add("price_per_unit", *upd.PricePerUnit)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.Location != nil {
		add("location", *upd.Location)
	}
	if upd.Available != nil {
		add("available", *upd.Available)
	}
	if len(sets) == 0 {
		return db.GetCrop(ctx, farmerID, cropID)
	}

	if err := db.execOwned(ctx, "update", "crops",
		`UPDATE crops SET `+strings.Join(sets, ", ")+` WHERE id = ? AND farmer_id = ?`,
		append(args, cropID, farmerID)...); err != nil {
		return nil, err
	}
	return db.GetCrop(ctx, farmerID, cropID)
}

// DeleteCrop removes a crop owned by farmerID.
func (db *DB) DeleteCrop(ctx context.Context, farmerID, cropID int64) error {
	return db.execOwned(ctx, "delete", "crops",
		`DELETE FROM crops WHERE id = ? AND farmer_id = ?`, cropID, farmerID)
}

// execOwned runs a statement that must affect exactly one row.
func (db *DB) execOwned(ctx context.Context, operation, table, query string, args ...any) (err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe(operation, table, start, err) }()

	res, err := db.conn.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", operation, table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to %s %s: %w", operation, table, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// FarmerStats summarises farmerID's listings.
func (db *DB) FarmerStats(ctx context.Context, farmerID int64) (stats *models.FarmerStats, err error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { observe("stats", "crops", start, err) }()

	stats = &models.FarmerStats{CropsByType: []models.CropTypeCount{}}
	err = db.conn.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(quantity), 0), COALESCE(SUM(quantity * price_per_unit), 0)
		FROM crops WHERE farmer_id = ?`, farmerID,
	).Scan(&stats.TotalCrops, &stats.TotalQuantity, &stats.TotalValue)
	if err != nil {
		return nil, fmt.Errorf("failed to query crop totals: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT name, COUNT(*) AS n FROM crops WHERE farmer_id = ?
		GROUP BY name ORDER BY n DESC, name`, farmerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query crops by type: %w", err)
	}
	defer closeQuietly(rows)
	for rows.Next() {
		var ct models.CropTypeCount
		if err = rows.Scan(&ct.Name, &ct.Count); err != nil {
			return nil, fmt.Errorf("failed to scan crop type: %w", err)
		}
		stats.CropsByType = append(stats.CropsByType, ct)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

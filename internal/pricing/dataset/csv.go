// KisaanConnect - Farmer to Consumer Marketplace and Crop Price Prediction
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/kisaanconnect

// Package dataset loads crop price training data through DuckDB.
//
// DuckDB's CSV sniffer detects the delimiter, header and column types, and the
// detected types decide which columns are numeric features and which are
// categorical. Numeric columns are read as DOUBLE and everything else as
// VARCHAR, so DECIMAL and integer columns need no special handling.
//
// Header names are normalized to snake_case ("Crop_Name" and "Crop Name"
// both become crop_name) so the trained schema uses the same feature names as
// prediction requests.
package dataset

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/tomtom215/kisaanconnect/internal/logging"
	"github.com/tomtom215/kisaanconnect/internal/pricing"
)

// ErrNotFound is returned when the dataset file does not exist.
var ErrNotFound = errors.New("dataset file not found")

// numericTypes are DuckDB type names (without precision) read as numbers.
var numericTypes = map[string]struct{}{
	"TINYINT": {}, "SMALLINT": {}, "INTEGER": {}, "BIGINT": {}, "HUGEINT": {},
	"UTINYINT": {}, "USMALLINT": {}, "UINTEGER": {}, "UBIGINT": {}, "UHUGEINT": {},
	"FLOAT": {}, "DOUBLE": {}, "DECIMAL": {}, "REAL": {},
}

// KindOf maps a DuckDB column type to a feature kind.
func KindOf(duckType string) pricing.ColumnKind {
	base := strings.ToUpper(strings.TrimSpace(duckType))
	if i := strings.IndexByte(base, '('); i >= 0 {
		base = base[:i]
	}
	if _, ok := numericTypes[base]; ok {
		return pricing.KindNumeric
	}
	return pricing.KindCategorical
}

// LoadCSV reads path, infers the feature schema and returns the dataset.
// Rows whose target is empty are skipped. A missing file returns ErrNotFound;
// a file with no usable rows returns pricing.ErrSchema.
func LoadCSV(ctx context.Context, path string) (*pricing.Dataset, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("stat dataset: %w", err)
	}

	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(1)

	view := fmt.Sprintf("CREATE VIEW raw_dataset AS SELECT * FROM read_csv_auto(%s, header = true)", quoteLiteral(path))
	if _, err := db.ExecContext(ctx, view); err != nil {
		return nil, fmt.Errorf("read csv %s: %w", path, err)
	}

	columns, headers, err := describe(ctx, db)
	if err != nil {
		return nil, err
	}
	schema, target, err := pricing.InferSchema(columns)
	if err != nil {
		return nil, err
	}

	ds, skipped, err := readRows(ctx, db, columns, headers, schema, target)
	if err != nil {
		return nil, err
	}
	if ds.Len() == 0 {
		return nil, fmt.Errorf("%w: %s has no rows with a %s value", pricing.ErrSchema, path, target)
	}

	logging.Info().
		Str("path", path).
		Int("rows", ds.Len()).
		Int("skipped", skipped).
		Strs("numeric", schema.NumericFeatures).
		Strs("categorical", schema.CategoricalFeatures).
		Str("target", target).
		Msg("Loaded training dataset")
	return ds, nil
}

// describe returns the columns under their normalized names, and the raw
// header of each column for use in SQL.
func describe(ctx context.Context, db *sql.DB) ([]pricing.Column, []string, error) {
	rows, err := db.QueryContext(ctx, "DESCRIBE raw_dataset")
	if err != nil {
		return nil, nil, fmt.Errorf("describe dataset: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		columns []pricing.Column
		headers []string
	)
	seen := make(map[string]string)
	for rows.Next() {
		var name, typ string
		var null, key, def, extra sql.NullString
		if err := rows.Scan(&name, &typ, &null, &key, &def, &extra); err != nil {
			return nil, nil, fmt.Errorf("scan column description: %w", err)
		}
		norm := pricing.NormalizeColumnName(name)
		if norm == "" {
			return nil, nil, fmt.Errorf("%w: column %q has no usable name", pricing.ErrSchema, name)
		}
		if prev, dup := seen[norm]; dup {
			return nil, nil, fmt.Errorf("%w: columns %q and %q both normalize to %s", pricing.ErrSchema, prev, name, norm)
		}
		seen[norm] = name
		columns = append(columns, pricing.Column{Name: norm, Kind: KindOf(typ)})
		headers = append(headers, name)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("describe dataset: %w", err)
	}
	return columns, headers, nil
}

func readRows(ctx context.Context, db *sql.DB, columns []pricing.Column, headers []string, schema pricing.FeatureSchema, target string) (*pricing.Dataset, int, error) {
	selects := make([]string, len(columns))
	for i, c := range columns {
		typ := "VARCHAR"
		if c.Kind == pricing.KindNumeric {
			typ = "DOUBLE"
		}
		selects[i] = fmt.Sprintf("CAST(%s AS %s)", quoteIdent(headers[i]), typ)
	}
	query := "SELECT " + strings.Join(selects, ", ") + " FROM raw_dataset"

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("query dataset: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ds := &pricing.Dataset{Schema: schema, Target: target}
	nums := make([]sql.NullFloat64, len(columns))
	strs := make([]sql.NullString, len(columns))
	dest := make([]any, len(columns))
	for i, c := range columns {
		if c.Kind == pricing.KindNumeric {
			dest[i] = &nums[i]
		} else {
			dest[i] = &strs[i]
		}
	}

	skipped := 0
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, 0, fmt.Errorf("scan dataset row: %w", err)
		}
		r := pricing.NewRecord()
		var y sql.NullFloat64
		for i, c := range columns {
			switch {
			case c.Name == target:
				y = nums[i]
			case c.Kind == pricing.KindNumeric:
				if nums[i].Valid {
					r.Numeric[c.Name] = nums[i].Float64
				}
			default:
				if strs[i].Valid && strings.TrimSpace(strs[i].String) != "" {
					r.Categorical[c.Name] = strings.TrimSpace(strs[i].String)
				}
			}
		}
		if !y.Valid {
			skipped++
			continue
		}
		ds.Records = append(ds.Records, r)
		ds.Targets = append(ds.Targets, y.Float64)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("read dataset: %w", err)
	}
	return ds, skipped, nil
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func quoteIdent(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}
